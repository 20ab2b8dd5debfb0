package store

import "sync"

// Synchronize returns a store whose calls, including calls on the variables
// it hands out, are serialised through a single mutex. Closing the returned
// store closes s.
func Synchronize(s Store) Store {
	if ss, ok := s.(*syncStore); ok {
		return ss
	}
	return &syncStore{s: s}
}

type syncStore struct {
	mu     sync.Mutex
	s      Store
	closed bool
}

func (ss *syncStore) Variables() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil
	}
	return ss.s.Variables()
}

func (ss *syncStore) Variable(name string) (Variable, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil, false
	}
	v, ok := ss.s.Variable(name)
	if !ok {
		return nil, false
	}
	return &syncVariable{ss: ss, v: v}, true
}

func (ss *syncStore) Dimensions() []Dimension {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil
	}
	return ss.s.Dimensions()
}

func (ss *syncStore) Attribute(name string) (interface{}, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil, false
	}
	return ss.s.Attribute(name)
}

func (ss *syncStore) AttributeNames() []string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil
	}
	return ss.s.AttributeNames()
}

func (ss *syncStore) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return nil
	}
	ss.closed = true
	return ss.s.Close()
}

type syncVariable struct {
	ss *syncStore
	v  Variable
}

func (sv *syncVariable) Name() string { return sv.v.Name() }

func (sv *syncVariable) Type() string {
	sv.ss.mu.Lock()
	defer sv.ss.mu.Unlock()
	return sv.v.Type()
}

func (sv *syncVariable) Dimensions() []Dimension {
	sv.ss.mu.Lock()
	defer sv.ss.mu.Unlock()
	return sv.v.Dimensions()
}

func (sv *syncVariable) Attribute(name string) (interface{}, bool) {
	sv.ss.mu.Lock()
	defer sv.ss.mu.Unlock()
	return sv.v.Attribute(name)
}

func (sv *syncVariable) ReadAll() (interface{}, error) {
	sv.ss.mu.Lock()
	defer sv.ss.mu.Unlock()
	if sv.ss.closed {
		return nil, ErrClosed
	}
	return sv.v.ReadAll()
}

func (sv *syncVariable) ReadSlice(origin, shape []int) (interface{}, error) {
	sv.ss.mu.Lock()
	defer sv.ss.mu.Unlock()
	if sv.ss.closed {
		return nil, ErrClosed
	}
	return sv.v.ReadSlice(origin, shape)
}
