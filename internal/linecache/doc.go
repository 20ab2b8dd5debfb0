// Package linecache implements the short-lived cache that keeps recently
// decoded grid rows in memory.
//
// Raster tiles are usually requested in runs that touch the same grid rows
// several times within a few seconds. Entries live for a fixed time after
// insertion (hits do not extend it) and are removed by a background sweep.
// A miss is always safe: callers simply read the row again.
package linecache

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'l3bin.linecache'
func tracer() tracing.Trace {
	return tracing.Select("l3bin.linecache")
}
