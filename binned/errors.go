package binned

import (
	"errors"

	"github.com/robert-malhotra/go-l3bin/internal/accessor"
	"github.com/robert-malhotra/go-l3bin/internal/raster"
)

// Common errors
var (
	ErrUnsupportedSubsampling = raster.ErrSubsampling
	ErrBufferSize             = raster.ErrBufferSize
	ErrNoBands                = errors.New("binned: no bands found")
	ErrFormat                 = accessor.ErrFormat
	ErrCorruptIndex           = accessor.ErrCorruptIndex
	ErrClosed                 = accessor.ErrClosed
	ErrUnknownBand            = errors.New("binned: unknown band")
)
