package sink

import "github.com/hyp3rd/ewrap"

var (
	// ErrWriterClosed is returned by operations attempted on a closed sink.
	ErrWriterClosed = ewrap.New("sink: writer is closed")
	// ErrInvalidCompression is returned for an unsupported compression level.
	ErrInvalidCompression = ewrap.New("sink: invalid compression level")
	// ErrCompressionFailed wraps a failure while compressing a rotated file.
	ErrCompressionFailed = ewrap.New("sink: compression failed")
)
