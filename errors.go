package gridscan

import "errors"

var (
	// ErrNotFound is returned when no barcode survives detection.
	ErrNotFound = errors.New("barcode not found")

	// ErrChecksum is returned when error correction cannot repair the
	// codewords, or a symbology check digit disagrees.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned on a syntactic violation in the bitstream.
	ErrFormat = errors.New("format error")

	// ErrWriter is returned when contents cannot be encoded.
	ErrWriter = errors.New("writer error")

	// ErrBadInput is returned when a caller violates an API contract,
	// such as requesting impossible dimensions.
	ErrBadInput = errors.New("invalid argument")

	// ErrUnsupported is returned for view operations a luminance source
	// cannot provide.
	ErrUnsupported = errors.New("operation unsupported")
)
