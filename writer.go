package gridscan

import "github.com/lkaramanov/gridscan/bitvec"

// EncodeOptions carries the caller's hints into an encode call.
type EncodeOptions struct {
	// ErrorCorrection selects the EC level, in the symbology's own
	// vocabulary ("L"/"M"/"Q"/"H" for QR, "0".."8" for PDF417, a
	// percentage for Aztec).
	ErrorCorrection string

	// CharacterSet selects the text encoding for byte segments.
	CharacterSet string

	// Margin is the quiet zone width in modules; nil takes the
	// symbology default.
	Margin *int

	// QRVersion forces a QR version (1-40) instead of the minimum fit.
	QRVersion int

	// QRMaskPattern forces a QR mask: values 1-8 select masks 0-7, zero
	// runs the penalty scan.
	QRMaskPattern int

	// PDF417Compact omits the right row indicator and stop pattern.
	PDF417Compact bool

	// PDF417Compaction forces a compaction mode.
	PDF417Compaction int

	// PDF417Dimensions bounds the symbol's rows and columns.
	PDF417Dimensions *PDF417Dimensions

	// GS1Format encodes with a leading FNC1.
	GS1Format bool

	// ForceCodeSet pins Code 128 to one code set ("A", "B", "C").
	ForceCodeSet string
}

// PDF417Dimensions bounds PDF417 symbol geometry.
type PDF417Dimensions struct {
	MinCols, MaxCols int
	MinRows, MaxRows int
}

// Writer renders text into a module matrix for one format family.
type Writer interface {
	// Encode renders contents at the requested size. It fails with
	// ErrBadInput for impossible dimensions or an unsupported format,
	// and ErrWriter when the payload cannot be represented.
	Encode(contents string, format Format, width, height int, opts *EncodeOptions) (*bitvec.Matrix, error)
}
