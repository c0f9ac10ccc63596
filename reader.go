package gridscan

// DecodeOptions carries the caller's hints into a decode call. The zero
// value requests a plain single-symbol decode across all formats.
type DecodeOptions struct {
	// TryHarder spends more time: denser row sampling, extra
	// orientations, charset sniffing.
	TryHarder bool

	// PureBarcode promises the image is a clean, axis-aligned symbol
	// with no scene around it, letting detectors skip their fallbacks.
	PureBarcode bool

	// PossibleFormats restricts which formats are attempted.
	PossibleFormats []Format

	// CharacterSet overrides the default byte-mode character set.
	CharacterSet string

	// AllowedLengths restricts valid lengths for variable-length 1D
	// formats (ITF).
	AllowedLengths []int

	// AssumeCode39CheckDigit treats the last Code 39 character as a
	// check digit and verifies it.
	AssumeCode39CheckDigit bool

	// AssumeGS1 interprets FNC1 as a GS1 separator.
	AssumeGS1 bool

	// ReturnCodabarStartEnd keeps the Codabar start/stop guard
	// characters in the result text.
	ReturnCodabarStartEnd bool

	// AllowedEANExtensions restricts which EAN add-on lengths (2, 5)
	// are accepted; a symbol without a listed extension is rejected.
	AllowedEANExtensions []int

	// AlsoInverted retries with inverted luminance after a failed pass.
	AlsoInverted bool

	// TelepenAsNumeric decodes Telepen payloads as compressed digits.
	TelepenAsNumeric bool

	// PointCallback, when set, is invoked for each anchor point as it
	// is confirmed.
	PointCallback func(Point)
}

// NotifyPoint reports an anchor to the caller's callback, if any.
func (o *DecodeOptions) NotifyPoint(p Point) {
	if o != nil && o.PointCallback != nil {
		o.PointCallback(p)
	}
}

// Reader decodes one barcode format from a Bitmap.
type Reader interface {
	// Decode finds and decodes a barcode, or fails with one of
	// ErrNotFound, ErrFormat, or ErrChecksum.
	Decode(image *Bitmap, opts *DecodeOptions) (*Result, error)

	// Reset drops any state retained between decode calls.
	Reset()
}

// MultipleReader decodes every barcode it can find in one image.
type MultipleReader interface {
	DecodeMultiple(image *Bitmap, opts *DecodeOptions) ([]*Result, error)
}
