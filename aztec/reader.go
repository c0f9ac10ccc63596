package aztec

import (
	gridscan "github.com/lkaramanov/gridscan"
)

func init() {
	gridscan.RegisterReader(gridscan.FormatAztec, func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader()
	})
	gridscan.RegisterWriter(gridscan.FormatAztec, func() gridscan.Writer {
		return NewWriter()
	})
}

// Reader decodes Aztec symbols from binary images.
type Reader struct{}

// NewReader returns an Aztec Reader.
func NewReader() *Reader {
	return &Reader{}
}

var _ gridscan.Reader = (*Reader)(nil)

// Decode locates and decodes one Aztec symbol, retrying mirrored when the
// first pass fails.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	detection, err := Detect(matrix, false)
	var text string
	var rawBytes []byte
	if err == nil {
		text, rawBytes, err = DecodeDetection(detection)
	}
	if err != nil {
		mirrored, mErr := Detect(matrix, true)
		if mErr != nil {
			return nil, err
		}
		mText, mRaw, mErr := DecodeDetection(mirrored)
		if mErr != nil {
			return nil, err
		}
		detection = mirrored
		text, rawBytes = mText, mRaw
	}

	for _, p := range detection.Points {
		opts.NotifyPoint(p)
	}

	result := gridscan.NewResult(text, rawBytes, detection.Points, gridscan.FormatAztec)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]z0")
	return result, nil
}

// Reset implements gridscan.Reader.
func (r *Reader) Reset() {}
