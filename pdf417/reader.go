package pdf417

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
)

func init() {
	gridscan.RegisterReader(gridscan.FormatPDF417, func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader()
	})
	gridscan.RegisterWriter(gridscan.FormatPDF417, func() gridscan.Writer {
		return NewWriter()
	})
}

// Reader decodes PDF417 symbols from binary images.
type Reader struct{}

// NewReader returns a PDF417 Reader.
func NewReader() *Reader {
	return &Reader{}
}

var _ gridscan.Reader = (*Reader)(nil)
var _ gridscan.MultipleReader = (*Reader)(nil)

// Decode locates and decodes the first PDF417 symbol.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	results, err := r.decode(image, opts, false)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return results[0], nil
}

// DecodeMultiple decodes every PDF417 symbol in the image.
func (r *Reader) DecodeMultiple(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) ([]*gridscan.Result, error) {
	return r.decode(image, opts, true)
}

func (r *Reader) decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions, multiple bool) ([]*gridscan.Result, error) {
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	tryHarder := opts != nil && opts.TryHarder
	detected, err := Detect(matrix, multiple, tryHarder)
	if err != nil {
		return nil, err
	}

	var results []*gridscan.Result
	for _, points := range detected.Points {
		if len(points) < 8 {
			continue
		}
		decoded, err := decodeSymbol(
			detected.Bits,
			points[4], points[5], points[6], points[7],
			minCodewordWidth(points),
			maxCodewordWidth(points),
		)
		if err != nil {
			continue
		}

		result := gridscan.NewResult(decoded.Text, decoded.RawBytes, nil, gridscan.FormatPDF417)
		result.PutMetadata(gridscan.KeyErrorCorrectionLevel, decoded.ECLevel)
		result.PutMetadata(gridscan.KeyErrorsCorrected, decoded.ErrorsCorrected)
		result.PutMetadata(gridscan.KeyErasuresCorrected, decoded.ErasuresCorrected)
		if decoded.Extra != nil {
			result.PutMetadata(gridscan.KeyPDF417Extra, decoded.Extra)
		}
		result.PutMetadata(gridscan.KeySymbologyIdentifier, fmt.Sprintf("]L%d", decoded.SymbologyModifier))
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return results, nil
}

// Reset implements gridscan.Reader.
func (r *Reader) Reset() {}

func widthBetween(p1, p2 *gridscan.Point) int {
	if p1 == nil || p2 == nil {
		return 0
	}
	return int(math.Abs(p1.X - p2.X))
}

func minCodewordWidth(points []*gridscan.Point) int {
	return minOf(
		minOf(widthBetween(points[0], points[4]), widthBetween(points[6], points[2])),
		minOf(widthBetween(points[1], points[5]), widthBetween(points[7], points[3])),
	)
}

func maxCodewordWidth(points []*gridscan.Point) int {
	return maxOf(
		maxOf(widthBetween(points[0], points[4]), widthBetween(points[6], points[2])),
		maxOf(widthBetween(points[1], points[5]), widthBetween(points[7], points[3])),
	)
}

func minOf(a, b int) int {
	if a < b {
		return a
	}
	return b
}
