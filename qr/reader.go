package qr

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
)

func init() {
	gridscan.RegisterReader(gridscan.FormatQRCode, func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader()
	})
	gridscan.RegisterWriter(gridscan.FormatQRCode, func() gridscan.Writer {
		return NewWriter()
	})
}

// Reader decodes QR code symbols from binary images.
type Reader struct {
	decoder *Decoder
}

// NewReader returns a QR Reader.
func NewReader() *Reader {
	return &Reader{decoder: NewDecoder()}
}

// Decode locates and decodes one QR symbol.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	if opts == nil {
		opts = &gridscan.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	var decoded *internal.DecoderResult
	var mirrored bool
	var points []gridscan.Point

	if opts.PureBarcode {
		grid, err := extractPureGrid(matrix)
		if err != nil {
			return nil, err
		}
		decoded, mirrored, err = r.decoder.Decode(grid, opts.CharacterSet)
		if err != nil {
			return nil, err
		}
	} else {
		detector := NewDetector(matrix)
		if opts.PointCallback != nil {
			detector.SetPointCallback(opts.PointCallback)
		}
		detected, err := detector.Detect(opts.TryHarder)
		if err != nil {
			return nil, err
		}
		decoded, mirrored, err = r.decoder.Decode(detected.Grid, opts.CharacterSet)
		if err != nil {
			return nil, err
		}
		points = detected.Points
		if mirrored {
			// A mirrored read swaps the roles of the bottom-left and
			// top-right anchors.
			if len(points) >= 3 {
				points[0], points[2] = points[2], points[0]
			}
		}
	}

	result := gridscan.NewResult(decoded.Text, decoded.RawBytes, points, gridscan.FormatQRCode)
	attachMetadata(result, decoded, mirrored)
	return result, nil
}

// Reset implements gridscan.Reader; the QR reader keeps no state.
func (r *Reader) Reset() {}

func attachMetadata(result *gridscan.Result, decoded *internal.DecoderResult, mirrored bool) {
	if decoded.ByteSegments != nil {
		result.PutMetadata(gridscan.KeyByteSegments, decoded.ByteSegments)
	}
	if decoded.ECLevel != "" {
		result.PutMetadata(gridscan.KeyErrorCorrectionLevel, decoded.ECLevel)
	}
	if decoded.HasStructuredAppend() {
		result.PutMetadata(gridscan.KeyStructuredAppendSequence, decoded.SASequence)
		result.PutMetadata(gridscan.KeyStructuredAppendParity, decoded.SAParity)
	}
	result.PutMetadata(gridscan.KeyErrorsCorrected, decoded.ErrorsCorrected)
	result.PutMetadata(gridscan.KeyMirrored, mirrored)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, fmt.Sprintf("]Q%d", decoded.SymbologyModifier))
}

// extractPureGrid resamples an image promised to contain nothing but an
// axis-aligned symbol with a quiet border.
func extractPureGrid(image *bitvec.Matrix) (*bitvec.Matrix, error) {
	leftTopX, leftTopY, ok := image.FirstSet()
	if !ok {
		return nil, gridscan.ErrNotFound
	}
	rightBottomX, rightBottomY, ok := image.LastSet()
	if !ok {
		return nil, gridscan.ErrNotFound
	}

	moduleSize, err := pureModuleSize(leftTopX, leftTopY, image)
	if err != nil {
		return nil, err
	}

	top := leftTopY
	bottom := rightBottomY
	left := leftTopX
	right := rightBottomX

	if left >= right || top >= bottom {
		return nil, gridscan.ErrNotFound
	}
	if bottom-top != right-left {
		// Likely a severed right edge; trust the height.
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, gridscan.ErrNotFound
		}
	}

	matrixWidth := int(math.Round(float64(right-left+1) / moduleSize))
	matrixHeight := int(math.Round(float64(bottom-top+1) / moduleSize))
	if matrixWidth <= 0 || matrixHeight <= 0 || matrixWidth != matrixHeight {
		return nil, gridscan.ErrNotFound
	}

	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge

	nudgedTooFarRight := left + int(float64(matrixWidth-1)*moduleSize) - right
	if nudgedTooFarRight > 0 {
		if nudgedTooFarRight > nudge {
			return nil, gridscan.ErrNotFound
		}
		left -= nudgedTooFarRight
	}
	nudgedTooFarDown := top + int(float64(matrixHeight-1)*moduleSize) - bottom
	if nudgedTooFarDown > 0 {
		if nudgedTooFarDown > nudge {
			return nil, gridscan.ErrNotFound
		}
		top -= nudgedTooFarDown
	}

	grid := bitvec.NewSquare(matrixWidth)
	for y := 0; y < matrixHeight; y++ {
		rowOffset := top + int(float64(y)*moduleSize)
		for x := 0; x < matrixWidth; x++ {
			if image.At(left+int(float64(x)*moduleSize), rowOffset) {
				grid.Set(x, y)
			}
		}
	}
	return grid, nil
}

// pureModuleSize estimates module size from the first finder's diagonal.
func pureModuleSize(leftTopX, leftTopY int, image *bitvec.Matrix) (float64, error) {
	height := image.Height()
	width := image.Width()
	x, y := leftTopX, leftTopY
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.At(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, gridscan.ErrNotFound
	}
	return float64(x-leftTopX) / 7.0, nil
}
