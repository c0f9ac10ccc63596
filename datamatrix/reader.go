package datamatrix

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

func init() {
	gridscan.RegisterReader(gridscan.FormatDataMatrix, func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader()
	})
	gridscan.RegisterWriter(gridscan.FormatDataMatrix, func() gridscan.Writer {
		return NewWriter()
	})
}

// Reader decodes Data Matrix symbols from binary images.
type Reader struct {
	decoder *Decoder
}

// NewReader returns a Data Matrix Reader.
func NewReader() *Reader {
	return &Reader{decoder: NewDecoder()}
}

var _ gridscan.Reader = (*Reader)(nil)

// Decode locates and decodes one symbol.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	if opts == nil {
		opts = &gridscan.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	if opts.PureBarcode {
		grid, err := extractPureGrid(matrix)
		if err != nil {
			return nil, err
		}
		decoded, err := r.decoder.Decode(grid)
		if err != nil {
			return nil, err
		}
		result := gridscan.NewResult(decoded.Text, decoded.RawBytes, nil, gridscan.FormatDataMatrix)
		result.PutMetadata(gridscan.KeySymbologyIdentifier, "]d1")
		result.PutMetadata(gridscan.KeyErrorsCorrected, decoded.ErrorsCorrected)
		return result, nil
	}

	detected, err := Detect(matrix)
	if err != nil {
		return nil, err
	}
	decoded, err := r.decoder.Decode(detected.Grid)
	if err != nil {
		return nil, err
	}
	for _, p := range detected.Points {
		opts.NotifyPoint(p)
	}

	result := gridscan.NewResult(decoded.Text, decoded.RawBytes, detected.Points, gridscan.FormatDataMatrix)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]d1")
	result.PutMetadata(gridscan.KeyErrorsCorrected, decoded.ErrorsCorrected)
	return result, nil
}

// Reset implements gridscan.Reader.
func (r *Reader) Reset() {}

// extractPureGrid resamples an axis-aligned symbol with only a quiet border
// around it.
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

	matrixWidth := (rightBottomX - leftTopX + 1) / moduleSize
	matrixHeight := (rightBottomY - leftTopY + 1) / moduleSize
	if matrixWidth <= 0 || matrixHeight <= 0 {
		return nil, gridscan.ErrNotFound
	}

	nudge := moduleSize / 2
	grid := bitvec.New(matrixWidth, matrixHeight)
	for y := 0; y < matrixHeight; y++ {
		rowOffset := leftTopY + y*moduleSize + nudge
		for x := 0; x < matrixWidth; x++ {
			if image.At(leftTopX+x*moduleSize+nudge, rowOffset) {
				grid.Set(x, y)
			}
		}
	}
	return grid, nil
}

// pureModuleSize walks right along the solid left finder's top run.
func pureModuleSize(leftTopX, leftTopY int, image *bitvec.Matrix) (int, error) {
	width := image.Width()
	x := leftTopX
	for x < width && image.At(x, leftTopY) {
		x++
	}
	if x == width || x == leftTopX {
		return 0, gridscan.ErrNotFound
	}
	return x - leftTopX, nil
}
