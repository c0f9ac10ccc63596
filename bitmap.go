package gridscan

import "github.com/lkaramanov/gridscan/bitvec"

// Binarizer turns luminance samples into black/white bits.
type Binarizer interface {
	// BlackRow binarizes one row. A non-nil row of sufficient length is
	// reused.
	BlackRow(y int, row *bitvec.Vector) (*bitvec.Vector, error)

	// BlackMatrix binarizes the whole image.
	BlackMatrix() (*bitvec.Matrix, error)

	// Source returns the underlying luminance view.
	Source() Luminance

	// Width returns the image width.
	Width() int

	// Height returns the image height.
	Height() int
}

// Bitmap is the binary image handed to readers. The full matrix is computed
// once and cached for the life of the decode call.
type Bitmap struct {
	binarizer Binarizer
	matrix    *bitvec.Matrix
}

// NewBitmap wraps a Binarizer.
func NewBitmap(binarizer Binarizer) *Bitmap {
	return &Bitmap{binarizer: binarizer}
}

// Width returns the bitmap width.
func (b *Bitmap) Width() int { return b.binarizer.Width() }

// Height returns the bitmap height.
func (b *Bitmap) Height() int { return b.binarizer.Height() }

// BlackRow binarizes one row.
func (b *Bitmap) BlackRow(y int, row *bitvec.Vector) (*bitvec.Vector, error) {
	return b.binarizer.BlackRow(y, row)
}

// BlackMatrix binarizes the whole image, caching the result.
func (b *Bitmap) BlackMatrix() (*bitvec.Matrix, error) {
	if b.matrix != nil {
		return b.matrix, nil
	}
	m, err := b.binarizer.BlackMatrix()
	if err != nil {
		return nil, err
	}
	b.matrix = m
	return m, nil
}

// RotateCCW returns the bitmap rotated a quarter turn counterclockwise,
// backed by the already-binarized matrix.
func (b *Bitmap) RotateCCW() (*Bitmap, error) {
	m, err := b.BlackMatrix()
	if err != nil {
		return nil, err
	}
	rotated := m.Clone()
	rotated.Rotate90()
	return &Bitmap{binarizer: &matrixBinarizer{matrix: rotated}, matrix: rotated}, nil
}

// Crop returns a view of a sub-rectangle of the binarized bitmap.
func (b *Bitmap) Crop(left, top, width, height int) (*Bitmap, error) {
	m, err := b.BlackMatrix()
	if err != nil {
		return nil, err
	}
	if left < 0 || top < 0 || width < 1 || height < 1 ||
		left+width > m.Width() || top+height > m.Height() {
		return nil, ErrBadInput
	}
	cropped := bitvec.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if m.At(left+x, top+y) {
				cropped.Set(x, y)
			}
		}
	}
	return &Bitmap{binarizer: &matrixBinarizer{matrix: cropped}, matrix: cropped}, nil
}

// matrixBinarizer serves an already-binary matrix through the Binarizer
// interface, for rotated and cropped bitmap views.
type matrixBinarizer struct {
	matrix *bitvec.Matrix
}

func (m *matrixBinarizer) BlackRow(y int, row *bitvec.Vector) (*bitvec.Vector, error) {
	return m.matrix.GetRow(y, row), nil
}

func (m *matrixBinarizer) BlackMatrix() (*bitvec.Matrix, error) { return m.matrix, nil }
func (m *matrixBinarizer) Source() Luminance                   { return nil }
func (m *matrixBinarizer) Width() int                          { return m.matrix.Width() }
func (m *matrixBinarizer) Height() int                         { return m.matrix.Height() }
