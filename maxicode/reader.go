// Package maxicode reads MaxiCode symbols. The hexagonal grid is extracted
// directly from the image bounds rather than through a detector, so symbols
// must fill the frame.
package maxicode

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	gridWidth  = 30
	gridHeight = 33
)

func init() {
	gridscan.RegisterReader(gridscan.FormatMaxiCode, func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader()
	})
}

// Reader decodes MaxiCode symbols from binary images.
type Reader struct{}

// NewReader returns a MaxiCode Reader.
func NewReader() *Reader {
	return &Reader{}
}

var _ gridscan.Reader = (*Reader)(nil)

// Decode extracts and decodes the MaxiCode filling the image.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	grid, err := extractGrid(matrix)
	if err != nil {
		return nil, err
	}

	dec, err := decodeGrid(grid)
	if err != nil {
		return nil, err
	}

	result := gridscan.NewResult(dec.text, dec.rawBytes, nil, gridscan.FormatMaxiCode)
	result.PutMetadata(gridscan.KeyErrorsCorrected, dec.errorsCorrected)
	result.PutMetadata(gridscan.KeyErrorCorrectionLevel, fmt.Sprintf("%d", dec.mode))
	result.PutMetadata(gridscan.KeySymbologyIdentifier, symbologyIdentifier(dec.mode))
	return result, nil
}

// symbologyIdentifier maps the symbol mode onto its AIM identifier:
// modes 2 and 3 carry a structured carrier message, mode 5 adds the
// enhanced EC that the secondary block's longer parity provides.
func symbologyIdentifier(mode int) string {
	switch mode {
	case 2, 3:
		return "]U1"
	case 5:
		return "]U2"
	default:
		return "]U0"
	}
}

// Reset implements gridscan.Reader.
func (r *Reader) Reset() {}

// extractGrid resamples the set-bit bounding box onto the 30x33 module
// grid; odd rows sit half a module right of even rows.
func extractGrid(image *bitvec.Matrix) (*bitvec.Matrix, error) {
	left, top, width, height, ok := image.Bounds()
	if !ok {
		return nil, gridscan.ErrNotFound
	}

	grid := bitvec.New(gridWidth, gridHeight)
	for y := 0; y < gridHeight; y++ {
		iy := top + minInt((y*height+height/2)/gridHeight, height-1)
		for x := 0; x < gridWidth; x++ {
			ix := left + minInt(
				(x*width+width/2+(y&0x01)*width/2)/gridWidth,
				width-1)
			if image.At(ix, iy) {
				grid.Set(x, y)
			}
		}
	}
	return grid, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
