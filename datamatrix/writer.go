package datamatrix

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const defaultQuietZone = 1

// Writer renders text into Data Matrix bit matrices.
type Writer struct{}

// NewWriter returns a Data Matrix Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Encode renders contents as a Data Matrix symbol scaled into width x
// height; zero dimensions render at one pixel per module.
func (w *Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatDataMatrix {
		return nil, fmt.Errorf("datamatrix writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%d: %w", width, height, gridscan.ErrBadInput)
	}

	quietZone := defaultQuietZone
	if opts != nil && opts.Margin != nil {
		quietZone = *opts.Margin
	}

	symbol, err := EncodeSymbol(contents, ShapeAny)
	if err != nil {
		return nil, err
	}
	return scaleSymbol(symbol, width, height, quietZone), nil
}

func scaleSymbol(symbol *bitvec.Matrix, width, height, quietZone int) *bitvec.Matrix {
	symbolWidth := symbol.Width() + quietZone*2
	symbolHeight := symbol.Height() + quietZone*2

	outputWidth := width
	if outputWidth < symbolWidth {
		outputWidth = symbolWidth
	}
	outputHeight := height
	if outputHeight < symbolHeight {
		outputHeight = symbolHeight
	}

	multiple := outputWidth / symbolWidth
	if m := outputHeight / symbolHeight; m < multiple {
		multiple = m
	}
	leftPadding := (outputWidth - symbol.Width()*multiple) / 2
	topPadding := (outputHeight - symbol.Height()*multiple) / 2

	output := bitvec.New(outputWidth, outputHeight)
	for y := 0; y < symbol.Height(); y++ {
		for x := 0; x < symbol.Width(); x++ {
			if symbol.At(x, y) {
				output.FillRegion(leftPadding+x*multiple, topPadding+y*multiple, multiple, multiple)
			}
		}
	}
	return output
}
