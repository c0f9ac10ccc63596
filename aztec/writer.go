package aztec

import (
	"fmt"
	"strconv"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const defaultECPercent = 33

// Writer renders text into Aztec bit matrices.
type Writer struct{}

// NewWriter returns an Aztec Writer.
func NewWriter() *Writer {
	return &Writer{}
}

var _ gridscan.Writer = (*Writer)(nil)

// Encode renders contents as an Aztec symbol scaled into width x height.
// EncodeOptions.ErrorCorrection carries the minimum EC percentage.
func (w *Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if contents == "" {
		return nil, fmt.Errorf("empty contents: %w", gridscan.ErrBadInput)
	}
	if format != gridscan.FormatAztec {
		return nil, fmt.Errorf("aztec writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}

	ecPercent := defaultECPercent
	if opts != nil && opts.ErrorCorrection != "" {
		v, err := strconv.Atoi(opts.ErrorCorrection)
		if err != nil || v < 0 || v > 100 {
			return nil, fmt.Errorf("bad EC percentage %q: %w", opts.ErrorCorrection, gridscan.ErrBadInput)
		}
		ecPercent = v
	}

	code, err := EncodeData([]byte(contents), ecPercent, 0)
	if err != nil {
		return nil, err
	}
	return scaleMatrix(code.Matrix, width, height), nil
}

// scaleMatrix fits the symbol plus a one-module quiet zone into the
// requested size.
func scaleMatrix(code *bitvec.Matrix, width, height int) *bitvec.Matrix {
	inputWidth := code.Width()
	inputHeight := code.Height()

	const quietZone = 1
	outputWidth := inputWidth + 2*quietZone
	outputHeight := inputHeight + 2*quietZone

	if width < outputWidth {
		width = outputWidth
	}
	if height < outputHeight {
		height = outputHeight
	}

	multiple := width / outputWidth
	if m := height / outputHeight; m < multiple {
		multiple = m
	}
	if multiple < 1 {
		multiple = 1
	}

	leftPadding := (width - inputWidth*multiple) / 2
	topPadding := (height - inputHeight*multiple) / 2

	result := bitvec.New(width, height)
	for inputY := 0; inputY < inputHeight; inputY++ {
		outputY := topPadding + inputY*multiple
		for inputX := 0; inputX < inputWidth; inputX++ {
			if code.At(inputX, inputY) {
				result.FillRegion(leftPadding+inputX*multiple, outputY, multiple, multiple)
			}
		}
	}
	return result
}
