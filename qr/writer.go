package qr

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const defaultQuietZone = 4

// Writer renders text into QR code bit matrices.
type Writer struct{}

// NewWriter returns a QR Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Encode renders contents as a QR code scaled into width x height.
func (w *Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if contents == "" {
		return nil, fmt.Errorf("empty contents: %w", gridscan.ErrBadInput)
	}
	if format != gridscan.FormatQRCode {
		return nil, fmt.Errorf("qr writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative dimensions %dx%d: %w", width, height, gridscan.ErrBadInput)
	}

	level := LevelL
	quietZone := defaultQuietZone
	forcedVersion := 0
	forcedMask := -1

	if opts != nil {
		if opts.ErrorCorrection != "" {
			var err error
			level, err = ECLevelForName(opts.ErrorCorrection)
			if err != nil {
				return nil, fmt.Errorf("unknown EC level %q: %w", opts.ErrorCorrection, gridscan.ErrBadInput)
			}
		}
		if opts.Margin != nil {
			quietZone = *opts.Margin
		}
		if opts.QRVersion > 0 {
			forcedVersion = opts.QRVersion
		}
		if opts.QRMaskPattern >= 1 && opts.QRMaskPattern <= 8 {
			forcedMask = opts.QRMaskPattern - 1
		}
	}

	symbol, err := EncodeSymbol(contents, level, forcedVersion, forcedMask)
	if err != nil {
		return nil, err
	}
	return renderSymbol(symbol, width, height, quietZone), nil
}

// renderSymbol scales the module grid up to the requested size, centered,
// with at least the quiet zone around it.
func renderSymbol(symbol *Symbol, width, height, quietZone int) *bitvec.Matrix {
	input := symbol.plan
	qrWidth := input.width + quietZone*2
	qrHeight := input.height + quietZone*2
	outputWidth := width
	if outputWidth < qrWidth {
		outputWidth = qrWidth
	}
	outputHeight := height
	if outputHeight < qrHeight {
		outputHeight = qrHeight
	}

	multiple := outputWidth / qrWidth
	if h := outputHeight / qrHeight; h < multiple {
		multiple = h
	}

	leftPadding := (outputWidth - input.width*multiple) / 2
	topPadding := (outputHeight - input.height*multiple) / 2

	output := bitvec.New(outputWidth, outputHeight)
	for inputY := 0; inputY < input.height; inputY++ {
		outputY := topPadding + inputY*multiple
		for inputX := 0; inputX < input.width; inputX++ {
			if input.get(inputX, inputY) == 1 {
				output.FillRegion(leftPadding+inputX*multiple, outputY, multiple, multiple)
			}
		}
	}
	return output
}
