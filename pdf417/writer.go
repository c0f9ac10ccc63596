package pdf417

import (
	"fmt"
	"strconv"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	defaultMargin  = 30
	defaultECLevel = 2
	rowAspectRatio = 4
)

// Writer renders text into PDF417 bit matrices.
type Writer struct{}

// NewWriter returns a PDF417 Writer.
func NewWriter() *Writer {
	return &Writer{}
}

var _ gridscan.Writer = (*Writer)(nil)

// Encode renders contents as a PDF417 symbol scaled into width x height.
func (w *Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatPDF417 {
		return nil, fmt.Errorf("pdf417 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}

	encoder := NewEncoder()
	margin := defaultMargin
	ecLevel := defaultECLevel

	if opts != nil {
		if opts.PDF417Compact {
			encoder.SetCompact(true)
		}
		if opts.PDF417Compaction > 0 {
			encoder.SetCompaction(Compaction(opts.PDF417Compaction))
		}
		if opts.PDF417Dimensions != nil {
			encoder.SetDimensions(
				opts.PDF417Dimensions.MaxCols,
				opts.PDF417Dimensions.MinCols,
				opts.PDF417Dimensions.MaxRows,
				opts.PDF417Dimensions.MinRows,
			)
		}
		if opts.Margin != nil {
			margin = *opts.Margin
		}
		if opts.ErrorCorrection != "" {
			level, err := strconv.Atoi(opts.ErrorCorrection)
			if err != nil {
				return nil, fmt.Errorf("bad EC level %q: %w", opts.ErrorCorrection, gridscan.ErrBadInput)
			}
			ecLevel = level
		}
	}

	if err := encoder.GenerateSymbol(contents, ecLevel); err != nil {
		return nil, err
	}

	scaled := scaleRows(encoder.Rows(), 1, rowAspectRatio)
	rotated := false
	if (height > width) != (len(scaled[0]) < len(scaled)) {
		scaled = rotateRows(scaled)
		rotated = true
	}

	scaleX := width / len(scaled[0])
	scaleY := height / len(scaled)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	if scale > 1 {
		scaled = scaleRows(encoder.Rows(), scale, scale*rowAspectRatio)
		if rotated {
			scaled = rotateRows(scaled)
		}
	}
	return matrixFromRows(scaled, margin), nil
}

// scaleRows expands each module xScale wide and yScale tall, bottom row
// first as the symbol is laid out top-down but rendered bottom-up.
func scaleRows(rows [][]byte, xScale, yScale int) [][]byte {
	height := len(rows) * yScale
	out := make([][]byte, height)
	for i := 0; i < height; i++ {
		src := rows[i/yScale]
		row := make([]byte, len(src)*xScale)
		for j := range row {
			row[j] = src[j/xScale]
		}
		out[height-i-1] = row
	}
	return out
}

func rotateRows(rows [][]byte) [][]byte {
	height := len(rows)
	width := len(rows[0])
	out := make([][]byte, width)
	for i := range out {
		out[i] = make([]byte, height)
	}
	for y := 0; y < height; y++ {
		inverseY := height - y - 1
		for x := 0; x < width; x++ {
			out[x][inverseY] = rows[y][x]
		}
	}
	return out
}

func matrixFromRows(rows [][]byte, margin int) *bitvec.Matrix {
	outputWidth := len(rows[0]) + 2*margin
	outputHeight := len(rows) + 2*margin
	output := bitvec.New(outputWidth, outputHeight)
	for y := 0; y < len(rows); y++ {
		outputY := outputHeight - margin - 1 - y
		for x := 0; x < len(rows[0]); x++ {
			if rows[y][x] == 1 {
				output.Set(x+margin, outputY)
			}
		}
	}
	return output
}
