package pdf417

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
)

// Layout tuning constants from the symbology's print recommendations.
const (
	preferredAspectRatio = 3.0
	moduleWidthFactor    = 0.357
	moduleHeightFactor   = 2.0
)

// Encoder lays out PDF417 symbols. Configure before GenerateSymbol.
type Encoder struct {
	compact    bool
	compaction Compaction
	minCols    int
	maxCols    int
	minRows    int
	maxRows    int
	rows       [][]byte
}

// NewEncoder returns an Encoder with the default geometry limits.
func NewEncoder() *Encoder {
	return &Encoder{
		compaction: CompactionAuto,
		minCols:    1,
		maxCols:    30,
		minRows:    minSymbolRows,
		maxRows:    maxSymbolRows,
	}
}

// SetCompact omits the right row indicator and shortens the stop pattern.
func (e *Encoder) SetCompact(compact bool) { e.compact = compact }

// SetCompaction forces a compaction mode.
func (e *Encoder) SetCompaction(c Compaction) { e.compaction = c }

// SetDimensions bounds the symbol geometry.
func (e *Encoder) SetDimensions(maxCols, minCols, maxRows, minRows int) {
	e.maxCols = maxCols
	e.minCols = minCols
	e.maxRows = maxRows
	e.minRows = minRows
}

// Rows returns the laid out module rows, one byte per module, after
// GenerateSymbol.
func (e *Encoder) Rows() [][]byte { return e.rows }

// GenerateSymbol encodes msg at the given error correction level (0-8) and
// lays out the module rows.
func (e *Encoder) GenerateSymbol(msg string, ecLevel int) error {
	if ecLevel < 0 || ecLevel > 8 {
		return fmt.Errorf("EC level %d outside 0-8: %w", ecLevel, gridscan.ErrBadInput)
	}

	highLevel, err := encodeHighLevel(msg, e.compaction)
	if err != nil {
		return err
	}
	sourceCodewords := len([]rune(highLevel))
	ecCodewords := 1 << uint(ecLevel+1)

	cols, rows, err := e.chooseDimensions(sourceCodewords, ecCodewords)
	if err != nil {
		return err
	}
	pad := cols*rows - ecCodewords - sourceCodewords - 1
	if pad < 0 || sourceCodewords+1+pad > maxDataCodewords {
		return fmt.Errorf("%w: message does not fit the symbol", gridscan.ErrWriter)
	}

	data := make([]int, 0, sourceCodewords+1+pad)
	data = append(data, sourceCodewords+1+pad)
	for _, r := range highLevel {
		data = append(data, int(r))
	}
	for i := 0; i < pad; i++ {
		data = append(data, latchText)
	}

	parity := parityCodewords(data, ecCodewords)
	full := append(data, parity...)

	e.layoutRows(full, cols, rows, ecLevel)
	return nil
}

// chooseDimensions picks the column count whose print aspect ratio is
// nearest the preferred ratio.
func (e *Encoder) chooseDimensions(sourceCodewords, ecCodewords int) (cols, rows int, err error) {
	bestRatioError := math.MaxFloat64
	found := false
	for c := e.minCols; c <= e.maxCols; c++ {
		needed := sourceCodewords + 1 + ecCodewords
		r := needed / c
		if needed%c != 0 {
			r++
		}
		if r < e.minRows {
			r = e.minRows
		}
		if r > e.maxRows {
			continue
		}
		if c*r > maxDataCodewords+ecCodewords {
			continue
		}
		ratio := float64(modulesPerCodeword*(c+4)) * moduleWidthFactor / (float64(r) * moduleHeightFactor)
		ratioError := math.Abs(ratio - preferredAspectRatio)
		if ratioError < bestRatioError {
			bestRatioError = ratioError
			cols, rows = c, r
			found = true
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("%w: no symbol geometry fits the data", gridscan.ErrWriter)
	}
	return cols, rows, nil
}

// layoutRows renders each row: start guard, left indicator, data codewords,
// right indicator, stop guard, with clusters cycling by row.
func (e *Encoder) layoutRows(codewords []int, cols, rows, ecLevel int) {
	rowWidth := (cols+4)*modulesPerCodeword + 1
	e.rows = make([][]byte, rows)

	idx := 0
	for y := 0; y < rows; y++ {
		row := make([]byte, 0, rowWidth)
		cluster := y % 3

		appendPattern(&row, guardPatternBits(startGuard), modulesPerCodeword)

		left, right := rowIndicators(y, rows, cols, ecLevel)
		appendPattern(&row, clusterPatterns[cluster][left], modulesPerCodeword)

		for x := 0; x < cols; x++ {
			appendPattern(&row, clusterPatterns[cluster][codewords[idx]], modulesPerCodeword)
			idx++
		}

		if e.compact {
			// Compact symbols end on a single stop bar.
			row = append(row, 1)
		} else {
			appendPattern(&row, clusterPatterns[cluster][right], modulesPerCodeword)
			appendPattern(&row, guardPatternBits(stopGuard), modulesPerStop)
		}
		e.rows[y] = row
	}
}

// rowIndicators computes the left and right row indicator values carrying
// the symbol geometry.
func rowIndicators(y, rows, cols, ecLevel int) (left, right int) {
	base := 30 * (y / 3)
	switch y % 3 {
	case 0:
		left = base + (rows-1)/3
		right = base + cols - 1
	case 1:
		left = base + ecLevel*3 + (rows-1)%3
		right = base + (rows-1)/3
	default:
		left = base + cols - 1
		right = base + ecLevel*3 + (rows-1)%3
	}
	return left, right
}

func appendPattern(row *[]byte, pattern, bits int) {
	for i := bits - 1; i >= 0; i-- {
		if pattern&(1<<uint(i)) != 0 {
			*row = append(*row, 1)
		} else {
			*row = append(*row, 0)
		}
	}
}
