package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// Interleaved 2 of 5: digit pairs share ten runs, the first digit in the
// bars and the second in the spaces.

const (
	itfMaxAvgVariance          = 0.38
	itfMaxIndividualVariance2x = 0.5
	itfMaxIndividualVariance3x = 0.75
)

// itfPatterns: indexes 0-9 with double-wide runs, 10-19 triple-wide.
var itfPatterns = [20][5]int{
	{1, 1, 2, 2, 1},
	{2, 1, 1, 1, 2},
	{1, 2, 1, 1, 2},
	{2, 2, 1, 1, 1},
	{1, 1, 2, 1, 2},
	{2, 1, 2, 1, 1},
	{1, 2, 2, 1, 1},
	{1, 1, 1, 2, 2},
	{2, 1, 1, 2, 1},
	{1, 2, 1, 2, 1},
	{1, 1, 3, 3, 1},
	{3, 1, 1, 1, 3},
	{1, 3, 1, 1, 3},
	{3, 3, 1, 1, 1},
	{1, 1, 3, 1, 3},
	{3, 1, 3, 1, 1},
	{1, 3, 3, 1, 1},
	{1, 1, 1, 3, 3},
	{3, 1, 1, 3, 1},
	{1, 3, 1, 3, 1},
}

var itfStartGuard = []int{1, 1, 1, 1}
var itfEndGuardReversed = [2][]int{
	{1, 1, 2},
	{1, 1, 3},
}

// ITFReader decodes interleaved 2 of 5 symbols.
type ITFReader struct {
	narrowLineWidth int
}

// NewITFReader returns an ITF reader.
func NewITFReader() *ITFReader {
	return &ITFReader{narrowLineWidth: -1}
}

var _ RowDecoder = (*ITFReader)(nil)

// DecodeRow decodes one scan line.
func (r *ITFReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	startRange, err := r.findStart(row)
	if err != nil {
		return nil, err
	}
	endRange, err := r.findEnd(row)
	if err != nil {
		return nil, err
	}

	var digits strings.Builder
	if err := r.decodePairs(row, startRange[1], endRange[0], &digits); err != nil {
		return nil, err
	}
	text := digits.String()

	allowedLengths := []int{6, 8, 10, 12, 14}
	if opts != nil && len(opts.AllowedLengths) > 0 {
		allowedLengths = opts.AllowedLengths
	}

	lengthOK := false
	maxAllowed := 0
	for _, length := range allowedLengths {
		if len(text) == length {
			lengthOK = true
			break
		}
		if length > maxAllowed {
			maxAllowed = length
		}
	}
	if !lengthOK && len(text) > maxAllowed {
		lengthOK = true
	}
	if !lengthOK {
		return nil, gridscan.ErrFormat
	}

	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: float64(startRange[1]), Y: float64(rowNumber)},
			{X: float64(endRange[0]), Y: float64(rowNumber)},
		},
		gridscan.FormatITF,
	)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]I0")
	return result, nil
}

func (r *ITFReader) decodePairs(row *bitvec.Vector, payloadStart, payloadEnd int, digits *strings.Builder) error {
	pairRuns := make([]int, 10)
	barRuns := make([]int, 5)
	spaceRuns := make([]int, 5)

	for payloadStart < payloadEnd {
		if err := RecordRuns(row, payloadStart, pairRuns); err != nil {
			return err
		}
		for k := 0; k < 5; k++ {
			barRuns[k] = pairRuns[2*k]
			spaceRuns[k] = pairRuns[2*k+1]
		}

		digit, err := matchITFDigit(barRuns)
		if err != nil {
			return err
		}
		digits.WriteByte('0' + byte(digit))

		digit, err = matchITFDigit(spaceRuns)
		if err != nil {
			return err
		}
		digits.WriteByte('0' + byte(digit))

		for _, count := range pairRuns {
			payloadStart += count
		}
	}
	return nil
}

func (r *ITFReader) findStart(row *bitvec.Vector) ([2]int, error) {
	start := row.NextSet(0)
	if start == row.Len() {
		return [2]int{}, gridscan.ErrNotFound
	}
	startRange, err := findITFGuard(row, start, itfStartGuard)
	if err != nil {
		return [2]int{}, err
	}
	r.narrowLineWidth = (startRange[1] - startRange[0]) / 4
	if err := r.checkQuietZone(row, startRange[0]); err != nil {
		return [2]int{}, err
	}
	return startRange, nil
}

func (r *ITFReader) checkQuietZone(row *bitvec.Vector, startPattern int) error {
	quietZone := r.narrowLineWidth * 10
	if quietZone < 1 {
		quietZone = 1
	}
	quietStart := startPattern - quietZone
	if quietStart < 0 {
		quietStart = 0
	}
	if !row.IsRange(quietStart, startPattern, false) {
		return gridscan.ErrNotFound
	}
	return nil
}

func (r *ITFReader) findEnd(row *bitvec.Vector) ([2]int, error) {
	// Scan the end pattern from the reversed row.
	row.Reverse()
	defer row.Reverse()

	start := row.NextSet(0)
	if start == row.Len() {
		return [2]int{}, gridscan.ErrNotFound
	}
	endRange, err := findITFGuard(row, start, itfEndGuardReversed[0])
	if err != nil {
		endRange, err = findITFGuard(row, start, itfEndGuardReversed[1])
		if err != nil {
			return [2]int{}, err
		}
	}
	if err := r.checkQuietZone(row, endRange[0]); err != nil {
		return [2]int{}, err
	}

	temp := row.Len() - endRange[0]
	endRange[0] = row.Len() - endRange[1]
	endRange[1] = temp
	return endRange, nil
}

func findITFGuard(row *bitvec.Vector, rowOffset int, pattern []int) ([2]int, error) {
	patternLength := len(pattern)
	counters := make([]int, patternLength)
	width := row.Len()
	isWhite := false

	counterPosition := 0
	patternStart := rowOffset
	for x := rowOffset; x < width; x++ {
		if row.Bit(x) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			if RunVariance(counters, pattern, itfMaxIndividualVariance2x) < itfMaxAvgVariance {
				return [2]int{patternStart, x}, nil
			}
			patternStart += counters[0] + counters[1]
			copy(counters, counters[2:counterPosition+1])
			counters[counterPosition-1] = 0
			counters[counterPosition] = 0
			counterPosition--
		} else {
			counterPosition++
		}
		counters[counterPosition] = 1
		isWhite = !isWhite
	}
	return [2]int{}, gridscan.ErrNotFound
}

func matchITFDigit(counters []int) (int, error) {
	bestVariance := itfMaxAvgVariance
	bestMatch := -1
	for i := 0; i < 20; i++ {
		maxVariance := itfMaxIndividualVariance2x
		if i > 9 {
			maxVariance = itfMaxIndividualVariance3x
		}
		variance := RunVariance(counters, itfPatterns[i][:], maxVariance)
		if variance < bestVariance {
			bestVariance = variance
			bestMatch = i
		} else if variance == bestVariance {
			// Ambiguous between wide factors.
			bestMatch = -1
		}
	}
	if bestMatch >= 0 {
		return bestMatch % 10, nil
	}
	return -1, gridscan.ErrNotFound
}

// ITFWriter renders interleaved 2 of 5 symbols.
type ITFWriter struct{}

// NewITFWriter returns an ITF writer.
func NewITFWriter() *ITFWriter {
	return &ITFWriter{}
}

// Encode renders contents as an ITF symbol.
func (w *ITFWriter) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatITF {
		return nil, fmt.Errorf("itf writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	if err := CheckDigits(contents); err != nil {
		return nil, err
	}
	if len(contents)%2 != 0 {
		return nil, fmt.Errorf("%w: itf needs an even digit count, got %d", gridscan.ErrBadInput, len(contents))
	}
	code := w.encode(contents)
	return RenderRow(code, width, height), nil
}

func (w *ITFWriter) encode(contents string) []bool {
	// Start guard is four narrow runs, the end guard wide-narrow-narrow.
	totalWidth := 4 + 5
	for i := 0; i < len(contents); i += 2 {
		d1 := contents[i] - '0'
		d2 := contents[i+1] - '0'
		for j := 0; j < 5; j++ {
			totalWidth += itfPatterns[d1][j] + itfPatterns[d2][j]
		}
	}

	result := make([]bool, totalWidth)
	pos := AppendRuns(result, 0, itfStartGuard, true)

	interleaved := make([]int, 10)
	for i := 0; i < len(contents); i += 2 {
		d1 := contents[i] - '0'
		d2 := contents[i+1] - '0'
		for j := 0; j < 5; j++ {
			interleaved[2*j] = itfPatterns[d1][j]
			interleaved[2*j+1] = itfPatterns[d2][j]
		}
		pos += AppendRuns(result, pos, interleaved, true)
	}
	AppendRuns(result, pos, []int{3, 1, 1}, true)
	return result
}
