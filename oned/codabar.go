package oned

import (
	"fmt"
	"math"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// Codabar: digits plus -$:/.+ framed by one of the guard characters A-D.

const (
	codabarMaxAcceptable = 2.0
	codabarPadding       = 1.5
	codabarMinLength     = 3
)

const codabarAlphabet = "0123456789-$:/.+ABCD"

// Seven-element wide/narrow masks per alphabet character.
var codabarEncodings = [20]int{
	0x003, 0x006, 0x009, 0x060, 0x012, 0x042, 0x021, 0x024, 0x030, 0x048,
	0x00C, 0x018, 0x045, 0x051, 0x054, 0x015, 0x01A, 0x029, 0x00B, 0x00E,
}

var codabarGuardChars = [4]byte{'A', 'B', 'C', 'D'}

// CodabarReader decodes Codabar symbols, reusing run buffers across rows.
type CodabarReader struct {
	counters      []int
	counterLength int
}

// NewCodabarReader returns a Codabar reader.
func NewCodabarReader() *CodabarReader {
	return &CodabarReader{counters: make([]int, 80)}
}

var _ RowDecoder = (*CodabarReader)(nil)

// DecodeRow decodes one scan line.
func (r *CodabarReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	for i := range r.counters {
		r.counters[i] = 0
	}
	if err := r.collectRuns(row); err != nil {
		return nil, err
	}
	startOffset, err := r.findStartGuard()
	if err != nil {
		return nil, err
	}
	nextStart := startOffset

	var charOffsets []int
	for {
		charOffset := r.matchWideNarrow(nextStart)
		if charOffset == -1 {
			return nil, gridscan.ErrNotFound
		}
		charOffsets = append(charOffsets, charOffset)
		nextStart += 8
		if len(charOffsets) > 1 && isCodabarGuard(codabarAlphabet[charOffset]) {
			break
		}
		if nextStart >= r.counterLength {
			break
		}
	}

	trailingWhitespace := r.counters[nextStart-1]
	lastPatternSize := 0
	for i := -8; i < -1; i++ {
		lastPatternSize += r.counters[nextStart+i]
	}
	// Half the final pattern's width of whitespace must follow, unless
	// the symbol ends flush with the row.
	if nextStart < r.counterLength && trailingWhitespace < lastPatternSize/2 {
		return nil, gridscan.ErrNotFound
	}

	if err := r.validateStripes(startOffset, charOffsets); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, offset := range charOffsets {
		text.WriteByte(codabarAlphabet[offset])
	}
	s := text.String()
	if !isCodabarGuard(s[0]) || !isCodabarGuard(s[len(s)-1]) {
		return nil, gridscan.ErrNotFound
	}
	if len(s) <= codabarMinLength {
		return nil, gridscan.ErrNotFound
	}

	if opts == nil || !opts.ReturnCodabarStartEnd {
		s = s[1 : len(s)-1]
	}

	runningCount := 0
	for i := 0; i < startOffset; i++ {
		runningCount += r.counters[i]
	}
	left := float64(runningCount)
	for i := startOffset; i < nextStart-1; i++ {
		runningCount += r.counters[i]
	}
	right := float64(runningCount)

	result := gridscan.NewResult(
		s, nil,
		[]gridscan.Point{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		gridscan.FormatCodabar,
	)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]F0")
	return result, nil
}

// validateStripes rejects rows whose short and long stripe populations
// overlap.
func (r *CodabarReader) validateStripes(start int, charOffsets []int) error {
	sizes := [4]int{}
	counts := [4]int{}
	end := len(charOffsets) - 1

	pos := start
	for i := 0; i <= end; i++ {
		pattern := codabarEncodings[charOffsets[i]]
		for j := 6; j >= 0; j-- {
			category := (j & 1) + (pattern&1)*2
			sizes[category] += r.counters[pos+j]
			counts[category]++
			pattern >>= 1
		}
		pos += 8
	}

	var maxes, mins [4]float64
	for i := 0; i < 2; i++ {
		mins[i] = 0.0
		mins[i+2] = (float64(sizes[i])/float64(counts[i]) + float64(sizes[i+2])/float64(counts[i+2])) / 2.0
		maxes[i] = mins[i+2]
		maxes[i+2] = (float64(sizes[i+2])*codabarMaxAcceptable + codabarPadding) / float64(counts[i+2])
	}

	pos = start
	for i := 0; i <= end; i++ {
		pattern := codabarEncodings[charOffsets[i]]
		for j := 6; j >= 0; j-- {
			category := (j & 1) + (pattern&1)*2
			size := float64(r.counters[pos+j])
			if size < mins[category] || size > maxes[category] {
				return gridscan.ErrNotFound
			}
			pattern >>= 1
		}
		pos += 8
	}
	return nil
}

// collectRuns records every run in the row, starting from the first white.
func (r *CodabarReader) collectRuns(row *bitvec.Vector) error {
	r.counterLength = 0
	i := row.NextUnset(0)
	end := row.Len()
	if i >= end {
		return gridscan.ErrNotFound
	}
	isWhite := true
	count := 0
	for i < end {
		if row.Bit(i) != isWhite {
			count++
		} else {
			r.appendRun(count)
			count = 1
			isWhite = !isWhite
		}
		i++
	}
	r.appendRun(count)
	return nil
}

func (r *CodabarReader) appendRun(e int) {
	r.counters[r.counterLength] = e
	r.counterLength++
	if r.counterLength >= len(r.counters) {
		grown := make([]int, r.counterLength*2)
		copy(grown, r.counters)
		r.counters = grown
	}
}

func (r *CodabarReader) findStartGuard() (int, error) {
	for i := 1; i < r.counterLength; i += 2 {
		charOffset := r.matchWideNarrow(i)
		if charOffset != -1 && isCodabarGuard(codabarAlphabet[charOffset]) {
			patternSize := 0
			for j := i; j < i+7; j++ {
				patternSize += r.counters[j]
			}
			if i == 1 || r.counters[i-1] >= patternSize/2 {
				return i, nil
			}
		}
	}
	return 0, gridscan.ErrNotFound
}

// matchWideNarrow classifies the seven runs at position against the
// alphabet, thresholding bars and spaces separately.
func (r *CodabarReader) matchWideNarrow(position int) int {
	end := position + 7
	if end >= r.counterLength {
		return -1
	}

	counters := r.counters
	maxBar := 0
	minBar := math.MaxInt32
	for j := position; j < end; j += 2 {
		if counters[j] < minBar {
			minBar = counters[j]
		}
		if counters[j] > maxBar {
			maxBar = counters[j]
		}
	}
	thresholdBar := (minBar + maxBar) / 2

	maxSpace := 0
	minSpace := math.MaxInt32
	for j := position + 1; j < end; j += 2 {
		if counters[j] < minSpace {
			minSpace = counters[j]
		}
		if counters[j] > maxSpace {
			maxSpace = counters[j]
		}
	}
	thresholdSpace := (minSpace + maxSpace) / 2

	bitmask := 1 << 7
	pattern := 0
	for i := 0; i < 7; i++ {
		threshold := thresholdBar
		if i&1 != 0 {
			threshold = thresholdSpace
		}
		bitmask >>= 1
		if counters[position+i] > threshold {
			pattern |= bitmask
		}
	}

	for i := range codabarEncodings {
		if codabarEncodings[i] == pattern {
			return i
		}
	}
	return -1
}

func isCodabarGuard(c byte) bool {
	for _, g := range codabarGuardChars {
		if c == g {
			return true
		}
	}
	return false
}

// Alternate guard spellings accepted by the writer.
var codabarAltGuardChars = [4]byte{'T', 'N', '*', 'E'}
var codabarWideChars = [4]byte{'/', ':', '+', '.'}

// CodabarWriter renders Codabar symbols.
type CodabarWriter struct{}

// NewCodabarWriter returns a Codabar writer.
func NewCodabarWriter() *CodabarWriter {
	return &CodabarWriter{}
}

// Encode renders contents as a Codabar symbol.
func (w *CodabarWriter) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatCodabar {
		return nil, fmt.Errorf("codabar writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.encode(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

func (w *CodabarWriter) encode(contents string) ([]bool, error) {
	if len(contents) < 2 {
		contents = "A" + contents + "A"
	} else {
		upper := strings.ToUpper(contents)
		first := upper[0]
		last := upper[len(upper)-1]
		startsNormal := isCodabarGuard(first)
		endsNormal := isCodabarGuard(last)
		startsAlt := isCodabarAltGuard(first)
		endsAlt := isCodabarAltGuard(last)
		switch {
		case startsNormal:
			if !endsNormal {
				return nil, fmt.Errorf("%w: mismatched start/end guards in %q", gridscan.ErrBadInput, contents)
			}
			contents = string(first) + contents[1:len(contents)-1] + string(last)
		case startsAlt:
			if !endsAlt {
				return nil, fmt.Errorf("%w: mismatched start/end guards in %q", gridscan.ErrBadInput, contents)
			}
			contents = string(mapCodabarAltGuard(first)) + contents[1:len(contents)-1] + string(mapCodabarAltGuard(last))
		default:
			if endsNormal || endsAlt {
				return nil, fmt.Errorf("%w: mismatched start/end guards in %q", gridscan.ErrBadInput, contents)
			}
			contents = "A" + contents + "A"
		}
	}

	// Guards render to ten modules; narrow characters to nine, wide
	// punctuation to ten; one blank between characters.
	resultLength := 20
	for i := 1; i < len(contents)-1; i++ {
		c := contents[i]
		switch {
		case c >= '0' && c <= '9', c == '-', c == '$':
			resultLength += 9
		case isCodabarWideChar(c):
			resultLength += 10
		default:
			return nil, fmt.Errorf("%w: cannot encode %q", gridscan.ErrBadInput, c)
		}
	}
	resultLength += len(contents) - 1

	result := make([]bool, resultLength)
	position := 0
	for index := 0; index < len(contents); index++ {
		c := contents[index]
		if index == 0 || index == len(contents)-1 {
			c = mapCodabarAltGuard(c)
		}
		code := 0
		for i := 0; i < len(codabarAlphabet); i++ {
			if c == codabarAlphabet[i] {
				code = codabarEncodings[i]
				break
			}
		}
		color := true
		counter := 0
		bit := 0
		for bit < 7 {
			result[position] = color
			position++
			if (code>>(6-bit))&1 == 0 || counter == 1 {
				color = !color
				bit++
				counter = 0
			} else {
				counter++
			}
		}
		if index < len(contents)-1 {
			result[position] = false
			position++
		}
	}
	return result, nil
}

func isCodabarAltGuard(c byte) bool {
	for _, g := range codabarAltGuardChars {
		if c == g {
			return true
		}
	}
	return false
}

func isCodabarWideChar(c byte) bool {
	for _, g := range codabarWideChars {
		if c == g {
			return true
		}
	}
	return false
}

func mapCodabarAltGuard(c byte) byte {
	switch c {
	case 'T':
		return 'A'
	case 'N':
		return 'B'
	case '*':
		return 'C'
	case 'E':
		return 'D'
	}
	return c
}
