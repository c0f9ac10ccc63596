package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const code39Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%"

// Nine-element wide/narrow masks per alphabet character.
var code39Encodings = [43]int{
	0x034, 0x121, 0x061, 0x160, 0x031, 0x130, 0x070, 0x025, 0x124, 0x064,
	0x109, 0x049, 0x148, 0x019, 0x118, 0x058, 0x00D, 0x10C, 0x04C, 0x01C,
	0x103, 0x043, 0x142, 0x013, 0x112, 0x052, 0x007, 0x106, 0x046, 0x016,
	0x181, 0x0C1, 0x1C0, 0x091, 0x190, 0x0D0, 0x085, 0x184, 0x0C4, 0x0A8,
	0x0A2, 0x08A, 0x02A,
}

const code39Asterisk = 0x094

// Code39Reader decodes Code 39 symbols.
type Code39Reader struct {
	usingCheckDigit bool
	extendedMode    bool
}

// NewCode39Reader returns a plain Code 39 reader.
func NewCode39Reader() *Code39Reader {
	return &Code39Reader{}
}

// NewCode39ReaderExtended returns a reader that optionally verifies the
// check digit and decodes extended-mode escapes.
func NewCode39ReaderExtended(usingCheckDigit, extendedMode bool) *Code39Reader {
	return &Code39Reader{usingCheckDigit: usingCheckDigit, extendedMode: extendedMode}
}

// DecodeRow decodes one scan line.
func (r *Code39Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	counters := make([]int, 9)
	var result strings.Builder

	start, err := findCode39Asterisk(row, counters)
	if err != nil {
		return nil, err
	}
	nextStart := row.NextSet(start[1])
	end := row.Len()

	var decodedChar byte
	var lastStart int
	for {
		if err := RecordRuns(row, nextStart, counters); err != nil {
			return nil, err
		}
		pattern := wideNarrowMask(counters)
		if pattern < 0 {
			return nil, gridscan.ErrNotFound
		}
		decodedChar, err = code39CharFor(pattern)
		if err != nil {
			return nil, err
		}
		result.WriteByte(decodedChar)
		lastStart = nextStart
		for _, c := range counters {
			nextStart += c
		}
		nextStart = row.NextSet(nextStart)
		if decodedChar == '*' {
			break
		}
	}
	s := result.String()
	s = s[:len(s)-1] // drop the trailing asterisk

	lastPatternSize := 0
	for _, c := range counters {
		lastPatternSize += c
	}
	whiteSpaceAfterEnd := nextStart - lastStart - lastPatternSize
	if nextStart != end && whiteSpaceAfterEnd*2 < lastPatternSize {
		return nil, gridscan.ErrNotFound
	}

	if r.usingCheckDigit || (opts != nil && opts.AssumeCode39CheckDigit) {
		max := len(s) - 1
		total := 0
		for i := 0; i < max; i++ {
			total += strings.IndexByte(code39Alphabet, s[i])
		}
		if s[max] != code39Alphabet[total%43] {
			return nil, gridscan.ErrChecksum
		}
		s = s[:max]
	}
	if len(s) == 0 {
		return nil, gridscan.ErrNotFound
	}

	text := s
	if r.extendedMode {
		text, err = decodeCode39Extended(s)
		if err != nil {
			return nil, err
		}
	}

	left := float64(start[1]+start[0]) / 2.0
	right := float64(lastStart) + float64(lastPatternSize)/2.0
	result39 := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		gridscan.FormatCode39,
	)
	result39.PutMetadata(gridscan.KeySymbologyIdentifier, "]A0")
	return result39, nil
}

func findCode39Asterisk(row *bitvec.Vector, counters []int) ([2]int, error) {
	width := row.Len()
	rowOffset := row.NextSet(0)

	counterPosition := 0
	patternStart := rowOffset
	isWhite := false
	patternLength := len(counters)

	for i := rowOffset; i < width; i++ {
		if row.Bit(i) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			if wideNarrowMask(counters) == code39Asterisk {
				whiteStart := patternStart - (i-patternStart)/2
				if whiteStart < 0 {
					whiteStart = 0
				}
				if row.IsRange(whiteStart, patternStart, false) {
					return [2]int{patternStart, i}, nil
				}
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

// wideNarrowMask classifies the nine runs as wide or narrow; exactly three
// must be wide.
func wideNarrowMask(counters []int) int {
	numCounters := len(counters)
	maxNarrowCounter := 0
	for {
		minCounter := int(^uint(0) >> 1)
		for _, c := range counters {
			if c < minCounter && c > maxNarrowCounter {
				minCounter = c
			}
		}
		maxNarrowCounter = minCounter
		wideCounters := 0
		totalWideWidth := 0
		pattern := 0
		for i := 0; i < numCounters; i++ {
			if counters[i] > maxNarrowCounter {
				pattern |= 1 << uint(numCounters-1-i)
				wideCounters++
				totalWideWidth += counters[i]
			}
		}
		if wideCounters == 3 {
			for i := 0; i < numCounters && wideCounters > 0; i++ {
				if counters[i] > maxNarrowCounter {
					wideCounters--
					if counters[i]*2 >= totalWideWidth {
						return -1
					}
				}
			}
			return pattern
		}
		if wideCounters <= 3 {
			return -1
		}
	}
}

func code39CharFor(pattern int) (byte, error) {
	for i, enc := range code39Encodings {
		if enc == pattern {
			return code39Alphabet[i], nil
		}
	}
	if pattern == code39Asterisk {
		return '*', nil
	}
	return 0, gridscan.ErrNotFound
}

func decodeCode39Extended(encoded string) (string, error) {
	var decoded strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '+' && c != '$' && c != '%' && c != '/' {
			decoded.WriteByte(c)
			continue
		}
		if i+1 >= len(encoded) {
			return "", gridscan.ErrFormat
		}
		next := encoded[i+1]
		var decodedChar byte
		switch c {
		case '+':
			if next < 'A' || next > 'Z' {
				return "", gridscan.ErrFormat
			}
			decodedChar = next + 32
		case '$':
			if next < 'A' || next > 'Z' {
				return "", gridscan.ErrFormat
			}
			decodedChar = next - 64
		case '%':
			switch {
			case next >= 'A' && next <= 'E':
				decodedChar = next - 38
			case next >= 'F' && next <= 'J':
				decodedChar = next - 11
			case next >= 'K' && next <= 'O':
				decodedChar = next + 16
			case next >= 'P' && next <= 'T':
				decodedChar = next + 43
			case next == 'U':
				decodedChar = 0
			case next == 'V':
				decodedChar = '@'
			case next == 'W':
				decodedChar = '`'
			case next == 'X' || next == 'Y' || next == 'Z':
				decodedChar = 127
			default:
				return "", gridscan.ErrFormat
			}
		case '/':
			switch {
			case next >= 'A' && next <= 'O':
				decodedChar = next - 32
			case next == 'Z':
				decodedChar = ':'
			default:
				return "", gridscan.ErrFormat
			}
		}
		decoded.WriteByte(decodedChar)
		i++
	}
	return decoded.String(), nil
}

// Code39Writer renders Code 39 symbols.
type Code39Writer struct{}

// NewCode39Writer returns a Code 39 writer.
func NewCode39Writer() *Code39Writer {
	return &Code39Writer{}
}

// Encode renders contents as a Code 39 symbol.
func (w *Code39Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatCode39 {
		return nil, fmt.Errorf("code 39 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.encode(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

func (w *Code39Writer) encode(contents string) ([]bool, error) {
	length := len(contents)
	if length > 80 {
		return nil, fmt.Errorf("%w: contents longer than 80 characters", gridscan.ErrBadInput)
	}

	for i := 0; i < length; i++ {
		if strings.IndexByte(code39Alphabet, contents[i]) < 0 {
			contents = escapeCode39Extended(contents)
			length = len(contents)
			if length > 80 {
				return nil, fmt.Errorf("%w: extended contents longer than 80 characters", gridscan.ErrBadInput)
			}
			break
		}
	}

	widths := make([]int, 9)
	codeWidth := 24 + 1 + 13*length
	result := make([]bool, codeWidth)
	code39RunWidths(code39Asterisk, widths)
	pos := AppendRuns(result, 0, widths, true)
	narrowWhite := []int{1}
	pos += AppendRuns(result, pos, narrowWhite, false)

	for i := 0; i < length; i++ {
		idx := strings.IndexByte(code39Alphabet, contents[i])
		code39RunWidths(code39Encodings[idx], widths)
		pos += AppendRuns(result, pos, widths, true)
		pos += AppendRuns(result, pos, narrowWhite, false)
	}
	code39RunWidths(code39Asterisk, widths)
	AppendRuns(result, pos, widths, true)
	return result, nil
}

func code39RunWidths(mask int, widths []int) {
	for i := 0; i < 9; i++ {
		if mask&(1<<uint(8-i)) != 0 {
			widths[i] = 2
		} else {
			widths[i] = 1
		}
	}
}

// escapeCode39Extended rewrites characters outside the base alphabet with
// their extended-mode escape pairs.
func escapeCode39Extended(contents string) string {
	var ext strings.Builder
	for i := 0; i < len(contents); i++ {
		c := contents[i]
		switch {
		case c == 0:
			ext.WriteString("%U")
		case c == ' ' || c == '-' || c == '.':
			ext.WriteByte(c)
		case c == '@':
			ext.WriteString("%V")
		case c == '`':
			ext.WriteString("%W")
		case c <= 26:
			ext.WriteByte('$')
			ext.WriteByte('A' + c - 1)
		case c < ' ':
			ext.WriteByte('%')
			ext.WriteByte('A' + c - 27)
		case c <= ',' || c == '/' || c == ':':
			ext.WriteByte('/')
			ext.WriteByte('A' + c - 33)
		case c <= '9':
			ext.WriteByte('0' + c - 48)
		case c <= '?':
			ext.WriteByte('%')
			ext.WriteByte('F' + c - 59)
		case c <= 'Z':
			ext.WriteByte('A' + c - 65)
		case c <= '_':
			ext.WriteByte('%')
			ext.WriteByte('K' + c - 91)
		case c <= 'z':
			ext.WriteByte('+')
			ext.WriteByte('A' + c - 97)
		case c <= 127:
			ext.WriteByte('%')
			ext.WriteByte('P' + c - 123)
		}
	}
	return ext.String()
}
