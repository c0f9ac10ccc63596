package oned

import (
	"fmt"
	"strconv"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	code128MaxAvgVariance        = 0.25
	code128MaxIndividualVariance = 0.7

	code128Shift  = 98
	code128CodeC  = 99
	code128CodeB  = 100
	code128CodeA  = 101
	code128FNC1   = 102
	code128FNC2   = 97
	code128FNC3   = 96
	code128FNC4A  = 101
	code128FNC4B  = 100
	code128StartA = 103
	code128StartB = 104
	code128StartC = 105
	code128Stop   = 106
)

// code128Patterns holds the run widths for each code value.
var code128Patterns = [107][]int{
	{2, 1, 2, 2, 2, 2},
	{2, 2, 2, 1, 2, 2},
	{2, 2, 2, 2, 2, 1},
	{1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2},
	{1, 3, 1, 2, 2, 2},
	{1, 2, 2, 2, 1, 3},
	{1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2},
	{2, 2, 1, 2, 1, 3},
	{2, 2, 1, 3, 1, 2},
	{2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2},
	{1, 2, 2, 1, 3, 2},
	{1, 2, 2, 2, 3, 1},
	{1, 1, 3, 2, 2, 2},
	{1, 2, 3, 1, 2, 2},
	{1, 2, 3, 2, 2, 1},
	{2, 2, 3, 2, 1, 1},
	{2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1},
	{2, 1, 3, 2, 1, 2},
	{2, 2, 3, 1, 1, 2},
	{3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2},
	{3, 2, 1, 1, 2, 2},
	{3, 2, 1, 2, 2, 1},
	{3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2},
	{3, 2, 2, 2, 1, 1},
	{2, 1, 2, 1, 2, 3},
	{2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1},
	{1, 1, 1, 3, 2, 3},
	{1, 3, 1, 1, 2, 3},
	{1, 3, 1, 3, 2, 1},
	{1, 1, 2, 3, 1, 3},
	{1, 3, 2, 1, 1, 3},
	{1, 3, 2, 3, 1, 1},
	{2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3},
	{2, 3, 1, 3, 1, 1},
	{1, 1, 2, 1, 3, 3},
	{1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1},
	{1, 1, 3, 1, 2, 3},
	{1, 1, 3, 3, 2, 1},
	{1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1},
	{2, 1, 1, 3, 3, 1},
	{2, 3, 1, 1, 3, 1},
	{2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1},
	{2, 1, 3, 1, 3, 1},
	{3, 1, 1, 1, 2, 3},
	{3, 1, 1, 3, 2, 1},
	{3, 3, 1, 1, 2, 1},
	{3, 1, 2, 1, 1, 3},
	{3, 1, 2, 3, 1, 1},
	{3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1},
	{2, 2, 1, 4, 1, 1},
	{4, 3, 1, 1, 1, 1},
	{1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2},
	{1, 2, 1, 1, 2, 4},
	{1, 2, 1, 4, 2, 1},
	{1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1},
	{1, 1, 2, 2, 1, 4},
	{1, 1, 2, 4, 1, 2},
	{1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1},
	{1, 4, 2, 1, 1, 2},
	{1, 4, 2, 2, 1, 1},
	{2, 4, 1, 2, 1, 1},
	{2, 2, 1, 1, 1, 4},
	{4, 1, 3, 1, 1, 1},
	{2, 4, 1, 1, 1, 2},
	{1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2},
	{1, 2, 1, 1, 4, 2},
	{1, 2, 1, 2, 4, 1},
	{1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2},
	{1, 2, 4, 2, 1, 1},
	{4, 1, 1, 2, 1, 2},
	{4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1},
	{2, 1, 2, 1, 4, 1},
	{2, 1, 4, 1, 2, 1},
	{4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3},
	{1, 1, 1, 3, 4, 1},
	{1, 3, 1, 1, 4, 1},
	{1, 1, 4, 1, 1, 3},
	{1, 1, 4, 3, 1, 1},
	{4, 1, 1, 1, 1, 3},
	{4, 1, 1, 3, 1, 1},
	{1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1},
	{3, 1, 1, 1, 4, 1},
	{4, 1, 1, 1, 3, 1},
	{2, 1, 1, 4, 1, 2},
	{2, 1, 1, 2, 1, 4},
	{2, 1, 1, 2, 3, 2},
	{2, 3, 3, 1, 1, 1, 2},
}

// Code128Reader decodes Code 128 symbols.
type Code128Reader struct{}

// NewCode128Reader returns a Code 128 reader.
func NewCode128Reader() *Code128Reader {
	return &Code128Reader{}
}

// DecodeRow decodes one scan line.
func (r *Code128Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	convertFNC1 := opts != nil && opts.AssumeGS1
	symbologyModifier := 0

	startInfo, err := findCode128Start(row)
	if err != nil {
		return nil, err
	}
	startCode := startInfo[2]

	rawCodes := []byte{byte(startCode)}

	var codeSet int
	switch startCode {
	case code128StartA:
		codeSet = code128CodeA
	case code128StartB:
		codeSet = code128CodeB
	case code128StartC:
		codeSet = code128CodeC
	default:
		return nil, gridscan.ErrFormat
	}

	done := false
	isNextShifted := false
	var result strings.Builder
	lastStart := startInfo[0]
	nextStart := startInfo[1]
	counters := make([]int, 6)

	lastCode := 0
	code := 0
	checksumTotal := startCode
	multiplier := 0
	lastCharacterWasPrintable := true
	upperMode := false
	shiftUpperMode := false

	// writeChar applies the FNC4 extended-ASCII state.
	writeChar := func(ch byte) {
		if shiftUpperMode == upperMode {
			result.WriteByte(ch)
		} else {
			result.WriteByte(ch + 128)
		}
		shiftUpperMode = false
	}
	handleFNC1 := func() {
		if result.Len() == 0 {
			symbologyModifier = 1
		} else if result.Len() == 1 {
			symbologyModifier = 2
		}
		if convertFNC1 {
			if result.Len() == 0 {
				result.WriteString("]C1")
			} else {
				result.WriteByte(29)
			}
		}
	}
	toggleFNC4 := func() {
		if shiftUpperMode {
			upperMode = !upperMode
			shiftUpperMode = false
		} else {
			shiftUpperMode = true
		}
	}

	for !done {
		unshift := isNextShifted
		isNextShifted = false
		lastCode = code

		code, err = matchCode128(row, counters, nextStart)
		if err != nil {
			return nil, err
		}
		rawCodes = append(rawCodes, byte(code))

		if code != code128Stop {
			lastCharacterWasPrintable = true
			multiplier++
			checksumTotal += multiplier * code
		}

		lastStart = nextStart
		for _, c := range counters {
			nextStart += c
		}

		switch code {
		case code128StartA, code128StartB, code128StartC:
			return nil, gridscan.ErrFormat
		}

		switch codeSet {
		case code128CodeA:
			switch {
			case code < 64:
				writeChar(byte(' ' + code))
			case code < 96:
				writeChar(byte(code - 64))
			default:
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					handleFNC1()
				case code128FNC2:
					symbologyModifier = 4
				case code128FNC3:
					// reserved
				case code128FNC4A:
					toggleFNC4()
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeB
				case code128CodeB:
					codeSet = code128CodeB
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeB:
			if code < 96 {
				writeChar(byte(' ' + code))
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					handleFNC1()
				case code128FNC2:
					symbologyModifier = 4
				case code128FNC3:
					// reserved
				case code128FNC4B:
					toggleFNC4()
				case code128Shift:
					isNextShifted = true
					codeSet = code128CodeA
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeC:
					codeSet = code128CodeC
				case code128Stop:
					done = true
				}
			}
		case code128CodeC:
			if code < 100 {
				if code < 10 {
					result.WriteByte('0')
				}
				fmt.Fprintf(&result, "%d", code)
			} else {
				if code != code128Stop {
					lastCharacterWasPrintable = false
				}
				switch code {
				case code128FNC1:
					handleFNC1()
				case code128CodeA:
					codeSet = code128CodeA
				case code128CodeB:
					codeSet = code128CodeB
				case code128Stop:
					done = true
				}
			}
		}

		if unshift {
			if codeSet == code128CodeA {
				codeSet = code128CodeB
			} else {
				codeSet = code128CodeA
			}
		}
	}

	lastPatternSize := nextStart - lastStart

	// Whitespace must follow the stop pattern.
	nextStart = row.NextUnset(nextStart)
	endCheck := nextStart + (nextStart-lastStart)/2
	if endCheck > row.Len() {
		endCheck = row.Len()
	}
	if !row.IsRange(nextStart, endCheck, false) {
		return nil, gridscan.ErrNotFound
	}

	checksumTotal -= multiplier * lastCode
	if checksumTotal%103 != lastCode {
		return nil, gridscan.ErrChecksum
	}

	if result.Len() == 0 {
		return nil, gridscan.ErrNotFound
	}

	// Strip the check character from the text.
	s := result.String()
	if lastCharacterWasPrintable {
		if codeSet == code128CodeC {
			if len(s) >= 2 {
				s = s[:len(s)-2]
			}
		} else if len(s) >= 1 {
			s = s[:len(s)-1]
		}
	}

	left := float64(startInfo[1]+startInfo[0]) / 2.0
	right := float64(lastStart) + float64(lastPatternSize)/2.0

	result128 := gridscan.NewResult(
		s, rawCodes,
		[]gridscan.Point{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		gridscan.FormatCode128,
	)
	result128.PutMetadata(gridscan.KeySymbologyIdentifier, fmt.Sprintf("]C%d", symbologyModifier))
	return result128, nil
}

func findCode128Start(row *bitvec.Vector) ([3]int, error) {
	width := row.Len()
	rowOffset := row.NextSet(0)

	counterPosition := 0
	counters := make([]int, 6)
	patternStart := rowOffset
	isWhite := false
	patternLength := len(counters)

	for i := rowOffset; i < width; i++ {
		if row.Bit(i) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			bestVariance := code128MaxAvgVariance
			bestMatch := -1
			for startCode := code128StartA; startCode <= code128StartC; startCode++ {
				variance := RunVariance(counters, code128Patterns[startCode], code128MaxIndividualVariance)
				if variance < bestVariance {
					bestVariance = variance
					bestMatch = startCode
				}
			}
			if bestMatch >= 0 {
				whiteStart := patternStart - (i-patternStart)/2
				if whiteStart < 0 {
					whiteStart = 0
				}
				if row.IsRange(whiteStart, patternStart, false) {
					return [3]int{patternStart, i, bestMatch}, nil
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
	return [3]int{}, gridscan.ErrNotFound
}

func matchCode128(row *bitvec.Vector, counters []int, rowOffset int) (int, error) {
	if err := RecordRuns(row, rowOffset, counters); err != nil {
		return -1, err
	}
	bestVariance := code128MaxAvgVariance
	bestMatch := -1
	for d := range code128Patterns {
		variance := RunVariance(counters, code128Patterns[d], code128MaxIndividualVariance)
		if variance < bestVariance {
			bestVariance = variance
			bestMatch = d
		}
	}
	if bestMatch >= 0 {
		return bestMatch, nil
	}
	return -1, gridscan.ErrNotFound
}

// FNC escapes accepted in Code 128 writer input.
const (
	Code128EscapeFNC1 = 'ñ'
	Code128EscapeFNC2 = 'ò'
	Code128EscapeFNC3 = 'ó'
	Code128EscapeFNC4 = 'ô'
)

// Code128Writer renders Code 128 symbols.
type Code128Writer struct{}

// NewCode128Writer returns a Code 128 writer.
func NewCode128Writer() *Code128Writer {
	return &Code128Writer{}
}

// Encode renders contents as a Code 128 symbol.
func (w *Code128Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatCode128 {
		return nil, fmt.Errorf("code 128 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}

	forcedCodeSet := -1
	if opts != nil && opts.ForceCodeSet != "" {
		switch opts.ForceCodeSet {
		case "A":
			forcedCodeSet = code128CodeA
		case "B":
			forcedCodeSet = code128CodeB
		case "C":
			forcedCodeSet = code128CodeC
		default:
			return nil, fmt.Errorf("unsupported code set %q: %w", opts.ForceCodeSet, gridscan.ErrBadInput)
		}
	}

	if err := checkCode128Contents(contents, forcedCodeSet); err != nil {
		return nil, err
	}
	code, err := encodeCode128(contents, forcedCodeSet)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

func checkCode128Contents(contents string, forcedCodeSet int) error {
	for _, c := range contents {
		switch c {
		case Code128EscapeFNC1, Code128EscapeFNC2, Code128EscapeFNC3, Code128EscapeFNC4:
			continue
		default:
			if c > 127 {
				return fmt.Errorf("%w: character %q not encodable", gridscan.ErrBadInput, c)
			}
		}
		switch forcedCodeSet {
		case code128CodeA:
			if c > 95 && c <= 127 {
				return fmt.Errorf("%w: %q not in code set A", gridscan.ErrBadInput, c)
			}
		case code128CodeB:
			if c < 32 {
				return fmt.Errorf("%w: %q not in code set B", gridscan.ErrBadInput, c)
			}
		case code128CodeC:
			if c < 48 || (c > 57 && c <= 127) {
				return fmt.Errorf("%w: %q not in code set C", gridscan.ErrBadInput, c)
			}
		}
	}
	return nil
}

type code128CType int

const (
	code128Uncodable code128CType = iota
	code128OneDigit
	code128TwoDigits
	code128FNC1Found
)

func classifyCode128C(value string, start int) code128CType {
	if start >= len(value) {
		return code128Uncodable
	}
	c := rune(value[start])
	if c == Code128EscapeFNC1 {
		return code128FNC1Found
	}
	if c < '0' || c > '9' {
		return code128Uncodable
	}
	if start+1 >= len(value) {
		return code128OneDigit
	}
	c = rune(value[start+1])
	if c < '0' || c > '9' {
		return code128OneDigit
	}
	return code128TwoDigits
}

// chooseCode128Set runs the annex E code set selection lookahead.
func chooseCode128Set(value string, start, oldCode int) int {
	lookahead := classifyCode128C(value, start)
	if lookahead == code128OneDigit {
		if oldCode == code128CodeA {
			return code128CodeA
		}
		return code128CodeB
	}
	if lookahead == code128Uncodable {
		if start < len(value) {
			c := rune(value[start])
			if c < ' ' || (oldCode == code128CodeA && (c < '`' || (c >= Code128EscapeFNC1 && c <= Code128EscapeFNC4))) {
				return code128CodeA
			}
		}
		return code128CodeB
	}
	if oldCode == code128CodeA && lookahead == code128FNC1Found {
		return code128CodeA
	}
	if oldCode == code128CodeC {
		return code128CodeC
	}
	if oldCode == code128CodeB {
		if lookahead == code128FNC1Found {
			return code128CodeB
		}
		lookahead = classifyCode128C(value, start+2)
		if lookahead == code128Uncodable || lookahead == code128OneDigit {
			return code128CodeB
		}
		if lookahead == code128FNC1Found {
			if classifyCode128C(value, start+3) == code128TwoDigits {
				return code128CodeC
			}
			return code128CodeB
		}
		index := start + 4
		for classifyCode128C(value, index) == code128TwoDigits {
			index += 2
		}
		if classifyCode128C(value, index) == code128OneDigit {
			return code128CodeB
		}
		return code128CodeC
	}
	if lookahead == code128FNC1Found {
		lookahead = classifyCode128C(value, start+1)
	}
	if lookahead == code128TwoDigits {
		return code128CodeC
	}
	return code128CodeB
}

func encodeCode128(contents string, forcedCodeSet int) ([]bool, error) {
	length := len(contents)
	var patterns [][]int
	checkSum := 0
	checkWeight := 1
	codeSet := 0
	position := 0

	for position < length {
		var newCodeSet int
		if forcedCodeSet == -1 {
			newCodeSet = chooseCode128Set(contents, position, codeSet)
		} else {
			newCodeSet = forcedCodeSet
		}

		var patternIndex int
		if newCodeSet == codeSet {
			switch c := rune(contents[position]); c {
			case Code128EscapeFNC1:
				patternIndex = code128FNC1
			case Code128EscapeFNC2:
				patternIndex = code128FNC2
			case Code128EscapeFNC3:
				patternIndex = code128FNC3
			case Code128EscapeFNC4:
				if codeSet == code128CodeA {
					patternIndex = code128FNC4A
				} else {
					patternIndex = code128FNC4B
				}
			default:
				switch codeSet {
				case code128CodeA:
					patternIndex = int(c) - ' '
					if patternIndex < 0 {
						patternIndex += '`'
					}
				case code128CodeB:
					patternIndex = int(c) - ' '
				default:
					if position+1 == length {
						return nil, fmt.Errorf("%w: lone digit at end of code set C data", gridscan.ErrBadInput)
					}
					value, err := strconv.Atoi(contents[position : position+2])
					if err != nil {
						return nil, err
					}
					patternIndex = value
					position++
				}
			}
			position++
		} else {
			if codeSet == 0 {
				switch newCodeSet {
				case code128CodeA:
					patternIndex = code128StartA
				case code128CodeB:
					patternIndex = code128StartB
				default:
					patternIndex = code128StartC
				}
			} else {
				patternIndex = newCodeSet
			}
			codeSet = newCodeSet
		}

		patterns = append(patterns, code128Patterns[patternIndex])
		checkSum += patternIndex * checkWeight
		if position != 0 {
			checkWeight++
		}
	}

	checkSum %= 103
	patterns = append(patterns, code128Patterns[checkSum])
	patterns = append(patterns, code128Patterns[code128Stop])

	codeWidth := 0
	for _, pattern := range patterns {
		for _, w := range pattern {
			codeWidth += w
		}
	}
	result := make([]bool, codeWidth)
	pos := 0
	for _, pattern := range patterns {
		pos += AppendRuns(result, pos, pattern, true)
	}
	return result, nil
}
