package oned

import (
	"fmt"
	"math"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const code93Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-. $/+%abcd*"

var code93Encodings = [48]int{
	0x114, 0x148, 0x144, 0x142, 0x128, 0x124, 0x122, 0x150, 0x112, 0x10A,
	0x1A8, 0x1A4, 0x1A2, 0x194, 0x192, 0x18A, 0x168, 0x164, 0x162, 0x134,
	0x11A, 0x158, 0x14C, 0x146, 0x12C, 0x116, 0x1B4, 0x1B2, 0x1AC, 0x1A6,
	0x196, 0x19A, 0x16C, 0x166, 0x136, 0x13A,
	0x12E, 0x1D4, 0x1D2, 0x1CA, 0x16E, 0x176, 0x1AE,
	0x126, 0x1DA, 0x1D6, 0x132, 0x15E,
}

var code93Asterisk = code93Encodings[47]

// Code93Reader decodes Code 93 symbols.
type Code93Reader struct {
	counters []int
}

// NewCode93Reader returns a Code 93 reader.
func NewCode93Reader() *Code93Reader {
	return &Code93Reader{counters: make([]int, 6)}
}

// DecodeRow decodes one scan line.
func (r *Code93Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	start, err := r.findAsterisk(row)
	if err != nil {
		return nil, err
	}
	nextStart := row.NextSet(start[1])
	end := row.Len()

	counters := r.counters
	for i := range counters {
		counters[i] = 0
	}

	var result strings.Builder
	var decodedChar byte
	var lastStart int
	for {
		if err := RecordRuns(row, nextStart, counters); err != nil {
			return nil, err
		}
		pattern := code93Pattern(counters)
		if pattern < 0 {
			return nil, gridscan.ErrNotFound
		}
		decodedChar, err = code93CharFor(pattern)
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
	s = s[:len(s)-1]

	lastPatternSize := 0
	for _, c := range counters {
		lastPatternSize += c
	}

	// A termination bar must follow the closing asterisk.
	if nextStart == end || !row.Bit(nextStart) {
		return nil, gridscan.ErrNotFound
	}
	if len(s) < 2 {
		return nil, gridscan.ErrNotFound
	}
	if err := code93VerifyChecksums(s); err != nil {
		return nil, err
	}
	s = s[:len(s)-2]

	decoded, err := decodeCode93Extended(s)
	if err != nil {
		return nil, err
	}

	left := float64(start[1]+start[0]) / 2.0
	right := float64(lastStart) + float64(lastPatternSize)/2.0
	result93 := gridscan.NewResult(
		decoded, nil,
		[]gridscan.Point{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		gridscan.FormatCode93,
	)
	result93.PutMetadata(gridscan.KeySymbologyIdentifier, "]G0")
	return result93, nil
}

func (r *Code93Reader) findAsterisk(row *bitvec.Vector) ([2]int, error) {
	width := row.Len()
	rowOffset := row.NextSet(0)

	counters := r.counters
	for i := range counters {
		counters[i] = 0
	}
	patternStart := rowOffset
	isWhite := false
	patternLength := len(counters)
	counterPosition := 0

	for i := rowOffset; i < width; i++ {
		if row.Bit(i) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			if code93Pattern(counters) == code93Asterisk {
				return [2]int{patternStart, i}, nil
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

// code93Pattern scales the six runs onto nine modules and packs them.
func code93Pattern(counters []int) int {
	sum := 0
	for _, c := range counters {
		sum += c
	}
	pattern := 0
	for i := range counters {
		scaled := int(math.Round(float64(counters[i]) * 9.0 / float64(sum)))
		if scaled < 1 || scaled > 4 {
			return -1
		}
		if i&0x01 == 0 {
			for j := 0; j < scaled; j++ {
				pattern = (pattern << 1) | 0x01
			}
		} else {
			pattern <<= uint(scaled)
		}
	}
	return pattern
}

func code93CharFor(pattern int) (byte, error) {
	for i, enc := range code93Encodings {
		if enc == pattern {
			return code93Alphabet[i], nil
		}
	}
	return 0, gridscan.ErrNotFound
}

func decodeCode93Extended(encoded string) (string, error) {
	length := len(encoded)
	var decoded strings.Builder
	for i := 0; i < length; i++ {
		c := encoded[i]
		if c < 'a' || c > 'd' {
			decoded.WriteByte(c)
			continue
		}
		if i >= length-1 {
			return "", gridscan.ErrFormat
		}
		next := encoded[i+1]
		var decodedChar byte
		switch c {
		case 'd':
			if next < 'A' || next > 'Z' {
				return "", gridscan.ErrFormat
			}
			decodedChar = next + 32
		case 'a':
			if next < 'A' || next > 'Z' {
				return "", gridscan.ErrFormat
			}
			decodedChar = next - 64
		case 'b':
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
			case next >= 'X' && next <= 'Z':
				decodedChar = 127
			default:
				return "", gridscan.ErrFormat
			}
		case 'c':
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

func code93VerifyChecksums(result string) error {
	length := len(result)
	if err := code93VerifyOneChecksum(result, length-2, 20); err != nil {
		return err
	}
	return code93VerifyOneChecksum(result, length-1, 15)
}

func code93VerifyOneChecksum(result string, checkPosition, weightMax int) error {
	weight := 1
	total := 0
	for i := checkPosition - 1; i >= 0; i-- {
		total += weight * strings.IndexByte(code93Alphabet, result[i])
		weight++
		if weight > weightMax {
			weight = 1
		}
	}
	if result[checkPosition] != code93Alphabet[total%47] {
		return gridscan.ErrChecksum
	}
	return nil
}

// Code93Writer renders Code 93 symbols.
type Code93Writer struct{}

// NewCode93Writer returns a Code 93 writer.
func NewCode93Writer() *Code93Writer {
	return &Code93Writer{}
}

// Encode renders contents as a Code 93 symbol.
func (w *Code93Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatCode93 {
		return nil, fmt.Errorf("code 93 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.encode(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

func (w *Code93Writer) encode(contents string) ([]bool, error) {
	contents = escapeCode93Extended(contents)
	length := len(contents)
	if length > 80 {
		return nil, fmt.Errorf("%w: extended contents longer than 80 characters", gridscan.ErrBadInput)
	}

	// Payload plus start/stop and two checksums, nine modules each, plus
	// the termination bar.
	codeWidth := (length+2+2)*9 + 1
	result := make([]bool, codeWidth)

	pos := code93AppendPattern(result, 0, code93Asterisk)
	for i := 0; i < length; i++ {
		idx := strings.IndexByte(code93Alphabet, contents[i])
		pos += code93AppendPattern(result, pos, code93Encodings[idx])
	}

	check1 := code93ChecksumIndex(contents, 20)
	pos += code93AppendPattern(result, pos, code93Encodings[check1])
	contents += string(code93Alphabet[check1])

	check2 := code93ChecksumIndex(contents, 15)
	pos += code93AppendPattern(result, pos, code93Encodings[check2])

	pos += code93AppendPattern(result, pos, code93Asterisk)
	result[pos] = true
	return result, nil
}

func code93AppendPattern(target []bool, pos, mask int) int {
	for i := 0; i < 9; i++ {
		if mask&(1<<uint(8-i)) != 0 {
			target[pos+i] = true
		}
	}
	return 9
}

func code93ChecksumIndex(contents string, maxWeight int) int {
	weight := 1
	total := 0
	for i := len(contents) - 1; i >= 0; i-- {
		total += strings.IndexByte(code93Alphabet, contents[i]) * weight
		weight++
		if weight > maxWeight {
			weight = 1
		}
	}
	return total % 47
}

func escapeCode93Extended(contents string) string {
	var ext strings.Builder
	ext.Grow(len(contents) * 2)
	for i := 0; i < len(contents); i++ {
		c := contents[i]
		switch {
		case c == 0:
			ext.WriteString("bU")
		case c <= 26:
			ext.WriteByte('a')
			ext.WriteByte('A' + c - 1)
		case c <= 31:
			ext.WriteByte('b')
			ext.WriteByte('A' + c - 27)
		case c == ' ' || c == '$' || c == '%' || c == '+':
			ext.WriteByte(c)
		case c <= ',':
			ext.WriteByte('c')
			ext.WriteByte('A' + c - '!')
		case c <= '9':
			ext.WriteByte(c)
		case c == ':':
			ext.WriteString("cZ")
		case c <= '?':
			ext.WriteByte('b')
			ext.WriteByte('F' + c - ';')
		case c == '@':
			ext.WriteString("bV")
		case c <= 'Z':
			ext.WriteByte(c)
		case c <= '_':
			ext.WriteByte('b')
			ext.WriteByte('K' + c - '[')
		case c == '`':
			ext.WriteString("bW")
		case c <= 'z':
			ext.WriteByte('d')
			ext.WriteByte('A' + c - 'a')
		case c <= 127:
			ext.WriteByte('b')
			ext.WriteByte('P' + c - '{')
		default:
			ext.WriteByte(c)
		}
	}
	return ext.String()
}
