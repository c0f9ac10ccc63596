package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// UPC-E parity patterns, indexed by number system then check digit.
var upceParityPatterns = [2][10]int{
	{0x38, 0x34, 0x32, 0x31, 0x2C, 0x26, 0x23, 0x2A, 0x29, 0x25},
	{0x07, 0x0B, 0x0D, 0x0E, 0x13, 0x19, 0x1C, 0x15, 0x16, 0x1A},
}

// UPCEReader decodes UPC-E symbols.
type UPCEReader struct{}

// NewUPCEReader returns a UPC-E reader.
func NewUPCEReader() *UPCEReader {
	return &UPCEReader{}
}

// Format implements middleDecoder.
func (r *UPCEReader) Format() gridscan.Format { return gridscan.FormatUPCE }

// DecodeRow decodes one scan line.
func (r *UPCEReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	return decodeUPCEANRow(rowNumber, row, r, opts)
}

// DecodeMiddle reads six digits whose parities carry the number system and
// check digit.
func (r *UPCEReader) DecodeMiddle(row *bitvec.Vector, startRange [2]int, result *strings.Builder) (int, error) {
	counters := make([]int, 4)
	end := row.Len()
	rowOffset := startRange[1]

	parityPattern := 0
	for x := 0; x < 6 && rowOffset < end; x++ {
		match, err := decodeDigit(row, counters, rowOffset, digitAndParityPatterns[:])
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(match%10))
		for _, c := range counters {
			rowOffset += c
		}
		if match >= 10 {
			parityPattern |= 1 << uint(5-x)
		}
	}

	if err := wrapUPCEDigits(result, parityPattern); err != nil {
		return 0, err
	}
	return rowOffset, nil
}

func wrapUPCEDigits(result *strings.Builder, parityPattern int) error {
	for numSys := 0; numSys <= 1; numSys++ {
		for d := 0; d < 10; d++ {
			if parityPattern == upceParityPatterns[numSys][d] {
				s := result.String()
				result.Reset()
				result.WriteByte('0' + byte(numSys))
				result.WriteString(s)
				result.WriteByte('0' + byte(d))
				return nil
			}
		}
	}
	return gridscan.ErrNotFound
}

// ExpandUPCE expands the compressed form back to the UPC-A digit string.
func ExpandUPCE(upce string) string {
	if len(upce) < 7 {
		return upce
	}
	middle := upce[1:7]
	var result strings.Builder
	result.WriteByte(upce[0])

	switch last := middle[5]; last {
	case '0', '1', '2':
		result.WriteString(middle[0:2])
		result.WriteByte(last)
		result.WriteString("0000")
		result.WriteString(middle[2:5])
	case '3':
		result.WriteString(middle[0:3])
		result.WriteString("00000")
		result.WriteString(middle[3:5])
	case '4':
		result.WriteString(middle[0:4])
		result.WriteString("00000")
		result.WriteByte(middle[4])
	default:
		result.WriteString(middle[0:5])
		result.WriteString("0000")
		result.WriteByte(last)
	}
	if len(upce) >= 8 {
		result.WriteByte(upce[7])
	}
	return result.String()
}

const upceModuleWidth = 3 + 7*6 + 6

// UPCEWriter renders UPC-E symbols.
type UPCEWriter struct{}

// NewUPCEWriter returns a UPC-E writer.
func NewUPCEWriter() *UPCEWriter {
	return &UPCEWriter{}
}

// Encode renders contents as a UPC-E symbol.
func (w *UPCEWriter) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatUPCE {
		return nil, fmt.Errorf("upc-e writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.EncodeContents(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

// EncodeContents lays out the module pattern for 7 or 8 digits.
func (w *UPCEWriter) EncodeContents(contents string) ([]bool, error) {
	switch len(contents) {
	case 7:
		check := checksumDigit(ExpandUPCE(contents))
		if check < 0 {
			return nil, gridscan.ErrFormat
		}
		contents += string(rune('0' + check))
	case 8:
		if !checkChecksum(ExpandUPCE(contents)) {
			return nil, fmt.Errorf("check digit mismatch: %w", gridscan.ErrBadInput)
		}
	default:
		return nil, fmt.Errorf("need 7 or 8 digits, got %d: %w", len(contents), gridscan.ErrBadInput)
	}
	if err := CheckDigits(contents); err != nil {
		return nil, err
	}

	numSys := int(contents[0] - '0')
	if numSys != 0 && numSys != 1 {
		return nil, fmt.Errorf("number system must be 0 or 1: %w", gridscan.ErrBadInput)
	}

	parities := upceParityPatterns[numSys][contents[7]-'0']
	result := make([]bool, upceModuleWidth)
	pos := AppendRuns(result, 0, upceanSideGuard, true)
	for i := 1; i <= 6; i++ {
		digit := int(contents[i] - '0')
		if (parities>>(6-i))&1 == 1 {
			digit += 10
		}
		pos += AppendRuns(result, pos, digitAndParityPatterns[digit], false)
	}
	AppendRuns(result, pos, upceanUPCEEnd, false)
	return result, nil
}
