package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// The leading EAN-13 digit is carried by the parity pattern of the first
// six digits; 0 bit = L, 1 bit = G.
var ean13FirstDigitParities = [10]int{
	0x00, 0x0B, 0x0D, 0x0E, 0x13, 0x19, 0x1C, 0x15, 0x16, 0x1A,
}

// EAN13Reader decodes EAN-13 symbols.
type EAN13Reader struct{}

// NewEAN13Reader returns an EAN-13 reader.
func NewEAN13Reader() *EAN13Reader {
	return &EAN13Reader{}
}

// Format implements middleDecoder.
func (r *EAN13Reader) Format() gridscan.Format { return gridscan.FormatEAN13 }

// DecodeRow decodes one scan line.
func (r *EAN13Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	return decodeUPCEANRow(rowNumber, row, r, opts)
}

// DecodeMiddle reads the 6+6 digits and recovers the implied first digit.
func (r *EAN13Reader) DecodeMiddle(row *bitvec.Vector, startRange [2]int, result *strings.Builder) (int, error) {
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

	if err := prependEAN13FirstDigit(result, parityPattern); err != nil {
		return 0, err
	}

	middleRange, err := findMiddleGuard(row, rowOffset)
	if err != nil {
		return 0, err
	}
	rowOffset = middleRange[1]

	for x := 0; x < 6 && rowOffset < end; x++ {
		match, err := decodeDigit(row, counters, rowOffset, digitPatterns[:])
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(match))
		for _, c := range counters {
			rowOffset += c
		}
	}
	return rowOffset, nil
}

func prependEAN13FirstDigit(result *strings.Builder, parityPattern int) error {
	for d := 0; d < 10; d++ {
		if parityPattern == ean13FirstDigitParities[d] {
			s := result.String()
			result.Reset()
			result.WriteByte('0' + byte(d))
			result.WriteString(s)
			return nil
		}
	}
	return gridscan.ErrNotFound
}

const ean13ModuleWidth = 3 + 7*6 + 5 + 7*6 + 3

// EAN13Writer renders EAN-13 symbols.
type EAN13Writer struct{}

// NewEAN13Writer returns an EAN-13 writer.
func NewEAN13Writer() *EAN13Writer {
	return &EAN13Writer{}
}

// Encode renders contents as an EAN-13 symbol.
func (w *EAN13Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatEAN13 {
		return nil, fmt.Errorf("ean-13 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.EncodeContents(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

// EncodeContents lays out the module pattern for 12 or 13 digits.
func (w *EAN13Writer) EncodeContents(contents string) ([]bool, error) {
	var err error
	contents, err = normalizeUPCEANLength(contents, 12, 13)
	if err != nil {
		return nil, err
	}

	firstDigit := int(contents[0] - '0')
	parities := ean13FirstDigitParities[firstDigit]
	result := make([]bool, ean13ModuleWidth)
	pos := 0

	pos += AppendRuns(result, pos, upceanSideGuard, true)
	for i := 1; i <= 6; i++ {
		digit := int(contents[i] - '0')
		if (parities>>(6-i))&1 == 1 {
			digit += 10
		}
		pos += AppendRuns(result, pos, digitAndParityPatterns[digit], false)
	}
	pos += AppendRuns(result, pos, upceanMiddleGuard, false)
	for i := 7; i <= 12; i++ {
		digit := int(contents[i] - '0')
		pos += AppendRuns(result, pos, digitPatterns[digit], true)
	}
	AppendRuns(result, pos, upceanSideGuard, true)
	return result, nil
}

// normalizeUPCEANLength appends or verifies the check digit.
func normalizeUPCEANLength(contents string, lengthWithout, lengthWith int) (string, error) {
	switch len(contents) {
	case lengthWithout:
		check := checksumDigit(contents)
		if check < 0 {
			return "", gridscan.ErrFormat
		}
		contents += string(rune('0' + check))
	case lengthWith:
		if !checkChecksum(contents) {
			return "", fmt.Errorf("check digit mismatch: %w", gridscan.ErrBadInput)
		}
	default:
		return "", fmt.Errorf("need %d or %d digits, got %d: %w",
			lengthWithout, lengthWith, len(contents), gridscan.ErrBadInput)
	}
	if err := CheckDigits(contents); err != nil {
		return "", err
	}
	return contents, nil
}
