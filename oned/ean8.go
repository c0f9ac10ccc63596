package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// EAN8Reader decodes EAN-8 symbols.
type EAN8Reader struct{}

// NewEAN8Reader returns an EAN-8 reader.
func NewEAN8Reader() *EAN8Reader {
	return &EAN8Reader{}
}

// Format implements middleDecoder.
func (r *EAN8Reader) Format() gridscan.Format { return gridscan.FormatEAN8 }

// DecodeRow decodes one scan line.
func (r *EAN8Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	return decodeUPCEANRow(rowNumber, row, r, opts)
}

// DecodeMiddle reads the 4+4 digits.
func (r *EAN8Reader) DecodeMiddle(row *bitvec.Vector, startRange [2]int, result *strings.Builder) (int, error) {
	counters := make([]int, 4)
	end := row.Len()
	rowOffset := startRange[1]

	for x := 0; x < 4 && rowOffset < end; x++ {
		match, err := decodeDigit(row, counters, rowOffset, digitPatterns[:])
		if err != nil {
			return 0, err
		}
		result.WriteByte('0' + byte(match))
		for _, c := range counters {
			rowOffset += c
		}
	}

	middleRange, err := findMiddleGuard(row, rowOffset)
	if err != nil {
		return 0, err
	}
	rowOffset = middleRange[1]

	for x := 0; x < 4 && rowOffset < end; x++ {
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

const ean8ModuleWidth = 3 + 7*4 + 5 + 7*4 + 3

// EAN8Writer renders EAN-8 symbols.
type EAN8Writer struct{}

// NewEAN8Writer returns an EAN-8 writer.
func NewEAN8Writer() *EAN8Writer {
	return &EAN8Writer{}
}

// Encode renders contents as an EAN-8 symbol.
func (w *EAN8Writer) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatEAN8 {
		return nil, fmt.Errorf("ean-8 writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	code, err := w.EncodeContents(contents)
	if err != nil {
		return nil, err
	}
	return RenderRow(code, width, height), nil
}

// EncodeContents lays out the module pattern for 7 or 8 digits.
func (w *EAN8Writer) EncodeContents(contents string) ([]bool, error) {
	var err error
	contents, err = normalizeUPCEANLength(contents, 7, 8)
	if err != nil {
		return nil, err
	}

	result := make([]bool, ean8ModuleWidth)
	pos := 0
	pos += AppendRuns(result, pos, upceanSideGuard, true)
	for i := 0; i <= 3; i++ {
		pos += AppendRuns(result, pos, digitPatterns[contents[i]-'0'], false)
	}
	pos += AppendRuns(result, pos, upceanMiddleGuard, false)
	for i := 4; i <= 7; i++ {
		pos += AppendRuns(result, pos, digitPatterns[contents[i]-'0'], true)
	}
	AppendRuns(result, pos, upceanSideGuard, true)
	return result, nil
}
