package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// UPCAReader adapts the EAN-13 reader: a UPC-A symbol is an EAN-13 symbol
// with a leading zero.
type UPCAReader struct {
	ean13 *EAN13Reader
}

// NewUPCAReader returns a UPC-A reader.
func NewUPCAReader() *UPCAReader {
	return &UPCAReader{ean13: NewEAN13Reader()}
}

// Format implements middleDecoder.
func (r *UPCAReader) Format() gridscan.Format { return gridscan.FormatUPCA }

// DecodeRow decodes one scan line, stripping the leading zero.
func (r *UPCAReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	result, err := r.ean13.DecodeRow(rowNumber, row, opts)
	if err != nil {
		return nil, err
	}
	return stripUPCALeadingZero(result)
}

// DecodeMiddle delegates to EAN-13.
func (r *UPCAReader) DecodeMiddle(row *bitvec.Vector, startRange [2]int, result *strings.Builder) (int, error) {
	return r.ean13.DecodeMiddle(row, startRange, result)
}

func stripUPCALeadingZero(result *gridscan.Result) (*gridscan.Result, error) {
	text := result.Text
	if len(text) == 0 || text[0] != '0' {
		return nil, gridscan.ErrFormat
	}
	converted := gridscan.NewResult(text[1:], nil, result.Points, gridscan.FormatUPCA)
	converted.PutAllMetadata(result.Metadata)
	return converted, nil
}

// UPCAWriter adapts the EAN-13 writer by prepending a zero.
type UPCAWriter struct {
	ean13 *EAN13Writer
}

// NewUPCAWriter returns a UPC-A writer.
func NewUPCAWriter() *UPCAWriter {
	return &UPCAWriter{ean13: NewEAN13Writer()}
}

// Encode renders contents as a UPC-A symbol.
func (w *UPCAWriter) Encode(contents string, format gridscan.Format, width, height int, opts *gridscan.EncodeOptions) (*bitvec.Matrix, error) {
	if format != gridscan.FormatUPCA {
		return nil, fmt.Errorf("upc-a writer cannot encode %s: %w", format, gridscan.ErrBadInput)
	}
	return w.ean13.Encode("0"+contents, gridscan.FormatEAN13, width, height, opts)
}
