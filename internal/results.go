// Package internal holds the exchange types passed between detectors,
// decoders, and the format readers that assemble final results.
package internal

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// DetectorResult is a sampled module grid plus the image-space anchors the
// detector locked onto.
type DetectorResult struct {
	Grid   *bitvec.Matrix
	Points []gridscan.Point
}

// NewDetectorResult pairs a sampled grid with its anchors.
func NewDetectorResult(grid *bitvec.Matrix, points []gridscan.Point) *DetectorResult {
	return &DetectorResult{Grid: grid, Points: points}
}

// DecoderResult is the output of a symbology's bitstream interpreter.
type DecoderResult struct {
	RawBytes          []byte
	NumBits           int
	Text              string
	ByteSegments      [][]byte
	ECLevel           string
	ErrorsCorrected   int
	ErasuresCorrected int
	Extra             interface{}
	SAParity          int
	SASequence        int
	SymbologyModifier int
}

// NewDecoderResult builds a DecoderResult without structured append info.
func NewDecoderResult(rawBytes []byte, text string, byteSegments [][]byte, ecLevel string) *DecoderResult {
	return NewDecoderResultSA(rawBytes, text, byteSegments, ecLevel, -1, -1, 0)
}

// NewDecoderResultSA builds a DecoderResult carrying structured append
// sequence and parity plus the symbology modifier.
func NewDecoderResultSA(rawBytes []byte, text string, byteSegments [][]byte,
	ecLevel string, saSequence, saParity, symbologyModifier int) *DecoderResult {
	numBits := 0
	if rawBytes != nil {
		numBits = 8 * len(rawBytes)
	}
	return &DecoderResult{
		RawBytes:          rawBytes,
		NumBits:           numBits,
		Text:              text,
		ByteSegments:      byteSegments,
		ECLevel:           ecLevel,
		SAParity:          saParity,
		SASequence:        saSequence,
		SymbologyModifier: symbologyModifier,
	}
}

// HasStructuredAppend reports whether the symbol is one segment of a
// structured append set.
func (d *DecoderResult) HasStructuredAppend() bool {
	return d.SAParity >= 0 && d.SASequence >= 0
}
