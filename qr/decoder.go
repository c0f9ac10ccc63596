package qr

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
	"github.com/lkaramanov/gridscan/internal"
)

// Decoder corrects and interprets a sampled QR symbol grid.
type Decoder struct {
	rs *galois.Decoder
}

// NewDecoder returns a Decoder over the QR Reed-Solomon field.
func NewDecoder() *Decoder {
	return &Decoder{rs: galois.NewDecoder(galois.QRCode)}
}

// Decode interprets a sampled grid. mirrored reports whether the symbol only
// decoded after transposing, meaning the source image was mirror-reversed.
func (d *Decoder) Decode(grid *bitvec.Matrix, characterSet string) (result *internal.DecoderResult, mirrored bool, err error) {
	parser, err := newGridParser(grid)
	if err != nil {
		return nil, false, err
	}

	result, err = d.decodeParsed(parser, characterSet)
	if err == nil {
		return result, false, nil
	}
	firstErr := err

	// Second pass: transpose and retry, keeping the first error if the
	// mirrored attempt fails too.
	parser.remask()
	parser.setMirrored(true)
	if _, verr := parser.readVersion(); verr != nil {
		return nil, false, firstErr
	}
	if _, ferr := parser.readFormatInfo(); ferr != nil {
		return nil, false, firstErr
	}
	parser.mirror()

	result, err = d.decodeParsed(parser, characterSet)
	if err != nil {
		return nil, false, firstErr
	}
	return result, true, nil
}

func (d *Decoder) decodeParsed(parser *gridParser, characterSet string) (*internal.DecoderResult, error) {
	version, err := parser.readVersion()
	if err != nil {
		return nil, err
	}
	formatInfo, err := parser.readFormatInfo()
	if err != nil {
		return nil, err
	}

	codewords, err := parser.readCodewords()
	if err != nil {
		return nil, err
	}

	blocks := splitBlocks(codewords, version, formatInfo.Level)

	totalBytes := 0
	for _, block := range blocks {
		totalBytes += block.numDataCodewords
	}
	data := make([]byte, totalBytes)
	offset := 0
	errorsCorrected := 0
	for _, block := range blocks {
		corrected, err := d.correctBlock(block.codewords, block.numDataCodewords)
		if err != nil {
			return nil, err
		}
		errorsCorrected += corrected
		copy(data[offset:], block.codewords[:block.numDataCodewords])
		offset += block.numDataCodewords
	}

	result, err := interpretBitStream(data, version, formatInfo.Level, characterSet)
	if err != nil {
		return nil, err
	}
	result.ErrorsCorrected = errorsCorrected
	return result, nil
}

func (d *Decoder) correctBlock(codewords []byte, numDataCodewords int) (int, error) {
	received := make([]int, len(codewords))
	for i, b := range codewords {
		received[i] = int(b)
	}
	corrected, err := d.rs.Decode(received, len(codewords)-numDataCodewords)
	if err != nil {
		return 0, gridscan.ErrChecksum
	}
	for i := 0; i < numDataCodewords; i++ {
		codewords[i] = byte(received[i])
	}
	return corrected, nil
}
