package datamatrix

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
	"github.com/lkaramanov/gridscan/internal"
)

// Decoder corrects and interprets a sampled Data Matrix symbol.
type Decoder struct {
	rs *galois.Decoder
}

// NewDecoder returns a Decoder over the Data Matrix Reed-Solomon field.
func NewDecoder() *Decoder {
	return &Decoder{rs: galois.NewDecoder(galois.DataMatrix)}
}

// Decode reads, corrects, and interprets a full symbol matrix, finder
// patterns included.
func (d *Decoder) Decode(symbol *bitvec.Matrix) (*internal.DecoderResult, error) {
	rawCodewords, version, err := readSymbol(symbol)
	if err != nil {
		return nil, err
	}

	blocks, err := splitBlocks(rawCodewords, version)
	if err != nil {
		return nil, err
	}

	totalDataBytes := 0
	for _, block := range blocks {
		totalDataBytes += block.numDataCodewords
	}

	data := make([]byte, totalDataBytes)
	errorsCorrected := 0
	for j, block := range blocks {
		corrected, err := d.correctBlock(block.codewords, block.numDataCodewords)
		if err != nil {
			return nil, err
		}
		errorsCorrected += corrected
		// Re-interlace data codewords back into stream order.
		for i := 0; i < block.numDataCodewords; i++ {
			data[i*len(blocks)+j] = block.codewords[i]
		}
	}

	text, err := interpretCodewords(data)
	if err != nil {
		return nil, err
	}

	result := internal.NewDecoderResult(data, text, nil, "")
	result.ErrorsCorrected = errorsCorrected
	result.SymbologyModifier = 1
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
