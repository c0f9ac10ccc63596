package aztec

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
)

// Code is an encoded Aztec symbol.
type Code struct {
	Matrix    *bitvec.Matrix
	Compact   bool
	Size      int
	Layers    int
	CodeWords int
}

// layerWordBits[layers] is the codeword width at that layer count; index 0
// is the mode message.
var layerWordBits = [33]int{
	4, 6, 6, 8, 8, 8, 8, 8, 8, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
}

// EncodeData encodes data at the requested minimum EC percentage. A nonzero
// requestedLayers forces the layer count; negative values mean compact.
func EncodeData(data []byte, minECPercent, requestedLayers int) (*Code, error) {
	bits, err := encodeHighLevel(data)
	if err != nil {
		return nil, err
	}

	eccBits := bits.Len()*minECPercent/100 + 11
	totalSizeBits := bits.Len() + eccBits

	var compact bool
	var layers, layerBits, wordSize int
	var stuffedBits *bitvec.Vector

	if requestedLayers != 0 {
		compact = requestedLayers < 0
		layers = requestedLayers
		if compact {
			layers = -layers
		}
		maxLayers := 32
		if compact {
			maxLayers = 4
		}
		if layers < 1 || layers > maxLayers {
			return nil, fmt.Errorf("%w: illegal layer count %d", gridscan.ErrBadInput, requestedLayers)
		}
		layerBits = bitsInLayers(layers, compact)
		wordSize = layerWordBits[layers]
		usable := layerBits - layerBits%wordSize
		stuffedBits = stuff(bits, wordSize)
		if stuffedBits.Len()+eccBits > usable {
			return nil, fmt.Errorf("%w: data too large for requested layers", gridscan.ErrWriter)
		}
		if compact && stuffedBits.Len() > wordSize*64 {
			return nil, fmt.Errorf("%w: data too large for requested layers", gridscan.ErrWriter)
		}
	} else {
		// Compact 1-4, then full 4-32; full 1-3 never beats compact.
		found := false
		for i := 0; i <= 32; i++ {
			compact = i <= 3
			layers = i
			if compact {
				layers = i + 1
			}
			layerBits = bitsInLayers(layers, compact)
			if totalSizeBits > layerBits {
				continue
			}
			if stuffedBits == nil || wordSize != layerWordBits[layers] {
				wordSize = layerWordBits[layers]
				stuffedBits = stuff(bits, wordSize)
			}
			usable := layerBits - layerBits%wordSize
			if compact && stuffedBits.Len() > wordSize*64 {
				continue
			}
			if stuffedBits.Len()+eccBits <= usable {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: data too large for any Aztec symbol", gridscan.ErrWriter)
		}
	}

	messageBits := appendCheckWords(stuffedBits, layerBits, wordSize)
	messageWords := stuffedBits.Len() / wordSize
	modeMessage := buildModeMessage(compact, layers, messageWords)

	baseSize := layers*4 + 11
	if !compact {
		baseSize = layers*4 + 14
	}
	alignment := buildAlignmentMap(baseSize, compact)
	matrixSize := baseSize
	if !compact {
		matrixSize = baseSize + 1 + 2*((baseSize/2-1)/15)
	}

	matrix := bitvec.NewSquare(matrixSize)

	// Data layers, outermost first.
	rowOffset := 0
	for i := 0; i < layers; i++ {
		rowSize := (layers-i)*4 + 9
		if !compact {
			rowSize = (layers-i)*4 + 12
		}
		for j := 0; j < rowSize; j++ {
			columnOffset := j * 2
			for k := 0; k < 2; k++ {
				if messageBits.Bit(rowOffset + columnOffset + k) {
					matrix.Set(alignment[i*2+k], alignment[i*2+j])
				}
				if messageBits.Bit(rowOffset + rowSize*2 + columnOffset + k) {
					matrix.Set(alignment[i*2+j], alignment[baseSize-1-i*2-k])
				}
				if messageBits.Bit(rowOffset + rowSize*4 + columnOffset + k) {
					matrix.Set(alignment[baseSize-1-i*2-k], alignment[baseSize-1-i*2-j])
				}
				if messageBits.Bit(rowOffset + rowSize*6 + columnOffset + k) {
					matrix.Set(alignment[baseSize-1-i*2-j], alignment[i*2+k])
				}
			}
		}
		rowOffset += rowSize * 8
	}

	drawModeMessage(matrix, compact, matrixSize, modeMessage)

	if compact {
		drawBullseye(matrix, matrixSize/2, 5)
	} else {
		drawBullseye(matrix, matrixSize/2, 7)
		// Reference grid lines every 16 modules out from center.
		for i, j := 0, 0; i < baseSize/2-1; i, j = i+15, j+16 {
			for k := (matrixSize / 2) & 1; k < matrixSize; k += 2 {
				matrix.Set(matrixSize/2-j, k)
				matrix.Set(matrixSize/2+j, k)
				matrix.Set(k, matrixSize/2-j)
				matrix.Set(k, matrixSize/2+j)
			}
		}
	}

	return &Code{
		Matrix:    matrix,
		Compact:   compact,
		Size:      matrixSize,
		Layers:    layers,
		CodeWords: messageWords,
	}, nil
}

// stuff inserts stuffing bits so no data codeword is all zeros or all ones.
func stuff(bits *bitvec.Vector, wordSize int) *bitvec.Vector {
	out := bitvec.NewVector(0)
	n := bits.Len()
	mask := (1 << uint(wordSize)) - 2

	for i := 0; i < n; i += wordSize {
		word := 0
		for j := 0; j < wordSize; j++ {
			if i+j >= n || bits.Bit(i+j) {
				word |= 1 << uint(wordSize-1-j)
			}
		}
		switch {
		case word&mask == mask:
			out.AppendBits(uint32(word&mask), wordSize)
			i--
		case word&mask == 0:
			out.AppendBits(uint32(word|1), wordSize)
			i--
		default:
			out.AppendBits(uint32(word), wordSize)
		}
	}
	return out
}

// appendCheckWords RS-encodes the stuffed words and returns the full bit
// stream, front-padded to exactly totalBits.
func appendCheckWords(stuffedBits *bitvec.Vector, totalBits, wordSize int) *bitvec.Vector {
	messageWords := stuffedBits.Len() / wordSize
	totalWords := totalBits / wordSize

	words := make([]int, totalWords)
	for i := 0; i < messageWords; i++ {
		value := 0
		for j := 0; j < wordSize; j++ {
			if stuffedBits.Bit(i*wordSize + j) {
				value |= 1 << uint(wordSize-1-j)
			}
		}
		words[i] = value
	}

	galois.NewEncoder(fieldForWordBits(wordSize)).Encode(words, totalWords-messageWords)

	out := bitvec.NewVector(0)
	out.AppendBits(0, totalBits%wordSize)
	for _, w := range words {
		out.AppendBits(uint32(w), wordSize)
	}
	return out
}

func buildModeMessage(compact bool, layers, messageWords int) *bitvec.Vector {
	mode := bitvec.NewVector(0)
	if compact {
		mode.AppendBits(uint32(layers-1), 2)
		mode.AppendBits(uint32(messageWords-1), 6)
		return appendCheckWords(mode, 28, 4)
	}
	mode.AppendBits(uint32(layers-1), 5)
	mode.AppendBits(uint32(messageWords-1), 11)
	return appendCheckWords(mode, 40, 4)
}

func drawBullseye(matrix *bitvec.Matrix, center, size int) {
	for i := 0; i < size; i += 2 {
		for j := center - i; j <= center+i; j++ {
			matrix.Set(j, center-i)
			matrix.Set(j, center+i)
			matrix.Set(center-i, j)
			matrix.Set(center+i, j)
		}
	}
	matrix.Set(center-size, center-size)
	matrix.Set(center-size+1, center-size)
	matrix.Set(center-size, center-size+1)
	matrix.Set(center+size, center-size)
	matrix.Set(center+size, center-size+1)
	matrix.Set(center+size, center+size-1)
}

func drawModeMessage(matrix *bitvec.Matrix, compact bool, matrixSize int, modeMessage *bitvec.Vector) {
	center := matrixSize / 2
	if compact {
		for i := 0; i < 7; i++ {
			offset := center - 3 + i
			if modeMessage.Bit(i) {
				matrix.Set(offset, center-5)
			}
			if modeMessage.Bit(i + 7) {
				matrix.Set(center+5, offset)
			}
			if modeMessage.Bit(20 - i) {
				matrix.Set(offset, center+5)
			}
			if modeMessage.Bit(27 - i) {
				matrix.Set(center-5, offset)
			}
		}
		return
	}
	for i := 0; i < 10; i++ {
		offset := center - 5 + i + i/5
		if modeMessage.Bit(i) {
			matrix.Set(offset, center-7)
		}
		if modeMessage.Bit(i + 10) {
			matrix.Set(center+7, offset)
		}
		if modeMessage.Bit(29 - i) {
			matrix.Set(offset, center+7)
		}
		if modeMessage.Bit(39 - i) {
			matrix.Set(center-7, offset)
		}
	}
}
