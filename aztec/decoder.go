// Package aztec reads and writes Aztec code symbols.
package aztec

import (
	"strings"
	"unicode/utf8"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
)

// Detection carries the sampled grid and the structural parameters read
// from the mode message.
type Detection struct {
	Grid       *bitvec.Matrix
	Points     []gridscan.Point
	Compact    bool
	DataBlocks int
	Layers     int
}

// The five text modes of the Aztec high-level encoding.
const (
	modeUpper = iota
	modeLower
	modeMixed
	modeDigit
	modePunct
)

var upperChars = [32]rune{
	0, ' ', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 0, 0, 0, 0,
}

var lowerChars = [32]rune{
	0, ' ', 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z', 0, 0, 0, 0,
}

var mixedChars = [32]rune{
	0, ' ', '\x01', '\x02', '\x03', '\x04', '\x05', '\x06', '\x07', '\b', '\t', '\n',
	'\x0b', '\f', '\r', '\x1b', '\x1c', '\x1d', '\x1e', '\x1f',
	'@', '\\', '^', '_', '`', '|', '~', '\x7f', 0, 0, 0, 0,
}

// punctStrings includes the four two-character entries; 0 is FLG(n) and 31
// is the latch back to upper.
var punctStrings = [32]string{
	"", "\r", "\r\n", ". ", ", ", ": ", "!", "\"", "#", "$", "%", "&", "'", "(", ")",
	"*", "+", ",", "-", ".", "/", ":", ";", "<", "=", ">", "?", "[", "]", "{", "}", "",
}

// DecodeDetection corrects and interprets a detected symbol.
func DecodeDetection(det *Detection) (string, []byte, error) {
	rawBits := extractDataBits(det)
	corrected, err := correctDataBits(det, rawBits)
	if err != nil {
		return "", nil, err
	}
	text, err := interpretStream(corrected)
	if err != nil {
		return "", nil, err
	}
	var rawBytes []byte
	if utf8.ValidString(text) {
		rawBytes = []byte(text)
	}
	return text, rawBytes, nil
}

// wordBits returns the codeword width used at the given layer count.
func wordBits(layers int) int {
	switch {
	case layers <= 2:
		return 6
	case layers <= 8:
		return 8
	case layers <= 22:
		return 10
	default:
		return 12
	}
}

func bitsInLayers(layers int, compact bool) int {
	base := 112
	if compact {
		base = 88
	}
	return (base + 16*layers) * layers
}

func fieldForWordBits(bits int) *galois.Field {
	switch bits {
	case 4:
		return galois.AztecParam
	case 6:
		return galois.AztecData6
	case 8:
		return galois.AztecData8
	case 10:
		return galois.AztecData10
	default:
		return galois.AztecData12
	}
}

// correctDataBits runs RS correction over the raw layer bits and unstuffs
// the surviving data codewords.
func correctDataBits(det *Detection, rawBits []bool) ([]bool, error) {
	cwBits := wordBits(det.Layers)
	numCodewords := len(rawBits) / cwBits
	if det.DataBlocks > numCodewords {
		return nil, gridscan.ErrFormat
	}

	offset := len(rawBits) % cwBits
	numDataCodewords := det.DataBlocks
	numECCodewords := numCodewords - numDataCodewords

	words := make([]int, numCodewords)
	for i := 0; i < numCodewords; i++ {
		w := 0
		for j := 0; j < cwBits; j++ {
			w <<= 1
			if rawBits[offset+i*cwBits+j] {
				w |= 1
			}
		}
		words[i] = w
	}

	if _, err := galois.NewDecoder(fieldForWordBits(cwBits)).Decode(words, numECCodewords); err != nil {
		return nil, gridscan.ErrChecksum
	}

	// Unstuff: a word of one (or mask-1) carries cwBits-1 identical bits;
	// all-zero and all-one words are illegal after stuffing.
	mask := (1 << uint(cwBits)) - 1
	stuffed := 0
	for i := 0; i < numDataCodewords; i++ {
		w := words[i]
		if w == 0 || w == mask {
			return nil, gridscan.ErrFormat
		}
		if w == 1 || w == mask-1 {
			stuffed++
		}
	}

	corrected := make([]bool, numDataCodewords*cwBits-stuffed)
	idx := 0
	for i := 0; i < numDataCodewords; i++ {
		w := words[i]
		if w == 1 || w == mask-1 {
			fill := w > 1
			for j := 0; j < cwBits-1; j++ {
				corrected[idx] = fill
				idx++
			}
			continue
		}
		for bit := cwBits - 1; bit >= 0; bit-- {
			corrected[idx] = w&(1<<uint(bit)) != 0
			idx++
		}
	}
	return corrected, nil
}

// interpretStream runs the five-mode state machine over the data bits.
func interpretStream(bits []bool) (string, error) {
	end := len(bits)
	mode := modeUpper
	index := 0
	var text strings.Builder

	for index < end {
		if mode == modeDigit {
			index, mode = stepDigit(&text, bits, index, end)
		} else {
			index, mode = stepNonDigit(&text, bits, index, end, mode)
		}
		if index < 0 {
			return "", gridscan.ErrFormat
		}
	}
	return text.String(), nil
}

// takeBits reads n bits MSB first; a negative value signals exhaustion.
func takeBits(bits []bool, index, n, end int) (int, int) {
	if index+n > end {
		return -1, end
	}
	code := 0
	for i := index; i < index+n; i++ {
		code <<= 1
		if bits[i] {
			code |= 1
		}
	}
	return code, index + n
}

func stepNonDigit(text *strings.Builder, bits []bool, index, end, mode int) (int, int) {
	code, index := takeBits(bits, index, 5, end)
	if code < 0 {
		return end, mode
	}
	if code == 0 {
		return stepFLG(text, bits, index, end, mode)
	}

	switch mode {
	case modeUpper:
		switch {
		case code <= 27:
			text.WriteRune(upperChars[code])
		case code == 28:
			return index, modeLower
		case code == 29:
			return index, modeMixed
		case code == 30:
			return index, modeDigit
		default:
			return stepBinaryShift(text, bits, index, end, mode)
		}
	case modeLower:
		switch {
		case code <= 27:
			text.WriteRune(lowerChars[code])
		case code == 28:
			return stepShiftedChar(text, bits, index, end, modeLower, modeUpper)
		case code == 29:
			return index, modeMixed
		case code == 30:
			return index, modeDigit
		default:
			return stepBinaryShift(text, bits, index, end, mode)
		}
	case modeMixed:
		switch {
		case code <= 27:
			text.WriteRune(mixedChars[code])
		case code == 28:
			return index, modePunct
		case code == 29:
			return index, modeUpper
		case code == 30:
			return stepShiftedChar(text, bits, index, end, modeMixed, modePunct)
		default:
			return stepBinaryShift(text, bits, index, end, mode)
		}
	case modePunct:
		if code <= 30 {
			text.WriteString(punctStrings[code])
		} else {
			return index, modeUpper
		}
	}
	return index, mode
}

func stepDigit(text *strings.Builder, bits []bool, index, end int) (int, int) {
	code, index := takeBits(bits, index, 4, end)
	if code < 0 {
		return end, modeDigit
	}
	switch {
	case code == 0:
		return stepFLG(text, bits, index, end, modeDigit)
	case code == 1:
		return stepShiftedChar(text, bits, index, end, modeDigit, modePunct)
	case code <= 11:
		text.WriteByte(byte('0' + code - 2))
	case code == 12:
		text.WriteByte(',')
	case code == 13:
		text.WriteByte('.')
	case code == 14:
		return index, modeUpper
	default:
		return stepShiftedChar(text, bits, index, end, modeDigit, modeUpper)
	}
	return index, modeDigit
}

// stepShiftedChar reads a single character in shiftMode, then drops back.
func stepShiftedChar(text *strings.Builder, bits []bool, index, end, returnMode, shiftMode int) (int, int) {
	if shiftMode == modeDigit {
		code, index := takeBits(bits, index, 4, end)
		if code < 0 {
			return end, returnMode
		}
		switch {
		case code >= 2 && code <= 11:
			text.WriteByte(byte('0' + code - 2))
		case code == 12:
			text.WriteByte(',')
		case code == 13:
			text.WriteByte('.')
		}
		return index, returnMode
	}

	code, index := takeBits(bits, index, 5, end)
	if code < 0 {
		return end, returnMode
	}
	switch shiftMode {
	case modeUpper:
		if code >= 1 && code <= 27 {
			text.WriteRune(upperChars[code])
		}
	case modeLower:
		if code >= 1 && code <= 27 {
			text.WriteRune(lowerChars[code])
		}
	case modeMixed:
		if code >= 1 && code <= 27 {
			text.WriteRune(mixedChars[code])
		}
	case modePunct:
		if code >= 1 && code <= 30 {
			text.WriteString(punctStrings[code])
		}
	}
	return index, returnMode
}

// stepFLG handles FLG(n): FNC1 for n=0, an n-digit ECI number otherwise.
func stepFLG(text *strings.Builder, bits []bool, index, end, mode int) (int, int) {
	n, index := takeBits(bits, index, 3, end)
	if n < 0 {
		return end, mode
	}
	switch {
	case n == 0:
		text.WriteByte(0x1D)
	case n <= 4:
		for i := 0; i < n; i++ {
			_, index = takeBits(bits, index, 4, end)
		}
	}
	return index, mode
}

// stepBinaryShift reads the two-field byte run length, then that many raw
// bytes.
func stepBinaryShift(text *strings.Builder, bits []bool, index, end, mode int) (int, int) {
	length, index := takeBits(bits, index, 5, end)
	if length < 0 {
		return end, mode
	}
	if length == 0 {
		extra, next := takeBits(bits, index, 11, end)
		if extra < 0 {
			return end, mode
		}
		index = next
		length = extra + 31
	}
	for i := 0; i < length; i++ {
		ch, next := takeBits(bits, index, 8, end)
		if ch < 0 {
			return end, mode
		}
		index = next
		text.WriteByte(byte(ch))
	}
	return index, mode
}

// extractDataBits walks the concentric layers from the outside in, reading
// two-module columns off each of the four sides.
func extractDataBits(det *Detection) []bool {
	layers := det.Layers
	matrix := det.Grid

	baseSize := layers*4 + 11
	if !det.Compact {
		baseSize = layers*4 + 14
	}
	alignment := buildAlignmentMap(baseSize, det.Compact)

	rawBits := make([]bool, bitsInLayers(layers, det.Compact))
	rowOffset := 0
	for i := 0; i < layers; i++ {
		rowSize := (layers-i)*4 + 9
		if !det.Compact {
			rowSize = (layers-i)*4 + 12
		}
		low := i * 2
		high := baseSize - 1 - low

		for j := 0; j < rowSize; j++ {
			columnOffset := j * 2
			for k := 0; k < 2; k++ {
				rawBits[rowOffset+columnOffset+k] = mappedModule(matrix, alignment, low+k, low+j)
				rawBits[rowOffset+2*rowSize+columnOffset+k] = mappedModule(matrix, alignment, low+j, high-k)
				rawBits[rowOffset+4*rowSize+columnOffset+k] = mappedModule(matrix, alignment, high-k, high-j)
				rawBits[rowOffset+6*rowSize+columnOffset+k] = mappedModule(matrix, alignment, high-j, low+k)
			}
		}
		rowOffset += rowSize * 8
	}
	return rawBits
}

// buildAlignmentMap maps layer coordinates to matrix coordinates, carving
// out the full-range reference grid lines.
func buildAlignmentMap(baseSize int, compact bool) []int {
	alignment := make([]int, baseSize)
	if compact {
		for i := range alignment {
			alignment[i] = i
		}
		return alignment
	}
	matrixSize := baseSize + 1 + 2*((baseSize/2-1)/15)
	origCenter := baseSize / 2
	center := matrixSize / 2
	for i := 0; i < origCenter; i++ {
		newOffset := i + i/15
		alignment[origCenter-i-1] = center - newOffset - 1
		alignment[origCenter+i] = center + newOffset + 1
	}
	return alignment
}

func mappedModule(matrix *bitvec.Matrix, alignment []int, x, y int) bool {
	if x < 0 || x >= len(alignment) || y < 0 || y >= len(alignment) {
		return false
	}
	mx := alignment[x]
	my := alignment[y]
	if mx < 0 || mx >= matrix.Width() || my < 0 || my >= matrix.Height() {
		return false
	}
	return matrix.At(mx, my)
}
