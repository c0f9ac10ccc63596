package datamatrix

import (
	"fmt"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
)

// Shape restricts which symbol sizes the encoder may pick.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeSquare
	ShapeRectangle
)

// Special ASCII-mode codewords.
const (
	padCodeword        = 129
	latchC40           = 230
	upperShiftCodeword = 235
	unlatchCodeword    = 254
)

// EncodeSymbol encodes contents into a full symbol matrix, finder patterns
// included, choosing the smallest size the shape constraint allows.
func EncodeSymbol(contents string, shape Shape) (*bitvec.Matrix, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("empty contents: %w", gridscan.ErrBadInput)
	}

	encoded := encodeHighLevel([]byte(contents))
	version, err := smallestVersionFor(len(encoded), shape)
	if err != nil {
		return nil, err
	}

	dataCapacity := version.TotalCodewords - version.ECCodewords*version.NumBlocks()
	codewords := padCodewords(encoded, dataCapacity)
	full, err := appendParity(codewords, version)
	if err != nil {
		return nil, err
	}

	return layoutSymbol(full, version), nil
}

func smallestVersionFor(dataCodewords int, shape Shape) (*Version, error) {
	bestIdx := -1
	bestCapacity := 0
	for i := range versionTable {
		v := &versionTable[i]
		rect := v.Rows != v.Columns
		if shape == ShapeSquare && rect {
			continue
		}
		if shape == ShapeRectangle && !rect {
			continue
		}
		// Skip the extended rectangular sizes for encoding; the classic
		// table is what general-purpose writers emit.
		if v.Number > 30 {
			continue
		}
		capacity := v.TotalCodewords - v.ECCodewords*v.NumBlocks()
		if capacity >= dataCodewords && (bestIdx == -1 || capacity < bestCapacity) {
			bestIdx = i
			bestCapacity = capacity
		}
	}
	if bestIdx == -1 {
		return nil, fmt.Errorf("%w: no symbol fits %d codewords", gridscan.ErrWriter, dataCodewords)
	}
	return &versionTable[bestIdx], nil
}

// encodeHighLevel picks between plain ASCII encodation and a C40 run
// encoding, keeping whichever is shorter.
func encodeHighLevel(data []byte) []byte {
	ascii := encodeASCIIMode(data)
	c40 := encodeWithC40Runs(data)
	if c40 != nil && len(c40) < len(ascii) {
		return c40
	}
	return ascii
}

// encodeASCIIMode: values +1, digit pairs packed, high bytes upper-shifted.
func encodeASCIIMode(data []byte) []byte {
	result := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		c := data[i]
		if c >= '0' && c <= '9' && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '9' {
			pair := (int(c)-'0')*10 + int(data[i+1]) - '0'
			result = append(result, byte(pair+130))
			i += 2
			continue
		}
		if c <= 127 {
			result = append(result, c+1)
		} else {
			result = append(result, upperShiftCodeword, c-128+1)
		}
		i++
	}
	return result
}

// encodeWithC40Runs latches into C40 for long runs of its basic set.
func encodeWithC40Runs(data []byte) []byte {
	result := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		runLen := 0
		for j := i; j < len(data) && isBasicC40(data[j]); j++ {
			runLen++
		}

		// A latch plus unlatch costs two codewords; the run must be long
		// enough to pay for them.
		if runLen >= 6 {
			result = append(result, latchC40)
			end := i + runLen
			var values []int
			for j := i; j < end; j++ {
				values = append(values, c40Value(data[j]))
			}
			k := 0
			for k+3 <= len(values) {
				v := values[k]*1600 + values[k+1]*40 + values[k+2] + 1
				result = append(result, byte(v/256), byte(v%256))
				k += 3
			}
			remaining := len(values) - k
			i = end - remaining
			result = append(result, unlatchCodeword)
			continue
		}

		c := data[i]
		if c >= '0' && c <= '9' && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '9' {
			pair := (int(c)-'0')*10 + int(data[i+1]) - '0'
			result = append(result, byte(pair+130))
			i += 2
			continue
		}
		if c <= 127 {
			result = append(result, c+1)
		} else {
			result = append(result, upperShiftCodeword, c-128+1)
		}
		i++
	}
	return result
}

func isBasicC40(b byte) bool {
	return b == ' ' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z')
}

func c40Value(b byte) int {
	switch {
	case b == ' ':
		return 3
	case b >= '0' && b <= '9':
		return int(b-'0') + 4
	default:
		return int(b-'A') + 14
	}
}

// padCodewords fills to capacity: one plain PAD, then 253-state scrambled
// pads so identical payloads at different capacities differ.
func padCodewords(codewords []byte, capacity int) []byte {
	if len(codewords) >= capacity {
		return codewords
	}
	result := make([]byte, capacity)
	copy(result, codewords)
	result[len(codewords)] = padCodeword
	for i := len(codewords) + 1; i < capacity; i++ {
		pseudoRandom := ((149 * (i + 1)) % 253) + 1
		v := padCodeword + pseudoRandom
		if v > 254 {
			v -= 254
		}
		result[i] = byte(v)
	}
	return result
}

// appendParity computes per-block RS parity and interleaves data then EC.
func appendParity(codewords []byte, version *Version) ([]byte, error) {
	dataCapacity := len(codewords)
	blockCount := version.NumBlocks()
	ecPerBlock := version.ECCodewords

	result := make([]byte, dataCapacity+blockCount*ecPerBlock)
	copy(result, codewords)

	encoder := galois.NewEncoder(galois.DataMatrix)

	if blockCount == 1 {
		parity := blockParity(encoder, codewords, ecPerBlock)
		copy(result[dataCapacity:], parity)
		return result, nil
	}

	// Block data lengths follow the group table in order.
	lengths := make([]int, 0, blockCount)
	for _, g := range version.Groups {
		for i := 0; i < g.Count; i++ {
			lengths = append(lengths, g.DataCodewords)
		}
	}

	blocks := make([][]byte, blockCount)
	for i := range blocks {
		blocks[i] = make([]byte, 0, lengths[i])
	}
	for i, cw := range codewords {
		idx := i % blockCount
		if len(blocks[idx]) < lengths[idx] {
			blocks[idx] = append(blocks[idx], cw)
		}
	}

	offset := dataCapacity
	parities := make([][]byte, blockCount)
	for i := range blocks {
		parities[i] = blockParity(encoder, blocks[i], ecPerBlock)
	}
	for i := 0; i < ecPerBlock; i++ {
		for j := 0; j < blockCount; j++ {
			result[offset] = parities[j][i]
			offset++
		}
	}
	return result, nil
}

func blockParity(encoder *galois.Encoder, data []byte, ecLen int) []byte {
	codewords := make([]int, len(data)+ecLen)
	for i, b := range data {
		codewords[i] = int(b)
	}
	encoder.Encode(codewords, ecLen)
	parity := make([]byte, ecLen)
	for i := range parity {
		parity[i] = byte(codewords[len(data)+i])
	}
	return parity
}

// layoutSymbol places codeword bits through the shared placement walk, then
// draws each region's solid L and clock track.
func layoutSymbol(codewords []byte, version *Version) *bitvec.Matrix {
	mappingRows := version.Rows - (version.Rows/(version.RegionRows+2))*2
	mappingCols := version.Columns - (version.Columns/(version.RegionColumns+2))*2

	mapping := bitvec.New(mappingCols, mappingRows)
	visited := placementWalk(mappingRows, mappingCols, func(pos, bit, row, col int) {
		if pos < len(codewords) && codewords[pos]&(1<<uint(7-bit)) != 0 {
			mapping.Set(col, row)
		}
	})
	// Some sizes leave a fixed 2x2 pattern in the bottom-right corner.
	if !visited[mappingRows-1][mappingCols-1] {
		mapping.Set(mappingCols-1, mappingRows-1)
		mapping.Set(mappingCols-2, mappingRows-2)
	}

	symbol := bitvec.New(version.Columns, version.Rows)
	regionsDown := version.Rows / (version.RegionRows + 2)
	regionsAcross := version.Columns / (version.RegionColumns + 2)
	regionW := version.RegionColumns + 2
	regionH := version.RegionRows + 2

	for vr := 0; vr < regionsDown; vr++ {
		for hr := 0; hr < regionsAcross; hr++ {
			originX := hr * regionW
			originY := vr * regionH

			// Solid L: left column and bottom row.
			for y := 0; y < regionH; y++ {
				symbol.Set(originX, originY+y)
			}
			for x := 0; x < regionW; x++ {
				symbol.Set(originX+x, originY+regionH-1)
			}
			// Clock track: alternating top row and right column.
			for x := 0; x < regionW; x += 2 {
				symbol.Set(originX+x, originY)
			}
			for y := 0; y < regionH; y += 2 {
				symbol.Set(originX+regionW-1, originY+y)
			}

			for r := 0; r < version.RegionRows; r++ {
				for c := 0; c < version.RegionColumns; c++ {
					if mapping.At(hr*version.RegionColumns+c, vr*version.RegionRows+r) {
						symbol.Set(originX+c+1, originY+r+1)
					}
				}
			}
		}
	}
	return symbol
}
