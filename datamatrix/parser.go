package datamatrix

import "github.com/lkaramanov/gridscan/bitvec"

// readSymbol identifies the version from the symbol dimensions, strips the
// finder and timing patterns, and reads the raw codewords in placement
// order.
func readSymbol(symbol *bitvec.Matrix) ([]byte, *Version, error) {
	version, err := VersionForDimensions(symbol.Height(), symbol.Width())
	if err != nil {
		return nil, nil, err
	}

	mapping := extractMappingMatrix(symbol, version)
	codewords := make([]byte, version.TotalCodewords)
	placementWalk(mapping.Height(), mapping.Width(), func(pos, bit, row, col int) {
		if pos >= len(codewords) {
			return
		}
		if mapping.At(col, row) {
			codewords[pos] |= 1 << uint(7-bit)
		}
	})
	return codewords, version, nil
}

// extractMappingMatrix tiles the data regions together, dropping each
// region's surrounding finder and timing modules.
func extractMappingMatrix(symbol *bitvec.Matrix, version *Version) *bitvec.Matrix {
	regionsDown := version.Rows / (version.RegionRows + 2)
	regionsAcross := version.Columns / (version.RegionColumns + 2)

	mapping := bitvec.New(regionsAcross*version.RegionColumns, regionsDown*version.RegionRows)
	for regionRow := 0; regionRow < regionsDown; regionRow++ {
		for regionCol := 0; regionCol < regionsAcross; regionCol++ {
			for i := 0; i < version.RegionRows; i++ {
				readRow := regionRow*(version.RegionRows+2) + 1 + i
				writeRow := regionRow*version.RegionRows + i
				for j := 0; j < version.RegionColumns; j++ {
					readCol := regionCol*(version.RegionColumns+2) + 1 + j
					if symbol.At(readCol, readRow) {
						mapping.Set(regionCol*version.RegionColumns+j, writeRow)
					}
				}
			}
		}
	}
	return mapping
}

// splitBlocks undoes the codeword interleave: data codewords round-robin
// across blocks first, then EC codewords.
type dataBlock struct {
	numDataCodewords int
	codewords        []byte
}

func splitBlocks(rawCodewords []byte, version *Version) ([]dataBlock, error) {
	totalBlocks := version.NumBlocks()
	ecPerBlock := version.ECCodewords

	blocks := make([]dataBlock, 0, totalBlocks)
	for _, g := range version.Groups {
		for i := 0; i < g.Count; i++ {
			blocks = append(blocks, dataBlock{
				numDataCodewords: g.DataCodewords,
				codewords:        make([]byte, g.DataCodewords+ecPerBlock),
			})
		}
	}

	shortDataLen := blocks[0].numDataCodewords
	for i := range blocks {
		if blocks[i].numDataCodewords < shortDataLen {
			shortDataLen = blocks[i].numDataCodewords
		}
	}

	offset := 0
	for i := 0; i < shortDataLen; i++ {
		for j := range blocks {
			if offset >= len(rawCodewords) {
				return nil, errShortCodewords
			}
			blocks[j].codewords[i] = rawCodewords[offset]
			offset++
		}
	}
	for j := range blocks {
		if blocks[j].numDataCodewords == shortDataLen {
			continue
		}
		if offset >= len(rawCodewords) {
			return nil, errShortCodewords
		}
		blocks[j].codewords[shortDataLen] = rawCodewords[offset]
		offset++
	}
	for i := 0; i < ecPerBlock; i++ {
		for j := range blocks {
			if offset >= len(rawCodewords) {
				return nil, errShortCodewords
			}
			blocks[j].codewords[blocks[j].numDataCodewords+i] = rawCodewords[offset]
			offset++
		}
	}
	if offset != len(rawCodewords) {
		return nil, errShortCodewords
	}
	return blocks, nil
}
