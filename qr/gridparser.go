package qr

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// gridParser reads version, format info, and codewords out of a sampled
// symbol grid, with an optional mirrored reading orientation.
type gridParser struct {
	grid       *bitvec.Matrix
	version    *Version
	formatInfo *FormatInfo
	mirrored   bool
}

func newGridParser(grid *bitvec.Matrix) (*gridParser, error) {
	dimension := grid.Height()
	if dimension < 21 || dimension&0x03 != 1 {
		return nil, gridscan.ErrFormat
	}
	return &gridParser{grid: grid}, nil
}

func (p *gridParser) readFormatInfo() (*FormatInfo, error) {
	if p.formatInfo != nil {
		return p.formatInfo, nil
	}

	// Around the top-left finder.
	bits1 := 0
	for i := 0; i < 6; i++ {
		bits1 = p.copyBit(i, 8, bits1)
	}
	bits1 = p.copyBit(7, 8, bits1)
	bits1 = p.copyBit(8, 8, bits1)
	bits1 = p.copyBit(8, 7, bits1)
	for j := 5; j >= 0; j-- {
		bits1 = p.copyBit(8, j, bits1)
	}

	// Split across top-right and bottom-left.
	dimension := p.grid.Height()
	bits2 := 0
	jMin := dimension - 7
	for j := dimension - 1; j >= jMin; j-- {
		bits2 = p.copyBit(8, j, bits2)
	}
	for i := dimension - 8; i < dimension; i++ {
		bits2 = p.copyBit(i, 8, bits2)
	}

	p.formatInfo = DecodeFormatBits(bits1, bits2)
	if p.formatInfo == nil {
		return nil, gridscan.ErrFormat
	}
	return p.formatInfo, nil
}

func (p *gridParser) readVersion() (*Version, error) {
	if p.version != nil {
		return p.version, nil
	}

	dimension := p.grid.Height()
	provisional := (dimension - 17) / 4
	if provisional <= 6 {
		return VersionForNumber(provisional)
	}

	// Top-right block, 3 wide by 6 tall.
	versionBits := 0
	ijMin := dimension - 11
	for j := 5; j >= 0; j-- {
		for i := dimension - 9; i >= ijMin; i-- {
			versionBits = p.copyBit(i, j, versionBits)
		}
	}
	if v := DecodeVersionBits(versionBits); v != nil && v.Dimension() == dimension {
		p.version = v
		return v, nil
	}

	// Bottom-left block, 6 wide by 3 tall.
	versionBits = 0
	for i := 5; i >= 0; i-- {
		for j := dimension - 9; j >= ijMin; j-- {
			versionBits = p.copyBit(i, j, versionBits)
		}
	}
	if v := DecodeVersionBits(versionBits); v != nil && v.Dimension() == dimension {
		p.version = v
		return v, nil
	}
	return nil, gridscan.ErrFormat
}

func (p *gridParser) copyBit(i, j, accumulator int) int {
	var bit bool
	if p.mirrored {
		bit = p.grid.At(j, i)
	} else {
		bit = p.grid.At(i, j)
	}
	if bit {
		return (accumulator << 1) | 0x1
	}
	return accumulator << 1
}

// readCodewords unmasks the grid and walks the two-column zig-zag, skipping
// function modules, to collect the raw codewords.
func (p *gridParser) readCodewords() ([]byte, error) {
	formatInfo, err := p.readFormatInfo()
	if err != nil {
		return nil, err
	}
	version, err := p.readVersion()
	if err != nil {
		return nil, err
	}

	unmask(p.grid, p.grid.Height(), int(formatInfo.Mask))
	functionPattern := version.FunctionPattern()

	readingUp := true
	result := make([]byte, version.TotalCodewords)
	resultOffset := 0
	currentByte := 0
	bitsRead := 0
	dimension := p.grid.Height()

	for j := dimension - 1; j > 0; j -= 2 {
		if j == 6 {
			j--
		}
		for count := 0; count < dimension; count++ {
			i := count
			if readingUp {
				i = dimension - 1 - count
			}
			for col := 0; col < 2; col++ {
				if functionPattern.At(j-col, i) {
					continue
				}
				bitsRead++
				currentByte <<= 1
				if p.grid.At(j-col, i) {
					currentByte |= 1
				}
				if bitsRead == 8 {
					result[resultOffset] = byte(currentByte)
					resultOffset++
					bitsRead = 0
					currentByte = 0
				}
			}
		}
		readingUp = !readingUp
	}

	if resultOffset != version.TotalCodewords {
		return nil, gridscan.ErrFormat
	}
	return result, nil
}

// remask restores the mask removed by readCodewords.
func (p *gridParser) remask() {
	if p.formatInfo == nil {
		return
	}
	unmask(p.grid, p.grid.Height(), int(p.formatInfo.Mask))
}

// setMirrored switches reading orientation and discards parsed state.
func (p *gridParser) setMirrored(mirrored bool) {
	p.version = nil
	p.formatInfo = nil
	p.mirrored = mirrored
}

// mirror transposes the grid in place for a mirrored second pass.
func (p *gridParser) mirror() {
	for x := 0; x < p.grid.Width(); x++ {
		for y := x + 1; y < p.grid.Height(); y++ {
			if p.grid.At(x, y) != p.grid.At(y, x) {
				p.grid.Flip(y, x)
				p.grid.Flip(x, y)
			}
		}
	}
}
