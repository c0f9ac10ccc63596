package qr

import (
	"fmt"
	"math/bits"

	"github.com/lkaramanov/gridscan/bitvec"
)

// BlockGroup describes a run of identical error-correction blocks.
type BlockGroup struct {
	Count         int
	DataCodewords int
}

// BlockSpec is the block layout for one version at one EC level.
type BlockSpec struct {
	ECPerBlock int
	Groups     []BlockGroup
}

// NumBlocks returns the total block count.
func (bs *BlockSpec) NumBlocks() int {
	total := 0
	for _, g := range bs.Groups {
		total += g.Count
	}
	return total
}

// TotalECCodewords returns the number of error-correction codewords.
func (bs *BlockSpec) TotalECCodewords() int {
	return bs.ECPerBlock * bs.NumBlocks()
}

// Version is one of the 40 QR code versions.
type Version struct {
	Number         int
	AlignCenters   []int
	BlockSpecs     [4]BlockSpec // indexed by ECLevel ordinal: L, M, Q, H
	TotalCodewords int
}

// Dimension returns the module count per side for this version.
func (v *Version) Dimension() int { return 17 + 4*v.Number }

// Blocks returns the block layout at the given EC level.
func (v *Version) Blocks(level ECLevel) *BlockSpec {
	return &v.BlockSpecs[level]
}

// FunctionPattern marks every function-pattern module of this version:
// finders, separators, timing, alignment, format, and version info.
func (v *Version) FunctionPattern() *bitvec.Matrix {
	dimension := v.Dimension()
	m := bitvec.NewSquare(dimension)

	// Finder patterns with separators and format areas.
	m.FillRegion(0, 0, 9, 9)
	m.FillRegion(dimension-8, 0, 8, 9)
	m.FillRegion(0, dimension-8, 9, 8)

	// Alignment patterns, skipping the three finder corners.
	n := len(v.AlignCenters)
	for x := 0; x < n; x++ {
		i := v.AlignCenters[x] - 2
		for y := 0; y < n; y++ {
			if (x != 0 || (y != 0 && y != n-1)) && (x != n-1 || y != 0) {
				m.FillRegion(v.AlignCenters[y]-2, i, 5, 5)
			}
		}
	}

	// Timing patterns.
	m.FillRegion(6, 9, 1, dimension-17)
	m.FillRegion(9, 6, dimension-17, 1)

	if v.Number > 6 {
		m.FillRegion(dimension-11, 0, 3, 6)
		m.FillRegion(0, dimension-11, 6, 3)
	}
	return m
}

// versionInfoBits holds the BCH-protected version words for versions 7-40.
var versionInfoBits = []int{
	0x07C94, 0x085BC, 0x09A99, 0x0A4D3, 0x0BBF6,
	0x0C762, 0x0D847, 0x0E60D, 0x0F928, 0x10B78,
	0x1145D, 0x12A17, 0x13532, 0x149A6, 0x15683,
	0x168C9, 0x177EC, 0x18EC4, 0x191E1, 0x1AFAB,
	0x1B08E, 0x1CC1A, 0x1D33F, 0x1ED75, 0x1F250,
	0x209D5, 0x216F0, 0x228BA, 0x2379F, 0x24B0B,
	0x2542E, 0x26A64, 0x27541, 0x28C69,
}

// VersionForNumber returns the version with the given number (1-40).
func VersionForNumber(number int) (*Version, error) {
	if number < 1 || number > 40 {
		return nil, errBadVersion
	}
	return &versionTable[number-1], nil
}

// VersionForDimension returns the version matching a symbol dimension.
func VersionForDimension(dimension int) (*Version, error) {
	if dimension%4 != 1 {
		return nil, fmt.Errorf("qr: invalid dimension %d", dimension)
	}
	return VersionForNumber((dimension - 17) / 4)
}

// DecodeVersionBits recovers a version from its 18 info bits, tolerating up
// to 3 bit errors. Returns nil when nothing is close enough.
func DecodeVersionBits(versionBits int) *Version {
	bestDifference := 32
	bestVersion := 0
	for i, target := range versionInfoBits {
		if target == versionBits {
			return &versionTable[i+6]
		}
		diff := bits.OnesCount(uint(versionBits ^ target))
		if diff < bestDifference {
			bestVersion = i + 7
			bestDifference = diff
		}
	}
	if bestDifference <= 3 {
		return &versionTable[bestVersion-1]
	}
	return nil
}

func mkVersion(number int, align []int, l, m, q, h BlockSpec) Version {
	v := Version{
		Number:       number,
		AlignCenters: align,
		BlockSpecs:   [4]BlockSpec{l, m, q, h},
	}
	total := 0
	for _, g := range l.Groups {
		total += g.Count * (g.DataCodewords + l.ECPerBlock)
	}
	v.TotalCodewords = total
	return v
}

func spec(ecPerBlock int, groups ...BlockGroup) BlockSpec {
	return BlockSpec{ECPerBlock: ecPerBlock, Groups: groups}
}

func grp(count, dataCodewords int) BlockGroup {
	return BlockGroup{Count: count, DataCodewords: dataCodewords}
}

var versionTable = [40]Version{
	mkVersion(1, nil, spec(7, grp(1, 19)), spec(10, grp(1, 16)), spec(13, grp(1, 13)), spec(17, grp(1, 9))),
	mkVersion(2, []int{6, 18}, spec(10, grp(1, 34)), spec(16, grp(1, 28)), spec(22, grp(1, 22)), spec(28, grp(1, 16))),
	mkVersion(3, []int{6, 22}, spec(15, grp(1, 55)), spec(26, grp(1, 44)), spec(18, grp(2, 17)), spec(22, grp(2, 13))),
	mkVersion(4, []int{6, 26}, spec(20, grp(1, 80)), spec(18, grp(2, 32)), spec(26, grp(2, 24)), spec(16, grp(4, 9))),
	mkVersion(5, []int{6, 30}, spec(26, grp(1, 108)), spec(24, grp(2, 43)), spec(18, grp(2, 15), grp(2, 16)), spec(22, grp(2, 11), grp(2, 12))),
	mkVersion(6, []int{6, 34}, spec(18, grp(2, 68)), spec(16, grp(4, 27)), spec(24, grp(4, 19)), spec(28, grp(4, 15))),
	mkVersion(7, []int{6, 22, 38}, spec(20, grp(2, 78)), spec(18, grp(4, 31)), spec(18, grp(2, 14), grp(4, 15)), spec(26, grp(4, 13), grp(1, 14))),
	mkVersion(8, []int{6, 24, 42}, spec(24, grp(2, 97)), spec(22, grp(2, 38), grp(2, 39)), spec(22, grp(4, 18), grp(2, 19)), spec(26, grp(4, 14), grp(2, 15))),
	mkVersion(9, []int{6, 26, 46}, spec(30, grp(2, 116)), spec(22, grp(3, 36), grp(2, 37)), spec(20, grp(4, 16), grp(4, 17)), spec(24, grp(4, 12), grp(4, 13))),
	mkVersion(10, []int{6, 28, 50}, spec(18, grp(2, 68), grp(2, 69)), spec(26, grp(4, 43), grp(1, 44)), spec(24, grp(6, 19), grp(2, 20)), spec(28, grp(6, 15), grp(2, 16))),
	mkVersion(11, []int{6, 30, 54}, spec(20, grp(4, 81)), spec(30, grp(1, 50), grp(4, 51)), spec(28, grp(4, 22), grp(4, 23)), spec(24, grp(3, 12), grp(8, 13))),
	mkVersion(12, []int{6, 32, 58}, spec(24, grp(2, 92), grp(2, 93)), spec(22, grp(6, 36), grp(2, 37)), spec(26, grp(4, 20), grp(6, 21)), spec(28, grp(7, 14), grp(4, 15))),
	mkVersion(13, []int{6, 34, 62}, spec(26, grp(4, 107)), spec(22, grp(8, 37), grp(1, 38)), spec(24, grp(8, 20), grp(4, 21)), spec(22, grp(12, 11), grp(4, 12))),
	mkVersion(14, []int{6, 26, 46, 66}, spec(30, grp(3, 115), grp(1, 116)), spec(24, grp(4, 40), grp(5, 41)), spec(20, grp(11, 16), grp(5, 17)), spec(24, grp(11, 12), grp(5, 13))),
	mkVersion(15, []int{6, 26, 48, 70}, spec(22, grp(5, 87), grp(1, 88)), spec(24, grp(5, 41), grp(5, 42)), spec(30, grp(5, 24), grp(7, 25)), spec(24, grp(11, 12), grp(7, 13))),
	mkVersion(16, []int{6, 26, 50, 74}, spec(24, grp(5, 98), grp(1, 99)), spec(28, grp(7, 45), grp(3, 46)), spec(24, grp(15, 19), grp(2, 20)), spec(30, grp(3, 15), grp(13, 16))),
	mkVersion(17, []int{6, 30, 54, 78}, spec(28, grp(1, 107), grp(5, 108)), spec(28, grp(10, 46), grp(1, 47)), spec(28, grp(1, 22), grp(15, 23)), spec(28, grp(2, 14), grp(17, 15))),
	mkVersion(18, []int{6, 30, 56, 82}, spec(30, grp(5, 120), grp(1, 121)), spec(26, grp(9, 43), grp(4, 44)), spec(28, grp(17, 22), grp(1, 23)), spec(28, grp(2, 14), grp(19, 15))),
	mkVersion(19, []int{6, 30, 58, 86}, spec(28, grp(3, 113), grp(4, 114)), spec(26, grp(3, 44), grp(11, 45)), spec(26, grp(17, 21), grp(4, 22)), spec(26, grp(9, 13), grp(16, 14))),
	mkVersion(20, []int{6, 34, 62, 90}, spec(28, grp(3, 107), grp(5, 108)), spec(26, grp(3, 41), grp(13, 42)), spec(30, grp(15, 24), grp(5, 25)), spec(28, grp(15, 15), grp(10, 16))),
	mkVersion(21, []int{6, 28, 50, 72, 94}, spec(28, grp(4, 116), grp(4, 117)), spec(26, grp(17, 42)), spec(28, grp(17, 22), grp(6, 23)), spec(30, grp(19, 16), grp(6, 17))),
	mkVersion(22, []int{6, 26, 50, 74, 98}, spec(28, grp(2, 111), grp(7, 112)), spec(28, grp(17, 46)), spec(30, grp(7, 24), grp(16, 25)), spec(24, grp(34, 13))),
	mkVersion(23, []int{6, 30, 54, 78, 102}, spec(30, grp(4, 121), grp(5, 122)), spec(28, grp(4, 47), grp(14, 48)), spec(30, grp(11, 24), grp(14, 25)), spec(30, grp(16, 15), grp(14, 16))),
	mkVersion(24, []int{6, 28, 54, 80, 106}, spec(30, grp(6, 117), grp(4, 118)), spec(28, grp(6, 45), grp(14, 46)), spec(30, grp(11, 24), grp(16, 25)), spec(30, grp(30, 16), grp(2, 17))),
	mkVersion(25, []int{6, 32, 58, 84, 110}, spec(26, grp(8, 106), grp(4, 107)), spec(28, grp(8, 47), grp(13, 48)), spec(30, grp(7, 24), grp(22, 25)), spec(30, grp(22, 15), grp(13, 16))),
	mkVersion(26, []int{6, 30, 58, 86, 114}, spec(28, grp(10, 114), grp(2, 115)), spec(28, grp(19, 46), grp(4, 47)), spec(28, grp(28, 22), grp(6, 23)), spec(30, grp(33, 16), grp(4, 17))),
	mkVersion(27, []int{6, 34, 62, 90, 118}, spec(30, grp(8, 122), grp(4, 123)), spec(28, grp(22, 45), grp(3, 46)), spec(30, grp(8, 23), grp(26, 24)), spec(30, grp(12, 15), grp(28, 16))),
	mkVersion(28, []int{6, 26, 50, 74, 98, 122}, spec(30, grp(3, 117), grp(10, 118)), spec(28, grp(3, 45), grp(23, 46)), spec(30, grp(4, 24), grp(31, 25)), spec(30, grp(11, 15), grp(31, 16))),
	mkVersion(29, []int{6, 30, 54, 78, 102, 126}, spec(30, grp(7, 116), grp(7, 117)), spec(28, grp(21, 45), grp(7, 46)), spec(30, grp(1, 23), grp(37, 24)), spec(30, grp(19, 15), grp(26, 16))),
	mkVersion(30, []int{6, 26, 52, 78, 104, 130}, spec(30, grp(5, 115), grp(10, 116)), spec(28, grp(19, 47), grp(10, 48)), spec(30, grp(15, 24), grp(25, 25)), spec(30, grp(23, 15), grp(25, 16))),
	mkVersion(31, []int{6, 30, 56, 82, 108, 134}, spec(30, grp(13, 115), grp(3, 116)), spec(28, grp(2, 46), grp(29, 47)), spec(30, grp(42, 24), grp(1, 25)), spec(30, grp(23, 15), grp(28, 16))),
	mkVersion(32, []int{6, 34, 60, 86, 112, 138}, spec(30, grp(17, 115)), spec(28, grp(10, 46), grp(23, 47)), spec(30, grp(10, 24), grp(35, 25)), spec(30, grp(19, 15), grp(35, 16))),
	mkVersion(33, []int{6, 30, 58, 86, 114, 142}, spec(30, grp(17, 115), grp(1, 116)), spec(28, grp(14, 46), grp(21, 47)), spec(30, grp(29, 24), grp(19, 25)), spec(30, grp(11, 15), grp(46, 16))),
	mkVersion(34, []int{6, 34, 62, 90, 118, 146}, spec(30, grp(13, 115), grp(6, 116)), spec(28, grp(14, 46), grp(23, 47)), spec(30, grp(44, 24), grp(7, 25)), spec(30, grp(59, 16), grp(1, 17))),
	mkVersion(35, []int{6, 30, 54, 78, 102, 126, 150}, spec(30, grp(12, 121), grp(7, 122)), spec(28, grp(12, 47), grp(26, 48)), spec(30, grp(39, 24), grp(14, 25)), spec(30, grp(22, 15), grp(41, 16))),
	mkVersion(36, []int{6, 24, 50, 76, 102, 128, 154}, spec(30, grp(6, 121), grp(14, 122)), spec(28, grp(6, 47), grp(34, 48)), spec(30, grp(46, 24), grp(10, 25)), spec(30, grp(2, 15), grp(64, 16))),
	mkVersion(37, []int{6, 28, 54, 80, 106, 132, 158}, spec(30, grp(17, 122), grp(4, 123)), spec(28, grp(29, 46), grp(14, 47)), spec(30, grp(49, 24), grp(10, 25)), spec(30, grp(24, 15), grp(46, 16))),
	mkVersion(38, []int{6, 32, 58, 84, 110, 136, 162}, spec(30, grp(4, 122), grp(18, 123)), spec(28, grp(13, 46), grp(32, 47)), spec(30, grp(48, 24), grp(14, 25)), spec(30, grp(42, 15), grp(32, 16))),
	mkVersion(39, []int{6, 26, 54, 82, 110, 138, 166}, spec(30, grp(20, 117), grp(4, 118)), spec(28, grp(40, 47), grp(7, 48)), spec(30, grp(43, 24), grp(22, 25)), spec(30, grp(10, 15), grp(67, 16))),
	mkVersion(40, []int{6, 30, 58, 86, 114, 142, 170}, spec(30, grp(19, 118), grp(6, 119)), spec(28, grp(18, 47), grp(31, 48)), spec(30, grp(34, 24), grp(34, 25)), spec(30, grp(20, 15), grp(61, 16))),
}
