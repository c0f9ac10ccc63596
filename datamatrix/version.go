// Package datamatrix reads and writes Data Matrix ECC-200 symbols.
package datamatrix

import "fmt"

// BlockGroup is a run of identical error-correction blocks.
type BlockGroup struct {
	Count         int
	DataCodewords int
}

// Version describes one ECC-200 symbol size from the ISO/IEC 16022 table
// (and ISO 21471 for the rectangular extension sizes).
type Version struct {
	Number         int
	Rows           int
	Columns        int
	RegionRows     int
	RegionColumns  int
	ECCodewords    int // EC codewords in each block
	Groups         []BlockGroup
	TotalCodewords int
}

func mkVersion(number, rows, columns, regionRows, regionColumns, ecPerBlock int, groups ...BlockGroup) Version {
	total := 0
	for _, g := range groups {
		total += g.Count * (g.DataCodewords + ecPerBlock)
	}
	return Version{
		Number:         number,
		Rows:           rows,
		Columns:        columns,
		RegionRows:     regionRows,
		RegionColumns:  regionColumns,
		ECCodewords:    ecPerBlock,
		Groups:         groups,
		TotalCodewords: total,
	}
}

// NumBlocks returns the total interleaved block count.
func (v *Version) NumBlocks() int {
	n := 0
	for _, g := range v.Groups {
		n += g.Count
	}
	return n
}

// VersionForDimensions returns the version with the given symbol size.
func VersionForDimensions(rows, columns int) (*Version, error) {
	for i := range versionTable {
		if versionTable[i].Rows == rows && versionTable[i].Columns == columns {
			return &versionTable[i], nil
		}
	}
	return nil, fmt.Errorf("datamatrix: no version for %dx%d symbol", rows, columns)
}

func grp(count, dataCodewords int) BlockGroup {
	return BlockGroup{Count: count, DataCodewords: dataCodewords}
}

// versionTable holds the 24 square, 6 rectangular, and 18 DMRE sizes.
var versionTable = [48]Version{
	mkVersion(1, 10, 10, 8, 8, 5, grp(1, 3)),
	mkVersion(2, 12, 12, 10, 10, 7, grp(1, 5)),
	mkVersion(3, 14, 14, 12, 12, 10, grp(1, 8)),
	mkVersion(4, 16, 16, 14, 14, 12, grp(1, 12)),
	mkVersion(5, 18, 18, 16, 16, 14, grp(1, 18)),
	mkVersion(6, 20, 20, 18, 18, 18, grp(1, 22)),
	mkVersion(7, 22, 22, 20, 20, 20, grp(1, 30)),
	mkVersion(8, 24, 24, 22, 22, 24, grp(1, 36)),
	mkVersion(9, 26, 26, 24, 24, 28, grp(1, 44)),
	mkVersion(10, 32, 32, 14, 14, 36, grp(1, 62)),
	mkVersion(11, 36, 36, 16, 16, 42, grp(1, 86)),
	mkVersion(12, 40, 40, 18, 18, 48, grp(1, 114)),
	mkVersion(13, 44, 44, 20, 20, 56, grp(1, 144)),
	mkVersion(14, 48, 48, 22, 22, 68, grp(1, 174)),
	mkVersion(15, 52, 52, 24, 24, 42, grp(2, 102)),
	mkVersion(16, 64, 64, 14, 14, 56, grp(2, 140)),
	mkVersion(17, 72, 72, 16, 16, 36, grp(4, 92)),
	mkVersion(18, 80, 80, 18, 18, 48, grp(4, 114)),
	mkVersion(19, 88, 88, 20, 20, 56, grp(4, 144)),
	mkVersion(20, 96, 96, 22, 22, 68, grp(4, 174)),
	mkVersion(21, 104, 104, 24, 24, 56, grp(6, 136)),
	mkVersion(22, 120, 120, 18, 18, 68, grp(6, 175)),
	mkVersion(23, 132, 132, 20, 20, 62, grp(8, 163)),
	mkVersion(24, 144, 144, 22, 22, 62, grp(8, 156), grp(2, 155)),

	mkVersion(25, 8, 18, 6, 16, 7, grp(1, 5)),
	mkVersion(26, 8, 32, 6, 14, 11, grp(1, 10)),
	mkVersion(27, 12, 26, 10, 24, 14, grp(1, 16)),
	mkVersion(28, 12, 36, 10, 16, 18, grp(1, 22)),
	mkVersion(29, 16, 36, 14, 16, 24, grp(1, 32)),
	mkVersion(30, 16, 48, 14, 22, 28, grp(1, 49)),

	mkVersion(31, 8, 48, 6, 22, 15, grp(1, 18)),
	mkVersion(32, 8, 64, 6, 14, 18, grp(1, 24)),
	mkVersion(33, 8, 80, 6, 18, 22, grp(1, 32)),
	mkVersion(34, 8, 96, 6, 22, 28, grp(1, 38)),
	mkVersion(35, 8, 120, 6, 18, 32, grp(1, 49)),
	mkVersion(36, 8, 144, 6, 22, 36, grp(1, 63)),
	mkVersion(37, 12, 64, 10, 14, 27, grp(1, 43)),
	mkVersion(38, 12, 88, 10, 20, 36, grp(1, 64)),
	mkVersion(39, 16, 64, 14, 14, 36, grp(1, 62)),
	mkVersion(40, 20, 36, 18, 16, 28, grp(1, 44)),
	mkVersion(41, 20, 44, 18, 20, 34, grp(1, 56)),
	mkVersion(42, 20, 64, 18, 14, 42, grp(1, 84)),
	mkVersion(43, 22, 48, 20, 22, 38, grp(1, 72)),
	mkVersion(44, 24, 48, 22, 22, 41, grp(1, 80)),
	mkVersion(45, 24, 64, 22, 14, 46, grp(1, 108)),
	mkVersion(46, 26, 40, 24, 18, 38, grp(1, 70)),
	mkVersion(47, 26, 48, 24, 22, 42, grp(1, 90)),
	mkVersion(48, 26, 64, 24, 14, 50, grp(1, 118)),
}
