// Package qr reads and writes QR code symbols.
package qr

import (
	"errors"
	"math/bits"
)

var (
	errBadECLevel = errors.New("qr: invalid error correction level")
	errBadMode    = errors.New("qr: invalid mode indicator")
	errBadVersion = errors.New("qr: invalid version number")
)

// ECLevel is one of the four QR error correction levels.
type ECLevel int

const (
	LevelL ECLevel = iota // recovers ~7% of codewords
	LevelM                // ~15%
	LevelQ                // ~25%
	LevelH                // ~30%
)

// Bits returns the level's 2-bit format encoding.
func (l ECLevel) Bits() int {
	switch l {
	case LevelL:
		return 0x01
	case LevelM:
		return 0x00
	case LevelQ:
		return 0x03
	case LevelH:
		return 0x02
	}
	return 0
}

// String returns the level letter.
func (l ECLevel) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	}
	return "?"
}

// ECLevelForBits maps the 2-bit format encoding to a level.
func ECLevelForBits(bits int) (ECLevel, error) {
	switch bits {
	case 0:
		return LevelM, nil
	case 1:
		return LevelL, nil
	case 2:
		return LevelH, nil
	case 3:
		return LevelQ, nil
	}
	return 0, errBadECLevel
}

// ECLevelForName maps "L"/"M"/"Q"/"H" to a level.
func ECLevelForName(name string) (ECLevel, error) {
	switch name {
	case "L":
		return LevelL, nil
	case "M":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	}
	return 0, errBadECLevel
}

const formatInfoMask = 0x5412

// FormatInfo is the decoded format word: EC level plus data mask index.
type FormatInfo struct {
	Level ECLevel
	Mask  byte
}

// formatInfoTable maps each masked 15-bit format word to its 5 data bits.
var formatInfoTable = [][2]int{
	{0x5412, 0x00}, {0x5125, 0x01}, {0x5E7C, 0x02}, {0x5B4B, 0x03},
	{0x45F9, 0x04}, {0x40CE, 0x05}, {0x4F97, 0x06}, {0x4AA0, 0x07},
	{0x77C4, 0x08}, {0x72F3, 0x09}, {0x7DAA, 0x0A}, {0x789D, 0x0B},
	{0x662F, 0x0C}, {0x6318, 0x0D}, {0x6C41, 0x0E}, {0x6976, 0x0F},
	{0x1689, 0x10}, {0x13BE, 0x11}, {0x1CE7, 0x12}, {0x19D0, 0x13},
	{0x0762, 0x14}, {0x0255, 0x15}, {0x0D0C, 0x16}, {0x083B, 0x17},
	{0x355F, 0x18}, {0x3068, 0x19}, {0x3F31, 0x1A}, {0x3A06, 0x1B},
	{0x24B4, 0x1C}, {0x2183, 0x1D}, {0x2EDA, 0x1E}, {0x2BED, 0x1F},
}

func formatInfoFromBits(info int) *FormatInfo {
	level, _ := ECLevelForBits((info >> 3) & 0x03)
	return &FormatInfo{Level: level, Mask: byte(info & 0x07)}
}

// DecodeFormatBits recovers format info from the two candidate 15-bit words,
// first as read, then with the fixed format mask removed.
func DecodeFormatBits(masked1, masked2 int) *FormatInfo {
	if fi := matchFormatBits(masked1, masked2); fi != nil {
		return fi
	}
	return matchFormatBits(masked1^formatInfoMask, masked2^formatInfoMask)
}

func matchFormatBits(masked1, masked2 int) *FormatInfo {
	bestDifference := 32
	bestInfo := 0
	for _, entry := range formatInfoTable {
		target := entry[0]
		if target == masked1 || target == masked2 {
			return formatInfoFromBits(entry[1])
		}
		diff := bits.OnesCount(uint(masked1 ^ target))
		if diff < bestDifference {
			bestInfo = entry[1]
			bestDifference = diff
		}
		if masked1 != masked2 {
			diff = bits.OnesCount(uint(masked2 ^ target))
			if diff < bestDifference {
				bestInfo = entry[1]
				bestDifference = diff
			}
		}
	}
	if bestDifference <= 3 {
		return formatInfoFromBits(bestInfo)
	}
	return nil
}
