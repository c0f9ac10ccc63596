package qr

// Mode is a QR bitstream segment mode indicator.
type Mode int

const (
	ModeTerminator       Mode = 0x00
	ModeNumeric          Mode = 0x01
	ModeAlphanumeric     Mode = 0x02
	ModeStructuredAppend Mode = 0x03
	ModeByte             Mode = 0x04
	ModeFNC1First        Mode = 0x05
	ModeECI              Mode = 0x07
	ModeKanji            Mode = 0x08
	ModeFNC1Second       Mode = 0x09
	ModeHanzi            Mode = 0x0D
)

// countBitsByVersionBand holds character count field widths for the three
// version bands 1-9, 10-26, 27-40.
var countBitsByVersionBand = map[Mode][3]int{
	ModeTerminator:       {0, 0, 0},
	ModeNumeric:          {10, 12, 14},
	ModeAlphanumeric:     {9, 11, 13},
	ModeStructuredAppend: {0, 0, 0},
	ModeByte:             {8, 16, 16},
	ModeECI:              {0, 0, 0},
	ModeKanji:            {8, 10, 12},
	ModeFNC1First:        {0, 0, 0},
	ModeFNC1Second:       {0, 0, 0},
	ModeHanzi:            {8, 10, 12},
}

// ModeForBits maps a 4-bit mode indicator to a Mode.
func ModeForBits(bits int) (Mode, error) {
	switch bits {
	case 0x0:
		return ModeTerminator, nil
	case 0x1:
		return ModeNumeric, nil
	case 0x2:
		return ModeAlphanumeric, nil
	case 0x3:
		return ModeStructuredAppend, nil
	case 0x4:
		return ModeByte, nil
	case 0x5:
		return ModeFNC1First, nil
	case 0x7:
		return ModeECI, nil
	case 0x8:
		return ModeKanji, nil
	case 0x9:
		return ModeFNC1Second, nil
	case 0xD:
		return ModeHanzi, nil
	}
	return 0, errBadMode
}

// CountBits returns the character count field width for this mode at the
// given version.
func (m Mode) CountBits(version *Version) int {
	var band int
	switch {
	case version.Number <= 9:
		band = 0
	case version.Number <= 26:
		band = 1
	default:
		band = 2
	}
	return countBitsByVersionBand[m][band]
}

// Bits returns the 4-bit mode indicator.
func (m Mode) Bits() int { return int(m) }
