package datamatrix

import (
	"errors"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
)

var errShortCodewords = errors.New("datamatrix: not enough codewords")

// Encodation modes.
const (
	encASCII = iota
	encC40
	encText
	encX12
	encEDIFACT
	encBase256
	encDone
)

// shift-2 set shared by C40 and Text: punctuation, then FNC1 and the
// reserved entries.
var shift2Set = [32]byte{
	'!', '"', '#', '$', '%', '&', '\'', '(', ')', '*', '+', ',', '-', '.', '/',
	':', ';', '<', '=', '>', '?', '@', '[', '\\', ']', '^', '_',
	0x1D, 0, 0, 0, 0,
}

// interpretCodewords walks the data codewords through the encodation
// dispatch table and produces the message text.
func interpretCodewords(data []byte) (string, error) {
	var text strings.Builder
	mode := encASCII
	pos := 0
	var err error

	for pos < len(data) && mode != encDone {
		switch mode {
		case encASCII:
			mode, err = readASCII(&text, data, &pos)
		case encC40:
			mode, err = readC40OrText(&text, data, &pos, false)
		case encText:
			mode, err = readC40OrText(&text, data, &pos, true)
		case encX12:
			mode, err = readX12(&text, data, &pos)
		case encEDIFACT:
			mode, err = readEdifact(&text, data, &pos)
		case encBase256:
			mode, err = readBase256(&text, data, &pos)
		}
		if err != nil {
			return "", err
		}
	}
	return text.String(), nil
}

// readASCII consumes codewords until a latch, pad, or end of data.
func readASCII(text *strings.Builder, data []byte, pos *int) (int, error) {
	for *pos < len(data) {
		b := int(data[*pos])
		*pos++

		switch {
		case b == 0:
			return 0, gridscan.ErrFormat
		case b <= 128:
			text.WriteByte(byte(b - 1))
		case b == 129:
			return encDone, nil
		case b <= 229:
			// 130 encodes "00" through 229 encoding "99".
			pair := b - 130
			text.WriteByte(byte('0' + pair/10))
			text.WriteByte(byte('0' + pair%10))
		case b == 230:
			return encC40, nil
		case b == 231:
			return encBase256, nil
		case b == 232:
			text.WriteByte(0x1D) // FNC1
		case b == 233:
			// Structured append header: skip the two identifier codewords.
			*pos += 2
		case b == 234:
			// Reader programming
		case b == 235:
			// Upper shift applies to the next codeword.
			if *pos >= len(data) {
				return 0, gridscan.ErrFormat
			}
			next := int(data[*pos])
			*pos++
			text.WriteByte(byte(next - 1 + 128))
		case b == 236:
			text.WriteString("[)>\x1E05\x1D")
		case b == 237:
			text.WriteString("[)>\x1E06\x1D")
		case b == 238:
			return encX12, nil
		case b == 239:
			return encText, nil
		case b == 240:
			return encEDIFACT, nil
		case b == 241:
			// ECI: no charset switch in this port
		default:
			// 242-255 unused
		}
	}
	return encASCII, nil
}

// readC40OrText unpacks codeword pairs into 40-value triplets, with the
// four shift sets of C40 (uppercase basic set) or Text (lowercase).
func readC40OrText(text *strings.Builder, data []byte, pos *int, textMode bool) (int, error) {
	shift := 0
	upperShift := false

	for *pos < len(data)-1 {
		c1 := int(data[*pos])
		*pos++
		if c1 == 254 {
			return encASCII, nil
		}
		c2 := int(data[*pos])
		*pos++

		v := c1*256 + c2 - 1
		triplet := [3]int{v / 1600, (v / 40) % 40, v % 40}

		for _, value := range triplet {
			switch shift {
			case 0:
				switch {
				case value < 3:
					shift = value + 1
				case value == 3:
					writeShifted(text, ' ', upperShift)
					upperShift = false
				case value <= 13:
					writeShifted(text, byte('0'+value-4), upperShift)
					upperShift = false
				default:
					if textMode {
						writeShifted(text, byte('a'+value-14), upperShift)
					} else {
						writeShifted(text, byte('A'+value-14), upperShift)
					}
					upperShift = false
				}
			case 1:
				writeShifted(text, byte(value), upperShift)
				upperShift = false
				shift = 0
			case 2:
				switch {
				case value < 27:
					writeShifted(text, shift2Set[value], upperShift)
					upperShift = false
				case value == 27:
					writeShifted(text, 0x1D, upperShift)
					upperShift = false
				case value == 30:
					upperShift = true
				}
				shift = 0
			case 3:
				writeShifted(text, shift3Char(value, textMode), upperShift)
				upperShift = false
				shift = 0
			}
		}
	}
	// A trailing single codeword is an implicit unlatch back to ASCII.
	return encASCII, nil
}

// shift3Char maps a shift-3 value: backquote, the opposite-case alphabet,
// and the trailing punctuation run.
func shift3Char(value int, textMode bool) byte {
	switch {
	case value == 0:
		return '`'
	case value <= 26:
		if textMode {
			return byte('A' + value - 1)
		}
		return byte('a' + value - 1)
	case value == 27:
		return '{'
	case value == 28:
		return '|'
	case value == 29:
		return '}'
	case value == 30:
		return '~'
	default:
		return 127
	}
}

func writeShifted(text *strings.Builder, ch byte, upperShift bool) {
	if upperShift {
		text.WriteByte(ch + 128)
	} else {
		text.WriteByte(ch)
	}
}

// readX12 unpacks the X12 triplets: CR, *, >, space, digits, uppercase.
func readX12(text *strings.Builder, data []byte, pos *int) (int, error) {
	for *pos < len(data)-1 {
		c1 := int(data[*pos])
		*pos++
		if c1 == 254 {
			return encASCII, nil
		}
		c2 := int(data[*pos])
		*pos++

		v := c1*256 + c2 - 1
		for _, value := range [3]int{v / 1600, (v / 40) % 40, v % 40} {
			switch {
			case value == 0:
				text.WriteByte('\r')
			case value == 1:
				text.WriteByte('*')
			case value == 2:
				text.WriteByte('>')
			case value == 3:
				text.WriteByte(' ')
			case value >= 4 && value <= 13:
				text.WriteByte(byte('0' + value - 4))
			case value >= 14 && value <= 39:
				text.WriteByte(byte('A' + value - 14))
			}
		}
	}
	return encASCII, nil
}

// readEdifact unpacks three codewords into four 6-bit values; 0x1F unlatches.
func readEdifact(text *strings.Builder, data []byte, pos *int) (int, error) {
	for *pos+3 <= len(data) {
		b1 := int(data[*pos])
		b2 := int(data[*pos+1])
		b3 := int(data[*pos+2])
		*pos += 3

		values := [4]int{
			(b1 >> 2) & 0x3F,
			((b1 & 0x03) << 4) | ((b2 >> 4) & 0x0F),
			((b2 & 0x0F) << 2) | ((b3 >> 6) & 0x03),
			b3 & 0x3F,
		}
		for _, v := range values {
			if v == 31 {
				return encASCII, nil
			}
			if v&0x20 == 0 {
				v |= 0x40
			}
			text.WriteByte(byte(v))
		}
	}
	return encASCII, nil
}

// readBase256 reads a descrambled byte run. The length field and every data
// byte are masked with the 149*p pseudo-random sequence.
func readBase256(text *strings.Builder, data []byte, pos *int) (int, error) {
	if *pos >= len(data) {
		return 0, gridscan.ErrFormat
	}
	d1 := descramble255(int(data[*pos]), *pos+1)
	*pos++

	var count int
	switch {
	case d1 == 0:
		count = len(data) - *pos
	case d1 < 250:
		count = d1
	default:
		if *pos >= len(data) {
			return 0, gridscan.ErrFormat
		}
		d2 := descramble255(int(data[*pos]), *pos+1)
		*pos++
		count = 250*(d1-249) + d2
	}
	if count < 0 || *pos+count > len(data) {
		return 0, gridscan.ErrFormat
	}

	for i := 0; i < count; i++ {
		text.WriteByte(byte(descramble255(int(data[*pos]), *pos+1)))
		*pos++
	}
	return encASCII, nil
}

// descramble255 removes the 255-state masking; position is 1-based.
func descramble255(codeword, position int) int {
	pseudoRandom := ((149 * position) % 255) + 1
	value := codeword - pseudoRandom
	if value < 0 {
		value += 256
	}
	return value
}
