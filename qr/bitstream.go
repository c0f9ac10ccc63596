package qr

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
	"github.com/lkaramanov/gridscan/textcodec"
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

const gb2312Subset = 1

// interpretBitStream walks the corrected data codewords as a sequence of
// mode segments and produces the decoded text plus metadata.
func interpretBitStream(data []byte, version *Version, level ECLevel, characterSet string) (*internal.DecoderResult, error) {
	src := bitvec.NewSource(data)
	var text strings.Builder
	text.Grow(50)
	var byteSegments [][]byte
	saSequence := -1
	saParity := -1

	var currentECI *textcodec.CharsetECI
	fnc1InEffect := false
	fnc1First := false
	fnc1Second := false

	for {
		var mode Mode
		if src.Available() < 4 {
			mode = ModeTerminator
		} else {
			modeBits, err := src.ReadBits(4)
			if err != nil {
				return nil, gridscan.ErrFormat
			}
			mode, err = ModeForBits(modeBits)
			if err != nil {
				return nil, gridscan.ErrFormat
			}
		}

		switch mode {
		case ModeTerminator:
			// end of stream
		case ModeFNC1First:
			fnc1First = true
			fnc1InEffect = true
		case ModeFNC1Second:
			fnc1Second = true
			fnc1InEffect = true
		case ModeStructuredAppend:
			if src.Available() < 16 {
				return nil, gridscan.ErrFormat
			}
			seq, _ := src.ReadBits(8)
			par, _ := src.ReadBits(8)
			saSequence = seq
			saParity = par
		case ModeECI:
			value, err := readECIValue(src)
			if err != nil {
				return nil, err
			}
			eci, eciErr := textcodec.ByValue(value)
			if eciErr != nil {
				return nil, gridscan.ErrFormat
			}
			currentECI = eci
		case ModeHanzi:
			subset, err := src.ReadBits(4)
			if err != nil {
				return nil, gridscan.ErrFormat
			}
			count, err := src.ReadBits(mode.CountBits(version))
			if err != nil {
				return nil, gridscan.ErrFormat
			}
			if subset == gb2312Subset {
				if err := readHanziSegment(src, &text, count); err != nil {
					return nil, err
				}
			}
		default:
			count, err := src.ReadBits(mode.CountBits(version))
			if err != nil {
				return nil, gridscan.ErrFormat
			}
			switch mode {
			case ModeNumeric:
				if err := readNumericSegment(src, &text, count); err != nil {
					return nil, err
				}
			case ModeAlphanumeric:
				if err := readAlphanumericSegment(src, &text, count, fnc1InEffect); err != nil {
					return nil, err
				}
			case ModeByte:
				segment, err := readByteSegment(src, &text, count, currentECI, characterSet)
				if err != nil {
					return nil, err
				}
				byteSegments = append(byteSegments, segment)
			case ModeKanji:
				if err := readKanjiSegment(src, &text, count); err != nil {
					return nil, err
				}
			default:
				return nil, gridscan.ErrFormat
			}
		}

		if mode == ModeTerminator {
			break
		}
	}

	var symbologyModifier int
	if currentECI != nil {
		switch {
		case fnc1First:
			symbologyModifier = 4
		case fnc1Second:
			symbologyModifier = 6
		default:
			symbologyModifier = 2
		}
	} else {
		switch {
		case fnc1First:
			symbologyModifier = 3
		case fnc1Second:
			symbologyModifier = 5
		default:
			symbologyModifier = 1
		}
	}

	return internal.NewDecoderResultSA(data, text.String(), byteSegments, level.String(),
		saSequence, saParity, symbologyModifier), nil
}

func readHanziSegment(src *bitvec.Source, text *strings.Builder, count int) error {
	if count*13 > src.Available() {
		return gridscan.ErrFormat
	}
	buf := make([]byte, 2*count)
	offset := 0
	for count > 0 {
		twoBytes, _ := src.ReadBits(13)
		assembled := ((twoBytes / 0x060) << 8) | (twoBytes % 0x060)
		if assembled < 0x00A00 {
			assembled += 0x0A1A1
		} else {
			assembled += 0x0A6A1
		}
		buf[offset] = byte(assembled >> 8)
		buf[offset+1] = byte(assembled)
		offset += 2
		count--
	}
	text.WriteString(textcodec.Decode(buf[:offset], "GB18030"))
	return nil
}

func readKanjiSegment(src *bitvec.Source, text *strings.Builder, count int) error {
	if count*13 > src.Available() {
		return gridscan.ErrFormat
	}
	buf := make([]byte, 2*count)
	offset := 0
	for count > 0 {
		twoBytes, _ := src.ReadBits(13)
		assembled := ((twoBytes / 0x0C0) << 8) | (twoBytes % 0x0C0)
		if assembled < 0x01F00 {
			assembled += 0x08140
		} else {
			assembled += 0x0C140
		}
		buf[offset] = byte(assembled >> 8)
		buf[offset+1] = byte(assembled)
		offset += 2
		count--
	}
	text.WriteString(textcodec.Decode(buf[:offset], "Shift_JIS"))
	return nil
}

func readByteSegment(src *bitvec.Source, text *strings.Builder, count int,
	currentECI *textcodec.CharsetECI, characterSet string) ([]byte, error) {
	if 8*count > src.Available() {
		return nil, gridscan.ErrFormat
	}
	segment := make([]byte, count)
	for i := 0; i < count; i++ {
		v, _ := src.ReadBits(8)
		segment[i] = byte(v)
	}
	var charset string
	if currentECI != nil {
		charset = currentECI.Name
	} else {
		charset = textcodec.Sniff(segment, characterSet)
	}
	text.WriteString(textcodec.Decode(segment, charset))
	return segment, nil
}

func alphanumericChar(value int) (byte, error) {
	if value >= len(alphanumericChars) {
		return 0, gridscan.ErrFormat
	}
	return alphanumericChars[value], nil
}

func readAlphanumericSegment(src *bitvec.Source, text *strings.Builder, count int, fnc1InEffect bool) error {
	start := text.Len()
	for count > 1 {
		if src.Available() < 11 {
			return gridscan.ErrFormat
		}
		pair, _ := src.ReadBits(11)
		c1, err := alphanumericChar(pair / 45)
		if err != nil {
			return err
		}
		c2, err := alphanumericChar(pair % 45)
		if err != nil {
			return err
		}
		text.WriteByte(c1)
		text.WriteByte(c2)
		count -= 2
	}
	if count == 1 {
		if src.Available() < 6 {
			return gridscan.ErrFormat
		}
		v, _ := src.ReadBits(6)
		c, err := alphanumericChar(v)
		if err != nil {
			return err
		}
		text.WriteByte(c)
	}
	if fnc1InEffect {
		// In GS1 data, "%" stands for the FNC1 separator and "%%" for a
		// literal percent.
		s := text.String()
		var rewritten strings.Builder
		rewritten.WriteString(s[:start])
		for i := start; i < len(s); i++ {
			if s[i] == '%' {
				if i < len(s)-1 && s[i+1] == '%' {
					rewritten.WriteByte('%')
					i++
				} else {
					rewritten.WriteByte(0x1D)
				}
			} else {
				rewritten.WriteByte(s[i])
			}
		}
		text.Reset()
		text.WriteString(rewritten.String())
	}
	return nil
}

func readNumericSegment(src *bitvec.Source, text *strings.Builder, count int) error {
	for count >= 3 {
		if src.Available() < 10 {
			return gridscan.ErrFormat
		}
		threeDigits, _ := src.ReadBits(10)
		if threeDigits >= 1000 {
			return gridscan.ErrFormat
		}
		fmt.Fprintf(text, "%03d", threeDigits)
		count -= 3
	}
	switch count {
	case 2:
		if src.Available() < 7 {
			return gridscan.ErrFormat
		}
		twoDigits, _ := src.ReadBits(7)
		if twoDigits >= 100 {
			return gridscan.ErrFormat
		}
		fmt.Fprintf(text, "%02d", twoDigits)
	case 1:
		if src.Available() < 4 {
			return gridscan.ErrFormat
		}
		digit, _ := src.ReadBits(4)
		if digit >= 10 {
			return gridscan.ErrFormat
		}
		fmt.Fprintf(text, "%d", digit)
	}
	return nil
}

func readECIValue(src *bitvec.Source) (int, error) {
	first, err := src.ReadBits(8)
	if err != nil {
		return 0, gridscan.ErrFormat
	}
	if first&0x80 == 0 {
		return first & 0x7F, nil
	}
	if first&0xC0 == 0x80 {
		second, err := src.ReadBits(8)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		return ((first & 0x3F) << 8) | second, nil
	}
	if first&0xE0 == 0xC0 {
		rest, err := src.ReadBits(16)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		return ((first & 0x1F) << 16) | rest, nil
	}
	return 0, gridscan.ErrFormat
}
