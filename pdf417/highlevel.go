package pdf417

import (
	"fmt"
	"math/big"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
)

// Compaction selects which codeword compaction the encoder uses.
type Compaction int

const (
	CompactionAuto Compaction = iota
	CompactionText
	CompactionByte
	CompactionNumeric
)

// Encoder-side sub-mode codes.
const (
	encSubAlpha = iota
	encSubLower
	encSubMixed
	encSubPunct
)

// encMixedChars maps mixed sub-mode codes to characters; zero entries are
// the latch codes.
var encMixedChars = []byte{
	48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 38, 13, 9, 44, 58,
	35, 45, 46, 36, 47, 43, 37, 42, 61, 94, 0, 32, 0, 0, 0,
}

var encPunctChars = []byte{
	59, 60, 62, 64, 91, 92, 93, 95, 96, 126, 33, 13, 9, 44, 58,
	10, 45, 46, 36, 47, 34, 124, 42, 40, 41, 63, 123, 125, 39, 0,
}

var (
	mixedCode [128]int
	punctCode [128]int
)

func init() {
	for i := range mixedCode {
		mixedCode[i] = -1
	}
	for i, b := range encMixedChars {
		if b > 0 {
			mixedCode[b] = i
		}
	}
	for i := range punctCode {
		punctCode[i] = -1
	}
	for i, b := range encPunctChars {
		if b > 0 {
			punctCode[b] = i
		}
	}
}

// encodeHighLevel turns the message into data codewords, returned as runes
// of a string per the annex P algorithm. ECI and custom charsets are not
// produced.
func encodeHighLevel(msg string, compaction Compaction) (string, error) {
	if len(msg) == 0 {
		return "", fmt.Errorf("empty message: %w", gridscan.ErrBadInput)
	}

	if compaction == CompactionText {
		for i, ch := range msg {
			if ch > 127 {
				return "", fmt.Errorf("%w: character %q at %d not text-encodable", gridscan.ErrWriter, ch, i)
			}
		}
	}
	if compaction == CompactionAuto || compaction == CompactionByte {
		for i, ch := range msg {
			if ch > 255 {
				return "", fmt.Errorf("%w: character %q at %d outside Latin-1", gridscan.ErrWriter, ch, i)
			}
		}
	}

	var sb strings.Builder
	sb.Grow(len(msg))
	msgLen := len(msg)
	p := 0
	textSub := encSubAlpha

	switch compaction {
	case CompactionText:
		encodeTextRun(msg, p, msgLen, &sb, textSub)
	case CompactionByte:
		data := []byte(msg)
		encodeByteRun(data, 0, len(data), byteModeContext, &sb)
	case CompactionNumeric:
		sb.WriteRune(rune(latchNumeric))
		encodeNumericRun(msg, p, msgLen, &sb)
	default:
		mode := textModeContext
		for p < msgLen {
			digits := consecutiveDigits(msg, p)
			if digits >= 13 {
				sb.WriteRune(rune(latchNumeric))
				mode = numericModeContext
				textSub = encSubAlpha
				encodeNumericRun(msg, p, digits, &sb)
				p += digits
				continue
			}
			textChars := consecutiveText(msg, p)
			if textChars >= 5 || digits == msgLen {
				if mode != textModeContext {
					sb.WriteRune(rune(latchText))
					mode = textModeContext
					textSub = encSubAlpha
				}
				textSub = encodeTextRun(msg, p, textChars, &sb, textSub)
				p += textChars
				continue
			}
			binaryChars := consecutiveBinary(msg, p)
			if binaryChars == 0 {
				binaryChars = 1
			}
			data := []byte(msg[p : p+binaryChars])
			if len(data) == 1 && mode == textModeContext {
				encodeByteRun(data, 0, 1, textModeContext, &sb)
			} else {
				encodeByteRun(data, 0, len(data), mode, &sb)
				mode = byteModeContext
				textSub = encSubAlpha
			}
			p += binaryChars
		}
	}
	return sb.String(), nil
}

// Encoding mode context while walking the message.
const (
	textModeContext = iota
	byteModeContext
	numericModeContext
)

// encodeTextRun emits count characters of text compaction, returning the
// ending sub-mode.
func encodeTextRun(msg string, startpos, count int, sb *strings.Builder, initialSub int) int {
	var tmp strings.Builder
	tmp.Grow(count)
	submode := initialSub
	idx := 0

	for {
		ch := msg[startpos+idx]
		switch submode {
		case encSubAlpha:
			switch {
			case isAlphaUpper(ch):
				if ch == ' ' {
					tmp.WriteRune(26)
				} else {
					tmp.WriteRune(rune(ch - 'A'))
				}
			case isAlphaLower(ch):
				submode = encSubLower
				tmp.WriteRune(27)
				continue
			case isMixedChar(ch):
				submode = encSubMixed
				tmp.WriteRune(28)
				continue
			default:
				tmp.WriteRune(29)
				tmp.WriteRune(rune(punctCode[ch]))
			}
		case encSubLower:
			switch {
			case isAlphaLower(ch):
				if ch == ' ' {
					tmp.WriteRune(26)
				} else {
					tmp.WriteRune(rune(ch - 'a'))
				}
			case isAlphaUpper(ch):
				tmp.WriteRune(27)
				tmp.WriteRune(rune(ch - 'A'))
			case isMixedChar(ch):
				submode = encSubMixed
				tmp.WriteRune(28)
				continue
			default:
				tmp.WriteRune(29)
				tmp.WriteRune(rune(punctCode[ch]))
			}
		case encSubMixed:
			switch {
			case isMixedChar(ch):
				tmp.WriteRune(rune(mixedCode[ch]))
			case isAlphaUpper(ch):
				submode = encSubAlpha
				tmp.WriteRune(28)
				continue
			case isAlphaLower(ch):
				submode = encSubLower
				tmp.WriteRune(27)
				continue
			default:
				if startpos+idx+1 < count && isPunctChar(msg[startpos+idx+1]) {
					submode = encSubPunct
					tmp.WriteRune(25)
					continue
				}
				tmp.WriteRune(29)
				tmp.WriteRune(rune(punctCode[ch]))
			}
		default: // encSubPunct
			if isPunctChar(ch) {
				tmp.WriteRune(rune(punctCode[ch]))
			} else {
				submode = encSubAlpha
				tmp.WriteRune(29)
				continue
			}
		}
		idx++
		if idx >= count {
			break
		}
	}

	// Pack sub-mode code pairs into codewords.
	values := []rune(tmp.String())
	var h rune
	for i, v := range values {
		if i%2 != 0 {
			h = h*30 + v
			sb.WriteRune(h)
		} else {
			h = v
		}
	}
	if len(values)%2 != 0 {
		sb.WriteRune(h*30 + 29)
	}
	return submode
}

// encodeByteRun emits count bytes of byte compaction; six-byte groups pack
// into five codewords.
func encodeByteRun(data []byte, startpos, count, startmode int, sb *strings.Builder) {
	if count == 1 && startmode == textModeContext {
		sb.WriteRune(rune(shiftByte))
	} else if count%6 == 0 {
		sb.WriteRune(rune(latchByteFull))
	} else {
		sb.WriteRune(rune(latchBytePadded))
	}

	idx := startpos
	if count >= 6 {
		chars := make([]rune, 5)
		for startpos+count-idx >= 6 {
			var t int64
			for i := 0; i < 6; i++ {
				t = (t << 8) + int64(data[idx+i])
			}
			for i := 0; i < 5; i++ {
				chars[i] = rune(t % 900)
				t /= 900
			}
			for i := len(chars) - 1; i >= 0; i-- {
				sb.WriteRune(chars[i])
			}
			idx += 6
		}
	}
	for i := idx; i < startpos+count; i++ {
		sb.WriteRune(rune(data[i]))
	}
}

// encodeNumericRun emits digit runs in base-900 groups of up to 44 digits.
func encodeNumericRun(msg string, startpos, count int, sb *strings.Builder) {
	idx := 0
	num900 := big.NewInt(900)
	num0 := big.NewInt(0)
	for idx < count {
		length := 44
		if count-idx < 44 {
			length = count - idx
		}
		part := "1" + msg[startpos+idx:startpos+idx+length]
		value := new(big.Int)
		value.SetString(part, 10)

		group := make([]rune, 0, length/3+1)
		mod := new(big.Int)
		for {
			value.DivMod(value, num900, mod)
			group = append(group, rune(mod.Int64()))
			if value.Cmp(num0) == 0 {
				break
			}
		}
		for i := len(group) - 1; i >= 0; i-- {
			sb.WriteRune(group[i])
		}
		idx += length
	}
}

func isDigitChar(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isAlphaUpper(ch byte) bool { return ch == ' ' || (ch >= 'A' && ch <= 'Z') }
func isAlphaLower(ch byte) bool { return ch == ' ' || (ch >= 'a' && ch <= 'z') }
func isMixedChar(ch byte) bool  { return mixedCode[ch] != -1 }
func isPunctChar(ch byte) bool  { return punctCode[ch] != -1 }

func isTextChar(ch byte) bool {
	return ch == '\t' || ch == '\n' || ch == '\r' || (ch >= 32 && ch <= 126)
}

func consecutiveDigits(msg string, startpos int) int {
	count := 0
	for idx := startpos; idx < len(msg) && isDigitChar(msg[idx]); idx++ {
		count++
	}
	return count
}

func consecutiveText(msg string, startpos int) int {
	idx := startpos
	for idx < len(msg) {
		numericCount := 0
		for numericCount < 13 && idx < len(msg) && isDigitChar(msg[idx]) {
			numericCount++
			idx++
		}
		if numericCount >= 13 {
			return idx - startpos - numericCount
		}
		if numericCount > 0 {
			continue
		}
		if !isTextChar(msg[idx]) {
			break
		}
		idx++
	}
	return idx - startpos
}

func consecutiveBinary(msg string, startpos int) int {
	idx := startpos
	for idx < len(msg) {
		numericCount := 0
		i := idx
		for numericCount < 13 && isDigitChar(msg[i]) {
			numericCount++
			i = idx + numericCount
			if i >= len(msg) {
				break
			}
		}
		if numericCount >= 13 {
			return idx - startpos
		}
		idx++
	}
	return idx - startpos
}
