package pdf417

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/internal"
)

// Text compaction sub-modes.
type textSubMode int

const (
	subModeAlpha textSubMode = iota
	subModeLower
	subModeMixed
	subModePunct
	subModeAlphaShift
	subModePunctShift
)

// Mode latches and control codewords.
const (
	latchText        = 900
	latchBytePadded  = 901
	latchNumeric     = 902
	shiftByte        = 913
	macroTerminator  = 922
	macroOptional    = 923
	latchByteFull    = 924
	eciUserDefined   = 925
	eciGeneral       = 926
	eciCharset       = 927
	macroControl     = 928
	maxNumericGroup  = 15
	macroIndexLength = 2
)

// Macro optional field designators.
const (
	macroFieldFileName = iota
	macroFieldSegmentCount
	macroFieldTimestamp
	macroFieldSender
	macroFieldAddressee
	macroFieldFileSize
	macroFieldChecksum
)

// Sub-mode codes shared across the text tables.
const (
	codePL  = 25
	codeLL  = 27
	codeAS  = 27
	codeML  = 28
	codeAL  = 28
	codePS  = 29
	codePAL = 29
)

var punctTable = []byte(";<>@[\\]_`~!\r\t,:\n-.$/\"|*()?{}'")
var mixedTable = []byte("0123456789&\r\t,:#-.$/+%*=^")

// exp900 holds powers of 900 for numeric compaction.
var exp900 [16]*big.Int

func init() {
	exp900[0] = big.NewInt(1)
	exp900[1] = big.NewInt(900)
	for i := 2; i < len(exp900); i++ {
		exp900[i] = new(big.Int).Mul(exp900[i-1], exp900[1])
	}
}

// Metadata carries the Macro PDF417 control block contents.
type Metadata struct {
	SegmentIndex int
	FileID       string
	OptionalData []int
	LastSegment  bool
	SegmentCount int
	FileName     string
	Sender       string
	Addressee    string
	Timestamp    int64
	FileSize     int64
	Checksum     int
}

// interpretCodewords walks the corrected codeword stream through the
// compaction modes.
func interpretCodewords(codewords []int, ecLevel string) (*internal.DecoderResult, error) {
	var text strings.Builder
	text.Grow(len(codewords) * 2)

	codeIndex, err := textCompaction(codewords, 1, &text)
	if err != nil {
		return nil, err
	}
	metadata := &Metadata{}
	for codeIndex < codewords[0] {
		code := codewords[codeIndex]
		codeIndex++
		switch code {
		case latchText:
			codeIndex, err = textCompaction(codewords, codeIndex, &text)
		case latchBytePadded, latchByteFull:
			codeIndex, err = byteCompaction(code, codewords, codeIndex, &text)
		case shiftByte:
			text.WriteByte(byte(codewords[codeIndex]))
			codeIndex++
		case latchNumeric:
			codeIndex, err = numericCompaction(codewords, codeIndex, &text)
		case eciCharset:
			codeIndex++
		case eciGeneral:
			codeIndex += 2
		case eciUserDefined:
			codeIndex++
		case macroControl:
			codeIndex, err = decodeMacroBlock(codewords, codeIndex, metadata)
		case macroOptional, macroTerminator:
			return nil, gridscan.ErrFormat
		default:
			// Barcodes in the wild sometimes drop the leading latch.
			codeIndex--
			codeIndex, err = textCompaction(codewords, codeIndex, &text)
		}
		if err != nil {
			return nil, err
		}
	}
	if text.Len() == 0 && metadata.FileID == "" {
		return nil, gridscan.ErrFormat
	}
	result := internal.NewDecoderResult(nil, text.String(), nil, ecLevel)
	result.Extra = metadata
	return result, nil
}

func decodeMacroBlock(codewords []int, codeIndex int, metadata *Metadata) (int, error) {
	if codeIndex+macroIndexLength > codewords[0] {
		return 0, gridscan.ErrFormat
	}
	segmentIndexCodewords := make([]int, macroIndexLength)
	for i := 0; i < macroIndexLength; i++ {
		segmentIndexCodewords[i] = codewords[codeIndex]
		codeIndex++
	}
	segmentIndexString, err := base900ToBase10(segmentIndexCodewords, macroIndexLength)
	if err != nil {
		return 0, err
	}
	if segmentIndexString == "" {
		metadata.SegmentIndex = 0
	} else {
		value, err := strconv.Atoi(segmentIndexString)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		metadata.SegmentIndex = value
	}

	// The file id is a run of base-900 values, each printed zero-padded.
	var fileID strings.Builder
	for codeIndex < codewords[0] && codeIndex < len(codewords) &&
		codewords[codeIndex] != macroTerminator &&
		codewords[codeIndex] != macroOptional {
		fmt.Fprintf(&fileID, "%03d", codewords[codeIndex])
		codeIndex++
	}
	if fileID.Len() == 0 {
		return 0, gridscan.ErrFormat
	}
	metadata.FileID = fileID.String()

	optionalFieldsStart := -1
	if codeIndex < len(codewords) && codewords[codeIndex] == macroOptional {
		optionalFieldsStart = codeIndex + 1
	}

	for codeIndex < codewords[0] {
		switch codewords[codeIndex] {
		case macroOptional:
			codeIndex++
			var err error
			codeIndex, err = decodeMacroOptionalField(codewords, codeIndex, metadata)
			if err != nil {
				return 0, err
			}
		case macroTerminator:
			codeIndex++
			metadata.LastSegment = true
		default:
			return 0, gridscan.ErrFormat
		}
	}

	if optionalFieldsStart != -1 {
		optionalFieldsLength := codeIndex - optionalFieldsStart
		if metadata.LastSegment {
			optionalFieldsLength--
		}
		if optionalFieldsLength > 0 {
			metadata.OptionalData = make([]int, optionalFieldsLength)
			copy(metadata.OptionalData, codewords[optionalFieldsStart:optionalFieldsStart+optionalFieldsLength])
		}
	}
	return codeIndex, nil
}

func decodeMacroOptionalField(codewords []int, codeIndex int, metadata *Metadata) (int, error) {
	field := codewords[codeIndex]
	readText := func() (string, int, error) {
		var sb strings.Builder
		next, err := textCompaction(codewords, codeIndex+1, &sb)
		return sb.String(), next, err
	}
	readNumeric := func() (string, int, error) {
		var sb strings.Builder
		next, err := numericCompaction(codewords, codeIndex+1, &sb)
		return sb.String(), next, err
	}

	switch field {
	case macroFieldFileName:
		value, next, err := readText()
		if err != nil {
			return 0, err
		}
		metadata.FileName = value
		return next, nil
	case macroFieldSender:
		value, next, err := readText()
		if err != nil {
			return 0, err
		}
		metadata.Sender = value
		return next, nil
	case macroFieldAddressee:
		value, next, err := readText()
		if err != nil {
			return 0, err
		}
		metadata.Addressee = value
		return next, nil
	case macroFieldSegmentCount:
		value, next, err := readNumeric()
		if err != nil {
			return 0, err
		}
		count, err := strconv.Atoi(value)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		metadata.SegmentCount = count
		return next, nil
	case macroFieldTimestamp:
		value, next, err := readNumeric()
		if err != nil {
			return 0, err
		}
		ts, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		metadata.Timestamp = ts
		return next, nil
	case macroFieldChecksum:
		value, next, err := readNumeric()
		if err != nil {
			return 0, err
		}
		checksum, err := strconv.Atoi(value)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		metadata.Checksum = checksum
		return next, nil
	case macroFieldFileSize:
		value, next, err := readNumeric()
		if err != nil {
			return 0, err
		}
		size, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, gridscan.ErrFormat
		}
		metadata.FileSize = size
		return next, nil
	}
	return 0, gridscan.ErrFormat
}

// textCompaction gathers sub-mode value pairs until another latch appears.
func textCompaction(codewords []int, codeIndex int, text *strings.Builder) (int, error) {
	size := (codewords[0] - codeIndex) * 2
	if size < 0 {
		size = 0
	}
	textValues := make([]int, size)
	byteValues := make([]int, size)

	index := 0
	end := false
	subMode := subModeAlpha
	for codeIndex < codewords[0] && !end {
		code := codewords[codeIndex]
		codeIndex++
		if code < latchText {
			textValues[index] = code / 30
			textValues[index+1] = code % 30
			index += 2
			continue
		}
		switch code {
		case latchText:
			textValues[index] = latchText
			index++
		case latchBytePadded, latchByteFull, latchNumeric,
			macroControl, macroOptional, macroTerminator:
			codeIndex--
			end = true
		case shiftByte:
			textValues[index] = shiftByte
			byteValues[index] = codewords[codeIndex]
			codeIndex++
			index++
		case eciCharset:
			subMode = renderText(textValues, byteValues, index, text, subMode)
			codeIndex++
			if codeIndex > codewords[0] {
				return 0, gridscan.ErrFormat
			}
			size = (codewords[0] - codeIndex) * 2
			if size < 0 {
				size = 0
			}
			textValues = make([]int, size)
			byteValues = make([]int, size)
			index = 0
		}
	}
	renderText(textValues, byteValues, index, text, subMode)
	return codeIndex, nil
}

// renderText replays the sub-mode state machine over gathered values.
func renderText(textValues, byteValues []int, length int, text *strings.Builder, startMode textSubMode) textSubMode {
	subMode := startMode
	priorToShiftMode := startMode
	latchedMode := startMode
	for i := 0; i < length; i++ {
		value := textValues[i]
		var ch byte
		switch subMode {
		case subModeAlpha:
			if value < 26 {
				ch = byte('A' + value)
			} else {
				switch value {
				case 26:
					ch = ' '
				case codeLL:
					subMode = subModeLower
					latchedMode = subMode
				case codeML:
					subMode = subModeMixed
					latchedMode = subMode
				case codePS:
					priorToShiftMode = subMode
					subMode = subModePunctShift
				case shiftByte:
					text.WriteByte(byte(byteValues[i]))
				case latchText:
					subMode = subModeAlpha
					latchedMode = subMode
				}
			}

		case subModeLower:
			if value < 26 {
				ch = byte('a' + value)
			} else {
				switch value {
				case 26:
					ch = ' '
				case codeAS:
					priorToShiftMode = subMode
					subMode = subModeAlphaShift
				case codeML:
					subMode = subModeMixed
					latchedMode = subMode
				case codePS:
					priorToShiftMode = subMode
					subMode = subModePunctShift
				case shiftByte:
					text.WriteByte(byte(byteValues[i]))
				case latchText:
					subMode = subModeAlpha
					latchedMode = subMode
				}
			}

		case subModeMixed:
			if value < codePL {
				ch = mixedTable[value]
			} else {
				switch value {
				case codePL:
					subMode = subModePunct
					latchedMode = subMode
				case 26:
					ch = ' '
				case codeLL:
					subMode = subModeLower
					latchedMode = subMode
				case codeAL, latchText:
					subMode = subModeAlpha
					latchedMode = subMode
				case codePS:
					priorToShiftMode = subMode
					subMode = subModePunctShift
				case shiftByte:
					text.WriteByte(byte(byteValues[i]))
				}
			}

		case subModePunct:
			if value < codePAL {
				ch = punctTable[value]
			} else {
				switch value {
				case codePAL, latchText:
					subMode = subModeAlpha
					latchedMode = subMode
				case shiftByte:
					text.WriteByte(byte(byteValues[i]))
				}
			}

		case subModeAlphaShift:
			subMode = priorToShiftMode
			if value < 26 {
				ch = byte('A' + value)
			} else {
				switch value {
				case 26:
					ch = ' '
				case latchText:
					subMode = subModeAlpha
				}
			}

		case subModePunctShift:
			subMode = priorToShiftMode
			if value < codePAL {
				ch = punctTable[value]
			} else {
				switch value {
				case codePAL, latchText:
					subMode = subModeAlpha
				case shiftByte:
					text.WriteByte(byte(byteValues[i]))
				}
			}
		}
		if ch != 0 {
			text.WriteByte(ch)
		}
	}
	return latchedMode
}

// byteCompaction unpacks groups of five codewords into six bytes; a partial
// trailing group stays one byte per codeword.
func byteCompaction(mode int, codewords []int, codeIndex int, text *strings.Builder) (int, error) {
	end := false
	for codeIndex < codewords[0] && !end {
		for codeIndex < codewords[0] && codewords[codeIndex] == eciCharset {
			codeIndex += 2
		}
		if codeIndex >= codewords[0] || codewords[codeIndex] >= latchText {
			end = true
			continue
		}
		var value int64
		count := 0
		for {
			value = 900*value + int64(codewords[codeIndex])
			codeIndex++
			count++
			if count >= 5 || codeIndex >= codewords[0] || codewords[codeIndex] >= latchText {
				break
			}
		}
		if count == 5 && (mode == latchByteFull ||
			(codeIndex < codewords[0] && codewords[codeIndex] < latchText)) {
			for i := 0; i < 6; i++ {
				text.WriteByte(byte(value >> uint(8*(5-i))))
			}
		} else {
			codeIndex -= count
			for codeIndex < codewords[0] && !end {
				code := codewords[codeIndex]
				codeIndex++
				switch {
				case code < latchText:
					text.WriteByte(byte(code))
				case code == eciCharset:
					codeIndex++
				default:
					codeIndex--
					end = true
				}
			}
		}
	}
	return codeIndex, nil
}

func numericCompaction(codewords []int, codeIndex int, text *strings.Builder) (int, error) {
	count := 0
	end := false
	group := make([]int, maxNumericGroup)
	for codeIndex < codewords[0] && !end {
		code := codewords[codeIndex]
		codeIndex++
		if codeIndex == codewords[0] {
			end = true
		}
		if code < latchText {
			group[count] = code
			count++
		} else {
			switch code {
			case latchText, latchBytePadded, latchByteFull,
				macroControl, macroOptional, macroTerminator, eciCharset:
				codeIndex--
				end = true
			}
		}
		if (count%maxNumericGroup == 0 || code == latchNumeric || end) && count > 0 {
			s, err := base900ToBase10(group, count)
			if err != nil {
				return 0, err
			}
			text.WriteString(s)
			count = 0
		}
	}
	return codeIndex, nil
}

// base900ToBase10 decodes a numeric compaction group; the result always
// begins with a sentinel 1 digit.
func base900ToBase10(codewords []int, count int) (string, error) {
	result := new(big.Int)
	for i := 0; i < count; i++ {
		term := new(big.Int).Mul(exp900[count-i-1], big.NewInt(int64(codewords[i])))
		result.Add(result, term)
	}
	s := result.String()
	if len(s) == 0 || s[0] != '1' {
		return "", gridscan.ErrFormat
	}
	return s[1:], nil
}
