package oned

import (
	"fmt"
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// The GS1 general-purpose data stream inside an RSS Expanded symbol: a
// header selects a compressed layout, then numeric/alpha/ISO-646 blocks
// carry AI fields.

// parseExpandedInformation interprets the packed information bits.
func parseExpandedInformation(information *bitvec.Vector) (string, error) {
	gd := &gs1StreamDecoder{information: information}

	if information.Bit(1) {
		return decodeAI01AndOtherAIs(gd)
	}
	if !information.Bit(2) {
		return decodeAnyAI(gd)
	}

	switch fieldBits(information, 1, 4) {
	case 4:
		return decodeAI013103(gd)
	case 5:
		return decodeAI01320x(gd)
	}
	switch fieldBits(information, 1, 5) {
	case 12:
		return decodeAI01392x(gd)
	case 13:
		return decodeAI01393x(gd)
	}
	switch fieldBits(information, 1, 7) {
	case 56:
		return decodeAI013x0x1x(gd, "310", "11")
	case 57:
		return decodeAI013x0x1x(gd, "320", "11")
	case 58:
		return decodeAI013x0x1x(gd, "310", "13")
	case 59:
		return decodeAI013x0x1x(gd, "320", "13")
	case 60:
		return decodeAI013x0x1x(gd, "310", "15")
	case 61:
		return decodeAI013x0x1x(gd, "320", "15")
	case 62:
		return decodeAI013x0x1x(gd, "310", "17")
	case 63:
		return decodeAI013x0x1x(gd, "320", "17")
	}
	return "", gridscan.ErrFormat
}

// --- general-purpose stream decoder ---

const (
	gs1StateNumeric = iota
	gs1StateAlpha
	gs1StateISO646
)

type gs1StreamDecoder struct {
	information *bitvec.Vector
	position    int
	encoding    int
	buf         strings.Builder
}

func (gd *gs1StreamDecoder) decodeAllCodes(buf *strings.Builder, initialPosition int) (string, error) {
	currentPosition := initialPosition
	var remaining *string
	for {
		chunk, newPosition, hasRemaining, remainingValue, err := gd.decodeGeneralPurposeField(currentPosition, remaining)
		if err != nil {
			return "", err
		}
		parsed, err := splitAIFields(chunk)
		if err != nil {
			return "", err
		}
		if parsed != "" {
			buf.WriteString(parsed)
		}
		if hasRemaining {
			s := fmt.Sprintf("%d", remainingValue)
			remaining = &s
		} else {
			remaining = nil
		}
		if currentPosition == newPosition {
			break
		}
		currentPosition = newPosition
	}
	return buf.String(), nil
}

func (gd *gs1StreamDecoder) decodeGeneralPurposeField(pos int, remaining *string) (string, int, bool, int, error) {
	gd.buf.Reset()
	if remaining != nil {
		gd.buf.WriteString(*remaining)
	}
	gd.position = pos
	// The encoding state deliberately persists across fields.

	info, err := gd.parseBlocks()
	if err != nil {
		return "", 0, false, 0, err
	}
	if info != nil && info.hasRemaining {
		return gd.buf.String(), gd.position, true, info.remainingValue, nil
	}
	return gd.buf.String(), gd.position, false, 0, nil
}

type gs1BlockInfo struct {
	hasRemaining   bool
	remainingValue int
}

func (gd *gs1StreamDecoder) parseBlocks() (*gs1BlockInfo, error) {
	var result *gs1BlockInfo
	for {
		initialPosition := gd.position
		var finished bool
		var err error
		switch gd.encoding {
		case gs1StateAlpha:
			result, finished, err = gd.parseAlphaBlock()
		case gs1StateISO646:
			result, finished, err = gd.parseISO646Block()
		default:
			result, finished, err = gd.parseNumericBlock()
		}
		if err != nil {
			return nil, err
		}
		if finished || initialPosition == gd.position {
			break
		}
	}
	return result, nil
}

func (gd *gs1StreamDecoder) parseNumericBlock() (*gs1BlockInfo, bool, error) {
	for gd.stillNumeric() {
		newPos, firstDigit, secondDigit, err := gd.decodeNumericPair()
		if err != nil {
			return nil, false, err
		}
		gd.position = newPos

		if firstDigit == 10 { // FNC1
			if secondDigit == 10 {
				return &gs1BlockInfo{}, true, nil
			}
			return &gs1BlockInfo{hasRemaining: true, remainingValue: secondDigit}, true, nil
		}
		gd.buf.WriteByte(byte('0' + firstDigit))
		if secondDigit == 10 {
			return &gs1BlockInfo{}, true, nil
		}
		gd.buf.WriteByte(byte('0' + secondDigit))
	}
	if gd.numericToAlphaLatch() {
		gd.encoding = gs1StateAlpha
		gd.position += 4
	}
	return nil, false, nil
}

func (gd *gs1StreamDecoder) parseAlphaBlock() (*gs1BlockInfo, bool, error) {
	for gd.stillAlpha() {
		newPos, ch, isFNC1 := gd.decodeAlphanumeric()
		gd.position = newPos
		if isFNC1 {
			return &gs1BlockInfo{}, true, nil
		}
		gd.buf.WriteByte(ch)
	}
	switch {
	case gd.alphaOr646ToNumericLatch():
		gd.position += 3
		gd.encoding = gs1StateNumeric
	case gd.alpha646SwapLatch():
		if gd.position+5 < gd.information.Len() {
			gd.position += 5
		} else {
			gd.position = gd.information.Len()
		}
		gd.encoding = gs1StateISO646
	}
	return nil, false, nil
}

func (gd *gs1StreamDecoder) parseISO646Block() (*gs1BlockInfo, bool, error) {
	for gd.stillISO646() {
		newPos, ch, isFNC1, err := gd.decodeISO646()
		if err != nil {
			return nil, false, err
		}
		gd.position = newPos
		if isFNC1 {
			return &gs1BlockInfo{}, true, nil
		}
		gd.buf.WriteByte(ch)
	}
	switch {
	case gd.alphaOr646ToNumericLatch():
		gd.position += 3
		gd.encoding = gs1StateNumeric
	case gd.alpha646SwapLatch():
		if gd.position+5 < gd.information.Len() {
			gd.position += 5
		} else {
			gd.position = gd.information.Len()
		}
		gd.encoding = gs1StateAlpha
	}
	return nil, false, nil
}

func (gd *gs1StreamDecoder) stillNumeric() bool {
	pos := gd.position
	if pos+7 > gd.information.Len() {
		return pos+4 <= gd.information.Len()
	}
	for i := pos; i < pos+3; i++ {
		if gd.information.Bit(i) {
			return true
		}
	}
	return gd.information.Bit(pos + 3)
}

func (gd *gs1StreamDecoder) decodeNumericPair() (newPos, firstDigit, secondDigit int, err error) {
	pos := gd.position
	if pos+7 > gd.information.Len() {
		numeric := gd.field(pos, 4)
		if numeric == 0 {
			return gd.information.Len(), 10, 10, nil
		}
		return gd.information.Len(), numeric - 1, 10, nil
	}
	numeric := gd.field(pos, 7)
	digit1 := (numeric - 8) / 11
	digit2 := (numeric - 8) % 11
	if digit1 < 0 || digit1 > 10 || digit2 < 0 || digit2 > 10 {
		return 0, 0, 0, gridscan.ErrFormat
	}
	return pos + 7, digit1, digit2, nil
}

func (gd *gs1StreamDecoder) stillAlpha() bool {
	pos := gd.position
	if pos+5 > gd.information.Len() {
		return false
	}
	fiveBits := gd.field(pos, 5)
	if fiveBits >= 5 && fiveBits < 16 {
		return true
	}
	if pos+6 > gd.information.Len() {
		return false
	}
	sixBits := gd.field(pos, 6)
	return sixBits >= 16 && sixBits < 63
}

func (gd *gs1StreamDecoder) decodeAlphanumeric() (newPos int, ch byte, isFNC1 bool) {
	pos := gd.position
	fiveBits := gd.field(pos, 5)
	if fiveBits == 15 {
		return pos + 5, '$', true
	}
	if fiveBits >= 5 && fiveBits < 15 {
		return pos + 5, byte('0' + fiveBits - 5), false
	}
	sixBits := gd.field(pos, 6)
	if sixBits >= 32 && sixBits < 58 {
		return pos + 6, byte(sixBits + 33), false
	}
	switch sixBits {
	case 58:
		return pos + 6, '*', false
	case 59:
		return pos + 6, ',', false
	case 60:
		return pos + 6, '-', false
	case 61:
		return pos + 6, '.', false
	case 62:
		return pos + 6, '/', false
	}
	return pos + 6, '?', false
}

func (gd *gs1StreamDecoder) stillISO646() bool {
	pos := gd.position
	if pos+5 > gd.information.Len() {
		return false
	}
	fiveBits := gd.field(pos, 5)
	if fiveBits >= 5 && fiveBits < 16 {
		return true
	}
	if pos+7 > gd.information.Len() {
		return false
	}
	sevenBits := gd.field(pos, 7)
	if sevenBits >= 64 && sevenBits < 116 {
		return true
	}
	if pos+8 > gd.information.Len() {
		return false
	}
	eightBits := gd.field(pos, 8)
	return eightBits >= 232 && eightBits < 253
}

func (gd *gs1StreamDecoder) decodeISO646() (newPos int, ch byte, isFNC1 bool, err error) {
	pos := gd.position
	fiveBits := gd.field(pos, 5)
	if fiveBits == 15 {
		return pos + 5, '$', true, nil
	}
	if fiveBits >= 5 && fiveBits < 15 {
		return pos + 5, byte('0' + fiveBits - 5), false, nil
	}
	sevenBits := gd.field(pos, 7)
	if sevenBits >= 64 && sevenBits < 90 {
		return pos + 7, byte(sevenBits + 1), false, nil
	}
	if sevenBits >= 90 && sevenBits < 116 {
		return pos + 7, byte(sevenBits + 7), false, nil
	}
	var c byte
	switch gd.field(pos, 8) {
	case 232:
		c = '!'
	case 233:
		c = '"'
	case 234:
		c = '%'
	case 235:
		c = '&'
	case 236:
		c = '\''
	case 237:
		c = '('
	case 238:
		c = ')'
	case 239:
		c = '*'
	case 240:
		c = '+'
	case 241:
		c = ','
	case 242:
		c = '-'
	case 243:
		c = '.'
	case 244:
		c = '/'
	case 245:
		c = ':'
	case 246:
		c = ';'
	case 247:
		c = '<'
	case 248:
		c = '='
	case 249:
		c = '>'
	case 250:
		c = '?'
	case 251:
		c = '_'
	case 252:
		c = ' '
	default:
		return 0, 0, false, gridscan.ErrFormat
	}
	return pos + 8, c, false, nil
}

func (gd *gs1StreamDecoder) alpha646SwapLatch() bool {
	pos := gd.position
	if pos+1 > gd.information.Len() {
		return false
	}
	for i := 0; i < 5 && i+pos < gd.information.Len(); i++ {
		if i == 2 {
			if !gd.information.Bit(pos + 2) {
				return false
			}
		} else if gd.information.Bit(pos + i) {
			return false
		}
	}
	return true
}

func (gd *gs1StreamDecoder) alphaOr646ToNumericLatch() bool {
	pos := gd.position
	if pos+3 > gd.information.Len() {
		return false
	}
	for i := pos; i < pos+3; i++ {
		if gd.information.Bit(i) {
			return false
		}
	}
	return true
}

func (gd *gs1StreamDecoder) numericToAlphaLatch() bool {
	pos := gd.position
	if pos+1 > gd.information.Len() {
		return false
	}
	for i := 0; i < 4 && i+pos < gd.information.Len(); i++ {
		if gd.information.Bit(pos + i) {
			return false
		}
	}
	return true
}

func (gd *gs1StreamDecoder) field(pos, bits int) int {
	return fieldBits(gd.information, pos, bits)
}

func fieldBits(information *bitvec.Vector, pos, bits int) int {
	value := 0
	for i := 0; i < bits; i++ {
		if information.Bit(pos + i) {
			value |= 1 << uint(bits-i-1)
		}
	}
	return value
}

// --- compressed-layout AI decoders ---

const gtinBits = 40

func writeCompressedGTIN(gd *gs1StreamDecoder, buf *strings.Builder, currentPos int) {
	buf.WriteString("(01)")
	initialPosition := buf.Len()
	buf.WriteByte('9')
	writeCompressedGTINDigits(gd, buf, currentPos, initialPosition)
}

func writeCompressedGTINDigits(gd *gs1StreamDecoder, buf *strings.Builder, currentPos, initialBufferPosition int) {
	for i := 0; i < 4; i++ {
		block := gd.field(currentPos+10*i, 10)
		if block/100 == 0 {
			buf.WriteByte('0')
		}
		if block/10 == 0 {
			buf.WriteByte('0')
		}
		fmt.Fprintf(buf, "%d", block)
	}
	writeGTINCheckDigit(buf, initialBufferPosition)
}

func writeGTINCheckDigit(buf *strings.Builder, currentPos int) {
	s := buf.String()
	checkDigit := 0
	for i := 0; i < 13; i++ {
		digit := int(s[i+currentPos] - '0')
		if i&1 == 0 {
			checkDigit += 3 * digit
		} else {
			checkDigit += digit
		}
	}
	checkDigit = 10 - checkDigit%10
	if checkDigit == 10 {
		checkDigit = 0
	}
	buf.WriteByte(byte('0' + checkDigit))
}

func writeCompressedWeight(gd *gs1StreamDecoder, buf *strings.Builder, currentPos, weightBits int,
	writeAI func(*strings.Builder, int), adjustWeight func(int) int) {
	rawWeight := gd.field(currentPos, weightBits)
	writeAI(buf, rawWeight)
	weight := adjustWeight(rawWeight)
	divisor := 100000
	for i := 0; i < 5; i++ {
		if weight/divisor == 0 {
			buf.WriteByte('0')
		}
		divisor /= 10
	}
	fmt.Fprintf(buf, "%d", weight)
}

func decodeAI01AndOtherAIs(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 1 + 1 + 2
	var buf strings.Builder
	buf.WriteString("(01)")
	initialGTINPosition := buf.Len()
	firstGTINDigit := gd.field(headerBits, 4)
	buf.WriteByte(byte('0' + firstGTINDigit))
	writeCompressedGTINDigits(gd, &buf, headerBits+4, initialGTINPosition)
	return gd.decodeAllCodes(&buf, headerBits+44)
}

func decodeAnyAI(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 2 + 1 + 2
	var buf strings.Builder
	return gd.decodeAllCodes(&buf, headerBits)
}

func decodeAI013103(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 4 + 1
	const weightBits = 15
	if gd.information.Len() != headerBits+gtinBits+weightBits {
		return "", gridscan.ErrNotFound
	}
	var buf strings.Builder
	writeCompressedGTIN(gd, &buf, headerBits)
	writeCompressedWeight(gd, &buf, headerBits+gtinBits, weightBits,
		func(b *strings.Builder, weight int) { b.WriteString("(3103)") },
		func(weight int) int { return weight })
	return buf.String(), nil
}

func decodeAI01320x(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 4 + 1
	const weightBits = 15
	if gd.information.Len() != headerBits+gtinBits+weightBits {
		return "", gridscan.ErrNotFound
	}
	var buf strings.Builder
	writeCompressedGTIN(gd, &buf, headerBits)
	writeCompressedWeight(gd, &buf, headerBits+gtinBits, weightBits,
		func(b *strings.Builder, weight int) {
			if weight < 10000 {
				b.WriteString("(3202)")
			} else {
				b.WriteString("(3203)")
			}
		},
		func(weight int) int {
			if weight < 10000 {
				return weight
			}
			return weight - 10000
		})
	return buf.String(), nil
}

func decodeAI01392x(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 5 + 1 + 2
	const lastDigitBits = 2
	if gd.information.Len() < headerBits+gtinBits {
		return "", gridscan.ErrNotFound
	}
	var buf strings.Builder
	writeCompressedGTIN(gd, &buf, headerBits)
	lastAIDigit := gd.field(headerBits+gtinBits, lastDigitBits)
	fmt.Fprintf(&buf, "(392%d)", lastAIDigit)
	chunk, _, _, _, err := gd.decodeGeneralPurposeField(headerBits+gtinBits+lastDigitBits, nil)
	if err != nil {
		return "", err
	}
	buf.WriteString(chunk)
	return buf.String(), nil
}

func decodeAI01393x(gd *gs1StreamDecoder) (string, error) {
	const headerBits = 5 + 1 + 2
	const lastDigitBits = 2
	const currencyBits = 10
	if gd.information.Len() < headerBits+gtinBits {
		return "", gridscan.ErrNotFound
	}
	var buf strings.Builder
	writeCompressedGTIN(gd, &buf, headerBits)
	lastAIDigit := gd.field(headerBits+gtinBits, lastDigitBits)
	fmt.Fprintf(&buf, "(393%d)", lastAIDigit)
	currency := gd.field(headerBits+gtinBits+lastDigitBits, currencyBits)
	if currency/100 == 0 {
		buf.WriteByte('0')
	}
	if currency/10 == 0 {
		buf.WriteByte('0')
	}
	fmt.Fprintf(&buf, "%d", currency)
	chunk, _, _, _, err := gd.decodeGeneralPurposeField(headerBits+gtinBits+lastDigitBits+currencyBits, nil)
	if err != nil {
		return "", err
	}
	buf.WriteString(chunk)
	return buf.String(), nil
}

func decodeAI013x0x1x(gd *gs1StreamDecoder, firstAIDigits, dateCode string) (string, error) {
	const headerBits = 7 + 1
	const weightBits = 20
	const dateBits = 16
	if gd.information.Len() != headerBits+gtinBits+weightBits+dateBits {
		return "", gridscan.ErrNotFound
	}
	var buf strings.Builder
	writeCompressedGTIN(gd, &buf, headerBits)
	writeCompressedWeight(gd, &buf, headerBits+gtinBits, weightBits,
		func(b *strings.Builder, weight int) {
			fmt.Fprintf(b, "(%s%d)", firstAIDigits, weight/100000)
		},
		func(weight int) int { return weight % 100000 })
	writeCompressedDate(&buf, gd, headerBits+gtinBits+weightBits, dateCode)
	return buf.String(), nil
}

func writeCompressedDate(buf *strings.Builder, gd *gs1StreamDecoder, currentPos int, dateCode string) {
	numericDate := gd.field(currentPos, 16)
	if numericDate == 38400 {
		return
	}
	buf.WriteByte('(')
	buf.WriteString(dateCode)
	buf.WriteByte(')')

	day := numericDate % 32
	numericDate /= 32
	month := numericDate%12 + 1
	numericDate /= 12
	year := numericDate

	if year/10 == 0 {
		buf.WriteByte('0')
	}
	fmt.Fprintf(buf, "%d", year)
	if month/10 == 0 {
		buf.WriteByte('0')
	}
	fmt.Fprintf(buf, "%d", month)
	if day/10 == 0 {
		buf.WriteByte('0')
	}
	fmt.Fprintf(buf, "%d", day)
}

// --- AI field splitting ---

type aiLength struct {
	variable bool
	length   int
}

var (
	twoDigitAIs        map[string]aiLength
	threeDigitAIs      map[string]aiLength
	threeDigitPlusAIs  map[string]aiLength
	fourDigitAIs       map[string]aiLength
)

func init() {
	twoDigitAIs = map[string]aiLength{
		"00": {false, 18}, "01": {false, 14}, "02": {false, 14},
		"10": {true, 20}, "11": {false, 6}, "12": {false, 6},
		"13": {false, 6}, "15": {false, 6}, "16": {false, 6},
		"17": {false, 6}, "20": {false, 2}, "21": {true, 20},
		"22": {true, 29}, "30": {true, 8}, "37": {true, 8},
	}
	for i := 90; i <= 99; i++ {
		twoDigitAIs[fmt.Sprintf("%d", i)] = aiLength{true, 30}
	}

	threeDigitAIs = map[string]aiLength{
		"235": {true, 28}, "240": {true, 30}, "241": {true, 30},
		"242": {true, 6}, "243": {true, 20}, "250": {true, 30},
		"251": {true, 30}, "253": {true, 30}, "254": {true, 20},
		"255": {true, 25}, "400": {true, 30}, "401": {true, 30},
		"402": {false, 17}, "403": {true, 30},
		"410": {false, 13}, "411": {false, 13}, "412": {false, 13},
		"413": {false, 13}, "414": {false, 13}, "415": {false, 13},
		"416": {false, 13}, "417": {false, 13},
		"420": {true, 20}, "421": {true, 15}, "422": {false, 3},
		"423": {true, 15}, "424": {false, 3}, "425": {true, 15},
		"426": {false, 3}, "427": {true, 3},
		"710": {true, 20}, "711": {true, 20}, "712": {true, 20},
		"713": {true, 20}, "714": {true, 20}, "715": {true, 20},
	}

	threeDigitPlusAIs = map[string]aiLength{}
	for i := 310; i <= 316; i++ {
		threeDigitPlusAIs[fmt.Sprintf("%d", i)] = aiLength{false, 6}
	}
	for i := 320; i <= 337; i++ {
		threeDigitPlusAIs[fmt.Sprintf("%d", i)] = aiLength{false, 6}
	}
	for i := 340; i <= 357; i++ {
		threeDigitPlusAIs[fmt.Sprintf("%d", i)] = aiLength{false, 6}
	}
	for i := 360; i <= 369; i++ {
		threeDigitPlusAIs[fmt.Sprintf("%d", i)] = aiLength{false, 6}
	}
	threeDigitPlusAIs["390"] = aiLength{true, 15}
	threeDigitPlusAIs["391"] = aiLength{true, 18}
	threeDigitPlusAIs["392"] = aiLength{true, 15}
	threeDigitPlusAIs["393"] = aiLength{true, 18}
	threeDigitPlusAIs["394"] = aiLength{false, 4}
	threeDigitPlusAIs["395"] = aiLength{false, 6}
	threeDigitPlusAIs["703"] = aiLength{true, 30}
	threeDigitPlusAIs["723"] = aiLength{true, 30}

	fourDigitAIs = map[string]aiLength{
		"4300": {true, 35}, "4301": {true, 35}, "4302": {true, 70},
		"4303": {true, 70}, "4304": {true, 70}, "4305": {true, 70},
		"4306": {true, 70}, "4307": {false, 2}, "4308": {true, 30},
		"4309": {false, 20}, "4310": {true, 35}, "4311": {true, 35},
		"4312": {true, 70}, "4313": {true, 70}, "4314": {true, 70},
		"4315": {true, 70}, "4316": {true, 70}, "4317": {false, 2},
		"4318": {true, 20}, "4319": {true, 30}, "4320": {true, 35},
		"4321": {false, 1}, "4322": {false, 1}, "4323": {false, 1},
		"4324": {false, 10}, "4325": {false, 10}, "4326": {false, 6},
		"7001": {false, 13}, "7002": {true, 30}, "7003": {false, 10},
		"7004": {true, 4}, "7005": {true, 12}, "7006": {false, 6},
		"7007": {true, 12}, "7008": {true, 3}, "7009": {true, 10},
		"7010": {true, 2}, "7011": {true, 10},
		"7020": {true, 20}, "7021": {true, 20}, "7022": {true, 20},
		"7023": {true, 30}, "7040": {false, 4}, "7240": {true, 20},
		"8001": {false, 14}, "8002": {true, 20}, "8003": {true, 30},
		"8004": {true, 30}, "8005": {false, 6}, "8006": {false, 18},
		"8007": {true, 34}, "8008": {true, 12}, "8009": {true, 50},
		"8010": {true, 30}, "8011": {true, 12}, "8012": {true, 20},
		"8013": {true, 25}, "8017": {false, 18}, "8018": {false, 18},
		"8019": {true, 10}, "8020": {true, 25}, "8026": {false, 18},
		"8100": {false, 6}, "8101": {false, 10}, "8102": {false, 2},
		"8110": {true, 70}, "8111": {false, 4}, "8112": {true, 70},
		"8200": {true, 70},
	}
}

// splitAIFields breaks the raw character stream at AI boundaries and
// parenthesizes the identifiers.
func splitAIFields(rawInformation string) (string, error) {
	if rawInformation == "" {
		return "", nil
	}
	if len(rawInformation) < 2 {
		return "", gridscan.ErrNotFound
	}

	if dl, ok := twoDigitAIs[rawInformation[:2]]; ok {
		return splitOneAI(2, dl, rawInformation)
	}
	if len(rawInformation) < 3 {
		return "", gridscan.ErrNotFound
	}
	first3 := rawInformation[:3]
	if dl, ok := threeDigitAIs[first3]; ok {
		return splitOneAI(3, dl, rawInformation)
	}
	if len(rawInformation) < 4 {
		return "", gridscan.ErrNotFound
	}
	if dl, ok := threeDigitPlusAIs[first3]; ok {
		return splitOneAI(4, dl, rawInformation)
	}
	if dl, ok := fourDigitAIs[rawInformation[:4]]; ok {
		return splitOneAI(4, dl, rawInformation)
	}
	return "", gridscan.ErrNotFound
}

func splitOneAI(aiSize int, dl aiLength, rawInformation string) (string, error) {
	if len(rawInformation) < aiSize {
		return "", gridscan.ErrNotFound
	}
	ai := rawInformation[:aiSize]
	fieldEnd := aiSize + dl.length
	if dl.variable {
		if fieldEnd > len(rawInformation) {
			fieldEnd = len(rawInformation)
		}
	} else if fieldEnd > len(rawInformation) {
		return "", gridscan.ErrNotFound
	}
	field := rawInformation[aiSize:fieldEnd]
	remaining := rawInformation[fieldEnd:]
	result := "(" + ai + ")" + field
	parsed, err := splitAIFields(remaining)
	if err != nil {
		return "", err
	}
	return result + parsed, nil
}
