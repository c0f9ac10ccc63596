package qr

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
)

const numMaskPatterns = 8

// symbolPlan is a module grid under construction; 0xFF marks an unset cell.
type symbolPlan struct {
	cells         [][]byte
	width, height int
}

func newSymbolPlan(width, height int) *symbolPlan {
	cells := make([][]byte, height)
	for i := range cells {
		cells[i] = make([]byte, width)
	}
	return &symbolPlan{cells: cells, width: width, height: height}
}

func (p *symbolPlan) get(x, y int) byte       { return p.cells[y][x] }
func (p *symbolPlan) set(x, y int, v byte)    { p.cells[y][x] = v }
func (p *symbolPlan) setBool(x, y int, v bool) {
	if v {
		p.cells[y][x] = 1
	} else {
		p.cells[y][x] = 0
	}
}

func (p *symbolPlan) clear(v byte) {
	for y := range p.cells {
		for x := range p.cells[y] {
			p.cells[y][x] = v
		}
	}
}

// Symbol is a fully laid out QR code ready to render.
type Symbol struct {
	Mode    Mode
	Level   ECLevel
	Version *Version
	Mask    int
	plan    *symbolPlan
}

// Matrix converts the laid-out symbol to a bit matrix.
func (s *Symbol) Matrix() *bitvec.Matrix {
	m := bitvec.New(s.plan.width, s.plan.height)
	for y := 0; y < s.plan.height; y++ {
		for x := 0; x < s.plan.width; x++ {
			if s.plan.get(x, y) == 1 {
				m.Set(x, y)
			}
		}
	}
	return m
}

// alphanumericCodes maps ASCII to the 45-symbol alphanumeric alphabet.
var alphanumericCodes = [128]int{
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	36, -1, -1, -1, 37, 38, -1, -1, -1, -1, 39, 40, -1, 41, 42, 43,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 44, -1, -1, -1, -1, -1,
	-1, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1,
}

func alphanumericCode(c int) int {
	if c < 128 {
		return alphanumericCodes[c]
	}
	return -1
}

// chooseMode picks the tightest mode that covers the whole payload.
func chooseMode(content string) Mode {
	hasNumeric := false
	hasAlphanumeric := false
	for _, c := range content {
		switch {
		case c >= '0' && c <= '9':
			hasNumeric = true
		case alphanumericCode(int(c)) != -1:
			hasAlphanumeric = true
		default:
			return ModeByte
		}
	}
	if hasAlphanumeric {
		return ModeAlphanumeric
	}
	if hasNumeric {
		return ModeNumeric
	}
	return ModeByte
}

// EncodeSymbol encodes content into a laid-out Symbol. A forcedVersion of 0
// selects the smallest fitting version; a forcedMask outside 0-7 runs the
// penalty search.
func EncodeSymbol(content string, level ECLevel, forcedVersion, forcedMask int) (*Symbol, error) {
	mode := chooseMode(content)

	headerBits := bitvec.NewVector(0)
	headerBits.AppendBits(uint32(mode.Bits()), 4)

	dataBits := bitvec.NewVector(0)
	if err := appendModeData(content, mode, dataBits); err != nil {
		return nil, err
	}

	var version *Version
	var err error
	if forcedVersion > 0 {
		version, err = VersionForNumber(forcedVersion)
		if err != nil {
			return nil, err
		}
	} else {
		version, err = smallestVersion(mode, headerBits, dataBits, level)
		if err != nil {
			return nil, err
		}
	}

	headerBits.AppendBits(uint32(len(content)), mode.CountBits(version))
	headerBits.Append(dataBits)

	blockSpec := version.Blocks(level)
	totalBytes := version.TotalCodewords
	numDataBytes := totalBytes - blockSpec.TotalECCodewords()

	if err := padToCapacity(numDataBytes, headerBits); err != nil {
		return nil, err
	}

	finalBits, err := interleaveBlocks(headerBits, totalBytes, numDataBytes, blockSpec.NumBlocks())
	if err != nil {
		return nil, err
	}

	symbol := &Symbol{Mode: mode, Level: level, Version: version, Mask: -1}
	dimension := version.Dimension()
	plan := newSymbolPlan(dimension, dimension)

	if forcedMask >= 0 && forcedMask < numMaskPatterns {
		symbol.Mask = forcedMask
	} else {
		symbol.Mask = bestMask(finalBits, level, version, plan)
	}

	symbol.plan = plan
	layoutSymbol(finalBits, level, version, symbol.Mask, plan)
	return symbol, nil
}

func smallestVersion(mode Mode, headerBits, dataBits *bitvec.Vector, level ECLevel) (*Version, error) {
	for number := 1; number <= 40; number++ {
		version, _ := VersionForNumber(number)
		totalBits := headerBits.Len() + mode.CountBits(version) + dataBits.Len()
		blockSpec := version.Blocks(level)
		numDataBytes := version.TotalCodewords - blockSpec.TotalECCodewords()
		if totalBits <= numDataBytes*8 {
			return version, nil
		}
	}
	return nil, fmt.Errorf("%w: data too large for any version", gridscan.ErrWriter)
}

func padToCapacity(numDataBytes int, bits *bitvec.Vector) error {
	capacity := numDataBytes * 8
	if bits.Len() > capacity {
		return fmt.Errorf("%w: data bits exceed capacity", gridscan.ErrWriter)
	}
	for i := 0; i < 4 && bits.Len() < capacity; i++ {
		bits.AppendBit(false)
	}
	if partial := bits.Len() & 0x07; partial > 0 {
		for i := partial; i < 8; i++ {
			bits.AppendBit(false)
		}
	}
	numPadding := numDataBytes - bits.ByteLen()
	for i := 0; i < numPadding; i++ {
		if i%2 == 0 {
			bits.AppendBits(0xEC, 8)
		} else {
			bits.AppendBits(0x11, 8)
		}
	}
	return nil
}

func appendModeData(content string, mode Mode, bits *bitvec.Vector) error {
	switch mode {
	case ModeNumeric:
		return appendNumeric(content, bits)
	case ModeAlphanumeric:
		return appendAlphanumeric(content, bits)
	case ModeByte:
		for i := 0; i < len(content); i++ {
			bits.AppendBits(uint32(content[i]), 8)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported mode", gridscan.ErrWriter)
	}
}

func appendNumeric(content string, bits *bitvec.Vector) error {
	length := len(content)
	i := 0
	for i < length {
		d1 := int(content[i] - '0')
		switch {
		case i+2 < length:
			d2 := int(content[i+1] - '0')
			d3 := int(content[i+2] - '0')
			bits.AppendBits(uint32(d1*100+d2*10+d3), 10)
			i += 3
		case i+1 < length:
			d2 := int(content[i+1] - '0')
			bits.AppendBits(uint32(d1*10+d2), 7)
			i += 2
		default:
			bits.AppendBits(uint32(d1), 4)
			i++
		}
	}
	return nil
}

func appendAlphanumeric(content string, bits *bitvec.Vector) error {
	length := len(content)
	i := 0
	for i < length {
		code1 := alphanumericCode(int(content[i]))
		if code1 == -1 {
			return fmt.Errorf("%w: character not in alphanumeric set", gridscan.ErrWriter)
		}
		if i+1 < length {
			code2 := alphanumericCode(int(content[i+1]))
			if code2 == -1 {
				return fmt.Errorf("%w: character not in alphanumeric set", gridscan.ErrWriter)
			}
			bits.AppendBits(uint32(code1*45+code2), 11)
			i += 2
		} else {
			bits.AppendBits(uint32(code1), 6)
			i++
		}
	}
	return nil
}

func interleaveBlocks(bits *bitvec.Vector, numTotalBytes, numDataBytes, numBlocks int) (*bitvec.Vector, error) {
	if bits.ByteLen() != numDataBytes {
		return nil, fmt.Errorf("%w: data byte count mismatch", gridscan.ErrWriter)
	}

	type blockPair struct {
		data []byte
		ec   []byte
	}
	blocks := make([]blockPair, numBlocks)

	encoder := galois.NewEncoder(galois.QRCode)
	dataOffset := 0
	maxDataLen := 0
	maxECLen := 0
	for i := 0; i < numBlocks; i++ {
		dataLen, ecLen := blockSizes(numTotalBytes, numDataBytes, numBlocks, i)
		data := make([]byte, dataLen)
		bits.WriteBytes(8*dataOffset, data, 0, dataLen)
		blocks[i] = blockPair{data: data, ec: parityBytes(encoder, data, ecLen)}
		if dataLen > maxDataLen {
			maxDataLen = dataLen
		}
		if ecLen > maxECLen {
			maxECLen = ecLen
		}
		dataOffset += dataLen
	}

	result := bitvec.NewVector(0)
	for i := 0; i < maxDataLen; i++ {
		for _, block := range blocks {
			if i < len(block.data) {
				result.AppendBits(uint32(block.data[i]), 8)
			}
		}
	}
	for i := 0; i < maxECLen; i++ {
		for _, block := range blocks {
			if i < len(block.ec) {
				result.AppendBits(uint32(block.ec[i]), 8)
			}
		}
	}
	if result.ByteLen() != numTotalBytes {
		return nil, fmt.Errorf("%w: interleaved size mismatch", gridscan.ErrWriter)
	}
	return result, nil
}

// blockSizes splits the capacity across blocks: the remainder blocks carry
// one extra byte each and come last.
func blockSizes(numTotalBytes, numDataBytes, numBlocks, blockID int) (dataLen, ecLen int) {
	group2Blocks := numTotalBytes % numBlocks
	group1Blocks := numBlocks - group2Blocks
	group1Total := numTotalBytes / numBlocks
	group1Data := numDataBytes / numBlocks
	if blockID < group1Blocks {
		return group1Data, group1Total - group1Data
	}
	return group1Data + 1, (group1Total + 1) - (group1Data + 1)
}

func parityBytes(encoder *galois.Encoder, data []byte, ecLen int) []byte {
	codewords := make([]int, len(data)+ecLen)
	for i, b := range data {
		codewords[i] = int(b)
	}
	encoder.Encode(codewords, ecLen)
	ec := make([]byte, ecLen)
	for i := 0; i < ecLen; i++ {
		ec[i] = byte(codewords[len(data)+i])
	}
	return ec
}

func bestMask(bits *bitvec.Vector, level ECLevel, version *Version, plan *symbolPlan) int {
	minPenalty := math.MaxInt32
	best := 0
	for i := 0; i < numMaskPatterns; i++ {
		layoutSymbol(bits, level, version, i, plan)
		if penalty := maskPenalty(plan); penalty < minPenalty {
			minPenalty = penalty
			best = i
		}
	}
	return best
}

func maskPenalty(plan *symbolPlan) int {
	return penaltyRunLength(plan) + penaltyBlocks(plan) + penaltyFinderLookalike(plan) + penaltyBalance(plan)
}

// penaltyRunLength charges runs of five or more same-color modules, in both
// orientations.
func penaltyRunLength(plan *symbolPlan) int {
	return penaltyRunLengthOneAxis(plan, true) + penaltyRunLengthOneAxis(plan, false)
}

func penaltyRunLengthOneAxis(plan *symbolPlan, horizontal bool) int {
	penalty := 0
	iLimit := plan.height
	jLimit := plan.width
	if !horizontal {
		iLimit, jLimit = plan.width, plan.height
	}
	for i := 0; i < iLimit; i++ {
		runLength := 0
		prev := byte(255)
		for j := 0; j < jLimit; j++ {
			var cell byte
			if horizontal {
				cell = plan.get(j, i)
			} else {
				cell = plan.get(i, j)
			}
			if cell == prev {
				runLength++
			} else {
				if runLength >= 5 {
					penalty += 3 + (runLength - 5)
				}
				runLength = 1
				prev = cell
			}
		}
		if runLength >= 5 {
			penalty += 3 + (runLength - 5)
		}
	}
	return penalty
}

// penaltyBlocks charges each 2x2 same-color block.
func penaltyBlocks(plan *symbolPlan) int {
	penalty := 0
	for y := 0; y < plan.height-1; y++ {
		for x := 0; x < plan.width-1; x++ {
			v := plan.get(x, y)
			if v == plan.get(x+1, y) && v == plan.get(x, y+1) && v == plan.get(x+1, y+1) {
				penalty += 3
			}
		}
	}
	return penalty
}

// penaltyFinderLookalike charges 1011101 runs adjacent to four light
// modules, which could be mistaken for a finder.
func penaltyFinderLookalike(plan *symbolPlan) int {
	penalty := 0
	for y := 0; y < plan.height; y++ {
		for x := 0; x < plan.width; x++ {
			if x+6 < plan.width &&
				plan.get(x, y) == 1 && plan.get(x+1, y) == 0 &&
				plan.get(x+2, y) == 1 && plan.get(x+3, y) == 1 &&
				plan.get(x+4, y) == 1 && plan.get(x+5, y) == 0 &&
				plan.get(x+6, y) == 1 {
				after := x+10 < plan.width && plan.get(x+7, y) == 0 && plan.get(x+8, y) == 0 &&
					plan.get(x+9, y) == 0 && plan.get(x+10, y) == 0
				before := x >= 4 && plan.get(x-1, y) == 0 && plan.get(x-2, y) == 0 &&
					plan.get(x-3, y) == 0 && plan.get(x-4, y) == 0
				if after || before {
					penalty += 40
				}
			}
			if y+6 < plan.height &&
				plan.get(x, y) == 1 && plan.get(x, y+1) == 0 &&
				plan.get(x, y+2) == 1 && plan.get(x, y+3) == 1 &&
				plan.get(x, y+4) == 1 && plan.get(x, y+5) == 0 &&
				plan.get(x, y+6) == 1 {
				after := y+10 < plan.height && plan.get(x, y+7) == 0 && plan.get(x, y+8) == 0 &&
					plan.get(x, y+9) == 0 && plan.get(x, y+10) == 0
				before := y >= 4 && plan.get(x, y-1) == 0 && plan.get(x, y-2) == 0 &&
					plan.get(x, y-3) == 0 && plan.get(x, y-4) == 0
				if after || before {
					penalty += 40
				}
			}
		}
	}
	return penalty
}

// penaltyBalance charges deviation from a 50% dark ratio in 5% steps.
func penaltyBalance(plan *symbolPlan) int {
	dark := 0
	total := plan.height * plan.width
	for y := 0; y < plan.height; y++ {
		for x := 0; x < plan.width; x++ {
			if plan.get(x, y) == 1 {
				dark++
			}
		}
	}
	steps := absInt(dark*2-total) * 10 / total
	return steps * 10
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func layoutSymbol(dataBits *bitvec.Vector, level ECLevel, version *Version, mask int, plan *symbolPlan) {
	plan.clear(0xFF)
	placeFixedPatterns(version, plan)
	placeFormatInfo(level, mask, plan)
	placeVersionInfo(version, plan)
	placeDataBits(dataBits, mask, plan)
}

var finderPatternShape = [7][7]byte{
	{1, 1, 1, 1, 1, 1, 1},
	{1, 0, 0, 0, 0, 0, 1},
	{1, 0, 1, 1, 1, 0, 1},
	{1, 0, 1, 1, 1, 0, 1},
	{1, 0, 1, 1, 1, 0, 1},
	{1, 0, 0, 0, 0, 0, 1},
	{1, 1, 1, 1, 1, 1, 1},
}

var alignmentPatternShape = [5][5]byte{
	{1, 1, 1, 1, 1},
	{1, 0, 0, 0, 1},
	{1, 0, 1, 0, 1},
	{1, 0, 0, 0, 1},
	{1, 1, 1, 1, 1},
}

func placeFixedPatterns(version *Version, plan *symbolPlan) {
	placeFinder(0, 0, plan)
	placeFinder(plan.width-7, 0, plan)
	placeFinder(0, plan.height-7, plan)

	placeHorizontalSeparator(0, 7, plan)
	placeHorizontalSeparator(plan.width-8, 7, plan)
	placeHorizontalSeparator(0, plan.height-8, plan)

	placeVerticalSeparator(7, 0, plan)
	placeVerticalSeparator(plan.width-8, 0, plan)
	placeVerticalSeparator(7, plan.height-7, plan)

	if version.Number >= 2 {
		placeAlignmentPatterns(version, plan)
	}

	// Timing patterns, dark module last.
	for i := 8; i < plan.width-8; i++ {
		bit := byte((i + 1) % 2)
		if plan.get(i, 6) == 0xFF {
			plan.set(i, 6, bit)
		}
		if plan.get(6, i) == 0xFF {
			plan.set(6, i, bit)
		}
	}
	plan.set(8, plan.height-8, 1)
}

func placeFinder(xStart, yStart int, plan *symbolPlan) {
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			plan.set(xStart+x, yStart+y, finderPatternShape[y][x])
		}
	}
}

func placeHorizontalSeparator(xStart, yStart int, plan *symbolPlan) {
	for x := 0; x < 8; x++ {
		if xStart+x < plan.width {
			plan.set(xStart+x, yStart, 0)
		}
	}
}

func placeVerticalSeparator(xStart, yStart int, plan *symbolPlan) {
	for y := 0; y < 7; y++ {
		if yStart+y < plan.height {
			plan.set(xStart, yStart+y, 0)
		}
	}
}

func placeAlignmentPatterns(version *Version, plan *symbolPlan) {
	centers := version.AlignCenters
	for _, cy := range centers {
		for _, cx := range centers {
			if plan.get(cx, cy) != 0xFF {
				continue
			}
			for y := 0; y < 5; y++ {
				for x := 0; x < 5; x++ {
					plan.set(cx-2+x, cy-2+y, alignmentPatternShape[y][x])
				}
			}
		}
	}
}

const (
	formatInfoPoly  = 0x537
	versionInfoPoly = 0x1F25
)

func placeFormatInfo(level ECLevel, mask int, plan *symbolPlan) {
	formatData := (level.Bits() << 3) | mask
	formatBits := (formatData << 10) | bchRemainder(formatData, formatInfoPoly)
	formatBits ^= formatInfoMask

	formatCoords := [][2]int{
		{8, 0}, {8, 1}, {8, 2}, {8, 3}, {8, 4}, {8, 5}, {8, 7}, {8, 8},
		{7, 8}, {5, 8}, {4, 8}, {3, 8}, {2, 8}, {1, 8}, {0, 8},
	}
	for i := 0; i < 15; i++ {
		bit := byte((formatBits >> uint(i)) & 1)
		coord := formatCoords[i]
		plan.set(coord[0], coord[1], bit)
		if i < 8 {
			plan.set(plan.width-1-i, 8, bit)
		} else {
			plan.set(8, plan.height-7+(i-8), bit)
		}
	}
}

func placeVersionInfo(version *Version, plan *symbolPlan) {
	if version.Number < 7 {
		return
	}
	versionBits := (version.Number << 12) | bchRemainder(version.Number, versionInfoPoly)

	bitIndex := 0
	for i := 0; i < 6; i++ {
		for j := 0; j < 3; j++ {
			bit := byte((versionBits >> uint(bitIndex)) & 1)
			bitIndex++
			plan.set(i, plan.height-11+j, bit)
			plan.set(plan.width-11+j, i, bit)
		}
	}
}

func placeDataBits(dataBits *bitvec.Vector, mask int, plan *symbolPlan) {
	bitIndex := 0
	dimension := plan.height
	for j := dimension - 1; j > 0; j -= 2 {
		if j == 6 {
			j--
		}
		for count := 0; count < dimension; count++ {
			upward := ((dimension-1-j)/2)&1 == 0
			i := count
			if upward {
				i = dimension - 1 - count
			}
			for col := 0; col < 2; col++ {
				x := j - col
				if plan.get(x, i) != 0xFF {
					continue
				}
				var bit bool
				if bitIndex < dataBits.Len() {
					bit = dataBits.Bit(bitIndex)
					bitIndex++
				}
				if dataMasks[mask](i, x) {
					bit = !bit
				}
				plan.setBool(x, i, bit)
			}
		}
	}
}

func bchRemainder(value, poly int) int {
	msbPoly := msbSet(poly)
	value <<= uint(msbPoly - 1)
	for msbSet(value) >= msbPoly {
		value ^= poly << uint(msbSet(value)-msbPoly)
	}
	return value
}

func msbSet(value int) int {
	count := 0
	for value != 0 {
		value >>= 1
		count++
	}
	return count
}
