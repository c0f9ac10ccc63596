package oned

import (
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// RSS Expanded: character pairs chained across one row or stacked rows,
// carrying a GS1 application identifier stream.

// expandedPair couples two data characters with their finder pattern.
type expandedPair struct {
	leftChar  *rssCharacter
	rightChar *rssCharacter
	finder    rssFinder
}

func (p *expandedPair) mustBeLast() bool {
	return p.rightChar == nil
}

func expandedPairEqual(a, b expandedPair) bool {
	if (a.leftChar == nil) != (b.leftChar == nil) {
		return false
	}
	if a.leftChar != nil && (a.leftChar.value != b.leftChar.value || a.leftChar.checksumPortion != b.leftChar.checksumPortion) {
		return false
	}
	if (a.rightChar == nil) != (b.rightChar == nil) {
		return false
	}
	if a.rightChar != nil && (a.rightChar.value != b.rightChar.value || a.rightChar.checksumPortion != b.rightChar.checksumPortion) {
		return false
	}
	return a.finder.value == b.finder.value
}

// expandedRow is one stored row of a stacked symbol.
type expandedRow struct {
	pairs     []expandedPair
	rowNumber int
}

func newExpandedRow(pairs []expandedPair, rowNumber int) expandedRow {
	cp := make([]expandedPair, len(pairs))
	copy(cp, pairs)
	return expandedRow{pairs: cp, rowNumber: rowNumber}
}

func (r *expandedRow) isEquivalent(otherPairs []expandedPair) bool {
	if len(r.pairs) != len(otherPairs) {
		return false
	}
	for i := range r.pairs {
		if !expandedPairEqual(r.pairs[i], otherPairs[i]) {
			return false
		}
	}
	return true
}

// packExpandedBits concatenates the pair character values into the
// information bit array.
func packExpandedBits(pairs []expandedPair) *bitvec.Vector {
	charNumber := len(pairs)*2 - 1
	if pairs[len(pairs)-1].rightChar == nil {
		charNumber--
	}

	binary := bitvec.NewVector(12 * charNumber)
	pos := 0
	writeValue := func(value int) {
		for i := 11; i >= 0; i-- {
			if value&(1<<uint(i)) != 0 {
				binary.Set(pos)
			}
			pos++
		}
	}

	writeValue(pairs[0].rightChar.value)
	for i := 1; i < len(pairs); i++ {
		writeValue(pairs[i].leftChar.value)
		if pairs[i].rightChar != nil {
			writeValue(pairs[i].rightChar.value)
		}
	}
	return binary
}

func buildExpandedResult(pairs []expandedPair) (*gridscan.Result, error) {
	binary := packExpandedBits(pairs)
	text, err := parseExpandedInformation(binary)
	if err != nil {
		return nil, err
	}

	firstPoints := pairs[0].finder.points
	lastPoints := pairs[len(pairs)-1].finder.points
	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{firstPoints[0], firstPoints[1], lastPoints[0], lastPoints[1]},
		gridscan.FormatRSSExpanded,
	)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]e0")
	return result, nil
}

// RSSExpandedReader decodes RSS Expanded symbols, including the stacked
// variant by accumulating rows.
type RSSExpandedReader struct {
	pairs         []expandedPair
	rows          []expandedRow
	startEnd      [2]int
	startFromEven bool

	finderCounters [4]int
	dataCounters   [8]int
	oddErrors      [4]float64
	evenErrors     [4]float64
	oddCounts      [4]int
	evenCounts     [4]int
}

// NewRSSExpandedReader returns an RSS Expanded reader.
func NewRSSExpandedReader() *RSSExpandedReader {
	return &RSSExpandedReader{}
}

var rssExpandedSymbolWidest = []int{7, 5, 4, 3, 1}
var rssExpandedEvenTotals = []int{4, 20, 52, 104, 204}
var rssExpandedGSums = []int{0, 348, 1388, 2948, 3988}

var rssExpandedFinderPatterns = [][]int{
	{1, 8, 4, 1},
	{3, 6, 4, 1},
	{3, 4, 6, 1},
	{3, 2, 8, 1},
	{2, 6, 5, 1},
	{2, 2, 9, 1},
}

var rssExpandedWeights = [][]int{
	{1, 3, 9, 27, 81, 32, 96, 77},
	{20, 60, 180, 118, 143, 7, 21, 63},
	{189, 145, 13, 39, 117, 140, 209, 205},
	{193, 157, 49, 147, 19, 57, 171, 91},
	{62, 186, 136, 197, 169, 85, 44, 132},
	{185, 133, 188, 142, 4, 12, 36, 108},
	{113, 128, 173, 97, 80, 29, 87, 50},
	{150, 28, 84, 41, 123, 158, 52, 156},
	{46, 138, 203, 187, 139, 206, 196, 166},
	{76, 17, 51, 153, 37, 111, 122, 155},
	{43, 129, 176, 106, 107, 110, 119, 146},
	{16, 48, 144, 10, 30, 90, 59, 177},
	{109, 116, 137, 200, 178, 112, 125, 164},
	{70, 210, 208, 202, 184, 130, 179, 115},
	{134, 191, 151, 31, 93, 68, 204, 190},
	{148, 22, 66, 198, 172, 94, 71, 2},
	{6, 18, 54, 162, 64, 192, 154, 40},
	{120, 149, 25, 75, 14, 42, 126, 167},
	{79, 26, 78, 23, 69, 207, 199, 175},
	{103, 98, 83, 38, 114, 131, 182, 124},
	{161, 61, 183, 127, 170, 88, 53, 159},
	{55, 165, 73, 8, 24, 72, 5, 15},
	{45, 135, 194, 160, 58, 174, 100, 89},
}

// The finder value sequences legal for each pair count.
var rssExpandedSequences = [][]int{
	{0, 0},
	{0, 1, 1},
	{0, 2, 1, 3},
	{0, 4, 1, 3, 2},
	{0, 4, 1, 3, 3, 5},
	{0, 4, 1, 3, 4, 5, 5},
	{0, 0, 1, 1, 2, 2, 3, 3},
	{0, 0, 1, 1, 2, 2, 3, 4, 4},
	{0, 0, 1, 1, 2, 2, 3, 4, 5, 5},
	{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5},
}

const (
	rssExpandedFinderModules  = 15.0
	rssExpandedCharModules    = 17.0
	rssExpandedMaxFinderDrift = 0.1
)

// DecodeRow decodes one scan line, trying both pair phases.
func (r *RSSExpandedReader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	r.startFromEven = false
	if result, err := r.decodeRowOnce(rowNumber, row); err == nil {
		return result, nil
	}
	r.startFromEven = true
	return r.decodeRowOnce(rowNumber, row)
}

func (r *RSSExpandedReader) decodeRowOnce(rowNumber int, row *bitvec.Vector) (*gridscan.Result, error) {
	pairs, err := r.collectPairs(rowNumber, row)
	if err != nil {
		return nil, err
	}
	return buildExpandedResult(pairs)
}

func (r *RSSExpandedReader) collectPairs(rowNumber int, row *bitvec.Vector) ([]expandedPair, error) {
	r.pairs = r.pairs[:0]
	for {
		pair, err := r.nextPair(row, r.pairs, rowNumber)
		if err != nil {
			if len(r.pairs) == 0 {
				return nil, err
			}
			break
		}
		r.pairs = append(r.pairs, *pair)
	}

	if r.checksumOK() && sequenceIsValid(r.pairs, true) {
		return r.pairs, nil
	}

	tryStacked := len(r.rows) > 0
	r.rememberRow(rowNumber)
	if tryStacked {
		if ps := r.combineRows(false); ps != nil {
			return ps, nil
		}
		if ps := r.combineRows(true); ps != nil {
			return ps, nil
		}
	}
	return nil, gridscan.ErrNotFound
}

func (r *RSSExpandedReader) combineRows(reverse bool) []expandedPair {
	if len(r.rows) > 25 {
		// Unbounded accumulation with no hit; start over.
		r.rows = r.rows[:0]
		return nil
	}
	r.pairs = r.pairs[:0]
	if reverse {
		reverseRows(r.rows)
	}
	ps := r.combineRowsRecursive(0)
	if reverse {
		reverseRows(r.rows)
	}
	return ps
}

func reverseRows(rows []expandedRow) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func (r *RSSExpandedReader) combineRowsRecursive(currentRow int) []expandedPair {
	for i := currentRow; i < len(r.rows); i++ {
		row := r.rows[i]
		r.pairs = append(r.pairs, row.pairs...)
		addSize := len(row.pairs)

		if sequenceIsValid(r.pairs, false) {
			if r.checksumOK() {
				result := make([]expandedPair, len(r.pairs))
				copy(result, r.pairs)
				return result
			}
			if ps := r.combineRowsRecursive(i + 1); ps != nil {
				return ps
			}
		}
		r.pairs = r.pairs[:len(r.pairs)-addSize]
	}
	return nil
}

func sequenceIsValid(pairs []expandedPair, complete bool) bool {
	for _, sequence := range rssExpandedSequences {
		var sizeOK bool
		if complete {
			sizeOK = len(pairs) == len(sequence)
		} else {
			sizeOK = len(pairs) <= len(sequence)
		}
		if !sizeOK {
			continue
		}
		matched := true
		for j := range pairs {
			if pairs[j].finder.value != sequence[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// mayFollow reports whether a finder value can legally extend the pairs.
func mayFollow(pairs []expandedPair, value int) bool {
	if len(pairs) == 0 {
		return true
	}
	for _, sequence := range rssExpandedSequences {
		if len(pairs)+1 > len(sequence) {
			continue
		}
		for i := len(pairs); i < len(sequence); i++ {
			if sequence[i] != value {
				continue
			}
			matched := true
			for j := 0; j < len(pairs); j++ {
				if sequence[i-j-1] != pairs[len(pairs)-j-1].finder.value {
					matched = false
					break
				}
			}
			if matched {
				return true
			}
		}
	}
	return false
}

func (r *RSSExpandedReader) rememberRow(rowNumber int) {
	insertPos := 0
	prevIsSame := false
	nextIsSame := false
	for insertPos < len(r.rows) {
		row := &r.rows[insertPos]
		if row.rowNumber > rowNumber {
			nextIsSame = row.isEquivalent(r.pairs)
			break
		}
		prevIsSame = row.isEquivalent(r.pairs)
		insertPos++
	}
	if nextIsSame || prevIsSame {
		return
	}
	if isPartialRow(r.pairs, r.rows) {
		return
	}
	newRow := newExpandedRow(r.pairs, rowNumber)
	r.rows = append(r.rows, expandedRow{})
	copy(r.rows[insertPos+1:], r.rows[insertPos:])
	r.rows[insertPos] = newRow
	dropPartialRows(r.pairs, &r.rows)
}

// dropPartialRows removes stored rows fully contained in pairs.
func dropPartialRows(pairs []expandedPair, rows *[]expandedRow) {
	n := 0
	for _, row := range *rows {
		if len(row.pairs) != len(pairs) {
			allFound := true
			for _, p := range row.pairs {
				found := false
				for _, pp := range pairs {
					if expandedPairEqual(p, pp) {
						found = true
						break
					}
				}
				if !found {
					allFound = false
					break
				}
			}
			if allFound {
				continue
			}
		}
		(*rows)[n] = row
		n++
	}
	*rows = (*rows)[:n]
}

func isPartialRow(pairs []expandedPair, rows []expandedRow) bool {
	for _, row := range rows {
		allFound := true
		for _, p := range pairs {
			found := false
			for _, pp := range row.pairs {
				if expandedPairEqual(p, pp) {
					found = true
					break
				}
			}
			if !found {
				allFound = false
				break
			}
		}
		if allFound {
			return true
		}
	}
	return false
}

func (r *RSSExpandedReader) checksumOK() bool {
	if len(r.pairs) == 0 {
		return false
	}
	firstPair := r.pairs[0]
	checkCharacter := firstPair.leftChar
	firstCharacter := firstPair.rightChar
	if firstCharacter == nil {
		return false
	}
	checksum := firstCharacter.checksumPortion
	s := 2
	for i := 1; i < len(r.pairs); i++ {
		pair := r.pairs[i]
		checksum += pair.leftChar.checksumPortion
		s++
		if pair.rightChar != nil {
			checksum += pair.rightChar.checksumPortion
			s++
		}
	}
	checksum %= 211
	return 211*(s-4)+checksum == checkCharacter.value
}

func (r *RSSExpandedReader) secondBarAfter(row *bitvec.Vector, initialPos int) int {
	var currentPos int
	if row.Bit(initialPos) {
		currentPos = row.NextUnset(initialPos)
		currentPos = row.NextSet(currentPos)
	} else {
		currentPos = row.NextSet(initialPos)
		currentPos = row.NextUnset(currentPos)
	}
	return currentPos
}

func (r *RSSExpandedReader) nextPair(row *bitvec.Vector, previousPairs []expandedPair, rowNumber int) (*expandedPair, error) {
	isOddPattern := len(previousPairs)%2 == 0
	if r.startFromEven {
		isOddPattern = !isOddPattern
	}

	var finder *rssFinder
	var leftChar *rssCharacter
	forcedOffset := -1
	for {
		if err := r.findNextFinder(row, previousPairs, forcedOffset); err != nil {
			return nil, err
		}
		finder = r.parseExpandedFinder(row, rowNumber, isOddPattern, previousPairs)
		if finder == nil {
			forcedOffset = r.secondBarAfter(row, r.startEnd[0])
			continue
		}
		var err error
		leftChar, err = r.decodeExpandedCharacter(row, finder, isOddPattern, true)
		if err != nil {
			forcedOffset = r.secondBarAfter(row, r.startEnd[0])
			continue
		}
		break
	}

	if len(previousPairs) > 0 && previousPairs[len(previousPairs)-1].mustBeLast() {
		return nil, gridscan.ErrNotFound
	}

	var rightChar *rssCharacter
	if rc, err := r.decodeExpandedCharacter(row, finder, isOddPattern, false); err == nil {
		rightChar = rc
	}
	return &expandedPair{leftChar: leftChar, rightChar: rightChar, finder: *finder}, nil
}

func (r *RSSExpandedReader) findNextFinder(row *bitvec.Vector, previousPairs []expandedPair, forcedOffset int) error {
	counters := r.finderCounters[:]
	for i := range counters {
		counters[i] = 0
	}

	width := row.Len()
	var rowOffset int
	switch {
	case forcedOffset >= 0:
		rowOffset = forcedOffset
	case len(previousPairs) == 0:
		rowOffset = 0
	default:
		rowOffset = previousPairs[len(previousPairs)-1].finder.startEnd[1]
	}
	searchingEvenPair := len(previousPairs)%2 != 0
	if r.startFromEven {
		searchingEvenPair = !searchingEvenPair
	}

	isWhite := false
	for rowOffset < width {
		isWhite = !row.Bit(rowOffset)
		if !isWhite {
			break
		}
		rowOffset++
	}

	counterPosition := 0
	patternStart := rowOffset
	for x := rowOffset; x < width; x++ {
		if row.Bit(x) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == 3 {
			if searchingEvenPair {
				reverseSlice(counters)
			}
			if rssLooksLikeFinder(counters) {
				r.startEnd[0] = patternStart
				r.startEnd[1] = x
				if searchingEvenPair {
					reverseSlice(counters)
				}
				return nil
			}
			if searchingEvenPair {
				reverseSlice(counters)
			}
			patternStart += counters[0] + counters[1]
			counters[0] = counters[2]
			counters[1] = counters[3]
			counters[2] = 0
			counters[3] = 0
			counterPosition--
		} else {
			counterPosition++
		}
		counters[counterPosition] = 1
		isWhite = !isWhite
	}
	return gridscan.ErrNotFound
}

func reverseSlice(a []int) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}

func (r *RSSExpandedReader) parseExpandedFinder(row *bitvec.Vector, rowNumber int, oddPattern bool, previousPairs []expandedPair) *rssFinder {
	var firstCounter, start, end int

	if oddPattern {
		firstElementStart := r.startEnd[0] - 1
		for firstElementStart >= 0 && !row.Bit(firstElementStart) {
			firstElementStart--
		}
		firstElementStart++
		firstCounter = r.startEnd[0] - firstElementStart
		start = firstElementStart
		end = r.startEnd[1]
	} else {
		start = r.startEnd[0]
		end = row.NextUnset(r.startEnd[1] + 1)
		firstCounter = end - r.startEnd[1]
	}

	counters := r.finderCounters[:]
	copy(counters[1:], counters[:3])
	counters[0] = firstCounter

	value, err := rssMatchFinder(counters, rssExpandedFinderPatterns)
	if err != nil {
		return nil
	}
	if !mayFollow(previousPairs, value) {
		return nil
	}

	// Enforce the two-character spacing to the previous finder.
	if len(previousPairs) > 0 {
		prev := previousPairs[len(previousPairs)-1]
		prevStart := prev.finder.startEnd[0]
		prevEnd := prev.finder.startEnd[1]
		prevWidth := prevEnd - prevStart
		charWidth := float64(prevWidth) / rssExpandedFinderModules * rssExpandedCharModules
		minX := float64(prevEnd) + 2*charWidth*(1-rssExpandedMaxFinderDrift)
		maxX := float64(prevEnd) + 2*charWidth*(1+rssExpandedMaxFinderDrift)
		if float64(start) < minX || float64(start) > maxX {
			return nil
		}
	}

	return &rssFinder{
		value:    value,
		startEnd: [2]int{start, end},
		points: [2]gridscan.Point{
			{X: float64(start), Y: float64(rowNumber)},
			{X: float64(end), Y: float64(rowNumber)},
		},
	}
}

func (r *RSSExpandedReader) decodeExpandedCharacter(row *bitvec.Vector, finder *rssFinder, isOddPattern, leftChar bool) (*rssCharacter, error) {
	counters := r.dataCounters[:]
	for i := range counters {
		counters[i] = 0
	}

	if leftChar {
		if err := RecordRunsReversed(row, finder.startEnd[0], counters); err != nil {
			return nil, err
		}
	} else {
		if err := RecordRuns(row, finder.startEnd[1], counters); err != nil {
			return nil, err
		}
		reverseSlice(counters)
	}

	const numModules = 17
	elementWidth := float64(sumSlice(counters)) / numModules

	expectedElementWidth := float64(finder.startEnd[1]-finder.startEnd[0]) / rssExpandedFinderModules
	if math.Abs(elementWidth-expectedElementWidth)/expectedElementWidth > 0.3 {
		return nil, gridscan.ErrNotFound
	}

	oddCounts := r.oddCounts[:]
	evenCounts := r.evenCounts[:]
	oddErrors := r.oddErrors[:]
	evenErrors := r.evenErrors[:]

	for i := range counters {
		value := float64(counters[i]) / elementWidth
		count := int(value + 0.5)
		if count < 1 {
			if value < 0.3 {
				return nil, gridscan.ErrNotFound
			}
			count = 1
		} else if count > 8 {
			if value > 8.7 {
				return nil, gridscan.ErrNotFound
			}
			count = 8
		}
		offset := i / 2
		if i&1 == 0 {
			oddCounts[offset] = count
			oddErrors[offset] = value - float64(count)
		} else {
			evenCounts[offset] = count
			evenErrors[offset] = value - float64(count)
		}
	}

	if err := r.reconcileExpandedCounts(numModules); err != nil {
		return nil, err
	}

	weightRow := 4*finder.value + b2i(!isOddPattern)*2 + b2i(!leftChar) - 1

	oddSum := 0
	oddChecksum := 0
	for i := len(oddCounts) - 1; i >= 0; i-- {
		if isNotFirstA1Left(finder, isOddPattern, leftChar) {
			oddChecksum += oddCounts[i] * rssExpandedWeights[weightRow][2*i]
		}
		oddSum += oddCounts[i]
	}
	evenChecksum := 0
	for i := len(evenCounts) - 1; i >= 0; i-- {
		if isNotFirstA1Left(finder, isOddPattern, leftChar) {
			evenChecksum += evenCounts[i] * rssExpandedWeights[weightRow][2*i+1]
		}
	}

	if oddSum&1 != 0 || oddSum > 13 || oddSum < 4 {
		return nil, gridscan.ErrNotFound
	}
	group := (13 - oddSum) / 2
	oddWidest := rssExpandedSymbolWidest[group]
	evenWidest := 9 - oddWidest
	vOdd := rssCharacterValue(oddCounts, oddWidest, true)
	vEven := rssCharacterValue(evenCounts, evenWidest, false)
	value := vOdd*rssExpandedEvenTotals[group] + vEven + rssExpandedGSums[group]

	return &rssCharacter{value: value, checksumPortion: oddChecksum + evenChecksum}, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNotFirstA1Left(finder *rssFinder, isOddPattern, leftChar bool) bool {
	return !(finder.value == 0 && isOddPattern && leftChar)
}

func (r *RSSExpandedReader) reconcileExpandedCounts(numModules int) error {
	oddSum := sumSlice(r.oddCounts[:])
	evenSum := sumSlice(r.evenCounts[:])

	incrementOdd := oddSum < 4
	decrementOdd := oddSum > 13
	incrementEven := evenSum < 4
	decrementEven := evenSum > 13

	mismatch := oddSum + evenSum - numModules
	oddParityBad := oddSum&1 == 1
	evenParityBad := evenSum&1 == 0

	switch mismatch {
	case 1:
		if oddParityBad {
			if evenParityBad {
				return gridscan.ErrNotFound
			}
			decrementOdd = true
		} else {
			if !evenParityBad {
				return gridscan.ErrNotFound
			}
			decrementEven = true
		}
	case -1:
		if oddParityBad {
			if evenParityBad {
				return gridscan.ErrNotFound
			}
			incrementOdd = true
		} else {
			if !evenParityBad {
				return gridscan.ErrNotFound
			}
			incrementEven = true
		}
	case 0:
		if oddParityBad {
			if !evenParityBad {
				return gridscan.ErrNotFound
			}
			if oddSum < evenSum {
				incrementOdd = true
				decrementEven = true
			} else {
				decrementOdd = true
				incrementEven = true
			}
		} else if evenParityBad {
			return gridscan.ErrNotFound
		}
	default:
		return gridscan.ErrNotFound
	}

	if incrementOdd {
		if decrementOdd {
			return gridscan.ErrNotFound
		}
		rssBumpUp(r.oddCounts[:], r.oddErrors[:])
	}
	if decrementOdd {
		rssBumpDown(r.oddCounts[:], r.oddErrors[:])
	}
	if incrementEven {
		if decrementEven {
			return gridscan.ErrNotFound
		}
		rssBumpUp(r.evenCounts[:], r.evenErrors[:])
	}
	if decrementEven {
		rssBumpDown(r.evenCounts[:], r.evenErrors[:])
	}
	return nil
}
