package oned

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// Shared RSS machinery: finder pattern ratios, element-width voting, and
// the combinatorial character value computation.

const (
	rssMaxAvgVariance        = 0.2
	rssMaxIndividualVariance = 0.45
	rssMinFinderRatio        = 9.5 / 12.0
	rssMaxFinderRatio        = 12.5 / 14.0
)

// rssCharacter is one data character with its checksum contribution.
type rssCharacter struct {
	value           int
	checksumPortion int
}

// rssFinder is a located RSS finder pattern.
type rssFinder struct {
	value    int
	startEnd [2]int
	points   [2]gridscan.Point
}

// rssPairing is a left or right half of an RSS-14 symbol.
type rssPairing struct {
	value           int
	checksumPortion int
	finder          rssFinder
	count           int
}

func rssMatchFinder(counters []int, finderPatterns [][]int) (int, error) {
	for value := range finderPatterns {
		if RunVariance(counters, finderPatterns[value], rssMaxIndividualVariance) < rssMaxAvgVariance {
			return value, nil
		}
	}
	return 0, gridscan.ErrNotFound
}

func rssLooksLikeFinder(counters []int) bool {
	firstTwo := counters[0] + counters[1]
	sum := firstTwo + counters[2] + counters[3]
	ratio := float64(firstTwo) / float64(sum)
	if ratio < rssMinFinderRatio || ratio > rssMaxFinderRatio {
		return false
	}
	minCounter := math.MaxInt32
	maxCounter := math.MinInt32
	for _, c := range counters {
		if c > maxCounter {
			maxCounter = c
		}
		if c < minCounter {
			minCounter = c
		}
	}
	return maxCounter < 10*minCounter
}

// rssBumpUp increments the slot with the largest positive rounding error.
func rssBumpUp(counts []int, errors []float64) {
	index := 0
	biggest := errors[0]
	for i := 1; i < len(counts); i++ {
		if errors[i] > biggest {
			biggest = errors[i]
			index = i
		}
	}
	counts[index]++
}

// rssBumpDown decrements the slot with the largest negative rounding error.
func rssBumpDown(counts []int, errors []float64) {
	index := 0
	biggest := errors[0]
	for i := 1; i < len(counts); i++ {
		if errors[i] < biggest {
			biggest = errors[i]
			index = i
		}
	}
	counts[index]--
}

func binomial(n, r int) int {
	minDenom := r
	maxDenom := n - r
	if maxDenom < minDenom {
		minDenom, maxDenom = maxDenom, minDenom
	}
	val := 1
	j := 1
	for i := n; i > maxDenom; i-- {
		val *= i
		if j <= minDenom {
			val /= j
			j++
		}
	}
	for j <= minDenom {
		val /= j
		j++
	}
	return val
}

// rssCharacterValue ranks an element-width composition within its subset.
func rssCharacterValue(widths []int, maxWidth int, noNarrow bool) int {
	n := 0
	for _, w := range widths {
		n += w
	}
	val := 0
	narrowMask := 0
	elements := len(widths)
	for bar := 0; bar < elements-1; bar++ {
		elmWidth := 1
		narrowMask |= 1 << uint(bar)
		for elmWidth < widths[bar] {
			subVal := binomial(n-elmWidth-1, elements-bar-2)
			if noNarrow && narrowMask == 0 &&
				n-elmWidth-(elements-bar-1) >= elements-bar-1 {
				subVal -= binomial(n-elmWidth-(elements-bar), elements-bar-2)
			}
			if elements-bar-1 > 1 {
				lessVal := 0
				for mxwElement := n - elmWidth - (elements - bar - 2); mxwElement > maxWidth; mxwElement-- {
					lessVal += binomial(n-elmWidth-mxwElement-1, elements-bar-3)
				}
				subVal -= lessVal * (elements - 1 - bar)
			} else if n-elmWidth > maxWidth {
				subVal--
			}
			val += subVal
			elmWidth++
			narrowMask &^= 1 << uint(bar)
		}
		n -= elmWidth
	}
	return val
}

// --- RSS-14 ---

var rss14OutsideEvenTotals = []int{1, 10, 34, 70, 126}
var rss14InsideOddTotals = []int{4, 20, 48, 81}
var rss14OutsideGSums = []int{0, 161, 961, 2015, 2715}
var rss14InsideGSums = []int{0, 336, 1036, 1516}
var rss14OutsideOddWidest = []int{8, 6, 4, 3, 1}
var rss14InsideOddWidest = []int{2, 4, 6, 8}

var rss14FinderPatterns = [][]int{
	{3, 8, 2, 1},
	{3, 5, 5, 1},
	{3, 3, 7, 1},
	{3, 1, 9, 1},
	{2, 7, 4, 1},
	{2, 5, 6, 1},
	{2, 3, 8, 1},
	{1, 5, 7, 1},
	{1, 3, 9, 1},
}

// RSS14Reader decodes RSS-14 symbols, tallying pairs across rows so the
// stacked variant also reads.
type RSS14Reader struct {
	possibleLeftPairs  []rssPairing
	possibleRightPairs []rssPairing

	finderCounters [4]int
	dataCounters   [8]int
	oddErrors      [4]float64
	evenErrors     [4]float64
	oddCounts      [4]int
	evenCounts     [4]int
}

// NewRSS14Reader returns an RSS-14 reader.
func NewRSS14Reader() *RSS14Reader {
	return &RSS14Reader{}
}

// DecodeRow decodes one scan line, combining with pairs seen on earlier
// lines.
func (r *RSS14Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	leftPair := r.decodePairing(row, false, rowNumber)
	r.tallyPairing(true, leftPair)
	row.Reverse()
	rightPair := r.decodePairing(row, true, rowNumber)
	r.tallyPairing(false, rightPair)
	row.Reverse()

	for i := range r.possibleLeftPairs {
		left := &r.possibleLeftPairs[i]
		if left.count <= 1 {
			continue
		}
		for j := range r.possibleRightPairs {
			right := &r.possibleRightPairs[j]
			if right.count > 1 && rss14ChecksumOK(left, right) {
				return rss14BuildResult(left, right), nil
			}
		}
	}
	return nil, gridscan.ErrNotFound
}

func (r *RSS14Reader) tallyPairing(isLeft bool, pairing *rssPairing) {
	if pairing == nil {
		return
	}
	list := &r.possibleRightPairs
	if isLeft {
		list = &r.possibleLeftPairs
	}
	for i := range *list {
		if (*list)[i].value == pairing.value {
			(*list)[i].count++
			return
		}
	}
	pairing.count = 1
	*list = append(*list, *pairing)
}

func rss14BuildResult(left, right *rssPairing) *gridscan.Result {
	symbolValue := int64(4537077)*int64(left.value) + int64(right.value)
	text := fmt.Sprintf("%d", symbolValue)

	buf := make([]byte, 0, 14)
	for i := 13 - len(text); i > 0; i-- {
		buf = append(buf, '0')
	}
	buf = append(buf, text...)

	checkDigit := 0
	for i := 0; i < 13; i++ {
		digit := int(buf[i] - '0')
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
	buf = append(buf, byte('0'+checkDigit))

	result := gridscan.NewResult(
		string(buf), nil,
		[]gridscan.Point{
			left.finder.points[0], left.finder.points[1],
			right.finder.points[0], right.finder.points[1],
		},
		gridscan.FormatRSS14,
	)
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]e0")
	return result
}

func rss14ChecksumOK(left, right *rssPairing) bool {
	checkValue := (left.checksumPortion + 16*right.checksumPortion) % 79
	targetCheckValue := 9*left.finder.value + right.finder.value
	if targetCheckValue > 72 {
		targetCheckValue--
	}
	if targetCheckValue > 8 {
		targetCheckValue--
	}
	return checkValue == targetCheckValue
}

func (r *RSS14Reader) decodePairing(row *bitvec.Vector, right bool, rowNumber int) *rssPairing {
	startEnd, err := r.findFinder(row, right)
	if err != nil {
		return nil
	}
	finder, err := r.parseFinder(row, rowNumber, right, startEnd)
	if err != nil {
		return nil
	}
	outside, err := r.decodeCharacter(row, finder, true)
	if err != nil {
		return nil
	}
	inside, err := r.decodeCharacter(row, finder, false)
	if err != nil {
		return nil
	}
	return &rssPairing{
		value:           1597*outside.value + inside.value,
		checksumPortion: outside.checksumPortion + 4*inside.checksumPortion,
		finder:          *finder,
	}
}

func (r *RSS14Reader) decodeCharacter(row *bitvec.Vector, finder *rssFinder, outsideChar bool) (*rssCharacter, error) {
	counters := r.dataCounters[:]
	for i := range counters {
		counters[i] = 0
	}

	if outsideChar {
		if err := RecordRunsReversed(row, finder.startEnd[0], counters); err != nil {
			return nil, err
		}
	} else {
		if err := RecordRuns(row, finder.startEnd[1], counters); err != nil {
			return nil, err
		}
		for i, j := 0, len(counters)-1; i < j; i, j = i+1, j-1 {
			counters[i], counters[j] = counters[j], counters[i]
		}
	}

	numModules := 16
	if !outsideChar {
		numModules = 15
	}
	elementWidth := float64(sumSlice(counters)) / float64(numModules)

	oddCounts := r.oddCounts[:]
	evenCounts := r.evenCounts[:]
	oddErrors := r.oddErrors[:]
	evenErrors := r.evenErrors[:]

	for i := range counters {
		value := float64(counters[i]) / elementWidth
		count := int(value + 0.5)
		if count < 1 {
			count = 1
		} else if count > 8 {
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

	if err := r.reconcileCounts(outsideChar, numModules); err != nil {
		return nil, err
	}

	oddSum := 0
	oddChecksum := 0
	for i := len(oddCounts) - 1; i >= 0; i-- {
		oddChecksum = oddChecksum*9 + oddCounts[i]
		oddSum += oddCounts[i]
	}
	evenChecksum := 0
	evenSum := 0
	for i := len(evenCounts) - 1; i >= 0; i-- {
		evenChecksum = evenChecksum*9 + evenCounts[i]
		evenSum += evenCounts[i]
	}
	checksumPortion := oddChecksum + 3*evenChecksum

	if outsideChar {
		if oddSum&1 != 0 || oddSum > 12 || oddSum < 4 {
			return nil, gridscan.ErrNotFound
		}
		group := (12 - oddSum) / 2
		oddWidest := rss14OutsideOddWidest[group]
		evenWidest := 9 - oddWidest
		vOdd := rssCharacterValue(oddCounts, oddWidest, false)
		vEven := rssCharacterValue(evenCounts, evenWidest, true)
		return &rssCharacter{
			value:           vOdd*rss14OutsideEvenTotals[group] + vEven + rss14OutsideGSums[group],
			checksumPortion: checksumPortion,
		}, nil
	}

	if evenSum&1 != 0 || evenSum > 10 || evenSum < 4 {
		return nil, gridscan.ErrNotFound
	}
	group := (10 - evenSum) / 2
	oddWidest := rss14InsideOddWidest[group]
	evenWidest := 9 - oddWidest
	vOdd := rssCharacterValue(oddCounts, oddWidest, true)
	vEven := rssCharacterValue(evenCounts, evenWidest, false)
	return &rssCharacter{
		value:           vEven*rss14InsideOddTotals[group] + vOdd + rss14InsideGSums[group],
		checksumPortion: checksumPortion,
	}, nil
}

func (r *RSS14Reader) findFinder(row *bitvec.Vector, rightFinder bool) ([2]int, error) {
	counters := r.finderCounters[:]
	for i := range counters {
		counters[i] = 0
	}

	width := row.Len()
	isWhite := false
	rowOffset := 0
	for rowOffset < width {
		isWhite = !row.Bit(rowOffset)
		if rightFinder == isWhite {
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
			if rssLooksLikeFinder(counters) {
				return [2]int{patternStart, x}, nil
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
	return [2]int{}, gridscan.ErrNotFound
}

func (r *RSS14Reader) parseFinder(row *bitvec.Vector, rowNumber int, right bool, startEnd [2]int) (*rssFinder, error) {
	// The scan landed on elements 2-5; recover element 1 by walking back.
	firstIsBlack := row.Bit(startEnd[0])
	firstElementStart := startEnd[0] - 1
	for firstElementStart >= 0 && firstIsBlack != row.Bit(firstElementStart) {
		firstElementStart--
	}
	firstElementStart++
	firstCounter := startEnd[0] - firstElementStart

	counters := r.finderCounters[:]
	copy(counters[1:], counters[:3])
	counters[0] = firstCounter

	value, err := rssMatchFinder(counters, rss14FinderPatterns)
	if err != nil {
		return nil, err
	}

	start := firstElementStart
	end := startEnd[1]
	if right {
		start = row.Len() - 1 - start
		end = row.Len() - 1 - end
	}
	return &rssFinder{
		value:    value,
		startEnd: [2]int{firstElementStart, startEnd[1]},
		points: [2]gridscan.Point{
			{X: float64(start), Y: float64(rowNumber)},
			{X: float64(end), Y: float64(rowNumber)},
		},
	}, nil
}

func (r *RSS14Reader) reconcileCounts(outsideChar bool, numModules int) error {
	oddSum := sumSlice(r.oddCounts[:])
	evenSum := sumSlice(r.evenCounts[:])

	incrementOdd := false
	decrementOdd := false
	incrementEven := false
	decrementEven := false

	if outsideChar {
		if oddSum > 12 {
			decrementOdd = true
		} else if oddSum < 4 {
			incrementOdd = true
		}
		if evenSum > 12 {
			decrementEven = true
		} else if evenSum < 4 {
			incrementEven = true
		}
	} else {
		if oddSum > 11 {
			decrementOdd = true
		} else if oddSum < 5 {
			incrementOdd = true
		}
		if evenSum > 10 {
			decrementEven = true
		} else if evenSum < 4 {
			incrementEven = true
		}
	}

	mismatch := oddSum + evenSum - numModules
	oddParityBad := oddSum&1 == 1
	if !outsideChar {
		oddParityBad = oddSum&1 == 0
	}
	evenParityBad := evenSum&1 == 1

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

func sumSlice(a []int) int {
	s := 0
	for _, v := range a {
		s += v
	}
	return s
}
