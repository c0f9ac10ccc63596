package pdf417

import (
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// DetectorResult lists every candidate symbol found in one rotation of the
// image. Each vertex slice holds eight points: four barcode corners, then
// four codeword-area corners.
type DetectorResult struct {
	Bits     *bitvec.Matrix
	Points   [][]*gridscan.Point
	Rotation int
}

var (
	startIndexes = [4]int{0, 4, 1, 5}
	stopIndexes  = [4]int{6, 2, 7, 3}
)

const (
	maxAvgVariance        = 0.42
	maxIndividualVariance = 0.8
	maxStopHeightVariance = 0.5
	maxPixelDrift         = 3
	maxPatternDrift       = 5
	maxSkippedRows        = 25
	rowStep               = 5
	minBarcodeHeight      = 10
)

var rotationOrder = [4]int{0, 180, 270, 90}

// Detect searches the image at each quarter-turn for start/stop guard
// patterns. With multiple set, every symbol in the winning rotation is
// returned.
func Detect(matrix *bitvec.Matrix, multiple, tryHarder bool) (*DetectorResult, error) {
	for _, rotation := range rotationOrder {
		rotated := rotateMatrix(matrix, rotation)
		coordinates := findBarcodes(multiple, rotated, tryHarder)
		if len(coordinates) > 0 {
			return &DetectorResult{Bits: rotated, Points: coordinates, Rotation: rotation}, nil
		}
	}
	return &DetectorResult{Bits: matrix, Rotation: 0}, nil
}

func rotateMatrix(matrix *bitvec.Matrix, rotation int) *bitvec.Matrix {
	if rotation%360 == 0 {
		return matrix
	}
	rotated := matrix.Clone()
	rotated.Rotate(rotation)
	return rotated
}

func findBarcodes(multiple bool, matrix *bitvec.Matrix, tryHarder bool) [][]*gridscan.Point {
	var coordinates [][]*gridscan.Point
	row := 0
	column := 0
	foundBarcodeInRow := false

	for row < matrix.Height() {
		vertices := findVertices(matrix, row, column, tryHarder)

		if vertices[0] == nil && vertices[3] == nil {
			if !foundBarcodeInRow {
				if !tryHarder {
					break
				}
				row += rowStep
				continue
			}
			// Restart below the lowest barcode found so far.
			foundBarcodeInRow = false
			column = 0
			for _, coordinate := range coordinates {
				if coordinate[1] != nil {
					row = int(math.Max(float64(row), coordinate[1].Y))
				}
				if coordinate[3] != nil && int(coordinate[3].Y) > row {
					row = int(coordinate[3].Y)
				}
			}
			row += rowStep
			continue
		}
		foundBarcodeInRow = true
		coordinates = append(coordinates, vertices)
		if !multiple && !tryHarder {
			break
		}
		if vertices[2] != nil {
			column = int(vertices[2].X)
			row = int(vertices[2].Y)
		} else {
			column = int(vertices[4].X)
			row = int(vertices[4].Y)
		}
	}
	return coordinates
}

// findVertices locates the start and stop patterns bounding one symbol.
//
// Slot layout: 0/1 top/bottom left of barcode, 2/3 top/bottom right, 4/5
// top/bottom left of codeword area, 6/7 top/bottom right of codeword area.
func findVertices(matrix *bitvec.Matrix, startRow, startColumn int, tryHarder bool) []*gridscan.Point {
	height := matrix.Height()
	width := matrix.Width()

	result := make([]*gridscan.Point, 8)
	minHeight := minBarcodeHeight

	copyFound(result,
		findRowsWithPattern(matrix, height, width, startRow, startColumn, minHeight, startGuard, tryHarder),
		startIndexes[:])

	if result[4] != nil {
		startColumn = int(result[4].X)
		startRow = int(result[4].Y)
		if result[5] != nil {
			patternHeight := int(result[5].Y) - startRow
			minHeight = maxOf(int(float64(patternHeight)*maxStopHeightVariance), minBarcodeHeight)
		}
	}

	copyFound(result,
		findRowsWithPattern(matrix, height, width, startRow, startColumn, minHeight, stopGuard, tryHarder),
		stopIndexes[:])
	return result
}

func copyFound(result, found []*gridscan.Point, destination []int) {
	for i, idx := range destination {
		result[idx] = found[i]
	}
}

func findRowsWithPattern(matrix *bitvec.Matrix, height, width, startRow, startColumn, minHeight int,
	pattern []int, tryHarder bool) []*gridscan.Point {

	result := make([]*gridscan.Point, 4)
	found := false
	counters := make([]int, len(pattern))

	for ; startRow < height; startRow += rowStep {
		loc := findGuardPattern(matrix, startColumn, startRow, width, pattern, counters)
		if loc != nil {
			// Back up to the first row carrying the pattern.
			for startRow > 0 {
				startRow--
				previous := findGuardPattern(matrix, startColumn, startRow, width, pattern, counters)
				if previous != nil {
					loc = previous
				} else {
					startRow++
					break
				}
			}
			result[0] = &gridscan.Point{X: float64(loc[0]), Y: float64(startRow)}
			result[1] = &gridscan.Point{X: float64(loc[1]), Y: float64(startRow)}
			found = true
			break
		}
	}

	stopRow := startRow + 1
	if found {
		skippedRowCount := 0
		previousRowLoc := [2]int{int(result[0].X), int(result[1].X)}
		for ; stopRow < height; stopRow++ {
			loc := findGuardPattern(matrix, previousRowLoc[0], stopRow, width, pattern, counters)
			// Accept only small drift row to row.
			if loc != nil &&
				absInt(previousRowLoc[0]-loc[0]) < maxPatternDrift &&
				absInt(previousRowLoc[1]-loc[1]) < maxPatternDrift {
				previousRowLoc = [2]int{loc[0], loc[1]}
				skippedRowCount = 0
			} else {
				if skippedRowCount > maxSkippedRows {
					break
				}
				skippedRowCount++
			}
		}
		stopRow -= skippedRowCount + 1
		result[2] = &gridscan.Point{X: float64(previousRowLoc[0]), Y: float64(stopRow)}
		result[3] = &gridscan.Point{X: float64(previousRowLoc[1]), Y: float64(stopRow)}
	}

	if stopRow-startRow < minHeight {
		if tryHarder && found {
			// Too short to be real; search past the rejected match.
			return findRowsWithPattern(matrix, height, width, stopRow+1+rowStep, startColumn, minHeight, pattern, tryHarder)
		}
		for i := range result {
			result[i] = nil
		}
	}
	return result
}

func findGuardPattern(matrix *bitvec.Matrix, column, row, width int, pattern, counters []int) []int {
	for i := range counters {
		counters[i] = 0
	}
	patternStart := column
	pixelDrift := 0

	// Shift left past any black pixels bleeding into the start position.
	for patternStart > 0 && pixelDrift < maxPixelDrift && matrix.At(patternStart, row) {
		patternStart--
		pixelDrift++
	}

	x := patternStart
	counterPosition := 0
	patternLength := len(pattern)
	isWhite := false

	for ; x < width; x++ {
		pixel := matrix.At(x, row)
		if pixel != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			if patternVariance(counters, pattern) < maxAvgVariance {
				return []int{patternStart, x}
			}
			patternStart += counters[0] + counters[1]
			copy(counters, counters[2:counterPosition+1])
			counters[counterPosition-1] = 0
			counters[counterPosition] = 0
			counterPosition--
		} else {
			counterPosition++
		}
		counters[counterPosition] = 1
		isWhite = !isWhite
	}
	if counterPosition == patternLength-1 && patternVariance(counters, pattern) < maxAvgVariance {
		return []int{patternStart, x - 1}
	}
	return nil
}

// patternVariance scores observed run widths against the target ratios;
// +Inf rejects outright.
func patternVariance(counters, pattern []int) float64 {
	total := 0
	patternLength := 0
	for i := range counters {
		total += counters[i]
		patternLength += pattern[i]
	}
	if total < patternLength {
		return math.Inf(1)
	}

	unitBarWidth := float64(total) / float64(patternLength)
	maxIndividual := maxIndividualVariance * unitBarWidth

	totalVariance := 0.0
	for x := range counters {
		variance := math.Abs(float64(counters[x]) - float64(pattern[x])*unitBarWidth)
		if variance > maxIndividual {
			return math.Inf(1)
		}
		totalVariance += variance
	}
	return totalVariance / float64(total)
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
