package pdf417

import (
	"strconv"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
)

const (
	codewordSkewTolerance = 2
	maxAmbiguousTries     = 100
	maxExtraErasures      = 3
	maxECCodewords        = 512
)

// decodeSymbol scans the detected region column by column, votes each cell,
// corrects the codeword stream, and interprets it.
func decodeSymbol(image *bitvec.Matrix,
	imageTopLeft, imageBottomLeft, imageTopRight, imageBottomRight *gridscan.Point,
	minCodewordWidth, maxCodewordWidth int) (*internal.DecoderResult, error) {

	box, err := newBoundingBox(image, imageTopLeft, imageBottomLeft, imageTopRight, imageBottomRight)
	if err != nil {
		return nil, err
	}

	var leftIndicator, rightIndicator *symbolColumn
	var state *detectionState

	for firstPass := true; ; firstPass = false {
		if imageTopLeft != nil {
			leftIndicator = scanIndicatorColumn(image, box, *imageTopLeft, true, minCodewordWidth, maxCodewordWidth)
		}
		if imageTopRight != nil {
			rightIndicator = scanIndicatorColumn(image, box, *imageTopRight, false, minCodewordWidth, maxCodewordWidth)
		}
		state, err = mergeIndicators(leftIndicator, rightIndicator)
		if err != nil {
			return nil, err
		}
		if state == nil {
			return nil, gridscan.ErrNotFound
		}
		resultBox := state.box
		if firstPass && resultBox != nil &&
			(resultBox.minY < box.minY || resultBox.maxY > box.maxY) {
			box = resultBox
		} else {
			break
		}
	}

	state.box = box
	maxColumn := state.columnCount + 1
	if leftIndicator != nil {
		state.columns[0] = leftIndicator
	}
	if rightIndicator != nil {
		state.columns[maxColumn] = rightIndicator
	}

	leftToRight := leftIndicator != nil
	for columnStep := 1; columnStep <= maxColumn; columnStep++ {
		column := columnStep
		if !leftToRight {
			column = maxColumn - columnStep
		}
		if state.columns[column] != nil {
			continue
		}
		var col *symbolColumn
		if column == 0 || column == maxColumn {
			col = newIndicatorColumn(box, column == 0)
		} else {
			col = newSymbolColumn(box)
		}
		state.columns[column] = col

		startColumn := -1
		previousStartColumn := startColumn
		for imageRow := box.minY; imageRow <= box.maxY; imageRow++ {
			startColumn = startColumnFor(state, column, imageRow, leftToRight)
			if startColumn < 0 || startColumn > box.maxX {
				if previousStartColumn == -1 {
					continue
				}
				startColumn = previousStartColumn
			}
			cw := detectCodeword(image, box.minX, box.maxX, leftToRight,
				startColumn, imageRow, minCodewordWidth, maxCodewordWidth)
			if cw != nil {
				col.set(imageRow, cw)
				previousStartColumn = startColumn
				if cw.width() < minCodewordWidth {
					minCodewordWidth = cw.width()
				}
				if cw.width() > maxCodewordWidth {
					maxCodewordWidth = cw.width()
				}
			}
		}
	}
	return assembleResult(state)
}

func mergeIndicators(left, right *symbolColumn) (*detectionState, error) {
	if left == nil && right == nil {
		return nil, nil
	}
	metadata := mergedMetadata(left, right)
	if metadata == nil {
		return nil, nil
	}
	leftBox, err := indicatorBoundingBox(left)
	if err != nil {
		return nil, err
	}
	rightBox, err := indicatorBoundingBox(right)
	if err != nil {
		return nil, err
	}
	box, err := mergeBoundingBoxes(leftBox, rightBox)
	if err != nil {
		return nil, err
	}
	return newDetectionState(metadata, box), nil
}

// indicatorBoundingBox grows an indicator column's box to cover rows it
// could not read.
func indicatorBoundingBox(col *symbolColumn) (*boundingBox, error) {
	if col == nil {
		return nil, nil
	}
	rowHeights := col.rowHeights()
	if rowHeights == nil {
		return nil, nil
	}
	maxRowHeight := maxOfInts(rowHeights)
	missingStartRows := 0
	for _, rowHeight := range rowHeights {
		missingStartRows += maxRowHeight - rowHeight
		if rowHeight > 0 {
			break
		}
	}
	codewords := col.codewords
	for row := 0; missingStartRows > 0 && codewords[row] == nil; row++ {
		missingStartRows--
	}
	missingEndRows := 0
	for row := len(rowHeights) - 1; row >= 0; row-- {
		missingEndRows += maxRowHeight - rowHeights[row]
		if rowHeights[row] > 0 {
			break
		}
	}
	for row := len(codewords) - 1; missingEndRows > 0 && codewords[row] == nil; row-- {
		missingEndRows--
	}
	return col.box.addMissingRows(missingStartRows, missingEndRows, col.isLeft)
}

func maxOfInts(values []int) int {
	maxValue := -1
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	return maxValue
}

func mergedMetadata(left, right *symbolColumn) *symbolMetadata {
	var leftMetadata *symbolMetadata
	if left == nil {
		if right == nil {
			return nil
		}
		return right.barcodeMetadata()
	}
	leftMetadata = left.barcodeMetadata()
	if leftMetadata == nil {
		if right == nil {
			return nil
		}
		return right.barcodeMetadata()
	}
	if right == nil {
		return leftMetadata
	}
	rightMetadata := right.barcodeMetadata()
	if rightMetadata == nil {
		return leftMetadata
	}
	if leftMetadata.columnCount != rightMetadata.columnCount &&
		leftMetadata.ecLevel != rightMetadata.ecLevel &&
		leftMetadata.rowCount != rightMetadata.rowCount {
		return nil
	}
	return leftMetadata
}

// scanIndicatorColumn walks up and down from the start point detecting
// indicator codewords row by row.
func scanIndicatorColumn(image *bitvec.Matrix, box *boundingBox, startPoint gridscan.Point,
	isLeft bool, minCodewordWidth, maxCodewordWidth int) *symbolColumn {

	col := newIndicatorColumn(box, isLeft)
	for pass := 0; pass < 2; pass++ {
		increment := 1
		if pass != 0 {
			increment = -1
		}
		startColumn := int(startPoint.X)
		for imageRow := int(startPoint.Y); imageRow <= box.maxY && imageRow >= box.minY; imageRow += increment {
			cw := detectCodeword(image, 0, image.Width(), isLeft, startColumn, imageRow,
				minCodewordWidth, maxCodewordWidth)
			if cw != nil {
				col.set(imageRow, cw)
				if isLeft {
					startColumn = cw.startX
				} else {
					startColumn = cw.endX
				}
			}
		}
	}
	return col
}

// assembleResult votes the cell values, fills the codeword array, and runs
// error correction with erasures where cells stayed empty.
func assembleResult(state *detectionState) (*internal.DecoderResult, error) {
	votesMatrix := buildVotesMatrix(state)
	if err := reconcileCodewordCount(state, votesMatrix); err != nil {
		return nil, err
	}

	var erasures []int
	codewords := make([]int, state.metadata.rowCount*state.columnCount)
	var ambiguousIndexes []int
	var ambiguousValues [][]int
	for row := 0; row < state.metadata.rowCount; row++ {
		for column := 0; column < state.columnCount; column++ {
			values := votesMatrix[row][column+1].best()
			index := row*state.columnCount + column
			switch {
			case len(values) == 0:
				erasures = append(erasures, index)
			case len(values) == 1:
				codewords[index] = values[0]
			default:
				ambiguousIndexes = append(ambiguousIndexes, index)
				ambiguousValues = append(ambiguousValues, values)
			}
		}
	}
	return resolveAmbiguities(state.metadata.ecLevel, codewords, erasures, ambiguousIndexes, ambiguousValues)
}

// resolveAmbiguities walks the cross product of ambiguous cell values until
// one combination passes error correction.
func resolveAmbiguities(ecLevel int, codewords, erasures, ambiguousIndexes []int,
	ambiguousValues [][]int) (*internal.DecoderResult, error) {

	choiceIndex := make([]int, len(ambiguousIndexes))
	for tries := maxAmbiguousTries; tries > 0; tries-- {
		for i := range choiceIndex {
			codewords[ambiguousIndexes[i]] = ambiguousValues[i][choiceIndex[i]]
		}
		result, err := decodeCodewordStream(codewords, ecLevel, erasures)
		if err == nil {
			return result, nil
		}
		if err != gridscan.ErrChecksum {
			return nil, err
		}
		if len(choiceIndex) == 0 {
			return nil, gridscan.ErrChecksum
		}
		for i := 0; i < len(choiceIndex); i++ {
			if choiceIndex[i] < len(ambiguousValues[i])-1 {
				choiceIndex[i]++
				break
			}
			choiceIndex[i] = 0
			if i == len(choiceIndex)-1 {
				return nil, gridscan.ErrChecksum
			}
		}
	}
	return nil, gridscan.ErrChecksum
}

func buildVotesMatrix(state *detectionState) [][]*valueVotes {
	votesMatrix := make([][]*valueVotes, state.metadata.rowCount)
	for row := range votesMatrix {
		votesMatrix[row] = make([]*valueVotes, state.columnCount+2)
		for column := range votesMatrix[row] {
			votesMatrix[row][column] = newValueVotes()
		}
	}
	for column, col := range state.resolvedColumns() {
		if col == nil {
			continue
		}
		for _, cw := range col.codewords {
			if cw == nil || cw.rowNumber < 0 || cw.rowNumber >= len(votesMatrix) {
				continue
			}
			votesMatrix[cw.rowNumber][column].add(cw.value)
		}
	}
	return votesMatrix
}

// reconcileCodewordCount forces cell (0,1) — the symbol length descriptor —
// to agree with the detected geometry.
func reconcileCodewordCount(state *detectionState, votesMatrix [][]*valueVotes) error {
	descriptorVotes := votesMatrix[0][1]
	values := descriptorVotes.best()
	calculated := state.columnCount*state.metadata.rowCount - ecCodewordCount(state.metadata.ecLevel)
	if len(values) == 0 {
		if calculated < 1 || calculated > maxDataCodewords {
			return gridscan.ErrNotFound
		}
		descriptorVotes.add(calculated)
	} else if values[0] != calculated && calculated >= 1 && calculated <= maxDataCodewords {
		descriptorVotes.add(calculated)
	}
	return nil
}

func ecCodewordCount(ecLevel int) int {
	return 2 << uint(ecLevel)
}

func isValidColumnIndex(state *detectionState, column int) bool {
	return column >= 0 && column <= state.columnCount+1
}

// startColumnFor estimates where a codeword starts, preferring real
// neighbors over projections.
func startColumnFor(state *detectionState, column, imageRow int, leftToRight bool) int {
	offset := 1
	if !leftToRight {
		offset = -1
	}
	var cw *codeword
	if isValidColumnIndex(state, column-offset) {
		cw = state.columns[column-offset].at(imageRow)
	}
	if cw != nil {
		if leftToRight {
			return cw.endX
		}
		return cw.startX
	}
	cw = state.columns[column].nearby(imageRow)
	if cw != nil {
		if leftToRight {
			return cw.startX
		}
		return cw.endX
	}
	if isValidColumnIndex(state, column-offset) {
		cw = state.columns[column-offset].nearby(imageRow)
	}
	if cw != nil {
		if leftToRight {
			return cw.endX
		}
		return cw.startX
	}
	skippedColumns := 0
	for isValidColumnIndex(state, column-offset) {
		column -= offset
		for _, previous := range state.columns[column].codewords {
			if previous != nil {
				if leftToRight {
					return previous.endX + offset*skippedColumns*(previous.endX-previous.startX)
				}
				return previous.startX + offset*skippedColumns*(previous.endX-previous.startX)
			}
		}
		skippedColumns++
	}
	if leftToRight {
		return state.box.minX
	}
	return state.box.maxX
}

func detectCodeword(image *bitvec.Matrix, minColumn, maxColumn int, leftToRight bool,
	startColumn, imageRow, minCodewordWidth, maxCodewordWidth int) *codeword {

	startColumn = snapToRunStart(image, minColumn, maxColumn, leftToRight, startColumn, imageRow)
	moduleBitCount := measureRuns(image, minColumn, maxColumn, leftToRight, startColumn, imageRow)
	if moduleBitCount == nil {
		return nil
	}
	var endColumn int
	codewordBitCount := sumInts(moduleBitCount)
	if leftToRight {
		endColumn = startColumn + codewordBitCount
	} else {
		for i := 0; i < len(moduleBitCount)/2; i++ {
			j := len(moduleBitCount) - 1 - i
			moduleBitCount[i], moduleBitCount[j] = moduleBitCount[j], moduleBitCount[i]
		}
		endColumn = startColumn
		startColumn = endColumn - codewordBitCount
	}

	if !widthWithinSkew(codewordBitCount, minCodewordWidth, maxCodewordWidth) {
		return nil
	}

	pattern := decodePattern(moduleBitCount)
	value := valueForPattern(pattern)
	if value == -1 {
		return nil
	}
	return newCodeword(startColumn, endColumn, bucketForPattern(pattern), value)
}

// measureRuns collects the eight run widths of one codeword.
func measureRuns(image *bitvec.Matrix, minColumn, maxColumn int, leftToRight bool,
	startColumn, imageRow int) []int {

	imageColumn := startColumn
	moduleBitCount := make([]int, barsPerCodeword)
	moduleNumber := 0
	increment := 1
	if !leftToRight {
		increment = -1
	}
	previousPixel := leftToRight
	for ((leftToRight && imageColumn < maxColumn) || (!leftToRight && imageColumn >= minColumn)) &&
		moduleNumber < len(moduleBitCount) {
		if image.At(imageColumn, imageRow) == previousPixel {
			moduleBitCount[moduleNumber]++
			imageColumn += increment
		} else {
			moduleNumber++
			previousPixel = !previousPixel
		}
	}
	if moduleNumber == len(moduleBitCount) ||
		((imageColumn == maxColumn && leftToRight || imageColumn == minColumn && !leftToRight) &&
			moduleNumber == len(moduleBitCount)-1) {
		return moduleBitCount
	}
	return nil
}

// snapToRunStart backs the start column up to the true bar boundary,
// tolerating a couple of pixels of drift.
func snapToRunStart(image *bitvec.Matrix, minColumn, maxColumn int, leftToRight bool,
	codewordStartColumn, imageRow int) int {

	corrected := codewordStartColumn
	increment := -1
	if !leftToRight {
		increment = 1
	}
	for i := 0; i < 2; i++ {
		for (leftToRight && corrected >= minColumn || !leftToRight && corrected < maxColumn) &&
			leftToRight == image.At(corrected, imageRow) {
			if absInt(codewordStartColumn-corrected) > codewordSkewTolerance {
				return codewordStartColumn
			}
			corrected += increment
		}
		increment = -increment
		leftToRight = !leftToRight
	}
	return corrected
}

func widthWithinSkew(codewordWidth, minCodewordWidth, maxCodewordWidth int) bool {
	return minCodewordWidth-codewordSkewTolerance <= codewordWidth &&
		codewordWidth <= maxCodewordWidth+codewordSkewTolerance
}

// decodeCodewordStream corrects and interprets a complete codeword array.
func decodeCodewordStream(codewords []int, ecLevel int, erasures []int) (*internal.DecoderResult, error) {
	if len(codewords) == 0 {
		return nil, gridscan.ErrFormat
	}

	numECCodewords := 1 << uint(ecLevel+1)
	if len(erasures) > numECCodewords/2+maxExtraErasures ||
		numECCodewords < 0 || numECCodewords > maxECCodewords {
		return nil, gridscan.ErrChecksum
	}
	correctedCount, err := correctCodewords(codewords, numECCodewords, erasures)
	if err != nil {
		return nil, err
	}
	if err := verifyDescriptor(codewords, numECCodewords); err != nil {
		return nil, err
	}

	result, err := interpretCodewords(codewords, strconv.Itoa(ecLevel))
	if err != nil {
		return nil, err
	}
	result.ErrorsCorrected = correctedCount
	result.ErasuresCorrected = len(erasures)
	return result, nil
}

// verifyDescriptor sanity-checks the symbol length descriptor in cell 0.
func verifyDescriptor(codewords []int, numECCodewords int) error {
	if len(codewords) < 4 {
		return gridscan.ErrFormat
	}
	descriptor := codewords[0]
	if descriptor > len(codewords) {
		return gridscan.ErrFormat
	}
	if descriptor == 0 {
		if numECCodewords < len(codewords) {
			codewords[0] = len(codewords) - numECCodewords
		} else {
			return gridscan.ErrFormat
		}
	}
	return nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
