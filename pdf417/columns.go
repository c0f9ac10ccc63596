package pdf417

import "fmt"

const nearbyRowDistance = 5

// symbolColumn holds the codewords detected in one barcode column, indexed
// by image row.
type symbolColumn struct {
	box       *boundingBox
	codewords []*codeword
	// isIndicator marks the left or right row indicator columns; isLeft
	// is meaningful only for those.
	isIndicator bool
	isLeft      bool
}

func newSymbolColumn(box *boundingBox) *symbolColumn {
	return &symbolColumn{
		box:       box.clone(),
		codewords: make([]*codeword, box.maxY-box.minY+1),
	}
}

func newIndicatorColumn(box *boundingBox, isLeft bool) *symbolColumn {
	col := newSymbolColumn(box)
	col.isIndicator = true
	col.isLeft = isLeft
	return col
}

func (col *symbolColumn) rowIndex(imageRow int) int {
	return imageRow - col.box.minY
}

func (col *symbolColumn) at(imageRow int) *codeword {
	return col.codewords[col.rowIndex(imageRow)]
}

func (col *symbolColumn) set(imageRow int, cw *codeword) {
	col.codewords[col.rowIndex(imageRow)] = cw
}

// nearby returns the codeword at imageRow or the closest within
// nearbyRowDistance rows.
func (col *symbolColumn) nearby(imageRow int) *codeword {
	if cw := col.at(imageRow); cw != nil {
		return cw
	}
	for i := 1; i < nearbyRowDistance; i++ {
		near := col.rowIndex(imageRow) - i
		if near >= 0 && col.codewords[near] != nil {
			return col.codewords[near]
		}
		near = col.rowIndex(imageRow) + i
		if near < len(col.codewords) && col.codewords[near] != nil {
			return col.codewords[near]
		}
	}
	return nil
}

func (col *symbolColumn) String() string {
	result := ""
	for row, cw := range col.codewords {
		if cw == nil {
			result += fmt.Sprintf("%3d:    |   \n", row)
		} else {
			result += fmt.Sprintf("%3d: %3d|%3d\n", row, cw.rowNumber, cw.value)
		}
	}
	return result
}

// --- row indicator behavior ---

func (col *symbolColumn) indicatorTopBottom() (topY, bottomY float64) {
	if col.isLeft {
		return col.box.topLeft.Y, col.box.bottomLeft.Y
	}
	return col.box.topRight.Y, col.box.bottomRight.Y
}

func (col *symbolColumn) setRowNumbers() {
	for _, cw := range col.codewords {
		if cw != nil {
			cw.setRowNumberAsRowIndicator()
		}
	}
}

// adjustCompleteRowNumbers reconciles indicator codeword row numbers with
// the symbol metadata, dropping contradictory codewords.
func (col *symbolColumn) adjustCompleteRowNumbers(metadata *symbolMetadata) {
	codewords := col.codewords
	col.setRowNumbers()
	col.removeIncorrectCodewords(metadata)

	topY, bottomY := col.indicatorTopBottom()
	firstRow := col.rowIndex(int(topY))
	lastRow := col.rowIndex(int(bottomY))
	barcodeRow := -1
	maxRowHeight := 1
	currentRowHeight := 0
	for row := firstRow; row < lastRow; row++ {
		cw := codewords[row]
		if cw == nil {
			continue
		}
		rowDifference := cw.rowNumber - barcodeRow
		switch {
		case rowDifference == 0:
			currentRowHeight++
		case rowDifference == 1:
			if currentRowHeight > maxRowHeight {
				maxRowHeight = currentRowHeight
			}
			currentRowHeight = 1
			barcodeRow = cw.rowNumber
		case rowDifference < 0 || cw.rowNumber >= metadata.rowCount || rowDifference > row:
			codewords[row] = nil
		default:
			checkedRows := rowDifference
			if maxRowHeight > 2 {
				checkedRows = (maxRowHeight - 2) * rowDifference
			}
			closePreviousFound := checkedRows >= row
			for i := 1; i <= checkedRows && !closePreviousFound; i++ {
				closePreviousFound = codewords[row-i] != nil
			}
			if closePreviousFound {
				codewords[row] = nil
			} else {
				barcodeRow = cw.rowNumber
				currentRowHeight = 1
			}
		}
	}
}

// rowHeights returns the measured pixel height of each barcode row, or nil
// when no metadata could be read.
func (col *symbolColumn) rowHeights() []int {
	metadata := col.barcodeMetadata()
	if metadata == nil {
		return nil
	}
	col.adjustIncompleteRowNumbers(metadata)
	heights := make([]int, metadata.rowCount)
	for _, cw := range col.codewords {
		if cw != nil && cw.rowNumber >= 0 && cw.rowNumber < len(heights) {
			heights[cw.rowNumber]++
		}
	}
	return heights
}

func (col *symbolColumn) adjustIncompleteRowNumbers(metadata *symbolMetadata) {
	topY, bottomY := col.indicatorTopBottom()
	firstRow := col.rowIndex(int(topY))
	lastRow := col.rowIndex(int(bottomY))
	barcodeRow := -1
	maxRowHeight := 1
	currentRowHeight := 0
	for row := firstRow; row < lastRow; row++ {
		cw := col.codewords[row]
		if cw == nil {
			continue
		}
		cw.setRowNumberAsRowIndicator()
		rowDifference := cw.rowNumber - barcodeRow
		switch {
		case rowDifference == 0:
			currentRowHeight++
		case rowDifference == 1:
			if currentRowHeight > maxRowHeight {
				maxRowHeight = currentRowHeight
			}
			currentRowHeight = 1
			barcodeRow = cw.rowNumber
		case cw.rowNumber >= metadata.rowCount:
			col.codewords[row] = nil
		default:
			barcodeRow = cw.rowNumber
			currentRowHeight = 1
		}
	}
}

// barcodeMetadata votes across indicator codewords for the symbol geometry.
func (col *symbolColumn) barcodeMetadata() *symbolMetadata {
	columnCountVotes := newValueVotes()
	rowCountUpperVotes := newValueVotes()
	rowCountLowerVotes := newValueVotes()
	ecLevelVotes := newValueVotes()
	for _, cw := range col.codewords {
		if cw == nil {
			continue
		}
		cw.setRowNumberAsRowIndicator()
		rowIndicatorValue := cw.value % 30
		rowNumber := cw.rowNumber
		if !col.isLeft {
			rowNumber += 2
		}
		switch rowNumber % 3 {
		case 0:
			rowCountUpperVotes.add(rowIndicatorValue*3 + 1)
		case 1:
			ecLevelVotes.add(rowIndicatorValue / 3)
			rowCountLowerVotes.add(rowIndicatorValue % 3)
		case 2:
			columnCountVotes.add(rowIndicatorValue + 1)
		}
	}
	columnCounts := columnCountVotes.best()
	uppers := rowCountUpperVotes.best()
	lowers := rowCountLowerVotes.best()
	ecLevels := ecLevelVotes.best()
	if len(columnCounts) == 0 || len(uppers) == 0 || len(lowers) == 0 || len(ecLevels) == 0 ||
		columnCounts[0] < 1 ||
		uppers[0]+lowers[0] < minSymbolRows ||
		uppers[0]+lowers[0] > maxSymbolRows {
		return nil
	}
	metadata := newSymbolMetadata(columnCounts[0], uppers[0], lowers[0], ecLevels[0])
	col.removeIncorrectCodewords(metadata)
	return metadata
}

func (col *symbolColumn) removeIncorrectCodewords(metadata *symbolMetadata) {
	for row, cw := range col.codewords {
		if cw == nil {
			continue
		}
		rowIndicatorValue := cw.value % 30
		rowNumber := cw.rowNumber
		if rowNumber > metadata.rowCount {
			col.codewords[row] = nil
			continue
		}
		if !col.isLeft {
			rowNumber += 2
		}
		switch rowNumber % 3 {
		case 0:
			if rowIndicatorValue*3+1 != metadata.rowCountUpperPart {
				col.codewords[row] = nil
			}
		case 1:
			if rowIndicatorValue/3 != metadata.ecLevel ||
				rowIndicatorValue%3 != metadata.rowCountLowerPart {
				col.codewords[row] = nil
			}
		case 2:
			if rowIndicatorValue+1 != metadata.columnCount {
				col.codewords[row] = nil
			}
		}
	}
}
