package pdf417

import "fmt"

const adjustRowNumberSkip = 2

// detectionState collects the per-column codewords and reconciles their
// barcode row assignments via the indicator columns.
type detectionState struct {
	metadata    *symbolMetadata
	columns     []*symbolColumn
	box         *boundingBox
	columnCount int
}

func newDetectionState(metadata *symbolMetadata, box *boundingBox) *detectionState {
	return &detectionState{
		metadata:    metadata,
		columnCount: metadata.columnCount,
		box:         box,
		columns:     make([]*symbolColumn, metadata.columnCount+2),
	}
}

// resolvedColumns runs row-number adjustment to a fixed point and returns
// the columns.
func (ds *detectionState) resolvedColumns() []*symbolColumn {
	ds.adjustIndicatorColumn(ds.columns[0])
	ds.adjustIndicatorColumn(ds.columns[ds.columnCount+1])
	unadjustedCount := maxDataCodewords
	for {
		previousCount := unadjustedCount
		unadjustedCount = ds.adjustRowNumbers()
		if unadjustedCount <= 0 || unadjustedCount >= previousCount {
			break
		}
	}
	return ds.columns
}

func (ds *detectionState) adjustIndicatorColumn(col *symbolColumn) {
	if col != nil && col.isIndicator {
		col.adjustCompleteRowNumbers(ds.metadata)
	}
}

func (ds *detectionState) adjustRowNumbers() int {
	unadjustedCount := ds.adjustRowNumbersByRow()
	if unadjustedCount == 0 {
		return 0
	}
	for column := 1; column < ds.columnCount+1; column++ {
		codewords := ds.columns[column].codewords
		for row := range codewords {
			if codewords[row] == nil {
				continue
			}
			if !codewords[row].hasValidRowNumber() {
				ds.adjustRowNumberFromNeighbors(column, row)
			}
		}
	}
	return unadjustedCount
}

func (ds *detectionState) adjustRowNumbersByRow() int {
	ds.adjustRowNumbersFromBothIndicators()
	unadjustedCount := ds.adjustRowNumbersFromIndicator(true)
	return unadjustedCount + ds.adjustRowNumbersFromIndicator(false)
}

// adjustRowNumbersFromBothIndicators trusts rows where the two indicator
// columns agree.
func (ds *detectionState) adjustRowNumbersFromBothIndicators() {
	left := ds.columns[0]
	right := ds.columns[ds.columnCount+1]
	if left == nil || right == nil {
		return
	}
	for row := range left.codewords {
		if left.codewords[row] == nil || right.codewords[row] == nil ||
			left.codewords[row].rowNumber != right.codewords[row].rowNumber {
			continue
		}
		for column := 1; column <= ds.columnCount; column++ {
			cw := ds.columns[column].codewords[row]
			if cw == nil {
				continue
			}
			cw.rowNumber = left.codewords[row].rowNumber
			if !cw.hasValidRowNumber() {
				ds.columns[column].codewords[row] = nil
			}
		}
	}
}

func (ds *detectionState) adjustRowNumbersFromIndicator(fromLeft bool) int {
	indicatorIdx := 0
	if !fromLeft {
		indicatorIdx = ds.columnCount + 1
	}
	if ds.columns[indicatorIdx] == nil {
		return 0
	}
	unadjustedCount := 0
	codewords := ds.columns[indicatorIdx].codewords
	for row := range codewords {
		if codewords[row] == nil {
			continue
		}
		indicatorRowNumber := codewords[row].rowNumber
		invalidRowCounts := 0
		if fromLeft {
			for column := 1; column < ds.columnCount+1 && invalidRowCounts < adjustRowNumberSkip; column++ {
				if cw := ds.columns[column].codewords[row]; cw != nil {
					invalidRowCounts = adoptRowNumberIfValid(indicatorRowNumber, invalidRowCounts, cw)
					if !cw.hasValidRowNumber() {
						unadjustedCount++
					}
				}
			}
		} else {
			for column := ds.columnCount + 1; column > 0 && invalidRowCounts < adjustRowNumberSkip; column-- {
				if cw := ds.columns[column].codewords[row]; cw != nil {
					invalidRowCounts = adoptRowNumberIfValid(indicatorRowNumber, invalidRowCounts, cw)
					if !cw.hasValidRowNumber() {
						unadjustedCount++
					}
				}
			}
		}
	}
	return unadjustedCount
}

func adoptRowNumberIfValid(indicatorRowNumber, invalidRowCounts int, cw *codeword) int {
	if cw == nil || cw.hasValidRowNumber() {
		return invalidRowCounts
	}
	if cw.isValidRowNumber(indicatorRowNumber) {
		cw.rowNumber = indicatorRowNumber
		return 0
	}
	return invalidRowCounts + 1
}

// adjustRowNumberFromNeighbors copies a row number from the closest
// same-bucket neighbor.
func (ds *detectionState) adjustRowNumberFromNeighbors(column, row int) {
	cw := ds.columns[column].codewords[row]
	previousColumn := ds.columns[column-1].codewords
	nextColumn := previousColumn
	if ds.columns[column+1] != nil {
		nextColumn = ds.columns[column+1].codewords
	}
	codewords := ds.columns[column].codewords

	neighbors := make([]*codeword, 14)
	neighbors[2] = previousColumn[row]
	neighbors[3] = nextColumn[row]
	if row > 0 {
		neighbors[0] = codewords[row-1]
		neighbors[4] = previousColumn[row-1]
		neighbors[5] = nextColumn[row-1]
	}
	if row > 1 {
		neighbors[8] = codewords[row-2]
		neighbors[10] = previousColumn[row-2]
		neighbors[11] = nextColumn[row-2]
	}
	if row < len(codewords)-1 {
		neighbors[1] = codewords[row+1]
		neighbors[6] = previousColumn[row+1]
		neighbors[7] = nextColumn[row+1]
	}
	if row < len(codewords)-2 {
		neighbors[9] = codewords[row+2]
		neighbors[12] = previousColumn[row+2]
		neighbors[13] = nextColumn[row+2]
	}
	for _, neighbor := range neighbors {
		if neighbor != nil && neighbor.hasValidRowNumber() && neighbor.bucket == cw.bucket {
			cw.rowNumber = neighbor.rowNumber
			return
		}
	}
}

func (ds *detectionState) String() string {
	indicator := ds.columns[0]
	if indicator == nil {
		indicator = ds.columns[ds.columnCount+1]
	}
	result := ""
	for row := range indicator.codewords {
		result += fmt.Sprintf("CW %3d:", row)
		for column := 0; column < ds.columnCount+2; column++ {
			if ds.columns[column] == nil {
				result += "    |   "
				continue
			}
			cw := ds.columns[column].codewords[row]
			if cw == nil {
				result += "    |   "
				continue
			}
			result += fmt.Sprintf(" %3d|%3d", cw.rowNumber, cw.value)
		}
		result += "\n"
	}
	return result
}
