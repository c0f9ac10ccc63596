package pdf417

import "fmt"

const rowUnknown = -1

// codeword is one detected symbol: its horizontal extent, cluster bucket,
// decoded value, and the barcode row it was eventually assigned.
type codeword struct {
	startX    int
	endX      int
	bucket    int
	value     int
	rowNumber int
}

func newCodeword(startX, endX, bucket, value int) *codeword {
	return &codeword{
		startX:    startX,
		endX:      endX,
		bucket:    bucket,
		value:     value,
		rowNumber: rowUnknown,
	}
}

func (c *codeword) hasValidRowNumber() bool {
	return c.isValidRowNumber(c.rowNumber)
}

func (c *codeword) isValidRowNumber(rowNumber int) bool {
	return rowNumber != rowUnknown && c.bucket == (rowNumber%3)*3
}

// setRowNumberAsRowIndicator derives the row from an indicator codeword's
// value and bucket.
func (c *codeword) setRowNumberAsRowIndicator() {
	c.rowNumber = (c.value/30)*3 + c.bucket/3
}

func (c *codeword) width() int { return c.endX - c.startX }

func (c *codeword) String() string {
	return fmt.Sprintf("%d|%d", c.rowNumber, c.value)
}

// valueVotes tallies how often each candidate value was seen for one cell.
type valueVotes struct {
	votes map[int]int
}

func newValueVotes() *valueVotes {
	return &valueVotes{votes: make(map[int]int)}
}

func (v *valueVotes) add(value int) {
	v.votes[value]++
}

// best returns every value tied for the highest vote count.
func (v *valueVotes) best() []int {
	maxVotes := -1
	var result []int
	for value, count := range v.votes {
		if count > maxVotes {
			maxVotes = count
			result = []int{value}
		} else if count == maxVotes {
			result = append(result, value)
		}
	}
	return result
}

// symbolMetadata is what the row indicator columns encode: geometry and EC
// level of the symbol.
type symbolMetadata struct {
	columnCount       int
	ecLevel           int
	rowCountUpperPart int
	rowCountLowerPart int
	rowCount          int
}

func newSymbolMetadata(columnCount, rowCountUpperPart, rowCountLowerPart, ecLevel int) *symbolMetadata {
	return &symbolMetadata{
		columnCount:       columnCount,
		ecLevel:           ecLevel,
		rowCountUpperPart: rowCountUpperPart,
		rowCountLowerPart: rowCountLowerPart,
		rowCount:          rowCountUpperPart + rowCountLowerPart,
	}
}
