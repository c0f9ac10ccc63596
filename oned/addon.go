package oned

import (
	"fmt"
	"strconv"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// EAN/UPC add-on symbols: a 2- or 5-digit supplement after the main code.

var addOnStartGuard = []int{1, 1, 2}

var addOnCheckDigitParities = [10]int{
	0x18, 0x14, 0x12, 0x11, 0x0C, 0x06, 0x03, 0x0A, 0x09, 0x05,
}

// decodeAddOn tries the 5-digit supplement first, then the 2-digit one.
func decodeAddOn(rowNumber int, row *bitvec.Vector, rowOffset int) (*gridscan.Result, error) {
	startRange, err := findGuard(row, rowOffset, false, addOnStartGuard, make([]int, len(addOnStartGuard)))
	if err != nil {
		return nil, err
	}
	if result, err := decodeAddOn5(rowNumber, row, startRange); err == nil {
		return result, nil
	}
	return decodeAddOn2(rowNumber, row, startRange)
}

func decodeAddOn2(rowNumber int, row *bitvec.Vector, startRange [2]int) (*gridscan.Result, error) {
	counters := make([]int, 4)
	end := row.Len()
	rowOffset := startRange[1]

	checkParity := 0
	var digits [2]byte
	for x := 0; x < 2 && rowOffset < end; x++ {
		match, err := decodeDigit(row, counters, rowOffset, digitAndParityPatterns[:])
		if err != nil {
			return nil, err
		}
		digits[x] = '0' + byte(match%10)
		for _, c := range counters {
			rowOffset += c
		}
		if match >= 10 {
			checkParity |= 1 << uint(1-x)
		}
		if x != 1 {
			// Skip the inter-digit delineator.
			rowOffset = row.NextSet(rowOffset)
			rowOffset = row.NextUnset(rowOffset)
		}
	}

	text := string(digits[:])
	value, err := strconv.Atoi(text)
	if err != nil || value%4 != checkParity {
		return nil, gridscan.ErrNotFound
	}

	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: float64(startRange[0]+startRange[1]) / 2.0, Y: float64(rowNumber)},
			{X: float64(rowOffset), Y: float64(rowNumber)},
		},
		gridscan.FormatUPCEANExtension,
	)
	result.PutMetadata(gridscan.KeyIssueNumber, value)
	return result, nil
}

func decodeAddOn5(rowNumber int, row *bitvec.Vector, startRange [2]int) (*gridscan.Result, error) {
	counters := make([]int, 4)
	end := row.Len()
	rowOffset := startRange[1]

	parityPattern := 0
	var digits [5]byte
	for x := 0; x < 5 && rowOffset < end; x++ {
		match, err := decodeDigit(row, counters, rowOffset, digitAndParityPatterns[:])
		if err != nil {
			return nil, err
		}
		digits[x] = '0' + byte(match%10)
		for _, c := range counters {
			rowOffset += c
		}
		if match >= 10 {
			parityPattern |= 1 << uint(4-x)
		}
		if x != 4 {
			rowOffset = row.NextSet(rowOffset)
			rowOffset = row.NextUnset(rowOffset)
		}
	}

	text := string(digits[:])
	checkDigit, err := addOn5CheckDigit(parityPattern)
	if err != nil {
		return nil, err
	}
	if addOn5Checksum(text) != checkDigit {
		return nil, gridscan.ErrNotFound
	}

	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: float64(startRange[0]+startRange[1]) / 2.0, Y: float64(rowNumber)},
			{X: float64(rowOffset), Y: float64(rowNumber)},
		},
		gridscan.FormatUPCEANExtension,
	)
	if price := addOn5Price(text); price != "" {
		result.PutMetadata(gridscan.KeySuggestedPrice, price)
	}
	return result, nil
}

func addOn5Checksum(s string) int {
	sum := 0
	for i := len(s) - 2; i >= 0; i -= 2 {
		sum += int(s[i] - '0')
	}
	sum *= 3
	for i := len(s) - 1; i >= 0; i -= 2 {
		sum += int(s[i] - '0')
	}
	sum *= 3
	return sum % 10
}

func addOn5CheckDigit(parityPattern int) (int, error) {
	for d := 0; d < 10; d++ {
		if parityPattern == addOnCheckDigitParities[d] {
			return d, nil
		}
	}
	return 0, gridscan.ErrNotFound
}

// addOn5Price renders the supplement as a suggested retail price.
func addOn5Price(raw string) string {
	if len(raw) != 5 {
		return ""
	}
	var currency string
	switch raw[0] {
	case '0':
		currency = "£"
	case '5':
		currency = "$"
	case '9':
		switch raw {
		case "90000":
			return ""
		case "99991":
			return "0.00"
		case "99990":
			return "Used"
		}
	}
	amount, err := strconv.Atoi(raw[1:])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s%d.%02d", currency, amount/100, amount%100)
}
