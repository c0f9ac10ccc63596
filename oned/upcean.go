package oned

import (
	"strings"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	upceanMaxAvgVariance        = 0.48
	upceanMaxIndividualVariance = 0.7
)

// UPC/EAN guard patterns.
var (
	upceanSideGuard   = []int{1, 1, 1}
	upceanMiddleGuard = []int{1, 1, 1, 1, 1}
	upceanUPCEEnd     = []int{1, 1, 1, 1, 1, 1}
)

// digitPatterns holds the "L" run widths for digits 0-9.
var digitPatterns = [10][]int{
	{3, 2, 1, 1},
	{2, 2, 2, 1},
	{2, 1, 2, 2},
	{1, 4, 1, 1},
	{1, 1, 3, 2},
	{1, 2, 3, 1},
	{1, 1, 1, 4},
	{1, 3, 1, 2},
	{1, 2, 1, 3},
	{3, 1, 1, 2},
}

// digitAndParityPatterns extends digitPatterns with the reversed "G"
// patterns at indexes 10-19.
var digitAndParityPatterns [20][]int

func init() {
	for i := 0; i < 10; i++ {
		digitAndParityPatterns[i] = digitPatterns[i]
	}
	for i := 10; i < 20; i++ {
		widths := digitPatterns[i-10]
		reversed := make([]int, len(widths))
		for j := range widths {
			reversed[j] = widths[len(widths)-j-1]
		}
		digitAndParityPatterns[i] = reversed
	}
}

// middleDecoder is the per-variant half of a UPC/EAN reader.
type middleDecoder interface {
	// DecodeMiddle appends the digits between the guards to result and
	// returns the offset where the end guard search begins.
	DecodeMiddle(row *bitvec.Vector, startRange [2]int, result *strings.Builder) (int, error)

	// Format reports which family member this decodes.
	Format() gridscan.Format
}

// decodeUPCEANRow runs the shared guard/digits/checksum flow, then looks
// for a 2- or 5-digit add-on.
func decodeUPCEANRow(rowNumber int, row *bitvec.Vector, decoder middleDecoder, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	startRange, err := findStartGuard(row)
	if err != nil {
		return nil, err
	}

	var digits strings.Builder
	endStart, err := decoder.DecodeMiddle(row, startRange, &digits)
	if err != nil {
		return nil, err
	}

	endRange, err := findEndGuard(row, endStart, decoder.Format())
	if err != nil {
		return nil, err
	}

	// Quiet zone after the symbol, as wide as the end guard.
	end := endRange[1]
	quietEnd := end + (end - endRange[0])
	if quietEnd >= row.Len() || !row.IsRange(end, quietEnd, false) {
		return nil, gridscan.ErrNotFound
	}

	text := digits.String()
	if len(text) < 8 {
		return nil, gridscan.ErrFormat
	}

	format := decoder.Format()
	checksumText := text
	if format == gridscan.FormatUPCE {
		checksumText = ExpandUPCE(text)
	}
	if !checkChecksum(checksumText) {
		return nil, gridscan.ErrChecksum
	}

	left := float64(startRange[1]+startRange[0]) / 2.0
	right := float64(endRange[1]+endRange[0]) / 2.0
	result := gridscan.NewResult(
		text, nil,
		[]gridscan.Point{
			{X: left, Y: float64(rowNumber)},
			{X: right, Y: float64(rowNumber)},
		},
		format,
	)

	symbologyID := "0"
	if format == gridscan.FormatEAN8 {
		symbologyID = "4"
	}
	result.PutMetadata(gridscan.KeySymbologyIdentifier, "]E"+symbologyID)

	// Add-on barcodes sit a short distance after the end guard.
	extensionLength := 0
	if extension, err := decodeAddOn(rowNumber, row, endRange[1]); err == nil {
		result.PutMetadata(gridscan.KeyUPCEANExtension, extension.Text)
		result.PutAllMetadata(extension.Metadata)
		result.AddPoints(extension.Points)
		extensionLength = len(extension.Text)
	}
	if opts != nil && len(opts.AllowedEANExtensions) > 0 {
		valid := false
		for _, allowed := range opts.AllowedEANExtensions {
			if extensionLength == allowed {
				valid = true
				break
			}
		}
		if !valid {
			return nil, gridscan.ErrNotFound
		}
	}

	if format == gridscan.FormatEAN13 || format == gridscan.FormatUPCA {
		if country := countryForEAN13(text); country != "" {
			result.PutMetadata(gridscan.KeyPossibleCountry, country)
		}
	}
	return result, nil
}

// checkChecksum verifies the trailing UPC/EAN check digit.
func checkChecksum(s string) bool {
	if len(s) == 0 {
		return false
	}
	check := int(s[len(s)-1] - '0')
	return checksumDigit(s[:len(s)-1]) == check
}

// checksumDigit computes the check digit for a digit string without one.
func checksumDigit(s string) int {
	sum := 0
	for i := len(s) - 1; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	sum *= 3
	for i := len(s) - 2; i >= 0; i -= 2 {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return -1
		}
		sum += d
	}
	return (1000 - sum) % 10
}

func findStartGuard(row *bitvec.Vector) ([2]int, error) {
	counters := make([]int, len(upceanSideGuard))
	nextStart := 0
	for {
		for i := range counters {
			counters[i] = 0
		}
		startRange, err := findGuard(row, nextStart, false, upceanSideGuard, counters)
		if err != nil {
			return [2]int{}, err
		}
		start := startRange[0]
		nextStart = startRange[1]
		quietStart := start - (nextStart - start)
		if quietStart >= 0 && row.IsRange(quietStart, start, false) {
			return startRange, nil
		}
	}
}

func findEndGuard(row *bitvec.Vector, endStart int, format gridscan.Format) ([2]int, error) {
	if format == gridscan.FormatUPCE {
		return findGuard(row, endStart, true, upceanUPCEEnd, make([]int, len(upceanUPCEEnd)))
	}
	return findGuard(row, endStart, false, upceanSideGuard, make([]int, len(upceanSideGuard)))
}

func findGuard(row *bitvec.Vector, rowOffset int, whiteFirst bool, pattern, counters []int) ([2]int, error) {
	width := row.Len()
	if whiteFirst {
		rowOffset = row.NextUnset(rowOffset)
	} else {
		rowOffset = row.NextSet(rowOffset)
	}
	counterPosition := 0
	patternStart := rowOffset
	patternLength := len(pattern)
	isWhite := whiteFirst

	for x := rowOffset; x < width; x++ {
		if row.Bit(x) != isWhite {
			counters[counterPosition]++
			continue
		}
		if counterPosition == patternLength-1 {
			if RunVariance(counters, pattern, upceanMaxIndividualVariance) < upceanMaxAvgVariance {
				return [2]int{patternStart, x}, nil
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
	return [2]int{}, gridscan.ErrNotFound
}

func findMiddleGuard(row *bitvec.Vector, rowOffset int) ([2]int, error) {
	return findGuard(row, rowOffset, true, upceanMiddleGuard, make([]int, len(upceanMiddleGuard)))
}

// decodeDigit matches one digit against the given pattern set.
func decodeDigit(row *bitvec.Vector, counters []int, rowOffset int, patterns [][]int) (int, error) {
	if err := RecordRuns(row, rowOffset, counters); err != nil {
		return 0, err
	}
	bestVariance := upceanMaxAvgVariance
	bestMatch := -1
	for i, pattern := range patterns {
		variance := RunVariance(counters, pattern, upceanMaxIndividualVariance)
		if variance < bestVariance {
			bestVariance = variance
			bestMatch = i
		}
	}
	if bestMatch >= 0 {
		return bestMatch, nil
	}
	return 0, gridscan.ErrNotFound
}

// countryRange maps an EAN-13 prefix range to an issuing country code;
// digits says how many leading digits the range spans.
type countryRange struct {
	low, high int
	digits    int
	country   string
}

var countryRanges = []countryRange{
	{0, 19, 2, "US/CA"}, {30, 39, 2, "US"}, {60, 139, 3, "US/CA"},
	{300, 379, 3, "FR"}, {380, 380, 3, "BG"}, {383, 383, 3, "SI"},
	{385, 385, 3, "HR"}, {387, 387, 3, "BA"}, {400, 440, 3, "DE"},
	{450, 459, 3, "JP"}, {460, 469, 3, "RU"}, {471, 471, 3, "TW"},
	{474, 474, 3, "EE"}, {475, 475, 3, "LV"}, {476, 476, 3, "AZ"},
	{477, 477, 3, "LT"}, {478, 478, 3, "UZ"}, {479, 479, 3, "LK"},
	{480, 480, 3, "PH"}, {481, 481, 3, "BY"}, {482, 482, 3, "UA"},
	{484, 484, 3, "MD"}, {485, 485, 3, "AM"}, {486, 486, 3, "GE"},
	{487, 487, 3, "KZ"}, {489, 489, 3, "HK"}, {490, 499, 3, "JP"},
	{500, 509, 3, "GB"}, {520, 520, 3, "GR"}, {528, 528, 3, "LB"},
	{529, 529, 3, "CY"}, {531, 531, 3, "MK"}, {535, 535, 3, "MT"},
	{539, 539, 3, "IE"}, {540, 549, 3, "BE/LU"}, {560, 560, 3, "PT"},
	{569, 569, 3, "IS"}, {570, 579, 3, "DK"}, {590, 590, 3, "PL"},
	{594, 594, 3, "RO"}, {599, 599, 3, "HU"}, {600, 601, 3, "ZA"},
	{603, 603, 3, "GH"}, {608, 608, 3, "BH"}, {609, 609, 3, "MU"},
	{611, 611, 3, "MA"}, {613, 613, 3, "DZ"}, {616, 616, 3, "KE"},
	{618, 618, 3, "CI"}, {619, 619, 3, "TN"}, {621, 621, 3, "SY"},
	{622, 622, 3, "EG"}, {624, 624, 3, "LY"}, {625, 625, 3, "JO"},
	{626, 626, 3, "IR"}, {627, 627, 3, "KW"}, {628, 628, 3, "SA"},
	{629, 629, 3, "AE"}, {640, 649, 3, "FI"}, {690, 695, 3, "CN"},
	{700, 709, 3, "NO"}, {729, 729, 3, "IL"}, {730, 739, 3, "SE"},
	{740, 740, 3, "GT"}, {741, 741, 3, "SV"}, {742, 742, 3, "HN"},
	{743, 743, 3, "NI"}, {744, 744, 3, "CR"}, {745, 745, 3, "PA"},
	{746, 746, 3, "DO"}, {750, 750, 3, "MX"}, {759, 759, 3, "VE"},
	{760, 769, 3, "CH"}, {770, 770, 3, "CO"}, {773, 773, 3, "UY"},
	{775, 775, 3, "PE"}, {777, 777, 3, "BO"}, {779, 779, 3, "AR"},
	{780, 780, 3, "CL"}, {784, 784, 3, "PY"}, {785, 785, 3, "PE"},
	{786, 786, 3, "EC"}, {789, 790, 3, "BR"}, {800, 839, 3, "IT"},
	{840, 849, 3, "ES"}, {850, 850, 3, "CU"}, {858, 858, 3, "SK"},
	{859, 859, 3, "CZ"}, {860, 860, 3, "YU"}, {865, 865, 3, "MN"},
	{867, 867, 3, "KP"}, {868, 869, 3, "TR"}, {870, 879, 3, "NL"},
	{880, 880, 3, "KR"}, {885, 885, 3, "TH"}, {888, 888, 3, "SG"},
	{890, 890, 3, "IN"}, {893, 893, 3, "VN"}, {896, 896, 3, "PK"},
	{899, 899, 3, "ID"}, {900, 919, 3, "AT"}, {930, 939, 3, "AU"},
	{940, 949, 3, "NZ"}, {955, 955, 3, "MY"}, {958, 958, 3, "MO"},
}

// countryForEAN13 maps the symbol's prefix onto the issuing country.
func countryForEAN13(text string) string {
	if len(text) < 3 {
		return ""
	}
	prefix2 := int(text[0]-'0')*10 + int(text[1]-'0')
	prefix3 := prefix2*10 + int(text[2]-'0')
	for _, r := range countryRanges {
		prefix := prefix3
		if r.digits == 2 {
			prefix = prefix2
		}
		if prefix >= r.low && prefix <= r.high {
			return r.country
		}
	}
	return ""
}
