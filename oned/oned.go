// Package oned reads and writes the one-dimensional symbologies: the
// UPC/EAN family with its add-ons, Code 39/93/128, ITF, Codabar, RSS-14,
// RSS Expanded, and Telepen.
package oned

import (
	"fmt"
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

func init() {
	rowReaderFactory := func(opts *gridscan.DecodeOptions) gridscan.Reader {
		return NewReader(opts)
	}
	for _, f := range []gridscan.Format{
		gridscan.FormatCode128, gridscan.FormatCode39, gridscan.FormatCode93,
		gridscan.FormatEAN13, gridscan.FormatEAN8, gridscan.FormatUPCA,
		gridscan.FormatUPCE, gridscan.FormatITF, gridscan.FormatCodabar,
		gridscan.FormatRSS14, gridscan.FormatRSSExpanded, gridscan.FormatTelepen,
	} {
		gridscan.RegisterReader(f, rowReaderFactory)
	}

	gridscan.RegisterWriter(gridscan.FormatCode128, func() gridscan.Writer { return NewCode128Writer() })
	gridscan.RegisterWriter(gridscan.FormatCode39, func() gridscan.Writer { return NewCode39Writer() })
	gridscan.RegisterWriter(gridscan.FormatCode93, func() gridscan.Writer { return NewCode93Writer() })
	gridscan.RegisterWriter(gridscan.FormatEAN13, func() gridscan.Writer { return NewEAN13Writer() })
	gridscan.RegisterWriter(gridscan.FormatEAN8, func() gridscan.Writer { return NewEAN8Writer() })
	gridscan.RegisterWriter(gridscan.FormatUPCA, func() gridscan.Writer { return NewUPCAWriter() })
	gridscan.RegisterWriter(gridscan.FormatUPCE, func() gridscan.Writer { return NewUPCEWriter() })
	gridscan.RegisterWriter(gridscan.FormatITF, func() gridscan.Writer { return NewITFWriter() })
	gridscan.RegisterWriter(gridscan.FormatCodabar, func() gridscan.Writer { return NewCodabarWriter() })
	gridscan.RegisterWriter(gridscan.FormatTelepen, func() gridscan.Writer { return NewTelepenWriter() })
}

// RowDecoder decodes one scan line.
type RowDecoder interface {
	DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error)
}

// ScanRows runs a row decoder over scan lines sampled from the image
// center outward, trying each line forward and reversed.
func ScanRows(image *gridscan.Bitmap, decoder RowDecoder, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	width := image.Width()
	height := image.Height()
	row := bitvec.NewVector(width)

	tryHarder := opts != nil && opts.TryHarder
	rowStep := height >> 5
	if tryHarder {
		rowStep = height >> 8
	}
	if rowStep < 1 {
		rowStep = 1
	}

	maxLines := 15
	if tryHarder {
		maxLines = height
	}

	middle := height / 2
	for x := 0; x < maxLines; x++ {
		rowStepsAway := (x + 1) / 2
		rowNumber := middle
		if x&0x01 == 0 {
			rowNumber += rowStep * rowStepsAway
		} else {
			rowNumber -= rowStep * rowStepsAway
		}
		if rowNumber < 0 || rowNumber >= height {
			break
		}

		var err error
		row, err = image.BlackRow(rowNumber, row)
		if err != nil {
			continue
		}

		for attempt := 0; attempt < 2; attempt++ {
			if attempt == 1 {
				row.Reverse()
			}
			result, err := decoder.DecodeRow(rowNumber, row, opts)
			if err != nil {
				continue
			}
			if attempt == 1 {
				result.PutMetadata(gridscan.KeyOrientation, 180)
				if len(result.Points) >= 2 {
					result.Points[0] = gridscan.Point{
						X: float64(width) - result.Points[0].X - 1,
						Y: result.Points[0].Y,
					}
					result.Points[1] = gridscan.Point{
						X: float64(width) - result.Points[1].X - 1,
						Y: result.Points[1].Y,
					}
				}
			}
			for _, p := range result.Points {
				opts.NotifyPoint(p)
			}
			return result, nil
		}
	}
	return nil, gridscan.ErrNotFound
}

// RecordRuns fills counters with the widths of successive black/white runs
// starting at start.
func RecordRuns(row *bitvec.Vector, start int, counters []int) error {
	numCounters := len(counters)
	for i := range counters {
		counters[i] = 0
	}
	end := row.Len()
	if start >= end {
		return gridscan.ErrNotFound
	}
	isWhite := !row.Bit(start)
	counterPosition := 0
	i := start
	for i < end {
		if row.Bit(i) != isWhite {
			counters[counterPosition]++
		} else {
			counterPosition++
			if counterPosition == numCounters {
				break
			}
			counters[counterPosition] = 1
			isWhite = !isWhite
		}
		i++
	}
	if !(counterPosition == numCounters || (counterPosition == numCounters-1 && i == end)) {
		return gridscan.ErrNotFound
	}
	return nil
}

// RecordRunsReversed walks backwards across len(counters) transitions, then
// records forward from there.
func RecordRunsReversed(row *bitvec.Vector, start int, counters []int) error {
	transitionsLeft := len(counters)
	last := row.Bit(start)
	for start > 0 && transitionsLeft >= 0 {
		start--
		if row.Bit(start) != last {
			transitionsLeft--
			last = !last
		}
	}
	if transitionsLeft >= 0 {
		return gridscan.ErrNotFound
	}
	return RecordRuns(row, start+1, counters)
}

// RunVariance scores how closely observed run widths follow a target
// pattern; +Inf rejects outright.
func RunVariance(counters, pattern []int, maxIndividualVariance float64) float64 {
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
	maxIndividualVariance *= unitBarWidth

	totalVariance := 0.0
	for i := range counters {
		variance := math.Abs(float64(counters[i]) - float64(pattern[i])*unitBarWidth)
		if variance > maxIndividualVariance {
			return math.Inf(1)
		}
		totalVariance += variance
	}
	return totalVariance / float64(total)
}

const oneDQuietZone = 10

// RenderRow scales a module pattern into a bit matrix with quiet zones.
func RenderRow(code []bool, width, height int) *bitvec.Matrix {
	inputWidth := len(code)
	fullWidth := inputWidth + 2*oneDQuietZone
	if width < fullWidth {
		width = fullWidth
	}
	if height < 1 {
		height = 1
	}

	multiple := width / fullWidth
	if multiple < 1 {
		multiple = 1
	}
	leftPadding := (width - inputWidth*multiple) / 2

	output := bitvec.New(width, height)
	for inputX := 0; inputX < inputWidth; inputX++ {
		if !code[inputX] {
			continue
		}
		outputX := leftPadding + inputX*multiple
		for x := outputX; x < outputX+multiple && x < width; x++ {
			for y := 0; y < height; y++ {
				output.Set(x, y)
			}
		}
	}
	return output
}

// AppendRuns writes a run pattern into target starting at pos; startColor
// selects whether the first run is a bar. Returns the modules written.
func AppendRuns(target []bool, pos int, pattern []int, startColor bool) int {
	color := startColor
	added := 0
	for _, runLen := range pattern {
		for j := 0; j < runLen; j++ {
			target[pos] = color
			pos++
			added++
		}
		color = !color
	}
	return added
}

// CheckDigits rejects contents with non-digit characters.
func CheckDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("non-digit character %q: %w", s[i], gridscan.ErrBadInput)
		}
	}
	return nil
}

// Reader tries each requested 1D symbology in turn against every scan line.
type Reader struct {
	decoders        []RowDecoder
	possibleFormats map[gridscan.Format]bool
}

// NewReader builds the row decoder list from the option hints.
func NewReader(opts *gridscan.DecodeOptions) *Reader {
	var decoders []RowDecoder
	var possibleFormats map[gridscan.Format]bool

	if opts != nil && len(opts.PossibleFormats) > 0 {
		possibleFormats = make(map[gridscan.Format]bool)
		for _, f := range opts.PossibleFormats {
			possibleFormats[f] = true
		}
		// EAN-13 subsumes UPC-A; add the UPC-A adapter only when EAN-13
		// itself is not wanted.
		if possibleFormats[gridscan.FormatEAN13] {
			decoders = append(decoders, NewEAN13Reader())
		} else if possibleFormats[gridscan.FormatUPCA] {
			decoders = append(decoders, NewUPCAReader())
		}
		if possibleFormats[gridscan.FormatEAN8] {
			decoders = append(decoders, NewEAN8Reader())
		}
		if possibleFormats[gridscan.FormatUPCE] {
			decoders = append(decoders, NewUPCEReader())
		}
		if possibleFormats[gridscan.FormatCode39] {
			decoders = append(decoders, NewCode39ReaderExtended(opts.AssumeCode39CheckDigit, false))
		}
		if possibleFormats[gridscan.FormatCode93] {
			decoders = append(decoders, NewCode93Reader())
		}
		if possibleFormats[gridscan.FormatCode128] {
			decoders = append(decoders, NewCode128Reader())
		}
		if possibleFormats[gridscan.FormatITF] {
			decoders = append(decoders, NewITFReader())
		}
		if possibleFormats[gridscan.FormatCodabar] {
			decoders = append(decoders, NewCodabarReader())
		}
		if possibleFormats[gridscan.FormatRSS14] {
			decoders = append(decoders, NewRSS14Reader())
		}
		if possibleFormats[gridscan.FormatRSSExpanded] {
			decoders = append(decoders, NewRSSExpandedReader())
		}
		if possibleFormats[gridscan.FormatTelepen] {
			decoders = append(decoders, NewTelepenReader())
		}
	}

	if len(decoders) == 0 {
		decoders = []RowDecoder{
			NewEAN13Reader(),
			NewEAN8Reader(),
			NewUPCEReader(),
			NewCode39Reader(),
			NewCode93Reader(),
			NewCode128Reader(),
			NewITFReader(),
			NewCodabarReader(),
			NewRSS14Reader(),
			NewRSSExpandedReader(),
		}
	}

	return &Reader{decoders: decoders, possibleFormats: possibleFormats}
}

var _ gridscan.Reader = (*Reader)(nil)

// DecodeRow tries each symbology in order.
func (r *Reader) DecodeRow(rowNumber int, row *bitvec.Vector, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	for _, decoder := range r.decoders {
		result, err := decoder.DecodeRow(rowNumber, row, opts)
		if err == nil {
			return r.maybeConvertToUPCA(result), nil
		}
	}
	return nil, gridscan.ErrNotFound
}

// maybeConvertToUPCA strips the leading zero off EAN-13 results when the
// caller wanted UPC-A (or set no filter at all).
func (r *Reader) maybeConvertToUPCA(result *gridscan.Result) *gridscan.Result {
	if result.Format != gridscan.FormatEAN13 || len(result.Text) == 0 || result.Text[0] != '0' {
		return result
	}
	if r.possibleFormats == nil || r.possibleFormats[gridscan.FormatUPCA] {
		converted := gridscan.NewResult(result.Text[1:], nil, result.Points, gridscan.FormatUPCA)
		converted.PutAllMetadata(result.Metadata)
		return converted
	}
	return result
}

// Decode scans for a 1D symbol; with TryHarder it retries against the
// image rotated a quarter turn.
func (r *Reader) Decode(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) (*gridscan.Result, error) {
	result, err := ScanRows(image, r, opts)
	if err == nil {
		return result, nil
	}
	if opts == nil || !opts.TryHarder {
		return nil, err
	}
	rotated, rotErr := image.RotateCCW()
	if rotErr != nil {
		return nil, err
	}
	result, rotErr = ScanRows(rotated, r, opts)
	if rotErr != nil {
		return nil, err
	}
	orientation := 270
	if existing, ok := result.Metadata[gridscan.KeyOrientation].(int); ok {
		orientation = (orientation + existing) % 360
	}
	result.PutMetadata(gridscan.KeyOrientation, orientation)
	rotatedHeight := rotated.Height()
	for i, p := range result.Points {
		result.Points[i] = gridscan.Point{
			X: float64(rotatedHeight) - p.Y - 1,
			Y: p.X,
		}
	}
	return result, nil
}

// Reset implements gridscan.Reader.
func (r *Reader) Reset() {}
