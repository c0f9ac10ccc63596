// Package multi finds several barcodes in one image: a generic quadrant
// splitter around any single reader, and a QR-specific multi detector that
// also merges structured append sets.
package multi

import (
	gridscan "github.com/lkaramanov/gridscan"
)

const (
	minDimensionToRecur = 100
	maxRecursionDepth   = 4
)

// GenericReader wraps a single-symbol reader and recursively scans the
// regions left, above, right, and below each hit.
type GenericReader struct {
	delegate gridscan.Reader
}

// NewGenericReader wraps delegate.
func NewGenericReader(delegate gridscan.Reader) *GenericReader {
	return &GenericReader{delegate: delegate}
}

var _ gridscan.MultipleReader = (*GenericReader)(nil)

// DecodeMultiple finds every barcode the delegate can see.
func (r *GenericReader) DecodeMultiple(image *gridscan.Bitmap, opts *gridscan.DecodeOptions) ([]*gridscan.Result, error) {
	var results []*gridscan.Result
	r.decodeRegion(image, opts, &results, 0, 0, 0)
	if len(results) == 0 {
		return nil, gridscan.ErrNotFound
	}
	return results, nil
}

func (r *GenericReader) decodeRegion(image *gridscan.Bitmap, opts *gridscan.DecodeOptions,
	results *[]*gridscan.Result, xOffset, yOffset, depth int) {
	if depth > maxRecursionDepth {
		return
	}

	result, err := r.delegate.Decode(image, opts)
	if err != nil {
		return
	}

	alreadyFound := false
	for _, existing := range *results {
		if existing.Text == result.Text {
			alreadyFound = true
			break
		}
	}
	if !alreadyFound {
		*results = append(*results, translatePoints(result, xOffset, yOffset))
	}

	if len(result.Points) == 0 {
		return
	}

	width := image.Width()
	height := image.Height()
	minX := float64(width)
	minY := float64(height)
	maxX := 0.0
	maxY := 0.0
	for _, p := range result.Points {
		minX = minFloat(minX, p.X)
		minY = minFloat(minY, p.Y)
		maxX = maxFloat(maxX, p.X)
		maxY = maxFloat(maxY, p.Y)
	}

	if minX > minDimensionToRecur {
		if cropped, err := image.Crop(0, 0, int(minX), height); err == nil {
			r.decodeRegion(cropped, opts, results, xOffset, yOffset, depth+1)
		}
	}
	if minY > minDimensionToRecur {
		if cropped, err := image.Crop(0, 0, width, int(minY)); err == nil {
			r.decodeRegion(cropped, opts, results, xOffset, yOffset, depth+1)
		}
	}
	if maxX < float64(width-minDimensionToRecur) {
		if cropped, err := image.Crop(int(maxX), 0, width-int(maxX), height); err == nil {
			r.decodeRegion(cropped, opts, results, xOffset+int(maxX), yOffset, depth+1)
		}
	}
	if maxY < float64(height-minDimensionToRecur) {
		if cropped, err := image.Crop(0, int(maxY), width, height-int(maxY)); err == nil {
			r.decodeRegion(cropped, opts, results, xOffset, yOffset+int(maxY), depth+1)
		}
	}
}

func translatePoints(result *gridscan.Result, xOffset, yOffset int) *gridscan.Result {
	if len(result.Points) == 0 {
		return result
	}
	moved := make([]gridscan.Point, len(result.Points))
	for i, p := range result.Points {
		moved[i] = gridscan.Point{X: p.X + float64(xOffset), Y: p.Y + float64(yOffset)}
	}
	translated := gridscan.NewResult(result.Text, result.RawBytes, moved, result.Format)
	translated.NumBits = result.NumBits
	translated.Timestamp = result.Timestamp
	translated.PutAllMetadata(result.Metadata)
	return translated
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
