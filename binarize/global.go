// Package binarize converts luminance planes into black/white bit rasters.
// Two strategies are provided: a fast global histogram threshold and a
// shadow-tolerant local threshold.
package binarize

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	lumBits    = 5
	lumShift   = 8 - lumBits
	lumBuckets = 1 << lumBits
)

// Global thresholds the whole image against the valley between the two
// dominant histogram peaks. Cheap, and the oracle the hybrid strategy falls
// back to for small images.
type Global struct {
	source  gridscan.Luminance
	rowBuf  []byte
	buckets [lumBuckets]int
}

// NewGlobal returns a Global binarizer over source.
func NewGlobal(source gridscan.Luminance) *Global {
	return &Global{source: source}
}

// Source returns the underlying luminance view.
func (g *Global) Source() gridscan.Luminance { return g.source }

// Width returns the image width.
func (g *Global) Width() int { return g.source.Width() }

// Height returns the image height.
func (g *Global) Height() int { return g.source.Height() }

// BlackRow binarizes one row against that row's own histogram, with a mild
// sharpening filter.
func (g *Global) BlackRow(y int, row *bitvec.Vector) (*bitvec.Vector, error) {
	width := g.source.Width()
	if row == nil || row.Len() < width {
		row = bitvec.NewVector(width)
	} else {
		row.ClearAll()
	}

	g.prepare(width)
	samples := g.source.Row(y, g.rowBuf)
	for x := 0; x < width; x++ {
		g.buckets[int(samples[x])>>lumShift]++
	}
	blackPoint, err := histogramValley(g.buckets[:])
	if err != nil {
		return nil, err
	}

	if width < 3 {
		for x := 0; x < width; x++ {
			if int(samples[x]) < blackPoint {
				row.Set(x)
			}
		}
		return row, nil
	}
	left := int(samples[0])
	center := int(samples[1])
	for x := 1; x < width-1; x++ {
		right := int(samples[x+1])
		if (center*4-left-right)/2 < blackPoint {
			row.Set(x)
		}
		left = center
		center = right
	}
	return row, nil
}

// BlackMatrix binarizes the whole image against a histogram built from five
// evenly spaced rows.
func (g *Global) BlackMatrix() (*bitvec.Matrix, error) {
	width := g.source.Width()
	height := g.source.Height()
	matrix := bitvec.New(width, height)

	g.prepare(width)
	for y := 1; y <= 5; y++ {
		row := height * y / 6
		samples := g.source.Row(row, g.rowBuf)
		right := (width * 4) / 5
		for x := width / 5; x < right; x++ {
			g.buckets[int(samples[x])>>lumShift]++
		}
	}
	blackPoint, err := histogramValley(g.buckets[:])
	if err != nil {
		return nil, err
	}

	plane := g.source.Plane()
	for y := 0; y < height; y++ {
		offset := y * width
		for x := 0; x < width; x++ {
			if int(plane[offset+x]) < blackPoint {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

func (g *Global) prepare(rowLen int) {
	if len(g.rowBuf) < rowLen {
		g.rowBuf = make([]byte, rowLen)
	}
	g.buckets = [lumBuckets]int{}
}

// histogramValley picks the threshold between the histogram's two dominant
// peaks, or fails with ErrNotFound when the peaks are too close to separate
// foreground from background.
func histogramValley(buckets []int) (int, error) {
	numBuckets := len(buckets)
	maxBucketCount := 0
	firstPeak := 0
	firstPeakSize := 0
	for x := 0; x < numBuckets; x++ {
		if buckets[x] > firstPeakSize {
			firstPeak = x
			firstPeakSize = buckets[x]
		}
		if buckets[x] > maxBucketCount {
			maxBucketCount = buckets[x]
		}
	}

	// Second peak: weight distance from the first to favor true bimodality.
	secondPeak := firstPeak
	secondPeakScore := 0
	for x := 0; x < numBuckets; x++ {
		dist := x - firstPeak
		score := buckets[x] * dist * dist
		if score > secondPeakScore {
			secondPeak = x
			secondPeakScore = score
		}
	}

	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= numBuckets/16 {
		return 0, gridscan.ErrNotFound
	}

	bestValley := secondPeak - 1
	bestValleyScore := -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxBucketCount - buckets[x])
		if score > bestValleyScore {
			bestValley = x
			bestValleyScore = score
		}
	}
	return bestValley << lumShift, nil
}
