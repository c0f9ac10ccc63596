package binarize

import (
	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const (
	blockPower      = 3
	blockSide       = 1 << blockPower
	blockMask       = blockSide - 1
	minHybridDim    = blockSide * 5
	minDynamicRange = 24
)

// Hybrid thresholds each pixel against a smoothed neighborhood of 8x8-block
// statistics. It recovers scans with shadows and gradients that defeat the
// global threshold; rows still use the global algorithm.
type Hybrid struct {
	Global
	matrix *bitvec.Matrix
}

// NewHybrid returns a Hybrid binarizer over source.
func NewHybrid(source gridscan.Luminance) *Hybrid {
	return &Hybrid{Global: *NewGlobal(source)}
}

// BlackMatrix binarizes with local thresholds, caching the result. Images
// too small for block statistics fall back to the global algorithm.
func (h *Hybrid) BlackMatrix() (*bitvec.Matrix, error) {
	if h.matrix != nil {
		return h.matrix, nil
	}
	source := h.Source()
	width := source.Width()
	height := source.Height()

	if width < minHybridDim || height < minHybridDim {
		m, err := h.Global.BlackMatrix()
		if err != nil {
			return nil, err
		}
		h.matrix = m
		return h.matrix, nil
	}

	plane := source.Plane()
	subWidth := width >> blockPower
	if width&blockMask != 0 {
		subWidth++
	}
	subHeight := height >> blockPower
	if height&blockMask != 0 {
		subHeight++
	}
	blackPoints := blockBlackPoints(plane, subWidth, subHeight, width, height)

	matrix := bitvec.New(width, height)
	thresholdBlocks(plane, subWidth, subHeight, width, height, blackPoints, matrix)
	h.matrix = matrix
	return h.matrix, nil
}

// thresholdBlocks thresholds each 8x8 block against the average of the 5x5
// surrounding block black points.
func thresholdBlocks(plane []byte, subWidth, subHeight, width, height int,
	blackPoints [][]int, matrix *bitvec.Matrix) {
	maxYOffset := height - blockSide
	maxXOffset := width - blockSide
	for y := 0; y < subHeight; y++ {
		yoffset := y << blockPower
		if yoffset > maxYOffset {
			yoffset = maxYOffset
		}
		top := clampIndex(y, subHeight-3)
		for x := 0; x < subWidth; x++ {
			xoffset := x << blockPower
			if xoffset > maxXOffset {
				xoffset = maxXOffset
			}
			left := clampIndex(x, subWidth-3)
			sum := 0
			for dy := -2; dy <= 2; dy++ {
				row := blackPoints[top+dy]
				sum += row[left-2] + row[left-1] + row[left] + row[left+1] + row[left+2]
			}
			average := sum / 25
			thresholdOneBlock(plane, xoffset, yoffset, average, width, matrix)
		}
	}
}

func clampIndex(value, max int) int {
	if value < 2 {
		return 2
	}
	if value > max {
		return max
	}
	return value
}

func thresholdOneBlock(plane []byte, xoffset, yoffset, threshold, stride int, matrix *bitvec.Matrix) {
	for y, offset := 0, yoffset*stride+xoffset; y < blockSide; y, offset = y+1, offset+stride {
		for x := 0; x < blockSide; x++ {
			if int(plane[offset+x]) <= threshold {
				matrix.Set(xoffset+x, yoffset+y)
			}
		}
	}
}

// blockBlackPoints computes a per-block threshold from each block's min,
// max, and mean. Low-contrast blocks take a biased-down estimate informed by
// the already computed neighbors, which distinguishes uniformly black blocks
// from uniformly white ones.
func blockBlackPoints(plane []byte, subWidth, subHeight, width, height int) [][]int {
	maxYOffset := height - blockSide
	maxXOffset := width - blockSide
	blackPoints := make([][]int, subHeight)
	for i := range blackPoints {
		blackPoints[i] = make([]int, subWidth)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := y << blockPower
		if yoffset > maxYOffset {
			yoffset = maxYOffset
		}
		for x := 0; x < subWidth; x++ {
			xoffset := x << blockPower
			if xoffset > maxXOffset {
				xoffset = maxXOffset
			}
			sum := 0
			mn := 0xFF
			mx := 0
			for yy, offset := 0, yoffset*width+xoffset; yy < blockSide; yy, offset = yy+1, offset+width {
				for xx := 0; xx < blockSide; xx++ {
					pixel := int(plane[offset+xx])
					sum += pixel
					if pixel < mn {
						mn = pixel
					}
					if pixel > mx {
						mx = pixel
					}
				}
				// Once the block shows real contrast, only the mean matters.
				if mx-mn > minDynamicRange {
					for yy, offset = yy+1, offset+width; yy < blockSide; yy, offset = yy+1, offset+width {
						for xx := 0; xx < blockSide; xx++ {
							sum += int(plane[offset+xx])
						}
					}
				}
			}

			average := sum >> (blockPower * 2)
			if mx-mn <= minDynamicRange {
				average = mn / 2
				if y > 0 && x > 0 {
					neighborAverage := (blackPoints[y-1][x] + 2*blackPoints[y][x-1] + blackPoints[y-1][x-1]) / 4
					if mn < neighborAverage {
						average = neighborAverage
					}
				}
			}
			blackPoints[y][x] = average
		}
	}
	return blackPoints
}
