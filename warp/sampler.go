package warp

import (
	"errors"

	"github.com/lkaramanov/gridscan/bitvec"
)

// ErrOutside is returned when a requested sample lands outside the image.
// Detectors require a full grid, so no partial result is produced.
var ErrOutside = errors.New("warp: sample outside image")

// SampleQuad resamples the region of image bounded by the from quadrilateral
// into a dimX x dimY module grid laid out on the to quadrilateral.
func SampleQuad(image *bitvec.Matrix, dimX, dimY int,
	p1ToX, p1ToY, p2ToX, p2ToY, p3ToX, p3ToY, p4ToX, p4ToY float64,
	p1FromX, p1FromY, p2FromX, p2FromY, p3FromX, p3FromY, p4FromX, p4FromY float64,
) (*bitvec.Matrix, error) {
	h := QuadToQuad(
		p1ToX, p1ToY, p2ToX, p2ToY, p3ToX, p3ToY, p4ToX, p4ToY,
		p1FromX, p1FromY, p2FromX, p2FromY, p3FromX, p3FromY, p4FromX, p4FromY)
	return Sample(image, dimX, dimY, h)
}

// Sample resamples image through h into a dimX x dimY module grid. Each cell
// (i, j) is dark iff the pixel nearest the projection of (i+0.5, j+0.5) is
// dark. Fails with ErrOutside if any sample point leaves the image.
func Sample(image *bitvec.Matrix, dimX, dimY int, h *Homography) (*bitvec.Matrix, error) {
	if dimX <= 0 || dimY <= 0 {
		return nil, ErrOutside
	}
	grid := bitvec.New(dimX, dimY)
	points := make([]float64, 2*dimX)
	for y := 0; y < dimY; y++ {
		rowCenter := float64(y) + 0.5
		for x := 0; x < len(points); x += 2 {
			points[x] = float64(x/2) + 0.5
			points[x+1] = rowCenter
		}
		h.Project(points)
		if err := clampEdgePoints(image, points); err != nil {
			return nil, err
		}
		for x := 0; x < len(points); x += 2 {
			px := int(points[x])
			py := int(points[x+1])
			if px < 0 || px >= image.Width() || py < 0 || py >= image.Height() {
				return nil, ErrOutside
			}
			if image.At(px, py) {
				grid.Set(x/2, y)
			}
		}
	}
	return grid, nil
}

// clampEdgePoints nudges points sitting one pixel outside the image back
// onto the border, and rejects anything further out. Rounding error pushes
// legitimate corner samples fractionally past the edge.
func clampEdgePoints(image *bitvec.Matrix, points []float64) error {
	width := image.Width()
	height := image.Height()

	nudge := func(offset int) (bool, error) {
		x := int(points[offset])
		y := int(points[offset+1])
		if x < -1 || x > width || y < -1 || y > height {
			return false, ErrOutside
		}
		nudged := false
		if x == -1 {
			points[offset] = 0
			nudged = true
		} else if x == width {
			points[offset] = float64(width - 1)
			nudged = true
		}
		if y == -1 {
			points[offset+1] = 0
			nudged = true
		} else if y == height {
			points[offset+1] = float64(height - 1)
			nudged = true
		}
		return nudged, nil
	}

	// Walk inward from each end while nudges keep landing.
	keepGoing := true
	for offset := 0; offset < len(points)-1 && keepGoing; offset += 2 {
		var err error
		keepGoing, err = nudge(offset)
		if err != nil {
			return err
		}
	}
	keepGoing = true
	for offset := len(points) - 2; offset >= 0 && keepGoing; offset -= 2 {
		var err error
		keepGoing, err = nudge(offset)
		if err != nil {
			return err
		}
	}
	return nil
}
