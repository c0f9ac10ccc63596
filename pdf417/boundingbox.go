package pdf417

import (
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

// boundingBox frames a detected symbol. Either side's corner pair may be
// missing and is then projected to the image edge.
type boundingBox struct {
	image       *bitvec.Matrix
	topLeft     gridscan.Point
	bottomLeft  gridscan.Point
	topRight    gridscan.Point
	bottomRight gridscan.Point
	minX        int
	maxX        int
	minY        int
	maxY        int
}

func newBoundingBox(image *bitvec.Matrix, topLeft, bottomLeft, topRight, bottomRight *gridscan.Point) (*boundingBox, error) {
	leftMissing := topLeft == nil || bottomLeft == nil
	rightMissing := topRight == nil || bottomRight == nil
	if leftMissing && rightMissing {
		return nil, gridscan.ErrNotFound
	}

	var tl, bl, tr, br gridscan.Point
	switch {
	case leftMissing:
		tl = gridscan.Point{X: 0, Y: topRight.Y}
		bl = gridscan.Point{X: 0, Y: bottomRight.Y}
		tr = *topRight
		br = *bottomRight
	case rightMissing:
		tl = *topLeft
		bl = *bottomLeft
		tr = gridscan.Point{X: float64(image.Width() - 1), Y: topLeft.Y}
		br = gridscan.Point{X: float64(image.Width() - 1), Y: bottomLeft.Y}
	default:
		tl = *topLeft
		bl = *bottomLeft
		tr = *topRight
		br = *bottomRight
	}

	return &boundingBox{
		image:       image,
		topLeft:     tl,
		bottomLeft:  bl,
		topRight:    tr,
		bottomRight: br,
		minX:        int(math.Min(tl.X, bl.X)),
		maxX:        int(math.Max(tr.X, br.X)),
		minY:        int(math.Min(tl.Y, tr.Y)),
		maxY:        int(math.Max(bl.Y, br.Y)),
	}, nil
}

func (bb *boundingBox) clone() *boundingBox {
	c := *bb
	return &c
}

func mergeBoundingBoxes(left, right *boundingBox) (*boundingBox, error) {
	if left == nil {
		return right, nil
	}
	if right == nil {
		return left, nil
	}
	tl := left.topLeft
	bl := left.bottomLeft
	tr := right.topRight
	br := right.bottomRight
	return newBoundingBox(left.image, &tl, &bl, &tr, &br)
}

// addMissingRows grows the box to cover rows the indicator column missed at
// the top or bottom of one side.
func (bb *boundingBox) addMissingRows(missingStartRows, missingEndRows int, isLeft bool) (*boundingBox, error) {
	newTopLeft := bb.topLeft
	newBottomLeft := bb.bottomLeft
	newTopRight := bb.topRight
	newBottomRight := bb.bottomRight

	if missingStartRows > 0 {
		top := bb.topLeft
		if !isLeft {
			top = bb.topRight
		}
		newMinY := int(top.Y) - missingStartRows
		if newMinY < 0 {
			newMinY = 0
		}
		newTop := gridscan.Point{X: top.X, Y: float64(newMinY)}
		if isLeft {
			newTopLeft = newTop
		} else {
			newTopRight = newTop
		}
	}

	if missingEndRows > 0 {
		bottom := bb.bottomLeft
		if !isLeft {
			bottom = bb.bottomRight
		}
		newMaxY := int(bottom.Y) + missingEndRows
		if newMaxY >= bb.image.Height() {
			newMaxY = bb.image.Height() - 1
		}
		newBottom := gridscan.Point{X: bottom.X, Y: float64(newMaxY)}
		if isLeft {
			newBottomLeft = newBottom
		} else {
			newBottomRight = newBottom
		}
	}

	return newBoundingBox(bb.image, &newTopLeft, &newBottomLeft, &newTopRight, &newBottomRight)
}
