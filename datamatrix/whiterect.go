package datamatrix

import (
	"math"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
)

const whiteRectInitSize = 10

// whiteRectFinder grows a rectangle outward from the image center until
// every edge rests on white, then walks the edges inward for the corner
// points of the dark region it encloses.
type whiteRectFinder struct {
	image     *bitvec.Matrix
	width     int
	height    int
	leftInit  int
	rightInit int
	downInit  int
	upInit    int
}

func newWhiteRectFinder(image *bitvec.Matrix) (*whiteRectFinder, error) {
	return newWhiteRectFinderAt(image, whiteRectInitSize, image.Width()/2, image.Height()/2)
}

func newWhiteRectFinderAt(image *bitvec.Matrix, halfSize, x, y int) (*whiteRectFinder, error) {
	w := image.Width()
	h := image.Height()
	left := x - halfSize
	right := x + halfSize
	up := y - halfSize
	down := y + halfSize
	if up < 0 || left < 0 || down >= h || right >= w {
		return nil, gridscan.ErrNotFound
	}
	return &whiteRectFinder{
		image: image, width: w, height: h,
		leftInit: left, rightInit: right, downInit: down, upInit: up,
	}, nil
}

func (f *whiteRectFinder) find() ([4]gridscan.Point, error) {
	left := f.leftInit
	right := f.rightInit
	up := f.upInit
	down := f.downInit

	var corners [4]gridscan.Point
	sizeExceeded := false
	blackOnBorder := true
	foundRight := false
	foundBottom := false
	foundLeft := false
	foundTop := false

	for blackOnBorder {
		blackOnBorder = false

		rightNotWhite := true
		for (rightNotWhite || !foundRight) && right < f.width {
			rightNotWhite = f.edgeHasBlack(up, down, right, false)
			if rightNotWhite {
				right++
				blackOnBorder = true
				foundRight = true
			} else if !foundRight {
				right++
			}
		}
		if right >= f.width {
			sizeExceeded = true
			break
		}

		bottomNotWhite := true
		for (bottomNotWhite || !foundBottom) && down < f.height {
			bottomNotWhite = f.edgeHasBlack(left, right, down, true)
			if bottomNotWhite {
				down++
				blackOnBorder = true
				foundBottom = true
			} else if !foundBottom {
				down++
			}
		}
		if down >= f.height {
			sizeExceeded = true
			break
		}

		leftNotWhite := true
		for (leftNotWhite || !foundLeft) && left >= 0 {
			leftNotWhite = f.edgeHasBlack(up, down, left, false)
			if leftNotWhite {
				left--
				blackOnBorder = true
				foundLeft = true
			} else if !foundLeft {
				left--
			}
		}
		if left < 0 {
			sizeExceeded = true
			break
		}

		topNotWhite := true
		for (topNotWhite || !foundTop) && up >= 0 {
			topNotWhite = f.edgeHasBlack(left, right, up, true)
			if topNotWhite {
				up--
				blackOnBorder = true
				foundTop = true
			} else if !foundTop {
				up--
			}
		}
		if up < 0 {
			sizeExceeded = true
			break
		}
	}

	if sizeExceeded || !foundRight || !foundBottom || !foundLeft || !foundTop {
		return corners, gridscan.ErrNotFound
	}

	maxSize := right - left
	if down-up > maxSize {
		maxSize = down - up
	}

	var (
		pA, pB, pC, pD gridscan.Point
		ok             bool
	)
	for i := 1; i < maxSize; i++ {
		if pA, ok = f.blackPointOnSegment(left, down-i, left+i, down); ok {
			break
		}
	}
	if !ok {
		return corners, gridscan.ErrNotFound
	}
	ok = false
	for i := 1; i < maxSize; i++ {
		if pB, ok = f.blackPointOnSegment(left, up+i, left+i, up); ok {
			break
		}
	}
	if !ok {
		return corners, gridscan.ErrNotFound
	}
	ok = false
	for i := 1; i < maxSize; i++ {
		if pC, ok = f.blackPointOnSegment(right, up+i, right-i, up); ok {
			break
		}
	}
	if !ok {
		return corners, gridscan.ErrNotFound
	}
	ok = false
	for i := 1; i < maxSize; i++ {
		if pD, ok = f.blackPointOnSegment(right, down-i, right-i, down); ok {
			break
		}
	}
	if !ok {
		return corners, gridscan.ErrNotFound
	}

	return f.centerEdges(pA, pB, pC, pD), nil
}

// centerEdges nudges corners inward so samples land inside the symbol.
func (f *whiteRectFinder) centerEdges(y, z, x, t gridscan.Point) [4]gridscan.Point {
	//   t --- z
	//   |     |
	//   y --- x
	if gridscan.Distance(y, t) < float64(f.width)/7.0 {
		return [4]gridscan.Point{
			{X: (y.X + t.X) / 2.0, Y: (y.Y + t.Y) / 2.0},
			{X: (z.X + x.X) / 2.0, Y: (z.Y + x.Y) / 2.0},
			{X: (y.X + x.X) / 2.0, Y: (y.Y + x.Y) / 2.0},
			{X: (t.X + z.X) / 2.0, Y: (t.Y + z.Y) / 2.0},
		}
	}
	const corr = 1.0
	return [4]gridscan.Point{
		{X: y.X + corr, Y: y.Y + corr},
		{X: z.X + corr, Y: z.Y - corr},
		{X: x.X - corr, Y: x.Y + corr},
		{X: t.X - corr, Y: t.Y - corr},
	}
}

func (f *whiteRectFinder) blackPointOnSegment(aX, aY, bX, bY int) (gridscan.Point, bool) {
	dist := math.Sqrt(float64((aX-bX)*(aX-bX) + (aY-bY)*(aY-bY)))
	if dist < 1 {
		return gridscan.Point{}, false
	}
	xStep := float64(bX-aX) / dist
	yStep := float64(bY-aY) / dist
	for i := 0.0; i < dist; i++ {
		x := int(float64(aX) + i*xStep)
		y := int(float64(aY) + i*yStep)
		if x >= 0 && x < f.width && y >= 0 && y < f.height && f.image.At(x, y) {
			return gridscan.Point{X: float64(x), Y: float64(y)}, true
		}
	}
	return gridscan.Point{}, false
}

// edgeHasBlack reports whether a horizontal or vertical segment touches any
// black pixel.
func (f *whiteRectFinder) edgeHasBlack(a, b, fixed int, horizontal bool) bool {
	if horizontal {
		for x := a; x <= b; x++ {
			if x >= 0 && x < f.width && fixed >= 0 && fixed < f.height && f.image.At(x, fixed) {
				return true
			}
		}
		return false
	}
	for y := a; y <= b; y++ {
		if fixed >= 0 && fixed < f.width && y >= 0 && y < f.height && f.image.At(fixed, y) {
			return true
		}
	}
	return false
}
