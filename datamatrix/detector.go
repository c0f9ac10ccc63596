package datamatrix

import (
	"math"
	"sort"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/internal"
	"github.com/lkaramanov/gridscan/warp"
)

// Detect locates a Data Matrix symbol. The two L-shape edges are found as
// the candidate-rectangle edges with the fewest black/white transitions,
// the module count comes from the opposite timing edges, and the grid is
// sampled through the resulting corner transform.
func Detect(image *bitvec.Matrix) (*internal.DetectorResult, error) {
	finder, err := newWhiteRectFinder(image)
	if err != nil {
		return nil, err
	}
	corners, err := finder.find()
	if err != nil {
		return nil, err
	}
	pointA, pointB, pointC, pointD := corners[0], corners[1], corners[2], corners[3]

	edges := []edgeTransitions{
		countTransitions(image, pointA, pointB),
		countTransitions(image, pointA, pointC),
		countTransitions(image, pointB, pointD),
		countTransitions(image, pointC, pointD),
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].transitions < edges[j].transitions
	})

	// The corner shared by the two quietest edges is the L vertex.
	lSideOne := edges[0]
	lSideTwo := edges[1]
	pointCount := map[gridscan.Point]int{}
	pointCount[lSideOne.from]++
	pointCount[lSideOne.to]++
	pointCount[lSideTwo.from]++
	pointCount[lSideTwo.to]++

	var maybeTopLeft, bottomLeft, maybeBottomRight gridscan.Point
	haveBottomLeft := false
	for point, count := range pointCount {
		if count == 2 {
			bottomLeft = point
			haveBottomLeft = true
		} else if maybeTopLeft == (gridscan.Point{}) {
			maybeTopLeft = point
		} else {
			maybeBottomRight = point
		}
	}
	if !haveBottomLeft || maybeTopLeft == (gridscan.Point{}) || maybeBottomRight == (gridscan.Point{}) {
		return nil, gridscan.ErrNotFound
	}

	ordered := gridscan.OrderPatterns([3]gridscan.Point{maybeTopLeft, bottomLeft, maybeBottomRight})
	bottomLeft = ordered[0]
	topLeft := ordered[1]
	bottomRight := ordered[2]

	topRight := fourthCorner(pointA, pointB, pointC, pointD, bottomLeft, topLeft, bottomRight)

	// Timing edges give the module counts; symbols always have even sides.
	dimensionTop := countTransitions(image, topLeft, topRight).transitions + 2
	dimensionRight := countTransitions(image, bottomRight, topRight).transitions + 2
	if dimensionTop%2 != 0 {
		dimensionTop++
	}
	if dimensionRight%2 != 0 {
		dimensionRight++
	}
	if dimensionTop <= 0 || dimensionRight <= 0 {
		return nil, gridscan.ErrNotFound
	}

	h := warp.QuadToQuad(
		0.5, 0.5,
		float64(dimensionTop)-0.5, 0.5,
		float64(dimensionTop)-0.5, float64(dimensionRight)-0.5,
		0.5, float64(dimensionRight)-0.5,
		topLeft.X, topLeft.Y,
		topRight.X, topRight.Y,
		bottomRight.X, bottomRight.Y,
		bottomLeft.X, bottomLeft.Y,
	)
	grid, err := warp.Sample(image, dimensionTop, dimensionRight, h)
	if err != nil {
		return nil, err
	}

	return internal.NewDetectorResult(grid, []gridscan.Point{topLeft, bottomLeft, bottomRight, topRight}), nil
}

// fourthCorner picks the rectangle corner not consumed by the L: the one
// farthest, at minimum, from all three chosen corners.
func fourthCorner(a, b, c, d, bl, tl, br gridscan.Point) gridscan.Point {
	best := a
	bestScore := -1.0
	for _, p := range []gridscan.Point{a, b, c, d} {
		score := math.Min(gridscan.Distance(p, bl),
			math.Min(gridscan.Distance(p, tl), gridscan.Distance(p, br)))
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}

type edgeTransitions struct {
	from, to    gridscan.Point
	transitions int
}

// countTransitions walks a Bresenham line counting color changes.
func countTransitions(image *bitvec.Matrix, from, to gridscan.Point) edgeTransitions {
	fromX := int(from.X)
	fromY := int(from.Y)
	toX := int(to.X)
	toY := int(to.Y)

	steep := absInt(toY-fromY) > absInt(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}

	dx := absInt(toX - fromX)
	dy := absInt(toY - fromY)
	errAcc := -dx / 2
	ystep := 1
	if fromY > toY {
		ystep = -1
	}
	xstep := 1
	if fromX > toX {
		xstep = -1
	}

	at := func(x, y int) bool {
		if steep {
			return image.At(y, x)
		}
		return image.At(x, y)
	}

	transitions := 0
	inBlack := at(fromX, fromY)
	y := fromY
	for x := fromX; x != toX+xstep; x += xstep {
		isBlack := at(x, y)
		if isBlack != inBlack {
			transitions++
			inBlack = isBlack
		}
		errAcc += dy
		if errAcc > 0 {
			if y != toY {
				y += ystep
			}
			errAcc -= dx
		}
	}
	return edgeTransitions{from: from, to: to, transitions: transitions}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
