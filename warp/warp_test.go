package warp

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/lkaramanov/gridscan/bitvec"
)

func TestSquareToQuadReproducesCorners(t *testing.T) {
	c := qt.New(t)
	// A non-degenerate, non-affine quadrilateral.
	quad := []float64{2, 3, 77, 5, 95, 99, 7, 71}
	h := SquareToQuad(quad[0], quad[1], quad[2], quad[3], quad[4], quad[5], quad[6], quad[7])
	corners := []float64{0, 0, 1, 0, 1, 1, 0, 1}
	h.Project(corners)
	for i := range corners {
		c.Assert(math.Abs(corners[i]-quad[i]) < 1e-4, qt.IsTrue,
			qt.Commentf("corner coordinate %d: got %f, want %f", i, corners[i], quad[i]))
	}
}

func TestQuadToQuadInverse(t *testing.T) {
	c := qt.New(t)
	q1 := []float64{10, 10, 110, 12, 108, 120, 8, 118}
	q2 := []float64{0, 0, 50, 0, 50, 50, 0, 50}
	forward := QuadToQuad(
		q1[0], q1[1], q1[2], q1[3], q1[4], q1[5], q1[6], q1[7],
		q2[0], q2[1], q2[2], q2[3], q2[4], q2[5], q2[6], q2[7])
	back := QuadToQuad(
		q2[0], q2[1], q2[2], q2[3], q2[4], q2[5], q2[6], q2[7],
		q1[0], q1[1], q1[2], q1[3], q1[4], q1[5], q1[6], q1[7])
	points := append([]float64(nil), q1...)
	forward.Project(points)
	back.Project(points)
	for i := range points {
		c.Assert(math.Abs(points[i]-q1[i]) < 1e-4, qt.IsTrue,
			qt.Commentf("coordinate %d: got %f, want %f", i, points[i], q1[i]))
	}
}

func TestProjectSplitMatchesProject(t *testing.T) {
	c := qt.New(t)
	h := SquareToQuad(1, 2, 30, 4, 28, 40, 3, 38)
	pairs := []float64{0.5, 0.5, 0.25, 0.75, 0.9, 0.1}
	xs := []float64{0.5, 0.25, 0.9}
	ys := []float64{0.5, 0.75, 0.1}
	h.Project(pairs)
	h.ProjectSplit(xs, ys)
	for i := range xs {
		c.Assert(xs[i], qt.Equals, pairs[2*i])
		c.Assert(ys[i], qt.Equals, pairs[2*i+1])
	}
}

func TestSampleIdentity(t *testing.T) {
	c := qt.New(t)
	image := bitvec.New(10, 10)
	image.FillRegion(2, 2, 3, 3)
	h := QuadToQuad(
		0, 0, 10, 0, 10, 10, 0, 10,
		0, 0, 10, 0, 10, 10, 0, 10)
	grid, err := Sample(image, 10, 10, h)
	c.Assert(err, qt.IsNil)
	c.Assert(grid.Equal(image), qt.IsTrue)
}

func TestSampleRejectsOutOfImage(t *testing.T) {
	c := qt.New(t)
	image := bitvec.New(8, 8)
	// Target quad extends well past the image.
	h := QuadToQuad(
		0, 0, 8, 0, 8, 8, 0, 8,
		-20, -20, 30, -20, 30, 30, -20, 30)
	_, err := Sample(image, 8, 8, h)
	c.Assert(err, qt.IsNotNil)
}
