// Package warp maps sampled module grids onto image-space quadrilaterals
// and back, providing the perspective correction the 2D detectors rely on.
package warp

// Homography is a projective plane transform held as a 3x3 matrix.
type Homography struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

// QuadToQuad returns the transform taking the first quadrilateral onto the
// second. Corners are given in matching order.
func QuadToQuad(
	x0, y0, x1, y1, x2, y2, x3, y3 float64,
	x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p float64,
) *Homography {
	qToS := QuadToSquare(x0, y0, x1, y1, x2, y2, x3, y3)
	sToQ := SquareToQuad(x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p)
	return sToQ.Compose(qToS)
}

// Project transforms (x, y) pairs in place; points is [x0, y0, x1, y1, ...].
func (h *Homography) Project(points []float64) {
	last := len(points) - 1
	for i := 0; i < last; i += 2 {
		x := points[i]
		y := points[i+1]
		denominator := h.a13*x + h.a23*y + h.a33
		points[i] = (h.a11*x + h.a21*y + h.a31) / denominator
		points[i+1] = (h.a12*x + h.a22*y + h.a32) / denominator
	}
}

// ProjectSplit transforms matching x and y coordinate slices in place.
func (h *Homography) ProjectSplit(xs, ys []float64) {
	for i := range xs {
		x := xs[i]
		y := ys[i]
		denominator := h.a13*x + h.a23*y + h.a33
		xs[i] = (h.a11*x + h.a21*y + h.a31) / denominator
		ys[i] = (h.a12*x + h.a22*y + h.a32) / denominator
	}
}

// SquareToQuad returns the transform taking the unit square onto the
// quadrilateral with the given corners.
func SquareToQuad(x0, y0, x1, y1, x2, y2, x3, y3 float64) *Homography {
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// Affine case
		return &Homography{
			a11: x1 - x0, a21: x2 - x1, a31: x0,
			a12: y1 - y0, a22: y2 - y1, a32: y0,
			a13: 0, a23: 0, a33: 1,
		}
	}
	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	denominator := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / denominator
	a23 := (dx1*dy3 - dx3*dy1) / denominator
	return &Homography{
		a11: x1 - x0 + a13*x1, a21: x3 - x0 + a23*x3, a31: x0,
		a12: y1 - y0 + a13*y1, a22: y3 - y0 + a23*y3, a32: y0,
		a13: a13, a23: a23, a33: 1,
	}
}

// QuadToSquare returns the transform taking the quadrilateral with the given
// corners onto the unit square.
func QuadToSquare(x0, y0, x1, y1, x2, y2, x3, y3 float64) *Homography {
	return SquareToQuad(x0, y0, x1, y1, x2, y2, x3, y3).Adjugate()
}

// Adjugate returns the adjugate, which inverts the transform up to scale.
func (h *Homography) Adjugate() *Homography {
	return &Homography{
		a11: h.a22*h.a33 - h.a23*h.a32,
		a21: h.a23*h.a31 - h.a21*h.a33,
		a31: h.a21*h.a32 - h.a22*h.a31,
		a12: h.a13*h.a32 - h.a12*h.a33,
		a22: h.a11*h.a33 - h.a13*h.a31,
		a32: h.a12*h.a31 - h.a11*h.a32,
		a13: h.a12*h.a23 - h.a13*h.a22,
		a23: h.a13*h.a21 - h.a11*h.a23,
		a33: h.a11*h.a22 - h.a12*h.a21,
	}
}

// Compose returns h applied after other.
func (h *Homography) Compose(other *Homography) *Homography {
	return &Homography{
		a11: h.a11*other.a11 + h.a21*other.a12 + h.a31*other.a13,
		a21: h.a11*other.a21 + h.a21*other.a22 + h.a31*other.a23,
		a31: h.a11*other.a31 + h.a21*other.a32 + h.a31*other.a33,
		a12: h.a12*other.a11 + h.a22*other.a12 + h.a32*other.a13,
		a22: h.a12*other.a21 + h.a22*other.a22 + h.a32*other.a23,
		a32: h.a12*other.a31 + h.a22*other.a32 + h.a32*other.a33,
		a13: h.a13*other.a11 + h.a23*other.a12 + h.a33*other.a13,
		a23: h.a13*other.a21 + h.a23*other.a22 + h.a33*other.a23,
		a33: h.a13*other.a31 + h.a23*other.a32 + h.a33*other.a33,
	}
}
