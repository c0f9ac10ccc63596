package binarize

import (
	"errors"
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

// checkerPlane builds a plane alternating 0/255 blocks of the given size.
func checkerPlane(width, height, block int) []byte {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/block)+(y/block))%2 == 0 {
				pix[y*width+x] = 0
			} else {
				pix[y*width+x] = 255
			}
		}
	}
	return pix
}

func TestGlobalIdempotentOnBinaryInput(t *testing.T) {
	const w, h = 100, 100
	pix := checkerPlane(w, h, 10)
	source := gridscan.NewPlanarLuminance(pix, w, h)
	matrix, err := NewGlobal(source).BlackMatrix()
	if err != nil {
		t.Fatalf("BlackMatrix: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := pix[y*w+x] == 0
			if matrix.At(x, y) != want {
				t.Fatalf("(%d,%d) = %v, want %v", x, y, matrix.At(x, y), want)
			}
		}
	}
}

func TestHybridIdempotentOnBinaryInput(t *testing.T) {
	const w, h = 120, 120
	pix := checkerPlane(w, h, 12)
	source := gridscan.NewPlanarLuminance(pix, w, h)
	matrix, err := NewHybrid(source).BlackMatrix()
	if err != nil {
		t.Fatalf("BlackMatrix: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := pix[y*w+x] == 0
			if matrix.At(x, y) != want {
				t.Fatalf("(%d,%d) = %v, want %v", x, y, matrix.At(x, y), want)
			}
		}
	}
}

func TestGlobalRejectsFlatImage(t *testing.T) {
	const w, h = 50, 50
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 128
	}
	source := gridscan.NewPlanarLuminance(pix, w, h)
	if _, err := NewGlobal(source).BlackMatrix(); !errors.Is(err, gridscan.ErrNotFound) {
		t.Errorf("flat image: err = %v, want ErrNotFound", err)
	}
}

func TestGlobalBlackRow(t *testing.T) {
	const w, h = 64, 8
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				pix[y*w+x] = 0
			} else {
				pix[y*w+x] = 255
			}
		}
	}
	source := gridscan.NewPlanarLuminance(pix, w, h)
	row, err := NewGlobal(source).BlackRow(4, nil)
	if err != nil {
		t.Fatalf("BlackRow: %v", err)
	}
	// The sharpened interior should be dark on the left, light on the right.
	if !row.Bit(10) {
		t.Error("left half should be black")
	}
	if row.Bit(50) {
		t.Error("right half should be white")
	}
}

func TestHybridSmallImageFallsBack(t *testing.T) {
	const w, h = 20, 20
	pix := checkerPlane(w, h, 5)
	source := gridscan.NewPlanarLuminance(pix, w, h)
	hybrid := NewHybrid(source)
	got, err := hybrid.BlackMatrix()
	if err != nil {
		t.Fatalf("BlackMatrix: %v", err)
	}
	want, err := NewGlobal(source).BlackMatrix()
	if err != nil {
		t.Fatalf("global BlackMatrix: %v", err)
	}
	if !got.Equal(want) {
		t.Error("small-image hybrid should match global output")
	}
}

func TestInvertedViewBinarizes(t *testing.T) {
	const w, h = 100, 100
	pix := checkerPlane(w, h, 10)
	source := gridscan.Invert(gridscan.NewPlanarLuminance(pix, w, h))
	matrix, err := NewGlobal(source).BlackMatrix()
	if err != nil {
		t.Fatalf("BlackMatrix: %v", err)
	}
	if matrix.At(0, 0) {
		t.Error("inverted view should flip black to white")
	}
}
