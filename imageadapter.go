package gridscan

import (
	"image"
	"image/color"
)

// LuminanceFromImage converts a Go image to a PlanarLuminance using the
// (306*R + 601*G + 117*B + 0x200) >> 10 greyscale weighting on 8-bit
// components. Fully transparent pixels become white.
func LuminanceFromImage(img image.Image) *PlanarLuminance {
	if gray, ok := img.(*image.Gray); ok {
		return LuminanceFromGray(gray)
	}
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			if a == 0 {
				pix[y*w+x] = 0xFF
				continue
			}
			r8 := r >> 8
			g8 := g >> 8
			b8 := b >> 8
			pix[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
		}
	}
	return NewPlanarLuminance(pix, w, h)
}

// LuminanceFromGray adapts a greyscale image directly, copying rows only
// when the stride requires it.
func LuminanceFromGray(img *image.Gray) *PlanarLuminance {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if img.Stride == w && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		pix := make([]byte, w*h)
		copy(pix, img.Pix[:w*h])
		return NewPlanarLuminance(pix, w, h)
	}
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		src := (bounds.Min.Y+y)*img.Stride + bounds.Min.X
		copy(pix[y*w:], img.Pix[src:src+w])
	}
	return NewPlanarLuminance(pix, w, h)
}

// RenderMatrix draws a module matrix as a greyscale image, dark modules
// black and light modules white.
func RenderMatrix(matrix interface {
	Width() int
	Height() int
	At(x, y int) bool
}) *image.Gray {
	w := matrix.Width()
	h := matrix.Height()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.At(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
