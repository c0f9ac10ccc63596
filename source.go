package gridscan

import "fmt"

// Luminance is a read-only view over a plane of 8-bit greyscale samples,
// where 0 is black and 255 is white. Implementations never copy the backing
// buffer except where documented.
type Luminance interface {
	// Row returns one row of samples. A non-nil buf of sufficient length
	// is reused.
	Row(y int, buf []byte) []byte

	// Plane returns the whole sample plane, row-major.
	Plane() []byte

	// Width returns the view width.
	Width() int

	// Height returns the view height.
	Height() int
}

// PlanarLuminance is a Luminance backed by a byte plane, optionally windowed
// onto a sub-rectangle of a larger plane. Crops share the backing buffer.
type PlanarLuminance struct {
	pix        []byte
	dataWidth  int
	dataHeight int
	left       int
	top        int
	width      int
	height     int
}

// NewPlanarLuminance wraps a width x height greyscale plane.
func NewPlanarLuminance(pix []byte, width, height int) *PlanarLuminance {
	if len(pix) < width*height {
		panic("gridscan: luminance plane too small")
	}
	return &PlanarLuminance{
		pix:        pix,
		dataWidth:  width,
		dataHeight: height,
		width:      width,
		height:     height,
	}
}

// Row returns a row of samples from within the view window.
func (s *PlanarLuminance) Row(y int, buf []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if buf == nil || len(buf) < s.width {
		buf = make([]byte, s.width)
	}
	offset := (s.top+y)*s.dataWidth + s.left
	copy(buf, s.pix[offset:offset+s.width])
	return buf
}

// Plane returns the window contents, copying only when the view is cropped.
func (s *PlanarLuminance) Plane() []byte {
	if s.width == s.dataWidth && s.height == s.dataHeight {
		return s.pix
	}
	out := make([]byte, s.width*s.height)
	for y := 0; y < s.height; y++ {
		offset := (s.top+y)*s.dataWidth + s.left
		copy(out[y*s.width:], s.pix[offset:offset+s.width])
	}
	return out
}

// Width returns the view width.
func (s *PlanarLuminance) Width() int { return s.width }

// Height returns the view height.
func (s *PlanarLuminance) Height() int { return s.height }

// Crop returns a view onto the given window, sharing the backing buffer.
func (s *PlanarLuminance) Crop(left, top, width, height int) (*PlanarLuminance, error) {
	if left < 0 || top < 0 || width < 1 || height < 1 ||
		left+width > s.width || top+height > s.height {
		return nil, fmt.Errorf("crop window %dx%d+%d+%d outside %dx%d source: %w",
			width, height, left, top, s.width, s.height, ErrBadInput)
	}
	return &PlanarLuminance{
		pix:        s.pix,
		dataWidth:  s.dataWidth,
		dataHeight: s.dataHeight,
		left:       s.left + left,
		top:        s.top + top,
		width:      width,
		height:     height,
	}, nil
}

// RotateCCW returns the view rotated a quarter turn counterclockwise. The
// samples are materialized; the result no longer aliases the source.
func (s *PlanarLuminance) RotateCCW() *PlanarLuminance {
	newWidth := s.height
	newHeight := s.width
	rotated := make([]byte, newWidth*newHeight)
	plane := s.Plane()
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			rotated[(s.width-1-x)*newWidth+y] = plane[y*s.width+x]
		}
	}
	return NewPlanarLuminance(rotated, newWidth, newHeight)
}

// RotateCCW45 is not provided for planar sources.
func (s *PlanarLuminance) RotateCCW45() (Luminance, error) {
	return nil, fmt.Errorf("45 degree rotation: %w", ErrUnsupported)
}

// InvertedLuminance is a lazy view that flips black and white.
type InvertedLuminance struct {
	src Luminance
}

// Invert returns a view of src with luminance reversed. Inverting an
// inverted view unwraps it.
func Invert(src Luminance) Luminance {
	if inv, ok := src.(*InvertedLuminance); ok {
		return inv.src
	}
	return &InvertedLuminance{src: src}
}

// Row returns the inverted samples of one row.
func (s *InvertedLuminance) Row(y int, buf []byte) []byte {
	buf = s.src.Row(y, buf)
	if buf == nil {
		return nil
	}
	for i := 0; i < s.src.Width(); i++ {
		buf[i] = 255 - buf[i]
	}
	return buf
}

// Plane returns the inverted sample plane.
func (s *InvertedLuminance) Plane() []byte {
	src := s.src.Plane()
	out := make([]byte, len(src))
	for i, v := range src {
		out[i] = 255 - v
	}
	return out
}

// Width returns the view width.
func (s *InvertedLuminance) Width() int { return s.src.Width() }

// Height returns the view height.
func (s *InvertedLuminance) Height() int { return s.src.Height() }
