package gridscan

import (
	"errors"
	"testing"
)

func TestFormatNames(t *testing.T) {
	cases := map[Format]string{
		FormatQRCode:      "QR_CODE",
		FormatEAN13:       "EAN_13",
		FormatPDF417:      "PDF_417",
		FormatDataMatrix:  "DATA_MATRIX",
		FormatRSSExpanded: "RSS_EXPANDED",
		FormatTelepen:     "TELEPEN",
	}
	for format, name := range cases {
		if format.String() != name {
			t.Errorf("%d.String() = %q, want %q", format, format.String(), name)
		}
		parsed, ok := ParseFormat(name)
		if !ok || parsed != format {
			t.Errorf("ParseFormat(%q) = %v, %v", name, parsed, ok)
		}
	}
	if _, ok := ParseFormat("NOT_A_FORMAT"); ok {
		t.Error("ParseFormat accepted an unknown name")
	}
}

func TestPlanarLuminanceWindow(t *testing.T) {
	pix := make([]byte, 10*10)
	for i := range pix {
		pix[i] = byte(i)
	}
	source := NewPlanarLuminance(pix, 10, 10)

	cropped, err := source.Crop(2, 3, 4, 5)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if cropped.Width() != 4 || cropped.Height() != 5 {
		t.Fatalf("crop is %dx%d", cropped.Width(), cropped.Height())
	}
	row := cropped.Row(0, nil)
	if row[0] != pix[3*10+2] {
		t.Errorf("cropped row starts with %d, want %d", row[0], pix[3*10+2])
	}
	plane := cropped.Plane()
	if len(plane) != 4*5 {
		t.Errorf("cropped plane has %d samples", len(plane))
	}
	if plane[0] != pix[3*10+2] || plane[4*5-1] != pix[7*10+5] {
		t.Error("cropped plane exposes wrong window")
	}

	if _, err := source.Crop(8, 8, 5, 5); !errors.Is(err, ErrBadInput) {
		t.Errorf("out-of-range crop: err = %v, want ErrBadInput", err)
	}
}

func TestInvertedViewIsLazyAndSelfInverse(t *testing.T) {
	pix := []byte{0, 100, 255, 30}
	source := NewPlanarLuminance(pix, 2, 2)
	inverted := Invert(source)

	row := inverted.Row(0, nil)
	if row[0] != 255 || row[1] != 155 {
		t.Errorf("inverted row = %v", row)
	}
	if back := Invert(inverted); back != Luminance(source) {
		t.Error("double inversion should unwrap to the original view")
	}
	// The view shares the backing buffer: mutate and observe.
	pix[0] = 10
	if inverted.Row(0, nil)[0] != 245 {
		t.Error("inverted view did not track backing buffer")
	}
}

func TestRotateCCW(t *testing.T) {
	pix := []byte{
		1, 2,
		3, 4,
		5, 6,
	}
	source := NewPlanarLuminance(pix, 2, 3)
	rotated := source.RotateCCW()
	if rotated.Width() != 3 || rotated.Height() != 2 {
		t.Fatalf("rotated is %dx%d", rotated.Width(), rotated.Height())
	}
	// (x,y) -> (y, width-1-x): column 1 becomes the top row.
	top := rotated.Row(0, nil)
	if top[0] != 2 || top[1] != 4 || top[2] != 6 {
		t.Errorf("rotated top row = %v", top)
	}
}

func TestRotateCCW45Unsupported(t *testing.T) {
	source := NewPlanarLuminance(make([]byte, 4), 2, 2)
	if _, err := source.RotateCCW45(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestOrderPatterns(t *testing.T) {
	// A right isoceles triangle: the right-angle vertex comes first, the
	// hypotenuse endpoints after it.
	ordered := OrderPatterns([3]Point{
		{X: 10, Y: 0}, // top-right
		{X: 0, Y: 0},  // corner (right angle)
		{X: 0, Y: 10}, // bottom-left
	})
	if ordered[0].X != 0 || ordered[0].Y != 0 {
		t.Errorf("corner vertex = %v", ordered[0])
	}
}

func TestResultMetadata(t *testing.T) {
	result := NewResult("text", []byte{1, 2}, nil, FormatQRCode)
	if result.NumBits != 16 {
		t.Errorf("NumBits = %d", result.NumBits)
	}
	result.PutMetadata(KeyOrientation, 180)
	other := NewResult("other", nil, nil, FormatQRCode)
	other.PutAllMetadata(result.Metadata)
	if other.Metadata[KeyOrientation] != 180 {
		t.Error("metadata merge failed")
	}
}
