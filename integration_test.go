package gridscan_test

import (
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/binarize"
	"github.com/lkaramanov/gridscan/bitvec"

	// Register the format packages.
	_ "github.com/lkaramanov/gridscan/aztec"
	_ "github.com/lkaramanov/gridscan/datamatrix"
	_ "github.com/lkaramanov/gridscan/oned"
	_ "github.com/lkaramanov/gridscan/pdf417"
	_ "github.com/lkaramanov/gridscan/qr"
)

// luminanceFromMatrix renders a module matrix as a greyscale plane.
func luminanceFromMatrix(m *bitvec.Matrix) *gridscan.PlanarLuminance {
	w := m.Width()
	h := m.Height()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) {
				pix[y*w+x] = 0
			} else {
				pix[y*w+x] = 255
			}
		}
	}
	return gridscan.NewPlanarLuminance(pix, w, h)
}

func encodeThenDecode(t *testing.T, contents string, format gridscan.Format, width, height int,
	encodeOpts *gridscan.EncodeOptions, decodeOpts *gridscan.DecodeOptions) *gridscan.Result {
	t.Helper()

	matrix, err := gridscan.Encode(contents, format, width, height, encodeOpts)
	if err != nil {
		t.Fatalf("Encode(%q, %s): %v", contents, format, err)
	}

	bitmap := gridscan.NewBitmap(binarize.NewGlobal(luminanceFromMatrix(matrix)))
	result, err := gridscan.Decode(bitmap, decodeOpts)
	if err != nil {
		t.Fatalf("Decode(%s): %v", format, err)
	}
	return result
}

func TestQRValueAtLevelQ(t *testing.T) {
	result := encodeThenDecode(t, "value", gridscan.FormatQRCode, 200, 200,
		&gridscan.EncodeOptions{ErrorCorrection: "Q"},
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatQRCode}, PureBarcode: true})
	if result.Text != "value" {
		t.Errorf("text = %q, want %q", result.Text, "value")
	}
	if result.Metadata[gridscan.KeyErrorCorrectionLevel] != "Q" {
		t.Errorf("EC level = %v, want Q", result.Metadata[gridscan.KeyErrorCorrectionLevel])
	}
}

func TestQRURLAtLevelH(t *testing.T) {
	result := encodeThenDecode(t, "https://google.com", gridscan.FormatQRCode, 200, 200,
		&gridscan.EncodeOptions{ErrorCorrection: "H"},
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatQRCode}, PureBarcode: true})
	if result.Text != "https://google.com" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestQRDetectorPath(t *testing.T) {
	// Full detector run, no pure-barcode shortcut.
	result := encodeThenDecode(t, "detector path", gridscan.FormatQRCode, 320, 320,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatQRCode}})
	if result.Text != "detector path" {
		t.Errorf("text = %q", result.Text)
	}
	if mirrored, _ := result.Metadata[gridscan.KeyMirrored].(bool); mirrored {
		t.Error("unmirrored image reported as mirrored")
	}
}

func TestQRMirroredImage(t *testing.T) {
	matrix, err := gridscan.Encode("mirror me", gridscan.FormatQRCode, 320, 320, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Mirror the rendered image horizontally.
	w := matrix.Width()
	h := matrix.Height()
	mirrored := bitvec.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.At(w-1-x, y) {
				mirrored.Set(x, y)
			}
		}
	}
	bitmap := gridscan.NewBitmap(binarize.NewGlobal(luminanceFromMatrix(mirrored)))
	result, err := gridscan.Decode(bitmap, &gridscan.DecodeOptions{
		PossibleFormats: []gridscan.Format{gridscan.FormatQRCode},
	})
	if err != nil {
		t.Fatalf("Decode mirrored: %v", err)
	}
	if result.Text != "mirror me" {
		t.Errorf("text = %q", result.Text)
	}
	if flagged, _ := result.Metadata[gridscan.KeyMirrored].(bool); !flagged {
		t.Error("mirrored image not flagged")
	}
}

func TestQRInvertedImage(t *testing.T) {
	matrix, err := gridscan.Encode("inverted", gridscan.FormatQRCode, 200, 200, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	source := gridscan.Invert(luminanceFromMatrix(matrix))
	bitmap := gridscan.NewBitmap(binarize.NewGlobal(source))
	result, err := gridscan.Decode(bitmap, &gridscan.DecodeOptions{
		PossibleFormats: []gridscan.Format{gridscan.FormatQRCode},
		PureBarcode:     true,
		AlsoInverted:    true,
	})
	if err != nil {
		t.Fatalf("Decode inverted: %v", err)
	}
	if result.Text != "inverted" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestEAN13Scenario(t *testing.T) {
	result := encodeThenDecode(t, "5012345678900", gridscan.FormatEAN13, 200, 100,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatEAN13}})
	if result.Text != "5012345678900" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Format != gridscan.FormatEAN13 {
		t.Errorf("format = %v", result.Format)
	}
}

func TestUPCAThroughEAN13Writer(t *testing.T) {
	// The UPC-A writer rides on the EAN-13 writer; the reader strips the
	// leading zero back off.
	result := encodeThenDecode(t, "12345678905", gridscan.FormatUPCA, 300, 100,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatUPCA}})
	if result.Text != "12345678905" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Format != gridscan.FormatUPCA {
		t.Errorf("format = %v", result.Format)
	}
}

func TestCode128EndToEnd(t *testing.T) {
	result := encodeThenDecode(t, "Hello123", gridscan.FormatCode128, 300, 100,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatCode128}})
	if result.Text != "Hello123" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestCode39EndToEnd(t *testing.T) {
	result := encodeThenDecode(t, "HELLO", gridscan.FormatCode39, 300, 100,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatCode39}})
	if result.Text != "HELLO" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestDataMatrixEndToEnd(t *testing.T) {
	result := encodeThenDecode(t, "Hello, World!", gridscan.FormatDataMatrix, 0, 0,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatDataMatrix}, PureBarcode: true})
	if result.Text != "Hello, World!" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestTelepenEndToEnd(t *testing.T) {
	result := encodeThenDecode(t, "ABC123456", gridscan.FormatTelepen, 300, 80,
		nil,
		&gridscan.DecodeOptions{PossibleFormats: []gridscan.Format{gridscan.FormatTelepen}})
	if result.Text != "ABC123456" {
		t.Errorf("text = %q", result.Text)
	}
}

func TestDispatcherSurfacesSingleNotFound(t *testing.T) {
	pix := make([]byte, 100*100)
	for i := range pix {
		if (i/100+i%100)%2 == 0 {
			pix[i] = 255
		}
	}
	bitmap := gridscan.NewBitmap(binarize.NewGlobal(gridscan.NewPlanarLuminance(pix, 100, 100)))
	_, err := gridscan.Decode(bitmap, nil)
	if err != gridscan.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWriterRejectsUnknownFormat(t *testing.T) {
	// MaxiCode registers no writer.
	if _, err := gridscan.Encode("x", gridscan.FormatMaxiCode, 10, 10, nil); err == nil {
		t.Error("expected an error for a writerless format")
	}
}
