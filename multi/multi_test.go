package multi

import (
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
	"github.com/lkaramanov/gridscan/binarize"
	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/oned"
	"github.com/lkaramanov/gridscan/qr"
)

// blit copies a rendered symbol onto a canvas at the given offset.
func blit(canvas, symbol *bitvec.Matrix, dx, dy int) {
	for y := 0; y < symbol.Height(); y++ {
		for x := 0; x < symbol.Width(); x++ {
			if symbol.At(x, y) {
				canvas.Set(dx+x, dy+y)
			}
		}
	}
}

// bitmapFromMatrix renders a module canvas as a binarized Bitmap.
func bitmapFromMatrix(m *bitvec.Matrix) *gridscan.Bitmap {
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
	return gridscan.NewBitmap(binarize.NewGlobal(gridscan.NewPlanarLuminance(pix, w, h)))
}

func textsOf(results []*gridscan.Result) map[string]bool {
	texts := map[string]bool{}
	for _, r := range results {
		texts[r.Text] = true
	}
	return texts
}

func TestGenericReaderFindsStackedBarcodes(t *testing.T) {
	writer := oned.NewCode128Writer()
	top, err := writer.Encode("ALPHA", gridscan.FormatCode128, 300, 60, nil)
	if err != nil {
		t.Fatalf("Encode top: %v", err)
	}
	bottom, err := writer.Encode("BRAVO", gridscan.FormatCode128, 300, 60, nil)
	if err != nil {
		t.Fatalf("Encode bottom: %v", err)
	}

	canvas := bitvec.New(320, 320)
	blit(canvas, top, 10, 30)
	blit(canvas, bottom, 10, 230)

	opts := &gridscan.DecodeOptions{
		PossibleFormats: []gridscan.Format{gridscan.FormatCode128},
		TryHarder:       true,
	}
	reader := NewGenericReader(gridscan.NewMultiFormatReader())
	results, err := reader.DecodeMultiple(bitmapFromMatrix(canvas), opts)
	if err != nil {
		t.Fatalf("DecodeMultiple: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("found %d barcodes, want 2", len(results))
	}
	texts := textsOf(results)
	if !texts["ALPHA"] || !texts["BRAVO"] {
		t.Errorf("texts = %v", texts)
	}
}

func TestQRMultiReaderFindsTwoSymbols(t *testing.T) {
	writer := qr.NewWriter()
	left, err := writer.Encode("LEFT", gridscan.FormatQRCode, 200, 200, nil)
	if err != nil {
		t.Fatalf("Encode left: %v", err)
	}
	right, err := writer.Encode("RIGHT", gridscan.FormatQRCode, 200, 200, nil)
	if err != nil {
		t.Fatalf("Encode right: %v", err)
	}

	canvas := bitvec.New(440, 220)
	blit(canvas, left, 10, 10)
	blit(canvas, right, 230, 10)

	results, err := NewQRMultiReader().DecodeMultiple(bitmapFromMatrix(canvas), nil)
	if err != nil {
		t.Fatalf("DecodeMultiple: %v", err)
	}
	texts := textsOf(results)
	if !texts["LEFT"] || !texts["RIGHT"] {
		t.Errorf("texts = %v", texts)
	}
}

func TestMergeStructuredAppend(t *testing.T) {
	segment := func(text string, sequence int) *gridscan.Result {
		r := gridscan.NewResult(text, []byte(text), nil, gridscan.FormatQRCode)
		r.PutMetadata(gridscan.KeyStructuredAppendSequence, sequence)
		r.PutMetadata(gridscan.KeyStructuredAppendParity, 7)
		return r
	}
	standalone := gridscan.NewResult("solo", nil, nil, gridscan.FormatQRCode)

	merged := mergeStructuredAppend([]*gridscan.Result{
		segment("C", 2),
		standalone,
		segment("A", 0),
		segment("B", 1),
	})
	if len(merged) != 2 {
		t.Fatalf("merged to %d results, want 2", len(merged))
	}
	texts := textsOf(merged)
	if !texts["solo"] || !texts["ABC"] {
		t.Errorf("texts = %v", texts)
	}
}
