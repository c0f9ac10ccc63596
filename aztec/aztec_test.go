package aztec

import (
	"strings"
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

func roundTrip(t *testing.T, data string, ecPercent, layers int) *Code {
	t.Helper()
	code, err := EncodeData([]byte(data), ecPercent, layers)
	if err != nil {
		t.Fatalf("EncodeData(%q): %v", data, err)
	}
	det := &Detection{
		Grid:       code.Matrix,
		Compact:    code.Compact,
		DataBlocks: code.CodeWords,
		Layers:     code.Layers,
	}
	text, _, err := DecodeDetection(det)
	if err != nil {
		t.Fatalf("DecodeDetection(%q): %v", data, err)
	}
	if text != data {
		t.Errorf("round trip: got %q, want %q", text, data)
	}
	return code
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"Hello", "Hello"},
		{"Digits", "1234567890"},
		{"Upper", "ABCDEF"},
		{"Mixed", "Hello, World!"},
		{"Lower", "abcdef"},
		{"PunctPairs", "end. next: done"},
		{"Binary", "bin\x80\x81ary"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roundTrip(t, tc.data, 25, 0)
		})
	}
}

func TestCompactMinimumSize(t *testing.T) {
	code := roundTrip(t, "A", 25, -1)
	if !code.Compact || code.Layers != 1 {
		t.Fatalf("compact=%v layers=%d, want compact 1 layer", code.Compact, code.Layers)
	}
	if code.Size != 15 {
		t.Errorf("size = %d, want 15", code.Size)
	}
}

func TestFullRangeMaximumSize(t *testing.T) {
	// A payload large enough to demand a deep full-range symbol.
	code := roundTrip(t, strings.Repeat("ABCDEFGHIJ0123456789", 90), 25, 32)
	if code.Compact || code.Layers != 32 {
		t.Fatalf("compact=%v layers=%d, want full-range 32 layers", code.Compact, code.Layers)
	}
}

func TestRequestedLayersTooSmall(t *testing.T) {
	if _, err := EncodeData([]byte(strings.Repeat("X", 5000)), 25, -1); err == nil {
		t.Error("oversized payload should not fit one compact layer")
	}
}

func TestDimensionTable(t *testing.T) {
	if d := symbolDimension(true, 1); d != 15 {
		t.Errorf("compact 1 layer dimension = %d, want 15", d)
	}
	if d := symbolDimension(false, 32); d != 151 {
		t.Errorf("full 32 layer dimension = %d, want 151", d)
	}
}

func TestWriterRejectsWrongFormat(t *testing.T) {
	if _, err := NewWriter().Encode("TEST", gridscan.FormatQRCode, 200, 200, nil); err == nil {
		t.Error("wrong format should fail")
	}
}

func TestWriterRendersSymbol(t *testing.T) {
	matrix, err := NewWriter().Encode("Aztec!", gridscan.FormatAztec, 120, 120, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if matrix.Width() < 120 || matrix.Height() < 120 {
		t.Errorf("rendered %dx%d, want at least 120x120", matrix.Width(), matrix.Height())
	}
}
