package datamatrix

import (
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

func TestSymbolRoundTrip(t *testing.T) {
	cases := []string{
		"Hello",
		"Test123",
		"1234567890",
		"ABCDEF",
		"Hello, World!",
		"MIXEDcase With Spaces 42",
	}
	decoder := NewDecoder()
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			symbol, err := EncodeSymbol(tc, ShapeAny)
			if err != nil {
				t.Fatalf("EncodeSymbol: %v", err)
			}
			decoded, err := decoder.Decode(symbol)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if decoded.Text != tc {
				t.Errorf("round trip: got %q, want %q", decoded.Text, tc)
			}
		})
	}
}

func TestSquareShapeRoundTrip(t *testing.T) {
	symbol, err := EncodeSymbol("SQUARE ONLY", ShapeSquare)
	if err != nil {
		t.Fatalf("EncodeSymbol: %v", err)
	}
	if symbol.Width() != symbol.Height() {
		t.Fatalf("square hint produced %dx%d", symbol.Width(), symbol.Height())
	}
	decoded, err := NewDecoder().Decode(symbol)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Text != "SQUARE ONLY" {
		t.Errorf("round trip: got %q", decoded.Text)
	}
}

func TestVersionTable(t *testing.T) {
	v, err := VersionForDimensions(10, 10)
	if err != nil || v.TotalCodewords != 8 {
		t.Fatalf("10x10: total=%d err=%v", v.TotalCodewords, err)
	}
	v, err = VersionForDimensions(144, 144)
	if err != nil {
		t.Fatalf("144x144: %v", err)
	}
	if v.NumBlocks() != 10 {
		t.Errorf("144x144 blocks = %d, want 10", v.NumBlocks())
	}
	if _, err := VersionForDimensions(11, 11); err == nil {
		t.Error("11x11 should have no version")
	}
}

func TestBase256Descrambler(t *testing.T) {
	// Scramble then descramble must be the identity at every position.
	for pos := 1; pos <= 300; pos++ {
		for _, b := range []int{0, 1, 127, 200, 255} {
			pseudoRandom := ((149 * pos) % 255) + 1
			scrambled := (b + pseudoRandom) % 256
			if got := descramble255(scrambled, pos); got != b {
				t.Fatalf("descramble(%d, %d) = %d, want %d", scrambled, pos, got, b)
			}
		}
	}
}

func TestInterpretASCIIDigitPairs(t *testing.T) {
	// 130 encodes "00", 229 encodes "99".
	text, err := interpretCodewords([]byte{130, 229, 129})
	if err != nil {
		t.Fatalf("interpretCodewords: %v", err)
	}
	if text != "0099" {
		t.Errorf("got %q, want %q", text, "0099")
	}
}

func TestInterpretRejectsZeroCodeword(t *testing.T) {
	if _, err := interpretCodewords([]byte{0}); err == nil {
		t.Error("zero codeword should be a format error")
	}
}

func TestWriterScalesWithQuietZone(t *testing.T) {
	if _, err := NewWriter().Encode("Hello", gridscan.FormatQRCode, 100, 100, nil); err == nil {
		t.Fatal("wrong format should fail")
	}
	matrix, err := NewWriter().Encode("Hello", gridscan.FormatDataMatrix, 100, 100, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if matrix.Width() < 100 || matrix.Height() < 100 {
		t.Errorf("rendered %dx%d, want at least 100x100", matrix.Width(), matrix.Height())
	}
}
