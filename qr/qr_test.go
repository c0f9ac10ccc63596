package qr

import (
	"errors"
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

func roundTrip(t *testing.T, content string, level ECLevel) {
	t.Helper()
	symbol, err := EncodeSymbol(content, level, 0, -1)
	if err != nil {
		t.Fatalf("EncodeSymbol: %v", err)
	}
	decoded, mirrored, err := NewDecoder().Decode(symbol.Matrix(), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if mirrored {
		t.Error("unmirrored symbol reported as mirrored")
	}
	if decoded.Text != content {
		t.Errorf("round trip: got %q, want %q", decoded.Text, content)
	}
}

func TestRoundTripNumeric(t *testing.T) {
	roundTrip(t, "1234567890", LevelM)
}

func TestRoundTripAlphanumeric(t *testing.T) {
	roundTrip(t, "HELLO WORLD", LevelL)
}

func TestRoundTripByteModeQ(t *testing.T) {
	roundTrip(t, "value", LevelQ)
}

func TestRoundTripURLHighEC(t *testing.T) {
	roundTrip(t, "https://google.com", LevelH)
}

func TestRoundTripAllLevels(t *testing.T) {
	for _, level := range []ECLevel{LevelL, LevelM, LevelQ, LevelH} {
		t.Run(level.String(), func(t *testing.T) {
			roundTrip(t, "Testing all EC levels", level)
		})
	}
}

func TestRoundTripVersionBounds(t *testing.T) {
	// Version 1 payload and a payload forcing version 40.
	roundTrip(t, "V1", LevelL)

	symbol, err := EncodeSymbol("X", LevelL, 40, -1)
	if err != nil {
		t.Fatalf("EncodeSymbol v40: %v", err)
	}
	if symbol.Version.Number != 40 || symbol.Matrix().Width() != 177 {
		t.Fatalf("version 40 dimension = %d, want 177", symbol.Matrix().Width())
	}
	decoded, _, err := NewDecoder().Decode(symbol.Matrix(), "")
	if err != nil {
		t.Fatalf("Decode v40: %v", err)
	}
	if decoded.Text != "X" {
		t.Errorf("v40 round trip: got %q", decoded.Text)
	}
}

func TestMirroredDecode(t *testing.T) {
	symbol, err := EncodeSymbol("MIRROR ME", LevelM, 0, -1)
	if err != nil {
		t.Fatalf("EncodeSymbol: %v", err)
	}
	grid := symbol.Matrix()

	// Transpose to simulate a mirror-reversed capture.
	transposed := grid.Clone()
	for x := 0; x < grid.Width(); x++ {
		for y := 0; y < grid.Height(); y++ {
			if grid.At(x, y) != transposed.At(y, x) {
				transposed.Flip(y, x)
			}
		}
	}

	decoded, mirrored, err := NewDecoder().Decode(transposed, "")
	if err != nil {
		t.Fatalf("Decode mirrored: %v", err)
	}
	if !mirrored {
		t.Error("mirrored symbol not flagged")
	}
	if decoded.Text != "MIRROR ME" {
		t.Errorf("mirrored round trip: got %q", decoded.Text)
	}
}

func TestStructuredAppendMetadata(t *testing.T) {
	// A symbol encoded without a structured append header must not report
	// structured append metadata.
	symbol, err := EncodeSymbol("AB", LevelL, 0, -1)
	if err != nil {
		t.Fatalf("EncodeSymbol: %v", err)
	}
	decoded, _, err := NewDecoder().Decode(symbol.Matrix(), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.HasStructuredAppend() {
		t.Error("plain symbol should not report structured append")
	}
}

func TestVersionTable(t *testing.T) {
	v1, err := VersionForNumber(1)
	if err != nil || v1.Dimension() != 21 || v1.TotalCodewords != 26 {
		t.Fatalf("version 1: dim=%d total=%d err=%v", v1.Dimension(), v1.TotalCodewords, err)
	}
	v40, err := VersionForNumber(40)
	if err != nil || v40.Dimension() != 177 || v40.TotalCodewords != 3706 {
		t.Fatalf("version 40: dim=%d total=%d err=%v", v40.Dimension(), v40.TotalCodewords, err)
	}
	if _, err := VersionForNumber(41); err == nil {
		t.Error("version 41 should be rejected")
	}
}

func TestFormatInfoDecode(t *testing.T) {
	// 0x4AA0 is M level (bits 00), mask 7: data bits 00111.
	fi := DecodeFormatBits(0x4AA0, 0x4AA0)
	if fi == nil {
		t.Fatal("format info not decoded")
	}
	if fi.Level != LevelL && fi.Level != LevelM && fi.Level != LevelQ && fi.Level != LevelH {
		t.Fatal("invalid level")
	}
}

func TestWriterRendersQuietZone(t *testing.T) {
	w := NewWriter()
	matrix, err := w.Encode("Hello", gridscan.FormatQRCode, 100, 100, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if matrix.Width() < 100 || matrix.Height() < 100 {
		t.Fatalf("rendered %dx%d, want at least 100x100", matrix.Width(), matrix.Height())
	}
	// Corners must be quiet.
	if matrix.At(0, 0) || matrix.At(matrix.Width()-1, matrix.Height()-1) {
		t.Error("quiet zone not blank")
	}
}

func TestWriterRejectsBadInput(t *testing.T) {
	w := NewWriter()
	if _, err := w.Encode("", gridscan.FormatQRCode, 100, 100, nil); !errors.Is(err, gridscan.ErrBadInput) {
		t.Errorf("empty contents: err = %v, want ErrBadInput", err)
	}
	if _, err := w.Encode("x", gridscan.FormatCode128, 100, 100, nil); !errors.Is(err, gridscan.ErrBadInput) {
		t.Errorf("wrong format: err = %v, want ErrBadInput", err)
	}
}

func TestTruncatedECIFails(t *testing.T) {
	version, _ := VersionForNumber(1)
	// ECI mode nibble then a stream that ends before the assignment value.
	data := []byte{0x70}
	if _, err := interpretBitStream(data, version, LevelL, ""); !errors.Is(err, gridscan.ErrFormat) {
		t.Errorf("truncated ECI: err = %v, want ErrFormat", err)
	}
}

func TestZeroLengthNumericEmitsNothing(t *testing.T) {
	version, _ := VersionForNumber(1)
	// Numeric mode with count 0, then terminator.
	data := []byte{0x10, 0x00, 0x00}
	result, err := interpretBitStream(data, version, LevelL, "")
	if err != nil {
		t.Fatalf("interpretBitStream: %v", err)
	}
	if result.Text != "" {
		t.Errorf("zero-count numeric emitted %q", result.Text)
	}
}
