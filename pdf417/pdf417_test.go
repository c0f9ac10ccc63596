package pdf417

import (
	"testing"

	gridscan "github.com/lkaramanov/gridscan"
)

func TestClusterTables(t *testing.T) {
	for k := 0; k < 3; k++ {
		if len(clusterPatterns[k]) != numCodewordValues {
			t.Fatalf("cluster %d has %d patterns, want %d", k*3, len(clusterPatterns[k]), numCodewordValues)
		}
		for value, pattern := range clusterPatterns[k] {
			if got := valueForPattern(pattern); got != value {
				t.Fatalf("cluster %d pattern %x maps to %d, want %d", k*3, pattern, got, value)
			}
			if bucket := bucketForPattern(pattern); bucket != k*3 {
				t.Fatalf("cluster %d pattern %x has bucket %d", k*3, pattern, bucket)
			}
		}
	}
}

func TestPatternRunRoundTrip(t *testing.T) {
	for _, pattern := range clusterPatterns[1][:50] {
		runs := runsFromPattern(pattern)
		if got := bitsFromRuns(runs); got != pattern {
			t.Fatalf("runs of %x rebuild to %x", pattern, got)
		}
	}
}

func TestErrorCorrectionRoundTrip(t *testing.T) {
	data := []int{8, 453, 178, 121, 239, 452, 327, 3}
	ecLen := 8
	full := append(append([]int{}, data...), parityCodewords(data, ecLen)...)

	// Clean stream decodes with no corrections.
	received := append([]int{}, full...)
	n, err := correctCodewords(received, ecLen, nil)
	if err != nil || n != 0 {
		t.Fatalf("clean stream: corrected=%d err=%v", n, err)
	}

	// Up to ecLen/2 errors are repaired.
	received = append([]int{}, full...)
	received[1] = (received[1] + 17) % 929
	received[5] = (received[5] + 900) % 929
	n, err = correctCodewords(received, ecLen, nil)
	if err != nil {
		t.Fatalf("correctable stream: %v", err)
	}
	if n != 2 {
		t.Errorf("corrected = %d, want 2", n)
	}
	for i := range full {
		if received[i] != full[i] {
			t.Fatalf("position %d not repaired: %d != %d", i, received[i], full[i])
		}
	}
}

func TestErrorCorrectionWithErasures(t *testing.T) {
	data := []int{10, 900, 1, 2, 3, 4, 5, 6, 7, 8}
	ecLen := 16
	full := append(append([]int{}, data...), parityCodewords(data, ecLen)...)

	received := append([]int{}, full...)
	// errors + 2*erasures <= ecLen
	received[0] = (received[0] + 1) % 929
	received[3] = 0
	received[4] = 0
	n, err := correctCodewords(received, ecLen, []int{3, 4})
	if err != nil {
		t.Fatalf("decode with erasures: %v", err)
	}
	if n == 0 {
		t.Error("expected corrections to be reported")
	}
	for i := range full {
		if received[i] != full[i] {
			t.Fatalf("position %d not repaired", i)
		}
	}
}

func TestHighLevelRoundTrip(t *testing.T) {
	cases := []string{
		"HELLO WORLD",
		"hello world",
		"Hello, World! 123",
		"12345678901234567890",
		"mixed 123 Text with: punct.",
	}
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			encoded, err := encodeHighLevel(tc, CompactionAuto)
			if err != nil {
				t.Fatalf("encodeHighLevel: %v", err)
			}
			codewords := make([]int, 0, len(encoded)+1)
			codewords = append(codewords, len([]rune(encoded))+1)
			for _, r := range encoded {
				codewords = append(codewords, int(r))
			}
			result, err := interpretCodewords(codewords, "2")
			if err != nil {
				t.Fatalf("interpretCodewords: %v", err)
			}
			if result.Text != tc {
				t.Errorf("round trip: got %q, want %q", result.Text, tc)
			}
		})
	}
}

func TestFullSymbolRoundTrip(t *testing.T) {
	encoder := NewEncoder()
	if err := encoder.GenerateSymbol("PDF417 Symbol Test", 2); err != nil {
		t.Fatalf("GenerateSymbol: %v", err)
	}
	rows := encoder.Rows()
	if len(rows) < minSymbolRows {
		t.Fatalf("only %d rows", len(rows))
	}

	// Read the codewords straight back off the module rows.
	var codewords []int
	for y, row := range rows {
		cluster := y % 3
		// Skip start guard and left indicator, then read until the right
		// indicator.
		pos := modulesPerCodeword * 2
		end := len(row) - modulesPerStop - modulesPerCodeword
		for pos+modulesPerCodeword <= end {
			pattern := 0
			for i := 0; i < modulesPerCodeword; i++ {
				pattern <<= 1
				if row[pos+i] == 1 {
					pattern |= 1
				}
			}
			value := valueForPattern(pattern)
			if value == -1 {
				t.Fatalf("row %d: unreadable pattern %x", y, pattern)
			}
			if bucketForPattern(pattern) != cluster*3 {
				t.Fatalf("row %d: wrong cluster", y)
			}
			codewords = append(codewords, value)
			pos += modulesPerCodeword
		}
	}

	numEC := 1 << uint(2+1)
	if _, err := correctCodewords(codewords, numEC, nil); err != nil {
		t.Fatalf("correctCodewords: %v", err)
	}
	result, err := interpretCodewords(codewords, "2")
	if err != nil {
		t.Fatalf("interpretCodewords: %v", err)
	}
	if result.Text != "PDF417 Symbol Test" {
		t.Errorf("round trip: got %q", result.Text)
	}
}

func TestMacroBlockMetadata(t *testing.T) {
	// Hand-build a stream: text "AB" (codeword 0*30+1), then a macro
	// block: segment index "00000" (100000 base 900 = 111,100), file id
	// 123, optional segment-count field holding digit "3" (13 with the
	// sentinel 1).
	codewords := []int{
		0, 1, macroControl, 111, 100, 123,
		macroOptional, macroFieldSegmentCount, 13,
	}
	codewords[0] = len(codewords)

	result, err := interpretCodewords(codewords, "2")
	if err != nil {
		t.Fatalf("interpretCodewords: %v", err)
	}
	if result.Text != "AB" {
		t.Errorf("text = %q, want AB", result.Text)
	}
	metadata, ok := result.Extra.(*Metadata)
	if !ok {
		t.Fatal("missing macro metadata")
	}
	if metadata.SegmentCount != 3 {
		t.Errorf("segment count = %d, want 3", metadata.SegmentCount)
	}
	if metadata.FileID == "" {
		t.Error("file id missing")
	}
}

func TestWriterProducesMatrix(t *testing.T) {
	matrix, err := NewWriter().Encode("Hello, World!", gridscan.FormatPDF417, 400, 200, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if matrix.Width() == 0 || matrix.Height() == 0 {
		t.Fatal("empty matrix")
	}
}

func TestWriterRejectsWrongFormat(t *testing.T) {
	if _, err := NewWriter().Encode("x", gridscan.FormatQRCode, 100, 100, nil); err == nil {
		t.Error("wrong format should fail")
	}
}
