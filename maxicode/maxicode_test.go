package maxicode

import (
	"testing"

	"github.com/lkaramanov/gridscan/bitvec"
	"github.com/lkaramanov/gridscan/galois"
)

// encodeCodewords fills in the RS parity for a hand-built codeword array:
// the primary block is 10 data + 10 parity, the secondary block interleaves
// even and odd halves of 84 data + 40 parity.
func encodeCodewords(codewords []byte) {
	enc := galois.NewEncoder(galois.MaxiCode)

	primary := make([]int, 20)
	for i := 0; i < 10; i++ {
		primary[i] = int(codewords[i])
	}
	enc.Encode(primary, 10)
	for i := 0; i < 10; i++ {
		codewords[10+i] = byte(primary[10+i])
	}

	even := make([]int, 62)
	odd := make([]int, 62)
	for i := 0; i < 84; i++ {
		if i%2 == 0 {
			even[i/2] = int(codewords[20+i])
		} else {
			odd[i/2] = int(codewords[20+i])
		}
	}
	enc.Encode(even, 20)
	enc.Encode(odd, 20)
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			codewords[104+i] = byte(even[42+i/2])
		} else {
			codewords[104+i] = byte(odd[42+i/2])
		}
	}
}

// gridFromCodewords lays codewords back onto the module grid.
func gridFromCodewords(codewords []byte) *bitvec.Matrix {
	grid := bitvec.New(gridWidth, gridHeight)
	for y := 0; y < gridHeight; y++ {
		for x := 0; x < gridWidth; x++ {
			bit := moduleBits[y][x]
			if bit < 0 {
				continue
			}
			if codewords[bit/6]&(1<<uint(5-bit%6)) != 0 {
				grid.Set(x, y)
			}
		}
	}
	return grid
}

func TestDecodeMode4(t *testing.T) {
	codewords := make([]byte, 144)
	codewords[0] = 4
	// Set A: A=1, B=2, C=3; PAD=33 elsewhere.
	codewords[1] = 1
	codewords[2] = 2
	codewords[3] = 3
	for i := 4; i < 10; i++ {
		codewords[i] = 33
	}
	for i := 20; i < 104; i++ {
		codewords[i] = 33
	}
	encodeCodewords(codewords)

	dec, err := decodeGrid(gridFromCodewords(codewords))
	if err != nil {
		t.Fatalf("decodeGrid: %v", err)
	}
	if dec.text != "ABC" {
		t.Errorf("text = %q, want %q", dec.text, "ABC")
	}
	if dec.mode != 4 {
		t.Errorf("mode = %d, want 4", dec.mode)
	}
}

func TestDecodeMode4WithErrors(t *testing.T) {
	codewords := make([]byte, 144)
	codewords[0] = 4
	msg := []byte{8, 5, 12, 12, 15, 32, 23, 15, 18, 12, 4} // HELLO WORLD
	for i := 0; i < 9; i++ {
		codewords[1+i] = msg[i]
	}
	for i := 9; i < len(msg); i++ {
		codewords[20+i-9] = msg[i]
	}
	for i := 20 + len(msg) - 9; i < 104; i++ {
		codewords[i] = 33
	}
	encodeCodewords(codewords)

	// Corrupt a few codewords within the correctable budget.
	codewords[2] ^= 0x15
	codewords[25] ^= 0x0A
	codewords[26] ^= 0x3F

	dec, err := decodeGrid(gridFromCodewords(codewords))
	if err != nil {
		t.Fatalf("decodeGrid: %v", err)
	}
	if dec.text != "HELLO WORLD" {
		t.Errorf("text = %q, want %q", dec.text, "HELLO WORLD")
	}
	if dec.errorsCorrected == 0 {
		t.Error("expected corrected errors to be reported")
	}
}

func TestDecodeNumericShift(t *testing.T) {
	codewords := make([]byte, 144)
	codewords[0] = 4
	// NS (Set A index 31) followed by five codewords holding 123456789.
	value := 123456789
	codewords[1] = 31
	codewords[2] = byte(value >> 24 & 0x3F)
	codewords[3] = byte(value >> 18 & 0x3F)
	codewords[4] = byte(value >> 12 & 0x3F)
	codewords[5] = byte(value >> 6 & 0x3F)
	codewords[6] = byte(value & 0x3F)
	for i := 7; i < 10; i++ {
		codewords[i] = 33
	}
	for i := 20; i < 104; i++ {
		codewords[i] = 33
	}
	encodeCodewords(codewords)

	dec, err := decodeGrid(gridFromCodewords(codewords))
	if err != nil {
		t.Fatalf("decodeGrid: %v", err)
	}
	if dec.text != "123456789" {
		t.Errorf("text = %q, want %q", dec.text, "123456789")
	}
}

func TestSymbologyIdentifier(t *testing.T) {
	cases := map[int]string{2: "]U1", 3: "]U1", 4: "]U0", 5: "]U2"}
	for mode, want := range cases {
		if got := symbologyIdentifier(mode); got != want {
			t.Errorf("mode %d identifier = %q, want %q", mode, got, want)
		}
	}
}

func TestUnsupportedMode(t *testing.T) {
	codewords := make([]byte, 144)
	codewords[0] = 1
	encodeCodewords(codewords)
	if _, err := decodeGrid(gridFromCodewords(codewords)); err == nil {
		t.Error("mode 1 should be rejected")
	}
}
