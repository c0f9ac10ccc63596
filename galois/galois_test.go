package galois

import (
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFieldArithmetic(t *testing.T) {
	c := qt.New(t)
	f := QRCode
	c.Assert(f.Mul(0, 5), qt.Equals, 0)
	c.Assert(f.Mul(5, 0), qt.Equals, 0)
	c.Assert(f.Mul(1, 7), qt.Equals, 7)
	for a := 1; a < f.Size(); a++ {
		c.Assert(f.Mul(a, f.Inv(a)), qt.Equals, 1)
		c.Assert(f.Exp(f.Log(a)), qt.Equals, a)
	}
}

func TestAddIsXor(t *testing.T) {
	c := qt.New(t)
	c.Assert(Add(0b1010, 0b0110), qt.Equals, 0b1100)
	c.Assert(Add(7, 7), qt.Equals, 0)
}

func TestPolyDivMod(t *testing.T) {
	c := qt.New(t)
	f := QRCode
	p := NewPoly(f, []int{1, 0, 1, 1}) // x^3 + x + 1
	d := NewPoly(f, []int{1, 1})       // x + 1
	q, r := p.DivMod(d)
	// q*d + r must reproduce p
	back := q.Times(d).Plus(r)
	c.Assert(back.Coeffs(), qt.DeepEquals, p.Coeffs())
}

func TestEncodeDecodeClean(t *testing.T) {
	c := qt.New(t)
	for _, f := range []*Field{QRCode, DataMatrix, AztecData6, AztecParam, AztecData10, AztecData12} {
		enc := NewEncoder(f)
		dec := NewDecoder(f)
		codewords := make([]int, 20)
		for i := 0; i < 12; i++ {
			codewords[i] = (i * 37) % f.Size()
		}
		enc.Encode(codewords, 8)
		received := make([]int, len(codewords))
		copy(received, codewords)
		n, err := dec.Decode(received, 8)
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 0)
		c.Assert(received, qt.DeepEquals, codewords)
	}
}

func TestDecodeRepairsMaxErrors(t *testing.T) {
	c := qt.New(t)
	rng := rand.New(rand.NewSource(42))
	for _, f := range []*Field{QRCode, DataMatrix, AztecParam} {
		enc := NewEncoder(f)
		dec := NewDecoder(f)
		for trial := 0; trial < 25; trial++ {
			dataLen := 2 + rng.Intn(10)
			ecLen := 2 + 2*rng.Intn(4)
			if dataLen+ecLen > f.Size()-1 {
				continue
			}
			codewords := make([]int, dataLen+ecLen)
			for i := 0; i < dataLen; i++ {
				codewords[i] = rng.Intn(f.Size())
			}
			enc.Encode(codewords, ecLen)

			received := make([]int, len(codewords))
			copy(received, codewords)
			corrupted := map[int]bool{}
			for len(corrupted) < ecLen/2 {
				pos := rng.Intn(len(received))
				if corrupted[pos] {
					continue
				}
				corrupted[pos] = true
				received[pos] ^= 1 + rng.Intn(f.Size()-1)
			}

			n, err := dec.Decode(received, ecLen)
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, len(corrupted))
			c.Assert(received, qt.DeepEquals, codewords)
		}
	}
}

func TestDecodeTooManyErrors(t *testing.T) {
	c := qt.New(t)
	f := QRCode
	enc := NewEncoder(f)
	dec := NewDecoder(f)
	codewords := make([]int, 16)
	for i := 0; i < 12; i++ {
		codewords[i] = i + 1
	}
	enc.Encode(codewords, 4)
	// 4 parity codewords repair at most 2 errors; inject 3.
	codewords[0] ^= 0x55
	codewords[3] ^= 0x2A
	codewords[7] ^= 0x11
	_, err := dec.Decode(codewords, 4)
	c.Assert(err, qt.IsNotNil)
}

func TestQRCodeKnownVector(t *testing.T) {
	c := qt.New(t)
	// "HELLO WORLD" at version 1-M: 16 data codewords with 10 parity
	// codewords appended, per the reference tables.
	data := []int{
		32, 91, 11, 120, 209, 114, 220, 77,
		67, 64, 236, 17, 236, 17, 236, 17,
	}
	want := []int{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	codewords := make([]int, len(data)+len(want))
	copy(codewords, data)
	NewEncoder(QRCode).Encode(codewords, len(want))
	c.Assert(codewords[len(data):], qt.DeepEquals, want)
}
