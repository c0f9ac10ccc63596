// Package galois implements Reed-Solomon error correction over the finite
// fields used by the supported symbologies.
package galois

import "fmt"

// Field is a Galois field GF(2^n) identified by its primitive polynomial,
// size, and generator base. Field values are pure lookup tables and safe for
// concurrent use once constructed.
type Field struct {
	expTable []int
	logTable []int
	zero     *Poly
	one      *Poly
	size     int
	poly     int
	base     int
}

// The fields each symbology performs its error correction in.
var (
	QRCode       = NewField(0x011D, 256, 0) // x^8 + x^4 + x^3 + x^2 + 1
	DataMatrix   = NewField(0x012D, 256, 1) // x^8 + x^5 + x^3 + x^2 + 1
	AztecData12  = NewField(0x1069, 4096, 1)
	AztecData10  = NewField(0x0409, 1024, 1)
	AztecData8   = DataMatrix
	AztecData6   = NewField(0x0043, 64, 1)
	AztecParam   = NewField(0x0013, 16, 1)
	MaxiCode     = AztecData6
)

// NewField builds GF(size) generated by the given primitive polynomial.
func NewField(poly, size, base int) *Field {
	f := &Field{
		poly:     poly,
		size:     size,
		base:     base,
		expTable: make([]int, size),
		logTable: make([]int, size),
	}
	x := 1
	for i := 0; i < size; i++ {
		f.expTable[i] = x
		x *= 2
		if x >= size {
			x ^= poly
			x &= size - 1
		}
	}
	for i := 0; i < size-1; i++ {
		f.logTable[f.expTable[i]] = i
	}
	f.zero = newPoly(f, []int{0})
	f.one = newPoly(f, []int{1})
	return f
}

// Zero returns the additive identity polynomial.
func (f *Field) Zero() *Poly { return f.zero }

// One returns the multiplicative identity polynomial.
func (f *Field) One() *Poly { return f.one }

// Monomial returns coefficient * x^degree.
func (f *Field) Monomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("galois: negative degree")
	}
	if coefficient == 0 {
		return f.zero
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return newPoly(f, coefficients)
}

// Add returns a + b. Addition and subtraction coincide in GF(2^n).
func Add(a, b int) int { return a ^ b }

// Exp returns 2^a in this field.
func (f *Field) Exp(a int) int { return f.expTable[a] }

// Log returns the base-2 discrete logarithm of a.
func (f *Field) Log(a int) int {
	if a == 0 {
		panic("galois: log of zero")
	}
	return f.logTable[a]
}

// Inv returns the multiplicative inverse of a.
func (f *Field) Inv(a int) int {
	if a == 0 {
		panic("galois: inverse of zero")
	}
	return f.expTable[f.size-f.logTable[a]-1]
}

// Mul returns a * b in this field.
func (f *Field) Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.size-1)]
}

// Size returns the number of field elements.
func (f *Field) Size() int { return f.size }

// Base returns the generator base (first consecutive root exponent).
func (f *Field) Base() int { return f.base }

func (f *Field) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", f.poly, f.size)
}
