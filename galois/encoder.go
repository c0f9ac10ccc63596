package galois

// Encoder computes Reed-Solomon parity codewords over one field. Generator
// polynomials are cached per instance, so an Encoder is not safe for
// concurrent use.
type Encoder struct {
	field      *Field
	generators []*Poly
}

// NewEncoder returns an Encoder over the given field.
func NewEncoder(field *Field) *Encoder {
	return &Encoder{
		field:      field,
		generators: []*Poly{newPoly(field, []int{1})},
	}
}

func (e *Encoder) generator(degree int) *Poly {
	if degree < len(e.generators) {
		return e.generators[degree]
	}
	last := e.generators[len(e.generators)-1]
	for d := len(e.generators); d <= degree; d++ {
		next := last.Times(newPoly(e.field, []int{1, e.field.Exp(d - 1 + e.field.Base())}))
		e.generators = append(e.generators, next)
		last = next
	}
	return e.generators[degree]
}

// Encode fills the trailing ecLen positions of codewords with parity for the
// leading data positions. len(codewords) must exceed ecLen.
func (e *Encoder) Encode(codewords []int, ecLen int) {
	if ecLen == 0 {
		panic("galois: no parity codewords requested")
	}
	dataLen := len(codewords) - ecLen
	if dataLen <= 0 {
		panic("galois: no data codewords")
	}
	gen := e.generator(ecLen)
	data := make([]int, dataLen)
	copy(data, codewords[:dataLen])
	info := newPoly(e.field, data).TimesMonomial(ecLen, 1)
	_, remainder := info.DivMod(gen)
	parity := remainder.Coeffs()
	leadingZeros := ecLen - len(parity)
	for i := 0; i < leadingZeros; i++ {
		codewords[dataLen+i] = 0
	}
	copy(codewords[dataLen+leadingZeros:], parity)
}
