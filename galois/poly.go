package galois

// Poly is a polynomial with coefficients in a single Field, stored from the
// highest-degree term down. Polynomials are immutable.
type Poly struct {
	field  *Field
	coeffs []int
}

func newPoly(field *Field, coeffs []int) *Poly {
	if len(coeffs) == 0 {
		panic("galois: polynomial needs at least one coefficient")
	}
	if len(coeffs) > 1 && coeffs[0] == 0 {
		firstNonZero := 1
		for firstNonZero < len(coeffs) && coeffs[firstNonZero] == 0 {
			firstNonZero++
		}
		if firstNonZero == len(coeffs) {
			coeffs = []int{0}
		} else {
			trimmed := make([]int, len(coeffs)-firstNonZero)
			copy(trimmed, coeffs[firstNonZero:])
			coeffs = trimmed
		}
	}
	return &Poly{field: field, coeffs: coeffs}
}

// NewPoly builds a polynomial over field from high-to-low coefficients.
func NewPoly(field *Field, coeffs []int) *Poly {
	return newPoly(field, coeffs)
}

// Coeffs returns the coefficient slice, highest degree first.
func (p *Poly) Coeffs() []int { return p.coeffs }

// Degree returns the degree of the polynomial.
func (p *Poly) Degree() int { return len(p.coeffs) - 1 }

// IsZero reports whether this is the zero polynomial.
func (p *Poly) IsZero() bool { return p.coeffs[0] == 0 }

// Coeff returns the coefficient of the x^degree term.
func (p *Poly) Coeff(degree int) int {
	return p.coeffs[len(p.coeffs)-1-degree]
}

// EvalAt evaluates the polynomial at a.
func (p *Poly) EvalAt(a int) int {
	if a == 0 {
		return p.Coeff(0)
	}
	if a == 1 {
		result := 0
		for _, c := range p.coeffs {
			result = Add(result, c)
		}
		return result
	}
	result := p.coeffs[0]
	for i := 1; i < len(p.coeffs); i++ {
		result = Add(p.field.Mul(a, result), p.coeffs[i])
	}
	return result
}

// Plus returns p + other (equally, p - other).
func (p *Poly) Plus(other *Poly) *Poly {
	if p.IsZero() {
		return other
	}
	if other.IsZero() {
		return p
	}
	smaller := p.coeffs
	larger := other.coeffs
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}
	sum := make([]int, len(larger))
	diff := len(larger) - len(smaller)
	copy(sum, larger[:diff])
	for i := diff; i < len(larger); i++ {
		sum[i] = Add(smaller[i-diff], larger[i])
	}
	return newPoly(p.field, sum)
}

// Times returns p * other.
func (p *Poly) Times(other *Poly) *Poly {
	if p.IsZero() || other.IsZero() {
		return p.field.Zero()
	}
	product := make([]int, len(p.coeffs)+len(other.coeffs)-1)
	for i, a := range p.coeffs {
		for j, b := range other.coeffs {
			product[i+j] = Add(product[i+j], p.field.Mul(a, b))
		}
	}
	return newPoly(p.field, product)
}

// TimesScalar returns p scaled by a field element.
func (p *Poly) TimesScalar(scalar int) *Poly {
	if scalar == 0 {
		return p.field.Zero()
	}
	if scalar == 1 {
		return p
	}
	product := make([]int, len(p.coeffs))
	for i, c := range p.coeffs {
		product[i] = p.field.Mul(c, scalar)
	}
	return newPoly(p.field, product)
}

// TimesMonomial returns p * coefficient * x^degree.
func (p *Poly) TimesMonomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("galois: negative degree")
	}
	if coefficient == 0 {
		return p.field.Zero()
	}
	product := make([]int, len(p.coeffs)+degree)
	for i, c := range p.coeffs {
		product[i] = p.field.Mul(c, coefficient)
	}
	return newPoly(p.field, product)
}

// DivMod returns the quotient and remainder of p / other.
func (p *Poly) DivMod(other *Poly) (quotient, remainder *Poly) {
	if other.IsZero() {
		panic("galois: division by zero polynomial")
	}
	quotient = p.field.Zero()
	remainder = p
	leading := other.Coeff(other.Degree())
	invLeading := p.field.Inv(leading)
	for remainder.Degree() >= other.Degree() && !remainder.IsZero() {
		diff := remainder.Degree() - other.Degree()
		scale := p.field.Mul(remainder.Coeff(remainder.Degree()), invLeading)
		quotient = quotient.Plus(p.field.Monomial(diff, scale))
		remainder = remainder.Plus(other.TimesMonomial(diff, scale))
	}
	return quotient, remainder
}
