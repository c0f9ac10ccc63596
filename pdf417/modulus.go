package pdf417

import gridscan "github.com/lkaramanov/gridscan"

// modField is the prime field GF(929) with generator 3 that PDF417 error
// correction runs in.
type modField struct {
	expTable []int
	logTable []int
	zero     *modPoly
	one      *modPoly
	modulus  int
}

// field929 must be a var initialization so dependent package vars resolve
// in order.
var field929 = newModField(929, 3)

func newModField(modulus, generator int) *modField {
	f := &modField{
		modulus:  modulus,
		expTable: make([]int, modulus),
		logTable: make([]int, modulus),
	}
	x := 1
	for i := 0; i < modulus; i++ {
		f.expTable[i] = x
		x = (x * generator) % modulus
	}
	for i := 0; i < modulus-1; i++ {
		f.logTable[f.expTable[i]] = i
	}
	f.zero = newModPoly(f, []int{0})
	f.one = newModPoly(f, []int{1})
	return f
}

func (f *modField) monomial(degree, coefficient int) *modPoly {
	if degree < 0 {
		panic("pdf417: negative degree")
	}
	if coefficient == 0 {
		return f.zero
	}
	coefficients := make([]int, degree+1)
	coefficients[0] = coefficient
	return newModPoly(f, coefficients)
}

func (f *modField) add(a, b int) int      { return (a + b) % f.modulus }
func (f *modField) subtract(a, b int) int { return (f.modulus + a - b) % f.modulus }
func (f *modField) exp(a int) int         { return f.expTable[a] }

func (f *modField) log(a int) int {
	if a == 0 {
		panic("pdf417: log of zero")
	}
	return f.logTable[a]
}

func (f *modField) inverse(a int) int {
	if a == 0 {
		panic("pdf417: inverse of zero")
	}
	return f.expTable[f.modulus-f.logTable[a]-1]
}

func (f *modField) multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.expTable[(f.logTable[a]+f.logTable[b])%(f.modulus-1)]
}

func (f *modField) size() int { return f.modulus }

// modPoly is a polynomial over modField, coefficients highest degree first.
type modPoly struct {
	field  *modField
	coeffs []int
}

func newModPoly(field *modField, coeffs []int) *modPoly {
	if len(coeffs) == 0 {
		panic("pdf417: empty coefficients")
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
	return &modPoly{field: field, coeffs: coeffs}
}

func (p *modPoly) degree() int  { return len(p.coeffs) - 1 }
func (p *modPoly) isZero() bool { return p.coeffs[0] == 0 }

func (p *modPoly) coeff(degree int) int {
	return p.coeffs[len(p.coeffs)-1-degree]
}

func (p *modPoly) evalAt(a int) int {
	if a == 0 {
		return p.coeff(0)
	}
	if a == 1 {
		result := 0
		for _, c := range p.coeffs {
			result = p.field.add(result, c)
		}
		return result
	}
	result := p.coeffs[0]
	for i := 1; i < len(p.coeffs); i++ {
		result = p.field.add(p.field.multiply(a, result), p.coeffs[i])
	}
	return result
}

func (p *modPoly) plus(other *modPoly) *modPoly {
	if p.isZero() {
		return other
	}
	if other.isZero() {
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
		sum[i] = p.field.add(smaller[i-diff], larger[i])
	}
	return newModPoly(p.field, sum)
}

func (p *modPoly) minus(other *modPoly) *modPoly {
	if other.isZero() {
		return p
	}
	return p.plus(other.negative())
}

func (p *modPoly) times(other *modPoly) *modPoly {
	if p.isZero() || other.isZero() {
		return p.field.zero
	}
	product := make([]int, len(p.coeffs)+len(other.coeffs)-1)
	for i, a := range p.coeffs {
		for j, b := range other.coeffs {
			product[i+j] = p.field.add(product[i+j], p.field.multiply(a, b))
		}
	}
	return newModPoly(p.field, product)
}

func (p *modPoly) negative() *modPoly {
	negated := make([]int, len(p.coeffs))
	for i, c := range p.coeffs {
		negated[i] = p.field.subtract(0, c)
	}
	return newModPoly(p.field, negated)
}

func (p *modPoly) timesScalar(scalar int) *modPoly {
	if scalar == 0 {
		return p.field.zero
	}
	if scalar == 1 {
		return p
	}
	product := make([]int, len(p.coeffs))
	for i, c := range p.coeffs {
		product[i] = p.field.multiply(c, scalar)
	}
	return newModPoly(p.field, product)
}

func (p *modPoly) timesMonomial(degree, coefficient int) *modPoly {
	if degree < 0 {
		panic("pdf417: negative degree")
	}
	if coefficient == 0 {
		return p.field.zero
	}
	product := make([]int, len(p.coeffs)+degree)
	for i, c := range p.coeffs {
		product[i] = p.field.multiply(c, coefficient)
	}
	return newModPoly(p.field, product)
}

// correctCodewords repairs received in place; erasures lists known-bad
// positions. Returns the number of corrected errors.
func correctCodewords(received []int, numECCodewords int, erasures []int) (int, error) {
	poly := newModPoly(field929, received)
	syndromes := make([]int, numECCodewords)
	hasError := false
	for i := numECCodewords; i > 0; i-- {
		eval := poly.evalAt(field929.exp(i))
		syndromes[numECCodewords-i] = eval
		if eval != 0 {
			hasError = true
		}
	}
	if !hasError {
		return 0, nil
	}

	knownErrors := field929.one
	for _, erasure := range erasures {
		b := field929.exp(len(received) - 1 - erasure)
		term := newModPoly(field929, []int{field929.subtract(0, b), 1})
		knownErrors = knownErrors.times(term)
	}

	syndrome := newModPoly(field929, syndromes)
	sigma, omega, err := euclidean929(field929.monomial(numECCodewords, 1), syndrome, numECCodewords)
	if err != nil {
		return 0, err
	}
	locations, err := errorLocations929(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes := errorMagnitudes929(omega, sigma, locations)

	for i := 0; i < len(locations); i++ {
		position := len(received) - 1 - field929.log(locations[i])
		if position < 0 {
			return 0, gridscan.ErrChecksum
		}
		received[position] = field929.subtract(received[position], magnitudes[i])
	}
	return len(locations), nil
}

func euclidean929(a, b *modPoly, R int) (sigma, omega *modPoly, err error) {
	if a.degree() < b.degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := field929.zero, field929.one

	for r.degree() >= R/2 {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.isZero() {
			return nil, nil, gridscan.ErrChecksum
		}
		r = rLastLast
		q := field929.zero
		leading := rLast.coeff(rLast.degree())
		invLeading := field929.inverse(leading)
		for r.degree() >= rLast.degree() && !r.isZero() {
			diff := r.degree() - rLast.degree()
			scale := field929.multiply(r.coeff(r.degree()), invLeading)
			q = q.plus(field929.monomial(diff, scale))
			r = r.minus(rLast.timesMonomial(diff, scale))
		}
		t = q.times(tLast).minus(tLastLast).negative()
	}

	sigmaAtZero := t.coeff(0)
	if sigmaAtZero == 0 {
		return nil, nil, gridscan.ErrChecksum
	}
	inv := field929.inverse(sigmaAtZero)
	return t.timesScalar(inv), r.timesScalar(inv), nil
}

func errorLocations929(sigma *modPoly) ([]int, error) {
	numErrors := sigma.degree()
	locations := make([]int, numErrors)
	found := 0
	for i := 1; i < field929.size() && found < numErrors; i++ {
		if sigma.evalAt(i) == 0 {
			locations[found] = field929.inverse(i)
			found++
		}
	}
	if found != numErrors {
		return nil, gridscan.ErrChecksum
	}
	return locations, nil
}

func errorMagnitudes929(omega, sigma *modPoly, locations []int) []int {
	degree := sigma.degree()
	if degree < 1 {
		return []int{}
	}
	derivativeCoeffs := make([]int, degree)
	for i := 1; i <= degree; i++ {
		derivativeCoeffs[degree-i] = field929.multiply(i, sigma.coeff(i))
	}
	derivative := newModPoly(field929, derivativeCoeffs)

	magnitudes := make([]int, len(locations))
	for i, location := range locations {
		xiInv := field929.inverse(location)
		numerator := field929.subtract(0, omega.evalAt(xiInv))
		denominator := field929.inverse(derivative.evalAt(xiInv))
		magnitudes[i] = field929.multiply(numerator, denominator)
	}
	return magnitudes
}

// parityCodewords computes the ecLen error-correction codewords appended
// after the data, via synthetic division by the generator polynomial with
// roots 3^1 .. 3^ecLen.
func parityCodewords(data []int, ecLen int) []int {
	generator := field929.one
	for i := 1; i <= ecLen; i++ {
		root := field929.exp(i)
		generator = generator.times(newModPoly(field929, []int{1, field929.subtract(0, root)}))
	}

	info := newModPoly(field929, data).timesMonomial(ecLen, 1)
	remainder := info
	leading := generator.coeff(generator.degree())
	invLeading := field929.inverse(leading)
	for remainder.degree() >= generator.degree() && !remainder.isZero() {
		diff := remainder.degree() - generator.degree()
		scale := field929.multiply(remainder.coeff(remainder.degree()), invLeading)
		remainder = remainder.minus(generator.timesMonomial(diff, scale))
	}

	parity := make([]int, ecLen)
	for i := 0; i < ecLen; i++ {
		parity[i] = field929.subtract(0, remainder.coeff(ecLen-1-i))
	}
	return parity
}
