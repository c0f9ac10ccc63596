package galois

import "errors"

// ErrCorrection indicates the received codewords carry more errors than the
// parity can repair.
var ErrCorrection = errors.New("galois: too many errors to correct")

// Decoder repairs Reed-Solomon codewords over one field.
type Decoder struct {
	field *Field
}

// NewDecoder returns a Decoder over the given field.
func NewDecoder(field *Field) *Decoder {
	return &Decoder{field: field}
}

// Decode repairs received in place, where the final twoS positions hold
// parity. It returns the number of corrected errors, or ErrCorrection when
// more than twoS/2 positions are wrong.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	poly := newPoly(d.field, received)
	syndromes := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		eval := poly.EvalAt(d.field.Exp(i + d.field.Base()))
		syndromes[twoS-1-i] = eval
		if eval != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	syndrome := newPoly(d.field, syndromes)
	sigma, omega, err := d.euclidean(d.field.Monomial(twoS, 1), syndrome, twoS)
	if err != nil {
		return 0, err
	}
	locations, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes := d.errorMagnitudes(omega, locations)
	for i := 0; i < len(locations); i++ {
		position := len(received) - 1 - d.field.Log(locations[i])
		if position < 0 {
			return 0, ErrCorrection
		}
		received[position] = Add(received[position], magnitudes[i])
	}
	return len(locations), nil
}

// euclidean derives the error locator sigma and evaluator omega by running
// the extended Euclidean algorithm until the remainder degree drops below R/2.
func (d *Decoder) euclidean(a, b *Poly, R int) (sigma, omega *Poly, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := d.field.Zero(), d.field.One()

	for 2*r.Degree() >= R {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, ErrCorrection
		}
		r = rLastLast
		q := d.field.Zero()
		leading := rLast.Coeff(rLast.Degree())
		invLeading := d.field.Inv(leading)
		for r.Degree() >= rLast.Degree() && !r.IsZero() {
			diff := r.Degree() - rLast.Degree()
			scale := d.field.Mul(r.Coeff(r.Degree()), invLeading)
			q = q.Plus(d.field.Monomial(diff, scale))
			r = r.Plus(rLast.TimesMonomial(diff, scale))
		}
		t = q.Times(tLast).Plus(tLastLast)
		if r.Degree() >= rLast.Degree() {
			return nil, nil, ErrCorrection
		}
	}

	sigmaAtZero := t.Coeff(0)
	if sigmaAtZero == 0 {
		return nil, nil, ErrCorrection
	}
	inv := d.field.Inv(sigmaAtZero)
	return t.TimesScalar(inv), r.TimesScalar(inv), nil
}

// errorLocations finds the roots of sigma by Chien search over the field.
func (d *Decoder) errorLocations(sigma *Poly) ([]int, error) {
	numErrors := sigma.Degree()
	if numErrors == 1 {
		return []int{sigma.Coeff(1)}, nil
	}
	locations := make([]int, 0, numErrors)
	for i := 1; i < d.field.Size() && len(locations) < numErrors; i++ {
		if sigma.EvalAt(i) == 0 {
			locations = append(locations, d.field.Inv(i))
		}
	}
	if len(locations) != numErrors {
		return nil, ErrCorrection
	}
	return locations, nil
}

// errorMagnitudes applies Forney's formula at each located position.
func (d *Decoder) errorMagnitudes(omega *Poly, locations []int) []int {
	s := len(locations)
	magnitudes := make([]int, s)
	for i := 0; i < s; i++ {
		xiInv := d.field.Inv(locations[i])
		denominator := 1
		for j := 0; j < s; j++ {
			if i == j {
				continue
			}
			term := d.field.Mul(locations[j], xiInv)
			termPlusOne := term | 1
			if term&1 != 0 {
				termPlusOne = term &^ 1
			}
			denominator = d.field.Mul(denominator, termPlusOne)
		}
		magnitudes[i] = d.field.Mul(omega.EvalAt(xiInv), d.field.Inv(denominator))
		if d.field.Base() != 0 {
			magnitudes[i] = d.field.Mul(magnitudes[i], xiInv)
		}
	}
	return magnitudes
}
