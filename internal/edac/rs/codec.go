package rs

import (
	"errors"

	"github.com/USA-RedDragon/dvmcore/internal/bitpack"
)

// ErrUncorrectable is returned when a Reed-Solomon codeword carries more
// symbol errors than the code's correction bound.
var ErrUncorrectable = errors.New("rs: uncorrectable number of symbol errors")

// Codec is a systematic Reed-Solomon code over GF(2^6) with n total symbols,
// k data symbols, and parity = n-k symbols (correcting up to parity/2
// symbol errors).
type Codec struct {
	n, k   int
	parity int
	gen    []byte // generator polynomial, degree n-k, highest-degree coeff first
}

func newCodec(n, k int) *Codec {
	parity := n - k
	gen := []byte{1}
	for i := 0; i < parity; i++ {
		root := gfPow(2, i)
		gen = polyMulMonic(gen, root)
	}
	return &Codec{n: n, k: k, parity: parity, gen: gen}
}

// polyMulMonic multiplies p by (x - root), root-first coefficient leading.
func polyMulMonic(p []byte, root byte) []byte {
	out := make([]byte, len(p)+1)
	copy(out, p)
	for i := len(p) - 1; i >= 0; i-- {
		out[i+1] ^= gfMul(p[i], root)
	}
	return out
}

var (
	// RS241213 is RS(24,12,13): 12 data hexbits, 12 parity hexbits.
	RS241213 = newCodec(24, 12)
	// RS24169 is RS(24,16,9): 16 data hexbits, 8 parity hexbits.
	RS24169 = newCodec(24, 16)
	// RS362017 is RS(36,20,17): 20 data hexbits, 16 parity hexbits.
	RS362017 = newCodec(36, 20)
)

// Encode reads c.k hexbits from an MSB-first bit buffer starting at bit 0
// and returns c.n hexbits packed the same way (data symbols followed by
// parity symbols).
func (c *Codec) Encode(in []byte) []byte {
	data := make([]byte, c.k)
	for i := 0; i < c.k; i++ {
		data[i] = bitpack.HexBit(in, uint32(i))
	}

	// Multiply data by x^parity (shift) then reduce mod generator to get
	// the parity remainder, exactly as systematic RS/CRC encoding works.
	remainder := make([]byte, c.parity)
	scratch := append(append([]byte{}, data...), remainder...)
	for i := 0; i < c.k; i++ {
		coeff := scratch[i]
		if coeff == 0 {
			continue
		}
		for j := 0; j < len(c.gen); j++ {
			scratch[i+j] ^= gfMul(coeff, c.gen[j])
		}
	}
	copy(remainder, scratch[c.k:])

	out := make([]byte, (c.n*6+7)/8)
	for i := 0; i < c.k; i++ {
		bitpack.SetHexBit(out, uint32(i), data[i])
	}
	for i := 0; i < c.parity; i++ {
		bitpack.SetHexBit(out, uint32(c.k+i), remainder[i])
	}
	return out
}

// Decode reads c.n hexbits from an MSB-first bit buffer, corrects up to
// c.parity/2 symbol errors, and returns the c.k data hexbits. Returns
// ErrUncorrectable if the codeword carries more errors than the bound.
func (c *Codec) Decode(in []byte) ([]byte, error) {
	recv := make([]byte, c.n)
	for i := 0; i < c.n; i++ {
		recv[i] = bitpack.HexBit(in, uint32(i))
	}

	t := c.parity / 2
	syndromes := make([]byte, c.parity)
	hasError := false
	for i := 0; i < c.parity; i++ {
		syndromes[i] = polyEvalCodeword(recv, gfPow(2, i))
		if syndromes[i] != 0 {
			hasError = true
		}
	}

	out := make([]byte, (c.k*6+7)/8)
	if !hasError {
		for i := 0; i < c.k; i++ {
			bitpack.SetHexBit(out, uint32(i), recv[i])
		}
		return out, nil
	}

	errLocator, errCount := berlekampMassey(syndromes, t)
	if errCount == 0 || errCount > t {
		return nil, ErrUncorrectable
	}

	positions := chienSearch(errLocator, c.n)
	if len(positions) != errCount {
		return nil, ErrUncorrectable
	}

	magnitudes := forney(syndromes, errLocator, positions, c.n)
	corrected := append([]byte{}, recv...)
	for i, pos := range positions {
		idx := c.n - 1 - pos
		if idx < 0 || idx >= c.n {
			return nil, ErrUncorrectable
		}
		corrected[idx] ^= magnitudes[i]
	}

	// Re-check after correction.
	for i := 0; i < c.parity; i++ {
		if polyEvalCodeword(corrected, gfPow(2, i)) != 0 {
			return nil, ErrUncorrectable
		}
	}

	for i := 0; i < c.k; i++ {
		bitpack.SetHexBit(out, uint32(i), corrected[i])
	}
	return out, nil
}

// polyEvalCodeword evaluates the received codeword (symbol 0 = highest
// degree, i.e. the first transmitted symbol) at x.
func polyEvalCodeword(recv []byte, x byte) byte {
	return polyEval(recv, x)
}

// berlekampMassey computes the error-locator polynomial from the syndrome
// sequence, returning it (constant term first) and the number of errors
// (its degree). t bounds the search.
func berlekampMassey(syndromes []byte, t int) ([]byte, int) {
	n := len(syndromes)
	c := make([]byte, n+1)
	b := make([]byte, n+1)
	c[0], b[0] = 1, 1
	l := 0
	m := 1
	bCoef := byte(1)

	for i := 0; i < n; i++ {
		delta := syndromes[i]
		for j := 1; j <= l; j++ {
			delta ^= gfMul(c[j], syndromes[i-j])
		}
		if delta == 0 {
			m++
			continue
		}
		tC := append([]byte{}, c...)
		coef := gfDiv(delta, bCoef)
		for j := 0; j+m < len(c); j++ {
			c[j+m] ^= gfMul(coef, b[j])
		}
		if 2*l <= i {
			l = i + 1 - l
			b = tC
			bCoef = delta
			m = 1
		} else {
			m++
		}
	}
	if l > t {
		return c, l
	}
	// Reverse into highest-degree-first form expected by chienSearch/forney.
	locator := make([]byte, l+1)
	for i := 0; i <= l; i++ {
		locator[i] = c[l-i]
	}
	return locator, l
}

// chienSearch finds roots of the error-locator polynomial by brute-force
// evaluation over all n codeword positions, returning the 0-based position
// index (from the end of the codeword) for each root found.
func chienSearch(locator []byte, n int) []int {
	var positions []int
	for i := 0; i < n; i++ {
		x := gfPow(2, i)
		xInv := gfInv(x)
		if polyEval(locator, xInv) == 0 {
			positions = append(positions, i)
		}
	}
	return positions
}

// forney computes error magnitudes at the given error positions using the
// syndrome polynomial and error-locator polynomial.
func forney(syndromes, locator []byte, positions []int, n int) []byte {
	// Error evaluator polynomial: Omega(x) = S(x) * Lambda(x) mod x^(2t)
	t2 := len(syndromes)
	omega := make([]byte, t2)
	for i := 0; i < t2; i++ {
		var sum byte
		for j := 0; j <= i && j < len(locator); j++ {
			sum ^= gfMul(locator[len(locator)-1-j], syndromes[i-j])
		}
		omega[t2-1-i] = sum
	}

	// Formal derivative of locator (highest-degree-first form): drop
	// even-degree terms, halve degree.
	lambdaPrime := make([]byte, 0, len(locator)/2+1)
	deg := len(locator) - 1
	for i := 0; i < len(locator)-1; i++ {
		power := deg - i
		if power%2 == 1 {
			lambdaPrime = append(lambdaPrime, locator[i])
		}
	}
	if len(lambdaPrime) == 0 {
		lambdaPrime = []byte{1}
	}

	magnitudes := make([]byte, len(positions))
	for idx, pos := range positions {
		x := gfPow(2, pos)
		xInv := gfInv(x)
		num := polyEval(omega, xInv)
		den := polyEval(lambdaPrime, gfMul(xInv, xInv))
		if den == 0 {
			magnitudes[idx] = 0
			continue
		}
		// First root alpha^0: e = X * Omega(X^-1) / Lambda'(X^-1).
		magnitudes[idx] = gfMul(x, gfDiv(num, den))
	}
	return magnitudes
}
