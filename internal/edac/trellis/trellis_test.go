package trellis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTribits() []byte {
	return []byte{1, 6, 2, 7, 0, 5, 3, 4, 1, 6}
}

func sampleBits() []bool {
	return []bool{true, false, true, true, false, false, true, false, true, true}
}

func TestThreeQuarterRoundTripNoErrors(t *testing.T) {
	tribits := sampleTribits()
	symbols := EncodeThreeQuarter(tribits)
	decoded := DecodeThreeQuarter(symbols)
	assert.Equal(t, tribits, decoded)
}

func TestThreeQuarterCorrectsScatteredErrors(t *testing.T) {
	tribits := sampleTribits()
	symbols := EncodeThreeQuarter(tribits)
	symbols[3] ^= 0x1
	symbols[7] ^= 0x4

	decoded := DecodeThreeQuarter(symbols)
	assert.Equal(t, tribits, decoded)
}

func TestHalfRateRoundTripNoErrors(t *testing.T) {
	bits := sampleBits()
	symbols := EncodeHalfRate(bits)
	decoded := DecodeHalfRate(symbols)
	assert.Equal(t, bits, decoded)
}

func TestInterleaveRoundTrip(t *testing.T) {
	in := make([]bool, 98)
	for i := range in {
		in[i] = i%3 == 0
	}
	out := Deinterleave(Interleave(in))
	assert.Equal(t, in, out)
}
