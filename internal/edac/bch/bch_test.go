package bch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleData() [k]bool {
	var d [k]bool
	pattern := []bool{true, false, true, true, false, false, true, false, true, true, false, false, true, true, false, true}
	copy(d[:], pattern)
	return d
}

func TestRoundTripNoErrors(t *testing.T) {
	data := sampleData()
	code := Encode(data)
	got, ok := Decode(code)
	assert.True(t, ok)
	assert.Equal(t, data, got)
}

func TestCorrectsScatteredBitErrors(t *testing.T) {
	data := sampleData()
	code := Encode(data)
	for _, pos := range []int{2, 9, 20, 33, 44} {
		code[pos] = !code[pos]
	}
	got, ok := Decode(code)
	assert.True(t, ok)
	assert.Equal(t, data, got)
}

func TestGeneratorDegreeMatchesParity(t *testing.T) {
	assert.Equal(t, n-k, len(generator)-1)
}
