package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNIDRoundTrip(t *testing.T) {
	n := NID{NAC: 0x293, DUID: DUIDLDU1}
	code := Encode(n)
	got, ok := Decode(code)
	assert.True(t, ok)
	assert.Equal(t, n, got)
}

func TestNIDCorrectsBitErrors(t *testing.T) {
	n := NID{NAC: 0x1AC, DUID: DUIDTDULC}
	code := Encode(n)
	for _, pos := range []int{1, 15, 30, 45} {
		code[pos] = !code[pos]
	}
	got, ok := Decode(code)
	assert.True(t, ok)
	assert.Equal(t, n, got)
}
