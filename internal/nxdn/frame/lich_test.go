package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLICHRoundTrip(t *testing.T) {
	l := LICH{RFCT: 0x2, FCT: 0x1}
	raw := Encode(l)
	got, ok := Decode(raw)
	assert.True(t, ok)
	assert.Equal(t, l, got)
}

func TestLICHCorrectsSingleBitError(t *testing.T) {
	l := LICH{RFCT: 0x1, FCT: 0x3}
	raw := Encode(l)
	raw ^= 0x40 // flip a data bit
	got, ok := Decode(raw)
	assert.True(t, ok)
	assert.Equal(t, l, got)
}

func TestLICHDetectsDoubleBitError(t *testing.T) {
	l := LICH{RFCT: 0x0, FCT: 0x2}
	raw := Encode(l)
	raw ^= 0xC0 // flip two data bits
	_, ok := Decode(raw)
	assert.False(t, ok)
}
