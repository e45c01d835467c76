package bitpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteBitsRoundTrip(t *testing.T) {
	for _, b := range []byte{0x00, 0xFF, 0xA5, 0x01, 0x80} {
		var bitsOut [8]bool
		ByteToBitsBE(b, bitsOut[:])
		assert.Equal(t, b, BitsToByteBE(bitsOut[:]))

		ByteToBitsLE(b, bitsOut[:])
		assert.Equal(t, b, BitsToByteLE(bitsOut[:]))
	}
}

func TestGetSetBitRange(t *testing.T) {
	src := []byte{0b10110010, 0b01101001}
	var out [2]byte
	n := GetBitRange(src, out[:], 3, 9)
	assert.Equal(t, uint32(9), n)

	var roundTrip [2]byte
	SetBitRange(out[:], roundTrip[:], 3, 9)
	for i := uint32(3); i < 12; i++ {
		assert.Equal(t, GetBit(src, i), GetBit(roundTrip[:], i))
	}
}

func TestCountBits(t *testing.T) {
	assert.Equal(t, uint8(4), CountBits8(0b10110010))
	assert.Equal(t, uint8(8), CountBits32(0xFF))
	assert.Equal(t, uint8(16), CountBits64(0xFFFF))
}

func TestHexBitRoundTrip(t *testing.T) {
	buf := make([]byte, 9) // 12 hexbits = 72 bits = 9 bytes
	for i := uint32(0); i < 12; i++ {
		SetHexBit(buf, i, byte(i*5%64))
	}
	for i := uint32(0); i < 12; i++ {
		assert.Equal(t, byte(i*5%64), HexBit(buf, i))
	}
}
