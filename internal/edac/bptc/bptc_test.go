package bptc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/USA-RedDragon/dvmcore/internal/bitpack"
)

func buildInfo() []byte {
	info := make([]byte, 12)
	for i := range info {
		info[i] = byte(i*41 + 7)
	}
	return info
}

func TestRoundTripNoErrors(t *testing.T) {
	info := buildInfo()
	encoded := Encode(info)
	decoded, ok := Decode(encoded)
	assert.True(t, ok)
	for i := 0; i < 96; i++ {
		assert.Equal(t, bitpack.GetBit(info, uint32(i)), bitpack.GetBit(decoded, uint32(i)), "bit %d", i)
	}
}

func TestCorrectsSingleBitErrorPerRow(t *testing.T) {
	info := buildInfo()
	encoded := Encode(info)
	// Flip one bit in row 0 (bits 0..14).
	bitpack.SetBit(encoded, 3, !bitpack.GetBit(encoded, 3))

	decoded, ok := Decode(encoded)
	assert.True(t, ok)
	for i := 0; i < 96; i++ {
		assert.Equal(t, bitpack.GetBit(info, uint32(i)), bitpack.GetBit(decoded, uint32(i)), "bit %d", i)
	}
}

func TestHamming1511SingleErrorCorrection(t *testing.T) {
	data := [11]bool{true, false, true, true, false, false, true, false, true, false, true}
	code := hamming1511Encode(data)
	code[4] = !code[4]
	got, corrected, ok := hamming1511Decode(code)
	assert.True(t, ok)
	assert.True(t, corrected)
	assert.Equal(t, data, got)
}

func TestHamming139SingleErrorCorrection(t *testing.T) {
	data := [9]bool{true, false, true, true, false, false, true, false, true}
	code := hamming139Encode(data)
	code[2] = !code[2]
	got, corrected, ok := hamming139Decode(code)
	assert.True(t, ok)
	assert.True(t, corrected)
	assert.Equal(t, data, got)
}
