package rs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/USA-RedDragon/dvmcore/internal/bitpack"
)

func packHexbits(vals []byte) []byte {
	buf := make([]byte, (len(vals)*6+7)/8+1)
	for i, v := range vals {
		bitpack.SetHexBit(buf, uint32(i), v)
	}
	return buf
}

// hexbits extracts the first n 6-bit symbols of buf for whole-slice
// comparison via go-cmp, rather than symbol-by-symbol assertions.
func hexbits(buf []byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = bitpack.HexBit(buf, uint32(i))
	}
	return out
}

func TestRSRoundTripsPreserveAllSymbols(t *testing.T) {
	cases := []struct {
		name string
		vals []byte
		rs   *Codec
	}{
		{"RS241213", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, RS241213},
		{"RS24169", func() []byte {
			v := make([]byte, 16)
			for i := range v {
				v[i] = byte(i * 3 % 64)
			}
			return v
		}(), RS24169},
		{"RS362017", func() []byte {
			v := make([]byte, 20)
			for i := range v {
				v[i] = byte((i*5 + 1) % 64)
			}
			return v
		}(), RS362017},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := packHexbits(c.vals)
			encoded := c.rs.Encode(data)
			decoded, err := c.rs.Decode(encoded)
			assert.NoError(t, err)
			if diff := cmp.Diff(c.vals, hexbits(decoded, len(c.vals))); diff != "" {
				t.Errorf("decoded hexbits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRS241213RoundTripNoErrors(t *testing.T) {
	data := packHexbits([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	encoded := RS241213.Encode(data)
	decoded, err := RS241213.Decode(encoded)
	assert.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Equal(t, bitpack.HexBit(data, uint32(i)), bitpack.HexBit(decoded, uint32(i)))
	}
}

func TestRS24169RoundTripNoErrors(t *testing.T) {
	vals := make([]byte, 16)
	for i := range vals {
		vals[i] = byte(i * 3 % 64)
	}
	data := packHexbits(vals)
	encoded := RS24169.Encode(data)
	decoded, err := RS24169.Decode(encoded)
	assert.NoError(t, err)
	for i := 0; i < 16; i++ {
		assert.Equal(t, bitpack.HexBit(data, uint32(i)), bitpack.HexBit(decoded, uint32(i)))
	}
}

func TestRS362017RoundTripNoErrors(t *testing.T) {
	vals := make([]byte, 20)
	for i := range vals {
		vals[i] = byte(i*5 + 1%64)
	}
	data := packHexbits(vals)
	encoded := RS362017.Encode(data)
	decoded, err := RS362017.Decode(encoded)
	assert.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, bitpack.HexBit(data, uint32(i)), bitpack.HexBit(decoded, uint32(i)))
	}
}

func TestRS241213CorrectsSingleSymbolError(t *testing.T) {
	data := packHexbits([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	encoded := RS241213.Encode(data)

	corrupted := append([]byte{}, encoded...)
	bitpack.SetHexBit(corrupted, 5, bitpack.HexBit(corrupted, 5)^0x2A)

	decoded, err := RS241213.Decode(corrupted)
	assert.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Equal(t, bitpack.HexBit(data, uint32(i)), bitpack.HexBit(decoded, uint32(i)))
	}
}
