package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiveBitRoundTrip(t *testing.T) {
	buf := []byte{0b10110101, 0b00000000}
	const bitLen = 13 // 8 data bits + 5 CRC bits
	AddFiveBit(buf, bitLen)
	assert.True(t, CheckFiveBit(buf, bitLen))
	buf[0] ^= 0x80
	assert.False(t, CheckFiveBit(buf, bitLen))
}

func TestBitOrientedCRCsRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		add   func([]byte, uint32)
		check func([]byte, uint32) bool
		width uint32
	}{
		{"crc6", AddSix, CheckSix, 6},
		{"crc9", AddNine, CheckNine, 9},
		{"crc12", AddTwelve, CheckTwelve, 12},
		{"crc15", AddFifteen, CheckFifteen, 15},
		{"crc16", AddSixteen, CheckSixteen, 16},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			payloadBits := uint32(40)
			buf := make([]byte, (payloadBits+c.width+7)/8+1)
			for i := range buf {
				buf[i] = byte(i*37 + 11)
			}
			bitLen := payloadBits + c.width
			c.add(buf, bitLen)
			assert.True(t, c.check(buf, bitLen), "%s check after add", c.name)

			buf[0] ^= 0x40
			assert.False(t, c.check(buf, bitLen), "%s check after flip", c.name)
		})
	}
}

func TestCRC8RoundTrip(t *testing.T) {
	buf := make([]byte, 9)
	for i := range buf[:8] {
		buf[i] = byte(i * 29)
	}
	buf[8] = CRC8(buf[:8])

	assert.Equal(t, buf[8], CRC8(buf[:8]))
	buf[0] ^= 0x01
	assert.NotEqual(t, buf[8], CRC8(buf[:8]))
}

func TestCCITT161RoundTrip(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf[:8] {
		buf[i] = byte(i*53 + 3)
	}
	AddCCITT161(buf, 10)
	assert.True(t, CheckCCITT161(buf, 10))
	buf[0] ^= 0x10
	assert.False(t, CheckCCITT161(buf, 10))
}

func TestCCITT162RoundTrip(t *testing.T) {
	buf := make([]byte, 12)
	for i := range buf[:10] {
		buf[i] = byte(i*17 + 5)
	}
	AddCCITT162(buf, 12)
	assert.True(t, CheckCCITT162(buf, 12))
	buf[3] ^= 0x08
	assert.False(t, CheckCCITT162(buf, 12))
}

func TestCRC32RoundTrip(t *testing.T) {
	buf := make([]byte, 20)
	for i := range buf[:16] {
		buf[i] = byte(i*13 + 1)
	}
	AddCRC32(buf, 20)
	assert.True(t, CheckCRC32(buf, 20))
	buf[5] ^= 0x02
	assert.False(t, CheckCRC32(buf, 20))
}
