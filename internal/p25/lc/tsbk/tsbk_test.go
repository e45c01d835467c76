package tsbk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawRoundTrip(t *testing.T) {
	tb := TSBK{LCO: LCOAdjStsBcast, MFId: 0x90, Payload: 0x1122334455667788}
	raw := EncodeRaw(tb)
	got, err := DecodeRaw(raw, false)
	assert.NoError(t, err)
	assert.Equal(t, tb, got)
}

func TestRawRejectsBadCRC(t *testing.T) {
	tb := TSBK{LCO: LCOSyncBcast, MFId: 0x1, Payload: 42}
	raw := EncodeRaw(tb)
	raw[2] ^= 0xFF
	_, err := DecodeRaw(raw, false)
	assert.Error(t, err)
}

func TestRawWarnOnlyTolerates(t *testing.T) {
	tb := TSBK{LCO: LCOSyncBcast, MFId: 0x1, Payload: 42}
	raw := EncodeRaw(tb)
	raw[2] ^= 0xFF
	got, err := DecodeRaw(raw, true)
	assert.NoError(t, err)
	assert.Equal(t, tb.LCO, got.LCO)
}

func TestOnAirRoundTrip(t *testing.T) {
	tb := TSBK{LCO: LCOIdenUp, MFId: 0x0, Payload: 0xDEADBEEFCAFEBABE}
	symbols := EncodeOnAir(tb)
	got, err := DecodeOnAir(symbols)
	assert.NoError(t, err)
	assert.Equal(t, tb, got)
}

func TestEncodeIdenUpRejectsZeroFields(t *testing.T) {
	_, err := EncodeIdenUp(0, 5, 851000000, 1, false)
	assert.Error(t, err)
	_, err = EncodeIdenUp(12.5, 5, 0, 1, false)
	assert.Error(t, err)
}

func TestEncodeIdenUpPacksFields(t *testing.T) {
	v, err := EncodeIdenUp(12.5, 9.6, 851006250, 3, false)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), (v>>60)&0xF)
}
