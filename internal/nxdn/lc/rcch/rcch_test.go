package rcch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeDispatchesKnownMessageType(t *testing.T) {
	data := []byte{byte(MessageTypeReg), 0, 0}
	got, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, MessageTypeReg, got.MessageType)
}

func TestDecodeRejectsUnknownMessageType(t *testing.T) {
	_, err := Decode([]byte{0x3F})
	assert.Error(t, err)
}

func TestSiteInfoRoundTrip(t *testing.T) {
	s := SiteInfo{
		LocationID:    0x00ABCD,
		BCCHCnt:       1,
		GroupingCnt:   2,
		PagingCnt:     9,
		MultiCnt:      3,
		IterateCnt:    5,
		ServiceClass:  0x12,
		NetworkActive: true,
		ChannelNo:     0x2A5,
	}
	body := EncodeSiteInfo(s)
	got, err := DecodeSiteInfo(body)
	assert.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSiteInfoNetworkInactiveSetsRestriction(t *testing.T) {
	s := SiteInfo{NetworkActive: false}
	body := EncodeSiteInfo(s)
	got, err := DecodeSiteInfo(body)
	assert.NoError(t, err)
	assert.False(t, got.NetworkActive)
	assert.Equal(t, byte(0x01), body[10])
}

func TestDstIDInfoRoundTrip(t *testing.T) {
	d := DstIDInfo{DstID: 0xBEEF}
	body := EncodeDstIDInfo(d)
	got, err := DecodeDstIDInfo(body)
	assert.NoError(t, err)
	assert.Equal(t, d, got)
}
