// Package rcch implements the NXDN Radio Control Channel message factory:
// dispatch on a 6-bit Message Type field, per spec.md §4.4.
//
// Grounded on
// original_source/src/common/nxdn/lc/rcch/RCCHFactory.cpp (message-type
// dispatch) and original_source/src/nxdn/lc/rcch/MESSAGE_TYPE_SITE_INFO.cpp
// (channel-structure byte packing and network-active flag handling).
package rcch

import "errors"

// MessageType is the 6-bit RCCH message type field.
type MessageType uint8

const (
	MessageTypeVCall      MessageType = 0x01 // RTCH_VCALL
	MessageTypeVCallConn  MessageType = 0x03 // RCCH_VCALL_CONN
	MessageTypeDCallHdr   MessageType = 0x09 // RTCH_DCALL_HDR
	MessageTypeIdle       MessageType = 0x10 // IDLE
	MessageTypeReg        MessageType = 0x21 // RCCH_REG
	MessageTypeRegC       MessageType = 0x22 // RCCH_REG_C
	MessageTypeGrpReg     MessageType = 0x23 // RCCH_GRP_REG
	MessageTypeSiteInfo   MessageType = 0x39 // RCCH_MESSAGE_TYPE_SITE_INFO
	MessageTypeDstIDInfo  MessageType = 0x38 // RCCH_MESSAGE_TYPE_DST_ID_INFO
)

// ErrUnknownMessageType is returned by Decode when the message type byte
// matches nothing in the RCCH dispatch set.
var ErrUnknownMessageType = errors.New("rcch: unknown message type")

// RCCH is the common envelope shared by every dispatched message.
type RCCH struct {
	MessageType MessageType
	Body        []byte
}

// Decode reads the 6-bit message type from data[0] and returns the RCCH
// envelope, leaving message-specific parsing to the typed decoders below.
func Decode(data []byte) (RCCH, error) {
	if len(data) == 0 {
		return RCCH{}, errors.New("rcch: empty buffer")
	}
	mt := MessageType(data[0] & 0x3F)
	switch mt {
	case MessageTypeVCall, MessageTypeVCallConn, MessageTypeDCallHdr, MessageTypeIdle,
		MessageTypeReg, MessageTypeRegC, MessageTypeGrpReg, MessageTypeSiteInfo, MessageTypeDstIDInfo:
		return RCCH{MessageType: mt, Body: append([]byte{}, data...)}, nil
	default:
		return RCCH{}, ErrUnknownMessageType
	}
}

// SiteInfo is the decoded/encoded form of RCCH_MESSAGE_TYPE_SITE_INFO.
type SiteInfo struct {
	LocationID     uint32 // 24 bits significant
	BCCHCnt        uint8  // Channel Structure - Number of BCCH
	GroupingCnt    uint8  // ... - Number of Grouping
	PagingCnt      uint8  // ... - Number of Paging Frames
	MultiCnt       uint8  // ... - Number of Multipurpose Frames
	IterateCnt     uint8  // ... - Number of Iteration
	ServiceClass   byte
	NetworkActive  bool
	ChannelNo      uint16 // 10 bits significant
}

const nxdnSIF2IPNetwork = 0x40

// EncodeSiteInfo packs a SITE_INFO body the way
// MESSAGE_TYPE_SITE_INFO::encode does.
func EncodeSiteInfo(s SiteInfo) []byte {
	rcch := make([]byte, 17)
	rcch[0] = byte(MessageTypeSiteInfo)
	rcch[1] = byte(s.LocationID >> 16)
	rcch[2] = byte(s.LocationID >> 8)
	rcch[3] = byte(s.LocationID)
	rcch[4] = (s.BCCHCnt&0x03)<<6 | (s.GroupingCnt&0x07)<<3 | (s.PagingCnt>>1)&0x07
	rcch[5] = (s.PagingCnt&0x01)<<7 | (s.MultiCnt&0x07)<<4 | s.IterateCnt&0x0F
	rcch[6] = s.ServiceClass
	if s.NetworkActive {
		rcch[7] = nxdnSIF2IPNetwork
	}
	rcch[9] = 0x08
	if !s.NetworkActive {
		rcch[10] = 0x01
	}
	rcch[14] = 1
	ch := s.ChannelNo & 0x3FF
	rcch[15] = byte(ch >> 6 & 0x0F)
	rcch[16] = byte(ch&0x3F) << 2
	return rcch
}

// DecodeSiteInfo reverses EncodeSiteInfo.
func DecodeSiteInfo(rcch []byte) (SiteInfo, error) {
	if len(rcch) < 17 {
		return SiteInfo{}, errors.New("rcch: SITE_INFO body too short")
	}
	return SiteInfo{
		LocationID:    uint32(rcch[1])<<16 | uint32(rcch[2])<<8 | uint32(rcch[3]),
		BCCHCnt:       rcch[4] >> 6 & 0x03,
		GroupingCnt:   rcch[4] >> 3 & 0x07,
		PagingCnt:     (rcch[4]&0x07)<<1 | rcch[5]>>7&0x01,
		MultiCnt:      rcch[5] >> 4 & 0x07,
		IterateCnt:    rcch[5] & 0x0F,
		ServiceClass:  rcch[6],
		NetworkActive: rcch[7]&nxdnSIF2IPNetwork != 0,
		ChannelNo:     uint16(rcch[15]&0x0F)<<6 | uint16(rcch[16]>>2),
	}, nil
}

// DstIDInfo is the decoded/encoded form of RCCH_MESSAGE_TYPE_DST_ID_INFO,
// carrying the talkgroup/unit destination ID being advertised.
type DstIDInfo struct {
	DstID uint16
}

// EncodeDstIDInfo packs a DST_ID_INFO body.
func EncodeDstIDInfo(d DstIDInfo) []byte {
	rcch := make([]byte, 4)
	rcch[0] = byte(MessageTypeDstIDInfo)
	rcch[1] = byte(d.DstID >> 8)
	rcch[2] = byte(d.DstID)
	return rcch
}

// DecodeDstIDInfo reverses EncodeDstIDInfo.
func DecodeDstIDInfo(rcch []byte) (DstIDInfo, error) {
	if len(rcch) < 3 {
		return DstIDInfo{}, errors.New("rcch: DST_ID_INFO body too short")
	}
	return DstIDInfo{DstID: uint16(rcch[1])<<8 | uint16(rcch[2])}, nil
}
