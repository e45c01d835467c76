package frame

import (
	"errors"

	"github.com/USA-RedDragon/dvmcore/internal/bitpack"
	"github.com/USA-RedDragon/dvmcore/internal/edac/crc"
)

// DataPacketFormat identifies a DMR data header's DPF field.
type DataPacketFormat uint8

const (
	DPFUDTHeader        DataPacketFormat = 0x0
	DPFResponse         DataPacketFormat = 0x1
	DPFUnconfirmedData  DataPacketFormat = 0x2
	DPFConfirmedData    DataPacketFormat = 0x3
	DPFShortData        DataPacketFormat = 0xD
	DPFRawOrStatus      DataPacketFormat = 0x6
	DPFProprietary      DataPacketFormat = 0xF
)

// DataHeader is the decoded DMR DataHeader (post BPTC decode).
type DataHeader struct {
	DPF            DataPacketFormat
	SAP            uint8
	SourceLLID     uint32
	DestinationLLID uint32
	BlocksToFollow uint8
	FullMessage    bool
}

// ErrHeaderCRCInvalid is returned when a decoded DataHeader's CRC-16 fails.
var ErrHeaderCRCInvalid = errors.New("frame: data header CRC-16 mismatch")

// EncodeHeader packs a DataHeader into its 12-byte (96-bit) on-air layout,
// including the trailing CRC-16, ready for BPTC(196,96) encoding.
func EncodeHeader(h DataHeader) []byte {
	buf := make([]byte, 12)
	buf[0] = byte(h.DPF&0xF)<<4 | byte(h.SAP&0xF)
	buf[1] = byte(h.DestinationLLID >> 16)
	buf[2] = byte(h.DestinationLLID >> 8)
	buf[3] = byte(h.DestinationLLID)
	buf[4] = byte(h.SourceLLID >> 16)
	buf[5] = byte(h.SourceLLID >> 8)
	buf[6] = byte(h.SourceLLID)
	buf[7] = h.BlocksToFollow
	if h.FullMessage {
		buf[8] |= 0x80
	}
	crc.AddSixteen(buf, headerTotalBits)
	return buf
}

// headerTotalBits is the 96-bit DataHeader on-air size (80 header bits
// plus a trailing CRC-16).
const headerTotalBits = 96

// DecodeHeader reverses EncodeHeader and validates the CRC-16.
func DecodeHeader(buf []byte) (DataHeader, error) {
	if !crc.CheckSixteen(buf, headerTotalBits) {
		return DataHeader{}, ErrHeaderCRCInvalid
	}
	h := DataHeader{
		DPF:             DataPacketFormat(buf[0] >> 4),
		SAP:             buf[0] & 0xF,
		DestinationLLID: uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]),
		SourceLLID:      uint32(buf[4])<<16 | uint32(buf[5])<<8 | uint32(buf[6]),
		BlocksToFollow:  buf[7],
		FullMessage:     buf[8]&0x80 != 0,
	}
	return h, nil
}

// rateThreeQuarterBits is the 144-bit payload carried by a Trellis-¾
// confirmed DataBlock, after Trellis decode but before the serial/CRC
// swizzle is undone.
const rateThreeQuarterBits = 144
const rateHalfRateBits = 96 // 12-byte half-rate confirmed block

// EncodeBlockConfirmed builds a confirmed DataBlock (rate ¾ shape) per
// spec.md §4.2: serial number in the top 7 bits of byte 0, CRC-9 computed
// over the swizzled payload and written into bit 8 of byte 0 plus byte 1.
func EncodeBlockConfirmed(serial uint8, payload []byte) []byte {
	buf := make([]byte, 18)
	copy(buf[2:], payload)
	buf[0] = (serial & 0x7F) << 1

	swizzled := swizzleForCRC(buf, rateThreeQuarterBits)
	c := crc.ComputeNine(swizzled, swizzledBits(rateThreeQuarterBits))
	if c&0x100 != 0 {
		buf[0] |= 0x01
	}
	buf[1] = byte(c)
	return buf
}

// swizzledBits is the bit count produced by swizzleForCRC: totalBits-16
// shifted bits plus the 7 appended serial-number bits.
func swizzledBits(totalBits int) uint32 {
	return uint32(totalBits-16) + 7
}

// DecodeBlockConfirmed extracts the serial number and payload from a
// confirmed DataBlock, logging (via the returned bool) whether the CRC-9
// validated; per spec.md §4.2 a mismatch does NOT drop the block.
func DecodeBlockConfirmed(buf []byte) (serial uint8, payload []byte, crcOK bool) {
	serial = (buf[0] >> 1) & 0x7F
	gotBit8 := buf[0]&0x01 != 0
	gotLow8 := buf[1]

	swizzled := swizzleForCRC(buf, rateThreeQuarterBits)
	want := crc.ComputeNine(swizzled, swizzledBits(rateThreeQuarterBits))
	got := uint32(0)
	if gotBit8 {
		got |= 0x100
	}
	got |= uint32(gotLow8)

	payload = append([]byte{}, buf[2:]...)
	return serial, payload, got == want
}

// swizzleForCRC reproduces the bit-shuffle spec.md §4.2/§4.7 describes:
// bits 16..totalBits are shifted to the start, with the original bits 0..6
// (the serial number field) appended at the tail.
func swizzleForCRC(buf []byte, totalBits int) []byte {
	out := make([]byte, (totalBits+7)/8+1)
	n := 0
	for i := 16; i < totalBits; i++ {
		bitpack.SetBit(out, uint32(n), bitpack.GetBit(buf, uint32(i)))
		n++
	}
	for i := 0; i < 7; i++ {
		bitpack.SetBit(out, uint32(n), bitpack.GetBit(buf, uint32(i)))
		n++
	}
	return out
}

// EncodeBlockConfirmedHalfRate builds a confirmed DataBlock in its rate-½
// (12-byte, BPTC-carried) shape, using the same serial/CRC-9 layout as the
// rate-¾ form but over the shorter 87-bit swizzle spec.md §4.6 describes.
func EncodeBlockConfirmedHalfRate(serial uint8, payload []byte) []byte {
	buf := make([]byte, 12)
	copy(buf[2:], payload)
	buf[0] = (serial & 0x7F) << 1

	swizzled := swizzleForCRC(buf, rateHalfRateBits)
	c := crc.ComputeNine(swizzled, 87)
	if c&0x100 != 0 {
		buf[0] |= 0x01
	}
	buf[1] = byte(c)
	return buf
}

// DecodeBlockConfirmedHalfRate is the rate-½ counterpart of
// DecodeBlockConfirmed.
func DecodeBlockConfirmedHalfRate(buf []byte) (serial uint8, payload []byte, crcOK bool) {
	serial = (buf[0] >> 1) & 0x7F
	gotBit8 := buf[0]&0x01 != 0
	gotLow8 := buf[1]

	swizzled := swizzleForCRC(buf, rateHalfRateBits)
	want := crc.ComputeNine(swizzled, 87)
	got := uint32(0)
	if gotBit8 {
		got |= 0x100
	}
	got |= uint32(gotLow8)

	payload = append([]byte{}, buf[2:]...)
	return serial, payload, got == want
}

// EncodeBlockUnconfirmed passes an uncoded (rate-1) DataBlock through
// unchanged; no serial number or CRC framing applies.
func EncodeBlockUnconfirmed(payload []byte) []byte {
	return append([]byte{}, payload...)
}

// DecodeBlockUnconfirmed is the identity counterpart of
// EncodeBlockUnconfirmed.
func DecodeBlockUnconfirmed(buf []byte) []byte {
	return append([]byte{}, buf...)
}
