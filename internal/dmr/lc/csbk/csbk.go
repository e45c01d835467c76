// Package csbk implements the DMR Control Signalling Block factory: FEC
// decode (BPTC(196,96) -> opcode-specific CRC mask XOR -> CCITT-162 check),
// opcode/FID dispatch, and the symmetric encode path.
//
// Grounded on original_source/src/common/dmr/lc/csbk/CSBKFactory.cpp (FEC
// pipeline and CSBKO/FID dispatch shape) and
// original_source/src/dmr/lc/csbk/CSBK_EXT_FNCT.cpp,
// CSBK_P_GRANT.cpp (representative opcode field layouts, per spec.md §4.3's
// explicitly non-exhaustive opcode set).
package csbk

import (
	"errors"

	"github.com/USA-RedDragon/dvmcore/internal/edac/bptc"
	"github.com/USA-RedDragon/dvmcore/internal/edac/crc"
)

// Opcode is the 6-bit CSBKO field.
type Opcode uint8

const (
	OpcodeBSDwnAct    Opcode = 0x38
	OpcodeUUVReq      Opcode = 0x04
	OpcodeUUAnsRsp    Opcode = 0x05
	OpcodePreamble    Opcode = 0x3D
	OpcodeRandOrAlert Opcode = 0x1F // CSBKO::RAND; CALL_ALRT when FID==FID_DMRA
	OpcodeExtFnct     Opcode = 0x24
	OpcodeNACKRsp     Opcode = 0x26
	OpcodeACKRsp      Opcode = 0x20
	OpcodeBroadcast   Opcode = 0x28
	OpcodeMaint       Opcode = 0x2D
	OpcodePGrant      Opcode = 0x30
)

// FID identifies the DMR Feature ID carrying vendor-specific opcode
// meaning (e.g. RAND vs CALL_ALRT share CSBKO::RAND).
type FID uint8

const (
	FIDETSI FID = 0x00
	FIDDMRA FID = 0x10
)

var (
	csbkCRCMask    = [2]byte{0xA5, 0xA5}
	csbkMBCCRCMask = [2]byte{0xAA, 0xAA}
)

// CSBK is a decoded Control Signalling Block.
type CSBK struct {
	Opcode Opcode
	FID    FID
	Data   []byte // remaining payload bytes (csbk[2:10], 8 bytes)
}

// ErrCRCInvalid is returned when the decoded block fails its CCITT-162
// check.
var ErrCRCInvalid = errors.New("csbk: CCITT-162 check failed")

// IsMBCHeader selects which CRC mask applies; DataType.MBC_HEADER vs
// DataType.CSBK, per the factory's dispatch.
type IsMBCHeader bool

// Decode reverses the BPTC FEC and opcode mask, validates the CRC, and
// returns the typed CSBK.
func Decode(raw []byte, mbc IsMBCHeader) (CSBK, error) {
	info, ok := bptc.Decode(raw)
	if !ok {
		return CSBK{}, errors.New("csbk: BPTC decode failed")
	}

	mask := csbkCRCMask
	if mbc {
		mask = csbkMBCCRCMask
	}
	info[10] ^= mask[0]
	info[11] ^= mask[1]

	if !crc.CheckCCITT162(info, 12) {
		return CSBK{}, ErrCRCInvalid
	}
	info[10] ^= mask[0]
	info[11] ^= mask[1]

	return CSBK{
		Opcode: Opcode(info[0] & 0x3F),
		FID:    FID(info[1]),
		Data:   append([]byte{}, info[2:10]...),
	}, nil
}

// Encode reverses Decode: packs the opcode/FID/data, adds the CCITT-162
// trailer, applies the CRC mask to it, and BPTC-encodes the result.
func Encode(c CSBK, mbc IsMBCHeader) []byte {
	info := make([]byte, 12)
	info[0] = byte(c.Opcode) & 0x3F
	info[1] = byte(c.FID)
	copy(info[2:10], c.Data)

	mask := csbkCRCMask
	if mbc {
		mask = csbkMBCCRCMask
	}
	// CRC covers the payload before the mask is applied; write the
	// trailer then mask it, matching Decode's reverse order.
	crc.AddCCITT162(info, 12)
	info[10] ^= mask[0]
	info[11] ^= mask[1]

	return bptc.Encode(info[:12])
}

// IsCallAlert reports whether an OpcodeRandOrAlert CSBK should be read as
// CSBK_CALL_ALRT (FID_DMRA) rather than CSBK_RAND (FID_ETSI/default).
func (c CSBK) IsCallAlert() bool {
	return c.Opcode == OpcodeRandOrAlert && c.FID == FIDDMRA
}

// ExtFnctFunction decodes the CSBK_EXT_FNCT function-code field (top byte
// of Data) for OpcodeExtFnct blocks.
func (c CSBK) ExtFnctFunction() uint8 {
	if len(c.Data) == 0 {
		return 0
	}
	return c.Data[0]
}

// PGrantChannel decodes the CSBK_P_GRANT logical channel number (bits
// packed in Data[0..1]) for OpcodePGrant blocks.
func (c CSBK) PGrantChannel() uint16 {
	if len(c.Data) < 2 {
		return 0
	}
	return uint16(c.Data[0])<<4 | uint16(c.Data[1])>>4
}
