package frame

import (
	"errors"

	"github.com/USA-RedDragon/dvmcore/internal/bitpack"
	"github.com/USA-RedDragon/dvmcore/internal/edac/crc"
)

// LCSS tags one fragment of an embedded-signalling superframe.
type LCSS int

const (
	LCSSSingleFragment LCSS = iota
	LCSSFirstFragment
	LCSSLastFragment
	LCSSContinuationFragment
)

const (
	lcBits  = 72
	crcBits = 5
	totalLCBits = lcBits + crcBits
)

// ErrIncompleteLC is returned when a Last fragment arrives without enough
// accumulated bits to form a full link-control payload.
var ErrIncompleteLC = errors.New("frame: incomplete embedded LC on Last fragment")

// ErrLCCRCInvalid is returned when the assembled LC's CRC-5 does not
// validate.
var ErrLCCRCInvalid = errors.New("frame: embedded LC CRC-5 mismatch")

// EmbeddedAccumulator assembles a DMR embedded (EMB) link-control across a
// voice superframe's First/Continuation/Last fragments, per spec.md §4.2.
type EmbeddedAccumulator struct {
	bits []bool
}

// NewEmbeddedAccumulator returns a fresh, empty accumulator.
func NewEmbeddedAccumulator() *EmbeddedAccumulator {
	return &EmbeddedAccumulator{}
}

// Reset discards any partially-accumulated fragments.
func (e *EmbeddedAccumulator) Reset() {
	e.bits = e.bits[:0]
}

// AddFragment appends a tagged fragment's bits to the accumulator. On
// LCSSSingleFragment or LCSSLastFragment it attempts to assemble and
// CRC-validate the 72-bit link-control, returning the 77 assembled bits
// (LC plus its CRC-5) packed MSB-first into a 10-byte buffer.
// Other tags return (nil, nil) and continue accumulating.
func (e *EmbeddedAccumulator) AddFragment(tag LCSS, fragmentBits []bool) ([]byte, error) {
	switch tag {
	case LCSSFirstFragment:
		e.bits = append([]bool{}, fragmentBits...)
		return nil, nil
	case LCSSContinuationFragment:
		e.bits = append(e.bits, fragmentBits...)
		return nil, nil
	case LCSSSingleFragment:
		e.bits = append([]bool{}, fragmentBits...)
	case LCSSLastFragment:
		e.bits = append(e.bits, fragmentBits...)
	}

	if len(e.bits) < totalLCBits {
		return nil, ErrIncompleteLC
	}

	lc := make([]byte, (totalLCBits+7)/8)
	for i := 0; i < totalLCBits; i++ {
		bitpack.SetBit(lc, uint32(i), e.bits[i])
	}
	if !crc.CheckFiveBit(lc, uint32(totalLCBits)) {
		return nil, ErrLCCRCInvalid
	}
	return lc, nil
}
