// Package bptc implements the BPTC(196,96) block product turbo code used to
// protect DMR's Slot Type / short LC / CSBK payloads. No original_source
// file covers this code (see DESIGN.md); the row/column Hamming(15,11) and
// Hamming(13,9) product-code structure below follows the shape described in
// spec.md §4.1 directly.
package bptc

import "github.com/USA-RedDragon/dvmcore/internal/bitpack"

const (
	rows       = 13
	cols       = 15
	dataRows   = 9
	dataCols   = 11
	infoBits   = 96
	rawBits    = 196
	dataCells  = dataRows * dataCols // 99: 96 info bits + 3 reserved
)

// Encode packs a 96-bit information word (MSB-first bits, caller-supplied
// 12-byte buffer) into a 196-bit BPTC codeword (MSB-first, 25-byte buffer).
func Encode(info []byte) []byte {
	var grid [rows][cols]bool

	bit := 0
	for r := 0; r < dataRows; r++ {
		for c := 0; c < dataCols; c++ {
			if bit < infoBits {
				grid[r][c] = bitpack.GetBit(info, uint32(bit))
			}
			bit++
		}
	}

	for r := 0; r < dataRows; r++ {
		var data [11]bool
		for c := 0; c < dataCols; c++ {
			data[c] = grid[r][c]
		}
		code := hamming1511Encode(data)
		for c := 0; c < cols; c++ {
			grid[r][c] = code[c]
		}
	}

	for c := 0; c < cols; c++ {
		var data [9]bool
		for r := 0; r < dataRows; r++ {
			data[r] = grid[r][c]
		}
		code := hamming139Encode(data)
		for r := 0; r < rows; r++ {
			grid[r][c] = code[r]
		}
	}

	out := make([]byte, (rawBits+7)/8)
	idx := uint32(0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			bitpack.SetBit(out, idx, grid[r][c])
			idx++
		}
	}
	// bit 195 is reserved, left zero.
	return out
}

// Decode corrects single-bit errors in each BPTC row and column and
// extracts the 96-bit information word. ok is false only if a row or
// column decoder reports failure, which the Hamming decoders here never
// do, so a row or column with more than one error is miscorrected rather
// than rejected.
func Decode(raw []byte) (info []byte, ok bool) {
	var grid [rows][cols]bool
	idx := uint32(0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			grid[r][c] = bitpack.GetBit(raw, idx)
			idx++
		}
	}

	for c := 0; c < cols; c++ {
		var code [13]bool
		for r := 0; r < rows; r++ {
			code[r] = grid[r][c]
		}
		data, _, okCol := hamming139Decode(code)
		if !okCol {
			return nil, false
		}
		for r := 0; r < dataRows; r++ {
			grid[r][c] = data[r]
		}
	}

	info = make([]byte, (infoBits+7)/8)
	bit := 0
	for r := 0; r < dataRows; r++ {
		var code [15]bool
		copy(code[:], grid[r][:])
		data, _, okRow := hamming1511Decode(code)
		if !okRow {
			return nil, false
		}
		for c := 0; c < dataCols; c++ {
			if bit < infoBits {
				bitpack.SetBit(info, uint32(bit), data[c])
			}
			bit++
		}
	}
	return info, true
}
