// Package golay implements the extended (24,12,8) binary Golay code used to
// protect DMR's Short LC and Voice Header Sync payloads. No original_source
// file covers this code (see DESIGN.md); this is the standard textbook
// construction (systematic generator [I|B] with a symmetric B, syndrome
// lookup decode), parametrized to spec.md §4.1's stated code.
package golay

import "github.com/USA-RedDragon/dvmcore/internal/bitpack"

// bMatrix is the standard 12x12 symmetric matrix completing the systematic
// generator G = [I12 | B] for the extended binary Golay code.
var bMatrix = [12][12]int{
	{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	{1, 1, 1, 0, 1, 1, 1, 0, 0, 0, 1, 0},
	{1, 1, 0, 1, 1, 1, 0, 0, 0, 1, 0, 1},
	{1, 0, 1, 1, 1, 0, 0, 0, 1, 0, 1, 1},
	{1, 1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 0},
	{1, 1, 1, 0, 0, 0, 1, 0, 1, 1, 0, 1},
	{1, 1, 0, 0, 0, 1, 0, 1, 1, 0, 1, 1},
	{1, 0, 0, 0, 1, 0, 1, 1, 0, 1, 1, 1},
	{1, 0, 0, 1, 0, 1, 1, 0, 1, 1, 1, 0},
	{1, 0, 1, 0, 1, 1, 0, 1, 1, 1, 0, 0},
	{1, 1, 0, 1, 1, 0, 1, 1, 1, 0, 0, 0},
	{1, 0, 1, 1, 0, 1, 1, 1, 0, 0, 0, 1},
}

// syndromeTable maps each reachable syndrome (as a 12-bit int) to the
// lowest-weight (<=3 bits) error pattern producing it, built once at init.
var syndromeTable map[int][]int

func init() {
	syndromeTable = make(map[int][]int)
	n := 24
	addIfNew := func(bits []int) {
		s := syndromeOf(bits)
		if _, ok := syndromeTable[s]; !ok {
			syndromeTable[s] = append([]int{}, bits...)
		}
	}
	addIfNew(nil)
	for i := 0; i < n; i++ {
		addIfNew([]int{i})
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			addIfNew([]int{i, j})
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				addIfNew([]int{i, j, k})
			}
		}
	}
}

func syndromeOf(errBits []int) int {
	var word [24]bool
	for _, b := range errBits {
		word[b] = true
	}
	return computeSyndrome(word)
}

func computeSyndrome(word [24]bool) int {
	s := 0
	for row := 0; row < 12; row++ {
		var bit bool
		for col := 0; col < 12; col++ {
			if bMatrix[row][col] == 1 {
				bit = bit != word[col]
			}
		}
		bit = bit != word[12+row]
		if bit {
			s |= 1 << uint(row)
		}
	}
	return s
}

// Encode maps a 12-bit data word (data[i] = bit i, MSB-first semantics left
// to the caller) to a 24-bit Golay codeword.
func Encode(data [12]bool) (code [24]bool) {
	copy(code[:12], data[:])
	for col := 0; col < 12; col++ {
		var parity bool
		for row := 0; row < 12; row++ {
			if bMatrix[row][col] == 1 {
				parity = parity != data[row]
			}
		}
		code[12+col] = parity
	}
	return code
}

// Decode corrects up to 3 bit errors and extracts the 12-bit data word.
// ok is false when the syndrome is not in the precomputed table (more than
// 3 errors).
func Decode(code [24]bool) (data [12]bool, ok bool) {
	s := computeSyndrome(code)
	errBits, found := syndromeTable[s]
	if !found {
		return data, false
	}
	corrected := code
	for _, b := range errBits {
		corrected[b] = !corrected[b]
	}
	copy(data[:], corrected[:12])
	return data, true
}

// EncodeBytes/DecodeBytes adapt the bit-array API to the MSB-first byte
// buffers used elsewhere in the edac package.
func EncodeBytes(data []byte) []byte {
	var d [12]bool
	for i := 0; i < 12; i++ {
		d[i] = bitpack.GetBit(data, uint32(i))
	}
	code := Encode(d)
	out := make([]byte, 3)
	for i := 0; i < 24; i++ {
		bitpack.SetBit(out, uint32(i), code[i])
	}
	return out
}

func DecodeBytes(raw []byte) ([]byte, bool) {
	var code [24]bool
	for i := 0; i < 24; i++ {
		code[i] = bitpack.GetBit(raw, uint32(i))
	}
	data, ok := Decode(code)
	if !ok {
		return nil, false
	}
	out := make([]byte, 2)
	for i := 0; i < 12; i++ {
		bitpack.SetBit(out, uint32(i), data[i])
	}
	return out, true
}
