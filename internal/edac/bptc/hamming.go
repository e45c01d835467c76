package bptc

// hamming1511Encode computes the 4 parity bits for an 11-bit data word
// using the standard (15,11) binary Hamming code: codeword positions are
// 1-indexed; positions that are powers of two (1,2,4,8) carry parity,
// each covering every position whose binary index has that bit set.
func hamming1511Encode(data [11]bool) (code [15]bool) {
	// Place data into all non-power-of-two positions (1-indexed).
	di := 0
	for pos := 1; pos <= 15; pos++ {
		if isPowerOfTwo(pos) {
			continue
		}
		code[pos-1] = data[di]
		di++
	}
	for _, p := range []int{1, 2, 4, 8} {
		var parity bool
		for pos := 1; pos <= 15; pos++ {
			if pos&p != 0 && pos != p {
				parity = parity != code[pos-1]
			}
		}
		code[p-1] = parity
	}
	return code
}

// hamming1511Decode corrects at most a single bit error and extracts the
// 11 data bits. ok is always true in practice: the 4-bit syndrome always
// names a position inside the 15-bit codeword, so a word with more than
// one error is miscorrected rather than rejected.
func hamming1511Decode(code [15]bool) (data [11]bool, corrected bool, ok bool) {
	syndrome := 0
	for _, p := range []int{1, 2, 4, 8} {
		var parity bool
		for pos := 1; pos <= 15; pos++ {
			if pos&p != 0 {
				parity = parity != code[pos-1]
			}
		}
		if parity {
			syndrome |= p
		}
	}
	if syndrome != 0 {
		if syndrome > 15 {
			return data, false, false
		}
		code[syndrome-1] = !code[syndrome-1]
		corrected = true
	}
	di := 0
	for pos := 1; pos <= 15; pos++ {
		if isPowerOfTwo(pos) {
			continue
		}
		data[di] = code[pos-1]
		di++
	}
	return data, corrected, true
}

func isPowerOfTwo(v int) bool { return v&(v-1) == 0 }

// hamming139Encode is the shortened (13,9) Hamming code used for BPTC
// column parity: a (15,11) codeword with the top 2 data bits fixed at
// zero, whose corresponding codeword positions are then dropped.
func hamming139Encode(data [9]bool) (code [13]bool) {
	var full11 [11]bool
	copy(full11[:9], data[:])
	full15 := hamming1511Encode(full11)
	shortenedToFull := shortened13Positions()
	for i, fullPos := range shortenedToFull {
		code[i] = full15[fullPos]
	}
	return code
}

func hamming139Decode(code [13]bool) (data [9]bool, corrected bool, ok bool) {
	var full15 [15]bool
	shortenedToFull := shortened13Positions()
	for i, fullPos := range shortenedToFull {
		full15[fullPos] = code[i]
	}
	full11, corr, okDec := hamming1511Decode(full15)
	if !okDec {
		return data, false, false
	}
	copy(data[:], full11[:9])
	return data, corr, true
}

// shortened13Positions returns, for each of the 13 transmitted positions,
// the corresponding 0-indexed position in the full 15-bit codeword, after
// dropping the two non-parity data positions that carry the fixed-zero
// padding (the two highest-index data positions among the non-power-of-two
// slots).
func shortened13Positions() [13]int {
	var dataPositions []int
	for pos := 1; pos <= 15; pos++ {
		if !isPowerOfTwo(pos) {
			dataPositions = append(dataPositions, pos)
		}
	}
	// dataPositions has 11 entries; drop the last two (the padding bits).
	drop := map[int]bool{dataPositions[9]: true, dataPositions[10]: true}
	var keep [13]int
	k := 0
	for pos := 1; pos <= 15; pos++ {
		if drop[pos] {
			continue
		}
		keep[k] = pos - 1
		k++
	}
	return keep
}
