// Package frame implements NXDN's Link Information Channel (LICH): an
// 8-bit field (4 data bits protected by a 4-bit Hamming(7,4)+parity SECDED
// code) carried at the start of every NXDN frame, per spec.md §4.2.
// Grounded on spec.md's description; no original_source NXDN LICH file was
// in the retrieval pack, so this uses the standard extended Hamming(8,4)
// construction (the same technique internal/edac/bptc uses for its row/
// column codes).
package frame

// RFCT (RF Channel Type) and FCT (Function Type), 2 bits each, fill the
// LICH's 4 data bits; no Option/Direction bits are carried.
type LICH struct {
	RFCT   uint8 // 2 bits
	FCT    uint8 // 2 bits
}

func (l LICH) pack() [4]bool {
	return [4]bool{
		l.RFCT&0x2 != 0,
		l.RFCT&0x1 != 0,
		l.FCT&0x2 != 0,
		l.FCT&0x1 != 0,
	}
}

func unpack(data [4]bool) LICH {
	var l LICH
	if data[0] {
		l.RFCT |= 0x2
	}
	if data[1] {
		l.RFCT |= 0x1
	}
	if data[2] {
		l.FCT |= 0x2
	}
	if data[3] {
		l.FCT |= 0x1
	}
	return l
}

// hammingParity bits, one per 4-bit data word, standard (7,4) Hamming
// parity-check positions p1=d1^d2^d4, p2=d1^d3^d4, p3=d2^d3^d4 (1-indexed
// data bits d1..d4), plus an overall parity bit for the extended (8,4)
// SECDED form.
func hammingParity(d [4]bool) (p1, p2, p3 bool) {
	d1, d2, d3, d4 := d[0], d[1], d[2], d[3]
	p1 = (d1 != d2) != d4
	p2 = (d1 != d3) != d4
	p3 = (d2 != d3) != d4
	return p1, p2, p3
}

// Encode produces the 8-bit on-air LICH byte: bit7..4 = data, bit3..1 =
// Hamming parity, bit0 = overall parity.
func Encode(l LICH) byte {
	d := l.pack()
	p1, p2, p3 := hammingParity(d)
	overall := p1 != p2
	overall = overall != p3
	for _, b := range d {
		overall = overall != b
	}

	var out byte
	if d[0] {
		out |= 0x80
	}
	if d[1] {
		out |= 0x40
	}
	if d[2] {
		out |= 0x20
	}
	if d[3] {
		out |= 0x10
	}
	if p1 {
		out |= 0x08
	}
	if p2 {
		out |= 0x04
	}
	if p3 {
		out |= 0x02
	}
	if overall {
		out |= 0x01
	}
	return out
}

// Decode corrects a single bit error (detects but cannot correct a double
// error) and extracts the LICH. ok is false on an uncorrectable (detected
// double-bit) error.
func Decode(raw byte) (l LICH, ok bool) {
	var d [4]bool
	d[0] = raw&0x80 != 0
	d[1] = raw&0x40 != 0
	d[2] = raw&0x20 != 0
	d[3] = raw&0x10 != 0
	gotP1 := raw&0x08 != 0
	gotP2 := raw&0x04 != 0
	gotP3 := raw&0x02 != 0
	gotOverall := raw&0x01 != 0

	wantP1, wantP2, wantP3 := hammingParity(d)
	syndrome := 0
	if gotP1 != wantP1 {
		syndrome |= 0x1
	}
	if gotP2 != wantP2 {
		syndrome |= 0x2
	}
	if gotP3 != wantP3 {
		syndrome |= 0x4
	}

	overallCheck := gotOverall
	for _, b := range d {
		overallCheck = overallCheck != b
	}
	overallCheck = (overallCheck != gotP1) != gotP2
	overallCheck = overallCheck != gotP3

	if syndrome == 0 {
		// No error, or only the overall parity bit flipped: the data bits
		// are intact either way.
		return unpack(d), true
	}
	if !overallCheck {
		// Double-bit error: detected, uncorrectable.
		return LICH{}, false
	}

	// Single-bit error among the 7 covered positions; map syndrome to the
	// data bit it implicates (parity-bit-only errors need no data fix).
	switch syndrome {
	case 0x3:
		d[0] = !d[0]
	case 0x5:
		d[1] = !d[1]
	case 0x6:
		d[2] = !d[2]
	case 0x7:
		d[3] = !d[3]
	}
	return unpack(d), true
}
