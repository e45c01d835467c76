// SPDX-License-Identifier: AGPL-3.0-or-later
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package transport

import (
	"crypto/aes"
	"encoding/binary"
)

// aesWrapMagic is AES_WRAPPED_PCKT_MAGIC, the 2-byte little-endian magic
// spec.md §6 prefixes to every AES-wrapped datagram.
const aesWrapMagic = 0xC000

const aesBlockSize = 16

// AESWrap wraps/unwraps UDP payloads with AES-256 in ECB mode over a
// 16-byte-block-padded copy, prefixed with the 2-byte wrap magic, per
// spec.md §4.8/§6. Go's standard library has no built-in ECB mode (by
// design, since ECB leaks block-level patterns); the DVM wire format
// requires it anyway, so a small manual block loop is used here — the
// same "required by the wire protocol" justification the teacher's own
// openbridge HMAC code carries for its own non-default crypto choice.
type AESWrap struct {
	block interface {
		BlockSize() int
		Encrypt(dst, src []byte)
		Decrypt(dst, src []byte)
	}
}

// NewAESWrap constructs an AESWrap from a 32-byte (AES-256) preshared
// key.
func NewAESWrap(key [32]byte) (*AESWrap, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &AESWrap{block: block}, nil
}

// pad16 prepends a 2-byte little-endian length of payload so Unwrap can
// trim the zero padding back off after decrypting, then zero-pads the
// result to a 16-byte boundary.
func pad16(payload []byte) []byte {
	lengthPrefixed := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(lengthPrefixed, uint16(len(payload)))
	copy(lengthPrefixed[2:], payload)

	n := len(lengthPrefixed)
	padded := n
	if rem := n % aesBlockSize; rem != 0 {
		padded = n + (aesBlockSize - rem)
	}
	out := make([]byte, padded)
	copy(out, lengthPrefixed)
	return out
}

// Wrap length-prefixes and pads payload to a 16-byte boundary, encrypts
// it in ECB mode, and prefixes the 2-byte little-endian wrap magic. The
// length prefix lets Unwrap recover payload exactly, including for
// non-block-aligned lengths.
func (w *AESWrap) Wrap(payload []byte) []byte {
	plain := pad16(payload)
	cipherText := make([]byte, len(plain))
	for off := 0; off < len(plain); off += aesBlockSize {
		w.block.Encrypt(cipherText[off:off+aesBlockSize], plain[off:off+aesBlockSize])
	}

	out := make([]byte, 2+len(cipherText))
	binary.LittleEndian.PutUint16(out, aesWrapMagic)
	copy(out[2:], cipherText)
	return out
}

// Unwrap checks the wrap magic, decrypts the remaining blocks in ECB
// mode, and returns exactly the original payload Wrap was given (using
// the embedded length prefix to discard the block-padding). ok is false
// (and the datagram must be discarded per spec.md §4.8) when the magic
// does not match, the remaining length is not block-aligned, or the
// decrypted length prefix is inconsistent with the decrypted buffer.
func (w *AESWrap) Unwrap(datagram []byte) (plain []byte, ok bool) {
	if len(datagram) < 2 {
		return nil, false
	}
	if binary.LittleEndian.Uint16(datagram) != aesWrapMagic {
		return nil, false
	}
	body := datagram[2:]
	if len(body) == 0 || len(body)%aesBlockSize != 0 {
		return nil, false
	}
	out := make([]byte, len(body))
	for off := 0; off < len(body); off += aesBlockSize {
		w.block.Decrypt(out[off:off+aesBlockSize], body[off:off+aesBlockSize])
	}

	if len(out) < 2 {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint16(out))
	if n > len(out)-2 {
		return nil, false
	}
	return out[2 : 2+n], true
}
