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
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const keyDerivationIterations = 4096

// DeriveKey stretches an operator-supplied passphrase and salt into the
// 32-byte AES-256 key NewAESWrap needs, the same pbkdf2-over-sha256
// construction the rest of the pack uses to turn a short configured
// secret into a fixed-length key.
func DeriveKey(passphrase, salt string) [32]byte {
	derived := pbkdf2.Key([]byte(passphrase), []byte(salt), keyDerivationIterations, 32, sha256.New)
	var key [32]byte
	copy(key[:], derived)
	return key
}
