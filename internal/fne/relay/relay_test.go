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

package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	in := Envelope{Tag: "DMRD", OriginPID: 0xC0FFEE, Datagram: []byte{1, 2, 3, 4, 5}}

	raw, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out Envelope
	rest, err := out.UnmarshalMsg(raw)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, in.Tag, out.Tag)
	require.Equal(t, in.OriginPID, out.OriginPID)
	require.Equal(t, in.Datagram, out.Datagram)
}

func TestEnvelopeUnmarshalRejectsBadArraySize(t *testing.T) {
	t.Parallel()
	var env Envelope
	_, err := env.UnmarshalMsg([]byte{0x92, 0x00, 0x00}) // msgpack fixarray of size 2
	require.Error(t, err)
}

func TestNilBusPublishIsNoop(t *testing.T) {
	t.Parallel()
	var b *Bus
	require.NoError(t, b.Publish(context.Background(), "DMRD", []byte{1}))
}

func TestNoRedisBusSubscribeClosesImmediately(t *testing.T) {
	t.Parallel()
	b := New(nil, "dvmcore:relay", 1)
	ch, closeFn, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	defer closeFn()

	_, ok := <-ch
	require.False(t, ok, "expected channel to be closed immediately with no Redis client")
}
