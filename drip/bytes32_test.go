// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package drip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBytes32(t *testing.T) {
	b := Blake2b([]byte("drip"))

	parsed, err := ParseBytes32(b.String())
	assert.Nil(t, err)
	assert.Equal(t, b, parsed)

	_, err = ParseBytes32("0x123")
	assert.NotNil(t, err)

	_, err = ParseBytes32("zz" + b.String()[2:])
	assert.NotNil(t, err)
}

func TestParseAddress(t *testing.T) {
	addr := BytesToAddress([]byte("acc1"))

	parsed, err := ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, *parsed)

	_, err = ParseAddress("0xabc")
	assert.NotNil(t, err)

	assert.True(t, Address{}.IsZero())
	assert.False(t, addr.IsZero())
}
