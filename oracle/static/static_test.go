// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package static

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driplabs/drip/drip"
)

const testConfig = `
accounts:
  "0x0000000000000000000000000000000000000001": "100"
  "0x0000000000000000000000000000000000000002": "300"
overrides:
  - epoch: 5
    accounts:
      "0x0000000000000000000000000000000000000001": "200"
`

func TestOracle(t *testing.T) {
	o, err := Parse([]byte(testConfig))
	require.Nil(t, err)

	a1 := drip.MustParseAddress("0x0000000000000000000000000000000000000001")
	a2 := drip.MustParseAddress("0x0000000000000000000000000000000000000002")
	unknown := drip.MustParseAddress("0x00000000000000000000000000000000000000ff")

	tests := []struct {
		ret      any
		expected any
	}{
		{func() *big.Int { w, _ := o.AccountWeight(a1, 0); return w }(), big.NewInt(100)},
		{func() *big.Int { w, _ := o.AccountWeight(a2, 4); return w }(), big.NewInt(300)},
		{func() *big.Int { w, _ := o.GlobalWeight(0); return w }(), big.NewInt(400)},
		// override takes effect at its epoch and replaces the whole table
		{func() *big.Int { w, _ := o.AccountWeight(a1, 5); return w }(), big.NewInt(200)},
		{func() *big.Int { w, _ := o.AccountWeight(a2, 5); return w }(), new(big.Int)},
		{func() *big.Int { w, _ := o.GlobalWeight(9); return w }(), big.NewInt(200)},
		{func() *big.Int { w, _ := o.AccountWeight(unknown, 0); return w }(), new(big.Int)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`accounts: {"not-an-address": "1"}`))
	assert.NotNil(t, err)

	_, err = Parse([]byte(`accounts: {"0x0000000000000000000000000000000000000001": "-1"}`))
	assert.NotNil(t, err)

	_, err = Parse([]byte("accounts: [broken"))
	assert.NotNil(t, err)

	// overrides must be ordered
	_, err = Parse([]byte(`
accounts: {"0x0000000000000000000000000000000000000001": "1"}
overrides:
  - epoch: 5
    accounts: {}
  - epoch: 3
    accounts: {}
`))
	assert.NotNil(t, err)
}
