// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/lvldb"
	"github.com/driplabs/drip/state"
)

func newTestToken(t *testing.T) *Token {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return New(drip.BytesToAddress([]byte("tkn")), state.New(db))
}

func TestToken(t *testing.T) {
	tkn := newTestToken(t)

	a1 := drip.BytesToAddress([]byte("a1"))
	a2 := drip.BytesToAddress([]byte("a2"))

	tests := []struct {
		ret      any
		expected any
	}{
		{tkn.Mint(a1, big.NewInt(100)), nil},
		{func() *big.Int { b, _ := tkn.BalanceOf(a1); return b }(), big.NewInt(100)},
		{func() *big.Int { s, _ := tkn.TotalSupply(); return s }(), big.NewInt(100)},
		{tkn.Transfer(a1, a2, big.NewInt(30)), nil},
		{func() *big.Int { b, _ := tkn.BalanceOf(a1); return b }(), big.NewInt(70)},
		{func() *big.Int { b, _ := tkn.BalanceOf(a2); return b }(), big.NewInt(30)},
		{errors.Cause(tkn.Transfer(a2, a1, big.NewInt(31))), ErrInsufficientBalance},
		{tkn.Transfer(a1, a2, big.NewInt(0)), nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret)
	}
}

func TestSelfTransfer(t *testing.T) {
	tkn := newTestToken(t)

	a1 := drip.BytesToAddress([]byte("a1"))
	assert.Nil(t, tkn.Mint(a1, big.NewInt(50)))
	assert.Nil(t, tkn.Transfer(a1, a1, big.NewInt(50)))

	bal, err := tkn.BalanceOf(a1)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(50), bal)
}

func TestAllowance(t *testing.T) {
	tkn := newTestToken(t)

	owner := drip.BytesToAddress([]byte("owner"))
	spender := drip.BytesToAddress([]byte("spender"))
	dst := drip.BytesToAddress([]byte("dst"))

	assert.Nil(t, tkn.Mint(owner, big.NewInt(100)))

	err := tkn.TransferFrom(spender, owner, dst, big.NewInt(10))
	assert.Equal(t, ErrInsufficientAllowance, errors.Cause(err))

	assert.Nil(t, tkn.Approve(owner, spender, big.NewInt(40)))

	assert.Nil(t, tkn.TransferFrom(spender, owner, dst, big.NewInt(10)))

	remaining, err := tkn.Allowance(owner, spender)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(30), remaining)

	bal, _ := tkn.BalanceOf(dst)
	assert.Equal(t, big.NewInt(10), bal)

	err = tkn.TransferFrom(spender, owner, dst, big.NewInt(31))
	assert.Equal(t, ErrInsufficientAllowance, errors.Cause(err))
}
