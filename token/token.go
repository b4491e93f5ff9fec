// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the reward asset ledger: balances, allowances and
// total supply, kept in structured storage.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/log"
	"github.com/driplabs/drip/state"
	"github.com/driplabs/drip/storage"
)

var (
	logger = log.WithContext("pkg", "token")

	slotTotalSupply = drip.BytesToBytes32([]byte("total-supply"))
	slotBalances    = drip.BytesToBytes32([]byte("balances"))
	slotAllowances  = drip.BytesToBytes32([]byte("allowances"))

	// ErrInsufficientBalance is returned when a transfer exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when a delegated transfer exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// pairKey addresses an (owner, spender) allowance entry.
type pairKey struct {
	owner   drip.Address
	spender drip.Address
}

func (k pairKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token manages the reward asset ledger.
type Token struct {
	addr  drip.Address
	state *state.State

	totalSupply *storage.Value[*big.Int]
	balances    *storage.Mapping[drip.Address, *big.Int]
	allowances  *storage.Mapping[pairKey, *big.Int]
}

// New creates a token instance bound to the given owner address.
func New(addr drip.Address, st *state.State) *Token {
	ctx := storage.NewContext(addr, st)
	return &Token{
		addr:        addr,
		state:       st,
		totalSupply: storage.NewValue[*big.Int](ctx, slotTotalSupply),
		balances:    storage.NewMapping[drip.Address, *big.Int](ctx, slotBalances),
		allowances:  storage.NewMapping[pairKey, *big.Int](ctx, slotAllowances),
	}
}

// TotalSupply returns the total minted amount.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// BalanceOf returns the balance of an account.
func (t *Token) BalanceOf(addr drip.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

// Mint credits an account and grows the total supply.
func (t *Token) Mint(addr drip.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := t.balances.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if err := t.balances.Set(addr, new(big.Int).Add(bal, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	supply, err := t.totalSupply.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get total supply")
	}
	if err := t.totalSupply.Set(new(big.Int).Add(supply, amount)); err != nil {
		return errors.Wrap(err, "failed to set total supply")
	}
	logger.Debug("minted", "addr", addr, "amount", amount)
	return nil
}

// Transfer moves amount from one account to another.
// A zero amount is a no-op.
func (t *Token) Transfer(from, to drip.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.balances.Set(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	// read after the sender update, so from == to stays consistent
	toBal, err := t.balances.Get(to)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if err := t.balances.Set(to, new(big.Int).Add(toBal, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	logger.Debug("transferred", "from", from, "to", to, "amount", amount)
	return nil
}

// Approve lets spender move up to amount out of owner's balance via TransferFrom.
func (t *Token) Approve(owner, spender drip.Address, amount *big.Int) error {
	if err := t.allowances.Set(pairKey{owner, spender}, amount); err != nil {
		return errors.Wrap(err, "failed to set allowance")
	}
	return nil
}

// Allowance returns the remaining approved amount.
func (t *Token) Allowance(owner, spender drip.Address) (*big.Int, error) {
	return t.allowances.Get(pairKey{owner, spender})
}

// TransferFrom moves amount from owner to the given recipient, on behalf of
// spender. The allowance is reduced by the transferred amount.
func (t *Token) TransferFrom(spender, owner, to drip.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	allowance, err := t.allowances.Get(pairKey{owner, spender})
	if err != nil {
		return errors.Wrap(err, "failed to get allowance")
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.allowances.Set(pairKey{owner, spender}, new(big.Int).Sub(allowance, amount)); err != nil {
		return errors.Wrap(err, "failed to set allowance")
	}
	return t.Transfer(owner, to, amount)
}
