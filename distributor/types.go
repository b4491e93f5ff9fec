// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distributor

import (
	"encoding/binary"
	"math/big"

	"github.com/driplabs/drip/distributor/reverts"
	"github.com/driplabs/drip/drip"
)

// Revert failures. All of them abort the operation with no state retained.
var (
	// ErrRangeInverted: the effective start exceeds the requested end after clamping.
	ErrRangeInverted = reverts.New("range inverted")
	// ErrEpochNotFinalized: the requested end is not strictly before the current epoch.
	ErrEpochNotFinalized = reverts.New("epoch not finalized")
	// ErrUnauthorized: the caller lacks claim approval for the target account.
	ErrUnauthorized = reverts.New("caller not approved")
	// ErrInvalidEpoch: the queried epoch exceeds the current epoch.
	ErrInvalidEpoch = reverts.New("epoch exceeds current")
)

// accountInfo is the per-account claim state, created lazily with zero-valued
// defaults and never deleted.
type accountInfo struct {
	// Recipient overrides the payout destination; nil pays the account itself.
	Recipient *drip.Address `rlp:"nil"`
	// LastClaimWeek is the exclusive lower bound; every epoch strictly before
	// it is settled for this account. It never decreases.
	LastClaimWeek uint32
}

// epochKey adapts an epoch index to a mapping key.
type epochKey uint32

func (k epochKey) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(k))
	return b[:]
}

// pairKey addresses an (account, delegate) approval entry.
type pairKey struct {
	account  drip.Address
	delegate drip.Address
}

func (k pairKey) Bytes() []byte {
	return append(k.account.Bytes(), k.delegate.Bytes()...)
}

// DepositRecord describes a completed reward deposit.
type DepositRecord struct {
	Epoch  uint32
	Source drip.Address
	Amount *big.Int
}

// ClaimRecord describes a completed claim. SettledUpTo is the exclusive upper
// bound the account's cursor advanced to; Amount may be zero when the settled
// range held no entitlement.
type ClaimRecord struct {
	Account     drip.Address
	Recipient   drip.Address
	SettledUpTo uint32
	Amount      *big.Int
}

// Config record kinds.
const (
	ConfigRecipient = "recipient"
	ConfigApproval  = "approval"
)

// ConfigRecord describes a recipient or approval change.
type ConfigRecord struct {
	Account drip.Address
	Kind    string
	// Target is the recipient set (zero when cleared) or the delegate toggled.
	Target drip.Address
	// Approved only applies to approval records.
	Approved bool
}
