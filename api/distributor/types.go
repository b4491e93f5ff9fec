// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distributor

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/driplabs/drip/drip"
)

// Account is the externally visible claim state of an account.
type Account struct {
	Recipient     *drip.Address `json:"recipient"`
	LastClaimWeek uint32        `json:"lastClaimWeek"`
}

// Amount wraps a single amount result.
type Amount struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Share wraps a fixed-point share fraction.
type Share struct {
	Share *math.HexOrDecimal256 `json:"share"`
}

// SuggestedRange is the advisor result. Start and end are only meaningful
// when OK is true.
type SuggestedRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	OK    bool   `json:"ok"`
}

// Epoch describes one ledger entry.
type Epoch struct {
	Epoch  uint32                `json:"epoch"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// CurrentEpoch describes the in-progress epoch.
type CurrentEpoch struct {
	Epoch     uint32 `json:"epoch"`
	StartTime uint64 `json:"startTime"`
}

// DepositRequest funds the current epoch's pool. When source differs from
// caller, the transfer is pulled via the caller's vault allowance.
type DepositRequest struct {
	Caller drip.Address          `json:"caller"`
	Source *drip.Address         `json:"source"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// DepositResult reports a completed deposit.
type DepositResult struct {
	Epoch  uint32                `json:"epoch"`
	Source drip.Address          `json:"source"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ClaimRequest settles an account's entitlement. Account defaults to caller.
// Start and end select an explicit range; leaving both unset settles every
// finalized epoch.
type ClaimRequest struct {
	Caller  drip.Address  `json:"caller"`
	Account *drip.Address `json:"account"`
	Start   *uint32       `json:"start"`
	End     *uint32       `json:"end"`
}

// ClaimResult reports a completed claim.
type ClaimResult struct {
	Account     drip.Address          `json:"account"`
	Recipient   drip.Address          `json:"recipient"`
	SettledUpTo uint32                `json:"settledUpTo"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
}

// RecipientRequest sets or clears the caller's payout override.
type RecipientRequest struct {
	Recipient *drip.Address `json:"recipient"`
}

// ApprovalRequest toggles a claim delegation.
type ApprovalRequest struct {
	Delegate drip.Address `json:"delegate"`
	Approved bool         `json:"approved"`
}
