// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package recorddb

import (
	"math/big"

	"github.com/driplabs/drip/drip"
)

// Deposit is a stored deposit record.
type Deposit struct {
	Seq       uint64
	Timestamp uint64
	Epoch     uint32
	Source    drip.Address
	Amount    *big.Int
}

// Claim is a stored claim record.
type Claim struct {
	Seq         uint64
	Timestamp   uint64
	Account     drip.Address
	Recipient   drip.Address
	SettledUpTo uint32
	Amount      *big.Int
}

// Config is a stored recipient or approval change record.
type Config struct {
	Seq       uint64
	Timestamp uint64
	Account   drip.Address
	Kind      string
	Target    drip.Address
	Approved  bool
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Options struct {
	Offset uint64
	Limit  uint64
}

// DepositFilter selects deposit records. Nil fields match everything.
type DepositFilter struct {
	Epoch   *uint32
	Source  *drip.Address
	Options *Options
	Order   Order // default asc
}

// ClaimFilter selects claim records. Nil fields match everything.
type ClaimFilter struct {
	Account   *drip.Address
	Recipient *drip.Address
	Options   *Options
	Order     Order // default asc
}

// ConfigFilter selects configuration change records. Empty fields match everything.
type ConfigFilter struct {
	Account *drip.Address
	Kind    string
	Options *Options
	Order   Order // default asc
}
