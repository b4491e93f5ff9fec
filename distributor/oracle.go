// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distributor

import (
	"math/big"

	"github.com/driplabs/drip/drip"
)

// WeightOracle reports staking weight per epoch.
//
// The oracle guarantees globalWeight >= accountWeight for every account with
// nonzero weight at an epoch, and globalWeight > 0 whenever any account has
// nonzero weight there. Values for the current, unfinished epoch are
// in-progress and must not be used for settlement.
type WeightOracle interface {
	AccountWeight(account drip.Address, epoch uint32) (*big.Int, error)
	GlobalWeight(epoch uint32) (*big.Int, error)
}

// Vault moves units of the reward asset between accounts.
type Vault interface {
	// Transfer moves amount from one account to another.
	Transfer(from, to drip.Address, amount *big.Int) error
	// TransferFrom moves amount out of owner's balance on behalf of spender,
	// within owner's prior approval.
	TransferFrom(spender, owner, to drip.Address, amount *big.Int) error
}
