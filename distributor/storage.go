// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distributor

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/state"
	"github.com/driplabs/drip/storage"
)

var (
	slotLedger     = nameToSlot("epoch-rewards")
	slotAccounts   = nameToSlot("accounts")
	slotApprovals  = nameToSlot("claim-approvals")
	slotStartEpoch = nameToSlot("start-epoch")
)

func nameToSlot(name string) drip.Bytes32 {
	return drip.BytesToBytes32([]byte(name))
}

// store is the root storage layout of the distributor.
type store struct {
	ledger     *storage.Mapping[epochKey, *big.Int]
	accounts   *storage.Mapping[drip.Address, *accountInfo]
	approvals  *storage.Mapping[pairKey, bool]
	startEpoch *storage.Value[uint32]
}

func newStore(addr drip.Address, st *state.State) *store {
	ctx := storage.NewContext(addr, st)
	return &store{
		ledger:     storage.NewMapping[epochKey, *big.Int](ctx, slotLedger),
		accounts:   storage.NewMapping[drip.Address, *accountInfo](ctx, slotAccounts),
		approvals:  storage.NewMapping[pairKey, bool](ctx, slotApprovals),
		startEpoch: storage.NewValue[uint32](ctx, slotStartEpoch),
	}
}

// GetReward returns the accumulated pool of an epoch.
func (s *store) GetReward(epoch uint32) (*big.Int, error) {
	amount, err := s.ledger.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch reward")
	}
	return amount, nil
}

// AddReward grows an epoch's pool. The ledger is accumulate-only; amounts of
// elapsed epochs are never touched.
func (s *store) AddReward(epoch uint32, amount *big.Int) error {
	current, err := s.GetReward(epoch)
	if err != nil {
		return err
	}
	if err := s.ledger.Set(epochKey(epoch), new(big.Int).Add(current, amount)); err != nil {
		return errors.Wrap(err, "failed to set epoch reward")
	}
	return nil
}

func (s *store) GetAccount(addr drip.Address) (*accountInfo, error) {
	acc, err := s.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc, nil
}

func (s *store) SetAccount(addr drip.Address, acc *accountInfo) error {
	if err := s.accounts.Set(addr, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

func (s *store) IsApproved(account, delegate drip.Address) (bool, error) {
	approved, err := s.approvals.Get(pairKey{account, delegate})
	if err != nil {
		return false, errors.Wrap(err, "failed to get approval")
	}
	return approved, nil
}

func (s *store) SetApproval(account, delegate drip.Address, approved bool) error {
	if err := s.approvals.Set(pairKey{account, delegate}, approved); err != nil {
		return errors.Wrap(err, "failed to set approval")
	}
	return nil
}

func (s *store) StartEpoch() (uint32, error) {
	epoch, err := s.startEpoch.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get start epoch")
	}
	return epoch, nil
}

func (s *store) SetStartEpoch(epoch uint32) error {
	if err := s.startEpoch.Set(epoch); err != nil {
		return errors.Wrap(err, "failed to set start epoch")
	}
	return nil
}
