// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distributor implements the reward distribution engine: an
// epoch-bucketed reward ledger, a per-account claim cursor, pro-rata share
// computation against an external weight oracle, claim delegation and payout
// redirection.
package distributor

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/log"
	"github.com/driplabs/drip/metrics"
	"github.com/driplabs/drip/state"
)

var (
	logger = log.WithContext("pkg", "distributor")

	metricDepositCount = metrics.LazyLoadCounter("distributor_deposit_count")
	metricClaimCount   = metrics.LazyLoadCounter("distributor_claim_count")
	metricRevertCount  = metrics.LazyLoadCounterVec("distributor_revert_count", []string{"reason"})
)

// Distributor is the claim-accounting engine. It owns the reward ledger and
// the per-account claim state, and settles entitlements against the weight
// oracle.
//
// The host serializes calls and supplies the current epoch; methods never read
// a clock. Mutating methods are atomic: on any failure the state is reverted
// to the pre-call checkpoint.
type Distributor struct {
	addr   drip.Address
	state  *state.State
	store  *store
	oracle WeightOracle
	vault  Vault
}

// New creates a distributor bound to the given address, backed by st.
func New(addr drip.Address, st *state.State, oracle WeightOracle, vault Vault) *Distributor {
	return &Distributor{
		addr:   addr,
		state:  st,
		store:  newStore(addr, st),
		oracle: oracle,
		vault:  vault,
	}
}

// Address returns the address holding the distributor's state and pool balance.
func (d *Distributor) Address() drip.Address {
	return d.addr
}

// Initialize records the deployment epoch. Epochs before it are never
// claimable; the claim engine clamps every range to it.
func (d *Distributor) Initialize(startEpoch uint32) error {
	if err := d.store.SetStartEpoch(startEpoch); err != nil {
		return err
	}
	logger.Info("initialized", "startEpoch", startEpoch)
	return nil
}

// StartEpoch returns the deployment epoch.
func (d *Distributor) StartEpoch() (uint32, error) {
	return d.store.StartEpoch()
}

// RewardAt returns the accumulated pool of an epoch.
func (d *Distributor) RewardAt(epoch uint32) (*big.Int, error) {
	return d.store.GetReward(epoch)
}

// Deposit pulls amount of the reward asset from source into the pool of the
// current epoch. A zero amount is a no-op and returns a nil record.
//
// The ledger is credited before the vault transfer runs, so a source called
// back during the transfer observes completed bookkeeping.
func (d *Distributor) Deposit(source drip.Address, currentEpoch uint32, amount *big.Int) (*DepositRecord, error) {
	return d.deposit(currentEpoch, amount, func() error {
		return d.vault.Transfer(source, d.addr, amount)
	}, source)
}

// DepositFrom is Deposit with an explicit source distinct from the caller.
// The source must have approved the caller for at least amount in the vault.
func (d *Distributor) DepositFrom(caller, source drip.Address, currentEpoch uint32, amount *big.Int) (*DepositRecord, error) {
	return d.deposit(currentEpoch, amount, func() error {
		return d.vault.TransferFrom(caller, source, d.addr, amount)
	}, source)
}

func (d *Distributor) deposit(currentEpoch uint32, amount *big.Int, transfer func() error, source drip.Address) (*DepositRecord, error) {
	if amount.Sign() == 0 {
		return nil, nil
	}
	logger.Debug("depositing", "source", source, "epoch", currentEpoch, "amount", amount)

	checkpoint := d.state.NewCheckpoint()
	if err := d.store.AddReward(currentEpoch, amount); err != nil {
		d.state.RevertTo(checkpoint)
		return nil, err
	}
	if err := transfer(); err != nil {
		d.state.RevertTo(checkpoint)
		return nil, errors.Wrap(err, "failed to pull deposit")
	}

	metricDepositCount().Add(1)
	logger.Info("deposited", "source", source, "epoch", currentEpoch, "amount", amount)
	return &DepositRecord{Epoch: currentEpoch, Source: source, Amount: amount}, nil
}

// ComputeShare returns account's fraction of the global weight at epoch,
// scaled by drip.ShareScale and rounded down. A zero account weight yields a
// zero share without querying the global weight.
//
// Reverts with ErrInvalidEpoch if epoch exceeds currentEpoch. The current
// epoch itself is queryable but its value is in-progress and unfit for
// settlement.
func (d *Distributor) ComputeShare(account drip.Address, epoch, currentEpoch uint32) (*big.Int, error) {
	if epoch > currentEpoch {
		metricRevertCount().AddWithLabel(1, map[string]string{"reason": "invalid_epoch"})
		return nil, ErrInvalidEpoch
	}
	weight, err := d.oracle.AccountWeight(account, epoch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account weight")
	}
	if weight.Sign() == 0 {
		return new(big.Int), nil
	}
	global, err := d.oracle.GlobalWeight(epoch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get global weight")
	}
	if global.Sign() == 0 {
		// oracle invariant breach, not a caller error
		return nil, errors.New("oracle reported zero global weight with nonzero account weight")
	}
	share := new(big.Int).Mul(weight, drip.ShareScale)
	return share.Quo(share, global), nil
}

// entitlementAt computes the raw per-epoch entitlement, ignoring the claim
// cursor and finalization.
func (d *Distributor) entitlementAt(account drip.Address, epoch, currentEpoch uint32) (*big.Int, error) {
	reward, err := d.store.GetReward(epoch)
	if err != nil {
		return nil, err
	}
	if reward.Sign() == 0 {
		return new(big.Int), nil
	}
	share, err := d.ComputeShare(account, epoch, currentEpoch)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(share, reward)
	return amount.Quo(amount, drip.ShareScale), nil
}

// ClaimableAt returns account's claimable amount for a single epoch. It is
// zero for unfinalized epochs (epoch >= currentEpoch) and for epochs already
// settled by the claim cursor.
func (d *Distributor) ClaimableAt(account drip.Address, epoch, currentEpoch uint32) (*big.Int, error) {
	if epoch >= currentEpoch {
		return new(big.Int), nil
	}
	acc, err := d.store.GetAccount(account)
	if err != nil {
		return nil, err
	}
	if epoch < acc.LastClaimWeek {
		return new(big.Int), nil
	}
	return d.entitlementAt(account, epoch, currentEpoch)
}

// Claimable returns the total amount account can claim right now.
func (d *Distributor) Claimable(account drip.Address, currentEpoch uint32) (*big.Int, error) {
	if currentEpoch == 0 {
		return new(big.Int), nil
	}
	return d.ClaimableInRange(account, 0, currentEpoch-1, currentEpoch)
}

// ClaimableInRange returns the claimable sum over [start, end]. The end is
// clamped to the last finalized epoch; an inverted range yields zero.
func (d *Distributor) ClaimableInRange(account drip.Address, start, end, currentEpoch uint32) (*big.Int, error) {
	if currentEpoch == 0 {
		return new(big.Int), nil
	}
	if end >= currentEpoch {
		end = currentEpoch - 1
	}
	acc, err := d.store.GetAccount(account)
	if err != nil {
		return nil, err
	}
	startEpoch, err := d.store.StartEpoch()
	if err != nil {
		return nil, err
	}
	start = maxEpoch(start, acc.LastClaimWeek, startEpoch)

	total := new(big.Int)
	for e := start; e <= end; e++ {
		amount, err := d.entitlementAt(account, e, currentEpoch)
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	return total, nil
}

// SuggestedRange finds the minimal epoch range holding all of account's
// currently claimable value. It returns ok == false when nothing is claimable.
// Claiming the returned range settles the full claimable amount without
// forfeiting anything.
//
// Cost is linear in the distance between the claim cursor and the current
// epoch.
func (d *Distributor) SuggestedRange(account drip.Address, currentEpoch uint32) (start, end uint32, ok bool, err error) {
	if currentEpoch == 0 {
		return 0, 0, false, nil
	}
	acc, err := d.store.GetAccount(account)
	if err != nil {
		return 0, 0, false, err
	}
	startEpoch, err := d.store.StartEpoch()
	if err != nil {
		return 0, 0, false, err
	}
	scanFrom := maxEpoch(startEpoch, acc.LastClaimWeek, 0)

	found := false
	for e := scanFrom; e < currentEpoch; e++ {
		amount, err := d.entitlementAt(account, e, currentEpoch)
		if err != nil {
			return 0, 0, false, err
		}
		if amount.Sign() > 0 {
			start = e
			found = true
			break
		}
	}
	if !found {
		return 0, 0, false, nil
	}

	end = start
	for e := currentEpoch - 1; e > start; e-- {
		amount, err := d.entitlementAt(account, e, currentEpoch)
		if err != nil {
			return 0, 0, false, err
		}
		if amount.Sign() > 0 {
			end = e
			break
		}
	}
	return start, end, true, nil
}

// Claim settles all of the caller's finalized epochs and pays out the total.
func (d *Distributor) Claim(caller drip.Address, currentEpoch uint32) (*ClaimRecord, error) {
	return d.ClaimFor(caller, caller, currentEpoch)
}

// ClaimFor is Claim on behalf of account. The caller must be the account
// itself or an approved delegate.
func (d *Distributor) ClaimFor(caller, account drip.Address, currentEpoch uint32) (*ClaimRecord, error) {
	var end uint32
	if currentEpoch > 0 {
		end = currentEpoch - 1
	}
	return d.ClaimRangeFor(caller, account, 0, end, currentEpoch)
}

// ClaimRange settles the caller's entitlement over [start, end].
func (d *Distributor) ClaimRange(caller drip.Address, start, end, currentEpoch uint32) (*ClaimRecord, error) {
	return d.ClaimRangeFor(caller, caller, start, end, currentEpoch)
}

// ClaimRangeFor settles account's entitlement over [start, end] and pays it
// to the account's recipient, or to the account itself when no override is
// set.
//
// The start is clamped to the claim cursor and the deployment epoch. The
// cursor then advances to end+1 regardless of the amount paid: epochs the
// caller skipped by passing a too-high start are forfeited for good. Derive
// ranges from SuggestedRange to avoid that.
//
// Reverts with ErrUnauthorized, ErrRangeInverted or ErrEpochNotFinalized.
// A zero claimed amount is a valid result, not an error.
func (d *Distributor) ClaimRangeFor(caller, account drip.Address, start, end, currentEpoch uint32) (*ClaimRecord, error) {
	if caller != account {
		approved, err := d.store.IsApproved(account, caller)
		if err != nil {
			return nil, err
		}
		if !approved {
			metricRevertCount().AddWithLabel(1, map[string]string{"reason": "unauthorized"})
			return nil, ErrUnauthorized
		}
	}

	acc, err := d.store.GetAccount(account)
	if err != nil {
		return nil, err
	}
	startEpoch, err := d.store.StartEpoch()
	if err != nil {
		return nil, err
	}
	effectiveStart := maxEpoch(start, acc.LastClaimWeek, startEpoch)
	if effectiveStart > end {
		metricRevertCount().AddWithLabel(1, map[string]string{"reason": "range_inverted"})
		return nil, ErrRangeInverted
	}
	if end >= currentEpoch {
		metricRevertCount().AddWithLabel(1, map[string]string{"reason": "epoch_not_finalized"})
		return nil, ErrEpochNotFinalized
	}
	logger.Debug("claiming", "account", account, "start", effectiveStart, "end", end)

	total := new(big.Int)
	for e := effectiveStart; e <= end; e++ {
		amount, err := d.entitlementAt(account, e, currentEpoch)
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}

	recipient := account
	if acc.Recipient != nil {
		recipient = *acc.Recipient
	}

	checkpoint := d.state.NewCheckpoint()
	// cursor advances before the payout runs, so a reentrant recipient
	// cannot settle the same epochs twice
	acc.LastClaimWeek = end + 1
	if err := d.store.SetAccount(account, acc); err != nil {
		d.state.RevertTo(checkpoint)
		return nil, err
	}
	if total.Sign() > 0 {
		if err := d.vault.Transfer(d.addr, recipient, total); err != nil {
			d.state.RevertTo(checkpoint)
			return nil, errors.Wrap(err, "failed to pay out claim")
		}
	}

	metricClaimCount().Add(1)
	logger.Info("claimed", "account", account, "recipient", recipient, "settledUpTo", end+1, "amount", total)
	return &ClaimRecord{
		Account:     account,
		Recipient:   recipient,
		SettledUpTo: end + 1,
		Amount:      total,
	}, nil
}

// SetRecipient sets the caller's payout override. A nil recipient restores
// direct self-payout.
func (d *Distributor) SetRecipient(caller drip.Address, recipient *drip.Address) (*ConfigRecord, error) {
	acc, err := d.store.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	acc.Recipient = recipient
	if err := d.store.SetAccount(caller, acc); err != nil {
		return nil, err
	}
	record := &ConfigRecord{Account: caller, Kind: ConfigRecipient}
	if recipient != nil {
		record.Target = *recipient
	}
	logger.Info("recipient set", "account", caller, "recipient", record.Target)
	return record, nil
}

// Recipient returns the caller's payout override, or nil when unset.
func (d *Distributor) Recipient(account drip.Address) (*drip.Address, error) {
	acc, err := d.store.GetAccount(account)
	if err != nil {
		return nil, err
	}
	return acc.Recipient, nil
}

// SetClaimApproval toggles whether delegate may claim on the caller's behalf.
func (d *Distributor) SetClaimApproval(caller, delegate drip.Address, approved bool) (*ConfigRecord, error) {
	if err := d.store.SetApproval(caller, delegate, approved); err != nil {
		return nil, err
	}
	logger.Info("claim approval set", "account", caller, "delegate", delegate, "approved", approved)
	return &ConfigRecord{Account: caller, Kind: ConfigApproval, Target: delegate, Approved: approved}, nil
}

// IsApproved reports whether delegate may claim on account's behalf.
func (d *Distributor) IsApproved(account, delegate drip.Address) (bool, error) {
	return d.store.IsApproved(account, delegate)
}

// AccountState returns account's payout override and claim cursor.
func (d *Distributor) AccountState(account drip.Address) (recipient *drip.Address, lastClaimWeek uint32, err error) {
	acc, err := d.store.GetAccount(account)
	if err != nil {
		return nil, 0, err
	}
	return acc.Recipient, acc.LastClaimWeek, nil
}

func maxEpoch(a, b, c uint32) uint32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
