// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distributor exposes the reward distribution engine over HTTP.
// Mutating endpoints are serialized through one mutex, so every operation
// observes fully committed state.
package distributor

import (
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/driplabs/drip/api/utils"
	engine "github.com/driplabs/drip/distributor"
	"github.com/driplabs/drip/distributor/reverts"
	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/log"
	"github.com/driplabs/drip/recorddb"
	"github.com/driplabs/drip/state"
)

var logger = log.WithContext("pkg", "api")

type Distributor struct {
	engine      *engine.Distributor
	st          *state.State
	records     *recorddb.RecordDB // optional
	genesisTime uint64
	now         func() uint64

	mu sync.Mutex
}

// New creates the distributor API around the engine. records may be nil to
// disable record persistence.
func New(eng *engine.Distributor, st *state.State, records *recorddb.RecordDB, genesisTime uint64) *Distributor {
	return &Distributor{
		engine:      eng,
		st:          st,
		records:     records,
		genesisTime: genesisTime,
		now:         func() uint64 { return uint64(time.Now().Unix()) },
	}
}

func (d *Distributor) currentEpoch() uint32 {
	return drip.EpochAt(d.now(), d.genesisTime)
}

// convertErr maps engine reverts to client errors.
func convertErr(err error) error {
	if err == nil {
		return nil
	}
	if !reverts.IsRevertErr(err) {
		return err
	}
	if err == engine.ErrUnauthorized {
		return utils.Forbidden(err)
	}
	return utils.BadRequest(err)
}

func toHexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func (d *Distributor) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	recipient, lastClaimWeek, err := d.engine.AccountState(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{Recipient: recipient, LastClaimWeek: lastClaimWeek})
}

func (d *Distributor) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	current := d.currentEpoch()

	query := req.URL.Query()
	startStr, endStr := query.Get("start"), query.Get("end")

	var amount *big.Int
	if startStr == "" && endStr == "" {
		amount, err = d.engine.Claimable(addr, current)
	} else {
		var start, end uint32
		if startStr != "" {
			if start, err = utils.ParseEpoch("start", startStr); err != nil {
				return err
			}
		}
		end = current // clamped by the engine
		if endStr != "" {
			if end, err = utils.ParseEpoch("end", endStr); err != nil {
				return err
			}
		}
		amount, err = d.engine.ClaimableInRange(addr, start, end, current)
	}
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{Amount: toHexOrDecimal(amount)})
}

func (d *Distributor) handleGetClaimableAt(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	epoch, err := utils.ParseEpoch("epoch", mux.Vars(req)["epoch"])
	if err != nil {
		return err
	}
	amount, err := d.engine.ClaimableAt(addr, epoch, d.currentEpoch())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Amount{Amount: toHexOrDecimal(amount)})
}

func (d *Distributor) handleGetShare(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	epoch, err := utils.ParseEpoch("epoch", mux.Vars(req)["epoch"])
	if err != nil {
		return err
	}
	share, err := d.engine.ComputeShare(addr, epoch, d.currentEpoch())
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &Share{Share: toHexOrDecimal(share)})
}

func (d *Distributor) handleGetSuggestedRange(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	start, end, ok, err := d.engine.SuggestedRange(addr, d.currentEpoch())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &SuggestedRange{Start: start, End: end, OK: ok})
}

func (d *Distributor) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := utils.ParseEpoch("epoch", mux.Vars(req)["epoch"])
	if err != nil {
		return err
	}
	amount, err := d.engine.RewardAt(epoch)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Epoch{Epoch: epoch, Amount: toHexOrDecimal(amount)})
}

func (d *Distributor) handleGetCurrentEpoch(w http.ResponseWriter, req *http.Request) error {
	current := d.currentEpoch()
	return utils.WriteJSON(w, &CurrentEpoch{
		Epoch:     current,
		StartTime: drip.EpochStart(current, d.genesisTime),
	})
}

func (d *Distributor) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	var body DepositRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	amount := (*big.Int)(body.Amount)
	if amount.Sign() < 0 {
		return utils.BadRequest(errors.New("amount: negative"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.currentEpoch()
	var record *engine.DepositRecord
	var err error
	if body.Source == nil || *body.Source == body.Caller {
		record, err = d.engine.Deposit(body.Caller, current, amount)
	} else {
		record, err = d.engine.DepositFrom(body.Caller, *body.Source, current, amount)
	}
	if err != nil {
		return convertErr(err)
	}
	if err := d.st.Commit(); err != nil {
		return err
	}
	if record == nil {
		// zero amount no-op
		return utils.WriteJSON(w, &DepositResult{Epoch: current, Source: body.Caller, Amount: toHexOrDecimal(amount)})
	}
	d.putDeposit(record)
	return utils.WriteJSON(w, &DepositResult{
		Epoch:  record.Epoch,
		Source: record.Source,
		Amount: toHexOrDecimal(record.Amount),
	})
}

func (d *Distributor) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	account := body.Caller
	if body.Account != nil {
		account = *body.Account
	}
	if (body.Start == nil) != (body.End == nil) {
		return utils.BadRequest(errors.New("start and end must be given together"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.currentEpoch()
	var record *engine.ClaimRecord
	var err error
	if body.Start == nil {
		record, err = d.engine.ClaimFor(body.Caller, account, current)
	} else {
		record, err = d.engine.ClaimRangeFor(body.Caller, account, *body.Start, *body.End, current)
	}
	if err != nil {
		return convertErr(err)
	}
	if err := d.st.Commit(); err != nil {
		return err
	}
	if record.Amount.Sign() > 0 {
		d.putClaim(record)
	}
	return utils.WriteJSON(w, &ClaimResult{
		Account:     record.Account,
		Recipient:   record.Recipient,
		SettledUpTo: record.SettledUpTo,
		Amount:      toHexOrDecimal(record.Amount),
	})
}

func (d *Distributor) handleSetRecipient(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var body RecipientRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	record, err := d.engine.SetRecipient(addr, body.Recipient)
	if err != nil {
		return convertErr(err)
	}
	if err := d.st.Commit(); err != nil {
		return err
	}
	d.putConfig(record)
	return utils.WriteJSON(w, &Account{Recipient: body.Recipient})
}

func (d *Distributor) handleSetApproval(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var body ApprovalRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	record, err := d.engine.SetClaimApproval(addr, body.Delegate, body.Approved)
	if err != nil {
		return convertErr(err)
	}
	if err := d.st.Commit(); err != nil {
		return err
	}
	d.putConfig(record)
	return utils.WriteJSON(w, &ApprovalRequest{Delegate: body.Delegate, Approved: body.Approved})
}

func (d *Distributor) handleGetDepositRecords(w http.ResponseWriter, req *http.Request) error {
	if d.records == nil {
		return utils.HTTPError(errors.New("record db disabled"), http.StatusNotFound)
	}
	filter := &recorddb.DepositFilter{}
	query := req.URL.Query()
	if s := query.Get("epoch"); s != "" {
		epoch, err := utils.ParseEpoch("epoch", s)
		if err != nil {
			return err
		}
		filter.Epoch = &epoch
	}
	if s := query.Get("source"); s != "" {
		source, err := utils.ParseAddress("source", s)
		if err != nil {
			return err
		}
		filter.Source = &source
	}
	deposits, err := d.records.FilterDeposits(req.Context(), filter)
	if err != nil {
		return err
	}
	if deposits == nil {
		deposits = []*recorddb.Deposit{}
	}
	return utils.WriteJSON(w, deposits)
}

func (d *Distributor) handleGetClaimRecords(w http.ResponseWriter, req *http.Request) error {
	if d.records == nil {
		return utils.HTTPError(errors.New("record db disabled"), http.StatusNotFound)
	}
	filter := &recorddb.ClaimFilter{}
	if s := req.URL.Query().Get("account"); s != "" {
		account, err := utils.ParseAddress("account", s)
		if err != nil {
			return err
		}
		filter.Account = &account
	}
	claims, err := d.records.FilterClaims(req.Context(), filter)
	if err != nil {
		return err
	}
	if claims == nil {
		claims = []*recorddb.Claim{}
	}
	return utils.WriteJSON(w, claims)
}

func (d *Distributor) putDeposit(record *engine.DepositRecord) {
	if d.records == nil {
		return
	}
	if err := d.records.PutDeposit(&recorddb.Deposit{
		Timestamp: d.now(),
		Epoch:     record.Epoch,
		Source:    record.Source,
		Amount:    record.Amount,
	}); err != nil {
		logger.Warn("failed to store deposit record", "err", err)
	}
}

func (d *Distributor) putClaim(record *engine.ClaimRecord) {
	if d.records == nil {
		return
	}
	if err := d.records.PutClaim(&recorddb.Claim{
		Timestamp:   d.now(),
		Account:     record.Account,
		Recipient:   record.Recipient,
		SettledUpTo: record.SettledUpTo,
		Amount:      record.Amount,
	}); err != nil {
		logger.Warn("failed to store claim record", "err", err)
	}
}

func (d *Distributor) putConfig(record *engine.ConfigRecord) {
	if d.records == nil {
		return
	}
	if err := d.records.PutConfig(&recorddb.Config{
		Timestamp: d.now(),
		Account:   record.Account,
		Kind:      record.Kind,
		Target:    record.Target,
		Approved:  record.Approved,
	}); err != nil {
		logger.Warn("failed to store config record", "err", err)
	}
}

func (d *Distributor) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetAccount))
	sub.Path("/accounts/{address}/claimable").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetClaimable))
	sub.Path("/accounts/{address}/claimable/{epoch}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetClaimableAt))
	sub.Path("/accounts/{address}/share/{epoch}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetShare))
	sub.Path("/accounts/{address}/suggested-range").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetSuggestedRange))
	sub.Path("/accounts/{address}/recipient").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(d.handleSetRecipient))
	sub.Path("/accounts/{address}/approvals").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(d.handleSetApproval))
	sub.Path("/epochs/current").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetCurrentEpoch))
	sub.Path("/epochs/{epoch}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpoch))
	sub.Path("/deposits").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(d.handleDeposit))
	sub.Path("/claims").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(d.handleClaim))
	sub.Path("/records/deposits").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetDepositRecords))
	sub.Path("/records/claims").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetClaimRecords))
}
