// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distributor

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/driplabs/drip/distributor"
	"github.com/driplabs/drip/drip"
	"github.com/driplabs/drip/lvldb"
	"github.com/driplabs/drip/recorddb"
	"github.com/driplabs/drip/state"
	"github.com/driplabs/drip/token"
)

var (
	depositor = drip.MustParseAddress("0x00000000000000000000000000000000000000d1")
	alice     = drip.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob       = drip.MustParseAddress("0x00000000000000000000000000000000000000b1")
)

type mockOracle struct {
	weights map[drip.Address]*big.Int
	global  *big.Int
}

func (o *mockOracle) AccountWeight(account drip.Address, _ uint32) (*big.Int, error) {
	if w, ok := o.weights[account]; ok {
		return w, nil
	}
	return new(big.Int), nil
}

func (o *mockOracle) GlobalWeight(_ uint32) (*big.Int, error) {
	return o.global, nil
}

type testServer struct {
	*httptest.Server
	nowTime *uint64
	vault   *token.Token
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	records, err := recorddb.NewMem()
	require.Nil(t, err)
	t.Cleanup(records.Close)

	st := state.New(db)
	vault := token.New(drip.BytesToAddress([]byte("vault")), st)
	oracle := &mockOracle{
		weights: map[drip.Address]*big.Int{alice: big.NewInt(1), bob: big.NewInt(1)},
		global:  big.NewInt(2),
	}
	eng := engine.New(drip.BytesToAddress([]byte("dist")), st, oracle, vault)
	require.Nil(t, eng.Initialize(0))
	require.Nil(t, vault.Mint(depositor, new(big.Int).Mul(drip.ShareScale, big.NewInt(100))))
	require.Nil(t, st.Commit())

	nowTime := uint64(0)
	d := New(eng, st, records, 0)
	d.now = func() uint64 { return nowTime }

	router := mux.NewRouter()
	d.Mount(router, "/distributor")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, nowTime: &nowTime, vault: vault}
}

func (ts *testServer) get(t *testing.T, path string, result any) int {
	res, err := http.Get(ts.URL + path)
	require.Nil(t, err)
	defer res.Body.Close()
	if result != nil && res.StatusCode == http.StatusOK {
		require.Nil(t, json.NewDecoder(res.Body).Decode(result))
	}
	return res.StatusCode
}

func (ts *testServer) post(t *testing.T, path string, body any, result any) (int, string) {
	data, err := json.Marshal(body)
	require.Nil(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.Nil(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	if result != nil && res.StatusCode == http.StatusOK {
		require.Nil(t, json.Unmarshal(raw, result))
	}
	return res.StatusCode, string(raw)
}

func amountOf(units int64) *big.Int {
	return new(big.Int).Mul(drip.ShareScale, big.NewInt(units))
}

func TestDepositAndClaimFlow(t *testing.T) {
	ts := newTestServer(t)

	// fund epoch 0
	var deposited DepositResult
	status, _ := ts.post(t, "/distributor/deposits", depositBody(depositor, amountOf(2)), &deposited)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint32(0), deposited.Epoch)
	assert.Equal(t, depositor, deposited.Source)

	// nothing claimable while epoch 0 is in progress
	var claimable Amount
	status = ts.get(t, "/distributor/accounts/"+alice.String()+"/claimable", &claimable)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, new(big.Int), (*big.Int)(claimable.Amount))

	// advance past epoch 0
	*ts.nowTime = drip.EpochInterval

	var current CurrentEpoch
	status = ts.get(t, "/distributor/epochs/current", &current)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint32(1), current.Epoch)

	status = ts.get(t, "/distributor/accounts/"+alice.String()+"/claimable", &claimable)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, amountOf(1), (*big.Int)(claimable.Amount))

	var suggested SuggestedRange
	status = ts.get(t, "/distributor/accounts/"+alice.String()+"/suggested-range", &suggested)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, suggested.OK)
	assert.Equal(t, uint32(0), suggested.Start)
	assert.Equal(t, uint32(0), suggested.End)

	var claimed ClaimResult
	status, _ = ts.post(t, "/distributor/claims", &ClaimRequest{Caller: alice}, &claimed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, amountOf(1), (*big.Int)(claimed.Amount))
	assert.Equal(t, uint32(1), claimed.SettledUpTo)

	bal, _ := ts.vault.BalanceOf(alice)
	assert.Equal(t, amountOf(1), bal)

	var account Account
	status = ts.get(t, "/distributor/accounts/"+alice.String(), &account)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint32(1), account.LastClaimWeek)
	assert.Nil(t, account.Recipient)

	// records were persisted
	var deposits []*recorddb.Deposit
	status = ts.get(t, "/distributor/records/deposits", &deposits)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, deposits, 1)
	assert.Equal(t, amountOf(2), deposits[0].Amount)

	var claims []*recorddb.Claim
	status = ts.get(t, "/distributor/records/claims?account="+alice.String(), &claims)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, claims, 1)
	assert.Equal(t, amountOf(1), claims[0].Amount)
}

func depositBody(caller drip.Address, amount *big.Int) *DepositRequest {
	return &DepositRequest{Caller: caller, Amount: toHexOrDecimal(amount)}
}

func TestShare(t *testing.T) {
	ts := newTestServer(t)

	var share Share
	status := ts.get(t, "/distributor/accounts/"+alice.String()+"/share/0", &share)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, new(big.Int).Quo(drip.ShareScale, big.NewInt(2)), (*big.Int)(share.Share))

	// epoch past the current one is a bad request
	status = ts.get(t, "/distributor/accounts/"+alice.String()+"/share/7", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = ts.get(t, "/distributor/accounts/not-an-address/share/0", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestClaimFailures(t *testing.T) {
	ts := newTestServer(t)
	*ts.nowTime = 3 * drip.EpochInterval

	// delegate without approval
	status, _ := ts.post(t, "/distributor/claims", &ClaimRequest{Caller: bob, Account: &alice}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// unfinalized end
	end := uint32(5)
	start := uint32(0)
	status, _ = ts.post(t, "/distributor/claims", &ClaimRequest{Caller: alice, Start: &start, End: &end}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// start without end
	status, _ = ts.post(t, "/distributor/claims", &ClaimRequest{Caller: alice, Start: &start}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDelegatedClaim(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.post(t, "/distributor/deposits", depositBody(depositor, amountOf(2)), nil)
	require.Equal(t, http.StatusOK, status)
	*ts.nowTime = drip.EpochInterval

	status, _ = ts.post(t, "/distributor/accounts/"+alice.String()+"/approvals", &ApprovalRequest{Delegate: bob, Approved: true}, nil)
	require.Equal(t, http.StatusOK, status)

	var claimed ClaimResult
	status, _ = ts.post(t, "/distributor/claims", &ClaimRequest{Caller: bob, Account: &alice}, &claimed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, alice, claimed.Account)
	assert.Equal(t, alice, claimed.Recipient)
	assert.Equal(t, amountOf(1), (*big.Int)(claimed.Amount))
}

func TestSetRecipient(t *testing.T) {
	ts := newTestServer(t)

	cold := drip.MustParseAddress("0x00000000000000000000000000000000000000cc")
	status, _ := ts.post(t, "/distributor/accounts/"+alice.String()+"/recipient", &RecipientRequest{Recipient: &cold}, nil)
	require.Equal(t, http.StatusOK, status)

	var account Account
	status = ts.get(t, "/distributor/accounts/"+alice.String(), &account)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, account.Recipient)
	assert.Equal(t, cold, *account.Recipient)

	status, _ = ts.post(t, "/distributor/deposits", depositBody(depositor, amountOf(2)), nil)
	require.Equal(t, http.StatusOK, status)
	*ts.nowTime = drip.EpochInterval

	var claimed ClaimResult
	status, _ = ts.post(t, "/distributor/claims", &ClaimRequest{Caller: alice}, &claimed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, cold, claimed.Recipient)

	bal, _ := ts.vault.BalanceOf(cold)
	assert.Equal(t, amountOf(1), bal)
}

func TestEpochs(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.post(t, "/distributor/deposits", depositBody(depositor, amountOf(3)), nil)
	require.Equal(t, http.StatusOK, status)

	var epoch Epoch
	status = ts.get(t, "/distributor/epochs/0", &epoch)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, amountOf(3), (*big.Int)(epoch.Amount))

	status = ts.get(t, "/distributor/epochs/9", &epoch)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, new(big.Int), (*big.Int)(epoch.Amount))

	status = ts.get(t, "/distributor/epochs/nope", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
