// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

var (
	ledgerAddr = stasis.BytesToAddress([]byte("stake-ledger"))
	owner      = stasis.BytesToAddress([]byte("owner"))
	collector  = stasis.BytesToAddress([]byte("fee-collector"))
	alice      = stasis.BytesToAddress([]byte("alice"))
	bob        = stasis.BytesToAddress([]byte("bob"))
)

const kickoff = uint64(1_000_000)

type apiTest struct {
	t      *testing.T
	st     *state.State
	ledger *staking.Staking
	server *httptest.Server
	best   uint32
}

func newAPITest(t *testing.T) *apiTest {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)
	ledger := staking.New(ledgerAddr, st, nil)

	at := &apiTest{t: t, st: st, ledger: ledger, best: 1}
	require.NoError(t, ledger.Initialize(at.env(owner, 1, kickoff), owner, collector, kickoff))

	router := mux.NewRouter()
	New(ledger, func() uint32 { return at.best }).Mount(router, "/staking")
	at.server = httptest.NewServer(router)
	t.Cleanup(at.server.Close)
	return at
}

func (at *apiTest) env(caller stasis.Address, block uint32, time uint64) *xenv.Environment {
	return xenv.New(at.st,
		&xenv.BlockContext{Number: block, Time: time},
		&xenv.TransactionContext{Origin: caller})
}

func (at *apiTest) stake(staker stasis.Address, amount int64, until uint64, block uint32) {
	require.NoError(at.t, at.st.SetBalance(staker, big.NewInt(amount)))
	env := at.env(staker, block, kickoff)
	require.NoError(at.t, at.ledger.Stake(env, big.NewInt(amount), until, stasis.Address{}, stasis.Address{}))
	if block > at.best {
		at.best = block
	}
}

func (at *apiTest) get(path string) (int, []byte) {
	resp, err := http.Get(at.server.URL + path)
	require.NoError(at.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(at.t, err)
	return resp.StatusCode, body
}

func (at *apiTest) getJSON(path string, out any) {
	code, body := at.get(path)
	require.Equal(at.t, http.StatusOK, code, string(body))
	require.NoError(at.t, json.Unmarshal(body, out))
}

func TestGetConfig(t *testing.T) {
	at := newAPITest(t)

	var cfg struct {
		Owner         stasis.Address `json:"owner"`
		Kickoff       uint64         `json:"kickoff"`
		WeightScaling uint64         `json:"weightScaling"`
		Paused        bool           `json:"paused"`
	}
	at.getJSON("/staking/config", &cfg)

	assert.Equal(t, owner, cfg.Owner)
	assert.Equal(t, kickoff, cfg.Kickoff)
	assert.Equal(t, stasis.DefaultWeightScaling, cfg.WeightScaling)
	assert.False(t, cfg.Paused)
}

func TestGetStakesAndBalance(t *testing.T) {
	at := newAPITest(t)
	until := kickoff + 10*stasis.BucketInterval
	at.stake(alice, 1000, until, 5)

	var stakes []staking.AccountStake
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/stakes", alice), &stakes)
	require.Len(t, stakes, 1)
	assert.Equal(t, until, stakes[0].Date)
	assert.Equal(t, big.NewInt(1000), stakes[0].Stake)

	var bal struct {
		Balance *big.Int `json:"balance"`
	}
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/balance", alice), &bal)
	assert.Equal(t, big.NewInt(1000), bal.Balance)
}

func TestGetUserStakeAtBlock(t *testing.T) {
	at := newAPITest(t)
	until := kickoff + 10*stasis.BucketInterval
	at.stake(alice, 1000, until, 5)
	at.stake(alice, 500, until, 8)

	var resp struct {
		Block uint32   `json:"block"`
		Stake *big.Int `json:"stake"`
	}

	// default queries the best block
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/stakes/%d", alice, until), &resp)
	assert.Equal(t, uint32(8), resp.Block)
	assert.Equal(t, big.NewInt(1500), resp.Stake)

	// historical query sees the earlier balance
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/stakes/%d?block=6", alice, until), &resp)
	assert.Equal(t, big.NewInt(1000), resp.Stake)

	var zero struct {
		Block uint32   `json:"block"`
		Stake *big.Int `json:"stake"`
	}
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/stakes/%d?block=4", alice, until), &zero)
	assert.Equal(t, big.NewInt(0), zero.Stake)
}

func TestGetVotes(t *testing.T) {
	at := newAPITest(t)
	until := kickoff + 10*stasis.BucketInterval
	at.stake(alice, 1000, until, 5)

	at2 := kickoff + stasis.BucketInterval

	var resp struct {
		Stake *big.Int `json:"stake"`
	}
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/votes/%d?block=5", alice, at2), &resp)
	// a locked stake weighs more than its face value
	assert.Positive(t, resp.Stake.Cmp(big.NewInt(1000)))

	// once the best block advances the query becomes cacheable and must agree
	var again struct {
		Stake *big.Int `json:"stake"`
	}
	at.best = 7
	at.getJSON(fmt.Sprintf("/staking/accounts/%v/votes/%d?block=5", alice, at2), &again)
	assert.Equal(t, resp.Stake, again.Stake)
}

func TestGetTotalAndVesting(t *testing.T) {
	at := newAPITest(t)
	until := kickoff + 10*stasis.BucketInterval
	at.stake(alice, 1000, until, 5)
	at.stake(bob, 700, until, 6)

	var resp struct {
		Stake *big.Int `json:"stake"`
	}
	at.getJSON(fmt.Sprintf("/staking/total/%d", until), &resp)
	assert.Equal(t, big.NewInt(1700), resp.Stake)

	var vesting struct {
		Stake *big.Int `json:"stake"`
	}
	at.getJSON(fmt.Sprintf("/staking/vesting/%d", until), &vesting)
	assert.Equal(t, big.NewInt(0), vesting.Stake)
}

func TestGetLockDate(t *testing.T) {
	at := newAPITest(t)

	var resp struct {
		LockDate uint64 `json:"lockDate"`
	}
	at.getJSON(fmt.Sprintf("/staking/lockdate/%d", kickoff+stasis.BucketInterval+5), &resp)
	assert.Equal(t, kickoff+stasis.BucketInterval, resp.LockDate)
}

func TestBadRequests(t *testing.T) {
	at := newAPITest(t)

	code, _ := at.get("/staking/accounts/not-an-address/stakes")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = at.get(fmt.Sprintf("/staking/accounts/%v/stakes/abc", alice))
	assert.Equal(t, http.StatusBadRequest, code)

	// beyond the best block
	code, _ = at.get(fmt.Sprintf("/staking/accounts/%v/stakes/%d?block=99", alice, kickoff))
	assert.Equal(t, http.StatusBadRequest, code)
}
