// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package client

import (
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/api"
	"github.com/stasisprotocol/stasis/eventdb"
	"github.com/stasisprotocol/stasis/health"
	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

var (
	ledgerAddr = stasis.BytesToAddress([]byte("stake-ledger"))
	owner      = stasis.BytesToAddress([]byte("owner"))
	alice      = stasis.BytesToAddress([]byte("alice"))
	bob        = stasis.BytesToAddress([]byte("bob"))
)

const kickoff = uint64(1_000_000)

// newTestNode stands up a ledger with one stake by alice delegated to bob,
// served over the full api stack.
func newTestNode(t *testing.T) (*Client, uint64) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)

	eventDB, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { eventDB.Close() })

	ledger := staking.New(ledgerAddr, st, eventDB.Sink())
	env := func(caller stasis.Address, block uint32) *xenv.Environment {
		return xenv.New(st,
			&xenv.BlockContext{Number: block, Time: kickoff},
			&xenv.TransactionContext{Origin: caller})
	}
	require.NoError(t, ledger.Initialize(env(owner, 1), owner, owner, kickoff))

	until := kickoff + 10*stasis.BucketInterval
	require.NoError(t, st.SetBalance(alice, big.NewInt(1000)))
	require.NoError(t, ledger.Stake(env(alice, 5), big.NewInt(1000), until, stasis.Address{}, bob))

	healthStatus := &health.Health{}
	healthStatus.NewBestBlock(5)

	handler := api.New(ledger, eventDB, func() uint32 { return 5 }, healthStatus, api.Options{
		AllowedOrigins: "*",
		EventsLimit:    100,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL), until
}

func TestStakeQueries(t *testing.T) {
	c, until := newTestNode(t)

	stakes, err := c.GetStakes(alice)
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.Equal(t, until, stakes[0].Date)
	assert.Equal(t, big.NewInt(1000), stakes[0].Stake)

	balance, err := c.GetBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), balance.Balance)

	stake, err := c.GetUserStake(alice, until, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), stake.Stake)

	total, err := c.GetTotalStake(until, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total.Stake)

	vesting, err := c.GetVestingStake(until, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), vesting.Stake)
}

func TestDelegationQueries(t *testing.T) {
	c, until := newTestNode(t)

	delegate, err := c.GetDelegate(alice, until)
	require.NoError(t, err)
	assert.Equal(t, bob, delegate.Delegate)

	delegated, err := c.GetDelegatedStake(bob, until, 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), delegated.Stake)

	votes, err := c.GetVotes(bob, kickoff+stasis.BucketInterval, 0)
	require.NoError(t, err)
	assert.Positive(t, votes.Stake.Cmp(big.NewInt(1000)))

	nonce, err := c.GetNonce(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce.Nonce)
}

func TestConfigLockDateAndHealth(t *testing.T) {
	c, _ := newTestNode(t)

	config, err := c.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, owner, config.Owner)
	assert.Equal(t, kickoff, config.Kickoff)

	lockDate, err := c.GetLockDate(kickoff + stasis.BucketInterval + 1)
	require.NoError(t, err)
	assert.Equal(t, kickoff+stasis.BucketInterval, lockDate.LockDate)

	status, err := c.GetHealth()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, uint32(5), status.BestBlock)
}

func TestFilterEvents(t *testing.T) {
	c, _ := newTestNode(t)

	events, err := c.FilterEvents(&eventdb.Filter{Name: "TokensStaked"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint32(5), events[0].BlockNumber)
}

func TestErrorMapping(t *testing.T) {
	c, _ := newTestNode(t)

	// beyond the best block is a client error
	_, err := c.GetUserStake(alice, kickoff, 99)
	assert.ErrorIs(t, err, ErrNot200Status)
}
