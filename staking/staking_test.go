// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
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
	carol      = stasis.BytesToAddress([]byte("carol"))
)

const kickoff = uint64(1_000_000)

type ledgerTest struct {
	t      *testing.T
	st     *state.State
	ledger *Staking
	sink   *Recorder
}

func newLedgerTest(t *testing.T) *ledgerTest {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)
	sink := &Recorder{}
	lt := &ledgerTest{t: t, st: st, ledger: New(ledgerAddr, st, sink), sink: sink}

	require.NoError(t, lt.ledger.Initialize(lt.env(owner, 1, kickoff), owner, collector, kickoff))
	return lt
}

func (lt *ledgerTest) env(caller stasis.Address, block uint32, time uint64) *xenv.Environment {
	return xenv.New(lt.st,
		&xenv.BlockContext{Number: block, Time: time},
		&xenv.TransactionContext{Origin: caller})
}

func (lt *ledgerTest) fund(addr stasis.Address, amount int64) {
	require.NoError(lt.t, lt.st.SetBalance(addr, big.NewInt(amount)))
}

func (lt *ledgerTest) balance(addr stasis.Address) *big.Int {
	b, err := lt.st.GetBalance(addr)
	require.NoError(lt.t, err)
	return b
}

func (lt *ledgerTest) date(buckets uint64) uint64 {
	return kickoff + buckets*stasis.BucketInterval
}

func TestInitialize(t *testing.T) {
	lt := newLedgerTest(t)

	got, err := lt.ledger.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	k, err := lt.ledger.Kickoff()
	require.NoError(t, err)
	assert.Equal(t, kickoff, k)

	scaling, err := lt.ledger.WeightScaling()
	require.NoError(t, err)
	assert.Equal(t, stasis.DefaultWeightScaling, scaling)

	// a second initialize is rejected
	err = lt.ledger.Initialize(lt.env(owner, 2, kickoff), owner, collector, kickoff)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestStake(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))

	staked, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), staked)

	total, err := lt.ledger.GetCurrentTotalStake(date)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)

	// self-delegated by default
	delegated, err := lt.ledger.GetPriorStakeByDateForDelegatee(alice, date, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), delegated)

	// tokens moved from alice to the ledger
	assert.Equal(t, big.NewInt(4000), lt.balance(alice))
	assert.Equal(t, big.NewInt(1000), lt.balance(ledgerAddr))

	events := lt.sink.Named("TokensStaked")
	require.Len(t, events, 1)
	ev := events[0].(TokensStaked)
	assert.Equal(t, alice, ev.Staker)
	assert.Equal(t, date, ev.LockedUntil)
}

func TestStakePreconditions(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 100)

	// zero amount
	err := lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(0), lt.date(4), stasis.Address{}, stasis.Address{})
	assert.ErrorIs(t, err, ErrZeroAmount)

	// period too short: resolves below the first bucket boundary
	err = lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(50), kickoff+1000, stasis.Address{}, stasis.Address{})
	assert.Error(t, err)

	// not enough tokens
	err = lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(500), lt.date(4), stasis.Address{}, stasis.Address{})
	assert.ErrorIs(t, err, ErrNotEnoughBalance)

	// nothing leaked into the series from the failed attempts
	staked, err := lt.ledger.GetCurrentStake(alice, lt.date(4))
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
	assert.Equal(t, big.NewInt(100), lt.balance(alice))
}

func TestStakeBeyondMaxClampsDown(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 1000)

	// far beyond the ceiling, silently clamped to the last lock date
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), kickoff+10*stasis.MaxDuration, stasis.Address{}, stasis.Address{}))

	maxDate := kickoff + stasis.MaxDuration
	staked, err := lt.ledger.GetCurrentStake(alice, maxDate)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), staked)
}

func TestStakeSameBlockAmends(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	// two stakes in the same block end up as one checkpoint of 300
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(100), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(200), date, stasis.Address{}, stasis.Address{}))

	staked, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), staked)

	// as of block 10 the answer is the amended value, never the first write
	prior, err := lt.ledger.GetPriorUserStakeByDate(alice, date, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), prior)

	prior, err = lt.ledger.GetPriorUserStakeByDate(alice, date, 9, 20)
	require.NoError(t, err)
	assert.Zero(t, prior.Sign())
}

func TestStakeForOtherWithDelegatee(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(700), date, bob, carol))

	staked, err := lt.ledger.GetCurrentStake(bob, date)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), staked)

	d, err := lt.ledger.DelegateOf(bob, date)
	require.NoError(t, err)
	assert.Equal(t, carol, d)

	delegated, err := lt.ledger.GetPriorStakeByDateForDelegatee(carol, date, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), delegated)
}

func TestIncreaseStakeMovesWholeBalanceOnReassign(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(500), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 20, kickoff+200), big.NewInt(300), date, stasis.Address{}, bob))

	delegatedToBob, err := lt.ledger.GetPriorStakeByDateForDelegatee(bob, date, 20, 30)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(800), delegatedToBob, "reassignment during increase moves old + new")

	delegatedToAlice, err := lt.ledger.GetPriorStakeByDateForDelegatee(alice, date, 20, 30)
	require.NoError(t, err)
	assert.Zero(t, delegatedToAlice.Sign())
}

func TestBalanceOverflow(t *testing.T) {
	lt := newLedgerTest(t)
	huge := new(big.Int).Set(stasis.MaxStakeAmount)
	require.NoError(t, lt.st.SetBalance(alice, new(big.Int).Add(huge, big.NewInt(1000))))

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), huge, lt.date(4), stasis.Address{}, stasis.Address{}))

	err := lt.ledger.Stake(lt.env(alice, 20, kickoff+200), big.NewInt(1), lt.date(5), stasis.Address{}, stasis.Address{})
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	// the failed stake burned nothing
	assert.Equal(t, big.NewInt(1000), lt.balance(alice))
}

func TestExtendStakingDuration(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	from, to := lt.date(4), lt.date(10)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), from, stasis.Address{}, bob))
	require.NoError(t, lt.ledger.ExtendStakingDuration(lt.env(alice, 20, kickoff+200), from, to))

	// old date emptied, new date holds the full amount
	staked, err := lt.ledger.GetCurrentStake(alice, from)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
	staked, err = lt.ledger.GetCurrentStake(alice, to)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), staked)

	// the total balance across all dates did not change
	balance, err := lt.ledger.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), balance)

	// the delegate followed the stake
	d, err := lt.ledger.DelegateOf(alice, to)
	require.NoError(t, err)
	assert.Equal(t, bob, d)
	delegated, err := lt.ledger.GetPriorStakeByDateForDelegatee(bob, to, 20, 30)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), delegated)

	// totals moved accordingly
	total, err := lt.ledger.GetCurrentTotalStake(from)
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
	total, err = lt.ledger.GetCurrentTotalStake(to)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), total)

	events := lt.sink.Named("ExtendedStakingDuration")
	require.Len(t, events, 1)
	ev := events[0].(ExtendedStakingDuration)
	assert.Equal(t, from, ev.PreviousDate)
	assert.Equal(t, to, ev.NewDate)
}

func TestExtendCannotReduce(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	from, to := lt.date(10), lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), from, stasis.Address{}, stasis.Address{}))
	err := lt.ledger.ExtendStakingDuration(lt.env(alice, 20, kickoff+200), from, to)
	assert.ErrorIs(t, err, ErrCannotReduceDuration)

	// nothing staked at the source date
	err = lt.ledger.ExtendStakingDuration(lt.env(bob, 20, kickoff+200), from, lt.date(12))
	assert.ErrorIs(t, err, ErrNotEnoughBalance)
}

func TestWithdrawAfterLockDate(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))
	// past the lock date, no penalty
	require.NoError(t, lt.ledger.Withdraw(lt.env(alice, 20, date+10), big.NewInt(1000), date, stasis.Address{}))

	assert.Equal(t, big.NewInt(5000), lt.balance(alice))
	assert.Zero(t, lt.balance(collector).Sign())

	staked, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
}

func TestWithdrawEarlyPaysPenalty(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(10)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Withdraw(lt.env(alice, 20, lt.date(5)), big.NewInt(1000), date, stasis.Address{}))

	penalty := lt.balance(collector)
	assert.Positive(t, penalty.Sign(), "early withdrawal must forfeit a penalty")
	assert.Equal(t, big.NewInt(5000), new(big.Int).Add(lt.balance(alice), penalty))
	assert.Zero(t, lt.balance(ledgerAddr).Sign())

	staked, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign(), "the full amount leaves the series even when part is forfeited")
}

func TestWithdrawPreconditions(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(100), date, stasis.Address{}, stasis.Address{}))

	err := lt.ledger.Withdraw(lt.env(alice, 20, date+10), big.NewInt(0), date, stasis.Address{})
	assert.ErrorIs(t, err, ErrZeroAmount)

	err = lt.ledger.Withdraw(lt.env(alice, 20, date+10), big.NewInt(101), date, stasis.Address{})
	assert.ErrorIs(t, err, ErrNotEnoughBalance)

	err = lt.ledger.Withdraw(lt.env(alice, 20, date+10), big.NewInt(50), date+3, stasis.Address{})
	assert.ErrorIs(t, err, ErrInvalidLockDate)
}

func TestDelegate(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(500), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Delegate(lt.env(alice, 20, kickoff+200), bob, date))

	fromAlice, err := lt.ledger.GetPriorStakeByDateForDelegatee(alice, date, 20, 30)
	require.NoError(t, err)
	assert.Zero(t, fromAlice.Sign())
	toBob, err := lt.ledger.GetPriorStakeByDateForDelegatee(bob, date, 20, 30)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), toBob)

	// the user series never moves on delegation
	staked, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), staked)

	// re-delegating to the same delegatee is a no-op
	require.NoError(t, lt.ledger.Delegate(lt.env(alice, 30, kickoff+300), bob, date))
	toBob, err = lt.ledger.GetPriorStakeByDateForDelegatee(bob, date, 30, 40)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), toBob)

	events := lt.sink.Named("DelegateChanged")
	require.Len(t, events, 1)
	ev := events[0].(DelegateChanged)
	assert.Equal(t, alice, ev.FromDelegate)
	assert.Equal(t, bob, ev.ToDelegate)
}

func TestConservation(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	lt.fund(bob, 5000)
	date := lt.date(6)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(700), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Stake(lt.env(bob, 11, kickoff+110), big.NewInt(300), date, stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Delegate(lt.env(alice, 12, kickoff+120), carol, date))
	require.NoError(t, lt.ledger.Withdraw(lt.env(bob, 13, date+10), big.NewInt(100), date, stasis.Address{}))

	aliceStake, err := lt.ledger.GetCurrentStake(alice, date)
	require.NoError(t, err)
	bobStake, err := lt.ledger.GetCurrentStake(bob, date)
	require.NoError(t, err)
	total, err := lt.ledger.GetCurrentTotalStake(date)
	require.NoError(t, err)
	assert.Equal(t, total, new(big.Int).Add(aliceStake, bobStake), "user series must sum to the total series")

	// delegate series must cover exactly the same stake
	sum := new(big.Int)
	for _, d := range []stasis.Address{alice, bob, carol} {
		v, err := lt.ledger.GetPriorStakeByDateForDelegatee(d, date, 13, 20)
		require.NoError(t, err)
		sum.Add(sum, v)
	}
	assert.Equal(t, total, sum, "delegate series must sum to the total series")
}

func TestGetPriorVotes(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(10)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))

	// evaluated right after kickoff, ten buckets of lock time remain
	early, err := lt.ledger.GetPriorVotes(alice, lt.date(1), 15, 20)
	require.NoError(t, err)
	assert.Positive(t, early.Cmp(big.NewInt(1000)), "locked stake must vote more than its face value")

	// evaluated at the lock date itself, weight decays to face value
	late, err := lt.ledger.GetPriorVotes(alice, date, 15, 20)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), late)
	assert.Positive(t, early.Cmp(late), "voting power decays as the lock date nears")

	// before the stake existed
	none, err := lt.ledger.GetPriorVotes(alice, lt.date(1), 9, 20)
	require.NoError(t, err)
	assert.Zero(t, none.Sign())

	// future block queries are rejected
	_, err = lt.ledger.GetPriorVotes(alice, lt.date(1), 20, 20)
	assert.Error(t, err)
}

func TestGetStakes(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)

	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(100), lt.date(2), stasis.Address{}, stasis.Address{}))
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 11, kickoff+110), big.NewInt(200), lt.date(8), stasis.Address{}, stasis.Address{}))

	stakes, err := lt.ledger.GetStakes(alice)
	require.NoError(t, err)
	require.Len(t, stakes, 2)
	assert.Equal(t, lt.date(2), stakes[0].Date)
	assert.Equal(t, big.NewInt(100), stakes[0].Stake)
	assert.Equal(t, lt.date(8), stakes[1].Date)
	assert.Equal(t, big.NewInt(200), stakes[1].Stake)
}

func TestPauseBlocksMutationsNotWithdraw(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))

	// only pausers may pause
	err := lt.ledger.SetPaused(lt.env(alice, 20, kickoff+200), true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, lt.ledger.SetPaused(lt.env(owner, 20, kickoff+200), true))

	err = lt.ledger.Stake(lt.env(alice, 21, kickoff+210), big.NewInt(100), date, stasis.Address{}, stasis.Address{})
	assert.Error(t, err)
	err = lt.ledger.Delegate(lt.env(alice, 21, kickoff+210), bob, date)
	assert.Error(t, err)
	err = lt.ledger.ExtendStakingDuration(lt.env(alice, 21, kickoff+210), date, lt.date(8))
	assert.Error(t, err)

	// withdrawals stay open while paused
	require.NoError(t, lt.ledger.Withdraw(lt.env(alice, 22, date+10), big.NewInt(1000), date, stasis.Address{}))
	assert.Equal(t, big.NewInt(5000), lt.balance(alice))
}

func TestFreezeBlocksWithdraw(t *testing.T) {
	lt := newLedgerTest(t)
	lt.fund(alice, 5000)
	date := lt.date(4)
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 10, kickoff+100), big.NewInt(1000), date, stasis.Address{}, stasis.Address{}))

	require.NoError(t, lt.ledger.SetFrozen(lt.env(owner, 20, kickoff+200), true))

	err := lt.ledger.Withdraw(lt.env(alice, 21, date+10), big.NewInt(1000), date, stasis.Address{})
	assert.Error(t, err)

	// unfreezing leaves the ledger paused: withdraw works, stake does not
	require.NoError(t, lt.ledger.SetFrozen(lt.env(owner, 22, kickoff+220), false))
	require.NoError(t, lt.ledger.Withdraw(lt.env(alice, 23, date+10), big.NewInt(1000), date, stasis.Address{}))
	err = lt.ledger.Stake(lt.env(alice, 24, date+20), big.NewInt(100), lt.date(8), stasis.Address{}, stasis.Address{})
	assert.Error(t, err)
}

func TestPauserRole(t *testing.T) {
	lt := newLedgerTest(t)

	require.NoError(t, lt.ledger.AddPauser(lt.env(owner, 10, kickoff+100), bob))
	require.NoError(t, lt.ledger.SetPaused(lt.env(bob, 11, kickoff+110), true))

	paused, err := lt.ledger.IsPaused()
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, lt.ledger.RemovePauser(lt.env(owner, 12, kickoff+120), bob))
	err = lt.ledger.SetPaused(lt.env(bob, 13, kickoff+130), false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSetWeightScaling(t *testing.T) {
	lt := newLedgerTest(t)

	err := lt.ledger.SetWeightScaling(lt.env(owner, 10, kickoff+100), 0)
	assert.ErrorIs(t, err, ErrInvalidScaling)
	err = lt.ledger.SetWeightScaling(lt.env(owner, 10, kickoff+100), 10)
	assert.ErrorIs(t, err, ErrInvalidScaling)
	err = lt.ledger.SetWeightScaling(lt.env(alice, 10, kickoff+100), 5)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, lt.ledger.SetWeightScaling(lt.env(owner, 10, kickoff+100), 5))
	scaling, err := lt.ledger.WeightScaling()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), scaling)
}
