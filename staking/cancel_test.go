// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/staking/delegation"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	vestingContract = stasis.BytesToAddress([]byte("team-vesting"))
	receiver        = stasis.BytesToAddress([]byte("receiver"))
)

// seedVesting registers vestingContract and stakes amount at each of the
// given bucket offsets.
func seedVesting(t *testing.T, lt *ledgerTest, buckets []uint64, amount int64) {
	require.NoError(t, lt.ledger.AddVestingAddress(lt.env(owner, 5, kickoff+50), vestingContract))
	lt.fund(vestingContract, amount*int64(len(buckets)))
	for i, b := range buckets {
		block := uint32(10 + i)
		require.NoError(t, lt.ledger.Stake(
			lt.env(vestingContract, block, kickoff+100), big.NewInt(amount), lt.date(b), stasis.Address{}, stasis.Address{}))
	}
}

func TestVestingStakeMirrored(t *testing.T) {
	lt := newLedgerTest(t)
	seedVesting(t, lt, []uint64{4}, 1000)

	mirrored, err := lt.ledger.GetPriorVestingStakeByDate(lt.date(4), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), mirrored)

	// organic stake is not mirrored
	lt.fund(alice, 1000)
	require.NoError(t, lt.ledger.Stake(lt.env(alice, 30, kickoff+100), big.NewInt(500), lt.date(4), stasis.Address{}, stasis.Address{}))
	mirrored, err = lt.ledger.GetPriorVestingStakeByDate(lt.date(4), 30, 40)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), mirrored)

	total, err := lt.ledger.GetCurrentTotalStake(lt.date(4))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), total)
}

func TestCancelTeamVestingBounded(t *testing.T) {
	lt := newLedgerTest(t)
	// stakes on 40 consecutive lock dates, iteration budget 10
	buckets := make([]uint64, 40)
	for i := range buckets {
		buckets[i] = uint64(i + 1)
	}
	seedVesting(t, lt, buckets, 100)

	// first call examines exactly 10 dates and reports a resume point
	cursor, err := lt.ledger.CancelTeamVesting(lt.env(owner, 60, kickoff+600), vestingContract, receiver, 0)
	require.NoError(t, err)
	require.False(t, cursor.Done)
	assert.Equal(t, lt.date(10), cursor.LastProcessed)
	assert.Equal(t, lt.date(11), cursor.NextDate)
	assert.Equal(t, big.NewInt(1000), lt.balance(receiver))

	partials := lt.sink.Named("TeamVestingPartiallyCancelled")
	require.Len(t, partials, 1)
	assert.Equal(t, lt.date(10), partials[0].(TeamVestingPartiallyCancelled).LastProcessedDate)

	// resume until done
	for !cursor.Done {
		cursor, err = lt.ledger.CancelTeamVesting(lt.env(owner, 61, kickoff+610), vestingContract, receiver, cursor.NextDate)
		require.NoError(t, err)
	}
	assert.Equal(t, big.NewInt(4000), lt.balance(receiver))
	require.Len(t, lt.sink.Named("TeamVestingCancelled"), 1)

	// everything unwound
	balance, err := lt.ledger.BalanceOf(vestingContract)
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())
	stakes, err := lt.ledger.GetStakes(vestingContract)
	require.NoError(t, err)
	assert.Empty(t, stakes)
	mirrored, err := lt.ledger.GetPriorVestingStakeByDate(lt.date(5), 61, 70)
	require.NoError(t, err)
	assert.Zero(t, mirrored.Sign())
}

func TestCancelTeamVestingAuthorization(t *testing.T) {
	lt := newLedgerTest(t)
	seedVesting(t, lt, []uint64{4}, 100)

	_, err := lt.ledger.CancelTeamVesting(lt.env(alice, 60, kickoff+600), vestingContract, receiver, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// admins other than the owner may cancel
	require.NoError(t, lt.ledger.AddAdmin(lt.env(owner, 61, kickoff+610), alice))
	_, err = lt.ledger.CancelTeamVesting(lt.env(alice, 62, kickoff+620), vestingContract, receiver, 0)
	require.NoError(t, err)

	// not a vesting contract
	_, err = lt.ledger.CancelTeamVesting(lt.env(owner, 63, kickoff+630), bob, receiver, 0)
	assert.ErrorIs(t, err, ErrNotVestingContract)
}

func TestDelegateBySigFacade(t *testing.T) {
	lt := newLedgerTest(t)
	date := lt.date(4)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := stasis.PubkeyToAddress(crypto.FromECDSAPub(&key.PublicKey))
	require.NoError(t, lt.st.SetBalance(signer, big.NewInt(1000)))
	require.NoError(t, lt.ledger.Stake(lt.env(signer, 10, kickoff+100), big.NewInt(500), date, stasis.Address{}, stasis.Address{}))

	digest := delegation.SigDigest(ledgerAddr, bob, date, 0, kickoff+1000)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	require.NoError(t, lt.ledger.DelegateBySig(lt.env(carol, 20, kickoff+200), bob, date, 0, kickoff+1000, sig))

	d, err := lt.ledger.DelegateOf(signer, date)
	require.NoError(t, err)
	assert.Equal(t, bob, d)
	delegated, err := lt.ledger.GetPriorStakeByDateForDelegatee(bob, date, 20, 30)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), delegated)

	nonce, err := lt.ledger.SigNonce(signer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// replay is rejected and consumes nothing
	err = lt.ledger.DelegateBySig(lt.env(carol, 21, kickoff+210), bob, date, 0, kickoff+1000, sig)
	assert.ErrorIs(t, err, delegation.ErrInvalidNonce)

	// expired authorization
	digest = delegation.SigDigest(ledgerAddr, carol, date, 1, kickoff+100)
	sig, err = crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	err = lt.ledger.DelegateBySig(lt.env(carol, 22, kickoff+220), carol, date, 1, kickoff+100, sig)
	assert.ErrorIs(t, err, delegation.ErrSignatureExpired)
}
