// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/stasisprotocol/stasis/staking/checkpoint"
	"github.com/stasisprotocol/stasis/staking/weight"
	"github.com/stasisprotocol/stasis/stasis"
)

//
// Getters - no state change. Past-block queries go through the checkpoint
// binary search and fail for blocks at or beyond currentBlock.
//

// GetPriorUserStakeByDate returns the account's staked amount at the given
// lock date as of blockNumber.
func (s *Staking) GetPriorUserStakeByDate(account stasis.Address, date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	return s.storage.users.Prior(checkpoint.AccountDateKey(account, date), blockNumber, currentBlock)
}

// GetPriorStakeByDateForDelegatee returns the stake delegated to the
// account at the given lock date as of blockNumber.
func (s *Staking) GetPriorStakeByDateForDelegatee(account stasis.Address, date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	return s.storage.delegation.Series().Prior(checkpoint.AccountDateKey(account, date), blockNumber, currentBlock)
}

// GetPriorTotalStakesForDate returns the overall staked amount at the
// given lock date as of blockNumber.
func (s *Staking) GetPriorTotalStakesForDate(date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	return s.storage.totals.Prior(checkpoint.DateKey(date), blockNumber, currentBlock)
}

// GetPriorVestingStakeByDate returns the vesting-contract share of the
// stake at the given lock date as of blockNumber.
func (s *Staking) GetPriorVestingStakeByDate(date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	return s.storage.vestings.Prior(checkpoint.DateKey(date), blockNumber, currentBlock)
}

// GetPriorVotes returns the account's voting power as of blockNumber,
// evaluated at the moment the date timestamp buckets to: the weighted sum
// of everything delegated to the account over all lock dates from that
// moment on, longer remaining locks weighing more.
func (s *Staking) GetPriorVotes(account stasis.Address, date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	sched, err := s.schedule()
	if err != nil {
		return nil, err
	}
	start, err := sched.LockDate(date)
	if err != nil {
		return nil, err
	}

	votes := new(big.Int)
	series := s.storage.delegation.Series()
	for d := start; d <= sched.MaxDate(); d += stasis.BucketInterval {
		staked, err := series.Prior(checkpoint.AccountDateKey(account, d), blockNumber, currentBlock)
		if err != nil {
			return nil, err
		}
		if staked.Sign() == 0 {
			continue
		}
		votes.Add(votes, weight.Weighted(staked, d-start))
	}
	return votes, nil
}

// AccountStake is one (lock date, balance) entry of an account.
type AccountStake struct {
	Date  uint64
	Stake *big.Int
}

// GetStakes enumerates the lock dates holding a non-zero balance for the
// account, in date order.
func (s *Staking) GetStakes(account stasis.Address) ([]AccountStake, error) {
	sched, err := s.schedule()
	if err != nil {
		return nil, err
	}
	var out []AccountStake
	for d := sched.MinDate(); d <= sched.MaxDate(); d += stasis.BucketInterval {
		staked, err := s.storage.users.Latest(checkpoint.AccountDateKey(account, d))
		if err != nil {
			return nil, err
		}
		if staked.Sign() > 0 {
			out = append(out, AccountStake{Date: d, Stake: staked})
		}
	}
	return out, nil
}

// GetCurrentStake returns the account's staked amount at the given lock
// date as of now.
func (s *Staking) GetCurrentStake(account stasis.Address, date uint64) (*big.Int, error) {
	return s.storage.users.Latest(checkpoint.AccountDateKey(account, date))
}

// GetCurrentTotalStake returns the overall staked amount at the given lock
// date as of now.
func (s *Staking) GetCurrentTotalStake(date uint64) (*big.Int, error) {
	return s.storage.totals.Latest(checkpoint.DateKey(date))
}

// BalanceOf returns the account's total staked balance across all lock
// dates.
func (s *Staking) BalanceOf(account stasis.Address) (*big.Int, error) {
	return s.storage.AccountTotal(account)
}

// DelegateOf returns the account's current delegate at the given lock
// date, the account itself when never explicitly delegated.
func (s *Staking) DelegateOf(account stasis.Address, date uint64) (stasis.Address, error) {
	return s.storage.delegation.DelegateOf(account, date)
}

// SigNonce returns the next delegateBySig nonce expected from the account.
func (s *Staking) SigNonce(account stasis.Address) (uint64, error) {
	return s.storage.nonces.Get(account)
}

// TimestampToLockDate buckets an arbitrary timestamp into its lock date.
func (s *Staking) TimestampToLockDate(ts uint64) (uint64, error) {
	sched, err := s.schedule()
	if err != nil {
		return 0, err
	}
	return sched.LockDate(ts)
}

// WeightedStakeByDate converts the account's stake at a lock date into
// voting power as of blockNumber, weighed by the time between the lock
// date and the moment the date timestamp buckets to.
func (s *Staking) WeightedStakeByDate(account stasis.Address, lockDate, date uint64, blockNumber, currentBlock uint32) (*big.Int, error) {
	sched, err := s.schedule()
	if err != nil {
		return nil, err
	}
	start, err := sched.LockDate(date)
	if err != nil {
		return nil, err
	}
	staked, err := s.storage.users.Prior(checkpoint.AccountDateKey(account, lockDate), blockNumber, currentBlock)
	if err != nil {
		return nil, err
	}
	if staked.Sign() == 0 || lockDate < start {
		return new(big.Int), nil
	}
	return weight.Weighted(staked, lockDate-start), nil
}

// Kickoff returns the timestamp all lock dates derive from.
func (s *Staking) Kickoff() (uint64, error) {
	return s.storage.Kickoff()
}

// Owner returns the ledger owner.
func (s *Staking) Owner() (stasis.Address, error) {
	return s.storage.Owner()
}

// FeeCollector returns the early-withdrawal penalty collector.
func (s *Staking) FeeCollector() (stasis.Address, error) {
	return s.storage.FeeCollector()
}

// WeightScaling returns the current penalty multiplier.
func (s *Staking) WeightScaling() (uint64, error) {
	return s.storage.WeightScaling()
}

// MaxVestingWithdrawIterations returns the per-call vesting cancellation
// budget.
func (s *Staking) MaxVestingWithdrawIterations() (uint32, error) {
	return s.storage.VestingWithdrawIterations()
}

// IsPaused reports whether stake mutations are blocked.
func (s *Staking) IsPaused() (bool, error) {
	return s.storage.guard.IsPaused()
}

// IsFrozen reports whether the ledger is fully stopped.
func (s *Staking) IsFrozen() (bool, error) {
	return s.storage.guard.IsFrozen()
}

// IsVestingContract reports whether the account is recognized as a vesting
// contract.
func (s *Staking) IsVestingContract(account stasis.Address) (bool, error) {
	return s.storage.registry.IsVesting(account)
}
