// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/stasisprotocol/stasis/staking/checkpoint"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

// CancelCursor is the resume point of a partially completed vesting
// cancellation. The ledger does not persist it; the caller feeds NextDate
// back in to continue.
type CancelCursor struct {
	// LastProcessed is the last lock date examined by the call.
	LastProcessed uint64
	// NextDate is where the next call should start, meaningless when Done.
	NextDate uint64
	// Done is set once every lock date through the maximum has been unwound.
	Done bool
}

// CancelTeamVesting unwinds a vesting contract's stake, paying balances out
// to receiver without penalty. A single contract can span dozens of lock
// dates, so each call processes at most the configured iteration budget and
// returns a cursor to resume from; startDate zero means start from the
// first lock date. Admin only, blocked while frozen.
func (s *Staking) CancelTeamVesting(
	env *xenv.Environment,
	vestingContract, receiver stasis.Address,
	startDate uint64,
) (cursor *CancelCursor, err error) {
	defer func() { countMutation("cancel_team_vesting", err) }()
	err = s.mutate(env, func() error {
		if err := s.checkAdmin(env.Caller()); err != nil {
			return err
		}
		if err := s.storage.guard.CheckNotFrozen(); err != nil {
			return err
		}
		if receiver.IsZero() {
			return ErrZeroAddress
		}
		isVesting, err := s.storage.registry.IsVesting(vestingContract)
		if err != nil {
			return err
		}
		if !isVesting {
			return ErrNotVestingContract
		}

		sched, err := s.schedule()
		if err != nil {
			return err
		}
		if startDate == 0 {
			startDate = sched.MinDate()
		} else if !sched.IsLockDate(startDate) {
			return ErrInvalidLockDate
		}
		budget, err := s.storage.VestingWithdrawIterations()
		if err != nil {
			return err
		}

		last := startDate
		for date, n := startDate, uint32(0); date <= sched.MaxDate() && n < budget; date, n = date+stasis.BucketInterval, n+1 {
			stake, err := s.storage.users.Latest(checkpoint.AccountDateKey(vestingContract, date))
			if err != nil {
				return err
			}
			if stake.Sign() > 0 {
				if err := s.debitSeries(env, vestingContract, date, stake); err != nil {
					return err
				}
				if err := s.storage.SubAccountTotal(vestingContract, stake); err != nil {
					return err
				}
				if err := s.payoutTokens(env, receiver, stake); err != nil {
					return err
				}
			}
			last = date
		}

		cursor = &CancelCursor{LastProcessed: last}
		if last >= sched.MaxDate() {
			cursor.Done = true
			s.emit(TeamVestingCancelled{Caller: env.Caller(), Receiver: receiver})
			logger.Info("vesting cancelled", "contract", vestingContract, "receiver", receiver)
		} else {
			cursor.NextDate = last + stasis.BucketInterval
			s.emit(TeamVestingPartiallyCancelled{Caller: env.Caller(), Receiver: receiver, LastProcessedDate: last})
			logger.Info("vesting partially cancelled",
				"contract", vestingContract, "receiver", receiver, "lastProcessed", last)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cursor, nil
}
