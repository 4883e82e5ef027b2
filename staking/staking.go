// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the time-weighted stake checkpoint ledger.
// Stakes are locked until a bucketed lock date and earn voting weight that
// grows with remaining lock time; every tracked quantity is a block-indexed
// checkpoint series so historical vote weight is reproducible exactly.
package staking

import (
	"math/big"

	"github.com/stasisprotocol/stasis/log"
	"github.com/stasisprotocol/stasis/metrics"
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/checkpoint"
	"github.com/stasisprotocol/stasis/staking/lockdate"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/staking/weight"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

var (
	logger = log.WithContext("pkg", "staking")

	metricMutations = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_mutation_count", []string{"op", "outcome"})
	})
	metricSlotIO = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("staking_storage_slot_count", []string{"direction"})
	})
)

var (
	ErrZeroAmount           = reverts.New("amount must be greater than zero")
	ErrZeroAddress          = reverts.New("address must not be zero")
	ErrNotEnoughBalance     = reverts.New("not enough balance")
	ErrBalanceOverflow      = reverts.New("balance overflow")
	ErrCannotReduceDuration = reverts.New("cannot reduce staking duration")
	ErrInvalidLockDate      = reverts.New("invalid lock date")
	ErrInvalidScaling       = reverts.New("weight scaling out of range")
	ErrInvalidIterations    = reverts.New("iteration budget must be greater than zero")
	ErrNotVestingContract   = reverts.New("not a registered vesting contract")
)

const schemaVersion = 1

// slotMeter feeds storage slot traffic into metrics.
type slotMeter struct{}

func (slotMeter) OnRead(slots uint64)  { metricSlotIO().AddWithLabel(int64(slots), map[string]string{"direction": "read"}) }
func (slotMeter) OnWrite(slots uint64) { metricSlotIO().AddWithLabel(int64(slots), map[string]string{"direction": "write"}) }

// Staking is the ledger facade. All mutations run atomically: a failing
// sub-step rolls the whole operation back via a state checkpoint, so the
// four checkpoint series can never diverge.
type Staking struct {
	addr    stasis.Address
	storage *storage
	sink    Sink

	pending []Event
}

// New creates a ledger instance bound to addr within the given state.
// Events of committed operations go to sink; nil discards them.
func New(addr stasis.Address, state *state.State, sink Sink) *Staking {
	return &Staking{
		addr:    addr,
		storage: newStorage(addr, state, slotMeter{}),
		sink:    sink,
	}
}

// Address returns the ledger's own account address.
func (s *Staking) Address() stasis.Address {
	return s.addr
}

func (s *Staking) emit(e Event) {
	s.pending = append(s.pending, e)
}

// mutate wraps one mutation in a state checkpoint. On failure everything
// the operation wrote is rolled back and pending events are discarded; on
// success pending events are flushed to the sink.
func (s *Staking) mutate(env *xenv.Environment, fn func() error) error {
	chk := env.State().NewCheckpoint()
	s.pending = s.pending[:0]
	if err := fn(); err != nil {
		env.State().RevertTo(chk)
		s.pending = s.pending[:0]
		return err
	}
	if s.sink != nil {
		for _, e := range s.pending {
			s.sink.Emit(env.BlockNumber(), e)
		}
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *Staking) schedule() (lockdate.Schedule, error) {
	kickoff, err := s.storage.Kickoff()
	if err != nil {
		return lockdate.Schedule{}, err
	}
	if kickoff == 0 {
		return lockdate.Schedule{}, ErrNotInitialized
	}
	return lockdate.NewSchedule(kickoff), nil
}

func countMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "reverted"
	}
	metricMutations().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
}

// Initialize sets up the ledger: owner, fee collector, the kickoff
// timestamp all lock dates derive from, and default tuning. One shot.
func (s *Staking) Initialize(env *xenv.Environment, owner, feeCollector stasis.Address, kickoff uint64) (err error) {
	defer func() { countMutation("initialize", err) }()
	return s.mutate(env, func() error {
		version, err := s.storage.SchemaVersion()
		if err != nil {
			return err
		}
		if version != 0 {
			return ErrAlreadyInitialized
		}
		if owner.IsZero() || feeCollector.IsZero() {
			return ErrZeroAddress
		}
		if kickoff == 0 {
			kickoff = env.BlockTime()
		}
		s.storage.SetSchemaVersion(schemaVersion)
		s.storage.SetOwner(owner)
		s.storage.SetFeeCollector(feeCollector)
		s.storage.SetKickoff(kickoff)
		s.storage.SetWeightScaling(stasis.DefaultWeightScaling)
		s.storage.SetVestingWithdrawIterations(stasis.DefaultVestingWithdrawIterations)

		logger.Info("ledger initialized", "owner", owner, "kickoff", kickoff)
		return nil
	})
}

// Stake locks amount of the caller's balance for stakeFor until the lock
// date the until timestamp buckets to. Calling again for the same
// (account, lock date) adds to the existing stake. A non-zero delegatee
// reassigns the delegate for that lock date, moving the whole resulting
// balance.
func (s *Staking) Stake(env *xenv.Environment, amount *big.Int, until uint64, stakeFor, delegatee stasis.Address) (err error) {
	defer func() { countMutation("stake", err) }()
	return s.mutate(env, func() error {
		if err := s.storage.guard.CheckNotPaused(); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmount
		}
		if stakeFor.IsZero() {
			stakeFor = env.Caller()
		}
		sched, err := s.schedule()
		if err != nil {
			return err
		}
		date, err := sched.LockDate(until)
		if err != nil {
			return err
		}
		if date <= env.BlockTime() {
			return lockdate.ErrPeriodTooShort
		}
		if err := s.collectTokens(env, env.Caller(), amount); err != nil {
			return err
		}
		if err := s.storage.AddAccountTotal(stakeFor, amount); err != nil {
			return err
		}
		if err := s.creditSeries(env, stakeFor, delegatee, date, amount); err != nil {
			return err
		}

		total, err := s.storage.users.Latest(checkpoint.AccountDateKey(stakeFor, date))
		if err != nil {
			return err
		}
		s.emit(TokensStaked{Staker: stakeFor, Amount: amount, LockedUntil: date, TotalStaked: total})
		logger.Debug("staked", "staker", stakeFor, "amount", amount, "until", date)
		return nil
	})
}

// creditSeries bumps delegate, user, total and (for vesting stakers)
// vesting aggregate series for a fresh amount at date. Delegate goes first
// so a reassignment moves only the prior balance.
func (s *Staking) creditSeries(env *xenv.Environment, stakeFor, delegatee stasis.Address, date uint64, amount *big.Int) error {
	block := env.BlockNumber()

	prev, err := s.storage.delegation.DelegateOf(stakeFor, date)
	if err != nil {
		return err
	}
	if err := s.storage.delegation.Credit(stakeFor, delegatee, date, block, amount); err != nil {
		return err
	}
	if !delegatee.IsZero() && delegatee != prev {
		s.emit(DelegateChanged{Delegator: stakeFor, LockedUntil: date, FromDelegate: prev, ToDelegate: delegatee})
	}

	if err := s.storage.users.Increase(checkpoint.AccountDateKey(stakeFor, date), block, amount); err != nil {
		return err
	}
	if err := s.storage.totals.Increase(checkpoint.DateKey(date), block, amount); err != nil {
		return err
	}
	isVesting, err := s.storage.registry.IsVesting(stakeFor)
	if err != nil {
		return err
	}
	if isVesting {
		if err := s.storage.vestings.Increase(checkpoint.DateKey(date), block, amount); err != nil {
			return err
		}
	}
	return nil
}

// debitSeries is the inverse of creditSeries, removing amount of account's
// stake at date from all affected series.
func (s *Staking) debitSeries(env *xenv.Environment, account stasis.Address, date uint64, amount *big.Int) error {
	block := env.BlockNumber()

	if err := s.storage.delegation.Debit(account, date, block, amount); err != nil {
		return err
	}
	if err := s.storage.users.Decrease(checkpoint.AccountDateKey(account, date), block, amount); err != nil {
		return err
	}
	if err := s.storage.totals.Decrease(checkpoint.DateKey(date), block, amount); err != nil {
		return err
	}
	isVesting, err := s.storage.registry.IsVesting(account)
	if err != nil {
		return err
	}
	if isVesting {
		if err := s.storage.vestings.Decrease(checkpoint.DateKey(date), block, amount); err != nil {
			return err
		}
	}
	return nil
}

// ExtendStakingDuration moves the caller's whole stake at fromDate to a
// later lock date, preserving the delegate. The caller's total locked
// balance is unchanged, only its distribution across lock dates moves.
func (s *Staking) ExtendStakingDuration(env *xenv.Environment, fromDate, until uint64) (err error) {
	defer func() { countMutation("extend", err) }()
	return s.mutate(env, func() error {
		if err := s.storage.guard.CheckNotPaused(); err != nil {
			return err
		}
		sched, err := s.schedule()
		if err != nil {
			return err
		}
		from, err := sched.LockDate(fromDate)
		if err != nil {
			return err
		}
		to, err := sched.LockDate(until)
		if err != nil {
			return err
		}
		if to < from {
			return ErrCannotReduceDuration
		}

		caller := env.Caller()
		amount, err := s.storage.users.Latest(checkpoint.AccountDateKey(caller, from))
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return ErrNotEnoughBalance
		}

		// the delegate follows the stake to the new date
		delegate, err := s.storage.delegation.DelegateOf(caller, from)
		if err != nil {
			return err
		}
		if err := s.debitSeries(env, caller, from, amount); err != nil {
			return err
		}
		prev, err := s.storage.delegation.Move(caller, delegate, to, env.BlockNumber())
		if err != nil {
			return err
		}
		if prev != delegate {
			s.emit(DelegateChanged{Delegator: caller, LockedUntil: to, FromDelegate: prev, ToDelegate: delegate})
		}
		if err := s.creditSeries(env, caller, stasis.Address{}, to, amount); err != nil {
			return err
		}

		s.emit(ExtendedStakingDuration{Staker: caller, PreviousDate: from, NewDate: to, AmountStaked: amount})
		logger.Debug("extended", "staker", caller, "from", from, "to", to, "amount", amount)
		return nil
	})
}

// Withdraw releases amount of the caller's stake at date to receiver. Once
// the lock date has elapsed the full amount is released; before that a
// weight-derived penalty is forfeited to the fee collector and only the
// remainder reaches the receiver. Allowed while paused, blocked by freeze.
func (s *Staking) Withdraw(env *xenv.Environment, amount *big.Int, date uint64, receiver stasis.Address) (err error) {
	defer func() { countMutation("withdraw", err) }()
	return s.mutate(env, func() error {
		if err := s.storage.guard.CheckNotFrozen(); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmount
		}
		caller := env.Caller()
		if receiver.IsZero() {
			receiver = caller
		}
		sched, err := s.schedule()
		if err != nil {
			return err
		}
		if !sched.IsLockDate(date) {
			return ErrInvalidLockDate
		}

		staked, err := s.storage.users.Latest(checkpoint.AccountDateKey(caller, date))
		if err != nil {
			return err
		}
		if staked.Cmp(amount) < 0 {
			return ErrNotEnoughBalance
		}

		if err := s.debitSeries(env, caller, date, amount); err != nil {
			return err
		}
		if err := s.storage.SubAccountTotal(caller, amount); err != nil {
			return err
		}

		available := new(big.Int).Set(amount)
		remaining := sched.Remaining(date, env.BlockTime())
		if remaining > 0 {
			scaling, err := s.storage.WeightScaling()
			if err != nil {
				return err
			}
			penalty := weight.Penalty(amount, remaining, scaling)
			available.Sub(available, penalty)
			if penalty.Sign() > 0 {
				collector, err := s.storage.FeeCollector()
				if err != nil {
					return err
				}
				if err := s.payoutTokens(env, collector, penalty); err != nil {
					return err
				}
			}
		}
		if err := s.payoutTokens(env, receiver, available); err != nil {
			return err
		}

		s.emit(StakingWithdrawn{Staker: caller, Amount: amount})
		logger.Debug("withdrawn", "staker", caller, "amount", amount, "date", date, "available", available)
		return nil
	})
}

// Delegate reassigns the caller's voting credit at the given lock date.
func (s *Staking) Delegate(env *xenv.Environment, delegatee stasis.Address, date uint64) (err error) {
	defer func() { countMutation("delegate", err) }()
	return s.mutate(env, func() error {
		if err := s.storage.guard.CheckNotPaused(); err != nil {
			return err
		}
		return s.moveDelegate(env, env.Caller(), delegatee, date)
	})
}

// DelegateBySig is Delegate on behalf of the account that signed the
// authorization. The signature binds delegatee, lock date, nonce and
// expiry; nonces are consumed in strict order.
func (s *Staking) DelegateBySig(
	env *xenv.Environment,
	delegatee stasis.Address,
	date, nonce, expiry uint64,
	signature []byte,
) (err error) {
	defer func() { countMutation("delegate_by_sig", err) }()
	return s.mutate(env, func() error {
		if err := s.storage.guard.CheckNotPaused(); err != nil {
			return err
		}
		signer, err := s.storage.delegation.RecoverSigner(
			s.storage.nonces, s.addr, delegatee, date, nonce, expiry, env.BlockTime(), signature)
		if err != nil {
			return err
		}
		return s.moveDelegate(env, signer, delegatee, date)
	})
}

func (s *Staking) moveDelegate(env *xenv.Environment, account, delegatee stasis.Address, date uint64) error {
	sched, err := s.schedule()
	if err != nil {
		return err
	}
	if !sched.IsLockDate(date) {
		return ErrInvalidLockDate
	}
	prev, err := s.storage.delegation.Move(account, delegatee, date, env.BlockNumber())
	if err != nil {
		return err
	}
	if prev != delegatee {
		s.emit(DelegateChanged{Delegator: account, LockedUntil: date, FromDelegate: prev, ToDelegate: delegatee})
		logger.Debug("delegated", "delegator", account, "to", delegatee, "date", date)
	}
	return nil
}

// SetPaused blocks (or reopens) stake mutations. Withdrawals stay open so
// a pause never traps funds. Pauser or owner only.
func (s *Staking) SetPaused(env *xenv.Environment, paused bool) (err error) {
	defer func() { countMutation("set_paused", err) }()
	return s.mutate(env, func() error {
		if err := s.checkPauser(env.Caller()); err != nil {
			return err
		}
		if err := s.storage.guard.SetPaused(paused); err != nil {
			return err
		}
		s.emit(StakingPaused{SetPaused: paused})
		logger.Info("pause flag set", "paused", paused, "by", env.Caller())
		return nil
	})
}

// SetFrozen is the emergency stop: it additionally blocks withdrawals and
// forces the pause on. Lifting it leaves the ledger paused. Pauser or
// owner only.
func (s *Staking) SetFrozen(env *xenv.Environment, frozen bool) (err error) {
	defer func() { countMutation("set_frozen", err) }()
	return s.mutate(env, func() error {
		if err := s.checkPauser(env.Caller()); err != nil {
			return err
		}
		if err := s.storage.guard.SetFrozen(frozen); err != nil {
			return err
		}
		s.emit(StakingFrozen{SetFrozen: frozen})
		logger.Info("freeze flag set", "frozen", frozen, "by", env.Caller())
		return nil
	})
}

// SetWeightScaling tunes the early-withdrawal penalty multiplier. Owner
// only, bounded to [MinWeightScaling, MaxWeightScaling].
func (s *Staking) SetWeightScaling(env *xenv.Environment, scaling uint64) (err error) {
	defer func() { countMutation("set_weight_scaling", err) }()
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		if scaling < stasis.MinWeightScaling || scaling > stasis.MaxWeightScaling {
			return ErrInvalidScaling
		}
		s.storage.SetWeightScaling(scaling)
		return nil
	})
}

// SetFeeCollector points early-withdrawal penalties at a new collector.
// Owner only.
func (s *Staking) SetFeeCollector(env *xenv.Environment, collector stasis.Address) (err error) {
	defer func() { countMutation("set_fee_collector", err) }()
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		if collector.IsZero() {
			return ErrZeroAddress
		}
		s.storage.SetFeeCollector(collector)
		return nil
	})
}

// SetMaxVestingWithdrawIterations bounds lock dates processed per vesting
// cancellation call. Owner only.
func (s *Staking) SetMaxVestingWithdrawIterations(env *xenv.Environment, n uint32) (err error) {
	defer func() { countMutation("set_vesting_iterations", err) }()
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		if n == 0 {
			return ErrInvalidIterations
		}
		s.storage.SetVestingWithdrawIterations(n)
		return nil
	})
}

// AddVestingCodeHash registers a vesting contract template. Admin only.
func (s *Staking) AddVestingCodeHash(env *xenv.Environment, hash stasis.Bytes32) error {
	return s.mutate(env, func() error {
		if err := s.checkAdmin(env.Caller()); err != nil {
			return err
		}
		return s.storage.registry.AddCodeHash(hash)
	})
}

// RemoveVestingCodeHash drops a vesting contract template. Admin only.
func (s *Staking) RemoveVestingCodeHash(env *xenv.Environment, hash stasis.Bytes32) error {
	return s.mutate(env, func() error {
		if err := s.checkAdmin(env.Caller()); err != nil {
			return err
		}
		return s.storage.registry.RemoveCodeHash(hash)
	})
}

// AddVestingAddress registers a single vesting contract account. Admin only.
func (s *Staking) AddVestingAddress(env *xenv.Environment, addr stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkAdmin(env.Caller()); err != nil {
			return err
		}
		return s.storage.registry.AddAddress(addr)
	})
}

// RemoveVestingAddress drops a single vesting contract account. Admin only.
func (s *Staking) RemoveVestingAddress(env *xenv.Environment, addr stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkAdmin(env.Caller()); err != nil {
			return err
		}
		return s.storage.registry.RemoveAddress(addr)
	})
}

//
// token movement against account balances
//

func (s *Staking) collectTokens(env *xenv.Environment, from stasis.Address, amount *big.Int) error {
	st := env.State()
	balance, err := st.GetBalance(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	if err := st.SetBalance(from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	own, err := st.GetBalance(s.addr)
	if err != nil {
		return err
	}
	return st.SetBalance(s.addr, new(big.Int).Add(own, amount))
}

func (s *Staking) payoutTokens(env *xenv.Environment, to stasis.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	st := env.State()
	own, err := st.GetBalance(s.addr)
	if err != nil {
		return err
	}
	if own.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	if err := st.SetBalance(s.addr, new(big.Int).Sub(own, amount)); err != nil {
		return err
	}
	balance, err := st.GetBalance(to)
	if err != nil {
		return err
	}
	return st.SetBalance(to, new(big.Int).Add(balance, amount))
}

var _ slot.Meter = slotMeter{}
