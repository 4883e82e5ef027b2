// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/checkpoint"
	"github.com/stasisprotocol/stasis/staking/delegation"
	"github.com/stasisprotocol/stasis/staking/guard"
	"github.com/stasisprotocol/stasis/staking/vesting"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	// checkpoint series
	slotUserStakes     = nameToSlot("user-stakes")
	slotDelegateStakes = nameToSlot("delegate-stakes")
	slotTotalStakes    = nameToSlot("total-stakes")
	slotVestingStakes  = nameToSlot("vesting-stakes")
	// delegation
	slotDelegates = nameToSlot("delegates")
	slotSigNonces = nameToSlot("sig-nonces")
	// guard
	slotPaused = nameToSlot("paused")
	slotFrozen = nameToSlot("frozen")
	// vesting registry
	slotVestingCodeHashes = nameToSlot("vesting-code-hashes")
	slotVestingAddresses  = nameToSlot("vesting-addresses")
	// config
	slotSchemaVersion     = nameToSlot("schema-version")
	slotKickoff           = nameToSlot("kickoff")
	slotOwner             = nameToSlot("owner")
	slotFeeCollector      = nameToSlot("fee-collector")
	slotWeightScaling     = nameToSlot("weight-scaling")
	slotVestingIterations = nameToSlot("vesting-withdraw-iterations")
	// roles
	slotAdmins  = nameToSlot("admins")
	slotPausers = nameToSlot("pausers")
	// per-account totals across all lock dates
	slotAccountTotals = nameToSlot("account-totals")
)

func nameToSlot(name string) stasis.Bytes32 {
	return stasis.BytesToBytes32([]byte(name))
}

// storage represents the root storage of the stake ledger.
type storage struct {
	context *slot.Context

	users    *checkpoint.Series
	totals   *checkpoint.Series
	vestings *checkpoint.Series

	delegation *delegation.Manager
	nonces     *delegation.Nonces
	guard      *guard.Guard
	registry   *vesting.Registry

	admins        *slot.Mapping[stasis.Address, bool]
	pausers       *slot.Mapping[stasis.Address, bool]
	accountTotals *slot.Mapping[stasis.Address, *big.Int]
}

func newStorage(addr stasis.Address, state *state.State, meter slot.Meter) *storage {
	context := slot.NewContext(addr, state)
	if meter != nil {
		context = context.WithMeter(meter)
	}
	return &storage{
		context:       context,
		users:         checkpoint.New(context, slotUserStakes),
		totals:        checkpoint.New(context, slotTotalStakes),
		vestings:      checkpoint.New(context, slotVestingStakes),
		delegation:    delegation.New(context, slotDelegates, slotDelegateStakes, slotUserStakes),
		nonces:        delegation.NewNonces(context, slotSigNonces),
		guard:         guard.New(context, slotPaused, slotFrozen),
		registry:      vesting.NewRegistry(context, slotVestingCodeHashes, slotVestingAddresses),
		admins:        slot.NewMapping[stasis.Address, bool](context, slotAdmins),
		pausers:       slot.NewMapping[stasis.Address, bool](context, slotPausers),
		accountTotals: slot.NewMapping[stasis.Address, *big.Int](context, slotAccountTotals),
	}
}

//
// config accessors
//

func (s *storage) SchemaVersion() (uint32, error) {
	return slot.NewUint32(s.context, slotSchemaVersion).Get()
}

func (s *storage) SetSchemaVersion(v uint32) {
	slot.NewUint32(s.context, slotSchemaVersion).Set(v)
}

func (s *storage) Kickoff() (uint64, error) {
	v, err := slot.NewUint256(s.context, slotKickoff).Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get kickoff")
	}
	return v.Uint64(), nil
}

func (s *storage) SetKickoff(ts uint64) {
	slot.NewUint256(s.context, slotKickoff).Set(new(big.Int).SetUint64(ts))
}

func (s *storage) Owner() (stasis.Address, error) {
	return slot.NewAddress(s.context, slotOwner).Get()
}

func (s *storage) SetOwner(owner stasis.Address) {
	slot.NewAddress(s.context, slotOwner).Set(&owner)
}

func (s *storage) FeeCollector() (stasis.Address, error) {
	return slot.NewAddress(s.context, slotFeeCollector).Get()
}

func (s *storage) SetFeeCollector(collector stasis.Address) {
	slot.NewAddress(s.context, slotFeeCollector).Set(&collector)
}

func (s *storage) WeightScaling() (uint64, error) {
	v, err := slot.NewUint256(s.context, slotWeightScaling).Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get weight scaling")
	}
	return v.Uint64(), nil
}

func (s *storage) SetWeightScaling(scaling uint64) {
	slot.NewUint256(s.context, slotWeightScaling).Set(new(big.Int).SetUint64(scaling))
}

func (s *storage) VestingWithdrawIterations() (uint32, error) {
	return slot.NewUint32(s.context, slotVestingIterations).Get()
}

func (s *storage) SetVestingWithdrawIterations(n uint32) {
	slot.NewUint32(s.context, slotVestingIterations).Set(n)
}

//
// per-account totals, the overflow guard
//

func (s *storage) AccountTotal(addr stasis.Address) (*big.Int, error) {
	v, err := s.accountTotals.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account total")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (s *storage) AddAccountTotal(addr stasis.Address, amount *big.Int) error {
	cur, err := s.AccountTotal(addr)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(cur, amount)
	if next.Cmp(stasis.MaxStakeAmount) > 0 {
		return ErrBalanceOverflow
	}
	return s.accountTotals.Set(addr, next)
}

func (s *storage) SubAccountTotal(addr stasis.Address, amount *big.Int) error {
	cur, err := s.AccountTotal(addr)
	if err != nil {
		return err
	}
	if cur.Cmp(amount) < 0 {
		return ErrNotEnoughBalance
	}
	return s.accountTotals.Set(addr, new(big.Int).Sub(cur, amount))
}
