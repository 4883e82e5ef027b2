// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package delegation tracks who receives voting credit for a staker's
// locked balance. Delegation is per (account, lock date) and defaults to
// the account itself; moving it only touches the delegate checkpoint
// series, a staker's own balance never changes.
package delegation

import (
	"math/big"

	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/checkpoint"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

var ErrZeroDelegatee = reverts.New("delegatee is the zero address")

type Manager struct {
	delegates *slot.Mapping[stasis.Bytes32, stasis.Address]
	series    *checkpoint.Series
	users     *checkpoint.Series // read only, the stake ledger writes it
}

// New creates a manager over the delegate map at delegatesPos and the
// delegate stake series at seriesPos. The user stake series at
// userSeriesPos is consulted for the balance a re-delegation moves.
func New(context *slot.Context, delegatesPos, seriesPos, userSeriesPos stasis.Bytes32) *Manager {
	return &Manager{
		delegates: slot.NewMapping[stasis.Bytes32, stasis.Address](context, delegatesPos),
		series:    checkpoint.New(context, seriesPos),
		users:     checkpoint.New(context, userSeriesPos),
	}
}

// Series exposes the delegate stake series for reads.
func (m *Manager) Series() *checkpoint.Series {
	return m.series
}

// DelegateOf returns the current delegate of account at lockDate,
// the account itself when no explicit delegation was made.
func (m *Manager) DelegateOf(account stasis.Address, lockDate uint64) (stasis.Address, error) {
	d, err := m.delegates.Get(checkpoint.AccountDateKey(account, lockDate))
	if err != nil {
		return stasis.Address{}, err
	}
	if d.IsZero() {
		return account, nil
	}
	return d, nil
}

// Credit adds amount to the current delegate of account at lockDate,
// reassigning the delegate first when delegatee names a different one.
// Call it before the user series is bumped: the reassignment moves the
// prior balance and the increase adds amount on top, so the new delegate
// ends up credited with the whole resulting balance, not just the delta.
func (m *Manager) Credit(account, delegatee stasis.Address, lockDate uint64, block uint32, amount *big.Int) error {
	current, err := m.DelegateOf(account, lockDate)
	if err != nil {
		return err
	}
	if !delegatee.IsZero() && delegatee != current {
		if _, err := m.Move(account, delegatee, lockDate, block); err != nil {
			return err
		}
		current = delegatee
	}
	return m.series.Increase(checkpoint.AccountDateKey(current, lockDate), block, amount)
}

// Debit removes amount from the current delegate of account at lockDate.
func (m *Manager) Debit(account stasis.Address, lockDate uint64, block uint32, amount *big.Int) error {
	current, err := m.DelegateOf(account, lockDate)
	if err != nil {
		return err
	}
	return m.series.Decrease(checkpoint.AccountDateKey(current, lockDate), block, amount)
}

// Move reassigns account's delegation at lockDate to delegatee, shifting
// the account's current balance between the old and new delegate series.
// Re-delegating to the current delegate is a no-op, so repeated calls
// never double count. Returns the previous delegate for event emission.
func (m *Manager) Move(account, delegatee stasis.Address, lockDate uint64, block uint32) (prev stasis.Address, err error) {
	if delegatee.IsZero() {
		return stasis.Address{}, ErrZeroDelegatee
	}
	prev, err = m.DelegateOf(account, lockDate)
	if err != nil {
		return stasis.Address{}, err
	}
	if prev == delegatee {
		return prev, nil
	}

	if err := m.delegates.Set(checkpoint.AccountDateKey(account, lockDate), delegatee); err != nil {
		return stasis.Address{}, err
	}

	balance, err := m.users.Latest(checkpoint.AccountDateKey(account, lockDate))
	if err != nil {
		return stasis.Address{}, err
	}
	if balance.Sign() == 0 {
		return prev, nil
	}
	if err := m.series.Decrease(checkpoint.AccountDateKey(prev, lockDate), block, balance); err != nil {
		return stasis.Address{}, err
	}
	if err := m.series.Increase(checkpoint.AccountDateKey(delegatee, lockDate), block, balance); err != nil {
		return stasis.Address{}, err
	}
	return prev, nil
}
