// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package guard implements the two-tier emergency stop of the ledger.
// Pausing blocks stake mutations but can be lifted; freezing additionally
// blocks withdrawals and forces the paused flag on, and lifting a freeze
// leaves the ledger paused so reopening is always a deliberate second step.
package guard

import (
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	ErrPaused = reverts.New("paused")
	ErrFrozen = reverts.New("frozen")
)

type Guard struct {
	context   *slot.Context
	pausedPos stasis.Bytes32
	frozenPos stasis.Bytes32
}

func New(context *slot.Context, pausedPos, frozenPos stasis.Bytes32) *Guard {
	return &Guard{
		context:   context,
		pausedPos: pausedPos,
		frozenPos: frozenPos,
	}
}

func (g *Guard) flag(pos stasis.Bytes32) (bool, error) {
	v, err := slot.NewUint32(g.context, pos).Get()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (g *Guard) setFlag(pos stasis.Bytes32, on bool) {
	var v uint32
	if on {
		v = 1
	}
	slot.NewUint32(g.context, pos).Set(v)
}

func (g *Guard) IsPaused() (bool, error) {
	return g.flag(g.pausedPos)
}

func (g *Guard) IsFrozen() (bool, error) {
	return g.flag(g.frozenPos)
}

// SetPaused flips the paused flag. Redundant writes are harmless no-ops.
// Unpausing while frozen is rejected, the freeze must be lifted first.
func (g *Guard) SetPaused(paused bool) error {
	if !paused {
		frozen, err := g.IsFrozen()
		if err != nil {
			return err
		}
		if frozen {
			return ErrFrozen
		}
	}
	g.setFlag(g.pausedPos, paused)
	return nil
}

// SetFrozen flips the frozen flag. Freezing forces the paused flag on;
// unfreezing leaves it on, so the ledger comes back paused.
func (g *Guard) SetFrozen(frozen bool) error {
	if frozen {
		g.setFlag(g.pausedPos, true)
	}
	g.setFlag(g.frozenPos, frozen)
	return nil
}

// CheckNotPaused fails with ErrPaused when the ledger is paused
// (which includes the frozen state).
func (g *Guard) CheckNotPaused() error {
	paused, err := g.IsPaused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// CheckNotFrozen fails with ErrFrozen when the ledger is frozen.
// Withdrawals use this weaker check so a pause alone does not trap funds.
func (g *Guard) CheckNotFrozen() error {
	frozen, err := g.IsFrozen()
	if err != nil {
		return err
	}
	if frozen {
		return ErrFrozen
	}
	return nil
}
