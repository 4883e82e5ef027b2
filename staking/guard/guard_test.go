// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
)

func newTestGuard(t *testing.T) *Guard {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)
	ctx := slot.NewContext(stasis.BytesToAddress([]byte("stake-ledger")), st)
	return New(ctx, stasis.Blake2b([]byte("paused")), stasis.Blake2b([]byte("frozen")))
}

func TestInitialState(t *testing.T) {
	g := newTestGuard(t)

	paused, err := g.IsPaused()
	require.NoError(t, err)
	assert.False(t, paused)

	frozen, err := g.IsFrozen()
	require.NoError(t, err)
	assert.False(t, frozen)

	assert.NoError(t, g.CheckNotPaused())
	assert.NoError(t, g.CheckNotFrozen())
}

func TestPauseUnpause(t *testing.T) {
	g := newTestGuard(t)

	require.NoError(t, g.SetPaused(true))
	assert.ErrorIs(t, g.CheckNotPaused(), ErrPaused)
	// pause alone does not block withdrawals
	assert.NoError(t, g.CheckNotFrozen())

	// no-op repeat
	require.NoError(t, g.SetPaused(true))

	require.NoError(t, g.SetPaused(false))
	assert.NoError(t, g.CheckNotPaused())
}

func TestFreezeForcesPause(t *testing.T) {
	g := newTestGuard(t)

	require.NoError(t, g.SetFrozen(true))

	paused, err := g.IsPaused()
	require.NoError(t, err)
	assert.True(t, paused)
	assert.ErrorIs(t, g.CheckNotPaused(), ErrPaused)
	assert.ErrorIs(t, g.CheckNotFrozen(), ErrFrozen)
}

func TestUnpauseWhileFrozenRejected(t *testing.T) {
	g := newTestGuard(t)

	require.NoError(t, g.SetFrozen(true))
	assert.ErrorIs(t, g.SetPaused(false), ErrFrozen)
}

func TestUnfreezeLeavesPaused(t *testing.T) {
	g := newTestGuard(t)

	require.NoError(t, g.SetFrozen(true))
	require.NoError(t, g.SetFrozen(false))

	frozen, err := g.IsFrozen()
	require.NoError(t, err)
	assert.False(t, frozen)

	paused, err := g.IsPaused()
	require.NoError(t, err)
	assert.True(t, paused, "lifting a freeze must leave the ledger paused")

	// now a plain unpause works
	require.NoError(t, g.SetPaused(false))
	assert.NoError(t, g.CheckNotPaused())
}
