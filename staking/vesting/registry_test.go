// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
)

func newTestRegistry(t *testing.T) (*Registry, *state.State) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)
	ctx := slot.NewContext(stasis.BytesToAddress([]byte("stake-ledger")), st)
	return NewRegistry(ctx, stasis.Blake2b([]byte("vesting-code-hashes")), stasis.Blake2b([]byte("vesting-addresses"))), st
}

func TestRegistryByAddress(t *testing.T) {
	r, _ := newTestRegistry(t)
	contract := stasis.BytesToAddress([]byte("vesting-1"))

	ok, err := r.IsVesting(contract)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.AddAddress(contract))
	ok, err = r.IsVesting(contract)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.RemoveAddress(contract))
	ok, err = r.IsVesting(contract)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryByCodeHash(t *testing.T) {
	r, st := newTestRegistry(t)
	code := []byte{0x60, 0x60, 0x60, 0x40}
	a := stasis.BytesToAddress([]byte("vesting-a"))
	b := stasis.BytesToAddress([]byte("vesting-b"))
	require.NoError(t, st.SetCode(a, code))
	require.NoError(t, st.SetCode(b, code))

	require.NoError(t, r.AddCodeHash(stasis.Keccak256(code)))

	// both instances of the template match
	for _, addr := range []stasis.Address{a, b} {
		ok, err := r.IsVesting(addr)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	// plain account with no code does not
	ok, err := r.IsVesting(stasis.BytesToAddress([]byte("alice")))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.RemoveCodeHash(stasis.Keccak256(code)))
	ok, err = r.IsVesting(a)
	require.NoError(t, err)
	assert.False(t, ok)
}
