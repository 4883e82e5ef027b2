// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/xenv"
)

func TestUpgradeSchema(t *testing.T) {
	lt := newLedgerTest(t)

	// already at the current version, nothing to do
	require.NoError(t, lt.ledger.UpgradeSchema(lt.env(owner, 2, kickoff)))

	version, err := lt.ledger.storage.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(schemaVersion), version)
}

func TestUpgradeSchemaUninitialized(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)
	ledger := New(ledgerAddr, st, nil)

	env := xenv.New(st,
		&xenv.BlockContext{Number: 1, Time: kickoff},
		&xenv.TransactionContext{Origin: owner})
	assert.ErrorIs(t, ledger.UpgradeSchema(env), ErrNotInitialized)
}
