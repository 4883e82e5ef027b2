// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoloSeedsStakes(t *testing.T) {
	sol, err := New()
	require.NoError(t, err)
	defer sol.Close()

	assert.Equal(t, uint32(len(devAccounts)), sol.Best())

	for _, acc := range devAccounts {
		stakes, err := sol.Ledger().GetStakes(acc)
		require.NoError(t, err)
		require.Len(t, stakes, 1)
		assert.Positive(t, stakes[0].Stake.Sign())
	}

	n, err := sol.EventDB().MaxBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, sol.Best(), n)
}
