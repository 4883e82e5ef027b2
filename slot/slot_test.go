// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
)

type countingMeter struct {
	reads, writes uint64
}

func (m *countingMeter) OnRead(slots uint64)  { m.reads += slots }
func (m *countingMeter) OnWrite(slots uint64) { m.writes += slots }

func newTestContext(t *testing.T) *slot.Context {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	return slot.NewContext(stasis.BytesToAddress([]byte("contract")), state.New(store))
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := slot.NewUint256(ctx, stasis.Blake2b([]byte("u256")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Zero(t, v.Sign())

	u.Set(big.NewInt(42))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v)

	require.NoError(t, u.Add(big.NewInt(8)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), v)

	require.NoError(t, u.Sub(big.NewInt(20)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), v)

	// underflow is rejected, the stored value stays
	assert.Error(t, u.Sub(big.NewInt(31)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), v)
}

func TestUint32(t *testing.T) {
	ctx := newTestContext(t)
	u := slot.NewUint32(ctx, stasis.Blake2b([]byte("u32")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Zero(t, v)

	u.Set(7)
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := slot.NewAddress(ctx, stasis.Blake2b([]byte("addr")))

	v, err := a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	want := stasis.BytesToAddress([]byte("someone"))
	a.Set(&want)
	v, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, want, v)
}

type record struct {
	Count uint32
	Tag   []byte
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := slot.NewMapping[stasis.Address, *record](ctx, stasis.Blake2b([]byte("records")))
	k1 := stasis.BytesToAddress([]byte("k1"))
	k2 := stasis.BytesToAddress([]byte("k2"))

	// missing entries decode to a fresh zero value
	v, err := m.Get(k1)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Zero(t, v.Count)

	require.NoError(t, m.Set(k1, &record{Count: 3, Tag: []byte("x")}))
	v, err = m.Get(k1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v.Count)
	assert.Equal(t, []byte("x"), v.Tag)

	// keys are independent
	v, err = m.Get(k2)
	require.NoError(t, err)
	assert.Zero(t, v.Count)
}

func TestMeterObservesTraffic(t *testing.T) {
	ctx := newTestContext(t)
	meter := &countingMeter{}
	metered := ctx.WithMeter(meter)

	u := slot.NewUint256(metered, stasis.Blake2b([]byte("m")))
	u.Set(big.NewInt(1))
	_, err := u.Get()
	require.NoError(t, err)

	assert.Equal(t, uint64(1), meter.writes)
	assert.Equal(t, uint64(1), meter.reads)

	// the unmetered context stays silent
	u2 := slot.NewUint256(ctx, stasis.Blake2b([]byte("m2")))
	u2.Set(big.NewInt(1))
	assert.Equal(t, uint64(1), meter.writes)
}
