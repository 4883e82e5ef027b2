// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/stasisprotocol/stasis/stasis"
)

// Uint32 is a wrapper for storage and retrieval of a small unsigned integer
// at a fixed position. Used for flags, counters and schema versions.
type Uint32 struct {
	inner *Uint256
}

func NewUint32(context *Context, pos stasis.Bytes32) *Uint32 {
	return &Uint32{inner: NewUint256(context, pos)}
}

func (u *Uint32) Get() (uint32, error) {
	v, err := u.inner.Get()
	if err != nil {
		return 0, err
	}
	return uint32(v.Uint64()), nil
}

func (u *Uint32) Set(value uint32) {
	u.inner.Set(new(big.Int).SetUint64(uint64(value)))
}
