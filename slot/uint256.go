// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/stasis"
)

// Uint256 is a wrapper for storage and retrieval of an unsigned 256-bit
// integer at a fixed position, similar to a contract storage variable.
// Values exceeding 256 bits are truncated to fit stasis.Bytes32.
type Uint256 struct {
	context *Context
	pos     stasis.Bytes32
}

func NewUint256(context *Context, pos stasis.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	u.context.meterRead(1)
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) {
	u.context.meterWrite(1)
	u.context.state.SetStorage(u.context.address, u.pos, stasis.BytesToBytes32(value.Bytes()))
}

func (u *Uint256) Add(value *big.Int) error {
	cur, err := u.Get()
	if err != nil {
		return err
	}
	cur.Add(cur, value)
	u.Set(cur)
	return nil
}

// Sub subtracts value, failing when the stored value is too small.
func (u *Uint256) Sub(value *big.Int) error {
	cur, err := u.Get()
	if err != nil {
		return err
	}
	if cur.Cmp(value) < 0 {
		return errors.New("insufficient stored value to subtract")
	}
	cur.Sub(cur, value)
	u.Set(cur)
	return nil
}
