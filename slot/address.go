// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"github.com/stasisprotocol/stasis/stasis"
)

// Address is a wrapper for storage and retrieval of an account address at a
// fixed position.
type Address struct {
	context *Context
	pos     stasis.Bytes32
}

func NewAddress(context *Context, pos stasis.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (stasis.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return stasis.Address{}, err
	}
	a.context.meterRead(1)
	return stasis.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(addr *stasis.Address) {
	var storage stasis.Bytes32
	if addr != nil {
		storage = stasis.BytesToBytes32(addr.Bytes())
	}
	a.context.meterWrite(1)
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
