// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vesting identifies vesting contracts among stakers. Stake held
// by a registered vesting contract is mirrored into a separate aggregate
// series so governance tooling can weigh organic and vesting power apart.
package vesting

import (
	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/stasis"
)

// Registry recognizes vesting contracts two ways: by the code hash of the
// staker (any instance of a registered contract template matches) and by
// explicit address entries for one-off registrations.
type Registry struct {
	context    *slot.Context
	codeHashes *slot.Mapping[stasis.Bytes32, bool]
	addresses  *slot.Mapping[stasis.Address, bool]
}

func NewRegistry(context *slot.Context, codeHashesPos, addressesPos stasis.Bytes32) *Registry {
	return &Registry{
		context:    context,
		codeHashes: slot.NewMapping[stasis.Bytes32, bool](context, codeHashesPos),
		addresses:  slot.NewMapping[stasis.Address, bool](context, addressesPos),
	}
}

func (r *Registry) AddCodeHash(hash stasis.Bytes32) error {
	return r.codeHashes.Set(hash, true)
}

func (r *Registry) RemoveCodeHash(hash stasis.Bytes32) error {
	return r.codeHashes.Set(hash, false)
}

func (r *Registry) AddAddress(addr stasis.Address) error {
	return r.addresses.Set(addr, true)
}

func (r *Registry) RemoveAddress(addr stasis.Address) error {
	return r.addresses.Set(addr, false)
}

// IsVesting reports whether addr is a registered vesting contract, either
// by explicit address entry or by the code it carries.
func (r *Registry) IsVesting(addr stasis.Address) (bool, error) {
	listed, err := r.addresses.Get(addr)
	if err != nil {
		return false, err
	}
	if listed {
		return true, nil
	}
	codeHash, err := r.context.State().GetCodeHash(addr)
	if err != nil {
		return false, err
	}
	if codeHash.IsZero() {
		return false, nil
	}
	return r.codeHashes.Get(codeHash)
}
