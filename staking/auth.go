// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

var (
	ErrUnauthorized       = reverts.New("unauthorized")
	ErrAlreadyInitialized = reverts.New("already initialized")
	ErrNotInitialized     = reverts.New("not initialized")
)

// checkOwner fails unless caller is the ledger owner.
func (s *Staking) checkOwner(caller stasis.Address) error {
	owner, err := s.storage.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrUnauthorized
	}
	return nil
}

// checkAdmin fails unless caller is the owner or a registered admin.
func (s *Staking) checkAdmin(caller stasis.Address) error {
	if err := s.checkOwner(caller); err == nil {
		return nil
	} else if !reverts.IsRevertErr(err) {
		return err
	}
	ok, err := s.storage.admins.Get(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// checkPauser fails unless caller is the owner or a registered pauser.
func (s *Staking) checkPauser(caller stasis.Address) error {
	if err := s.checkOwner(caller); err == nil {
		return nil
	} else if !reverts.IsRevertErr(err) {
		return err
	}
	ok, err := s.storage.pausers.Get(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// AddAdmin registers an admin account. Owner only.
func (s *Staking) AddAdmin(env *xenv.Environment, admin stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		return s.storage.admins.Set(admin, true)
	})
}

// RemoveAdmin removes an admin account. Owner only.
func (s *Staking) RemoveAdmin(env *xenv.Environment, admin stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		return s.storage.admins.Set(admin, false)
	})
}

// AddPauser registers a pauser account. Owner only.
func (s *Staking) AddPauser(env *xenv.Environment, pauser stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		return s.storage.pausers.Set(pauser, true)
	})
}

// RemovePauser removes a pauser account. Owner only.
func (s *Staking) RemovePauser(env *xenv.Environment, pauser stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		return s.storage.pausers.Set(pauser, false)
	})
}

// TransferOwnership hands the ledger to a new owner. Owner only.
func (s *Staking) TransferOwnership(env *xenv.Environment, newOwner stasis.Address) error {
	return s.mutate(env, func() error {
		if err := s.checkOwner(env.Caller()); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return ErrZeroAddress
		}
		s.storage.SetOwner(newOwner)
		return nil
	})
}

// IsAdmin reports whether the account may call admin entry points.
func (s *Staking) IsAdmin(account stasis.Address) (bool, error) {
	owner, err := s.storage.Owner()
	if err != nil {
		return false, err
	}
	if account == owner {
		return true, nil
	}
	return s.storage.admins.Get(account)
}
