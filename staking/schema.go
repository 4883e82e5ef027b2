// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/stasisprotocol/stasis/xenv"
)

// A migration rewrites ledger storage from schema version v to v+1. It
// must be a pure function of the storage it receives.
type migration func(s *storage) error

// migrations[i] upgrades from version i+1 to i+2. Empty while the
// schema is at its first version.
var migrations []migration

// UpgradeSchema migrates ledger storage to the current schema version.
// A no-op when the stored version is already current. Like any other
// mutation it is atomic: a failing migration rolls everything back.
func (s *Staking) UpgradeSchema(env *xenv.Environment) (err error) {
	defer func() { countMutation("upgradeSchema", err) }()
	return s.mutate(env, func() error {
		version, err := s.storage.SchemaVersion()
		if err != nil {
			return err
		}
		if version == 0 {
			return ErrNotInitialized
		}
		for version < schemaVersion {
			if err := migrations[version-1](s.storage); err != nil {
				return err
			}
			version++
			s.storage.SetSchemaVersion(version)
			logger.Info("schema upgraded", "version", version)
		}
		return nil
	})
}
