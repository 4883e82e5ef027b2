// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stasisprotocol/stasis/stasis"
)

// Config is the ledger genesis configuration. It is consulted only when the
// ledger has not been initialized yet; afterwards the on-disk state wins.
type Config struct {
	LedgerAddress stasis.Address
	Owner         stasis.Address
	FeeCollector  stasis.Address
	Kickoff       uint64
}

type rawConfig struct {
	LedgerAddress string `yaml:"ledgerAddress"`
	Owner         string `yaml:"owner"`
	FeeCollector  string `yaml:"feeCollector"`
	Kickoff       uint64 `yaml:"kickoff"`
}

func (r *rawConfig) convert() (*Config, error) {
	ledgerAddr, err := stasis.ParseAddress(r.LedgerAddress)
	if err != nil {
		return nil, errors.WithMessage(err, "ledgerAddress")
	}
	owner, err := stasis.ParseAddress(r.Owner)
	if err != nil {
		return nil, errors.WithMessage(err, "owner")
	}
	collector, err := stasis.ParseAddress(r.FeeCollector)
	if err != nil {
		return nil, errors.WithMessage(err, "feeCollector")
	}
	if r.Kickoff == 0 {
		return nil, errors.New("kickoff must be set")
	}
	return &Config{
		LedgerAddress: *ledgerAddr,
		Owner:         *owner,
		FeeCollector:  *collector,
		Kickoff:       r.Kickoff,
	}, nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	cfg, err := raw.convert()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
