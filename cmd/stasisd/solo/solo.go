// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo wires an in-memory ledger pre-loaded with deterministic
// dev accounts and a few stakes, for API development against live data.
package solo

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/eventdb"
	"github.com/stasisprotocol/stasis/log"
	"github.com/stasisprotocol/stasis/lvldb"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/state"
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/xenv"
)

var logger = log.WithContext("pkg", "solo")

var (
	ledgerAddress = stasis.MustParseAddress("0x0000000000000000000073746173697331303031")

	// deterministic dev accounts
	devAccounts = []stasis.Address{
		stasis.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"),
		stasis.MustParseAddress("0x435933c8064b4ae76be665428e0307ef2ccfbd68"),
		stasis.MustParseAddress("0x0f872421dc479f3c11edd89512731814d0598db5"),
		stasis.MustParseAddress("0xf370940abdbd2583bc80bfc19d19bc216c88ccf0"),
	}

	devBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
)

const kickoff = uint64(1_700_000_000)

// Solo is the in-memory dev ledger.
type Solo struct {
	ledger  *staking.Staking
	st      *state.State
	eventDB *eventdb.EventDB
	best    uint32
}

func New() (*Solo, error) {
	store, err := lvldb.NewMem()
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory store")
	}
	eventDB, err := eventdb.NewMem()
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory event store")
	}

	st := state.New(store)
	sol := &Solo{
		ledger:  staking.New(ledgerAddress, st, eventDB.Sink()),
		st:      st,
		eventDB: eventDB,
	}
	if err := sol.setup(); err != nil {
		return nil, err
	}
	return sol, nil
}

func (s *Solo) Ledger() *staking.Staking  { return s.ledger }
func (s *Solo) EventDB() *eventdb.EventDB { return s.eventDB }
func (s *Solo) Best() uint32              { return s.best }

func (s *Solo) Close() {
	s.eventDB.Close()
}

// setup initializes the ledger and seeds one stake per dev account, each one
// bucket further out, so every read endpoint has data to return.
func (s *Solo) setup() error {
	owner := devAccounts[0]
	env := func(caller stasis.Address, block uint32) *xenv.Environment {
		return xenv.New(s.st,
			&xenv.BlockContext{Number: block, Time: kickoff + uint64(block)*10},
			&xenv.TransactionContext{Origin: caller})
	}

	if err := s.ledger.Initialize(env(owner, 0), owner, owner, kickoff); err != nil {
		return errors.Wrap(err, "initialize")
	}

	for i, acc := range devAccounts {
		if err := s.st.SetBalance(acc, devBalance); err != nil {
			return err
		}
		block := uint32(i + 1)
		until := kickoff + uint64(i+2)*stasis.BucketInterval
		amount := new(big.Int).Mul(big.NewInt(int64(1000*(i+1))), big.NewInt(1e18))
		if err := s.ledger.Stake(env(acc, block), amount, until, stasis.Address{}, stasis.Address{}); err != nil {
			return errors.Wrapf(err, "seed stake for %v", acc)
		}
		s.best = block
	}

	logger.Info("solo ledger seeded", "accounts", len(devAccounts), "bestBlock", s.best)
	return nil
}

// PrintAccounts dumps the dev accounts to stdout.
func (s *Solo) PrintAccounts() {
	fmt.Println("Dev accounts (each holds tokens and one seeded stake):")
	for i, acc := range devAccounts {
		fmt.Printf("    #%d %v\n", i, acc)
	}
}
