// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/stasisprotocol/stasis/stasis"
)

// Event is a ledger occurrence published to external observers. Events are
// emitted only after the operation that produced them fully succeeds.
type Event interface {
	Name() string
}

// Sink receives events of committed operations, tagged with the block the
// operation executed in. A nil sink discards them.
type Sink interface {
	Emit(blockNumber uint32, event Event)
}

type TokensStaked struct {
	Staker      stasis.Address `json:"staker"`
	Amount      *big.Int       `json:"amount"`
	LockedUntil uint64         `json:"lockedUntil"`
	TotalStaked *big.Int       `json:"totalStaked"`
}

func (TokensStaked) Name() string { return "TokensStaked" }

type DelegateChanged struct {
	Delegator    stasis.Address `json:"delegator"`
	LockedUntil  uint64         `json:"lockedUntil"`
	FromDelegate stasis.Address `json:"fromDelegate"`
	ToDelegate   stasis.Address `json:"toDelegate"`
}

func (DelegateChanged) Name() string { return "DelegateChanged" }

type ExtendedStakingDuration struct {
	Staker       stasis.Address `json:"staker"`
	PreviousDate uint64         `json:"previousDate"`
	NewDate      uint64         `json:"newDate"`
	AmountStaked *big.Int       `json:"amountStaked"`
}

func (ExtendedStakingDuration) Name() string { return "ExtendedStakingDuration" }

type StakingWithdrawn struct {
	Staker stasis.Address `json:"staker"`
	Amount *big.Int       `json:"amount"`
}

func (StakingWithdrawn) Name() string { return "StakingWithdrawn" }

type StakingPaused struct {
	SetPaused bool `json:"setPaused"`
}

func (StakingPaused) Name() string { return "StakingPaused" }

type StakingFrozen struct {
	SetFrozen bool `json:"setFrozen"`
}

func (StakingFrozen) Name() string { return "StakingFrozen" }

type TeamVestingPartiallyCancelled struct {
	Caller            stasis.Address `json:"caller"`
	Receiver          stasis.Address `json:"receiver"`
	LastProcessedDate uint64         `json:"lastProcessedDate"`
}

func (TeamVestingPartiallyCancelled) Name() string { return "TeamVestingPartiallyCancelled" }

type TeamVestingCancelled struct {
	Caller   stasis.Address `json:"caller"`
	Receiver stasis.Address `json:"receiver"`
}

func (TeamVestingCancelled) Name() string { return "TeamVestingCancelled" }

// Recorder is a Sink that keeps everything it receives, for tests and for
// buffering before indexing.
type Recorder struct {
	Records []Record
}

type Record struct {
	BlockNumber uint32
	Event       Event
}

func (r *Recorder) Emit(blockNumber uint32, event Event) {
	r.Records = append(r.Records, Record{BlockNumber: blockNumber, Event: event})
}

// Named returns the recorded events carrying the given name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, rec := range r.Records {
		if rec.Event.Name() == name {
			out = append(out, rec.Event)
		}
	}
	return out
}
