// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lockdate buckets arbitrary timestamps into the coarse lock dates
// all stakes are attributed to.
package lockdate

import (
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

// ErrPeriodTooShort is returned when a requested timestamp resolves to less
// than one full bucket after kickoff.
var ErrPeriodTooShort = reverts.New("period too short")

// Schedule derives lock dates relative to a fixed kickoff timestamp.
type Schedule struct {
	kickoff uint64
}

func NewSchedule(kickoff uint64) Schedule {
	return Schedule{kickoff: kickoff}
}

func (s Schedule) Kickoff() uint64 {
	return s.kickoff
}

// MinDate is the earliest valid lock date, one full bucket after kickoff.
func (s Schedule) MinDate() uint64 {
	return s.kickoff + stasis.BucketInterval
}

// MaxDate is the latest valid lock date.
func (s Schedule) MaxDate() uint64 {
	return s.kickoff + stasis.MaxDuration
}

// LockDate maps a timestamp to its lock date: the largest bucket boundary not
// after ts. Timestamps beyond the duration ceiling are silently clamped down
// to MaxDate so an "extend as far as possible" request is idempotent; a
// timestamp short of the first boundary fails with ErrPeriodTooShort.
func (s Schedule) LockDate(ts uint64) (uint64, error) {
	if ts < s.MinDate() {
		return 0, ErrPeriodTooShort
	}
	date := s.kickoff + (ts-s.kickoff)/stasis.BucketInterval*stasis.BucketInterval
	if max := s.MaxDate(); date > max {
		date = max
	}
	return date, nil
}

// IsLockDate reports whether ts is a valid lock date: a whole number of
// buckets after kickoff, within [MinDate, MaxDate].
func (s Schedule) IsLockDate(ts uint64) bool {
	if ts < s.MinDate() || ts > s.MaxDate() {
		return false
	}
	return (ts-s.kickoff)%stasis.BucketInterval == 0
}

// Remaining returns the lock time left at the given moment, zero once the
// lock date has elapsed.
func (s Schedule) Remaining(lockDate, now uint64) uint64 {
	if now >= lockDate {
		return 0
	}
	return lockDate - now
}
