// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stasis

import "math/big"

// Constants of the staking protocol.
const (
	// BucketInterval is the width of a lock date bucket. All stakes are
	// attributed to a lock date that is a whole number of buckets after
	// the kickoff timestamp.
	BucketInterval uint64 = 14 * 24 * 3600 // two weeks, in seconds

	// MaxDurationBuckets bounds how many buckets ahead of kickoff a lock
	// date may be.
	MaxDurationBuckets uint64 = 78

	// MaxDuration is the longest possible distance between a lock date and
	// the kickoff timestamp. Requests beyond it are clamped, not rejected.
	MaxDuration uint64 = MaxDurationBuckets * BucketInterval

	// MaxVotingWeight and WeightFactor parameterize the voting weight curve.
	// Weight grows from 1x at zero remaining time up to
	// (MaxVotingWeight + 1)x at MaxDuration remaining.
	MaxVotingWeight uint64 = 9
	WeightFactor    uint64 = 10

	// Bounds for the early-withdrawal penalty multiplier.
	MinWeightScaling     uint64 = 1
	MaxWeightScaling     uint64 = 9
	DefaultWeightScaling uint64 = 3

	// DefaultVestingWithdrawIterations caps lock dates processed per
	// vesting cancellation call.
	DefaultVestingWithdrawIterations uint32 = 10
)

// MaxStakeAmount is the largest stake balance representable for one account,
// summed across all lock dates. Increments past it fail rather than wrap.
var MaxStakeAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))
