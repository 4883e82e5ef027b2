// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package weight implements the voting-weight curve: a quadratic function of
// remaining lock time that rewards longer locks with more voting power, and
// that also prices the early-withdrawal penalty.
package weight

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/stasisprotocol/stasis/stasis"
)

// Curve returns the scaled weight for the given remaining lock time:
//
//	x = maxDuration - remaining
//	curve = floor(maxVotingWeight * weightFactor * (maxDuration² - x²) / maxDuration²) + weightFactor
//
// The result grows from weightFactor at zero remaining time up to
// (maxVotingWeight+1)*weightFactor at full duration. Remaining times beyond
// the maximum duration are clamped.
func Curve(remaining uint64) uint64 {
	if remaining > stasis.MaxDuration {
		remaining = stasis.MaxDuration
	}
	x := stasis.MaxDuration - remaining
	maxD2 := stasis.MaxDuration * stasis.MaxDuration
	// maxDuration fits in 27 bits so all terms below fit in uint64
	return stasis.MaxVotingWeight*stasis.WeightFactor*(maxD2-x*x)/maxD2 + stasis.WeightFactor
}

// Weighted converts a staked amount and remaining lock time into voting
// power: floor(amount * curve / weightFactor). Weighted(amount, 0) == amount
// and Weighted(0, r) == 0.
func Weighted(amount *big.Int, remaining uint64) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return new(big.Int)
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		// amounts are capped at 2^96-1 well before this point
		v = uint256.NewInt(0).SetAllOne()
	}
	v.Mul(v, uint256.NewInt(Curve(remaining)))
	v.Div(v, uint256.NewInt(stasis.WeightFactor))
	return v.ToBig()
}

// Penalty returns the amount forfeited when withdrawing before the lock date
// elapses: floor(amount * curve * scaling / (100 * weightFactor)). scaling is
// the global weight-scaling knob in [1, 9]; it tunes how punitive an early
// exit is without changing voting power.
func Penalty(amount *big.Int, remaining uint64, scaling uint64) *big.Int {
	if amount == nil || amount.Sign() == 0 || remaining == 0 {
		return new(big.Int)
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		v = uint256.NewInt(0).SetAllOne()
	}
	v.Mul(v, uint256.NewInt(Curve(remaining)))
	v.Mul(v, uint256.NewInt(scaling))
	v.Div(v, uint256.NewInt(100*stasis.WeightFactor))
	return v.ToBig()
}
