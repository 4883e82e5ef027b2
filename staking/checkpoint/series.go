// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package checkpoint implements append-only, block-indexed value series.
// Every tracked quantity of the ledger (per-user stake, per-delegate stake,
// totals, vesting aggregates) is one series keyed by account and/or lock
// date, so "value as of block N" is a binary search away.
package checkpoint

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	// ErrFutureBlock is returned when a prior-value query names a block that
	// has not been committed yet. Future state is indeterminate; refusing is
	// safer than answering with something that merely looks valid.
	ErrFutureBlock = reverts.New("block not yet determined")

	// ErrNotEnoughStake is returned when a decrement exceeds the current value.
	ErrNotEnoughStake = reverts.New("not enough stake")
)

// Checkpoint is one entry of a series: the tracked value as of FromBlock.
type Checkpoint struct {
	FromBlock uint32
	Stake     *big.Int
}

// Series is one family of checkpoint lists sharing a base storage position.
// Within a key's list, FromBlock strictly increases; a second write in the
// same block amends the last entry instead of appending.
type Series struct {
	context *slot.Context
	basePos stasis.Bytes32
}

func New(context *slot.Context, basePos stasis.Bytes32) *Series {
	return &Series{context: context, basePos: basePos}
}

// DateKey derives the series key for a plain lock date.
func DateKey(lockDate uint64) stasis.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], lockDate)
	return stasis.BytesToBytes32(b[:])
}

// AccountDateKey derives the series key for an (account, lock date) pair.
func AccountDateKey(account stasis.Address, lockDate uint64) stasis.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], lockDate)
	return stasis.Blake2b(account.Bytes(), b[:])
}

func (s *Series) countPos(key stasis.Bytes32) stasis.Bytes32 {
	return stasis.Blake2b([]byte("n"), key.Bytes(), s.basePos.Bytes())
}

func (s *Series) entryPos(key stasis.Bytes32, index uint32) stasis.Bytes32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], index)
	return stasis.Blake2b([]byte("c"), key.Bytes(), b[:], s.basePos.Bytes())
}

// Count returns the number of checkpoints recorded for the key.
func (s *Series) Count(key stasis.Bytes32) (uint32, error) {
	return slot.NewUint32(s.context, s.countPos(key)).Get()
}

func (s *Series) entry(key stasis.Bytes32, index uint32) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.context.State().DecodeStorage(s.context.Address(), s.entryPos(key, index), func(raw []byte) error {
		if len(raw) == 0 {
			cp = Checkpoint{Stake: &big.Int{}}
			return nil
		}
		return rlp.DecodeBytes(raw, &cp)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get checkpoint")
	}
	return &cp, nil
}

func (s *Series) setEntry(key stasis.Bytes32, index uint32, cp *Checkpoint) error {
	err := s.context.State().EncodeStorage(s.context.Address(), s.entryPos(key, index), func() ([]byte, error) {
		return rlp.EncodeToBytes(cp)
	})
	return errors.Wrap(err, "failed to set checkpoint")
}

// Latest returns the current value of the series, zero when empty.
func (s *Series) Latest(key stasis.Bytes32) (*big.Int, error) {
	n, err := s.Count(key)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return new(big.Int), nil
	}
	cp, err := s.entry(key, n-1)
	if err != nil {
		return nil, err
	}
	return cp.Stake, nil
}

// Append records value as of the given block. At most one checkpoint exists
// per (key, block): writing again in the same block amends the last entry in
// place. Blocks must not go backwards.
func (s *Series) Append(key stasis.Bytes32, block uint32, value *big.Int) error {
	n, err := s.Count(key)
	if err != nil {
		return err
	}
	if n > 0 {
		last, err := s.entry(key, n-1)
		if err != nil {
			return err
		}
		if last.FromBlock > block {
			return errors.New("checkpoint block out of order")
		}
		if last.FromBlock == block {
			return s.setEntry(key, n-1, &Checkpoint{FromBlock: block, Stake: value})
		}
	}
	if err := s.setEntry(key, n, &Checkpoint{FromBlock: block, Stake: value}); err != nil {
		return err
	}
	slot.NewUint32(s.context, s.countPos(key)).Set(n + 1)
	return nil
}

// Increase adds amount to the current value as of the given block.
func (s *Series) Increase(key stasis.Bytes32, block uint32, amount *big.Int) error {
	cur, err := s.Latest(key)
	if err != nil {
		return err
	}
	return s.Append(key, block, new(big.Int).Add(cur, amount))
}

// Decrease subtracts amount from the current value as of the given block,
// failing with ErrNotEnoughStake when the value is too small.
func (s *Series) Decrease(key stasis.Bytes32, block uint32, amount *big.Int) error {
	cur, err := s.Latest(key)
	if err != nil {
		return err
	}
	if cur.Cmp(amount) < 0 {
		return ErrNotEnoughStake
	}
	return s.Append(key, block, new(big.Int).Sub(cur, amount))
}

// Prior returns the value of the latest checkpoint not after the given
// block, zero when no such checkpoint exists. Querying at or beyond the
// current block fails with ErrFutureBlock.
func (s *Series) Prior(key stasis.Bytes32, block, currentBlock uint32) (*big.Int, error) {
	if block >= currentBlock {
		return nil, ErrFutureBlock
	}

	n, err := s.Count(key)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return new(big.Int), nil
	}

	// common case: query at or after the most recent checkpoint
	last, err := s.entry(key, n-1)
	if err != nil {
		return nil, err
	}
	if last.FromBlock <= block {
		return last.Stake, nil
	}

	// nothing recorded yet at the queried block
	first, err := s.entry(key, 0)
	if err != nil {
		return nil, err
	}
	if first.FromBlock > block {
		return new(big.Int), nil
	}

	// invariant: entry(lower).FromBlock <= block < entry(upper).FromBlock
	lower, upper := uint32(0), n-1
	for upper > lower {
		center := upper - (upper-lower)/2 // ceil, avoiding overflow
		cp, err := s.entry(key, center)
		if err != nil {
			return nil, err
		}
		switch {
		case cp.FromBlock == block:
			return cp.Stake, nil
		case cp.FromBlock < block:
			lower = center
		default:
			upper = center - 1
		}
	}
	cp, err := s.entry(key, lower)
	if err != nil {
		return nil, err
	}
	return cp.Stake, nil
}
