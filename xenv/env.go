// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/state"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32 // the block in which the current transaction executes
	Time   uint64 // the block's timestamp, unix seconds
}

// TransactionContext transaction context.
type TransactionContext struct {
	Origin stasis.Address // the account that signed the current transaction
}

// Environment is the execution context of one ledger transaction: the world
// state plus where-and-when the mutation happens. Every mutating ledger entry
// point receives one; reads that need "current block" semantics do too.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
}

// New create a new env.
func New(state *state.State, blockCtx *BlockContext, txCtx *TransactionContext) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) Caller() stasis.Address                  { return env.txCtx.Origin }
func (env *Environment) BlockNumber() uint32                     { return env.blockCtx.Number }
func (env *Environment) BlockTime() uint64                       { return env.blockCtx.Time }
