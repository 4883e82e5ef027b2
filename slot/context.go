// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"github.com/stasisprotocol/stasis/stasis"
	"github.com/stasisprotocol/stasis/state"
)

// Meter observes storage slot traffic. The ledger wires it to metrics;
// a nil meter costs nothing.
type Meter interface {
	OnRead(slots uint64)
	OnWrite(slots uint64)
}

// Context scopes slot accessors to one ledger address within a state.
type Context struct {
	address stasis.Address
	state   *state.State
	meter   Meter
}

func NewContext(address stasis.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// WithMeter returns a copy of the context that reports slot traffic to m.
func (c *Context) WithMeter(m Meter) *Context {
	return &Context{
		address: c.address,
		state:   c.state,
		meter:   m,
	}
}

func (c *Context) Address() stasis.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) meterRead(slots uint64) {
	if c.meter != nil {
		c.meter.OnRead(slots)
	}
}

func (c *Context) meterWrite(slots uint64) {
	if c.meter != nil {
		c.meter.OnWrite(slots)
	}
}
