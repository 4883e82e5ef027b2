// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health reports whether the ledger node is able to serve reads.
package health

import (
	"sync"
	"time"
)

type Status struct {
	Healthy       bool       `json:"healthy"`
	BestBlock     uint32     `json:"bestBlock"`
	LastEventSeen *time.Time `json:"lastEventSeen"`
}

// Health tracks the latest committed block the node has observed.
type Health struct {
	lock      sync.RWMutex
	bestBlock uint32
	lastSeen  time.Time
}

// NewBestBlock records that block number has been committed.
func (h *Health) NewBestBlock(number uint32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if number > h.bestBlock {
		h.bestBlock = number
	}
	h.lastSeen = time.Now()
}

// Status returns the current node status. The node counts as healthy once it
// has observed at least one committed block.
func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	var lastSeen *time.Time
	if !h.lastSeen.IsZero() {
		t := h.lastSeen
		lastSeen = &t
	}
	return &Status{
		Healthy:       lastSeen != nil,
		BestBlock:     h.bestBlock,
		LastEventSeen: lastSeen,
	}
}
