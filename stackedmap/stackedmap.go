// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap is a map with save/restore semantics. Values put after a Push
// can be discarded wholesale by popping back to the matching revision, which
// is how a failed ledger operation unwinds every write it made.
type StackedMap struct {
	src     MapGetter
	kvs     map[any]any
	journal []journalEntry
	depths  []int
}

type journalEntry struct {
	key     any
	value   any
	prev    any
	hadPrev bool
}

// MapGetter defines the getter of the underlying data source.
type MapGetter func(key any) (value any, exist bool, err error)

// New creates an instance of StackedMap.
// src acts as the source of data.
func New(src MapGetter) *StackedMap {
	return &StackedMap{
		src: src,
		kvs: make(map[any]any),
		// the base revision, so Put works without an explicit Push
		depths: []int{0},
	}
}

// Depth returns the depth of the revision stack.
func (sm *StackedMap) Depth() int {
	return len(sm.depths)
}

// Push records a new revision and returns its handle for PopTo.
func (sm *StackedMap) Push() int {
	sm.depths = append(sm.depths, len(sm.journal))
	return len(sm.depths) - 1
}

// Pop reverts all Put operations since the last Push.
func (sm *StackedMap) Pop() {
	sm.PopTo(len(sm.depths) - 1)
}

// PopTo reverts all Put operations made at or after the revision returned by
// Push. Popping to revision 0 discards every write.
func (sm *StackedMap) PopTo(depth int) {
	if depth < 0 || depth >= len(sm.depths) {
		return
	}
	mark := sm.depths[depth]
	// undo journal entries newest first
	for i := len(sm.journal) - 1; i >= mark; i-- {
		j := sm.journal[i]
		if j.hadPrev {
			sm.kvs[j.key] = j.prev
		} else {
			delete(sm.kvs, j.key)
		}
	}
	sm.journal = sm.journal[:mark]
	if depth == 0 {
		sm.depths = sm.depths[:1]
	} else {
		sm.depths = sm.depths[:depth]
	}
}

// Get gets the value for the given key. It returns the source value when the
// key was never written in this map.
func (sm *StackedMap) Get(key any) (any, bool, error) {
	if v, ok := sm.kvs[key]; ok {
		return v, true, nil
	}
	return sm.src(key)
}

// Put sets the value for the given key at the top revision.
func (sm *StackedMap) Put(key, value any) {
	prev, hadPrev := sm.kvs[key]
	sm.kvs[key] = value
	sm.journal = append(sm.journal, journalEntry{
		key:     key,
		value:   value,
		prev:    prev,
		hadPrev: hadPrev,
	})
}

// Journal traverses all surviving writes in insertion order. Later writes to
// the same key appear later, so a consumer building a change set ends up with
// the final value per key. The traversal aborts when cb returns false.
func (sm *StackedMap) Journal(cb func(key, value any) bool) {
	for _, j := range sm.journal {
		if !cb(j.key, j.value) {
			break
		}
	}
}
