// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket prefixes all keys passing through it, giving records of one kind
// their own namespace within a shared store.
type Bucket string

// ProxyGetter wraps src so reads see only this bucket's keys.
func (b Bucket) ProxyGetter(src Getter) Getter {
	return &bucketGetter{prefix: string(b), src: src}
}

// ProxyBatch wraps a batch so its writes land inside this bucket.
func (b Bucket) ProxyBatch(src Batch) Batch {
	return &bucketBatch{prefix: string(b), src: src}
}

type bucketGetter struct {
	prefix string
	src    Getter
}

func (g *bucketGetter) makeKey(key []byte) []byte {
	return append([]byte(g.prefix), key...)
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(g.makeKey(key))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(g.makeKey(key))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

func (g *bucketGetter) NewIterator(r Range) Iterator {
	start := g.makeKey(r.Start)
	var limit []byte
	if len(r.Limit) > 0 {
		limit = g.makeKey(r.Limit)
	} else {
		limit = prefixSuccessor([]byte(g.prefix))
	}
	return &bucketIterator{
		Iterator:  g.src.NewIterator(Range{Start: start, Limit: limit}),
		prefixLen: len(g.prefix),
	}
}

// prefixSuccessor returns the smallest key greater than every key carrying
// the prefix, nil when no such key exists (all 0xff).
func prefixSuccessor(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xff {
			limit := make([]byte, i+1)
			copy(limit, prefix)
			limit[i]++
			return limit
		}
	}
	return nil
}

type bucketIterator struct {
	Iterator
	prefixLen int
}

func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[i.prefixLen:]
}

type bucketBatch struct {
	prefix string
	src    Batch
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.src.Put(append([]byte(b.prefix), key...), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.src.Delete(append([]byte(b.prefix), key...))
}

func (b *bucketBatch) NewBatch() Batch {
	return &bucketBatch{prefix: b.prefix, src: b.src.NewBatch()}
}

func (b *bucketBatch) Len() int { return b.src.Len() }

func (b *bucketBatch) Write() error { return b.src.Write() }
