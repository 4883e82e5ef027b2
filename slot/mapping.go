// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stasisprotocol/stasis/stasis"
)

// Key is anything that can key a Mapping.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction over one base position, similar
// to a mapping in contract storage. Values are RLP encoded; the slot of an
// entry is derived by hashing its key with the base position.
type Mapping[K Key, V any] struct {
	context *Context
	basePos stasis.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos stasis.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) stasis.Bytes32 {
	return stasis.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get loads the value for the given key. A missing entry decodes to the
// zero value (pointer types get a fresh zero-valued pointee).
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		m.context.meterRead((uint64(len(raw)) + 31) / 32)
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value for the given key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		raw, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		m.context.meterWrite((uint64(len(raw)) + 31) / 32)
		return raw, nil
	})
}
