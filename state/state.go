// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stasisprotocol/stasis/kv"
	"github.com/stasisprotocol/stasis/stackedmap"
	"github.com/stasisprotocol/stasis/stasis"
)

// Buckets of persisted records.
const (
	accountBucket = kv.Bucket("a")
	storageBucket = kv.Bucket("s")
	codeBucket    = kv.Bucket("c")
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Account is the persisted form of an account.
type Account struct {
	Balance  *big.Int
	CodeHash []byte
}

// IsEmpty returns whether the account can be treated as missing.
func (a *Account) IsEmpty() bool {
	return (a.Balance == nil || a.Balance.Sign() == 0) && len(a.CodeHash) == 0
}

func emptyAccount() *Account {
	return &Account{Balance: &big.Int{}}
}

type (
	accountKey stasis.Address
	codeKey    stasis.Address
	storageKey struct {
		addr stasis.Address
		key  stasis.Bytes32
	}
)

// State manages the world state: account balances, contract code hashes and
// raw keyed storage. All reads pass through a stacked map so any range of
// writes can be reverted to a checkpoint, and Commit flushes the surviving
// writes to the backing store.
type State struct {
	store    kv.GetPutter
	accounts kv.Getter
	storages kv.Getter
	codes    kv.Getter
	sm       *stackedmap.StackedMap
}

// New create a state object backed by the given store.
func New(store kv.GetPutter) *State {
	state := State{
		store:    store,
		accounts: accountBucket.ProxyGetter(store),
		storages: storageBucket.ProxyGetter(store),
		codes:    codeBucket.ProxyGetter(store),
	}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.storeGetter(key)
	})
	return &state
}

// storeGetter implements stackedmap.MapGetter over the backing store.
func (s *State) storeGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case accountKey:
		data, err := storeGet(s.accounts, k[:])
		if err != nil {
			return nil, false, err
		}
		if len(data) == 0 {
			return emptyAccount(), true, nil
		}
		var acc Account
		if err := rlp.DecodeBytes(data, &acc); err != nil {
			return nil, false, err
		}
		return &acc, true, nil
	case codeKey:
		data, err := storeGet(s.codes, k[:])
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	case storageKey:
		data, err := storeGet(s.storages, storageStoreKey(k.addr, k.key))
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func storeGet(getter kv.Getter, key []byte) ([]byte, error) {
	data, err := getter.Get(key)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func storageStoreKey(addr stasis.Address, key stasis.Bytes32) []byte {
	k := make([]byte, 0, stasis.AddressLength+32)
	k = append(k, addr[:]...)
	return append(k, key[:]...)
}

func (s *State) getAccount(addr stasis.Address) (*Account, error) {
	v, _, err := s.sm.Get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

func (s *State) getAccountCopy(addr stasis.Address) (Account, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return Account{}, err
	}
	cpy := *acc
	if acc.Balance != nil {
		cpy.Balance = new(big.Int).Set(acc.Balance)
	}
	return cpy, nil
}

func (s *State) updateAccount(addr stasis.Address, acc *Account) {
	s.sm.Put(accountKey(addr), acc)
}

// GetBalance returns token balance for the given address.
func (s *State) GetBalance(addr stasis.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	if acc.Balance == nil {
		return new(big.Int), nil
	}
	return acc.Balance, nil
}

// SetBalance set token balance for the given address.
func (s *State) SetBalance(addr stasis.Address, balance *big.Int) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Balance = balance
	s.updateAccount(addr, &cpy)
	return nil
}

// GetCode returns code for the given address.
func (s *State) GetCode(addr stasis.Address) ([]byte, error) {
	v, _, err := s.sm.Get(codeKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// GetCodeHash returns code hash for the given address.
func (s *State) GetCodeHash(addr stasis.Address) (stasis.Bytes32, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return stasis.Bytes32{}, &Error{err}
	}
	return stasis.BytesToBytes32(acc.CodeHash), nil
}

// SetCode set code for the given address.
func (s *State) SetCode(addr stasis.Address, code []byte) error {
	var codeHash []byte
	if len(code) > 0 {
		s.sm.Put(codeKey(addr), code)
		codeHash = crypto.Keccak256(code)
	} else {
		s.sm.Put(codeKey(addr), []byte(nil))
	}
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.CodeHash = codeHash
	s.updateAccount(addr, &cpy)
	return nil
}

// Exists returns whether an account exists at the given address.
// See Account.IsEmpty()
func (s *State) Exists(addr stasis.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return !acc.IsEmpty(), nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr stasis.Address, key stasis.Bytes32) (stasis.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return stasis.Bytes32{}, &Error{err}
	}
	if len(raw) == 0 {
		return stasis.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return stasis.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return stasis.Blake2b(raw), nil
	}
	return stasis.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr stasis.Address, key, value stasis.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr stasis.Address, key stasis.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr stasis.Address, key stasis.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr stasis.Address, key stasis.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr stasis.Address, key stasis.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return &Error{err}
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Commit writes all surviving changes to the backing store in one batch.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	accounts := accountBucket.ProxyBatch(batch)
	storages := storageBucket.ProxyBatch(batch)
	codes := codeBucket.ProxyBatch(batch)

	var jerr error
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case accountKey:
			acc := v.(*Account)
			if acc.IsEmpty() {
				jerr = accounts.Delete(key[:])
			} else {
				var data []byte
				if data, jerr = rlp.EncodeToBytes(acc); jerr == nil {
					jerr = accounts.Put(key[:], data)
				}
			}
		case codeKey:
			code := v.([]byte)
			if len(code) > 0 {
				jerr = codes.Put(key[:], code)
			} else {
				jerr = codes.Delete(key[:])
			}
		case storageKey:
			raw := v.(rlp.RawValue)
			if len(raw) > 0 {
				jerr = storages.Put(storageStoreKey(key.addr, key.key), raw)
			} else {
				jerr = storages.Delete(storageStoreKey(key.addr, key.key))
			}
		}
		return jerr == nil
	})
	if jerr != nil {
		return &Error{jerr}
	}
	return batch.Write()
}
