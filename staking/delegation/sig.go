// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/stasisprotocol/stasis/slot"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	ErrInvalidSignature = reverts.New("invalid signature")
	ErrInvalidNonce     = reverts.New("invalid nonce")
	ErrSignatureExpired = reverts.New("signature expired")
)

var (
	domainTypeHash     = keccak([]byte("EIP712Domain(string name,address verifyingContract)"))
	delegationTypeHash = keccak([]byte("Delegation(address delegatee,uint256 lockDate,uint256 nonce,uint256 expiry)"))
	domainName         = keccak([]byte("Stasis Staking"))
)

func keccak(data ...[]byte) stasis.Bytes32 {
	return stasis.BytesToBytes32(crypto.Keccak256(data...))
}

func uint64Word(v uint64) []byte {
	var w [32]byte
	binary.BigEndian.PutUint64(w[24:], v)
	return w[:]
}

func addressWord(a stasis.Address) []byte {
	var w [32]byte
	copy(w[12:], a.Bytes())
	return w[:]
}

// SigDigest computes the digest an off-chain delegation authorization
// signs: an EIP-712 style hash binding delegatee, lock date, nonce and
// expiry to this ledger instance.
func SigDigest(ledger, delegatee stasis.Address, lockDate, nonce, expiry uint64) stasis.Bytes32 {
	domain := keccak(domainTypeHash.Bytes(), domainName.Bytes(), addressWord(ledger))
	structHash := keccak(
		delegationTypeHash.Bytes(),
		addressWord(delegatee),
		uint64Word(lockDate),
		uint64Word(nonce),
		uint64Word(expiry),
	)
	return keccak([]byte{0x19, 0x01}, domain.Bytes(), structHash.Bytes())
}

// Nonces tracks the per-account signature nonce. One nonce per account,
// shared across all lock dates, consumed in strict order.
type Nonces struct {
	m *slot.Mapping[stasis.Address, uint64]
}

func NewNonces(context *slot.Context, pos stasis.Bytes32) *Nonces {
	return &Nonces{m: slot.NewMapping[stasis.Address, uint64](context, pos)}
}

func (n *Nonces) Get(account stasis.Address) (uint64, error) {
	return n.m.Get(account)
}

// RecoverSigner verifies the 65 byte [R || S || V] signature against the
// digest, checks expiry against now, then checks and consumes the
// signer's nonce. Returns the signer on success.
func (m *Manager) RecoverSigner(
	nonces *Nonces,
	ledger, delegatee stasis.Address,
	lockDate, nonce, expiry, now uint64,
	signature []byte,
) (stasis.Address, error) {
	if delegatee.IsZero() {
		return stasis.Address{}, ErrZeroDelegatee
	}
	if now > expiry {
		return stasis.Address{}, ErrSignatureExpired
	}
	if len(signature) != 65 {
		return stasis.Address{}, ErrInvalidSignature
	}

	digest := SigDigest(ledger, delegatee, lockDate, nonce, expiry)
	pub, err := crypto.Ecrecover(digest.Bytes(), signature)
	if err != nil {
		return stasis.Address{}, ErrInvalidSignature
	}
	signer := stasis.PubkeyToAddress(pub)
	if signer.IsZero() {
		return stasis.Address{}, ErrInvalidSignature
	}

	current, err := nonces.Get(signer)
	if err != nil {
		return stasis.Address{}, err
	}
	if nonce != current {
		return stasis.Address{}, ErrInvalidNonce
	}
	if err := nonces.m.Set(signer, current+1); err != nil {
		return stasis.Address{}, err
	}
	return signer, nil
}
