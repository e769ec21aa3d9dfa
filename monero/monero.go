/*
Package monero implements the accordant capability set for Monero: ed25519
spend/view keypairs, piconero amounts, and the deterministic derivation of
the private spend key and the shared private view key from a wallet seed.
*/
package monero

import (
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/crypto"
	"github.com/farcaster-project/farcaster-go/role"
)

// Domain separation prefixes for key derivation from a wallet seed.
const (
	spendKeyDomain = "farcaster_priv_spend"
	viewKeyDomain  = "farcaster_priv_view"
)

const keyLength = 32

var ErrInvalidKeyLength = errors.New("monero key must be 32 bytes")

// Monero is the chain descriptor. It is stateless; a session binds one
// instance for its whole lifetime.
type Monero struct{}

var _ role.Accordant = Monero{}

func New() Monero {
	return Monero{}
}

func (Monero) AssetID() blockchain.AssetID {
	return blockchain.AssetMonero
}

func (Monero) String() string {
	return "xmr"
}

// Amount is a monero amount in piconero.
type Amount uint64

func AmountFromPico(pico uint64) Amount {
	return Amount(pico)
}

func (a Amount) Pico() uint64 {
	return uint64(a)
}

func (a Amount) CanonicalBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(a))
	return b
}

func (Monero) DecodeAmount(b []byte) (blockchain.Amount, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("monero amount must be 8 bytes, got %d", len(b))
	}
	return Amount(binary.LittleEndian.Uint64(b)), nil
}

// PrivateKey is an ed25519 scalar in canonical little-endian form.
type PrivateKey [keyLength]byte

func (k PrivateKey) CanonicalBytes() []byte {
	out := make([]byte, keyLength)
	copy(out, k[:])
	return out
}

// PublicKey returns the curve point corresponding to the private key.
func (k PrivateKey) PublicKey() (PublicKey, error) {
	s, err := k.scalar()
	if err != nil {
		return PublicKey{}, err
	}
	var pub PublicKey
	copy(pub[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	return pub, nil
}

func (k PrivateKey) scalar() (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("private key is not a canonical scalar: %w", err)
	}
	return s, nil
}

// PublicKey is a compressed ed25519 curve point.
type PublicKey [keyLength]byte

func (k PublicKey) CanonicalBytes() []byte {
	out := make([]byte, keyLength)
	copy(out, k[:])
	return out
}

func (Monero) DecodePublicKey(b []byte) (crypto.PublicKey, error) {
	if len(b) != keyLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(b))
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return nil, fmt.Errorf("public key is not a curve point: %w", err)
	}
	var k PublicKey
	copy(k[:], b)
	return k, nil
}

func (Monero) DecodeSharedPrivateKey(b []byte) (crypto.SharedPrivateKey, error) {
	if len(b) != keyLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(b))
	}
	if _, err := edwards25519.NewScalar().SetCanonicalBytes(b); err != nil {
		return nil, fmt.Errorf("shared key is not a canonical scalar: %w", err)
	}
	var k PrivateKey
	copy(k[:], b)
	return k, nil
}

// PrivateSpendFromSeed derives the private spend key from a wallet seed with
// a domain-separated Keccak-256, chopping the top bits so the scalar stays
// below the curve order.
func PrivateSpendFromSeed(seed []byte) PrivateKey {
	h := ethcrypto.Keccak256([]byte(spendKeyDomain), seed)
	var k PrivateKey
	copy(k[:], h)
	k[31] &= 0b0000_1111
	return k
}

// SharedViewFromSeed derives the shared private view key from a wallet seed:
// a domain-separated Keccak-256 reduced mod the group order.
func SharedViewFromSeed(seed []byte) (PrivateKey, error) {
	h := ethcrypto.Keccak256([]byte(viewKeyDomain), seed)
	var wide [64]byte
	copy(wide[:], h)
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return PrivateKey{}, fmt.Errorf("reducing view key: %w", err)
	}
	var k PrivateKey
	copy(k[:], s.Bytes())
	return k, nil
}

// Wallet derives the accordant key material of one party from a seed.
type Wallet struct {
	seed [keyLength]byte
}

func NewWallet(seed [keyLength]byte) *Wallet {
	return &Wallet{seed: seed}
}

// SpendKey returns the private spend key of the wallet.
func (w *Wallet) SpendKey() PrivateKey {
	return PrivateSpendFromSeed(w.seed[:])
}

// SpendPublicKey returns the public spend key of the wallet.
func (w *Wallet) SpendPublicKey() (PublicKey, error) {
	return w.SpendKey().PublicKey()
}

// SharedViewKey returns the private view key shared with the counterparty.
func (w *Wallet) SharedViewKey() (PrivateKey, error) {
	return SharedViewFromSeed(w.seed[:])
}
