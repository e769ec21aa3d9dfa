/*
Package crypto defines the cryptographic capability sets a chain exposes to
the swap protocol, and the commitment scheme used during the commit phase.

No elliptic-curve or signature math lives here: verification and adaptor
completion are supplied by an external engine bound per session.
*/
package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/hash"
)

// PublicKey is a chain public key in its canonical serialization.
type PublicKey interface {
	consensus.Canonical
}

// Signature is a finalized chain signature.
type Signature interface {
	consensus.Canonical
}

// AdaptorSignature verifies only after combining with a secret value; the
// on-chain completion leaks that secret to the counterparty.
type AdaptorSignature interface {
	consensus.Canonical
}

// SharedPrivateKey is private key material shared between the two parties
// (e.g. a view key).
type SharedPrivateKey interface {
	consensus.Canonical
}

// Proof is a cross-group discrete-log-equality proof binding an arbitrating
// adaptor key to an accordant spend key.
type Proof interface {
	consensus.Canonical
}

// Keys is the key capability set of a chain.
type Keys interface {
	DecodePublicKey(b []byte) (PublicKey, error)
}

// Signatures is the signature capability set of an arbitrating chain.
type Signatures interface {
	DecodeSignature(b []byte) (Signature, error)
	DecodeAdaptorSignature(b []byte) (AdaptorSignature, error)
}

// SharedPrivateKeys is the shared-key capability set of an accordant chain.
type SharedPrivateKeys interface {
	DecodeSharedPrivateKey(b []byte) (SharedPrivateKey, error)
}

// CommitmentLength is the byte length of a commitment on the wire.
const CommitmentLength = 32

var ErrInvalidCommitmentLength = errors.New("invalid commitment length")

// Commitment is the SHA-256 of a value's canonical encoding, published
// before the value itself to prevent adaptive key choice.
type Commitment [CommitmentLength]byte

// Commit computes the commitment of a canonical value.
func Commit(v consensus.Canonical) Commitment {
	return Commitment(hash.Sum256(v))
}

// Opens reports whether the commitment opens to the given value.
func (c Commitment) Opens(v consensus.Canonical) bool {
	other := Commit(v)
	return bytes.Equal(c[:], other[:])
}

func (c Commitment) CanonicalBytes() []byte {
	out := make([]byte, CommitmentLength)
	copy(out, c[:])
	return out
}

func (c Commitment) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutBytes(c[:])
}

// DecodeCommitment reads a fixed-width commitment, no length prefix.
func DecodeCommitment(d *consensus.Decoder) (Commitment, error) {
	b, err := d.Bytes(CommitmentLength)
	if err != nil {
		return Commitment{}, err
	}
	var c Commitment
	copy(c[:], b)
	return c, nil
}

// CommitmentFromBytes converts raw bytes into a commitment, rejecting any
// length other than CommitmentLength.
func CommitmentFromBytes(b []byte) (Commitment, error) {
	if len(b) != CommitmentLength {
		return Commitment{}, fmt.Errorf("%w: %d", ErrInvalidCommitmentLength, len(b))
	}
	var c Commitment
	copy(c[:], b)
	return c, nil
}
