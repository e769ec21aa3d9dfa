/*
Package hash computes hashes over canonical encodings.

Commitments in the protocol are defined as the SHA-256 of a value's canonical
encoding, so values written to a Hasher are serialized through the consensus
package before hashing.
*/
package hash

import (
	"crypto/sha256"
	"hash"

	"github.com/farcaster-project/farcaster-go/consensus"
)

// New creates a hash calculator over the given hash function.
func New(h hash.Hash) *Hasher {
	return &Hasher{h: h}
}

// New256 creates a SHA-256 hash calculator.
func New256() *Hasher {
	return New(sha256.New())
}

type Hasher struct {
	h   hash.Hash
	err error
}

// Write adds the canonical bytes of a leaf value to the hash.
func (h *Hasher) Write(v consensus.Canonical) {
	h.WriteRaw(v.CanonicalBytes())
}

// WriteEncodable serializes a composite value and adds it to the hash.
func (h *Hasher) WriteEncodable(v consensus.Encodable) {
	if h.err != nil {
		return
	}
	h.err = v.ConsensusEncode(consensus.NewEncoder(h.h))
}

// WriteRaw adds the bytes as is to the hash.
func (h *Hasher) WriteRaw(d []byte) {
	if h.err != nil {
		return
	}
	_, h.err = h.h.Write(d)
}

func (h *Hasher) Reset() {
	h.h.Reset()
	h.err = nil
}

func (h *Hasher) Size() int {
	return h.h.Size()
}

// Sum returns the hash value and the first error (if any) seen while writing;
// on a non-nil error the hash value is not valid.
func (h *Hasher) Sum() ([]byte, error) {
	return h.h.Sum(nil), h.err
}

// Sum256 returns the SHA-256 of the canonical bytes of v.
func Sum256(v consensus.Canonical) [32]byte {
	h := New256()
	h.Write(v)
	// writing to sha256 cannot fail
	sum, _ := h.Sum()
	var out [32]byte
	copy(out[:], sum)
	return out
}

// Sum256Encodable returns the SHA-256 of the canonical encoding of a
// composite value.
func Sum256Encodable(v consensus.Encodable) ([32]byte, error) {
	h := New256()
	h.WriteEncodable(v)
	sum, err := h.Sum()
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], sum)
	return out, nil
}
