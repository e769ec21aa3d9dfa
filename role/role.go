/*
Package role defines the swap roles and the capability bundles a chain must
satisfy to be used as the arbitrating or accordant side of a swap.
*/
package role

import (
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/crypto"
)

// SwapRole is one of the two fixed swap roles. Alice buys the arbitrating
// asset, Bob sells it; the role is derived from the offer, never chosen.
type SwapRole uint8

const (
	Alice SwapRole = 0x01
	Bob   SwapRole = 0x02
)

func (r SwapRole) String() string {
	switch r {
	case Alice:
		return "alice"
	case Bob:
		return "bob"
	default:
		return fmt.Sprintf("role(%#02x)", uint8(r))
	}
}

// Other returns the counterparty role.
func (r SwapRole) Other() SwapRole {
	if r == Alice {
		return Bob
	}
	return Alice
}

func (r SwapRole) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutU8(uint8(r))
}

func DecodeSwapRole(d *consensus.Decoder) (SwapRole, error) {
	tag, err := d.U8()
	if err != nil {
		return 0, err
	}
	switch r := SwapRole(tag); r {
	case Alice, Bob:
		return r, nil
	default:
		return 0, fmt.Errorf("%w: swap role tag %#02x", consensus.ErrUnknownType, tag)
	}
}

// Arbitrating bundles everything a chain must expose to play the arbitrating
// side: identity, on-chain transaction types, fee management, keys,
// signatures with adaptor support, and the parsers for its canonical value
// encodings. A session binds one implementation at construction and never
// rebinds.
type Arbitrating interface {
	blockchain.Asset
	blockchain.Onchain
	blockchain.Fee
	crypto.Keys
	crypto.Signatures

	DecodeTimelock(b []byte) (blockchain.Timelock, error)
	DecodeAddress(b []byte) (blockchain.Address, error)
	DecodeProof(b []byte) (crypto.Proof, error)

	// ValidateTimelocks checks the shape of the setup transactions against
	// the cancel and punish parameters fixed by the accepted offer.
	ValidateTimelocks(lock, cancel, refund blockchain.PartialTransaction, cancelTimelock, punishTimelock blockchain.Timelock) error
}

// Accordant bundles what a chain must expose to play the accordant side:
// identity, keys, and shared private key material (e.g. a view key).
type Accordant interface {
	blockchain.Asset
	crypto.Keys
	crypto.SharedPrivateKeys
}
