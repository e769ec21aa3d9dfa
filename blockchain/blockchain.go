/*
Package blockchain defines the capability surface a chain must supply to take
part in a swap, and the chain-agnostic negotiation values (network, asset
identity, fee strategy).

Concrete chains implement the interfaces here; the rest of the protocol is
written against them and binds a (bitcoin, monero, ...) pair once per session.
*/
package blockchain

import (
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/consensus"
)

// Network identifies in which context the system interacts with a chain.
type Network uint8

const (
	Mainnet Network = 0x01
	Testnet Network = 0x02
	Local   Network = 0x03
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("network(%#02x)", uint8(n))
	}
}

func (n Network) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutU8(uint8(n))
}

// DecodeNetwork reads a network tag; any tag outside the three declared
// variants is a decode error.
func DecodeNetwork(d *consensus.Decoder) (Network, error) {
	tag, err := d.U8()
	if err != nil {
		return 0, err
	}
	switch n := Network(tag); n {
	case Mainnet, Testnet, Local:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: network tag %#02x", consensus.ErrUnknownType, tag)
	}
}

// AssetID is a SLIP-44 style 32-bit asset code.
type AssetID uint32

const (
	AssetBitcoin AssetID = 0x80000000
	AssetMonero  AssetID = 0x80000080

	// ReservedAssetID is reserved by the protocol and rejected at decode.
	ReservedAssetID AssetID = 0x80000001
)

var ErrReservedAsset = errors.New("asset code is reserved by the protocol")

func (id AssetID) String() string {
	switch id {
	case AssetBitcoin:
		return "BTC"
	case AssetMonero:
		return "XMR"
	default:
		return fmt.Sprintf("asset(%#08x)", uint32(id))
	}
}

func (id AssetID) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutU32(uint32(id))
}

// DecodeAssetID reads an asset code. Unknown codes are carried through as is;
// only the reserved code fails.
func DecodeAssetID(d *consensus.Decoder) (AssetID, error) {
	code, err := d.U32()
	if err != nil {
		return 0, err
	}
	if AssetID(code) == ReservedAssetID {
		return 0, fmt.Errorf("%w: %#08x", ErrReservedAsset, code)
	}
	return AssetID(code), nil
}

// Amount is a chain-native asset quantity.
type Amount interface {
	consensus.Canonical
}

// Timelock is a chain-enforced delay parameter.
type Timelock interface {
	consensus.Canonical
}

// FeeUnit describes the fee denomination of an arbitrating chain.
type FeeUnit interface {
	consensus.Canonical
	// Less reports whether the unit is strictly smaller than other. Other is
	// always of the same concrete type within one strategy.
	Less(other FeeUnit) bool
}

// PartialTransaction is an in-flight transaction exchanged between
// participants; it may be mutated (fees, signatures) before finalization.
type PartialTransaction interface {
	consensus.Canonical
}

// Transaction is a finalized, broadcastable transaction.
type Transaction interface {
	consensus.Canonical
}

// Address is a chain destination address.
type Address interface {
	consensus.Canonical
}

// Asset identifies a chain/asset and parses the chain's canonical amount
// encoding.
type Asset interface {
	AssetID() AssetID
	DecodeAmount(b []byte) (Amount, error)
}

// Onchain supplies the transaction types of an arbitrating chain.
type Onchain interface {
	DecodePartialTransaction(b []byte) (PartialTransaction, error)
	DecodeTransaction(b []byte) (Transaction, error)
}

// Fee enables fee management on an arbitrating chain.
type Fee interface {
	DecodeFeeUnit(b []byte) (FeeUnit, error)
	// SetFees calculates and sets the fees on tx and returns the amount
	// applied, in the chain's native amount.
	SetFees(tx PartialTransaction, strategy FeeStrategy, politic FeePolitic) (Amount, error)
	// ValidateFee reports whether the fees already set on tx conform to the
	// strategy under the given politic.
	ValidateFee(tx PartialTransaction, strategy FeeStrategy, politic FeePolitic) (bool, error)
}
