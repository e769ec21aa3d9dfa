/*
Package bitcoin implements the arbitrating capability set for Bitcoin:
secp256k1 keys and ECDSA signatures, adaptor signatures, wire transactions
with per-input value metadata, CSV timelocks and sat/vByte fee strategies.
*/
package bitcoin

import (
	"encoding/binary"
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/role"
)

var _ role.Arbitrating = Bitcoin{}

// Bitcoin is the chain descriptor. It is stateless; a session binds one
// instance for its whole lifetime.
type Bitcoin struct{}

func New() Bitcoin {
	return Bitcoin{}
}

func (Bitcoin) AssetID() blockchain.AssetID {
	return blockchain.AssetBitcoin
}

func (Bitcoin) String() string {
	return "btc"
}

// Amount is a bitcoin amount in satoshis.
type Amount uint64

// AmountFromSat creates an amount from a satoshi value.
func AmountFromSat(sat uint64) Amount {
	return Amount(sat)
}

func (a Amount) Sat() uint64 {
	return uint64(a)
}

func (a Amount) CanonicalBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(a))
	return b
}

func (Bitcoin) DecodeAmount(b []byte) (blockchain.Amount, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("bitcoin amount must be 8 bytes, got %d", len(b))
	}
	return Amount(binary.LittleEndian.Uint64(b)), nil
}

// CSVTimelock is a relative timelock expressed in blocks, enforced with
// OP_CHECKSEQUENCEVERIFY.
type CSVTimelock uint32

func NewCSVTimelock(blocks uint32) CSVTimelock {
	return CSVTimelock(blocks)
}

func (t CSVTimelock) Blocks() uint32 {
	return uint32(t)
}

func (t CSVTimelock) CanonicalBytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(t))
	return b
}

func (Bitcoin) DecodeTimelock(b []byte) (blockchain.Timelock, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("bitcoin timelock must be 4 bytes, got %d", len(b))
	}
	return CSVTimelock(binary.LittleEndian.Uint32(b)), nil
}

// SatPerVByte is a fee rate in satoshis per virtual byte.
type SatPerVByte uint64

func SatPerVByteFromSat(sat uint64) SatPerVByte {
	return SatPerVByte(sat)
}

func (r SatPerVByte) CanonicalBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(r))
	return b
}

func (r SatPerVByte) Less(other blockchain.FeeUnit) bool {
	o, ok := other.(SatPerVByte)
	return ok && r < o
}

func (Bitcoin) DecodeFeeUnit(b []byte) (blockchain.FeeUnit, error) {
	if len(b) != 8 {
		return nil, fmt.Errorf("bitcoin fee unit must be 8 bytes, got %d", len(b))
	}
	return SatPerVByte(binary.LittleEndian.Uint64(b)), nil
}

var (
	_ consensus.Canonical = Amount(0)
	_ consensus.Canonical = CSVTimelock(0)
	_ blockchain.FeeUnit  = SatPerVByte(0)
)
