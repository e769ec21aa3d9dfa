package bitcoin

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcd/btcutil"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
)

var (
	ErrWrongTransactionType = errors.New("transaction is not a bitcoin transaction")
	ErrInvalidTimelock      = errors.New("transaction timelock does not match the offer")
	ErrEmptyTransaction     = errors.New("transaction has no inputs or no outputs")
)

// PartialTransaction is an in-flight transaction plus the value of each
// spent input, needed by the counterparty to validate fees. The metadata
// travels with the transaction in the canonical encoding.
type PartialTransaction struct {
	Tx *wire.MsgTx
	// InputValues holds the value of the output spent by each input, in the
	// same order as Tx.TxIn.
	InputValues []Amount
}

func (t *PartialTransaction) CanonicalBytes() []byte {
	var txBuf bytes.Buffer
	// serializing to a memory buffer cannot fail
	_ = t.Tx.Serialize(&txBuf)

	var buf bytes.Buffer
	e := consensus.NewEncoder(&buf)
	_ = e.PutVarBytes(txBuf.Bytes())
	_ = e.PutCompactSize(uint64(len(t.InputValues)))
	for _, v := range t.InputValues {
		_ = e.PutU64(uint64(v))
	}
	return buf.Bytes()
}

func (Bitcoin) DecodePartialTransaction(data []byte) (blockchain.PartialTransaction, error) {
	return consensus.Deserialize(data, func(d *consensus.Decoder) (blockchain.PartialTransaction, error) {
		txBytes, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		tx := wire.NewMsgTx(wire.TxVersion)
		if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
			return nil, fmt.Errorf("parsing transaction: %w", err)
		}
		count, err := d.CompactSize()
		if err != nil {
			return nil, err
		}
		if count != uint64(len(tx.TxIn)) {
			return nil, fmt.Errorf("input metadata count %d does not match %d input(s)", count, len(tx.TxIn))
		}
		values := make([]Amount, count)
		for i := range values {
			v, err := d.U64()
			if err != nil {
				return nil, err
			}
			values[i] = Amount(v)
		}
		return &PartialTransaction{Tx: tx, InputValues: values}, nil
	})
}

// Transaction is a finalized, broadcastable transaction.
type Transaction struct {
	Tx *wire.MsgTx
}

func (t *Transaction) CanonicalBytes() []byte {
	var buf bytes.Buffer
	_ = t.Tx.Serialize(&buf)
	return buf.Bytes()
}

func (Bitcoin) DecodeTransaction(data []byte) (blockchain.Transaction, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	r := bytes.NewReader(data)
	if err := tx.Deserialize(r); err != nil {
		return nil, fmt.Errorf("parsing transaction: %w", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d byte(s) left after transaction", consensus.ErrTrailingBytes, r.Len())
	}
	return &Transaction{Tx: tx}, nil
}

// Address is a bitcoin address in its textual form.
type Address string

func (a Address) CanonicalBytes() []byte {
	return []byte(a)
}

// Validate checks the address against the given network.
func (a Address) Validate(network blockchain.Network) error {
	_, err := btcutil.DecodeAddress(string(a), chainParams(network))
	if err != nil {
		return fmt.Errorf("invalid bitcoin address on %s: %w", network, err)
	}
	return nil
}

func chainParams(network blockchain.Network) *chaincfg.Params {
	switch network {
	case blockchain.Mainnet:
		return &chaincfg.MainNetParams
	case blockchain.Testnet:
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.RegressionNetParams
	}
}

func (Bitcoin) DecodeAddress(b []byte) (blockchain.Address, error) {
	if len(b) == 0 || !utf8.Valid(b) {
		return nil, errors.New("bitcoin address must be a non-empty utf-8 string")
	}
	return Address(b), nil
}

// ValidateTimelocks checks the setup transactions against the offered
// timelock parameters: the cancel path must be gated by the cancel CSV
// delay, while the refund transaction spends the cancel output without any
// additional delay (the punish delay gates the punish transaction, which is
// built later by Alice alone).
func (Bitcoin) ValidateTimelocks(lock, cancel, refund blockchain.PartialTransaction, cancelTimelock, punishTimelock blockchain.Timelock) error {
	lockTx, ok := lock.(*PartialTransaction)
	if !ok {
		return ErrWrongTransactionType
	}
	cancelTx, ok := cancel.(*PartialTransaction)
	if !ok {
		return ErrWrongTransactionType
	}
	refundTx, ok := refund.(*PartialTransaction)
	if !ok {
		return ErrWrongTransactionType
	}
	csv, ok := cancelTimelock.(CSVTimelock)
	if !ok {
		return fmt.Errorf("cancel timelock is not a CSV timelock")
	}
	if _, ok := punishTimelock.(CSVTimelock); !ok {
		return fmt.Errorf("punish timelock is not a CSV timelock")
	}

	for _, tx := range []*PartialTransaction{lockTx, cancelTx, refundTx} {
		if len(tx.Tx.TxIn) == 0 || len(tx.Tx.TxOut) == 0 {
			return ErrEmptyTransaction
		}
	}
	for i, in := range cancelTx.Tx.TxIn {
		if in.Sequence != csv.Blocks() {
			return fmt.Errorf("%w: cancel input %d sequence %d, offer requires %d",
				ErrInvalidTimelock, i, in.Sequence, csv.Blocks())
		}
	}
	for i, in := range refundTx.Tx.TxIn {
		if in.Sequence != wire.MaxTxInSequenceNum {
			return fmt.Errorf("%w: refund input %d carries sequence %d, must be final",
				ErrInvalidTimelock, i, in.Sequence)
		}
	}
	return nil
}
