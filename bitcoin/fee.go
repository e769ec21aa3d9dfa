package bitcoin

import (
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
)

// MaxAmount is the maximum number of satoshis that can ever exist.
const MaxAmount = Amount(21_000_000 * 100_000_000)

// SetFees calculates the fee for the transaction under the strategy and
// politic, deducts it from the single output, and returns the fee applied.
func (Bitcoin) SetFees(tx blockchain.PartialTransaction, strategy blockchain.FeeStrategy, politic blockchain.FeePolitic) (blockchain.Amount, error) {
	ptx, ok := tx.(*PartialTransaction)
	if !ok {
		return nil, ErrWrongTransactionType
	}
	fee, total, err := feeFor(ptx, strategy, politic)
	if err != nil {
		return nil, err
	}
	ptx.Tx.TxOut[0].Value = int64(total - fee)
	return fee, nil
}

// ValidateFee reports whether the fee already deducted on the transaction
// conforms to the strategy. A fixed strategy must be matched exactly; a range
// strategy accepts any fee between its two bounds.
func (Bitcoin) ValidateFee(tx blockchain.PartialTransaction, strategy blockchain.FeeStrategy, politic blockchain.FeePolitic) (bool, error) {
	ptx, ok := tx.(*PartialTransaction)
	if !ok {
		return false, ErrWrongTransactionType
	}
	total, err := inputTotal(ptx)
	if err != nil {
		return false, err
	}
	if len(ptx.Tx.TxOut) != 1 {
		return false, blockchain.ErrMultiOutputUnsupported
	}
	out := uint64(ptx.Tx.TxOut[0].Value)
	if uint64(total) < out {
		return false, blockchain.ErrNotEnoughAssets
	}
	actual := uint64(total) - out

	size := vsize(ptx)
	switch strategy.Kind {
	case blockchain.StrategyFixed:
		rate, err := rateOf(strategy.Fixed)
		if err != nil {
			return false, err
		}
		return actual == uint64(rate)*size, nil
	case blockchain.StrategyRange:
		low, err := rateOf(strategy.Start)
		if err != nil {
			return false, err
		}
		high, err := rateOf(strategy.End)
		if err != nil {
			return false, err
		}
		return uint64(low)*size <= actual && actual <= uint64(high)*size, nil
	default:
		return false, fmt.Errorf("unknown fee strategy kind %#02x", uint8(strategy.Kind))
	}
}

func feeFor(ptx *PartialTransaction, strategy blockchain.FeeStrategy, politic blockchain.FeePolitic) (Amount, Amount, error) {
	total, err := inputTotal(ptx)
	if err != nil {
		return 0, 0, err
	}
	if len(ptx.Tx.TxOut) != 1 {
		return 0, 0, blockchain.ErrMultiOutputUnsupported
	}
	rate, err := rateOf(strategy.Unit(politic))
	if err != nil {
		return 0, 0, err
	}
	size := vsize(ptx)
	fee := Amount(uint64(rate) * size)
	if uint64(rate) != 0 && uint64(fee)/uint64(rate) != size || fee > MaxAmount {
		return 0, 0, blockchain.ErrAmountOfFeeTooHigh
	}
	if fee > total {
		return 0, 0, blockchain.ErrNotEnoughAssets
	}
	return fee, total, nil
}

func inputTotal(ptx *PartialTransaction) (Amount, error) {
	if len(ptx.InputValues) == 0 || len(ptx.InputValues) != len(ptx.Tx.TxIn) {
		return 0, blockchain.ErrMissingInputsMetadata
	}
	var total Amount
	for _, v := range ptx.InputValues {
		total += v
	}
	return total, nil
}

func rateOf(unit blockchain.FeeUnit) (SatPerVByte, error) {
	rate, ok := unit.(SatPerVByte)
	if !ok {
		return 0, fmt.Errorf("fee unit is not sat/vByte")
	}
	return rate, nil
}

func vsize(ptx *PartialTransaction) uint64 {
	return uint64(ptx.Tx.SerializeSizeStripped())
}
