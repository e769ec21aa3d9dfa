package bitcoin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/blockchain"
)

func TestSetFeesFixed(t *testing.T) {
	b := New()
	ptx := testTx(10, []Amount{AmountFromSat(100_000)}, 100_000)
	strategy := blockchain.FixedFee(SatPerVByteFromSat(2))

	fee, err := b.SetFees(ptx, strategy, blockchain.Aggressive)
	require.NoError(t, err)

	expected := Amount(2 * vsize(ptx))
	require.Equal(t, expected, fee)
	require.Equal(t, int64(100_000-expected.Sat()), ptx.Tx.TxOut[0].Value)

	ok, err := b.ValidateFee(ptx, strategy, blockchain.Aggressive)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSetFeesRangePolitic(t *testing.T) {
	b := New()
	strategy, err := blockchain.RangeFee(SatPerVByteFromSat(1), SatPerVByteFromSat(3))
	require.NoError(t, err)

	low := testTx(10, []Amount{AmountFromSat(100_000)}, 100_000)
	feeLow, err := b.SetFees(low, strategy, blockchain.Aggressive)
	require.NoError(t, err)
	require.Equal(t, Amount(1*vsize(low)), feeLow)

	high := testTx(10, []Amount{AmountFromSat(100_000)}, 100_000)
	feeHigh, err := b.SetFees(high, strategy, blockchain.Conservative)
	require.NoError(t, err)
	require.Equal(t, Amount(3*vsize(high)), feeHigh)

	for _, ptx := range []*PartialTransaction{low, high} {
		ok, err := b.ValidateFee(ptx, strategy, blockchain.Aggressive)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestSetFeesErrors(t *testing.T) {
	b := New()
	strategy := blockchain.FixedFee(SatPerVByteFromSat(2))

	t.Run("missing inputs metadata", func(t *testing.T) {
		ptx := testTx(10, []Amount{AmountFromSat(1000)}, 1000)
		ptx.InputValues = nil
		_, err := b.SetFees(ptx, strategy, blockchain.Aggressive)
		require.ErrorIs(t, err, blockchain.ErrMissingInputsMetadata)
	})

	t.Run("multi output", func(t *testing.T) {
		ptx := testTx(10, []Amount{AmountFromSat(1000)}, 500)
		ptx.Tx.AddTxOut(ptx.Tx.TxOut[0])
		_, err := b.SetFees(ptx, strategy, blockchain.Aggressive)
		require.ErrorIs(t, err, blockchain.ErrMultiOutputUnsupported)
	})

	t.Run("not enough assets", func(t *testing.T) {
		ptx := testTx(10, []Amount{AmountFromSat(10)}, 10)
		_, err := b.SetFees(ptx, strategy, blockchain.Aggressive)
		require.ErrorIs(t, err, blockchain.ErrNotEnoughAssets)
	})

	t.Run("fee too high", func(t *testing.T) {
		ptx := testTx(10, []Amount{AmountFromSat(21_000_000 * 100_000_000)}, 0)
		huge := blockchain.FixedFee(SatPerVByteFromSat(^uint64(0) / 2))
		_, err := b.SetFees(ptx, huge, blockchain.Aggressive)
		require.ErrorIs(t, err, blockchain.ErrAmountOfFeeTooHigh)
	})

	t.Run("foreign transaction type", func(t *testing.T) {
		_, err := b.SetFees(foreignTx{}, strategy, blockchain.Aggressive)
		require.ErrorIs(t, err, ErrWrongTransactionType)
	})
}

type foreignTx struct{}

func (foreignTx) CanonicalBytes() []byte { return nil }
