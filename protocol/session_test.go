package protocol

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/bitcoin"
	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/cbor"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/crypto"
	"github.com/farcaster-project/farcaster-go/monero"
	"github.com/farcaster-project/farcaster-go/negotiation"
	"github.com/farcaster-project/farcaster-go/role"
)

// stubEngine verifies everything unless told otherwise and adapts by
// unwrapping the adaptor signature.
type stubEngine struct {
	proofErr   error
	sigErr     error
	adaptorErr error
}

func (e stubEngine) VerifyProof(_, _ crypto.PublicKey, _ crypto.Proof) error {
	return e.proofErr
}

func (e stubEngine) VerifySignature(_ crypto.PublicKey, _ blockchain.PartialTransaction, _ crypto.Signature) error {
	return e.sigErr
}

func (e stubEngine) VerifyAdaptorSignature(_, _ crypto.PublicKey, _ blockchain.PartialTransaction, _ crypto.AdaptorSignature) error {
	return e.adaptorErr
}

func (e stubEngine) AdaptSignature(sig crypto.AdaptorSignature) (crypto.Signature, error) {
	return sig.(bitcoin.AdaptorSignature).Sig, nil
}

func testPublicOffer(t *testing.T) *negotiation.PublicOffer {
	t.Helper()
	offer, err := negotiation.SellSome(bitcoin.New(), bitcoin.AmountFromSat(100_000)).
		ForSome(monero.New(), monero.AmountFromPico(200)).
		WithTimelocks(bitcoin.NewCSVTimelock(7), bitcoin.NewCSVTimelock(8)).
		WithFee(blockchain.FixedFee(bitcoin.SatPerVByteFromSat(2))).
		On(blockchain.Testnet).
		ToOffer()
	require.NoError(t, err)
	return offer.ToPublicV1()
}

func testSetup(t *testing.T) *CoreArbitratingSetup {
	t.Helper()
	return &CoreArbitratingSetup{
		Lock:      newPartialTx(t, wire.MaxTxInSequenceNum, 100_000),
		Cancel:    newPartialTx(t, 7, 99_000),
		Refund:    newPartialTx(t, wire.MaxTxInSequenceNum, 98_000),
		CancelSig: newSignature(t),
	}
}

func newSessionPair(t *testing.T, engine Engine) (*Session, *Session, *RevealAliceSessionParams, *RevealBobSessionParams) {
	t.Helper()
	pub := testPublicOffer(t)
	ap := aliceParams(t, 1)
	bp := bobParams(t, 2)

	alice, err := NewAliceSession(bitcoin.New(), monero.New(), engine, pub, ap)
	require.NoError(t, err)
	bob, err := NewBobSession(bitcoin.New(), monero.New(), engine, pub, bp)
	require.NoError(t, err)
	return alice, bob, ap, bp
}

// exchange runs both sessions through the commit and reveal phases.
func exchange(t *testing.T, alice, bob *Session) {
	t.Helper()
	aliceCommit, err := alice.LocalCommit()
	require.NoError(t, err)
	bobCommit, err := bob.LocalCommit()
	require.NoError(t, err)

	require.NoError(t, alice.ApplyCommit(bobCommit))
	require.NoError(t, bob.ApplyCommit(aliceCommit))
	require.Equal(t, CommittedBothSides, alice.State())
	require.Equal(t, CommittedBothSides, bob.State())

	aliceReveal, err := alice.LocalReveal()
	require.NoError(t, err)
	bobReveal, err := bob.LocalReveal()
	require.NoError(t, err)

	require.NoError(t, alice.ApplyReveal(bobReveal))
	require.NoError(t, bob.ApplyReveal(aliceReveal))
	require.Equal(t, RevealedBothSides, alice.State())
	require.Equal(t, RevealedBothSides, bob.State())
}

func TestSessionHappyPath(t *testing.T) {
	alice, bob, _, _ := newSessionPair(t, stubEngine{})
	require.Equal(t, role.Alice, alice.Role())
	require.Equal(t, role.Bob, bob.Role())

	exchange(t, alice, bob)

	setup := testSetup(t)
	require.NoError(t, bob.ProposeCoreArbitratingSetup(setup))
	require.NoError(t, alice.ApplyCoreArbitratingSetup(setup))
	require.Equal(t, CoreSetupSent, alice.State())
	require.Equal(t, CoreSetupSent, bob.State())

	refund := &RefundProcedureSignatures{
		CancelSig:        newSignature(t),
		RefundAdaptorSig: newAdaptorSignature(t),
	}
	require.NoError(t, alice.ProposeRefundProcedureSignatures(refund))
	require.NoError(t, bob.ApplyRefundProcedureSignatures(refund))
	require.Equal(t, RefundSigsExchanged, alice.State())
	require.Equal(t, RefundSigsExchanged, bob.State())

	buy := &BuyProcedureSignature{
		Buy:           newPartialTx(t, wire.MaxTxInSequenceNum, 97_000),
		BuyAdaptorSig: newAdaptorSignature(t),
	}
	require.NoError(t, bob.ProposeBuyProcedureSignature(buy))
	require.NoError(t, alice.ApplyBuyProcedureSignature(buy))

	sig, err := alice.CompleteBuy()
	require.NoError(t, err)
	require.Equal(t, buy.BuyAdaptorSig.(bitcoin.AdaptorSignature).Sig, sig)
	require.Equal(t, Complete, alice.State())

	require.NoError(t, bob.ConfirmSwapComplete())
	require.Equal(t, Complete, bob.State())
}

// otherAccordant reports a different asset code than the monero chain the
// test offers are built on.
type otherAccordant struct{ monero.Monero }

func (otherAccordant) AssetID() blockchain.AssetID {
	return blockchain.AssetID(0x80000002)
}

func TestSessionRejectsWrongOfferPair(t *testing.T) {
	pub := testPublicOffer(t)
	_, err := NewAliceSession(bitcoin.New(), otherAccordant{}, stubEngine{}, pub, aliceParams(t, 1))
	require.ErrorIs(t, err, negotiation.ErrWrongAsset)
}

func TestCommitmentMismatchAbortsSession(t *testing.T) {
	alice, bob, _, bp := newSessionPair(t, stubEngine{})

	aliceCommit, err := alice.LocalCommit()
	require.NoError(t, err)
	bobCommit, err := bob.LocalCommit()
	require.NoError(t, err)
	require.NoError(t, alice.ApplyCommit(bobCommit))
	require.NoError(t, bob.ApplyCommit(aliceCommit))

	// bob reveals a buy key he never committed to
	tampered := *bp
	tampered.Buy = tampered.Cancel
	err = alice.ApplyReveal(&tampered)
	require.ErrorIs(t, err, ErrCommitmentMismatch)
	require.Equal(t, Aborted, alice.State())

	// an aborted session never processes the arbitrating setup
	err = alice.ApplyCoreArbitratingSetup(testSetup(t))
	require.ErrorIs(t, err, ErrSessionAborted)
}

func TestProofFailureAbortsSession(t *testing.T) {
	boom := errors.New("bad proof")
	alice, bob, _, _ := newSessionPair(t, stubEngine{proofErr: boom})

	aliceCommit, err := alice.LocalCommit()
	require.NoError(t, err)
	bobCommit, err := bob.LocalCommit()
	require.NoError(t, err)
	require.NoError(t, alice.ApplyCommit(bobCommit))
	require.NoError(t, bob.ApplyCommit(aliceCommit))

	bobReveal, err := bob.LocalReveal()
	require.NoError(t, err)
	err = alice.ApplyReveal(bobReveal)
	require.ErrorIs(t, err, ErrVerificationFailed)
	require.Equal(t, Aborted, alice.State())
}

func TestCancelSignatureFailureAbortsSession(t *testing.T) {
	// proofs pass, signatures fail: the reveal phase succeeds, the setup
	// signature check does not
	alice, bob, _, _ := newSessionPair(t, stubEngine{sigErr: errors.New("bad signature")})
	exchange(t, alice, bob)

	err := alice.ApplyCoreArbitratingSetup(testSetup(t))
	require.ErrorIs(t, err, ErrVerificationFailed)
	require.Equal(t, Aborted, alice.State())
}

func TestOutOfOrderMessages(t *testing.T) {
	alice, bob, _, _ := newSessionPair(t, stubEngine{})

	// reveal before both sides committed
	bobReveal := bobParams(t, 2)
	err := alice.ApplyReveal(bobReveal)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// setup before reveal phase
	err = bob.ProposeCoreArbitratingSetup(testSetup(t))
	require.ErrorIs(t, err, ErrInvalidTransition)

	// alice cannot send the setup at all
	err = alice.ProposeCoreArbitratingSetup(testSetup(t))
	require.ErrorIs(t, err, ErrWrongRole)
}

func TestAbortFromAnyLiveState(t *testing.T) {
	alice, bob, _, _ := newSessionPair(t, stubEngine{})

	reason := "taker walked away"
	msg, err := alice.Abort(&reason)
	require.NoError(t, err)
	require.Equal(t, &reason, msg.Reason)
	require.Equal(t, Aborted, alice.State())

	_, err = alice.Abort(nil)
	require.ErrorIs(t, err, ErrSessionAborted)
	_, err = alice.LocalCommit()
	require.ErrorIs(t, err, ErrSessionAborted)

	// bob aborts without a reason
	msg, err = bob.Abort(nil)
	require.NoError(t, err)
	require.Nil(t, msg.Reason)
	require.Equal(t, Aborted, bob.State())
}

func TestCheckpointRestore(t *testing.T) {
	alice, bob, ap, _ := newSessionPair(t, stubEngine{})
	exchange(t, alice, bob)

	snapshot, err := alice.Checkpoint()
	require.NoError(t, err)

	restored, err := RestoreAliceSession(snapshot, bitcoin.New(), monero.New(), stubEngine{}, ap)
	require.NoError(t, err)
	require.Equal(t, RevealedBothSides, restored.State())
	require.Equal(t, role.Alice, restored.Role())

	// the restored session continues the protocol where it stopped
	require.NoError(t, restored.ApplyCoreArbitratingSetup(testSetup(t)))
	require.Equal(t, CoreSetupSent, restored.State())
}

func TestRestoreRejectsInconsistentCheckpoint(t *testing.T) {
	offerBytes, err := consensus.Serialize(testPublicOffer(t))
	require.NoError(t, err)

	t.Run("state implies a missing reveal", func(t *testing.T) {
		cp := checkpoint{
			State:       uint8(RevealedBothSides),
			LocalRole:   uint8(role.Alice),
			PublicOffer: offerBytes,
		}
		data, err := cbor.MarshalTaggedValue(checkpointTag, cp)
		require.NoError(t, err)

		_, err = RestoreAliceSession(data, bitcoin.New(), monero.New(), stubEngine{}, aliceParams(t, 1))
		require.ErrorIs(t, err, ErrCorruptCheckpoint)
	})

	t.Run("unknown state byte", func(t *testing.T) {
		cp := checkpoint{
			State:       200,
			LocalRole:   uint8(role.Alice),
			PublicOffer: offerBytes,
		}
		data, err := cbor.MarshalTaggedValue(checkpointTag, cp)
		require.NoError(t, err)

		_, err = RestoreAliceSession(data, bitcoin.New(), monero.New(), stubEngine{}, aliceParams(t, 1))
		require.ErrorIs(t, err, ErrCorruptCheckpoint)
	})
}

func TestCheckpointRoleMismatch(t *testing.T) {
	alice, bob, _, bp := newSessionPair(t, stubEngine{})
	exchange(t, alice, bob)

	snapshot, err := alice.Checkpoint()
	require.NoError(t, err)

	_, err = RestoreBobSession(snapshot, bitcoin.New(), monero.New(), stubEngine{}, bp)
	require.ErrorIs(t, err, ErrWrongRole)
}
