package protocol

import (
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/crypto"
	"github.com/farcaster-project/farcaster-go/negotiation"
	"github.com/farcaster-project/farcaster-go/role"
)

// State is the position of a session in the message sequence.
type State uint8

const (
	Start State = iota
	CommittedBothSides
	RevealedBothSides
	CoreSetupSent
	RefundSigsExchanged
	BuySigSent
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case CommittedBothSides:
		return "committed"
	case RevealedBothSides:
		return "revealed"
	case CoreSetupSent:
		return "core setup sent"
	case RefundSigsExchanged:
		return "refund signatures exchanged"
	case BuySigSent:
		return "buy signature sent"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Terminal reports whether the session can make no further transition.
func (s State) Terminal() bool {
	return s == Complete || s == Aborted
}

var (
	// ErrSessionAborted is returned by every operation on an aborted session.
	ErrSessionAborted = errors.New("session aborted")

	// ErrSessionComplete is returned by transition attempts on a completed
	// session.
	ErrSessionComplete = errors.New("session already complete")

	// ErrInvalidTransition is returned when a message arrives out of the
	// protocol sequence.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrWrongRole is returned when a party invokes an operation belonging to
	// the counterparty role.
	ErrWrongRole = errors.New("operation not available to this swap role")

	// ErrCommitmentMismatch is returned when a revealed value does not open a
	// previously received commitment. The session aborts.
	ErrCommitmentMismatch = errors.New("revealed value does not match commitment")

	// ErrVerificationFailed wraps a proof or signature rejection from the
	// engine. The session aborts.
	ErrVerificationFailed = errors.New("cryptographic verification failed")
)

// Engine supplies the curve math a session cannot do itself: proof and
// signature verification for the bound arbitrating chain, and adaptor
// signature completion.
type Engine interface {
	// VerifyProof checks the cross-group proof binding the accordant spend
	// key to the arbitrating adaptor key.
	VerifyProof(spend, adaptor crypto.PublicKey, proof crypto.Proof) error

	// VerifySignature checks a finalized signature by key over the
	// transaction.
	VerifySignature(key crypto.PublicKey, tx blockchain.PartialTransaction, sig crypto.Signature) error

	// VerifyAdaptorSignature checks an adaptor signature by key, encrypted
	// under the adaptor public key, over the transaction.
	VerifyAdaptorSignature(key, adaptor crypto.PublicKey, tx blockchain.PartialTransaction, sig crypto.AdaptorSignature) error

	// AdaptSignature completes an adaptor signature with the local adaptor
	// secret, yielding a broadcastable signature.
	AdaptSignature(sig crypto.AdaptorSignature) (crypto.Signature, error)
}

// Session drives one swap through the message sequence. It is bound to a
// chain pair, an engine, an accepted public offer and a local role at
// construction and never rebinds. A session is not safe for concurrent use;
// the orchestrator must serialize messages belonging to one session.
type Session struct {
	arbitrating role.Arbitrating
	accordant   role.Accordant
	engine      Engine
	offer       *negotiation.PublicOffer
	localRole   role.SwapRole
	state       State

	localAlice *RevealAliceSessionParams
	localBob   *RevealBobSessionParams

	remoteAliceCommit *CommitAliceSessionParams
	remoteBobCommit   *CommitBobSessionParams
	remoteAlice       *RevealAliceSessionParams
	remoteBob         *RevealBobSessionParams

	setup  *CoreArbitratingSetup
	buySig *BuyProcedureSignature
}

// NewAliceSession starts a session playing Alice with her session parameters.
func NewAliceSession(ar role.Arbitrating, ac role.Accordant, engine Engine, offer *negotiation.PublicOffer, local *RevealAliceSessionParams) (*Session, error) {
	s, err := newSession(ar, ac, engine, offer, role.Alice)
	if err != nil {
		return nil, err
	}
	s.localAlice = local
	return s, nil
}

// NewBobSession starts a session playing Bob with his session parameters.
func NewBobSession(ar role.Arbitrating, ac role.Accordant, engine Engine, offer *negotiation.PublicOffer, local *RevealBobSessionParams) (*Session, error) {
	s, err := newSession(ar, ac, engine, offer, role.Bob)
	if err != nil {
		return nil, err
	}
	s.localBob = local
	return s, nil
}

func newSession(ar role.Arbitrating, ac role.Accordant, engine Engine, offer *negotiation.PublicOffer, localRole role.SwapRole) (*Session, error) {
	if offer.Offer.Arbitrating.AssetID() != ar.AssetID() {
		return nil, fmt.Errorf("%w: offer arbitrating asset %s", negotiation.ErrWrongAsset, offer.Offer.Arbitrating.AssetID())
	}
	if offer.Offer.Accordant.AssetID() != ac.AssetID() {
		return nil, fmt.Errorf("%w: offer accordant asset %s", negotiation.ErrWrongAsset, offer.Offer.Accordant.AssetID())
	}
	return &Session{
		arbitrating: ar,
		accordant:   ac,
		engine:      engine,
		offer:       offer,
		localRole:   localRole,
		state:       Start,
	}, nil
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Role() role.SwapRole {
	return s.localRole
}

func (s *Session) Offer() *negotiation.PublicOffer {
	return s.offer
}

// abort moves the session to Aborted and wraps the cause. The cause stays
// local; nothing about it is put on the wire.
func (s *Session) abort(err error) error {
	s.state = Aborted
	return err
}

func (s *Session) guard(want State) error {
	switch s.state {
	case Aborted:
		return ErrSessionAborted
	case Complete:
		return ErrSessionComplete
	case want:
		return nil
	default:
		return fmt.Errorf("%w: in state %q", ErrInvalidTransition, s.state)
	}
}

// LocalCommit returns the commit message for the local session parameters.
// It may be recomputed in any live state; commits are pure functions of the
// local keys.
func (s *Session) LocalCommit() (Message, error) {
	if s.state.Terminal() {
		return nil, s.guard(s.state)
	}
	if s.localRole == role.Alice {
		return s.localAlice.Commitments(), nil
	}
	return s.localBob.Commitments(), nil
}

// LocalReveal returns the reveal message for the local session parameters.
// It is available only once both sides have committed, so the local keys are
// never disclosed before the counterparty is pinned down.
func (s *Session) LocalReveal() (Message, error) {
	if err := s.guard(CommittedBothSides); err != nil {
		return nil, err
	}
	if s.localRole == role.Alice {
		return s.localAlice, nil
	}
	return s.localBob, nil
}

// ApplyCommit records the counterparty commit message. With both sides
// committed the session may reveal.
func (s *Session) ApplyCommit(m Message) error {
	if err := s.guard(Start); err != nil {
		return err
	}
	switch c := m.(type) {
	case *CommitAliceSessionParams:
		if s.localRole == role.Alice {
			return fmt.Errorf("%w: alice received an alice commit", ErrWrongRole)
		}
		s.remoteAliceCommit = c
	case *CommitBobSessionParams:
		if s.localRole == role.Bob {
			return fmt.Errorf("%w: bob received a bob commit", ErrWrongRole)
		}
		s.remoteBobCommit = c
	default:
		return fmt.Errorf("%w: expected a commit message, got type %#04x", ErrInvalidTransition, m.MsgType())
	}
	s.state = CommittedBothSides
	return nil
}

// ApplyReveal opens the counterparty commitments. Every revealed value is
// hashed and compared against the commit message received earlier, and the
// cross-group proof is verified; any failure aborts the session.
func (s *Session) ApplyReveal(m Message) error {
	if err := s.guard(CommittedBothSides); err != nil {
		return err
	}
	switch r := m.(type) {
	case *RevealAliceSessionParams:
		if s.localRole == role.Alice {
			return fmt.Errorf("%w: alice received an alice reveal", ErrWrongRole)
		}
		if err := verifyAliceOpening(s.remoteAliceCommit, r); err != nil {
			return s.abort(err)
		}
		if err := s.engine.VerifyProof(r.Spend, r.Adaptor, r.Proof); err != nil {
			return s.abort(fmt.Errorf("%w: %w", ErrVerificationFailed, err))
		}
		s.remoteAlice = r
	case *RevealBobSessionParams:
		if s.localRole == role.Bob {
			return fmt.Errorf("%w: bob received a bob reveal", ErrWrongRole)
		}
		if err := verifyBobOpening(s.remoteBobCommit, r); err != nil {
			return s.abort(err)
		}
		if err := s.engine.VerifyProof(r.Spend, r.Adaptor, r.Proof); err != nil {
			return s.abort(fmt.Errorf("%w: %w", ErrVerificationFailed, err))
		}
		s.remoteBob = r
	default:
		return fmt.Errorf("%w: expected a reveal message, got type %#04x", ErrInvalidTransition, m.MsgType())
	}
	s.state = RevealedBothSides
	return nil
}

func verifyAliceOpening(c *CommitAliceSessionParams, r *RevealAliceSessionParams) error {
	fields := []struct {
		name       string
		commitment crypto.Commitment
		value      consensus.Canonical
	}{
		{"buy", c.Buy, r.Buy},
		{"cancel", c.Cancel, r.Cancel},
		{"refund", c.Refund, r.Refund},
		{"punish", c.Punish, r.Punish},
		{"adaptor", c.Adaptor, r.Adaptor},
		{"spend", c.Spend, r.Spend},
		{"view", c.View, r.View},
	}
	for _, f := range fields {
		if !f.commitment.Opens(f.value) {
			return fmt.Errorf("%w: %s", ErrCommitmentMismatch, f.name)
		}
	}
	return nil
}

func verifyBobOpening(c *CommitBobSessionParams, r *RevealBobSessionParams) error {
	fields := []struct {
		name       string
		commitment crypto.Commitment
		value      consensus.Canonical
	}{
		{"buy", c.Buy, r.Buy},
		{"cancel", c.Cancel, r.Cancel},
		{"refund", c.Refund, r.Refund},
		{"adaptor", c.Adaptor, r.Adaptor},
		{"spend", c.Spend, r.Spend},
		{"view", c.View, r.View},
	}
	for _, f := range fields {
		if !f.commitment.Opens(f.value) {
			return fmt.Errorf("%w: %s", ErrCommitmentMismatch, f.name)
		}
	}
	return nil
}

// ProposeCoreArbitratingSetup registers the setup Bob is about to send. The
// transactions are validated against the offer timelocks before they leave,
// so Bob never publishes a setup Alice is bound to reject.
func (s *Session) ProposeCoreArbitratingSetup(m *CoreArbitratingSetup) error {
	if s.localRole != role.Bob {
		return fmt.Errorf("%w: only bob sends the arbitrating setup", ErrWrongRole)
	}
	if err := s.guard(RevealedBothSides); err != nil {
		return err
	}
	if err := s.validateSetup(m); err != nil {
		return s.abort(err)
	}
	s.setup = m
	s.state = CoreSetupSent
	return nil
}

// ApplyCoreArbitratingSetup validates and records the setup Alice received:
// transaction shape and timelocks against the offer parameters, then Bob's
// cancel signature under his revealed cancel key.
func (s *Session) ApplyCoreArbitratingSetup(m *CoreArbitratingSetup) error {
	if s.localRole != role.Alice {
		return fmt.Errorf("%w: only alice receives the arbitrating setup", ErrWrongRole)
	}
	if err := s.guard(RevealedBothSides); err != nil {
		return err
	}
	if err := s.validateSetup(m); err != nil {
		return s.abort(err)
	}
	if err := s.engine.VerifySignature(s.remoteBob.Cancel, m.Cancel, m.CancelSig); err != nil {
		return s.abort(fmt.Errorf("%w: cancel signature: %w", ErrVerificationFailed, err))
	}
	s.setup = m
	s.state = CoreSetupSent
	return nil
}

func (s *Session) validateSetup(m *CoreArbitratingSetup) error {
	o := s.offer.Offer
	if err := s.arbitrating.ValidateTimelocks(m.Lock, m.Cancel, m.Refund, o.CancelTimelock, o.PunishTimelock); err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	return nil
}

// ProposeRefundProcedureSignatures registers the signatures Alice is about
// to send in answer to the setup.
func (s *Session) ProposeRefundProcedureSignatures(m *RefundProcedureSignatures) error {
	if s.localRole != role.Alice {
		return fmt.Errorf("%w: only alice sends the refund signatures", ErrWrongRole)
	}
	if err := s.guard(CoreSetupSent); err != nil {
		return err
	}
	s.state = RefundSigsExchanged
	return nil
}

// ApplyRefundProcedureSignatures verifies Alice's cancel signature and her
// adaptor signature on the refund transaction, encrypted under Bob's adaptor
// key. Bob must not broadcast the lock transaction before this succeeds.
func (s *Session) ApplyRefundProcedureSignatures(m *RefundProcedureSignatures) error {
	if s.localRole != role.Bob {
		return fmt.Errorf("%w: only bob receives the refund signatures", ErrWrongRole)
	}
	if err := s.guard(CoreSetupSent); err != nil {
		return err
	}
	if err := s.engine.VerifySignature(s.remoteAlice.Cancel, s.setup.Cancel, m.CancelSig); err != nil {
		return s.abort(fmt.Errorf("%w: cancel signature: %w", ErrVerificationFailed, err))
	}
	if err := s.engine.VerifyAdaptorSignature(s.remoteAlice.Refund, s.localBob.Adaptor, s.setup.Refund, m.RefundAdaptorSig); err != nil {
		return s.abort(fmt.Errorf("%w: refund adaptor signature: %w", ErrVerificationFailed, err))
	}
	s.state = RefundSigsExchanged
	return nil
}

// ProposeBuyProcedureSignature registers the buy message Bob is about to
// send.
func (s *Session) ProposeBuyProcedureSignature(m *BuyProcedureSignature) error {
	if s.localRole != role.Bob {
		return fmt.Errorf("%w: only bob sends the buy signature", ErrWrongRole)
	}
	if err := s.guard(RefundSigsExchanged); err != nil {
		return err
	}
	s.buySig = m
	s.state = BuySigSent
	return nil
}

// ApplyBuyProcedureSignature verifies Bob's adaptor signature on the buy
// transaction, encrypted under Alice's adaptor key.
func (s *Session) ApplyBuyProcedureSignature(m *BuyProcedureSignature) error {
	if s.localRole != role.Alice {
		return fmt.Errorf("%w: only alice receives the buy signature", ErrWrongRole)
	}
	if err := s.guard(RefundSigsExchanged); err != nil {
		return err
	}
	if err := s.engine.VerifyAdaptorSignature(s.remoteBob.Buy, s.localAlice.Adaptor, m.Buy, m.BuyAdaptorSig); err != nil {
		return s.abort(fmt.Errorf("%w: buy adaptor signature: %w", ErrVerificationFailed, err))
	}
	s.buySig = m
	s.state = BuySigSent
	return nil
}

// CompleteBuy adapts the buy signature with Alice's adaptor secret. The
// broadcastable signature is returned and the session completes; once on
// chain the completed signature leaks the secret Bob needs on the accordant
// side.
func (s *Session) CompleteBuy() (crypto.Signature, error) {
	if s.localRole != role.Alice {
		return nil, fmt.Errorf("%w: only alice completes the buy signature", ErrWrongRole)
	}
	if err := s.guard(BuySigSent); err != nil {
		return nil, err
	}
	sig, err := s.engine.AdaptSignature(s.buySig.BuyAdaptorSig)
	if err != nil {
		return nil, s.abort(fmt.Errorf("%w: adapting buy signature: %w", ErrVerificationFailed, err))
	}
	s.state = Complete
	return sig, nil
}

// ConfirmSwapComplete records that the buy transaction was observed on
// chain. Bob's path to Complete; the adaptor secret recovery happens in the
// engine, outside this state machine.
func (s *Session) ConfirmSwapComplete() error {
	if s.localRole != role.Bob {
		return fmt.Errorf("%w: alice completes through CompleteBuy", ErrWrongRole)
	}
	if err := s.guard(BuySigSent); err != nil {
		return err
	}
	s.state = Complete
	return nil
}

// Abort terminates the session from any non-terminal state and returns the
// message to send. The reason is optional and entirely caller-chosen.
func (s *Session) Abort(reason *string) (*Abort, error) {
	if s.state.Terminal() {
		return nil, s.guard(s.state)
	}
	s.state = Aborted
	return &Abort{Reason: reason}, nil
}
