package protocol

import (
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/cbor"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/negotiation"
	"github.com/farcaster-project/farcaster-go/role"
)

// Application-range CBOR tag; low tag numbers are reserved by RFC 8949.
const checkpointTag cbor.Tag = 1001

// ErrCorruptCheckpoint is returned when a checkpoint's state byte and its
// message slots do not agree. A checkpoint is a persisted input and may have
// been truncated or tampered with; it is never trusted into a session that
// would dereference a missing counterparty message.
var ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

/*
checkpoint is the persistable snapshot of a session: the state machine
position, the local role, the accepted public offer and every counterparty
message received so far, all in their wire encodings. Local key material is
never part of a checkpoint; the caller supplies it again on restore.
*/
type checkpoint struct {
	_            struct{} `cbor:",toarray"`
	State        uint8
	LocalRole    uint8
	PublicOffer  []byte
	RemoteCommit []byte
	RemoteReveal []byte
	Setup        []byte
	BuySig       []byte
}

// Checkpoint serializes the session into a deterministic CBOR snapshot the
// orchestration layer can persist and later hand to RestoreAliceSession or
// RestoreBobSession.
func (s *Session) Checkpoint() ([]byte, error) {
	offerBytes, err := consensus.Serialize(s.offer)
	if err != nil {
		return nil, fmt.Errorf("serializing public offer: %w", err)
	}
	cp := checkpoint{
		State:       uint8(s.state),
		LocalRole:   uint8(s.localRole),
		PublicOffer: offerBytes,
	}
	frame := func(m Message) ([]byte, error) {
		if m == nil {
			return nil, nil
		}
		return SerializeMessage(m)
	}
	if s.localRole == role.Alice {
		if s.remoteBobCommit != nil {
			if cp.RemoteCommit, err = frame(s.remoteBobCommit); err != nil {
				return nil, err
			}
		}
		if s.remoteBob != nil {
			if cp.RemoteReveal, err = frame(s.remoteBob); err != nil {
				return nil, err
			}
		}
	} else {
		if s.remoteAliceCommit != nil {
			if cp.RemoteCommit, err = frame(s.remoteAliceCommit); err != nil {
				return nil, err
			}
		}
		if s.remoteAlice != nil {
			if cp.RemoteReveal, err = frame(s.remoteAlice); err != nil {
				return nil, err
			}
		}
	}
	if s.setup != nil {
		if cp.Setup, err = frame(s.setup); err != nil {
			return nil, err
		}
	}
	if s.buySig != nil {
		if cp.BuySig, err = frame(s.buySig); err != nil {
			return nil, err
		}
	}
	return cbor.MarshalTaggedValue(checkpointTag, cp)
}

// RestoreAliceSession rebuilds an Alice session from a checkpoint. The local
// session parameters are not persisted and must be supplied again.
func RestoreAliceSession(data []byte, ar role.Arbitrating, ac role.Accordant, engine Engine, local *RevealAliceSessionParams) (*Session, error) {
	s, err := restore(data, ar, ac, engine, role.Alice)
	if err != nil {
		return nil, err
	}
	s.localAlice = local
	return s, nil
}

// RestoreBobSession rebuilds a Bob session from a checkpoint.
func RestoreBobSession(data []byte, ar role.Arbitrating, ac role.Accordant, engine Engine, local *RevealBobSessionParams) (*Session, error) {
	s, err := restore(data, ar, ac, engine, role.Bob)
	if err != nil {
		return nil, err
	}
	s.localBob = local
	return s, nil
}

func restore(data []byte, ar role.Arbitrating, ac role.Accordant, engine Engine, localRole role.SwapRole) (*Session, error) {
	var cp checkpoint
	if err := cbor.UnmarshalTaggedValue(checkpointTag, data, &cp); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}
	if got := role.SwapRole(cp.LocalRole); got != localRole {
		return nil, fmt.Errorf("%w: checkpoint was taken as %s", ErrWrongRole, got)
	}
	offer, err := consensus.Deserialize(cp.PublicOffer, func(d *consensus.Decoder) (*negotiation.PublicOffer, error) {
		return negotiation.DecodePublicOffer(d, ar, ac)
	})
	if err != nil {
		return nil, fmt.Errorf("decoding checkpointed offer: %w", err)
	}
	s, err := newSession(ar, ac, engine, offer, localRole)
	if err != nil {
		return nil, err
	}
	s.state = State(cp.State)
	if cp.RemoteCommit != nil {
		m, err := DeserializeMessage(cp.RemoteCommit, ar, ac)
		if err != nil {
			return nil, fmt.Errorf("decoding checkpointed commit: %w", err)
		}
		switch c := m.(type) {
		case *CommitAliceSessionParams:
			s.remoteAliceCommit = c
		case *CommitBobSessionParams:
			s.remoteBobCommit = c
		default:
			return nil, fmt.Errorf("%w: commit slot holds type %#04x", ErrInvalidTransition, m.MsgType())
		}
	}
	if cp.RemoteReveal != nil {
		m, err := DeserializeMessage(cp.RemoteReveal, ar, ac)
		if err != nil {
			return nil, fmt.Errorf("decoding checkpointed reveal: %w", err)
		}
		switch r := m.(type) {
		case *RevealAliceSessionParams:
			s.remoteAlice = r
		case *RevealBobSessionParams:
			s.remoteBob = r
		default:
			return nil, fmt.Errorf("%w: reveal slot holds type %#04x", ErrInvalidTransition, m.MsgType())
		}
	}
	if cp.Setup != nil {
		m, err := DeserializeMessage(cp.Setup, ar, ac)
		if err != nil {
			return nil, fmt.Errorf("decoding checkpointed setup: %w", err)
		}
		setup, ok := m.(*CoreArbitratingSetup)
		if !ok {
			return nil, fmt.Errorf("%w: setup slot holds type %#04x", ErrInvalidTransition, m.MsgType())
		}
		s.setup = setup
	}
	if cp.BuySig != nil {
		m, err := DeserializeMessage(cp.BuySig, ar, ac)
		if err != nil {
			return nil, fmt.Errorf("decoding checkpointed buy signature: %w", err)
		}
		buySig, ok := m.(*BuyProcedureSignature)
		if !ok {
			return nil, fmt.Errorf("%w: buy slot holds type %#04x", ErrInvalidTransition, m.MsgType())
		}
		s.buySig = buySig
	}
	if err := s.checkRestored(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkRestored verifies that every message slot the restored state implies
// was actually populated, so no later transition dereferences a missing
// counterparty message.
func (s *Session) checkRestored() error {
	var commit, reveal bool
	if s.localRole == role.Alice {
		commit = s.remoteBobCommit != nil
		reveal = s.remoteBob != nil
	} else {
		commit = s.remoteAliceCommit != nil
		reveal = s.remoteAlice != nil
	}
	missing := func(what string) error {
		return fmt.Errorf("%w: state %q without a counterparty %s", ErrCorruptCheckpoint, s.state, what)
	}
	switch s.state {
	case Start, Aborted:
		return nil
	case CommittedBothSides:
		if !commit {
			return missing("commit")
		}
	case RevealedBothSides:
		if !commit {
			return missing("commit")
		}
		if !reveal {
			return missing("reveal")
		}
	case CoreSetupSent, RefundSigsExchanged:
		if !commit {
			return missing("commit")
		}
		if !reveal {
			return missing("reveal")
		}
		if s.setup == nil {
			return missing("arbitrating setup")
		}
	case BuySigSent, Complete:
		if !commit {
			return missing("commit")
		}
		if !reveal {
			return missing("reveal")
		}
		if s.setup == nil {
			return missing("arbitrating setup")
		}
		if s.buySig == nil {
			return missing("buy signature")
		}
	default:
		return fmt.Errorf("%w: unknown state byte %d", ErrCorruptCheckpoint, uint8(s.state))
	}
	return nil
}
