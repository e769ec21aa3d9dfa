/*
Package negotiation implements offers and their publishable framing.

A maker builds an Offer through the Buy or Sell builder, wraps it into a
versioned PublicOffer and publishes it on a discovery channel; a taker decodes
it, which fixes the concrete (arbitrating, accordant) chain pair for the
session.
*/
package negotiation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/hash"
	"github.com/farcaster-project/farcaster-go/role"
)

// MagicBytes is the six-byte prefix of every public offer.
var MagicBytes = [6]byte{'F', 'C', 'S', 'W', 'A', 'P'}

var (
	// ErrIncorrectMagicBytes is returned when a public offer does not start
	// with MagicBytes. It is raised before any other byte is interpreted.
	ErrIncorrectMagicBytes = errors.New("incorrect magic bytes")

	// ErrIncompleteOffer is returned by a builder finalization when at least
	// one required field is unset.
	ErrIncompleteOffer = errors.New("incomplete offer")

	// ErrWrongAsset is returned when the asset code in an offer does not
	// match the chain pair the decoder was bound to.
	ErrWrongAsset = errors.New("asset code does not match the bound chain")
)

// Version carries the public offer version and activated features, if any.
type Version uint16

// NewV1 returns a version 1 public offer version.
func NewV1() Version {
	return Version(1)
}

func (v Version) ToU16() uint16 {
	return uint16(v)
}

func (v Version) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutU16(uint16(v))
}

func DecodeVersion(d *consensus.Decoder) (Version, error) {
	raw, err := d.U16()
	return Version(raw), err
}

// Offer references all the data a taker needs to evaluate a trade. It is
// immutable once constructed; build one with the Buy or Sell builder.
type Offer struct {
	// Network both chains are used on.
	Network blockchain.Network
	// The chosen arbitrating chain.
	Arbitrating role.Arbitrating
	// The chosen accordant chain.
	Accordant role.Accordant
	// Amount of arbitrating assets exchanged.
	ArbitratingAmount blockchain.Amount
	// Amount of accordant assets exchanged.
	AccordantAmount blockchain.Amount
	// Cancel timelock parameter of the arbitrating chain.
	CancelTimelock blockchain.Timelock
	// Punish timelock parameter of the arbitrating chain.
	PunishTimelock blockchain.Timelock
	// Fee strategy for the arbitrating transactions.
	FeeStrategy blockchain.FeeStrategy
	// The future maker swap role.
	MakerRole role.SwapRole
}

func (o *Offer) ConsensusEncode(e *consensus.Encoder) error {
	if err := o.Network.ConsensusEncode(e); err != nil {
		return err
	}
	if err := o.Arbitrating.AssetID().ConsensusEncode(e); err != nil {
		return err
	}
	if err := o.Accordant.AssetID().ConsensusEncode(e); err != nil {
		return err
	}
	if err := e.PutCanonical(o.ArbitratingAmount); err != nil {
		return err
	}
	if err := e.PutCanonical(o.AccordantAmount); err != nil {
		return err
	}
	if err := e.PutCanonical(o.CancelTimelock); err != nil {
		return err
	}
	if err := e.PutCanonical(o.PunishTimelock); err != nil {
		return err
	}
	if err := o.FeeStrategy.ConsensusEncode(e); err != nil {
		return err
	}
	return o.MakerRole.ConsensusEncode(e)
}

// DecodeOffer reads an offer for the bound chain pair. Asset codes in the
// input must match the pair.
func DecodeOffer(d *consensus.Decoder, ar role.Arbitrating, ac role.Accordant) (*Offer, error) {
	network, err := blockchain.DecodeNetwork(d)
	if err != nil {
		return nil, err
	}
	arID, err := blockchain.DecodeAssetID(d)
	if err != nil {
		return nil, err
	}
	if arID != ar.AssetID() {
		return nil, fmt.Errorf("%w: arbitrating %s, expected %s", ErrWrongAsset, arID, ar.AssetID())
	}
	acID, err := blockchain.DecodeAssetID(d)
	if err != nil {
		return nil, err
	}
	if acID != ac.AssetID() {
		return nil, fmt.Errorf("%w: accordant %s, expected %s", ErrWrongAsset, acID, ac.AssetID())
	}
	arbitratingAmount, err := consensus.DecodeCanonical(d, ar.DecodeAmount)
	if err != nil {
		return nil, fmt.Errorf("decoding arbitrating amount: %w", err)
	}
	accordantAmount, err := consensus.DecodeCanonical(d, ac.DecodeAmount)
	if err != nil {
		return nil, fmt.Errorf("decoding accordant amount: %w", err)
	}
	cancelTimelock, err := consensus.DecodeCanonical(d, ar.DecodeTimelock)
	if err != nil {
		return nil, fmt.Errorf("decoding cancel timelock: %w", err)
	}
	punishTimelock, err := consensus.DecodeCanonical(d, ar.DecodeTimelock)
	if err != nil {
		return nil, fmt.Errorf("decoding punish timelock: %w", err)
	}
	feeStrategy, err := blockchain.DecodeFeeStrategy(d, ar)
	if err != nil {
		return nil, fmt.Errorf("decoding fee strategy: %w", err)
	}
	makerRole, err := role.DecodeSwapRole(d)
	if err != nil {
		return nil, err
	}
	return &Offer{
		Network:           network,
		Arbitrating:       ar,
		Accordant:         ac,
		ArbitratingAmount: arbitratingAmount,
		AccordantAmount:   accordantAmount,
		CancelTimelock:    cancelTimelock,
		PunishTimelock:    punishTimelock,
		FeeStrategy:       feeStrategy,
		MakerRole:         makerRole,
	}, nil
}

// ToPublicV1 wraps the offer into a version 1 public offer.
func (o *Offer) ToPublicV1() *PublicOffer {
	return &PublicOffer{Version: NewV1(), Offer: o}
}

// TakerRole returns the swap role of the party accepting this offer.
func (o *Offer) TakerRole() role.SwapRole {
	return o.MakerRole.Other()
}

// PublicOffer is the publishable encoding of an offer: magic bytes, version,
// then the offer itself. It is created once per negotiation and read-only
// afterward.
type PublicOffer struct {
	Version Version
	Offer   *Offer
}

func (p *PublicOffer) ConsensusEncode(e *consensus.Encoder) error {
	if err := e.PutBytes(MagicBytes[:]); err != nil {
		return err
	}
	if err := p.Version.ConsensusEncode(e); err != nil {
		return err
	}
	return p.Offer.ConsensusEncode(e)
}

// ID returns the identity of the public offer: the SHA-256 of its full
// encoding, magic bytes and version included. Orchestration layers key
// published offers and their swap sessions by it.
func (p *PublicOffer) ID() ([32]byte, error) {
	return hash.Sum256Encodable(p)
}

// DecodePublicOffer reads a public offer for the bound chain pair. The magic
// bytes are compared before anything else is interpreted; mismatch fails
// without consuming further input.
func DecodePublicOffer(d *consensus.Decoder, ar role.Arbitrating, ac role.Accordant) (*PublicOffer, error) {
	magic, err := d.Bytes(len(MagicBytes))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, MagicBytes[:]) {
		return nil, ErrIncorrectMagicBytes
	}
	version, err := DecodeVersion(d)
	if err != nil {
		return nil, err
	}
	offer, err := DecodeOffer(d, ar, ac)
	if err != nil {
		return nil, err
	}
	return &PublicOffer{Version: version, Offer: offer}, nil
}
