package negotiation

import (
	"bytes"
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/role"
)

// SerializedOffer mirrors Offer with the chain-dependent values kept as raw
// canonical bytes, so offers of any chain pair can be routed and inspected
// without binding the concrete types.
type SerializedOffer struct {
	Network           blockchain.Network
	Arbitrating       blockchain.AssetID
	Accordant         blockchain.AssetID
	ArbitratingAmount []byte
	AccordantAmount   []byte
	CancelTimelock    []byte
	PunishTimelock    []byte
	FeeStrategy       blockchain.SerializedFeeStrategy
	MakerRole         role.SwapRole
}

// Serialize converts an offer into its type-erased mirror. The wire bytes of
// both forms are identical.
func (o *Offer) Serialize() (*SerializedOffer, error) {
	data, err := consensus.Serialize(o)
	if err != nil {
		return nil, err
	}
	return consensus.Deserialize(data, DecodeSerializedOffer)
}

func (s *SerializedOffer) ConsensusEncode(e *consensus.Encoder) error {
	if err := s.Network.ConsensusEncode(e); err != nil {
		return err
	}
	if err := s.Arbitrating.ConsensusEncode(e); err != nil {
		return err
	}
	if err := s.Accordant.ConsensusEncode(e); err != nil {
		return err
	}
	if err := e.PutVarBytes(s.ArbitratingAmount); err != nil {
		return err
	}
	if err := e.PutVarBytes(s.AccordantAmount); err != nil {
		return err
	}
	if err := e.PutVarBytes(s.CancelTimelock); err != nil {
		return err
	}
	if err := e.PutVarBytes(s.PunishTimelock); err != nil {
		return err
	}
	if err := s.FeeStrategy.ConsensusEncode(e); err != nil {
		return err
	}
	return s.MakerRole.ConsensusEncode(e)
}

// DecodeSerializedOffer reads an offer of any chain pair, keeping the
// chain-dependent values as raw bytes. Unknown asset codes are accepted;
// the reserved code is not.
func DecodeSerializedOffer(d *consensus.Decoder) (*SerializedOffer, error) {
	network, err := blockchain.DecodeNetwork(d)
	if err != nil {
		return nil, err
	}
	arID, err := blockchain.DecodeAssetID(d)
	if err != nil {
		return nil, err
	}
	acID, err := blockchain.DecodeAssetID(d)
	if err != nil {
		return nil, err
	}
	arbitratingAmount, err := d.VarBytes()
	if err != nil {
		return nil, fmt.Errorf("decoding arbitrating amount: %w", err)
	}
	accordantAmount, err := d.VarBytes()
	if err != nil {
		return nil, fmt.Errorf("decoding accordant amount: %w", err)
	}
	cancelTimelock, err := d.VarBytes()
	if err != nil {
		return nil, fmt.Errorf("decoding cancel timelock: %w", err)
	}
	punishTimelock, err := d.VarBytes()
	if err != nil {
		return nil, fmt.Errorf("decoding punish timelock: %w", err)
	}
	feeStrategy, err := blockchain.DecodeSerializedFeeStrategy(d)
	if err != nil {
		return nil, fmt.Errorf("decoding fee strategy: %w", err)
	}
	makerRole, err := role.DecodeSwapRole(d)
	if err != nil {
		return nil, err
	}
	return &SerializedOffer{
		Network:           network,
		Arbitrating:       arID,
		Accordant:         acID,
		ArbitratingAmount: arbitratingAmount,
		AccordantAmount:   accordantAmount,
		CancelTimelock:    cancelTimelock,
		PunishTimelock:    punishTimelock,
		FeeStrategy:       feeStrategy,
		MakerRole:         makerRole,
	}, nil
}

// DecodeSerializedPublicOffer reads a public offer of any chain pair after
// checking the magic bytes.
func DecodeSerializedPublicOffer(d *consensus.Decoder) (Version, *SerializedOffer, error) {
	magic, err := d.Bytes(len(MagicBytes))
	if err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(magic, MagicBytes[:]) {
		return 0, nil, ErrIncorrectMagicBytes
	}
	version, err := DecodeVersion(d)
	if err != nil {
		return 0, nil, err
	}
	offer, err := DecodeSerializedOffer(d)
	if err != nil {
		return 0, nil, err
	}
	return version, offer, nil
}
