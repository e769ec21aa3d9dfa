/*
Package protocol implements the swap message set and the per-session state
machine driving a commit/reveal key exchange followed by the arbitrating
transaction setup and signature exchange.

The package performs no I/O and no curve math. Signature and proof
verification is delegated to an Engine supplied by the caller; message bytes
are produced and consumed through the consensus encoding.
*/
package protocol

import (
	"bytes"
	"fmt"

	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/crypto"
	"github.com/farcaster-project/farcaster-go/role"
)

// MessageType is the u16 frame discriminant preceding every message body.
type MessageType uint16

const (
	TypeCommitAliceSessionParams  MessageType = 0x0001
	TypeCommitBobSessionParams    MessageType = 0x0002
	TypeRevealAliceSessionParams  MessageType = 0x0003
	TypeRevealBobSessionParams    MessageType = 0x0004
	TypeCoreArbitratingSetup      MessageType = 0x0005
	TypeRefundProcedureSignatures MessageType = 0x0006
	TypeBuyProcedureSignature     MessageType = 0x0007
	TypeAbort                     MessageType = 0x0008
)

// Message is one protocol message, encodable into a typed frame.
type Message interface {
	consensus.Encodable
	MsgType() MessageType
}

// EncodeMessage writes the message type followed by the message body.
func EncodeMessage(e *consensus.Encoder, m Message) error {
	if err := e.PutU16(uint16(m.MsgType())); err != nil {
		return err
	}
	return m.ConsensusEncode(e)
}

// SerializeMessage returns the framed encoding of m.
func SerializeMessage(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeMessage(consensus.NewEncoder(&buf), m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMessage reads one framed message for the bound chain pair.
func DecodeMessage(d *consensus.Decoder, ar role.Arbitrating, ac role.Accordant) (Message, error) {
	raw, err := d.U16()
	if err != nil {
		return nil, err
	}
	switch MessageType(raw) {
	case TypeCommitAliceSessionParams:
		return DecodeCommitAliceSessionParams(d)
	case TypeCommitBobSessionParams:
		return DecodeCommitBobSessionParams(d)
	case TypeRevealAliceSessionParams:
		return DecodeRevealAliceSessionParams(d, ar, ac)
	case TypeRevealBobSessionParams:
		return DecodeRevealBobSessionParams(d, ar, ac)
	case TypeCoreArbitratingSetup:
		return DecodeCoreArbitratingSetup(d, ar)
	case TypeRefundProcedureSignatures:
		return DecodeRefundProcedureSignatures(d, ar)
	case TypeBuyProcedureSignature:
		return DecodeBuyProcedureSignature(d, ar)
	case TypeAbort:
		return DecodeAbort(d)
	default:
		return nil, fmt.Errorf("%w: message type %#04x", consensus.ErrUnknownType, raw)
	}
}

// DeserializeMessage decodes a framed message, rejecting trailing bytes.
func DeserializeMessage(data []byte, ar role.Arbitrating, ac role.Accordant) (Message, error) {
	return consensus.Deserialize(data, func(d *consensus.Decoder) (Message, error) {
		return DecodeMessage(d, ar, ac)
	})
}

// CommitAliceSessionParams carries the commitments of all of Alice's session
// keys; no raw key material crosses the wire at this step.
type CommitAliceSessionParams struct {
	Buy     crypto.Commitment
	Cancel  crypto.Commitment
	Refund  crypto.Commitment
	Punish  crypto.Commitment
	Adaptor crypto.Commitment
	Spend   crypto.Commitment
	View    crypto.Commitment
}

func (*CommitAliceSessionParams) MsgType() MessageType {
	return TypeCommitAliceSessionParams
}

func (m *CommitAliceSessionParams) ConsensusEncode(e *consensus.Encoder) error {
	for _, c := range []crypto.Commitment{m.Buy, m.Cancel, m.Refund, m.Punish, m.Adaptor, m.Spend, m.View} {
		if err := c.ConsensusEncode(e); err != nil {
			return err
		}
	}
	return nil
}

func DecodeCommitAliceSessionParams(d *consensus.Decoder) (*CommitAliceSessionParams, error) {
	var m CommitAliceSessionParams
	for _, c := range []*crypto.Commitment{&m.Buy, &m.Cancel, &m.Refund, &m.Punish, &m.Adaptor, &m.Spend, &m.View} {
		v, err := crypto.DecodeCommitment(d)
		if err != nil {
			return nil, err
		}
		*c = v
	}
	return &m, nil
}

// CommitBobSessionParams is Bob's commit message. Bob holds no punish key;
// the punish path pays Alice.
type CommitBobSessionParams struct {
	Buy     crypto.Commitment
	Cancel  crypto.Commitment
	Refund  crypto.Commitment
	Adaptor crypto.Commitment
	Spend   crypto.Commitment
	View    crypto.Commitment
}

func (*CommitBobSessionParams) MsgType() MessageType {
	return TypeCommitBobSessionParams
}

func (m *CommitBobSessionParams) ConsensusEncode(e *consensus.Encoder) error {
	for _, c := range []crypto.Commitment{m.Buy, m.Cancel, m.Refund, m.Adaptor, m.Spend, m.View} {
		if err := c.ConsensusEncode(e); err != nil {
			return err
		}
	}
	return nil
}

func DecodeCommitBobSessionParams(d *consensus.Decoder) (*CommitBobSessionParams, error) {
	var m CommitBobSessionParams
	for _, c := range []*crypto.Commitment{&m.Buy, &m.Cancel, &m.Refund, &m.Adaptor, &m.Spend, &m.View} {
		v, err := crypto.DecodeCommitment(d)
		if err != nil {
			return nil, err
		}
		*c = v
	}
	return &m, nil
}

// RevealAliceSessionParams opens Alice's commitments: the arbitrating public
// keys and destination address, the accordant spend key, the shared private
// view key, and the cross-group proof binding adaptor to spend.
type RevealAliceSessionParams struct {
	Buy     crypto.PublicKey
	Cancel  crypto.PublicKey
	Refund  crypto.PublicKey
	Punish  crypto.PublicKey
	Adaptor crypto.PublicKey
	Address blockchain.Address
	Spend   crypto.PublicKey
	View    crypto.SharedPrivateKey
	Proof   crypto.Proof
}

func (*RevealAliceSessionParams) MsgType() MessageType {
	return TypeRevealAliceSessionParams
}

func (m *RevealAliceSessionParams) ConsensusEncode(e *consensus.Encoder) error {
	for _, v := range []consensus.Canonical{m.Buy, m.Cancel, m.Refund, m.Punish, m.Adaptor, m.Address, m.Spend, m.View, m.Proof} {
		if err := e.PutCanonical(v); err != nil {
			return err
		}
	}
	return nil
}

// Commitments computes the commit message these parameters open. The address
// is not committed; it plays no role in key selection.
func (m *RevealAliceSessionParams) Commitments() *CommitAliceSessionParams {
	return &CommitAliceSessionParams{
		Buy:     crypto.Commit(m.Buy),
		Cancel:  crypto.Commit(m.Cancel),
		Refund:  crypto.Commit(m.Refund),
		Punish:  crypto.Commit(m.Punish),
		Adaptor: crypto.Commit(m.Adaptor),
		Spend:   crypto.Commit(m.Spend),
		View:    crypto.Commit(m.View),
	}
}

func DecodeRevealAliceSessionParams(d *consensus.Decoder, ar role.Arbitrating, ac role.Accordant) (*RevealAliceSessionParams, error) {
	var m RevealAliceSessionParams
	var err error
	if m.Buy, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding buy key: %w", err)
	}
	if m.Cancel, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding cancel key: %w", err)
	}
	if m.Refund, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding refund key: %w", err)
	}
	if m.Punish, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding punish key: %w", err)
	}
	if m.Adaptor, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding adaptor key: %w", err)
	}
	if m.Address, err = consensus.DecodeCanonical(d, ar.DecodeAddress); err != nil {
		return nil, fmt.Errorf("decoding address: %w", err)
	}
	if m.Spend, err = consensus.DecodeCanonical(d, ac.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding spend key: %w", err)
	}
	if m.View, err = consensus.DecodeCanonical(d, ac.DecodeSharedPrivateKey); err != nil {
		return nil, fmt.Errorf("decoding view key: %w", err)
	}
	if m.Proof, err = consensus.DecodeCanonical(d, ar.DecodeProof); err != nil {
		return nil, fmt.Errorf("decoding proof: %w", err)
	}
	return &m, nil
}

// RevealBobSessionParams opens Bob's commitments.
type RevealBobSessionParams struct {
	Buy     crypto.PublicKey
	Cancel  crypto.PublicKey
	Refund  crypto.PublicKey
	Adaptor crypto.PublicKey
	Address blockchain.Address
	Spend   crypto.PublicKey
	View    crypto.SharedPrivateKey
	Proof   crypto.Proof
}

func (*RevealBobSessionParams) MsgType() MessageType {
	return TypeRevealBobSessionParams
}

func (m *RevealBobSessionParams) ConsensusEncode(e *consensus.Encoder) error {
	for _, v := range []consensus.Canonical{m.Buy, m.Cancel, m.Refund, m.Adaptor, m.Address, m.Spend, m.View, m.Proof} {
		if err := e.PutCanonical(v); err != nil {
			return err
		}
	}
	return nil
}

// Commitments computes the commit message these parameters open.
func (m *RevealBobSessionParams) Commitments() *CommitBobSessionParams {
	return &CommitBobSessionParams{
		Buy:     crypto.Commit(m.Buy),
		Cancel:  crypto.Commit(m.Cancel),
		Refund:  crypto.Commit(m.Refund),
		Adaptor: crypto.Commit(m.Adaptor),
		Spend:   crypto.Commit(m.Spend),
		View:    crypto.Commit(m.View),
	}
}

func DecodeRevealBobSessionParams(d *consensus.Decoder, ar role.Arbitrating, ac role.Accordant) (*RevealBobSessionParams, error) {
	var m RevealBobSessionParams
	var err error
	if m.Buy, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding buy key: %w", err)
	}
	if m.Cancel, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding cancel key: %w", err)
	}
	if m.Refund, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding refund key: %w", err)
	}
	if m.Adaptor, err = consensus.DecodeCanonical(d, ar.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding adaptor key: %w", err)
	}
	if m.Address, err = consensus.DecodeCanonical(d, ar.DecodeAddress); err != nil {
		return nil, fmt.Errorf("decoding address: %w", err)
	}
	if m.Spend, err = consensus.DecodeCanonical(d, ac.DecodePublicKey); err != nil {
		return nil, fmt.Errorf("decoding spend key: %w", err)
	}
	if m.View, err = consensus.DecodeCanonical(d, ac.DecodeSharedPrivateKey); err != nil {
		return nil, fmt.Errorf("decoding view key: %w", err)
	}
	if m.Proof, err = consensus.DecodeCanonical(d, ar.DecodeProof); err != nil {
		return nil, fmt.Errorf("decoding proof: %w", err)
	}
	return &m, nil
}

// CoreArbitratingSetup carries Bob's partially signed lock, cancel and refund
// transactions plus his signature on the cancel transaction.
type CoreArbitratingSetup struct {
	Lock      blockchain.PartialTransaction
	Cancel    blockchain.PartialTransaction
	Refund    blockchain.PartialTransaction
	CancelSig crypto.Signature
}

func (*CoreArbitratingSetup) MsgType() MessageType {
	return TypeCoreArbitratingSetup
}

func (m *CoreArbitratingSetup) ConsensusEncode(e *consensus.Encoder) error {
	for _, v := range []consensus.Canonical{m.Lock, m.Cancel, m.Refund, m.CancelSig} {
		if err := e.PutCanonical(v); err != nil {
			return err
		}
	}
	return nil
}

func DecodeCoreArbitratingSetup(d *consensus.Decoder, ar role.Arbitrating) (*CoreArbitratingSetup, error) {
	var m CoreArbitratingSetup
	var err error
	if m.Lock, err = consensus.DecodeCanonical(d, ar.DecodePartialTransaction); err != nil {
		return nil, fmt.Errorf("decoding lock transaction: %w", err)
	}
	if m.Cancel, err = consensus.DecodeCanonical(d, ar.DecodePartialTransaction); err != nil {
		return nil, fmt.Errorf("decoding cancel transaction: %w", err)
	}
	if m.Refund, err = consensus.DecodeCanonical(d, ar.DecodePartialTransaction); err != nil {
		return nil, fmt.Errorf("decoding refund transaction: %w", err)
	}
	if m.CancelSig, err = consensus.DecodeCanonical(d, ar.DecodeSignature); err != nil {
		return nil, fmt.Errorf("decoding cancel signature: %w", err)
	}
	return &m, nil
}

// RefundProcedureSignatures carries Alice's signature on the cancel
// transaction and her adaptor signature on the refund transaction.
type RefundProcedureSignatures struct {
	CancelSig        crypto.Signature
	RefundAdaptorSig crypto.AdaptorSignature
}

func (*RefundProcedureSignatures) MsgType() MessageType {
	return TypeRefundProcedureSignatures
}

func (m *RefundProcedureSignatures) ConsensusEncode(e *consensus.Encoder) error {
	if err := e.PutCanonical(m.CancelSig); err != nil {
		return err
	}
	return e.PutCanonical(m.RefundAdaptorSig)
}

func DecodeRefundProcedureSignatures(d *consensus.Decoder, ar role.Arbitrating) (*RefundProcedureSignatures, error) {
	var m RefundProcedureSignatures
	var err error
	if m.CancelSig, err = consensus.DecodeCanonical(d, ar.DecodeSignature); err != nil {
		return nil, fmt.Errorf("decoding cancel signature: %w", err)
	}
	if m.RefundAdaptorSig, err = consensus.DecodeCanonical(d, ar.DecodeAdaptorSignature); err != nil {
		return nil, fmt.Errorf("decoding refund adaptor signature: %w", err)
	}
	return &m, nil
}

// BuyProcedureSignature carries the buy transaction and Bob's adaptor
// signature on it. Completing the adaptor signature exposes the secret Bob
// needs to claim the accordant funds; that completion is the atomicity
// mechanism of the swap.
type BuyProcedureSignature struct {
	Buy           blockchain.PartialTransaction
	BuyAdaptorSig crypto.AdaptorSignature
}

func (*BuyProcedureSignature) MsgType() MessageType {
	return TypeBuyProcedureSignature
}

func (m *BuyProcedureSignature) ConsensusEncode(e *consensus.Encoder) error {
	if err := e.PutCanonical(m.Buy); err != nil {
		return err
	}
	return e.PutCanonical(m.BuyAdaptorSig)
}

func DecodeBuyProcedureSignature(d *consensus.Decoder, ar role.Arbitrating) (*BuyProcedureSignature, error) {
	var m BuyProcedureSignature
	var err error
	if m.Buy, err = consensus.DecodeCanonical(d, ar.DecodePartialTransaction); err != nil {
		return nil, fmt.Errorf("decoding buy transaction: %w", err)
	}
	if m.BuyAdaptorSig, err = consensus.DecodeCanonical(d, ar.DecodeAdaptorSignature); err != nil {
		return nil, fmt.Errorf("decoding buy adaptor signature: %w", err)
	}
	return &m, nil
}

// Abort terminates a session from either side. It is never answered. The
// reason is free-form; local validation failures are not echoed to the
// counterparty, so a party probing why a swap failed learns nothing beyond
// what the sender chooses to disclose.
type Abort struct {
	Reason *string
}

func (*Abort) MsgType() MessageType {
	return TypeAbort
}

func (m *Abort) ConsensusEncode(e *consensus.Encoder) error {
	if m.Reason == nil {
		return e.PutU8(0x00)
	}
	if err := e.PutU8(0x01); err != nil {
		return err
	}
	return e.PutVarBytes([]byte(*m.Reason))
}

func DecodeAbort(d *consensus.Decoder) (*Abort, error) {
	tag, err := d.U8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		return &Abort{}, nil
	case 0x01:
		b, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		reason := string(b)
		return &Abort{Reason: &reason}, nil
	default:
		return nil, fmt.Errorf("%w: option tag %#02x", consensus.ErrUnknownType, tag)
	}
}
