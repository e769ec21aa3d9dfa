package blockchain

import (
	"errors"
	"fmt"

	"github.com/farcaster-project/farcaster-go/consensus"
)

// Fee strategy application errors.
var (
	ErrMissingInputsMetadata  = errors.New("missing inputs metadata")
	ErrAmountOfFeeTooHigh     = errors.New("amount of fee too high")
	ErrNotEnoughAssets        = errors.New("not enough assets")
	ErrMultiOutputUnsupported = errors.New("multi output transactions are not supported")
	ErrInvertedFeeRange       = errors.New("fee range end is smaller than start")
)

// FeePolitic selects which bound to apply when a strategy allows a range.
// It is local-only and never crosses the wire.
type FeePolitic uint8

const (
	// Aggressive applies the minimum fee allowed by the strategy.
	Aggressive FeePolitic = iota
	// Conservative applies the maximum fee allowed by the strategy.
	Conservative
)

// FeeStrategyKind is the wire discriminant of a fee strategy.
type FeeStrategyKind uint8

const (
	StrategyFixed FeeStrategyKind = 0x01
	StrategyRange FeeStrategyKind = 0x02
)

// FeeStrategy is the fee rule included in an offer so both parties can verify
// transaction fees upon reception.
type FeeStrategy struct {
	Kind  FeeStrategyKind
	Fixed FeeUnit // set for StrategyFixed
	Start FeeUnit // set for StrategyRange
	End   FeeUnit // set for StrategyRange
}

// FixedFee creates a fixed fee strategy.
func FixedFee(fee FeeUnit) FeeStrategy {
	return FeeStrategy{Kind: StrategyFixed, Fixed: fee}
}

// RangeFee creates a range fee strategy; the range must not be inverted.
func RangeFee(start, end FeeUnit) (FeeStrategy, error) {
	if end.Less(start) {
		return FeeStrategy{}, ErrInvertedFeeRange
	}
	return FeeStrategy{Kind: StrategyRange, Start: start, End: end}, nil
}

// Unit resolves the strategy to a single fee unit under the given politic.
func (s FeeStrategy) Unit(politic FeePolitic) FeeUnit {
	if s.Kind == StrategyFixed {
		return s.Fixed
	}
	if politic == Aggressive {
		return s.Start
	}
	return s.End
}

func (s FeeStrategy) ConsensusEncode(e *consensus.Encoder) error {
	if err := e.PutU8(uint8(s.Kind)); err != nil {
		return err
	}
	switch s.Kind {
	case StrategyFixed:
		return e.PutCanonical(s.Fixed)
	case StrategyRange:
		if err := e.PutCanonical(s.Start); err != nil {
			return err
		}
		return e.PutCanonical(s.End)
	default:
		return fmt.Errorf("%w: fee strategy tag %#02x", consensus.ErrUnknownType, uint8(s.Kind))
	}
}

// DecodeFeeStrategy reads a fee strategy, parsing units with the arbitrating
// chain's fee capability.
func DecodeFeeStrategy(d *consensus.Decoder, fee Fee) (FeeStrategy, error) {
	tag, err := d.U8()
	if err != nil {
		return FeeStrategy{}, err
	}
	switch FeeStrategyKind(tag) {
	case StrategyFixed:
		unit, err := consensus.DecodeCanonical(d, fee.DecodeFeeUnit)
		if err != nil {
			return FeeStrategy{}, err
		}
		return FixedFee(unit), nil
	case StrategyRange:
		start, err := consensus.DecodeCanonical(d, fee.DecodeFeeUnit)
		if err != nil {
			return FeeStrategy{}, err
		}
		end, err := consensus.DecodeCanonical(d, fee.DecodeFeeUnit)
		if err != nil {
			return FeeStrategy{}, err
		}
		return RangeFee(start, end)
	default:
		return FeeStrategy{}, fmt.Errorf("%w: fee strategy tag %#02x", consensus.ErrUnknownType, tag)
	}
}

// SerializedFeeStrategy mirrors FeeStrategy with the unit encodings kept as
// raw bytes, for inspection without knowledge of the concrete chain.
type SerializedFeeStrategy struct {
	Kind  FeeStrategyKind
	Fixed []byte
	Start []byte
	End   []byte
}

func (s SerializedFeeStrategy) ConsensusEncode(e *consensus.Encoder) error {
	if err := e.PutU8(uint8(s.Kind)); err != nil {
		return err
	}
	switch s.Kind {
	case StrategyFixed:
		return e.PutVarBytes(s.Fixed)
	case StrategyRange:
		if err := e.PutVarBytes(s.Start); err != nil {
			return err
		}
		return e.PutVarBytes(s.End)
	default:
		return fmt.Errorf("%w: fee strategy tag %#02x", consensus.ErrUnknownType, uint8(s.Kind))
	}
}

func DecodeSerializedFeeStrategy(d *consensus.Decoder) (SerializedFeeStrategy, error) {
	tag, err := d.U8()
	if err != nil {
		return SerializedFeeStrategy{}, err
	}
	switch FeeStrategyKind(tag) {
	case StrategyFixed:
		raw, err := d.VarBytes()
		if err != nil {
			return SerializedFeeStrategy{}, err
		}
		return SerializedFeeStrategy{Kind: StrategyFixed, Fixed: raw}, nil
	case StrategyRange:
		start, err := d.VarBytes()
		if err != nil {
			return SerializedFeeStrategy{}, err
		}
		end, err := d.VarBytes()
		if err != nil {
			return SerializedFeeStrategy{}, err
		}
		return SerializedFeeStrategy{Kind: StrategyRange, Start: start, End: end}, nil
	default:
		return SerializedFeeStrategy{}, fmt.Errorf("%w: fee strategy tag %#02x", consensus.ErrUnknownType, tag)
	}
}
