package negotiation

import (
	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/role"
)

// Internal state of an offer builder. Fields stay unset until the
// corresponding builder method is called; finalization validates all of them
// atomically so a partial offer never escapes.
type builderState struct {
	network           *blockchain.Network
	arbitrating       role.Arbitrating
	accordant         role.Accordant
	arbitratingAmount blockchain.Amount
	accordantAmount   blockchain.Amount
	cancelTimelock    blockchain.Timelock
	punishTimelock    blockchain.Timelock
	feeStrategy       *blockchain.FeeStrategy
	makerRole         *role.SwapRole
}

func (s *builderState) toOffer() (*Offer, error) {
	if s.network == nil || s.arbitrating == nil || s.accordant == nil ||
		s.arbitratingAmount == nil || s.accordantAmount == nil ||
		s.cancelTimelock == nil || s.punishTimelock == nil ||
		s.feeStrategy == nil || s.makerRole == nil {
		return nil, ErrIncompleteOffer
	}
	return &Offer{
		Network:           *s.network,
		Arbitrating:       s.arbitrating,
		Accordant:         s.accordant,
		ArbitratingAmount: s.arbitratingAmount,
		AccordantAmount:   s.accordantAmount,
		CancelTimelock:    s.cancelTimelock,
		PunishTimelock:    s.punishTimelock,
		FeeStrategy:       *s.feeStrategy,
		MakerRole:         *s.makerRole,
	}, nil
}

// Buy builds an offer from the perspective of a maker buying arbitrating
// assets with accordant assets. For the reverse trade use Sell.
type Buy struct {
	state builderState
}

// BuySome starts a buy offer for the given arbitrating asset and amount the
// maker will receive.
func BuySome(asset role.Arbitrating, amount blockchain.Amount) *Buy {
	b := &Buy{}
	b.state.arbitrating = asset
	b.state.arbitratingAmount = amount
	return b
}

// With sets the accordant asset and amount the maker will send in exchange.
func (b *Buy) With(asset role.Accordant, amount blockchain.Amount) *Buy {
	b.state.accordant = asset
	b.state.accordantAmount = amount
	return b
}

// WithTimelocks sets the cancel and punish timelocks of the proposed offer.
func (b *Buy) WithTimelocks(cancel, punish blockchain.Timelock) *Buy {
	b.state.cancelTimelock = cancel
	b.state.punishTimelock = punish
	return b
}

// WithFee sets the fee strategy of the proposed offer.
func (b *Buy) WithFee(strategy blockchain.FeeStrategy) *Buy {
	b.state.feeStrategy = &strategy
	return b
}

// On sets the network of the proposed offer.
func (b *Buy) On(network blockchain.Network) *Buy {
	b.state.network = &network
	return b
}

// ToOffer finalizes the builder. It fails with ErrIncompleteOffer unless
// every parameter has been set. The maker role is always Alice for a buy
// offer, whatever state the builder accumulated.
func (b *Buy) ToOffer() (*Offer, error) {
	maker := role.Alice
	b.state.makerRole = &maker
	return b.state.toOffer()
}

// Sell builds an offer from the perspective of a maker selling arbitrating
// assets for accordant assets. For the reverse trade use Buy.
type Sell struct {
	state builderState
}

// SellSome starts a sell offer for the given arbitrating asset and amount the
// maker will send.
func SellSome(asset role.Arbitrating, amount blockchain.Amount) *Sell {
	s := &Sell{}
	s.state.arbitrating = asset
	s.state.arbitratingAmount = amount
	return s
}

// ForSome sets the accordant asset and amount the maker will receive in
// exchange.
func (s *Sell) ForSome(asset role.Accordant, amount blockchain.Amount) *Sell {
	s.state.accordant = asset
	s.state.accordantAmount = amount
	return s
}

// WithTimelocks sets the cancel and punish timelocks of the proposed offer.
func (s *Sell) WithTimelocks(cancel, punish blockchain.Timelock) *Sell {
	s.state.cancelTimelock = cancel
	s.state.punishTimelock = punish
	return s
}

// WithFee sets the fee strategy of the proposed offer.
func (s *Sell) WithFee(strategy blockchain.FeeStrategy) *Sell {
	s.state.feeStrategy = &strategy
	return s
}

// On sets the network of the proposed offer.
func (s *Sell) On(network blockchain.Network) *Sell {
	s.state.network = &network
	return s
}

// ToOffer finalizes the builder. It fails with ErrIncompleteOffer unless
// every parameter has been set. The maker role is always Bob for a sell
// offer, whatever state the builder accumulated.
func (s *Sell) ToOffer() (*Offer, error) {
	maker := role.Bob
	s.state.makerRole = &maker
	return s.state.toOffer()
}
