package negotiation

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/bitcoin"
	"github.com/farcaster-project/farcaster-go/blockchain"
	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/monero"
	"github.com/farcaster-project/farcaster-go/role"
)

const (
	offerHex = "020000008080000080080500000000000000080600000000000000" +
		"040700000004080000000108090000000000000002"
	publicOfferHex = "46435357415001000200000080800000800" +
		"8a08601000000000008c800000000000000040a000000040a000000" +
		"0108140000000000000002"
)

func testOffer(t *testing.T) *Offer {
	t.Helper()
	offer, err := SellSome(bitcoin.New(), bitcoin.AmountFromSat(5)).
		ForSome(monero.New(), monero.AmountFromPico(6)).
		WithTimelocks(bitcoin.NewCSVTimelock(7), bitcoin.NewCSVTimelock(8)).
		WithFee(blockchain.FixedFee(bitcoin.SatPerVByteFromSat(9))).
		On(blockchain.Testnet).
		ToOffer()
	require.NoError(t, err)
	return offer
}

func TestOfferEncoding(t *testing.T) {
	got, err := consensus.SerializeHex(testOffer(t))
	require.NoError(t, err)
	require.Equal(t, offerHex, got)
}

func TestOfferRoundTrip(t *testing.T) {
	offer := testOffer(t)
	data, err := consensus.Serialize(offer)
	require.NoError(t, err)

	decoded, err := consensus.Deserialize(data, func(d *consensus.Decoder) (*Offer, error) {
		return DecodeOffer(d, bitcoin.New(), monero.New())
	})
	require.NoError(t, err)

	redata, err := consensus.Serialize(decoded)
	require.NoError(t, err)
	require.Equal(t, data, redata)
	require.Equal(t, role.Bob, decoded.MakerRole)
	require.Equal(t, role.Alice, decoded.TakerRole())
}

func TestPublicOfferEncoding(t *testing.T) {
	// wrapping the reference offer prepends only the magic bytes and version
	wrapped, err := consensus.SerializeHex(testOffer(t).ToPublicV1())
	require.NoError(t, err)
	require.Equal(t, "464353574150"+"0100"+offerHex, wrapped)

	offer, err := SellSome(bitcoin.New(), bitcoin.AmountFromSat(100_000)).
		ForSome(monero.New(), monero.AmountFromPico(200)).
		WithTimelocks(bitcoin.NewCSVTimelock(10), bitcoin.NewCSVTimelock(10)).
		WithFee(blockchain.FixedFee(bitcoin.SatPerVByteFromSat(20))).
		On(blockchain.Testnet).
		ToOffer()
	require.NoError(t, err)

	got, err := consensus.SerializeHex(offer.ToPublicV1())
	require.NoError(t, err)
	require.Equal(t, publicOfferHex, got)
}

func TestPublicOfferRoundTrip(t *testing.T) {
	pub, err := consensus.DeserializeHex(publicOfferHex, func(d *consensus.Decoder) (*PublicOffer, error) {
		return DecodePublicOffer(d, bitcoin.New(), monero.New())
	})
	require.NoError(t, err)
	require.Equal(t, NewV1(), pub.Version)
	require.Equal(t, bitcoin.AmountFromSat(100_000), pub.Offer.ArbitratingAmount)
	require.Equal(t, monero.AmountFromPico(200), pub.Offer.AccordantAmount)
	require.Equal(t, role.Bob, pub.Offer.MakerRole)
}

func TestPublicOfferID(t *testing.T) {
	pub := testOffer(t).ToPublicV1()

	id, err := pub.ID()
	require.NoError(t, err)

	data, err := consensus.Serialize(pub)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(data), id)

	other, err := consensus.DeserializeHex(publicOfferHex, func(d *consensus.Decoder) (*PublicOffer, error) {
		return DecodePublicOffer(d, bitcoin.New(), monero.New())
	})
	require.NoError(t, err)
	otherID, err := other.ID()
	require.NoError(t, err)
	require.NotEqual(t, id, otherID)
}

func TestPublicOfferRejectsBadMagic(t *testing.T) {
	bad := "47" + publicOfferHex[2:]
	_, err := consensus.DeserializeHex(bad, func(d *consensus.Decoder) (*PublicOffer, error) {
		return DecodePublicOffer(d, bitcoin.New(), monero.New())
	})
	require.ErrorIs(t, err, ErrIncorrectMagicBytes)
}

func TestDecodeOfferRejectsWrongAssetPair(t *testing.T) {
	data, err := consensus.Serialize(testOffer(t))
	require.NoError(t, err)

	// swap the arbitrating asset code for monero's
	copy(data[1:5], []byte{0x80, 0x00, 0x00, 0x80})
	_, err = consensus.Deserialize(data, func(d *consensus.Decoder) (*Offer, error) {
		return DecodeOffer(d, bitcoin.New(), monero.New())
	})
	require.ErrorIs(t, err, ErrWrongAsset)
}

func TestBuilderRoles(t *testing.T) {
	buy, err := BuySome(bitcoin.New(), bitcoin.AmountFromSat(5)).
		With(monero.New(), monero.AmountFromPico(6)).
		WithTimelocks(bitcoin.NewCSVTimelock(7), bitcoin.NewCSVTimelock(8)).
		WithFee(blockchain.FixedFee(bitcoin.SatPerVByteFromSat(9))).
		On(blockchain.Testnet).
		ToOffer()
	require.NoError(t, err)
	require.Equal(t, role.Alice, buy.MakerRole)

	sell := testOffer(t)
	require.Equal(t, role.Bob, sell.MakerRole)
}

func TestBuilderIncomplete(t *testing.T) {
	_, err := BuySome(bitcoin.New(), bitcoin.AmountFromSat(5)).ToOffer()
	require.ErrorIs(t, err, ErrIncompleteOffer)

	_, err = SellSome(bitcoin.New(), bitcoin.AmountFromSat(5)).
		ForSome(monero.New(), monero.AmountFromPico(6)).
		On(blockchain.Testnet).
		ToOffer()
	require.ErrorIs(t, err, ErrIncompleteOffer)
}

func TestSerializedOffer(t *testing.T) {
	offer := testOffer(t)
	serialized, err := offer.Serialize()
	require.NoError(t, err)

	require.Equal(t, blockchain.AssetBitcoin, serialized.Arbitrating)
	require.Equal(t, blockchain.AssetMonero, serialized.Accordant)
	require.Equal(t, bitcoin.AmountFromSat(5).CanonicalBytes(), serialized.ArbitratingAmount)
	require.Equal(t, monero.AmountFromPico(6).CanonicalBytes(), serialized.AccordantAmount)

	// type-erased form encodes to the same wire bytes
	typed, err := consensus.Serialize(offer)
	require.NoError(t, err)
	erased, err := consensus.Serialize(serialized)
	require.NoError(t, err)
	require.Equal(t, typed, erased)
}

func TestSerializedPublicOffer(t *testing.T) {
	type result struct {
		version Version
		offer   *SerializedOffer
	}
	got, err := consensus.DeserializeHex(publicOfferHex,
		func(d *consensus.Decoder) (result, error) {
			v, o, err := DecodeSerializedPublicOffer(d)
			return result{version: v, offer: o}, err
		})
	require.NoError(t, err)
	require.Equal(t, NewV1(), got.version)
	require.Equal(t, blockchain.AssetBitcoin, got.offer.Arbitrating)
	require.Equal(t, role.Bob, got.offer.MakerRole)
}
