package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/consensus"
)

func TestNetworkTagRoundTrip(t *testing.T) {
	for _, n := range []Network{Mainnet, Testnet, Local} {
		data, err := consensus.Serialize(n)
		require.NoError(t, err)
		require.Equal(t, []byte{uint8(n)}, data)

		got, err := consensus.Deserialize(data, func(d *consensus.Decoder) (Network, error) {
			return DecodeNetwork(d)
		})
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestNetworkUnknownTag(t *testing.T) {
	for _, tag := range []byte{0x00, 0x04, 0xFF} {
		_, err := consensus.Deserialize([]byte{tag}, func(d *consensus.Decoder) (Network, error) {
			return DecodeNetwork(d)
		})
		require.ErrorIs(t, err, consensus.ErrUnknownType, "tag %#02x", tag)
	}
}

func TestAssetIDReservedCodeRejected(t *testing.T) {
	data, err := consensus.Serialize(ReservedAssetID)
	require.NoError(t, err)

	_, err = consensus.Deserialize(data, func(d *consensus.Decoder) (AssetID, error) {
		return DecodeAssetID(d)
	})
	require.ErrorIs(t, err, ErrReservedAsset)
}

func TestAssetIDUnknownCodeCarriedThrough(t *testing.T) {
	data, err := consensus.Serialize(AssetID(0x8000003C)) // unregistered chain
	require.NoError(t, err)

	got, err := consensus.Deserialize(data, func(d *consensus.Decoder) (AssetID, error) {
		return DecodeAssetID(d)
	})
	require.NoError(t, err)
	require.Equal(t, AssetID(0x8000003C), got)
}
