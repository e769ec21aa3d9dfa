package role

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/consensus"
)

func TestSwapRoleRoundTrip(t *testing.T) {
	for _, r := range []SwapRole{Alice, Bob} {
		data, err := consensus.Serialize(r)
		require.NoError(t, err)
		require.Equal(t, []byte{uint8(r)}, data)

		got, err := consensus.Deserialize(data, func(d *consensus.Decoder) (SwapRole, error) {
			return DecodeSwapRole(d)
		})
		require.NoError(t, err)
		require.Equal(t, r, got)
	}
}

func TestSwapRoleUnknownTag(t *testing.T) {
	_, err := consensus.Deserialize([]byte{0x03}, func(d *consensus.Decoder) (SwapRole, error) {
		return DecodeSwapRole(d)
	})
	require.ErrorIs(t, err, consensus.ErrUnknownType)
}

func TestSwapRoleOther(t *testing.T) {
	require.Equal(t, Bob, Alice.Other())
	require.Equal(t, Alice, Bob.Other())
}
