package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/consensus"
)

type rawValue []byte

func (v rawValue) CanonicalBytes() []byte { return v }

func TestCommitIsHashOfCanonicalBytes(t *testing.T) {
	v := rawValue{0xDE, 0xAD, 0xBE, 0xEF}
	want := sha256.Sum256(v)
	require.Equal(t, Commitment(want), Commit(v))
}

func TestCommitmentOpens(t *testing.T) {
	v := rawValue{0x01, 0x02, 0x03}
	c := Commit(v)
	require.True(t, c.Opens(v))
	require.False(t, c.Opens(rawValue{0x01, 0x02, 0x04}))
}

func TestCommitmentRoundTrip(t *testing.T) {
	c := Commit(rawValue{0x42})
	data, err := consensus.Serialize(c)
	require.NoError(t, err)
	require.Len(t, data, CommitmentLength)

	got, err := consensus.Deserialize(data, func(d *consensus.Decoder) (Commitment, error) {
		return DecodeCommitment(d)
	})
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestCommitmentFromBytesLength(t *testing.T) {
	_, err := CommitmentFromBytes(make([]byte, 31))
	require.ErrorIs(t, err, ErrInvalidCommitmentLength)
}
