package hash

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farcaster-project/farcaster-go/consensus"
)

type rawValue []byte

func (v rawValue) CanonicalBytes() []byte { return v }

type encValue []byte

func (v encValue) ConsensusEncode(e *consensus.Encoder) error {
	return e.PutBytes(v)
}

func TestSum256MatchesCanonicalBytes(t *testing.T) {
	v := rawValue{0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	want := sha256.Sum256(v)
	require.Equal(t, want, Sum256(v))
}

func TestSum256EncodableMatchesEncoding(t *testing.T) {
	v := encValue{0x01, 0x02, 0x03}
	got, err := Sum256Encodable(v)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256([]byte(v)), got)
}

func TestHasherDeterministic(t *testing.T) {
	h := New256()
	h.Write(rawValue{0x01, 0x02})
	h.Write(rawValue{0x03})
	first, err := h.Sum()
	require.NoError(t, err)

	h.Reset()
	h.WriteRaw([]byte{0x01, 0x02, 0x03})
	second, err := h.Sum()
	require.NoError(t, err)
	require.Equal(t, first, second)
}
