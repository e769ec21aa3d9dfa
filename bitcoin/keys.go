package bitcoin

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/farcaster-project/farcaster-go/consensus"
	"github.com/farcaster-project/farcaster-go/crypto"
)

// PublicKey is a secp256k1 public key; its canonical encoding is the 33-byte
// compressed SEC form.
type PublicKey struct {
	Key *btcec.PublicKey
}

const compressedKeyLength = 33

func (k PublicKey) CanonicalBytes() []byte {
	return k.Key.SerializeCompressed()
}

func (Bitcoin) DecodePublicKey(b []byte) (crypto.PublicKey, error) {
	if len(b) != compressedKeyLength {
		return nil, fmt.Errorf("bitcoin public key must be %d bytes, got %d", compressedKeyLength, len(b))
	}
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return PublicKey{Key: key}, nil
}

// Signature is a DER-encoded ECDSA signature.
type Signature struct {
	Sig *ecdsa.Signature
}

func (s Signature) CanonicalBytes() []byte {
	return s.Sig.Serialize()
}

func (Bitcoin) DecodeSignature(b []byte) (crypto.Signature, error) {
	sig, err := ecdsa.ParseDERSignature(b)
	if err != nil {
		return nil, fmt.Errorf("parsing DER signature: %w", err)
	}
	// reject non-canonical DER paddings so encode(decode(b)) == b
	if !bytes.Equal(sig.Serialize(), b) {
		return nil, fmt.Errorf("signature encoding is not canonical DER")
	}
	return Signature{Sig: sig}, nil
}

// DLEQProof is an opaque cross-group discrete-log-equality proof produced and
// verified by the external cryptographic engine.
type DLEQProof []byte

func (p DLEQProof) CanonicalBytes() []byte {
	return []byte(p)
}

func (Bitcoin) DecodeProof(b []byte) (crypto.Proof, error) {
	out := make(DLEQProof, len(b))
	copy(out, b)
	return out, nil
}

// AdaptorSignature is an ECDSA adaptor signature: the encrypted signature,
// the adaptor point it is bound to, and the proof that the encryption is
// well formed.
type AdaptorSignature struct {
	Sig   Signature
	Point PublicKey
	DLEQ  DLEQProof
}

func (a AdaptorSignature) CanonicalBytes() []byte {
	var buf bytes.Buffer
	e := consensus.NewEncoder(&buf)
	// writes to a buffer cannot fail
	_ = e.PutVarBytes(a.Sig.CanonicalBytes())
	_ = e.PutBytes(a.Point.CanonicalBytes())
	_ = e.PutVarBytes(a.DLEQ)
	return buf.Bytes()
}

func (b Bitcoin) DecodeAdaptorSignature(data []byte) (crypto.AdaptorSignature, error) {
	return consensus.Deserialize(data, func(d *consensus.Decoder) (crypto.AdaptorSignature, error) {
		sigBytes, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		sig, err := b.DecodeSignature(sigBytes)
		if err != nil {
			return nil, err
		}
		pointBytes, err := d.Bytes(compressedKeyLength)
		if err != nil {
			return nil, err
		}
		point, err := b.DecodePublicKey(pointBytes)
		if err != nil {
			return nil, err
		}
		dleq, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		return AdaptorSignature{
			Sig:   sig.(Signature),
			Point: point.(PublicKey),
			DLEQ:  DLEQProof(dleq),
		}, nil
	})
}
