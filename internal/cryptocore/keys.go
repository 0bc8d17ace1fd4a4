// Package cryptocore provides the secp256k1 signing, ECDH, AEAD, and
// key-derivation primitives every higher layer (ecies, paillier, member)
// is built on (spec §4.1, §4.2).
package cryptocore

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

const (
	// PrivateKeySize is the size of a raw secp256k1 scalar private key.
	PrivateKeySize = 32

	// PublicKeyCompressedSize is the size of a compressed secp256k1 point.
	PublicKeyCompressedSize = 33

	// PublicKeyUncompressedSize is the size of an uncompressed secp256k1 point.
	PublicKeyUncompressedSize = 65

	// SignatureSize is the size of a fixed-length R||S ECDSA signature.
	SignatureSize = 64
)

// KeyPair holds a secp256k1 private key and its derived public key.
type KeyPair struct {
	Private *btcec.PrivateKey
	Public  *btcec.PublicKey
}

// GenerateKeyPair generates a fresh random secp256k1 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("cryptocore: generate private key: %w", err)
	}
	return &KeyPair{Private: priv, Public: priv.PubKey()}, nil
}

// KeyPairFromPrivateBytes reconstructs a keypair from a 32-byte scalar.
func KeyPairFromPrivateBytes(b []byte) (*KeyPair, error) {
	if len(b) != PrivateKeySize {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength",
			map[string]string{"want": "32"})
	}
	priv, pub := btcec.PrivKeyFromBytes(b)
	return &KeyPair{Private: priv, Public: pub}, nil
}

// SerializePrivateKey returns the raw 32-byte scalar.
func SerializePrivateKey(kp *KeyPair) []byte {
	return kp.Private.Serialize()
}

// SerializePublicKeyCompressed returns the 33-byte compressed point, the
// encoding used everywhere a public key crosses a wire boundary (spec §4.1).
func SerializePublicKeyCompressed(pub *btcec.PublicKey) []byte {
	return pub.SerializeCompressed()
}

// SerializePublicKeyUncompressed returns the 65-byte uncompressed point,
// used only for transient wallet interop, never on the wire (spec §9a).
func SerializePublicKeyUncompressed(pub *btcec.PublicKey) []byte {
	return pub.SerializeUncompressed()
}

// ParsePublicKey decodes either a compressed or uncompressed point.
func ParsePublicKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidPublicKeyNotOnCurve, "errors.invalidPublicKeyNotOnCurve", err)
	}
	return pub, nil
}

// Sign produces a deterministic (RFC 6979) low-S ECDSA signature over a
// 32-byte digest, returned as fixed-length R||S (spec §4.1).
func Sign(priv *btcec.PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"want": "32"})
	}
	sig := ecdsa.Sign(priv, digest)
	return signatureToFixedLength(sig), nil
}

// Verify checks a fixed-length R||S ECDSA signature over a 32-byte digest.
func Verify(pub *btcec.PublicKey, digest, sig []byte) (bool, error) {
	if len(digest) != 32 {
		return false, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"want": "32"})
	}
	if len(sig) != SignatureSize {
		return false, errs.New(errs.CodeInvalidSignature, "errors.invalidSignature", nil)
	}
	r := new(btcec.ModNScalar)
	s := new(btcec.ModNScalar)
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false, errs.New(errs.CodeInvalidSignature, "errors.invalidSignature", nil)
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return false, errs.New(errs.CodeInvalidSignature, "errors.invalidSignature", nil)
	}
	parsed := ecdsa.NewSignature(r, s)
	return parsed.Verify(digest, pub), nil
}

// signatureToFixedLength converts btcec's DER signature to a fixed 64-byte
// R||S encoding (no length prefixes, no DER tags) for compact wire framing.
func signatureToFixedLength(sig *ecdsa.Signature) []byte {
	der := sig.Serialize()
	r, s := extractRS(der)
	out := make([]byte, SignatureSize)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out
}

// extractRS pulls R and S scalars out of a DER-encoded ECDSA signature.
func extractRS(der []byte) (*btcec.ModNScalar, *btcec.ModNScalar) {
	offset := 2
	offset++
	rLen := int(der[offset])
	offset++
	rBytes := der[offset : offset+rLen]
	offset += rLen
	offset++
	sLen := int(der[offset])
	offset++
	sBytes := der[offset : offset+sLen]

	if len(rBytes) == 33 && rBytes[0] == 0 {
		rBytes = rBytes[1:]
	}
	if len(sBytes) == 33 && sBytes[0] == 0 {
		sBytes = sBytes[1:]
	}
	rPadded := make([]byte, 32)
	sPadded := make([]byte, 32)
	copy(rPadded[32-len(rBytes):], rBytes)
	copy(sPadded[32-len(sBytes):], sBytes)

	r := new(btcec.ModNScalar)
	s := new(btcec.ModNScalar)
	r.SetByteSlice(rPadded)
	s.SetByteSlice(sPadded)
	return r, s
}
