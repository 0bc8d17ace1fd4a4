package paillier

import (
	"encoding/binary"
	"math/big"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/securebuffer"
	"github.com/digital-defiance/ecies-lib/internal/utils"
)

// Magic and Version identify a serialized Paillier public key (spec §6:
// "Paillier public key: magic (4) ‖ version (2) ‖ keyId (8) ‖
// length-prefixed n").
const (
	Magic   uint32 = 0x5041494C // "PAIL"
	Version uint16 = 0x0001
)

// SerializePublicKey encodes pub as magic ‖ version ‖ keyId ‖
// length-prefixed n.
func SerializePublicKey(pub *PublicKey) []byte {
	out := make([]byte, 0, 4+2+keyIdSize+8+len(pub.N.Bytes()))
	var magic [4]byte
	binary.BigEndian.PutUint32(magic[:], Magic)
	out = append(out, magic[:]...)
	var version [2]byte
	binary.BigEndian.PutUint16(version[:], Version)
	out = append(out, version[:]...)
	out = append(out, pub.KeyID[:]...)
	out = append(out, utils.EncodeLengthPrefixed(pub.N.Bytes())...)
	return out
}

// ParsePublicKey reverses SerializePublicKey, verifying magic, version,
// and that the embedded keyId matches the one this n derives (spec §4.7:
// "any mismatch fails InvalidGuidBuffer-class errors").
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) < 4+2+keyIdSize {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}
	if binary.BigEndian.Uint32(b[0:4]) != Magic {
		return nil, errs.New(errs.CodeInvalidMagicBytes, "errors.invalidMagicBytes", nil)
	}
	if binary.BigEndian.Uint16(b[4:6]) != Version {
		return nil, errs.New(errs.CodeUnsupportedVersion, "errors.unsupportedVersion", nil)
	}
	var keyID [keyIdSize]byte
	copy(keyID[:], b[6:6+keyIdSize])

	nBytes, _, err := utils.DecodeLengthPrefixed(b[6+keyIdSize:])
	if err != nil {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}
	n := new(big.Int).SetBytes(nBytes)

	wantKeyID := computeKeyID(n)
	if keyID != wantKeyID {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}

	nSq := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, big.NewInt(1))
	return &PublicKey{KeyID: keyID, N: n, NSq: nSq, G: g}, nil
}

// SerializePrivateKey encodes p, q, λ, μ each length-prefixed, then
// wraps the result in a SecureBuffer (spec §4.7's private-key format).
func SerializePrivateKey(priv *PrivateKey) (*securebuffer.SecureBuffer, error) {
	var out []byte
	out = append(out, utils.EncodeLengthPrefixed(priv.P.Bytes())...)
	out = append(out, utils.EncodeLengthPrefixed(priv.Q.Bytes())...)
	out = append(out, utils.EncodeLengthPrefixed(priv.Lambda.Bytes())...)
	out = append(out, utils.EncodeLengthPrefixed(priv.Mu.Bytes())...)
	return securebuffer.New(out)
}

// ParsePrivateKey reverses SerializePrivateKey, reconstructing the public
// key's n, n², and g alongside the private scalars.
func ParsePrivateKey(sb *securebuffer.SecureBuffer) (*PrivateKey, error) {
	raw, err := sb.Value()
	if err != nil {
		return nil, err
	}

	pBytes, consumed, err := utils.DecodeLengthPrefixed(raw)
	if err != nil {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}
	raw = raw[consumed:]

	qBytes, consumed, err := utils.DecodeLengthPrefixed(raw)
	if err != nil {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}
	raw = raw[consumed:]

	lambdaBytes, consumed, err := utils.DecodeLengthPrefixed(raw)
	if err != nil {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}
	raw = raw[consumed:]

	muBytes, _, err := utils.DecodeLengthPrefixed(raw)
	if err != nil {
		return nil, errs.New(errs.CodeDecryptedValueInvalidGuidBuffer, "errors.invalidGuidBuffer", nil)
	}

	p := new(big.Int).SetBytes(pBytes)
	q := new(big.Int).SetBytes(qBytes)
	lambda := new(big.Int).SetBytes(lambdaBytes)
	mu := new(big.Int).SetBytes(muBytes)

	n := new(big.Int).Mul(p, q)
	nSq := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, big.NewInt(1))
	pub := &PublicKey{KeyID: computeKeyID(n), N: n, NSq: nSq, G: g}

	return &PrivateKey{Public: pub, P: p, Q: q, Lambda: lambda, Mu: mu}, nil
}
