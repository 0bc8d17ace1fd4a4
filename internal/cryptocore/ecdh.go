package cryptocore

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// SharedSecret computes the ECDH shared secret between priv and pub, the
// input to HKDF for every content-encryption key derived in the ecies and
// paillier layers (spec §4.2, §4.7). btcec.PrivateKey/PublicKey are type
// aliases over the decred secp256k1 types, so GenerateSharedSecret accepts
// them directly.
//
// The returned secret is the 32-byte x-coordinate of the shared point,
// unhashed, as github.com/decred/dcrd/dcrec/secp256k1 returns it; it must
// never be used directly as a symmetric key and must always be passed
// through HKDF first.
func SharedSecret(priv *btcec.PrivateKey, pub *btcec.PublicKey) ([]byte, error) {
	if priv == nil || pub == nil {
		return nil, errs.New(errs.CodeInvalidSharedSecret, "errors.invalidSharedSecret", nil)
	}
	secret := secp256k1.GenerateSharedSecret((*secp256k1.PrivateKey)(priv), (*secp256k1.PublicKey)(pub))
	out := make([]byte, len(secret))
	copy(out, secret)
	return out, nil
}
