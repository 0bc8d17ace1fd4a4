package cryptocore

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey runs HKDF-SHA-512 over secret, salt, and info, filling a
// keyLen-byte output (spec §4.2 fixes HKDF's hash to SHA-512 throughout,
// unlike the teacher's SHA-256 session-key derivation).
func DeriveKey(secret, salt, info []byte, keyLen int) ([]byte, error) {
	r := hkdf.New(sha512.New, secret, salt, info)
	out := make([]byte, keyLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractPRK runs only the HKDF-Extract step, producing a pseudorandom key
// used to seed the Paillier prime-generation DRBG (spec §4.7).
func ExtractPRK(secret, salt []byte) []byte {
	return hkdf.Extract(sha512.New, secret, salt)
}
