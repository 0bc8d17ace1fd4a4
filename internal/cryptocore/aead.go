package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

const (
	// SymmetricKeySize is the AES-256 key size in bytes.
	SymmetricKeySize = 32

	// GCMNonceSize is the standard GCM nonce size in bytes.
	GCMNonceSize = 12

	// GCMTagSize is the GCM authentication tag size in bytes.
	GCMTagSize = 16
)

// Seal encrypts plaintext under key with AES-256-GCM, generating a fresh
// random nonce and prefixing it to the returned ciphertext||tag (spec
// §4.2's fixed symmetric suite).
func Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidSharedSecret, "errors.invalidSharedSecret", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, additionalData)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// SealWithNonce encrypts plaintext under key and a caller-supplied 12-byte
// nonce, returning ciphertext||tag with no nonce prefix. Used by wire
// formats that place the IV in a fixed header field rather than alongside
// the ciphertext (spec §6's framing layouts).
func SealWithNonce(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidSharedSecret, "errors.invalidSharedSecret", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errs.New(errs.CodeInvalidIV, "errors.invalidIV", nil)
	}
	return gcm.Seal(nil, nonce, plaintext, additionalData), nil
}

// OpenWithNonce reverses SealWithNonce.
func OpenWithNonce(key, nonce, ciphertextAndTag, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errs.New(errs.CodeInvalidIV, "errors.invalidIV", nil)
	}
	return gcm.Open(nil, nonce, ciphertextAndTag, additionalData)
}

// Open reverses Seal: it splits the leading nonce off of sealed and
// authenticates/decrypts the remainder. Any failure - bad key, truncated
// input, tag mismatch - is normalized by the caller into the opaque
// DecryptionFailed error (spec §7's decryption-failure policy); Open itself
// returns the underlying cause so callers can choose to wrap it.
func Open(key, sealed, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, additionalData)
}
