// Package ecies implements the four self-describing ECIES framing modes
// over secp256k1 (spec §4.5, §4.6, §6): single-recipient simple,
// single-recipient with a trailing CRC16 of the ciphertext, multi-recipient,
// and streamed. Every frame opens with the same magic/version pair so a
// reader can identify and reject an unsupported frame before touching any
// key material.
package ecies

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
)

const (
	// Magic is the fixed 4-byte frame identifier, ASCII "MREC".
	Magic uint32 = 0x4D524543

	// Version is the only framing version this codec emits or accepts
	// (spec §9a: the source's v0001 32-byte header is not implemented).
	Version uint16 = 0x0002

	// ModeSimple is the single-recipient, no-CRC framing mode.
	ModeSimple byte = 0x01

	// ModeFramed is ModeSimple plus a trailing CRC16 of the ciphertext.
	ModeFramed byte = 0x02

	// ModeMulti is the N-recipient framing mode.
	ModeMulti byte = 0x03

	// ModeStream marks a stream header (chunks follow separately; see stream.go).
	ModeStream byte = 0x04

	hkdfInfo = "ECIES-v1"

	ivSize  = 12
	tagSize = 16
)

// Recipient pairs a recipient identifier with the public key their
// content-encryption key should be wrapped under.
type Recipient struct {
	ID        []byte
	PublicKey *btcec.PublicKey
}

// deriveKeyIV runs the spec's fixed HKDF-SHA-512 parameterization —
// ikm=sharedSecret, salt=ephemeralPub, info="ECIES-v1" — producing a
// 32-byte AES key followed by a 12-byte IV in one expansion.
func deriveKeyIV(sharedSecret, ephemeralPub []byte) (key, iv []byte, err error) {
	okm, err := cryptocore.DeriveKey(sharedSecret, ephemeralPub, []byte(hkdfInfo), cryptocore.SymmetricKeySize+ivSize)
	if err != nil {
		return nil, nil, err
	}
	return okm[:cryptocore.SymmetricKeySize], okm[cryptocore.SymmetricKeySize:], nil
}

func putUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func putUint16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func getUint32(b []byte) uint32    { return binary.BigEndian.Uint32(b) }
func getUint16(b []byte) uint16    { return binary.BigEndian.Uint16(b) }

// checkMagicVersion validates the leading 6 bytes any frame must start
// with, returning the error §7 names for each distinct failure.
func checkMagicVersion(b []byte) error {
	if len(b) < 6 {
		return errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	if getUint32(b[0:4]) != Magic {
		return errs.New(errs.CodeInvalidMagicBytes, "errors.invalidMagicBytes", nil)
	}
	if getUint16(b[4:6]) != Version {
		return errs.New(errs.CodeUnsupportedVersion, "errors.unsupportedVersion", nil)
	}
	return nil
}

// opaqueDecryptionFailure normalises any lower-level decrypt failure
// (bad tag, bad padding, parse failure after the header is well-formed)
// into the single DecryptionFailed error §7 mandates, never surfacing
// the underlying cause to callers.
func opaqueDecryptionFailure(cause error) error {
	return errs.Opaque(errs.CodeDecryptionFailed, "errors.decryptionFailed", cause)
}
