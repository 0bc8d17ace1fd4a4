package ecies

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/utils"
)

// simpleHeaderLen is magic(4) + version(2) + mode(1) + ephemeralPub(33) +
// iv(12) + tag(16), the fixed prefix before the length-prefixed body.
const simpleHeaderLen = 4 + 2 + 1 + cryptocore.PublicKeyCompressedSize + ivSize + tagSize

// EncryptSimple implements the "single-recipient simple" mode (spec §4.5,
// §6): magic + version + mode + ephemeralPub(33) + IV(12) + tag(16) +
// length-prefixed ciphertext body.
func EncryptSimple(recipientPub *btcec.PublicKey, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, errs.New(errs.CodeCannotEncryptEmptyData, "errors.cannotEncryptEmptyData", nil)
	}

	eph, err := cryptocore.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	ephPub := cryptocore.SerializePublicKeyCompressed(eph.Public)

	shared, err := cryptocore.SharedSecret(eph.Private, recipientPub)
	if err != nil {
		return nil, err
	}
	key, iv, err := deriveKeyIV(shared, ephPub)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 6, simpleHeaderLen)
	putUint32(header[0:4], Magic)
	putUint16(header[4:6], Version)
	header = append(header, ModeSimple)
	header = append(header, ephPub...)
	header = append(header, iv...)

	sealed, err := cryptocore.SealWithNonce(key, iv, plaintext, header[:7+cryptocore.PublicKeyCompressedSize])
	if err != nil {
		return nil, err
	}
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, simpleHeaderLen+4+len(ciphertext))
	out = append(out, header...)
	out = append(out, tag...)
	out = append(out, utils.EncodeLengthPrefixed(ciphertext)...)
	return out, nil
}

// DecryptSimple reverses EncryptSimple.
func DecryptSimple(recipientPriv *btcec.PrivateKey, frame []byte) ([]byte, error) {
	if err := checkMagicVersion(frame); err != nil {
		return nil, err
	}
	if len(frame) < simpleHeaderLen {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	if frame[6] != ModeSimple {
		return nil, errs.New(errs.CodeInvalidCipherSuite, "errors.invalidCipherSuite", nil)
	}

	ephPub := frame[7 : 7+cryptocore.PublicKeyCompressedSize]
	iv := frame[7+cryptocore.PublicKeyCompressedSize : 7+cryptocore.PublicKeyCompressedSize+ivSize]
	tag := frame[7+cryptocore.PublicKeyCompressedSize+ivSize : simpleHeaderLen]
	body, _, err := utils.DecodeLengthPrefixed(frame[simpleHeaderLen:])
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}

	pub, err := cryptocore.ParsePublicKey(ephPub)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}
	shared, err := cryptocore.SharedSecret(recipientPriv, pub)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}
	key, _, err := deriveKeyIV(shared, ephPub)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}

	aad := frame[:7+cryptocore.PublicKeyCompressedSize]
	plaintext, err := cryptocore.OpenWithNonce(key, iv, append(append([]byte{}, body...), tag...), aad)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}
	return plaintext, nil
}
