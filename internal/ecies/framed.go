package ecies

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/utils"
)

// EncryptFramed implements the "single-recipient with header" mode (spec
// §4.5): identical to EncryptSimple's header, with a CRC16-CCITT-FALSE
// checksum of the ciphertext appended after the length-prefixed body, so
// a reader can detect bit-level corruption before attempting an AEAD open.
func EncryptFramed(recipientPub *btcec.PublicKey, plaintext []byte) ([]byte, error) {
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
	header = append(header, ModeFramed)
	header = append(header, ephPub...)
	header = append(header, iv...)

	sealed, err := cryptocore.SealWithNonce(key, iv, plaintext, header[:7+cryptocore.PublicKeyCompressedSize])
	if err != nil {
		return nil, err
	}
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, simpleHeaderLen+4+len(ciphertext)+2)
	out = append(out, header...)
	out = append(out, tag...)
	out = append(out, utils.EncodeLengthPrefixed(ciphertext)...)
	crc := utils.CRC16Bytes(ciphertext)
	out = append(out, crc[:]...)
	return out, nil
}

// DecryptFramed reverses EncryptFramed, rejecting the frame with the
// opaque DecryptionFailed error before attempting the AEAD open whenever
// the trailing CRC16 does not match the ciphertext.
func DecryptFramed(recipientPriv *btcec.PrivateKey, frame []byte) ([]byte, error) {
	if err := checkMagicVersion(frame); err != nil {
		return nil, err
	}
	if len(frame) < simpleHeaderLen+2 {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	if frame[6] != ModeFramed {
		return nil, errs.New(errs.CodeInvalidCipherSuite, "errors.invalidCipherSuite", nil)
	}

	ephPub := frame[7 : 7+cryptocore.PublicKeyCompressedSize]
	iv := frame[7+cryptocore.PublicKeyCompressedSize : 7+cryptocore.PublicKeyCompressedSize+ivSize]
	tag := frame[7+cryptocore.PublicKeyCompressedSize+ivSize : simpleHeaderLen]

	body, consumed, err := utils.DecodeLengthPrefixed(frame[simpleHeaderLen:])
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}
	crcOffset := simpleHeaderLen + consumed
	if len(frame) < crcOffset+2 {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	wantCRC := utils.CRC16(body)
	gotCRC := getUint16(frame[crcOffset : crcOffset+2])
	if wantCRC != gotCRC {
		return nil, opaqueDecryptionFailure(errs.New(errs.CodeInvalidAuthTag, "errors.invalidAuthTag", nil))
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
