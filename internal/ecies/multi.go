package ecies

import (
	"crypto/rand"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/utils"
)

// MaxRecipients is the hard ceiling the v0002 header's U16 recipientCount
// field can express (spec §4.5, §6).
const MaxRecipients = 65535

// EncryptMulti implements the multi-recipient framing mode (spec §4.5):
// a fresh CEK encrypts the payload once; each recipient gets the CEK
// wrapped under a per-recipient ECDH-derived KEK, bound to their
// recipient id as AAD. withChecksum appends a trailing CRC16 of the main
// ciphertext.
func EncryptMulti(recipients []Recipient, plaintext []byte, withChecksum bool) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, errs.New(errs.CodeInvalidRecipientCount, "errors.invalidRecipientCount", nil)
	}
	if len(recipients) > MaxRecipients {
		return nil, errs.New(errs.CodeTooManyRecipients, "errors.tooManyRecipients", nil)
	}
	if len(plaintext) == 0 {
		return nil, errs.New(errs.CodeCannotEncryptEmptyData, "errors.cannotEncryptEmptyData", nil)
	}
	if !fitsUint32(len(plaintext)) {
		return nil, errs.New(errs.CodeChunkSizeOverflow, "errors.chunkSizeOverflow", nil)
	}
	if err := rejectDuplicateRecipients(recipients); err != nil {
		return nil, err
	}

	cek := make([]byte, cryptocore.SymmetricKeySize)
	if _, err := io.ReadFull(rand.Reader, cek); err != nil {
		return nil, err
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	eph, err := cryptocore.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	ephPubBytes := cryptocore.SerializePublicKeyCompressed(eph.Public)

	header := &multiHeader{
		RecipientCount: uint16(len(recipients)),
		ChunkIndex:     0,
		OriginalSize:   uint32(len(plaintext)),
		// GCM's ciphertext (tag excluded) is as long as the plaintext, so
		// the header is complete before it is sealed in as AAD.
		EncryptedSize:  uint32(len(plaintext)),
		IsLast:         true,
		HasChecksum:    withChecksum,
	}
	copy(header.EphemeralPub[:], ephPubBytes)

	headerBytes := header.encode()

	sealed, err := cryptocore.SealWithNonce(cek, iv, plaintext, headerBytes)
	if err != nil {
		return nil, err
	}
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	if !fitsUint32(len(ciphertext)) {
		return nil, errs.New(errs.CodeChunkSizeOverflow, "errors.chunkSizeOverflow", nil)
	}
	putUint32(headerBytes[16:20], uint32(len(ciphertext)))

	out := make([]byte, 0, multiHeaderLen+len(recipients)*128+len(ciphertext)+ivSize+tagSize+2)
	out = append(out, headerBytes...)

	for _, r := range recipients {
		wrapped, err := wrapCEK(eph.Private, ephPubBytes, r, cek)
		if err != nil {
			return nil, err
		}
		out = append(out, r.ID...)
		var keySize [2]byte
		putUint16(keySize[:], uint16(len(wrapped)))
		out = append(out, keySize[:]...)
		out = append(out, wrapped...)
	}

	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	if withChecksum {
		crc := utils.CRC16Bytes(ciphertext)
		out = append(out, crc[:]...)
	}
	return out, nil
}

// DecryptMulti reverses EncryptMulti for the recipient identified by
// recipientID, owning recipientPriv. The CEK is unwrapped only for the
// matching table entry (spec §4.5's no-all-ids-attempt rule to avoid a
// timing channel).
func DecryptMulti(recipientID []byte, recipientPriv *btcec.PrivateKey, frame []byte, idByteLength int) ([]byte, error) {
	header, err := decodeMultiHeader(frame)
	if err != nil {
		return nil, err
	}
	offset := multiHeaderLen

	var wrapped []byte
	found := false
	for i := 0; i < int(header.RecipientCount); i++ {
		if offset+idByteLength+2 > len(frame) {
			return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		id := frame[offset : offset+idByteLength]
		offset += idByteLength
		keySize := int(getUint16(frame[offset : offset+2]))
		offset += 2
		if offset+keySize > len(frame) {
			return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		entry := frame[offset : offset+keySize]
		offset += keySize

		if !found && utils.ConstantTimeEqual(id, recipientID) {
			wrapped = entry
			found = true
		}
	}
	if !found {
		return nil, opaqueDecryptionFailure(errs.New(errs.CodeRecipientNotFoundInChunk, "errors.recipientNotFoundInChunk", nil))
	}

	if offset+ivSize+tagSize > len(frame) {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	iv := frame[offset : offset+ivSize]
	offset += ivSize
	tag := frame[offset : offset+tagSize]
	offset += tagSize

	if offset+int(header.EncryptedSize) > len(frame) {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	ciphertext := frame[offset : offset+int(header.EncryptedSize)]
	offset += int(header.EncryptedSize)

	if header.HasChecksum {
		if offset+2 > len(frame) {
			return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		want := utils.CRC16(ciphertext)
		got := getUint16(frame[offset : offset+2])
		if want != got {
			return nil, opaqueDecryptionFailure(errs.New(errs.CodeInvalidAuthTag, "errors.invalidAuthTag", nil))
		}
	}

	cek, err := unwrapCEK(recipientPriv, header.EphemeralPub[:], recipientID, wrapped)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}

	headerBytes := header.encode()
	plaintext, err := cryptocore.OpenWithNonce(cek, iv, append(append([]byte{}, ciphertext...), tag...), headerBytes)
	if err != nil {
		return nil, opaqueDecryptionFailure(err)
	}
	return plaintext, nil
}

func rejectDuplicateRecipients(recipients []Recipient) error {
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		key := string(r.ID)
		if _, ok := seen[key]; ok {
			return errs.New(errs.CodeDuplicateRecipientId, "errors.duplicateRecipientId", nil)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// wrapCEK encrypts cek under a KEK derived from ECDH(ephPriv, r.PublicKey),
// binding r.ID as AAD. The output is nonce(12) || ciphertext || tag(16).
func wrapCEK(ephPriv *btcec.PrivateKey, ephPub []byte, r Recipient, cek []byte) ([]byte, error) {
	shared, err := cryptocore.SharedSecret(ephPriv, r.PublicKey)
	if err != nil {
		return nil, err
	}
	kek, err := cryptocore.DeriveKey(shared, ephPub, []byte(hkdfInfo), cryptocore.SymmetricKeySize)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed, err := cryptocore.SealWithNonce(kek, nonce, cek, r.ID)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, ivSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// unwrapCEK reverses wrapCEK using the recipient's own private key.
func unwrapCEK(recipientPriv *btcec.PrivateKey, ephPub, recipientID, wrapped []byte) ([]byte, error) {
	if len(wrapped) < ivSize {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	nonce, sealed := wrapped[:ivSize], wrapped[ivSize:]

	ephPubKey, err := cryptocore.ParsePublicKey(ephPub)
	if err != nil {
		return nil, err
	}
	shared, err := cryptocore.SharedSecret(recipientPriv, ephPubKey)
	if err != nil {
		return nil, err
	}
	kek, err := cryptocore.DeriveKey(shared, ephPub, []byte(hkdfInfo), cryptocore.SymmetricKeySize)
	if err != nil {
		return nil, err
	}
	return cryptocore.OpenWithNonce(kek, nonce, sealed, recipientID)
}
