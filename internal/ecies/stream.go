package ecies

import (
	"context"
	"crypto/rand"
	"io"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/utils"
)

// StreamState mirrors a single-producer/single-consumer pipeline's
// lifecycle (spec §4.6, §5): a stream is opened once, emits chunks in
// strictly increasing index order, and is closed exactly once.
type StreamState int32

const (
	StreamOpen StreamState = iota
	StreamClosed
)

// Progress reports cumulative work done at a chunk boundary (spec §4.6).
type Progress struct {
	BytesProcessed  uint64
	ChunksProcessed uint64
}

// EncryptStream produces a self-describing stream header followed by a
// caller-pulled sequence of encrypted chunks, all under one CEK wrapped
// once per recipient (spec §4.6): the per-chunk cost is one AES-GCM seal,
// not a fresh ECDH+wrap.
type EncryptStream struct {
	cek        []byte
	header     []byte
	state      atomic.Int32
	chunkIndex atomic.Uint32
	bytesDone  atomic.Uint64
	chunksDone atomic.Uint64
	withCRC    bool
	maxChunk   int
}

// NewEncryptStream builds the stream header: magic, version, mode, a
// per-recipient CEK-wrap table, and returns both the header bytes (to be
// written first) and the stream handle used to pull subsequent chunks.
func NewEncryptStream(recipients []Recipient, maxChunkSize int, withChecksum bool) (*EncryptStream, []byte, error) {
	if len(recipients) == 0 {
		return nil, nil, errs.New(errs.CodeInvalidRecipientCount, "errors.invalidRecipientCount", nil)
	}
	if len(recipients) > MaxRecipients {
		return nil, nil, errs.New(errs.CodeTooManyRecipients, "errors.tooManyRecipients", nil)
	}
	if err := rejectDuplicateRecipients(recipients); err != nil {
		return nil, nil, err
	}

	cek := make([]byte, cryptocore.SymmetricKeySize)
	if _, err := io.ReadFull(rand.Reader, cek); err != nil {
		return nil, nil, err
	}
	eph, err := cryptocore.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	ephPubBytes := cryptocore.SerializePublicKeyCompressed(eph.Public)

	header := make([]byte, 6, 6+1+33+2+len(recipients)*96)
	putUint32(header[0:4], Magic)
	putUint16(header[4:6], Version)
	header = append(header, ModeStream)
	header = append(header, ephPubBytes...)

	var recipientCount [2]byte
	putUint16(recipientCount[:], uint16(len(recipients)))
	header = append(header, recipientCount[:]...)

	for _, r := range recipients {
		wrapped, err := wrapCEK(eph.Private, ephPubBytes, r, cek)
		if err != nil {
			return nil, nil, err
		}
		header = append(header, r.ID...)
		var keySize [2]byte
		putUint16(keySize[:], uint16(len(wrapped)))
		header = append(header, keySize[:]...)
		header = append(header, wrapped...)
	}

	s := &EncryptStream{cek: cek, header: header, withCRC: withChecksum, maxChunk: maxChunkSize}
	s.state.Store(int32(StreamOpen))
	return s, header, nil
}

// EncryptChunk seals one plaintext chunk under the stream's CEK with a
// fresh IV, emitting {chunkIndex U32 BE, encryptedSize U32 BE, IV(12),
// tag(16), body, optional CRC16} (spec §4.6). Chunk indices increase
// monotonically by construction: the caller has no way to skip one.
func (s *EncryptStream) EncryptChunk(ctx context.Context, plaintext []byte) ([]byte, Progress, error) {
	if StreamState(s.state.Load()) != StreamOpen {
		return nil, Progress{}, errs.New(errs.CodeAlreadyClosed, "errors.alreadyClosed", nil)
	}
	select {
	case <-ctx.Done():
		return nil, Progress{}, errs.Wrap(errs.CodeEncryptionCancelled, "errors.encryptionCancelled", ctx.Err())
	default:
	}
	if s.maxChunk > 0 && len(plaintext) > s.maxChunk {
		return nil, Progress{}, errs.New(errs.CodeBufferOverflow, "errors.bufferOverflow",
			map[string]string{"max": itoa(s.maxChunk)})
	}
	if !fitsUint32(len(plaintext)) {
		return nil, Progress{}, errs.New(errs.CodeChunkSizeOverflow, "errors.chunkSizeOverflow", nil)
	}

	idx := s.chunkIndex.Add(1) - 1
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, Progress{}, err
	}

	chunkMeta := make([]byte, 8)
	putUint32(chunkMeta[0:4], idx)
	putUint32(chunkMeta[4:8], uint32(len(plaintext)))
	aad := append(append([]byte{}, s.header...), chunkMeta...)

	sealed, err := cryptocore.SealWithNonce(s.cek, iv, plaintext, aad)
	if err != nil {
		return nil, Progress{}, err
	}
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, 8+ivSize+tagSize+len(ciphertext)+2)
	out = append(out, chunkMeta...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	if s.withCRC {
		crc := utils.CRC16Bytes(ciphertext)
		out = append(out, crc[:]...)
	}

	s.bytesDone.Add(uint64(len(plaintext)))
	chunksDone := s.chunksDone.Add(1)
	return out, Progress{BytesProcessed: s.bytesDone.Load(), ChunksProcessed: chunksDone}, nil
}

// Close marks the stream closed; further EncryptChunk calls fail.
func (s *EncryptStream) Close() {
	s.state.Store(int32(StreamClosed))
}

// DecryptStream unwraps a stream header once and then authenticates a
// caller-pulled sequence of chunks against the shared CEK, rejecting any
// chunk whose index is not exactly the next expected one.
type DecryptStream struct {
	cek        []byte
	header     []byte
	expectNext atomic.Uint32
	bytesDone  atomic.Uint64
	withCRC    bool
	state      atomic.Int32
}

// OpenDecryptStream parses the stream header and unwraps the CEK for
// recipientID using recipientPriv, returning the number of header bytes
// consumed so the caller can locate the first chunk.
func OpenDecryptStream(recipientID []byte, recipientPriv *btcec.PrivateKey, header []byte, idByteLength int, withChecksum bool) (*DecryptStream, int, error) {
	if err := checkMagicVersion(header); err != nil {
		return nil, 0, err
	}
	if len(header) < 7+cryptocore.PublicKeyCompressedSize+2 {
		return nil, 0, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	if header[6] != ModeStream {
		return nil, 0, errs.New(errs.CodeInvalidCipherSuite, "errors.invalidCipherSuite", nil)
	}
	ephPub := header[7 : 7+cryptocore.PublicKeyCompressedSize]
	offset := 7 + cryptocore.PublicKeyCompressedSize
	recipientCount := int(getUint16(header[offset : offset+2]))
	offset += 2

	var wrapped []byte
	found := false
	for i := 0; i < recipientCount; i++ {
		if offset+idByteLength+2 > len(header) {
			return nil, 0, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		id := header[offset : offset+idByteLength]
		offset += idByteLength
		keySize := int(getUint16(header[offset : offset+2]))
		offset += 2
		if offset+keySize > len(header) {
			return nil, 0, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		entry := header[offset : offset+keySize]
		offset += keySize
		if !found && utils.ConstantTimeEqual(id, recipientID) {
			wrapped = entry
			found = true
		}
	}
	if !found {
		return nil, 0, errs.New(errs.CodeRecipientNotFoundInChunk, "errors.recipientNotFoundInChunk", nil)
	}

	cek, err := unwrapCEK(recipientPriv, ephPub, recipientID, wrapped)
	if err != nil {
		return nil, 0, opaqueDecryptionFailure(err)
	}

	ds := &DecryptStream{cek: cek, header: append([]byte{}, header[:offset]...), withCRC: withChecksum}
	ds.state.Store(int32(StreamOpen))
	return ds, offset, nil
}

// DecryptChunk authenticates and decrypts one chunk, enforcing strictly
// increasing chunk indices (spec §4.6's ChunkSequenceError policy).
func (ds *DecryptStream) DecryptChunk(ctx context.Context, chunk []byte) ([]byte, Progress, error) {
	select {
	case <-ctx.Done():
		return nil, Progress{}, errs.Wrap(errs.CodeDecryptionCancelled, "errors.decryptionCancelled", ctx.Err())
	default:
	}
	if len(chunk) < 8+ivSize+tagSize {
		return nil, Progress{}, errs.New(errs.CodeChunkTooSmall, "errors.chunkTooSmall", nil)
	}
	idx := getUint32(chunk[0:4])
	encryptedSize := getUint32(chunk[4:8])
	expected := ds.expectNext.Load()
	if idx != expected {
		return nil, Progress{}, errs.New(errs.CodeChunkSequenceError, "errors.chunkSequenceError",
			map[string]string{"expected": itoa(int(expected)), "actual": itoa(int(idx))})
	}

	iv := chunk[8 : 8+ivSize]
	tag := chunk[8+ivSize : 8+ivSize+tagSize]
	bodyStart := 8 + ivSize + tagSize
	if len(chunk) < bodyStart+int(encryptedSize) {
		return nil, Progress{}, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	ciphertext := chunk[bodyStart : bodyStart+int(encryptedSize)]

	if ds.withCRC {
		crcOffset := bodyStart + int(encryptedSize)
		if len(chunk) < crcOffset+2 {
			return nil, Progress{}, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
		}
		want := utils.CRC16(ciphertext)
		got := getUint16(chunk[crcOffset : crcOffset+2])
		if want != got {
			return nil, Progress{}, opaqueDecryptionFailure(errs.New(errs.CodeInvalidAuthTag, "errors.invalidAuthTag", nil))
		}
	}

	chunkMeta := make([]byte, 8)
	putUint32(chunkMeta[0:4], idx)
	putUint32(chunkMeta[4:8], encryptedSize)
	aad := append(append([]byte{}, ds.header...), chunkMeta...)

	plaintext, err := cryptocore.OpenWithNonce(ds.cek, iv, append(append([]byte{}, ciphertext...), tag...), aad)
	if err != nil {
		return nil, Progress{}, opaqueDecryptionFailure(err)
	}

	ds.expectNext.Store(idx + 1)
	return plaintext, Progress{BytesProcessed: ds.bytesDone.Add(uint64(len(plaintext))), ChunksProcessed: uint64(idx + 1)}, nil
}

// Close marks the decrypt stream closed.
func (ds *DecryptStream) Close() {
	ds.state.Store(int32(StreamClosed))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
