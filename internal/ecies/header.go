package ecies

import (
	"math"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// multiHeaderLen is the fixed v0002 multi-recipient header size: magic(4) +
// version(2) + recipientCount(2) + chunkIndex(4) + originalSize(4) +
// encryptedSize(4) + flags(1) + ephemeralPublicKey(33) + reserved(10).
const multiHeaderLen = 64

const (
	flagIsLast     byte = 1 << 0
	flagHasCRC     byte = 1 << 1
	reservedWidth       = 10
)

// multiHeader is the v0002 multi-recipient/chunk header (spec §6).
type multiHeader struct {
	RecipientCount uint16
	ChunkIndex     uint32
	OriginalSize   uint32
	EncryptedSize  uint32
	IsLast         bool
	HasChecksum    bool
	EphemeralPub   [cryptocore.PublicKeyCompressedSize]byte
}

func (h *multiHeader) encode() []byte {
	b := make([]byte, multiHeaderLen)
	putUint32(b[0:4], Magic)
	putUint16(b[4:6], Version)
	putUint16(b[6:8], h.RecipientCount)
	putUint32(b[8:12], h.ChunkIndex)
	putUint32(b[12:16], h.OriginalSize)
	putUint32(b[16:20], h.EncryptedSize)

	var flags byte
	if h.IsLast {
		flags |= flagIsLast
	}
	if h.HasChecksum {
		flags |= flagHasCRC
	}
	b[20] = flags

	copy(b[21:21+cryptocore.PublicKeyCompressedSize], h.EphemeralPub[:])
	return b
}

func decodeMultiHeader(b []byte) (*multiHeader, error) {
	if err := checkMagicVersion(b); err != nil {
		return nil, err
	}
	if len(b) < multiHeaderLen {
		return nil, errs.New(errs.CodeDataTooShortForHeader, "errors.dataTooShortForHeader", nil)
	}
	h := &multiHeader{
		RecipientCount: getUint16(b[6:8]),
		ChunkIndex:     getUint32(b[8:12]),
		OriginalSize:   getUint32(b[12:16]),
		EncryptedSize:  getUint32(b[16:20]),
		IsLast:         b[20]&flagIsLast != 0,
		HasChecksum:    b[20]&flagHasCRC != 0,
	}
	copy(h.EphemeralPub[:], b[21:21+cryptocore.PublicKeyCompressedSize])
	return h, nil
}

// fitsUint32 reports whether n can be carried in this header's U32 size
// fields without overflow (spec §4.5's ChunkSizeOverflow edge policy).
func fitsUint32(n int) bool {
	return n >= 0 && uint64(n) <= math.MaxUint32
}
