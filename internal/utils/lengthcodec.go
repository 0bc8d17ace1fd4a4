package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// LengthTag selects the width of a big-endian length prefix.
type LengthTag byte

const (
	TagU8  LengthTag = 1
	TagU16 LengthTag = 2
	TagU32 LengthTag = 4
	TagU64 LengthTag = 8
)

// maxSafeInteger is 2^53-1, the interop-safe integer ceiling spec §4.1
// requires decoders to enforce.
const maxSafeInteger = (uint64(1) << 53) - 1

// EncodeLength picks the smallest width tag that fits n and returns
// tag||length-in-that-width.
func EncodeLength(n uint64) []byte {
	switch {
	case n <= 0xFF:
		return []byte{byte(TagU8), byte(n)}
	case n <= 0xFFFF:
		out := make([]byte, 3)
		out[0] = byte(TagU16)
		binary.BigEndian.PutUint16(out[1:], uint16(n))
		return out
	case n <= 0xFFFFFFFF:
		out := make([]byte, 5)
		out[0] = byte(TagU32)
		binary.BigEndian.PutUint32(out[1:], uint32(n))
		return out
	default:
		out := make([]byte, 9)
		out[0] = byte(TagU64)
		binary.BigEndian.PutUint64(out[1:], n)
		return out
	}
}

// DecodeLength reads a tag+length prefix from buf and returns the decoded
// length plus the number of bytes consumed.
func DecodeLength(buf []byte) (length uint64, consumed int, err error) {
	if len(buf) < 1 {
		return 0, 0, errs.New(errs.CodeLengthIsTooShort, "errors.lengthIsTooShort", nil)
	}
	tag := LengthTag(buf[0])
	var width int
	switch tag {
	case TagU8:
		width = 1
	case TagU16:
		width = 2
	case TagU32:
		width = 4
	case TagU64:
		width = 8
	default:
		return 0, 0, errs.New(errs.CodeLengthIsInvalidType, "errors.lengthIsInvalidType",
			map[string]string{"tag": fmt.Sprintf("%d", buf[0])})
	}
	if len(buf) < 1+width {
		return 0, 0, errs.New(errs.CodeLengthIsTooShort, "errors.lengthIsTooShort", nil)
	}
	switch tag {
	case TagU8:
		length = uint64(buf[1])
	case TagU16:
		length = uint64(binary.BigEndian.Uint16(buf[1:3]))
	case TagU32:
		length = uint64(binary.BigEndian.Uint32(buf[1:5]))
	case TagU64:
		length = binary.BigEndian.Uint64(buf[1:9])
	}
	if length > maxSafeInteger {
		return 0, 0, errs.New(errs.CodeLengthIsInvalidType, "errors.lengthExceedsMaxSafeInteger", nil)
	}
	return length, 1 + width, nil
}

// EncodeLengthPrefixed returns tag||length||data.
func EncodeLengthPrefixed(data []byte) []byte {
	prefix := EncodeLength(uint64(len(data)))
	out := make([]byte, 0, len(prefix)+len(data))
	out = append(out, prefix...)
	out = append(out, data...)
	return out
}

// DecodeLengthPrefixed reads tag||length||data from buf and returns data
// plus the number of bytes consumed (prefix + payload).
func DecodeLengthPrefixed(buf []byte) (data []byte, consumed int, err error) {
	length, n, err := DecodeLength(buf)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(buf)-n) < length {
		return nil, 0, errs.New(errs.CodeLengthIsTooShort, "errors.lengthIsTooShort", nil)
	}
	data = make([]byte, length)
	copy(data, buf[n:n+int(length)])
	return data, n + int(length), nil
}
