package idprovider

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync/atomic"
	"time"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// ObjectIDLength is the fixed width of an ObjectID provider's identifiers:
// 4-byte epoch seconds + 5-byte random + 3-byte counter.
const ObjectIDLength = 12

// objectIDCounter is the process-wide 3-byte rolling counter appended to
// every generated ObjectID, per spec §4.3.
var objectIDCounter uint32

// ObjectIDProvider implements Provider with MongoDB-style 12-byte
// identifiers: 4-byte epoch, 5-byte random, 3-byte counter.
type ObjectIDProvider struct{}

// NewObjectIDProvider returns an ObjectID-backed Provider.
func NewObjectIDProvider() *ObjectIDProvider { return &ObjectIDProvider{} }

func (ObjectIDProvider) ByteLength() int { return ObjectIDLength }

func (ObjectIDProvider) Generate() ([]byte, error) {
	id := make([]byte, ObjectIDLength)
	binary.BigEndian.PutUint32(id[0:4], uint32(time.Now().Unix()))
	if _, err := io.ReadFull(rand.Reader, id[4:9]); err != nil {
		return nil, err
	}
	c := atomic.AddUint32(&objectIDCounter, 1)
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)
	return id, nil
}

func (p ObjectIDProvider) ToBytes(id []byte) ([]byte, error) {
	if len(id) != ObjectIDLength {
		return nil, invalidLength(ObjectIDLength, len(id))
	}
	out := make([]byte, ObjectIDLength)
	copy(out, id)
	return out, nil
}

func (p ObjectIDProvider) FromBytes(b []byte) ([]byte, error) {
	return p.ToBytes(b)
}

func (ObjectIDProvider) Serialize(id []byte) (string, error) {
	if len(id) != ObjectIDLength {
		return "", invalidLength(ObjectIDLength, len(id))
	}
	return hex.EncodeToString(id), nil
}

func (ObjectIDProvider) Deserialize(s string) ([]byte, error) {
	if len(s) != ObjectIDLength*2 {
		return nil, errs.New(errs.CodeInvalidStringLength, "errors.invalidStringLength", nil)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidCharacters, "errors.invalidCharacters", err)
	}
	return b, nil
}
