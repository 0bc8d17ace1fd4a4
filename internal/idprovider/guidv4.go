package idprovider

import (
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/google/uuid"
)

// GUIDv4Length is the fixed width of a GUIDv4 provider's identifiers.
const GUIDv4Length = 16

// GUIDv4Provider implements Provider with RFC 4122 version-4 UUIDs.
type GUIDv4Provider struct{}

// NewGUIDv4Provider returns a GUIDv4-backed Provider.
func NewGUIDv4Provider() *GUIDv4Provider { return &GUIDv4Provider{} }

func (GUIDv4Provider) ByteLength() int { return GUIDv4Length }

func (GUIDv4Provider) Generate() ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	b := id[:]
	out := make([]byte, GUIDv4Length)
	copy(out, b)
	return out, nil
}

func (p GUIDv4Provider) ToBytes(id []byte) ([]byte, error) {
	if len(id) != GUIDv4Length {
		return nil, invalidLength(GUIDv4Length, len(id))
	}
	out := make([]byte, GUIDv4Length)
	copy(out, id)
	return out, nil
}

func (p GUIDv4Provider) FromBytes(b []byte) ([]byte, error) {
	return p.ToBytes(b)
}

func (GUIDv4Provider) Serialize(id []byte) (string, error) {
	if len(id) != GUIDv4Length {
		return "", invalidLength(GUIDv4Length, len(id))
	}
	u, err := uuid.FromBytes(id)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidCharacters, "errors.invalidCharacters", err)
	}
	return u.String(), nil
}

func (GUIDv4Provider) Deserialize(s string) ([]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidCharacters, "errors.invalidCharacters", err)
	}
	b := u[:]
	out := make([]byte, GUIDv4Length)
	copy(out, b)
	return out, nil
}
