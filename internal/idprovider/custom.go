package idprovider

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// CustomProvider implements Provider with a caller-chosen fixed width
// between 1 and 255 bytes, hex-serialized.
type CustomProvider struct {
	byteLength int
}

// NewCustomProvider returns a Provider with a fixed N-byte width, 1<=N<=255.
func NewCustomProvider(byteLength int) (*CustomProvider, error) {
	if byteLength < 1 || byteLength > 255 {
		return nil, errs.New(errs.CodeInvalidByteLengthParameter, "errors.invalidByteLengthParameter", nil)
	}
	return &CustomProvider{byteLength: byteLength}, nil
}

func (p *CustomProvider) ByteLength() int { return p.byteLength }

func (p *CustomProvider) Generate() ([]byte, error) {
	id := make([]byte, p.byteLength)
	if _, err := io.ReadFull(rand.Reader, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *CustomProvider) ToBytes(id []byte) ([]byte, error) {
	if len(id) != p.byteLength {
		return nil, invalidLength(p.byteLength, len(id))
	}
	out := make([]byte, p.byteLength)
	copy(out, id)
	return out, nil
}

func (p *CustomProvider) FromBytes(b []byte) ([]byte, error) {
	return p.ToBytes(b)
}

func (p *CustomProvider) Serialize(id []byte) (string, error) {
	if len(id) != p.byteLength {
		return "", invalidLength(p.byteLength, len(id))
	}
	return hex.EncodeToString(id), nil
}

func (p *CustomProvider) Deserialize(s string) ([]byte, error) {
	if len(s) != p.byteLength*2 {
		return nil, errs.New(errs.CodeInvalidStringLength, "errors.invalidStringLength", nil)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInvalidCharacters, "errors.invalidCharacters", err)
	}
	return b, nil
}
