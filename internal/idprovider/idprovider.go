// Package idprovider implements the pluggable opaque entity identifier
// described in spec §4.3: a generate/serialize/deserialize capability set
// over a fixed N-byte identifier, with three concrete variants (ObjectID,
// GUIDv4, Custom(N)).
package idprovider

import (
	"strconv"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// Provider generates, (de)serializes, and round-trips an opaque N-byte
// identifier. Implementations must be safe for concurrent use.
type Provider interface {
	// ByteLength returns the fixed identifier width N.
	ByteLength() int

	// Generate returns a fresh N-byte identifier: wholly random for
	// GUIDv4 and Custom, epoch + random + counter bytes for ObjectID.
	Generate() ([]byte, error)

	// ToBytes validates and returns the canonical N-byte form of id.
	ToBytes(id []byte) ([]byte, error)

	// FromBytes validates that b is exactly N bytes and returns it.
	FromBytes(b []byte) ([]byte, error)

	// Serialize renders an N-byte identifier as its canonical string form.
	Serialize(id []byte) (string, error)

	// Deserialize parses a canonical string form back into N bytes.
	Deserialize(s string) ([]byte, error)
}

// invalidLength builds the typed error for a length mismatch against N.
func invalidLength(want, got int) *errs.Error {
	return errs.New(errs.CodeInvalidLength, "errors.invalidLength",
		map[string]string{"want": strconv.Itoa(want), "got": strconv.Itoa(got)})
}
