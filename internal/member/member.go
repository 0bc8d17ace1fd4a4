// Package member binds an identity's metadata, signing keys, HD wallet,
// and voting keys into one disposable unit (spec §3's Member entity,
// §4's sign/verify/encrypt/decrypt surface).
package member

import (
	"regexp"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/ecies"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
	"github.com/digital-defiance/ecies-lib/internal/securebuffer"
)

// Type classifies a Member's role (spec §3).
type Type int

const (
	TypeUser Type = iota
	TypeAdmin
	TypeSystem
	TypeAnonymous
)

func (t Type) String() string {
	switch t {
	case TypeAdmin:
		return "Admin"
	case TypeSystem:
		return "System"
	case TypeAnonymous:
		return "Anonymous"
	default:
		return "User"
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Member binds an opaque identifier, profile metadata, ECDSA signing
// material, an optional HD wallet, and optional Paillier voting keys.
// Disposing a Member zeroizes PrivateKey; Wallet and VotingPrivateKey are
// derived from the same seed and are the caller's responsibility to wipe
// via their own SecureBuffer-backed storage if retained separately.
type Member struct {
	ID          []byte
	Type        Type
	Name        string
	Email       string
	PublicKey   *btcec.PublicKey
	CreatorID   []byte
	DateCreated time.Time
	DateUpdated time.Time

	PrivateKey *securebuffer.SecureBuffer

	Wallet *cryptocore.ExtendedKey

	VotingPublicKey  *paillier.PublicKey
	VotingPrivateKey *paillier.PrivateKey

	disposed bool
}

// New validates and constructs a Member. privateKeyBytes, if non-nil, is
// wrapped in a SecureBuffer and the resulting public key must match pub
// (spec §3's "public key, if loaded via mnemonic, matches the one
// recomputed from the wallet" invariant).
func New(id []byte, memberType Type, name, email string, pub *btcec.PublicKey, creatorID []byte, privateKeyBytes []byte) (*Member, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return nil, errs.New(errs.CodeInvalidName, "errors.invalidName", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, errs.New(errs.CodeInvalidEmail, "errors.invalidEmail", nil)
	}
	if pub == nil {
		return nil, errs.New(errs.CodeInvalidPublicKeyNotOnCurve, "errors.invalidPublicKeyNotOnCurve", nil)
	}

	var sb *securebuffer.SecureBuffer
	if len(privateKeyBytes) > 0 {
		derived, err := cryptocore.KeyPairFromPrivateBytes(privateKeyBytes)
		if err != nil {
			return nil, err
		}
		if !derived.Public.IsEqual(pub) {
			return nil, errs.New(errs.CodeInvalidSharedSecret, "errors.invalidSharedSecret", nil)
		}
		sb, err = securebuffer.New(privateKeyBytes)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &Member{
		ID:          id,
		Type:        memberType,
		Name:        name,
		Email:       email,
		PublicKey:   pub,
		CreatorID:   creatorID,
		DateCreated: now,
		DateUpdated: now,
		PrivateKey:  sb,
	}, nil
}

// AttachWallet derives the member's HD wallet and voting key pair from a
// BIP39 seed along the configured derivation path, then binds the
// resulting ECDSA signing key's public half as the member's PublicKey
// (spec §4.7: voting keys bind to identity via the member's own ECDH
// material, never an independent seed).
func (m *Member) AttachWallet(seed []byte, derivationPath string, paillierBitLength, paillierIterations, paillierMaxAttempts int) error {
	if m.disposed {
		return errs.New(errs.CodeObjectDisposed, "errors.objectDisposed", nil)
	}

	master, err := cryptocore.MasterKeyFromSeed(seed)
	if err != nil {
		return err
	}
	leaf, err := master.DerivePath(derivationPath)
	if err != nil {
		return err
	}

	shared, err := cryptocore.SharedSecret(leaf.Key, leaf.Key.PubKey())
	if err != nil {
		return err
	}
	votingKeys, err := paillier.DeriveKeyPair(shared, paillierBitLength, paillierIterations, paillierMaxAttempts)
	if err != nil {
		return err
	}

	sb, err := securebuffer.New(leaf.Key.Serialize())
	if err != nil {
		return err
	}

	m.Wallet = leaf
	m.PublicKey = leaf.Key.PubKey()
	m.PrivateKey = sb
	m.VotingPublicKey = votingKeys.Public
	m.VotingPrivateKey = votingKeys.Private
	m.DateUpdated = time.Now().UTC()
	return nil
}

// Sign signs digest with the member's private signing key.
func (m *Member) Sign(digest []byte) ([]byte, error) {
	if m.disposed {
		return nil, errs.New(errs.CodeObjectDisposed, "errors.objectDisposed", nil)
	}
	if m.PrivateKey == nil {
		return nil, errs.New(errs.CodeObjectDisposed, "errors.objectDisposed", nil)
	}
	raw, err := m.PrivateKey.Value()
	if err != nil {
		return nil, err
	}
	kp, err := cryptocore.KeyPairFromPrivateBytes(raw)
	if err != nil {
		return nil, err
	}
	return cryptocore.Sign(kp.Private, digest)
}

// Verify checks sig against digest using the member's public key.
func (m *Member) Verify(digest, sig []byte) (bool, error) {
	return cryptocore.Verify(m.PublicKey, digest, sig)
}

// EncryptSimple encrypts plaintext to this member using the ECIES simple
// framing mode.
func (m *Member) EncryptSimple(plaintext []byte) ([]byte, error) {
	return ecies.EncryptSimple(m.PublicKey, plaintext)
}

// DecryptSimple decrypts a simple-mode ECIES frame addressed to this
// member.
func (m *Member) DecryptSimple(frame []byte) ([]byte, error) {
	if m.disposed || m.PrivateKey == nil {
		return nil, errs.New(errs.CodeObjectDisposed, "errors.objectDisposed", nil)
	}
	raw, err := m.PrivateKey.Value()
	if err != nil {
		return nil, err
	}
	kp, err := cryptocore.KeyPairFromPrivateBytes(raw)
	if err != nil {
		return nil, err
	}
	return ecies.DecryptSimple(kp.Private, frame)
}

// Dispose zeroizes the member's private signing material. The member
// remains otherwise readable (public profile fields, public keys); only
// private-key-dependent operations fail afterward.
func (m *Member) Dispose() {
	if m.disposed {
		return
	}
	if m.PrivateKey != nil {
		m.PrivateKey.Dispose()
	}
	m.disposed = true
}

// IsDisposed reports whether Dispose has been called.
func (m *Member) IsDisposed() bool {
	return m.disposed
}
