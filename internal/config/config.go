// Package config provides the frozen Constants bundle consumed by every
// other component (spec §3, §6): curve and cipher-suite selection, the
// configured IdProvider, BIP32 derivation path and mnemonic strength,
// chunking and recipient limits, and the Paillier key-derivation profile.
//
// Constants is built once via Load/New, which set its frozen flag after
// successful validation; IsFrozen reports that flag. Constants has no
// mutator methods, but the flag does not guard its exported Options
// fields: a direct field assignment is neither rejected nor detected.
package config

import (
	"fmt"
	"os"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/idprovider"
	"gopkg.in/yaml.v3"
)

// DefaultProfileName is the built-in configuration profile name. Load and
// New do not reserve it: a bundle that keeps this name may still override
// any of the built-in profile's fields.
const DefaultProfileName = "default"

// SymmetricConfig describes the fixed AES-256-GCM symmetric suite.
type SymmetricConfig struct {
	Algorithm string `yaml:"algorithm"`
	KeyBits   int    `yaml:"key_bits"`
	Mode      string `yaml:"mode"`
}

// PBKDF2Config describes the mnemonic-seed PBKDF2 profile.
type PBKDF2Config struct {
	Iterations int    `yaml:"iterations"`
	Hash       string `yaml:"hash"`
}

// PaillierConfig describes the deterministic Paillier key-derivation
// profile (spec §4.7).
type PaillierConfig struct {
	BitLength           int `yaml:"bit_length"`
	PrimeTestIterations int `yaml:"prime_test_iterations"`
	MaxPrimeAttempts    int `yaml:"max_prime_attempts"`
}

// Options is the YAML-facing shape; Constants wraps it with a frozen IdProvider
// instance and a freeze guard.
type Options struct {
	Profile                  string          `yaml:"profile"`
	CurveName                string          `yaml:"curve_name"`
	PrimaryKeyDerivationPath string          `yaml:"primary_key_derivation_path"`
	MnemonicStrength         int             `yaml:"mnemonic_strength"`
	Symmetric                SymmetricConfig `yaml:"symmetric"`
	IdProviderKind           string          `yaml:"id_provider"`
	IdProviderByteLength     int             `yaml:"id_provider_byte_length"`
	MaxRecipients            int             `yaml:"max_recipients"`
	ChunkSizeDefault         int             `yaml:"chunk_size_default"`
	ChunkSizeMax             int             `yaml:"chunk_size_max"`
	MagicBytes               string          `yaml:"magic_bytes"`
	PBKDF2                   PBKDF2Config    `yaml:"pbkdf2"`
	Paillier                 PaillierConfig  `yaml:"paillier"`
}

// Constants is the configuration bundle every other component borrows a
// reference to for its lifetime (spec §3); see the package doc for what
// its frozen flag does and does not guard.
type Constants struct {
	Options
	idProvider idprovider.Provider
	frozen     bool
}

// Defaults returns the built-in "default" profile, matching spec §6's
// fixed cipher suite and the primary test-vector derivation path.
func Defaults() *Options {
	return &Options{
		Profile:                   DefaultProfileName,
		CurveName:                 "secp256k1",
		PrimaryKeyDerivationPath:  "m/44'/60'/0'/0/0",
		MnemonicStrength:          128,
		Symmetric: SymmetricConfig{
			Algorithm: "AES-256-GCM",
			KeyBits:   256,
			Mode:      "GCM",
		},
		IdProviderKind:       "objectid",
		IdProviderByteLength: idprovider.ObjectIDLength,
		MaxRecipients:        65535,
		ChunkSizeDefault:     64 * 1024,
		ChunkSizeMax:         16 * 1024 * 1024,
		MagicBytes:           "4D524543",
		PBKDF2: PBKDF2Config{
			Iterations: 2048,
			Hash:       "sha512",
		},
		Paillier: PaillierConfig{
			BitLength:           3072,
			PrimeTestIterations: 256,
			MaxPrimeAttempts:    20000,
		},
	}
}

// Load reads, validates, and freezes a Constants bundle from YAML bytes,
// merging them over Defaults(). Overrides are accepted under any profile
// name, including "default".
func Load(yamlBytes []byte) (*Constants, error) {
	r := Defaults()
	if len(yamlBytes) > 0 {
		if err := yaml.Unmarshal(yamlBytes, r); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	return New(r)
}

// LoadFile reads a Constants bundle from a YAML file path.
func LoadFile(path string) (*Constants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}

// New validates and freezes a Constants bundle built from r (as returned
// by Defaults and optionally mutated by the caller before construction).
func New(r *Options) (*Constants, error) {
	if r == nil {
		r = Defaults()
	}
	if r.Profile == "" {
		r.Profile = DefaultProfileName
	}

	c := &Constants{Options: *r}

	if err := c.buildIdProvider(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.frozen = true
	return c, nil
}

func (c *Constants) buildIdProvider() error {
	switch c.IdProviderKind {
	case "", "objectid":
		c.idProvider = idprovider.NewObjectIDProvider()
	case "guidv4":
		c.idProvider = idprovider.NewGUIDv4Provider()
	case "custom":
		p, err := idprovider.NewCustomProvider(c.IdProviderByteLength)
		if err != nil {
			return err
		}
		c.idProvider = p
	default:
		return errs.New(errs.CodeIdProviderMissingMethod, "errors.idProviderMissingMethod",
			map[string]string{"kind": c.IdProviderKind})
	}
	return nil
}

// Validate enforces the invariants spec §3 and §6 require, chiefly that
// the configured IdProvider's byte length matches MemberIDLength.
func (c *Constants) Validate() error {
	if c.idProvider.ByteLength() != c.MemberIDLength() {
		return errs.New(errs.CodeIdProviderByteLengthMismatch, "errors.idProviderByteLengthMismatch",
			map[string]string{
				"providerLength": fmt.Sprintf("%d", c.idProvider.ByteLength()),
				"memberIdLength": fmt.Sprintf("%d", c.MemberIDLength()),
			})
	}
	if c.Symmetric.Algorithm != "AES-256-GCM" || c.Symmetric.KeyBits != 256 || c.Symmetric.Mode != "GCM" {
		return fmt.Errorf("config: symmetric algorithm is fixed to AES-256-GCM/256/GCM")
	}
	if c.MaxRecipients < 1 || c.MaxRecipients > 65535 {
		return fmt.Errorf("config: max_recipients must be in [1, 65535], got %d", c.MaxRecipients)
	}
	if c.ChunkSizeDefault < 1 || (c.ChunkSizeMax > 0 && c.ChunkSizeDefault > c.ChunkSizeMax) {
		return fmt.Errorf("config: invalid chunk_size_default/chunk_size_max")
	}
	switch c.MnemonicStrength {
	case 128, 160, 192, 224, 256:
	default:
		return fmt.Errorf("config: mnemonic_strength must be one of 128,160,192,224,256, got %d", c.MnemonicStrength)
	}
	return nil
}

// MemberIDLength returns the id width this Constants bundle's IdProvider
// is configured for; it is what every Member.Id/CreatorId must satisfy.
func (c *Constants) MemberIDLength() int {
	if c.IdProviderByteLength > 0 {
		return c.IdProviderByteLength
	}
	switch c.IdProviderKind {
	case "guidv4":
		return idprovider.GUIDv4Length
	default:
		return idprovider.ObjectIDLength
	}
}

// IdProvider returns the frozen Constants bundle's configured Provider.
func (c *Constants) IdProvider() idprovider.Provider { return c.idProvider }

// CurveName returns the configured elliptic curve name ("secp256k1").
func (c *Constants) CurveName() string { return c.Options.CurveName }

// DerivationPath returns the configured primary BIP32 derivation path.
func (c *Constants) DerivationPath() string { return c.Options.PrimaryKeyDerivationPath }

// MnemonicStrengthBits returns the configured BIP39 mnemonic entropy bits.
func (c *Constants) MnemonicStrengthBits() int { return c.Options.MnemonicStrength }

// MaxRecipientsAllowed returns the configured multi-recipient ceiling.
func (c *Constants) MaxRecipientsAllowed() int { return c.Options.MaxRecipients }

// DefaultChunkSize returns the configured default stream chunk size.
func (c *Constants) DefaultChunkSize() int { return c.Options.ChunkSizeDefault }

// MaxChunkSize returns the configured hard cap on stream chunk size.
func (c *Constants) MaxChunkSize() int { return c.Options.ChunkSizeMax }

// PBKDF2Iterations returns the configured PBKDF2 iteration count.
func (c *Constants) PBKDF2Iterations() int { return c.Options.PBKDF2.Iterations }

// PaillierBitLength returns the configured Paillier modulus bit length.
func (c *Constants) PaillierBitLength() int { return c.Options.Paillier.BitLength }

// PaillierPrimeTestIterations returns the configured Miller-Rabin rounds.
func (c *Constants) PaillierPrimeTestIterations() int { return c.Options.Paillier.PrimeTestIterations }

// PaillierMaxPrimeAttempts returns the configured prime-search retry cap.
func (c *Constants) PaillierMaxPrimeAttempts() int { return c.Options.Paillier.MaxPrimeAttempts }

// IsFrozen reports whether this bundle has completed construction.
func (c *Constants) IsFrozen() bool { return c.frozen }
