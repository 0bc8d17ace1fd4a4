package config

import (
	"errors"
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/idprovider"
)

func TestDefaults_PassValidation(t *testing.T) {
	c, err := New(Defaults())
	if err != nil {
		t.Fatalf("New(Defaults()) error = %v", err)
	}
	if !c.IsFrozen() {
		t.Error("New() did not freeze the bundle")
	}
	if c.CurveName() != "secp256k1" {
		t.Errorf("CurveName() = %q, want secp256k1", c.CurveName())
	}
	if c.DerivationPath() != "m/44'/60'/0'/0/0" {
		t.Errorf("DerivationPath() = %q", c.DerivationPath())
	}
	if c.MemberIDLength() != idprovider.ObjectIDLength {
		t.Errorf("MemberIDLength() = %d, want %d", c.MemberIDLength(), idprovider.ObjectIDLength)
	}
}

func TestLoad_EmptyYamlUsesDefaults(t *testing.T) {
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) error = %v", err)
	}
	if c.Profile != DefaultProfileName {
		t.Errorf("Profile = %q, want %q", c.Profile, DefaultProfileName)
	}
}

func TestLoad_OverridesMerge(t *testing.T) {
	yamlBytes := []byte("max_recipients: 10\nid_provider: guidv4\nid_provider_byte_length: 16\n")
	c, err := Load(yamlBytes)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.MaxRecipientsAllowed() != 10 {
		t.Errorf("MaxRecipientsAllowed() = %d, want 10", c.MaxRecipientsAllowed())
	}
	if c.MemberIDLength() != idprovider.GUIDv4Length {
		t.Errorf("MemberIDLength() = %d, want %d", c.MemberIDLength(), idprovider.GUIDv4Length)
	}
	if _, ok := c.IdProvider().(*idprovider.GUIDv4Provider); !ok {
		t.Errorf("IdProvider() = %T, want *idprovider.GUIDv4Provider", c.IdProvider())
	}
}

func TestNew_RejectsIdProviderByteLengthMismatch(t *testing.T) {
	r := Defaults()
	r.IdProviderKind = "guidv4"
	r.IdProviderByteLength = idprovider.ObjectIDLength

	_, err := New(r)
	if err == nil {
		t.Fatal("New() with mismatched id provider byte length did not error")
	}
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("error is not *errs.Error: %v", err)
	}
	if e.Code != errs.CodeIdProviderByteLengthMismatch {
		t.Errorf("Code = %q, want %q", e.Code, errs.CodeIdProviderByteLengthMismatch)
	}
}

func TestNew_RejectsUnknownIdProviderKind(t *testing.T) {
	r := Defaults()
	r.IdProviderKind = "nonexistent"

	_, err := New(r)
	if err == nil {
		t.Fatal("New() with unknown id provider kind did not error")
	}
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("error is not *errs.Error: %v", err)
	}
	if e.Code != errs.CodeIdProviderMissingMethod {
		t.Errorf("Code = %q, want %q", e.Code, errs.CodeIdProviderMissingMethod)
	}
}

func TestNew_RejectsNonFixedSymmetricSuite(t *testing.T) {
	r := Defaults()
	r.Symmetric.Algorithm = "ChaCha20-Poly1305"

	if _, err := New(r); err == nil {
		t.Error("New() with non-fixed symmetric suite did not error")
	}
}

func TestNew_RejectsOutOfRangeMaxRecipients(t *testing.T) {
	cases := []int{0, -1, 65536}
	for _, n := range cases {
		r := Defaults()
		r.MaxRecipients = n
		if _, err := New(r); err == nil {
			t.Errorf("New() with max_recipients=%d did not error", n)
		}
	}
}

func TestNew_RejectsChunkSizeDefaultAboveMax(t *testing.T) {
	r := Defaults()
	r.ChunkSizeDefault = r.ChunkSizeMax + 1

	if _, err := New(r); err == nil {
		t.Error("New() with chunk_size_default > chunk_size_max did not error")
	}
}

func TestNew_RejectsInvalidMnemonicStrength(t *testing.T) {
	r := Defaults()
	r.MnemonicStrength = 100

	if _, err := New(r); err == nil {
		t.Error("New() with invalid mnemonic_strength did not error")
	}
}

func TestNew_NilUsesDefaults(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	if c.Profile != DefaultProfileName {
		t.Errorf("Profile = %q, want %q", c.Profile, DefaultProfileName)
	}
}

func TestNew_CustomIdProviderValidLength(t *testing.T) {
	r := Defaults()
	r.IdProviderKind = "custom"
	r.IdProviderByteLength = 20

	c, err := New(r)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.MemberIDLength() != 20 {
		t.Errorf("MemberIDLength() = %d, want 20", c.MemberIDLength())
	}
}
