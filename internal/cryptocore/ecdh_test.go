package cryptocore

import "testing"

func TestSharedSecret_AgreesBothDirections(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	s1, err := SharedSecret(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}
	s2, err := SharedSecret(bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}
	if string(s1) != string(s2) {
		t.Error("ECDH shared secrets disagree between the two parties")
	}
}

func TestSharedSecret_RejectsNilInputs(t *testing.T) {
	alice, _ := GenerateKeyPair()
	if _, err := SharedSecret(nil, alice.Public); err == nil {
		t.Error("SharedSecret(nil, pub) did not error")
	}
	if _, err := SharedSecret(alice.Private, nil); err == nil {
		t.Error("SharedSecret(priv, nil) did not error")
	}
}

func TestDeriveKey_DeterministicSameInputs(t *testing.T) {
	secret := []byte("shared-secret-material")
	salt := []byte("salt")
	info := []byte("ecies-cek")

	a, err := DeriveKey(secret, salt, info, 32)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	b, err := DeriveKey(secret, salt, info, 32)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if string(a) != string(b) {
		t.Error("DeriveKey() is not deterministic for identical inputs")
	}

	c, err := DeriveKey(secret, []byte("other-salt"), info, 32)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if string(a) == string(c) {
		t.Error("DeriveKey() produced identical output for different salts")
	}
}
