package paillier

import (
	"math/big"
	"testing"
)

// testKeyPair generates a small (test-only) key pair so Miller-Rabin
// prime search finishes quickly; DeriveKeyPair takes the bit length from
// its caller (config.Defaults sets 3072).
func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	kp, err := generateDeterministicKeyPair([]byte("deterministic-test-seed-material"), 64, 40, 20000)
	if err != nil {
		t.Fatalf("generateDeterministicKeyPair() error = %v", err)
	}
	return kp
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	kp := testKeyPair(t)

	for _, want := range []int64{0, 1, 5, 10, 42} {
		c, err := EncryptInt64(kp.Public, want)
		if err != nil {
			t.Fatalf("EncryptInt64(%d) error = %v", want, err)
		}
		got, err := Decrypt(kp.Private, c)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if got.Int64() != want {
			t.Errorf("Decrypt(Encrypt(%d)) = %d", want, got.Int64())
		}
	}
}

func TestAdd_HomomorphicSum(t *testing.T) {
	kp := testKeyPair(t)

	c1, _ := EncryptInt64(kp.Public, 3)
	c2, _ := EncryptInt64(kp.Public, 4)
	sum := Add(kp.Public, c1, c2)

	got, err := Decrypt(kp.Private, sum)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got.Int64() != 7 {
		t.Errorf("Decrypt(Add(Enc(3), Enc(4))) = %d, want 7", got.Int64())
	}
}

func TestAdd_ManyTermsMatchesPlaintextSum(t *testing.T) {
	kp := testKeyPair(t)
	terms := []int64{1, 0, 1, 1, 0, 1, 1, 1}

	sum, err := IdentityCiphertext(kp.Public)
	if err != nil {
		t.Fatalf("IdentityCiphertext() error = %v", err)
	}
	var want int64
	for _, v := range terms {
		c, err := EncryptInt64(kp.Public, v)
		if err != nil {
			t.Fatalf("EncryptInt64() error = %v", err)
		}
		sum = Add(kp.Public, sum, c)
		want += v
	}

	got, err := Decrypt(kp.Private, sum)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got.Int64() != want {
		t.Errorf("tally = %d, want %d", got.Int64(), want)
	}
}

func TestEncrypt_SameValueProducesDifferentCiphertexts(t *testing.T) {
	kp := testKeyPair(t)
	c1, _ := EncryptInt64(kp.Public, 7)
	c2, _ := EncryptInt64(kp.Public, 7)
	if c1.Cmp(c2) == 0 {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestEncrypt_RejectsValueOutOfRange(t *testing.T) {
	kp := testKeyPair(t)
	if _, err := Encrypt(kp.Public, kp.Public.N); err == nil {
		t.Error("Encrypt() with m == n did not error")
	}
	if _, err := Encrypt(kp.Public, big.NewInt(-1)); err == nil {
		t.Error("Encrypt() with negative m did not error")
	}
}

func TestDeriveKeyPair_IsDeterministicForSameSharedSecret(t *testing.T) {
	shared := []byte("ecdh shared secret fixture, any length works here")

	kp1, err := DeriveKeyPair(shared, 64, 40, 20000)
	if err != nil {
		t.Fatalf("DeriveKeyPair() error = %v", err)
	}
	kp2, err := DeriveKeyPair(shared, 64, 40, 20000)
	if err != nil {
		t.Fatalf("DeriveKeyPair() error = %v", err)
	}

	if kp1.Public.N.Cmp(kp2.Public.N) != 0 {
		t.Error("DeriveKeyPair() produced different moduli for the same shared secret")
	}
}

func TestDeriveKeyPair_DifferentSharedSecretsDiffer(t *testing.T) {
	kp1, err := DeriveKeyPair([]byte("shared secret A, long enough to use"), 64, 40, 20000)
	if err != nil {
		t.Fatalf("DeriveKeyPair() error = %v", err)
	}
	kp2, err := DeriveKeyPair([]byte("shared secret B, long enough to use"), 64, 40, 20000)
	if err != nil {
		t.Fatalf("DeriveKeyPair() error = %v", err)
	}
	if kp1.Public.N.Cmp(kp2.Public.N) == 0 {
		t.Error("DeriveKeyPair() produced the same modulus for different shared secrets")
	}
}

func TestDeriveKeyPair_RejectsEmptySharedSecret(t *testing.T) {
	if _, err := DeriveKeyPair(nil, 64, 40, 20000); err == nil {
		t.Error("DeriveKeyPair() with empty shared secret did not error")
	}
}

func TestSerializeParsePublicKey_RoundTrip(t *testing.T) {
	kp := testKeyPair(t)
	encoded := SerializePublicKey(kp.Public)

	parsed, err := ParsePublicKey(encoded)
	if err != nil {
		t.Fatalf("ParsePublicKey() error = %v", err)
	}
	if parsed.N.Cmp(kp.Public.N) != 0 {
		t.Error("parsed public key's n does not match original")
	}
	if parsed.KeyID != kp.Public.KeyID {
		t.Error("parsed public key's keyId does not match original")
	}
}

func TestParsePublicKey_RejectsTamperedKeyId(t *testing.T) {
	kp := testKeyPair(t)
	encoded := SerializePublicKey(kp.Public)
	encoded[6] ^= 0xFF

	if _, err := ParsePublicKey(encoded); err == nil {
		t.Error("ParsePublicKey() with tampered keyId did not error")
	}
}

func TestSerializeParsePrivateKey_RoundTrip(t *testing.T) {
	kp := testKeyPair(t)
	sb, err := SerializePrivateKey(kp.Private)
	if err != nil {
		t.Fatalf("SerializePrivateKey() error = %v", err)
	}

	parsed, err := ParsePrivateKey(sb)
	if err != nil {
		t.Fatalf("ParsePrivateKey() error = %v", err)
	}
	if parsed.Lambda.Cmp(kp.Private.Lambda) != 0 {
		t.Error("parsed private key's lambda does not match original")
	}
	if parsed.Mu.Cmp(kp.Private.Mu) != 0 {
		t.Error("parsed private key's mu does not match original")
	}

	c, _ := EncryptInt64(parsed.Public, 9)
	got, err := Decrypt(parsed, c)
	if err != nil {
		t.Fatalf("Decrypt() with parsed private key error = %v", err)
	}
	if got.Int64() != 9 {
		t.Errorf("Decrypt() with parsed private key = %d, want 9", got.Int64())
	}
}
