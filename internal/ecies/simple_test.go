package ecies

import (
	"bytes"
	"errors"
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
)

func TestEncryptDecryptSimple_RoundTrip(t *testing.T) {
	kp, err := cryptocore.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	plaintext := []byte("a ballot transcript worth protecting")

	frame, err := EncryptSimple(kp.Public, plaintext)
	if err != nil {
		t.Fatalf("EncryptSimple() error = %v", err)
	}
	if frame[6] != ModeSimple {
		t.Fatalf("mode byte = %d, want %d", frame[6], ModeSimple)
	}

	got, err := DecryptSimple(kp.Private, frame)
	if err != nil {
		t.Fatalf("DecryptSimple() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("DecryptSimple() = %q, want %q", got, plaintext)
	}
}

func TestEncryptSimple_RejectsEmptyPlaintext(t *testing.T) {
	kp, _ := cryptocore.GenerateKeyPair()
	if _, err := EncryptSimple(kp.Public, nil); err == nil {
		t.Error("EncryptSimple() with empty plaintext did not error")
	}
}

func TestDecryptSimple_TamperedCiphertextIsOpaque(t *testing.T) {
	kp, _ := cryptocore.GenerateKeyPair()
	frame, _ := EncryptSimple(kp.Public, []byte("hello"))
	frame[len(frame)-1] ^= 0xFF

	_, err := DecryptSimple(kp.Private, frame)
	if err == nil {
		t.Fatal("DecryptSimple() on tampered frame did not error")
	}
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeDecryptionFailed {
		t.Errorf("error = %v, want opaque %s", err, errs.CodeDecryptionFailed)
	}
}

func TestDecryptSimple_WrongRecipientIsOpaque(t *testing.T) {
	kp, _ := cryptocore.GenerateKeyPair()
	other, _ := cryptocore.GenerateKeyPair()
	frame, _ := EncryptSimple(kp.Public, []byte("hello"))

	_, err := DecryptSimple(other.Private, frame)
	if err == nil {
		t.Fatal("DecryptSimple() with wrong recipient key did not error")
	}
}

func TestDecryptSimple_RejectsBadMagic(t *testing.T) {
	kp, _ := cryptocore.GenerateKeyPair()
	frame, _ := EncryptSimple(kp.Public, []byte("hello"))
	frame[0] ^= 0xFF

	_, err := DecryptSimple(kp.Private, frame)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInvalidMagicBytes {
		t.Errorf("error = %v, want %s", err, errs.CodeInvalidMagicBytes)
	}
}

func TestDecryptSimple_RejectsUnsupportedVersion(t *testing.T) {
	kp, _ := cryptocore.GenerateKeyPair()
	frame, _ := EncryptSimple(kp.Public, []byte("hello"))
	frame[5] ^= 0xFF

	_, err := DecryptSimple(kp.Private, frame)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeUnsupportedVersion {
		t.Errorf("error = %v, want %s", err, errs.CodeUnsupportedVersion)
	}
}
