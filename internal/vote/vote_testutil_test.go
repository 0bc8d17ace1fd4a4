package vote

import (
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

func testKeyPair(t *testing.T) *paillier.KeyPair {
	t.Helper()
	kp, err := paillier.DeriveKeyPair([]byte("vote-package-deterministic-test-seed"), 64, 40, 20000)
	if err != nil {
		t.Fatalf("DeriveKeyPair() error = %v", err)
	}
	return kp
}
