package cryptocore

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// NewMnemonic generates a BIP39 mnemonic at the given entropy strength in
// bits (128, 160, 192, 224, or 256; spec §4.2/§6's MnemonicStrength).
func NewMnemonic(strengthBits int) (string, error) {
	entropy, err := bip39.NewEntropy(strengthBits)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidLength, "errors.invalidLength", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidMnemonic, "errors.invalidMnemonic", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic reports whether s is a well-formed BIP39 mnemonic
// (correct word count, wordlist membership, and checksum).
func ValidateMnemonic(s string) bool {
	return bip39.IsMnemonicValid(s)
}

// SeedFromMnemonic derives the 64-byte BIP39 seed via PBKDF2-HMAC-SHA512
// (2048 iterations, fixed by the BIP39 standard and spec §4.2) over the
// mnemonic and an optional passphrase.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errs.New(errs.CodeInvalidMnemonic, "errors.invalidMnemonic", nil)
	}
	return bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
}
