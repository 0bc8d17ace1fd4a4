package cryptocore

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// HardenedOffset is added to a path segment's index to mark it hardened
// (BIP32's ' suffix), per spec §4.2.
const HardenedOffset = uint32(1) << 31

// bip32MasterKeyLabel is the fixed HMAC key BIP32 uses to derive the
// master extended key from a BIP39 seed.
var bip32MasterKeyLabel = []byte("Bitcoin seed")

// curveOrderN is the secp256k1 group order, used for the modular addition
// CKDpriv performs at every derivation step.
var curveOrderN = btcec.S256().N

// ExtendedKey is a BIP32 extended private key: a secp256k1 scalar plus the
// 32-byte chain code used to derive its children.
type ExtendedKey struct {
	Key       *btcec.PrivateKey
	ChainCode [32]byte
	Depth     byte
	ChildIdx  uint32
}

// MasterKeyFromSeed derives the BIP32 master extended key from a BIP39
// seed (spec §4.2). It is the root of every member's HD wallet.
func MasterKeyFromSeed(seed []byte) (*ExtendedKey, error) {
	if len(seed) == 0 {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"want": "nonzero"})
	}
	mac := hmac.New(sha512.New, bip32MasterKeyLabel)
	mac.Write(seed)
	i := mac.Sum(nil)

	il, ir := i[:32], i[32:]
	priv, _ := btcec.PrivKeyFromBytes(il)
	if priv == nil || isZeroOrOverCurveOrder(il) {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"reason": "invalid master key material"})
	}

	ek := &ExtendedKey{Key: priv}
	copy(ek.ChainCode[:], ir)
	return ek, nil
}

// DerivePath walks a BIP32 path string such as "m/44'/60'/0'/0/0", applying
// CKDpriv at each segment. Apostrophe/h-suffixed segments are hardened.
func (ek *ExtendedKey) DerivePath(path string) (*ExtendedKey, error) {
	segments, err := parseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	cur := ek
	for _, idx := range segments {
		cur, err = cur.Child(idx)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Child derives the single child extended key at the given index (CKDpriv).
// Indices >= HardenedOffset request hardened derivation.
func (ek *ExtendedKey) Child(index uint32) (*ExtendedKey, error) {
	var data []byte
	if index >= HardenedOffset {
		data = make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, ek.Key.Serialize()...)
	} else {
		data = ek.Key.PubKey().SerializeCompressed()
	}
	var idxBytes [4]byte
	binary.BigEndian.PutUint32(idxBytes[:], index)
	data = append(data, idxBytes[:]...)

	mac := hmac.New(sha512.New, ek.ChainCode[:])
	mac.Write(data)
	i := mac.Sum(nil)
	il, ir := i[:32], i[32:]

	if isZeroOrOverCurveOrder(il) {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"reason": "invalid child key material"})
	}

	childScalar := new(big.Int).Add(new(big.Int).SetBytes(il), new(big.Int).SetBytes(ek.Key.Serialize()))
	childScalar.Mod(childScalar, curveOrderN)
	if childScalar.Sign() == 0 {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", map[string]string{"reason": "derived zero child key"})
	}

	childBytes := make([]byte, 32)
	childScalar.FillBytes(childBytes)
	childPriv, _ := btcec.PrivKeyFromBytes(childBytes)

	child := &ExtendedKey{Key: childPriv, Depth: ek.Depth + 1, ChildIdx: index}
	copy(child.ChainCode[:], ir)
	return child, nil
}

func isZeroOrOverCurveOrder(b []byte) bool {
	n := new(big.Int).SetBytes(b)
	return n.Sign() == 0 || n.Cmp(curveOrderN) >= 0
}

// parseDerivationPath parses "m/44'/60'/0'/0/0"-style paths into raw
// (possibly hardened) uint32 indices.
func parseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("cryptocore: derivation path must start with \"m\": %q", path)
	}
	indices := make([]uint32, 0, len(parts)-1)
	for _, seg := range parts[1:] {
		hardened := strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") || strings.HasSuffix(seg, "H")
		numPart := strings.TrimRight(seg, "'hH")
		n, err := strconv.ParseUint(numPart, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("cryptocore: invalid path segment %q: %w", seg, err)
		}
		idx := uint32(n)
		if hardened {
			idx += HardenedOffset
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
