// Package paillier implements a deterministic, additively homomorphic
// Paillier cryptosystem used to keep individual ballots secret while
// still letting a tallier sum encrypted votes (spec §4.7, §4.9).
package paillier

import (
	"math/big"

	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/errs"
)

const (
	primeGenInfo = "PaillierPrimeGen"
	keyIdInfo    = "PaillierKeyId"
	keyIdSize    = 8

	// minPrimeGapShift is the exponent in the required prime separation
	// |p - q| > 2^(bitLength/2 - minPrimeGapShift) (spec §4.7 step 4).
	minPrimeGapShift = 100
)

// PublicKey is the Paillier public key n, g = n+1 (spec §4.7 step 5).
type PublicKey struct {
	KeyID [keyIdSize]byte
	N     *big.Int
	NSq   *big.Int
	G     *big.Int
}

// PrivateKey is the Paillier private key λ, μ, held alongside the public
// modulus. The authority's tallier is the only holder (spec §5's
// shared-resource policy); a Poll only ever sees the public key.
type PrivateKey struct {
	Public *PublicKey
	P      *big.Int
	Q      *big.Int
	Lambda *big.Int
	Mu     *big.Int
}

// KeyPair bundles a derived Paillier public/private pair.
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// DeriveKeyPair derives a Paillier key pair deterministically from an
// ECDH shared secret, so the same identity regenerates the same voting
// keys without ever storing them (spec §4.7). bitLength, iterations, and
// maxAttempts come from the caller's frozen configuration.
func DeriveKeyPair(ecdhShared []byte, bitLength, iterations, maxAttempts int) (*KeyPair, error) {
	if len(ecdhShared) == 0 {
		return nil, errs.New(errs.CodeInvalidSharedSecret, "errors.invalidSharedSecret", nil)
	}
	if bitLength%2 != 0 || bitLength < 64 {
		return nil, errs.New(errs.CodeInvalidLength, "errors.invalidLength", nil)
	}

	prk := cryptocore.ExtractPRK(ecdhShared, []byte(primeGenInfo))
	return generateDeterministicKeyPair(prk, bitLength, iterations, maxAttempts)
}

// generateDeterministicKeyPair builds a key pair from an already-derived
// seed. Exposed only for testing against known vectors: production
// callers must go through DeriveKeyPair so the seed always traces back to
// a member's own ECDH shared secret (spec §4.7's security note).
func generateDeterministicKeyPair(seed []byte, bitLength, iterations, maxAttempts int) (*KeyPair, error) {
	drbg := newHMACDRBG(seed)
	primeBits := bitLength / 2
	minGap := big.NewInt(0)
	if primeBits > minPrimeGapShift {
		minGap.Lsh(big.NewInt(1), uint(primeBits-minPrimeGapShift))
	}

	var p, q *big.Int
	for {
		var err error
		p, err = generatePrime(drbg, primeBits, iterations, maxAttempts)
		if err != nil {
			return nil, err
		}
		q, err = generatePrime(drbg, primeBits, iterations, maxAttempts)
		if err != nil {
			return nil, err
		}

		diff := new(big.Int).Sub(p, q)
		diff.Abs(diff)
		if diff.Cmp(minGap) <= 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
		qMinus1 := new(big.Int).Sub(q, big.NewInt(1))
		lambdaCandidate := new(big.Int).Mul(pMinus1, qMinus1)
		g := gcd(n, lambdaCandidate)
		if g.Cmp(big.NewInt(1)) != 0 {
			continue
		}
		break
	}

	n := new(big.Int).Mul(p, q)
	nSq := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, big.NewInt(1))

	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	qMinus1 := new(big.Int).Sub(q, big.NewInt(1))
	lambda := lcm(pMinus1, qMinus1)
	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errs.New(errs.CodePrimeGenerationExhausted, "errors.primeGenerationExhausted", nil)
	}

	pub := &PublicKey{N: n, NSq: nSq, G: g}
	pub.KeyID = computeKeyID(n)

	priv := &PrivateKey{Public: pub, P: p, Q: q, Lambda: lambda, Mu: mu}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// generatePrime draws candidate bytes from drbg, shapes them into an
// odd bitLength-bit integer with both top bits set (so the product of
// two such primes is exactly 2*bitLength bits), and tests primality with
// bitLength-independent Miller-Rabin rounds up to maxAttempts times.
func generatePrime(drbg *hmacDRBG, bits, iterations, maxAttempts int) (*big.Int, error) {
	byteLen := (bits + 7) / 8
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := new(big.Int).SetBytes(drbg.generate(byteLen))
		candidate.SetBit(candidate, bits-1, 1)
		candidate.SetBit(candidate, bits-2, 1)
		candidate.SetBit(candidate, 0, 1)

		if candidate.ProbablyPrime(iterations) {
			return candidate, nil
		}
	}
	return nil, errs.New(errs.CodePrimeGenerationExhausted, "errors.primeGenerationExhausted", nil)
}

func gcd(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}

func lcm(a, b *big.Int) *big.Int {
	g := gcd(a, b)
	result := new(big.Int).Mul(a, b)
	return result.Div(result, g)
}

func computeKeyID(n *big.Int) [keyIdSize]byte {
	digest, err := cryptocore.DeriveKey(n.Bytes(), nil, []byte(keyIdInfo), keyIdSize)
	var id [keyIdSize]byte
	if err != nil {
		return id
	}
	copy(id[:], digest)
	return id
}
