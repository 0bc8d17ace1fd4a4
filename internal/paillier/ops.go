package paillier

import (
	"crypto/rand"
	"math/big"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

// Encrypt computes c = g^m * r^n mod n^2 for a fresh random r coprime to
// n, the standard Paillier encryption (spec §4.7's public key, applied by
// §4.8's VoteEncoder).
func Encrypt(pub *PublicKey, m *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pub.N) >= 0 {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}

	r, err := randomCoprime(pub.N)
	if err != nil {
		return nil, err
	}

	gm := new(big.Int).Exp(pub.G, m, pub.NSq)
	rn := new(big.Int).Exp(r, pub.N, pub.NSq)
	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, pub.NSq)
	return c, nil
}

// EncryptInt64 is a convenience wrapper for the small non-negative
// integers a voting method ever encrypts (0/1 flags, ranks, scores,
// weights).
func EncryptInt64(pub *PublicKey, m int64) (*big.Int, error) {
	return Encrypt(pub, big.NewInt(m))
}

// Add homomorphically adds two ciphertexts encrypted under the same
// public key: Enc(a) * Enc(b) mod n^2 = Enc(a+b) (spec §4.9's
// Σ_j = Π_i c_ij mod n²).
func Add(pub *PublicKey, c1, c2 *big.Int) *big.Int {
	sum := new(big.Int).Mul(c1, c2)
	return sum.Mod(sum, pub.NSq)
}

// IdentityCiphertext returns Enc(0), the additive identity used to seed
// a homomorphic sum over an empty ballot set (spec §4.9's empty-poll
// rule).
func IdentityCiphertext(pub *PublicKey) (*big.Int, error) {
	return EncryptInt64(pub, 0)
}

// Decrypt recovers m from c = g^m * r^n mod n^2 via
// m = L(c^λ mod n^2) * μ mod n, where L(x) = (x-1)/n.
func Decrypt(priv *PrivateKey, c *big.Int) (*big.Int, error) {
	n := priv.Public.N
	nSq := priv.Public.NSq

	if c.Sign() < 0 || c.Cmp(nSq) >= 0 {
		return nil, errs.Opaque(errs.CodeDecryptionFailed, "errors.decryptionFailed", nil)
	}

	cLambda := new(big.Int).Exp(c, priv.Lambda, nSq)
	l := lFunction(cLambda, n)
	m := new(big.Int).Mul(l, priv.Mu)
	m.Mod(m, n)
	return m, nil
}

// lFunction computes (x-1)/n, the standard Paillier L function.
func lFunction(x, n *big.Int) *big.Int {
	num := new(big.Int).Sub(x, big.NewInt(1))
	return num.Div(num, n)
}

// randomCoprime draws a uniform random value in [1, n) coprime to n.
// Rejection sampling terminates almost immediately in practice since n
// is a product of two large primes.
func randomCoprime(n *big.Int) (*big.Int, error) {
	one := big.NewInt(1)
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() == 0 {
			continue
		}
		if gcd(r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}
