package paillier

import (
	"crypto/hmac"
	"crypto/sha512"
)

// hmacDRBG is a minimal HMAC-SHA-512 deterministic bit generator seeded
// from a single pseudorandom key (spec §4.7 step 3). It is not a general
// NIST SP 800-90A implementation — no reseed counter, no prediction
// resistance — because the only consumer is prime-candidate generation
// from a fixed, already-high-entropy seed.
type hmacDRBG struct {
	key   []byte
	value []byte
}

func newHMACDRBG(seed []byte) *hmacDRBG {
	key := make([]byte, sha512.Size)
	value := make([]byte, sha512.Size)
	for i := range value {
		value[i] = 0x01
	}

	mac := hmac.New(sha512.New, key)
	mac.Write(value)
	mac.Write([]byte{0x00})
	mac.Write(seed)
	key = mac.Sum(nil)

	mac = hmac.New(sha512.New, key)
	mac.Write(value)
	value = mac.Sum(nil)

	mac = hmac.New(sha512.New, key)
	mac.Write(value)
	mac.Write([]byte{0x01})
	mac.Write(seed)
	key = mac.Sum(nil)

	mac = hmac.New(sha512.New, key)
	mac.Write(value)
	value = mac.Sum(nil)

	return &hmacDRBG{key: key, value: value}
}

// generate fills out with n pseudorandom bytes.
func (d *hmacDRBG) generate(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		mac := hmac.New(sha512.New, d.key)
		mac.Write(d.value)
		d.value = mac.Sum(nil)
		out = append(out, d.value...)
	}
	return out[:n]
}
