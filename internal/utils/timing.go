package utils

import "crypto/subtle"

// ConstantTimeEqual compares a and b in constant time with respect to
// their shared length. Unequal lengths return false immediately, since
// length is not considered secret (spec §4.1).
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
