// Package cryptox wraps the password hashing and token fingerprint
// primitives used by the auth service.
package cryptox

import (
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor. 12 is the floor for resisting offline
// brute force on current hardware.
const HashCost = 12

// hashGate bounds the number of concurrent bcrypt computations. Hashing is
// deliberately CPU-expensive; without the gate a burst of logins could pin
// every scheduler thread on key derivation.
var hashGate = make(chan struct{}, max(2, runtime.GOMAXPROCS(0)))

// HashPassword derives a salted bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	hashGate <- struct{}{}
	defer func() { <-hashGate }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// The comparison is constant-effort; it returns a non-nil error on mismatch.
func VerifyPassword(password, encodedHash string) error {
	hashGate <- struct{}{}
	defer func() { <-hashGate }()

	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
}
