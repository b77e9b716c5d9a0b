// Package password hashes and verifies stored employee credentials.
package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the longest password bcrypt accepts.
const MaxBytes = 72

// ErrTooLong is returned by Hash for passwords over MaxBytes.
var ErrTooLong = bcrypt.ErrPasswordTooLong

// bcryptPrefix marks a stored value as a bcrypt hash ($2a$, $2b$, $2y$).
const bcryptPrefix = "$2"

// Hasher turns a plaintext password into its stored form.
type Hasher interface {
	Hash(plain string) (string, error)
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher using the given bcrypt cost. Out of range
// costs fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > MaxBytes {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, bcryptPrefix)
}

// ErrPlaintextDisabled is returned by Verify when the stored value is not a
// hash and plaintext comparison is not allowed.
var ErrPlaintextDisabled = errors.New("stored password is not hashed and plaintext comparison is disabled")

// Verify checks plain against stored. Hashed values are compared with bcrypt;
// anything else is compared as plaintext when allowPlaintext is set.
func Verify(stored, plain string, allowPlaintext bool) (bool, error) {
	if IsHashed(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, ErrTooLong) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
	if !allowPlaintext {
		return false, ErrPlaintextDisabled
	}
	return stored == plain, nil
}
