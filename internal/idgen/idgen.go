// Package idgen produces the opaque identifiers used for sessions and image
// records. IDs must be unguessable — a session ID is the only credential a
// client holds — so the default strategy is 128-bit random UUIDs, never
// time-sortable variants.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// Random returns a Generator producing RFC 4122 version-4 UUIDs
// (122 random bits from crypto/rand).
func Random() Generator {
	return func() string {
		return uuid.New().String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the repository-wide default: random v4.
var Default Generator = Random()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Parse validates an identifier and returns its canonical form. Every ID
// that ends up in a filesystem path goes through here first, which also
// rules out path traversal by construction.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid identifier: %w", err)
	}
	return u.String(), nil
}
