// Package id normalises the opaque GUID identifiers used by the system of record.
//
// Two validation modes exist. Strict rejects anything that is not a canonical
// 8-4-4-4-12 GUID and is used for the primary operation identifier. Lenient
// falls back to the all-zero sentinel and is used for optional lot references.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Zero is the sentinel stored when a lot reference is missing or malformed.
const Zero = "00000000-0000-0000-0000-000000000000"

// canonicalLen is the length of the 8-4-4-4-12 textual form.
const canonicalLen = 36

// IsCanonical reports whether s is a GUID in 8-4-4-4-12 hexadecimal form.
// Case is ignored. Braced, URN and hyphen-less forms are rejected even though
// uuid.Parse would accept them.
func IsCanonical(s string) bool {
	if len(s) != canonicalLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Strict returns the identifier unchanged when it is canonical.
func Strict(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !IsCanonical(s) {
		return "", false
	}
	return s, true
}

// Lenient returns the identifier unchanged when it is canonical, Zero otherwise.
func Lenient(s string) string {
	if v, ok := Strict(s); ok {
		return v
	}
	return Zero
}

// IsZero reports whether s is the all-zero sentinel.
func IsZero(s string) bool {
	return strings.EqualFold(s, Zero)
}

// New generates a time-ordered UUIDv7 string for records owned by this service
// (outbox events, audit rows, request IDs).
func New() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}
