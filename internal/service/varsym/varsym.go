// Package varsym generates and validates variable symbols: the 8 digit numeric
// identifiers a payer puts into a domestic transfer to correlate it with a request.
package varsym

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	Length = 8

	minValue = 10_000_000
	maxValue = 99_999_999
)

// Generate returns a uniformly random variable symbol in [10000000, 99999999].
// Uniqueness is not checked, callers that need it must look up existing records.
func Generate() string {
	return strconv.Itoa(minValue + rand.IntN(maxValue-minValue+1))
}

// IsValid reports whether s is exactly 8 ASCII digits with value of at least 10000000
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}

	// It's ok to work with string as bytes here
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	// With 8 digits this only rejects a leading zero, including the all-zero value
	return s[0] != '0'
}

// Normalize strips leading zeros, banks may pad the symbol up to 10 digits
func Normalize(s string) string {
	return strings.TrimLeft(s, "0")
}
