// Package otpcode generates the numeric one-time codes mailed during signup.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of decimal digits in a code.
const Length = 6

var upper = big.NewInt(1_000_000)

// Generate returns a code of exactly Length digits drawn uniformly from
// 000000-999999 inclusive.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Valid reports whether s has the shape of a code. The server does not
// enforce it; clients use it to gate submission.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
