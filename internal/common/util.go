package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// MakeRandHexString returns a hex string built from size cryptographically
// random bytes (the result is 2*size characters long).
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand error: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MakeSixDigitCode returns a uniformly random zero-padded code in the
// range "000000".."999999".
func MakeSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("rand error: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
