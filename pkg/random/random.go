package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRandomString returns a random alphanumeric string of the given length,
// drawn uniformly with crypto/rand. The generator keeps no state;
// uniqueness is enforced by the caller.
func NewRandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid length %d", length)
	}

	max := big.NewInt(int64(len(alphabet)))
	result := make([]byte, length)

	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		result[i] = alphabet[n.Int64()]
	}

	return string(result), nil
}
