package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns the hex SHA-256 of data.
func HashString(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
