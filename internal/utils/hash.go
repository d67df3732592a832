package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex SHA-256 of data. Uploads are identified by it
// in logs; nothing is stored.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TruncateHash returns the first length characters of hash.
func TruncateHash(hash string, length int) string {
	if length <= 0 || length >= len(hash) {
		return hash
	}
	return hash[:length]
}
