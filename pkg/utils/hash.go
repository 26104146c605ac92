package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// PayloadChecksum returns the hex SHA-256 checksum of a revision payload.
// Stored alongside the payload so identical resubmissions can be spotted
// cheaply.
func PayloadChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
