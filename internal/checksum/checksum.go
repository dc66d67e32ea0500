// Package checksum computes the content digests used as document ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Source returns the digest of a canonical source string.
func Source(src string) string {
	return Sum([]byte(src))
}

// Match reports whether an If-Match precondition holds for data. An empty
// precondition always holds.
func Match(ifMatch string, data []byte) bool {
	return ifMatch == "" || ifMatch == Sum(data)
}
