// Package checksum computes the content digests used to tell whether a note
// changed between scans.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortLen is the prefix length used when a digest only needs to be
// recognisable, as in log lines.
const shortLen = 12

// Sum returns the hex-encoded SHA-256 digest of a note's raw bytes,
// frontmatter included.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short truncates a digest for display. Shorter input is returned as is.
func Short(sum string) string {
	if len(sum) <= shortLen {
		return sum
	}
	return sum[:shortLen]
}
