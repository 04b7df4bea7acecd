package common

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ContentHash computes the SHA256 hash of content and returns a hex string.
// Used as the cache key for classification results.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// NormalizeTitle produces the deduplication key for a post title: interior
// whitespace collapsed to single spaces, edges trimmed, case folded.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
