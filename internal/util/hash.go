// ABOUTME: Content hashing and namespace derivation helpers
// ABOUTME: md5 keeps record IDs and namespaces identical across re-ingestion
package util

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHash returns the md5 hex digest of text. It is the record ID
// in the vector store, so identical chunk content always collapses to
// the same entry.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// UserNamespace derives the vector store namespace for a user.
// The store caps namespace length, so only the first 16 hex characters
// are used.
func UserNamespace(userID string) string {
	return ContentHash(userID)[:16]
}
