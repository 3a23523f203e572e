package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Result describes one scrub of a document.
type Result struct {
	// Path is the file that was rewritten; empty for in-memory scrubs.
	Path string

	// Cleared lists the dotted paths set to the placeholder, in target order.
	Cleared []string

	// Skipped lists container paths that were absent or not objects.
	Skipped []string

	// Duplicates lists keys that appeared more than once in an object. Only
	// the last occurrence of each survives.
	Duplicates []string

	// InputDigest and OutputDigest are hex SHA-256 sums of the document text.
	InputDigest  string
	OutputDigest string

	// Changed reports whether the rewritten text differs from the input.
	Changed bool

	// Bytes is the size of the rewritten document.
	Bytes int

	Duration time.Duration
}

// PassThrough reports whether no target container was found.
func (r *Result) PassThrough() bool {
	return len(r.Cleared) == 0
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
