package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for display
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// SetFingerprint identifies the exact stage set a session was played against.
// A persisted session whose fingerprint differs from the loaded set is discarded.
type SetFingerprint Hash

// NewSetFingerprint hashes the canonical encoding of a stage set
func NewSetFingerprint(data []byte) SetFingerprint { return SetFingerprint(NewHash(data)) }

func (h SetFingerprint) String() string { return Hash(h).String() }
