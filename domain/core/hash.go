package core

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"math"
	"strconv"
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

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex characters, enough for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Hasher accumulates ordered fields into a SHA-256 fingerprint.
// Fields are length-prefixed so ("ab","c") and ("a","bc") differ.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts an empty fingerprint.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Add adds a string field.
func (f *Hasher) Add(s string) *Hasher {
	io.WriteString(f.h, strconv.Itoa(len(s)))
	io.WriteString(f.h, ":")
	io.WriteString(f.h, s)
	return f
}

// AddFloat adds a float field; missing values hash as a fixed marker distinct from any number.
func (f *Hasher) AddFloat(v float64, valid bool) *Hasher {
	if !valid {
		return f.Add("<missing>")
	}
	return f.Add(strconv.FormatUint(math.Float64bits(v), 16))
}

// Sum finalizes the fingerprint.
func (f *Hasher) Sum() Hash {
	return Hash(hex.EncodeToString(f.h.Sum(nil)))
}
