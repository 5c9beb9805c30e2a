// Package fingerprint derives opaque entity-tag values from response bodies.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Algorithm names a hash function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	XXHash Algorithm = "xxhash"
)

// ErrUnknownAlgorithm is returned by New for algorithm names it does not know.
var ErrUnknownAlgorithm = errors.New("unknown fingerprint algorithm")

// Fingerprinter maps a body to an opaque tag value.
// Equal bodies map to equal values.
type Fingerprinter interface {
	Sum(body []byte) string
}

// Hasher is the Fingerprinter returned by New.
type Hasher struct {
	algorithm Algorithm
	length    int
}

// New returns a Hasher for the given algorithm. The digest is rendered as
// lowercase hex and truncated to length characters; a length of zero or
// more than the digest provides selects the algorithm default.
func New(algorithm Algorithm, length int) (Hasher, error) {
	var full, def int
	switch algorithm {
	case "", SHA256:
		algorithm = SHA256
		full, def = sha256.Size*2, 32
	case XXHash:
		full, def = 16, 16
	default:
		return Hasher{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	if length <= 0 || length > full {
		length = def
	}
	return Hasher{algorithm: algorithm, length: length}, nil
}

// Default returns the sha256 Hasher with a 32 character tag.
func Default() Hasher {
	h, _ := New(SHA256, 0)
	return h
}

// Algorithm returns the hash function in use.
func (h Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Sum returns the hex fingerprint of body.
func (h Hasher) Sum(body []byte) string {
	var digest []byte
	switch h.algorithm {
	case XXHash:
		digest = binary.BigEndian.AppendUint64(nil, xxhash.Sum64(body))
	default:
		sum := sha256.Sum256(body)
		digest = sum[:]
	}
	s := hex.EncodeToString(digest)
	if h.length == 0 || h.length > len(s) {
		return s
	}
	return s[:h.length]
}
