// Package fingerprint computes the opaque answer hashes that clients submit
// in place of plaintext answers. Clients and the server must agree on the
// scheme and on the canonical form of the input text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// Scheme names a hash function
type Scheme string

const (
	SchemeSHA256    Scheme = "sha256"
	SchemeKeccak256 Scheme = "keccak256"
)

// Hasher computes fingerprints with a fixed scheme
type Hasher struct {
	scheme Scheme
}

// New returns a Hasher for the given scheme. An empty scheme means sha256.
func New(scheme Scheme) (*Hasher, error) {
	switch scheme {
	case "":
		scheme = SchemeSHA256
	case SchemeSHA256, SchemeKeccak256:
	default:
		return nil, fmt.Errorf("unknown fingerprint scheme %q", scheme)
	}
	return &Hasher{scheme: scheme}, nil
}

// Default returns the sha256 Hasher
func Default() *Hasher {
	return &Hasher{scheme: SchemeSHA256}
}

// Scheme returns the configured scheme
func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

// Compute returns "0x" followed by the lowercase hex digest of the
// canonical question text concatenated with the canonical answer text.
func (h *Hasher) Compute(question, answer string) string {
	input := []byte(Canonical(question) + Canonical(answer))

	var sum []byte
	switch h.scheme {
	case SchemeKeccak256:
		d := sha3.NewLegacyKeccak256()
		d.Write(input)
		sum = d.Sum(nil)
	default:
		s := sha256.Sum256(input)
		sum = s[:]
	}
	return "0x" + hex.EncodeToString(sum)
}

// Canonical trims surrounding whitespace and applies NFC normalization
func Canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize puts a submitted fingerprint in the form Compute produces, so a
// client that upper-cases its hex still matches
func Normalize(fp string) string {
	return strings.ToLower(strings.TrimSpace(fp))
}
