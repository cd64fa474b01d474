package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource = "unwind/source/v1"
	DomainIR     = "unwind/ir/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash computes the content-addressed identity of a source text.
// The lowering cache keys entries by this hash plus the dialect name.
func SourceHash(source string) string {
	return hashWithDomain(DomainSource, []byte(source))
}

// IRHash computes the content-addressed identity of an IR tree over its
// canonical JSON form. Structurally equal trees always hash identically.
func IRHash(v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("IRHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIR, canonical), nil
}

// MustIRHash is like IRHash but panics on error.
// Use only in tests or when the tree is known to contain finite floats only.
func MustIRHash(v IRValue) string {
	h, err := IRHash(v)
	if err != nil {
		panic(err)
	}
	return h
}
