package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNode   = "alkali/node/v1"
	DomainSource = "alkali/source/v2"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a tree. Structurally identical
// trees have identical fingerprints regardless of node identity.
func Fingerprint(n Node) (string, error) {
	canonical, err := MarshalCanonical(ToMap(n))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return HashWithDomain(DomainNode, canonical), nil
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	ca, errA := MarshalCanonical(ToMap(a))
	cb, errB := MarshalCanonical(ToMap(b))
	return errA == nil && errB == nil && string(ca) == string(cb)
}
