package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed hashing. The version suffix
// leaves room for algorithm migration without colliding with old
// digests.
const (
	// DomainPack fingerprints a scenario pack. This digest is the
	// join key between a pack and its audit trail.
	DomainPack = "arbiter/pack/v1"

	// DomainSubSeed derives per-scenario generator seeds for
	// implementations that evaluate scenarios in parallel.
	DomainSubSeed = "arbiter/subseed/v1"
)

// Hash computes SHA-256 with domain separation:
// SHA256(domain || 0x00 || data), hex encoded.
// The null separator prevents domain/data boundary ambiguity.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashValue canonicalizes v and hashes it under the given domain.
func HashValue(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return Hash(domain, canonical), nil
}

// HashJSON decodes raw JSON, canonicalizes it, and hashes it under
// the given domain. Key order and whitespace in the source never
// affect the digest.
func HashJSON(domain string, data []byte) (string, error) {
	v, err := FromJSON(data)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashValue(domain, v)
}
