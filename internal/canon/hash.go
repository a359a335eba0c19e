package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for algorithm migration without colliding with old hashes.
const (
	DomainSnapshot   = "prism/snapshot/v1"
	DomainTransition = "prism/transition/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// prevents ambiguity at the domain/data boundary.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the domain-separated hash of v's canonical JSON form.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	return hashWithDomain(domain, data), nil
}

// SnapshotHash computes the content hash of an editor state snapshot: the
// document, the selection, and the named facet values observed after a
// transition. Two replays of the same transition log must produce identical
// snapshot hashes; that equality is what the replay determinism check
// verifies.
func SnapshotHash(doc string, anchor, head int, facets map[string]any) (string, error) {
	return Hash(DomainSnapshot, map[string]any{
		"doc":    doc,
		"anchor": anchor,
		"head":   head,
		"facets": facets,
	})
}
