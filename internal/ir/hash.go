package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPresentation = "semirace/presentation/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PresentationHash computes a content-addressed ID for a presentation.
// Generator names and relation order are part of the identity; the
// presentation Name is not.
func PresentationHash(p Presentation) (string, error) {
	alphabet := make([]any, len(p.Alphabet))
	for i, name := range p.Alphabet {
		alphabet[i] = name
	}
	obj := map[string]any{
		"alphabet":  alphabet,
		"relations": relationsToCanonical(p.Relations),
		"extra":     relationsToCanonical(p.Extra),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("PresentationHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPresentation, canonical), nil
}

// MustPresentationHash is like PresentationHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPresentationHash(p Presentation) string {
	h, err := PresentationHash(p)
	if err != nil {
		panic(err)
	}
	return h
}

func relationsToCanonical(rels []Relation) []any {
	out := make([]any, len(rels))
	for i, r := range rels {
		out[i] = []any{r.Left, r.Right}
	}
	return out
}
