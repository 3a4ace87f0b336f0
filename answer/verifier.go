// Package answer decides whether a submitted answer matches the canonical one.
// The game engine only depends on the Verify signature, so smarter matchers
// (edit distance, embeddings) can replace NormalizedMatch without touching it.
package answer

import "strings"

type NormalizedMatch struct{}

func NewNormalizedMatch() NormalizedMatch {
	return NormalizedMatch{}
}

// Verify compares candidate against canonical after normalization: case,
// surrounding whitespace and repeated interior whitespace are ignored.
func (NormalizedMatch) Verify(candidate, canonical string) bool {
	return normalize(candidate) == normalize(canonical)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
