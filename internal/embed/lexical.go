package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultLexicalDims is the vector width of the lexical embedder. Wide enough
// that trigram hash collisions stay rare for field-name-sized inputs.
const DefaultLexicalDims = 256

// LexicalEmbedder maps text to a hashed bag of character trigrams. It is the
// default backend: deterministic, dependency-free, and good enough to rank
// surface-form similarity between field names ("hr_watch_01" vs "hr_watch_02").
// It cannot capture meaning across vocabularies ("hr" vs "Heart Rate"), so
// deployments that need semantic matching should build with the llamacpp tag
// and point the resolver at a GGUF embedding model.
type LexicalEmbedder struct {
	dims int
}

// NewLexicalEmbedder creates a LexicalEmbedder. dims <= 0 selects
// DefaultLexicalDims.
func NewLexicalEmbedder(dims int) *LexicalEmbedder {
	if dims <= 0 {
		dims = DefaultLexicalDims
	}
	return &LexicalEmbedder{dims: dims}
}

// Embed returns the hashed-trigram vector for text. Text is case-folded and
// punctuation is collapsed to single separators first, so "Heart_Rate(bpm)"
// and "heart rate bpm" land on the same trigrams.
func (l *LexicalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vec := make([]float32, l.dims)
	norm := normalizeField(text)
	if norm == "" {
		return vec, nil
	}

	// Pad so single-character fields still produce a trigram.
	padded := " " + norm + " "
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%uint32(l.dims)]++
	}
	return vec, nil
}

// Close is a no-op for the lexical embedder.
func (l *LexicalEmbedder) Close() error { return nil }

// normalizeField lowercases text and collapses runs of non-alphanumeric
// characters into single spaces.
func normalizeField(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSep = false
		} else if !lastSep {
			b.WriteRune(' ')
			lastSep = true
		}
	}
	return strings.TrimSpace(b.String())
}
