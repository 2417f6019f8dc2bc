// Package embed provides the embedding backends used to score field-name
// similarity. An Embedder turns a field name into a fixed-length vector;
// cosine similarity between vectors is the confidence metric throughout
// fieldloop.
package embed

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the requested embedding backend cannot be used
// in this build or environment (e.g. the llamacpp backend in a binary built
// without the llamacpp tag, or a missing model file).
var ErrUnavailable = errors.New("embedding backend unavailable")

// Embedder computes a dense vector for a piece of text. Implementations must
// be deterministic for identical input within a process lifetime and safe for
// concurrent use. Backend failures are infrastructure errors and propagate to
// the caller; there is no safe default vector.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases backend resources. Safe to call multiple times.
	Close() error
}

// EmbedAll embeds each text in order, failing fast on the first error.
// Callers use this to precompute schema and learned-key embeddings once per
// process rather than per resolution call.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
