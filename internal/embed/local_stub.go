//go:build !llamacpp

package embed

import "context"

// LocalEmbedder requires the llamacpp build tag. This stub keeps the API
// stable in default builds and reports the backend as unavailable.
type LocalEmbedder struct{}

// LocalConfig configures the local embedding backend.
type LocalConfig struct {
	ModelPath   string
	GPULayers   int
	ContextSize int
}

// NewLocalEmbedder returns a stub whose Embed always fails with
// ErrUnavailable.
func NewLocalEmbedder(cfg LocalConfig) *LocalEmbedder {
	return &LocalEmbedder{}
}

// Available always returns false without the llamacpp build tag.
func (l *LocalEmbedder) Available() bool { return false }

// Embed always fails: the binary was built without llama.cpp support.
func (l *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (l *LocalEmbedder) Close() error { return nil }
