//go:build llamacpp

package embed

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	llama "github.com/tcpipuk/llama-go"
)

// LocalEmbedder computes embeddings with an embedded GGUF model via llama-go.
// The model is lazy-loaded on first use and all context access is serialized
// with a mutex (llama contexts are not thread-safe).
type LocalEmbedder struct {
	modelPath   string
	gpuLayers   int
	contextSize int

	mu      sync.Mutex
	model   *llama.Model
	embCtx  *llama.Context
	loadErr error
	once    sync.Once
}

// LocalConfig configures the local embedding backend.
type LocalConfig struct {
	// ModelPath is the path to the GGUF embedding model file.
	ModelPath string

	// GPULayers is the number of layers to offload to GPU (0 = CPU only).
	GPULayers int

	// ContextSize is the context window size in tokens. Default 512,
	// plenty for field names.
	ContextSize int
}

// NewLocalEmbedder creates a LocalEmbedder. The model is not loaded until
// the first Embed call.
func NewLocalEmbedder(cfg LocalConfig) *LocalEmbedder {
	ctxSize := cfg.ContextSize
	if ctxSize <= 0 {
		ctxSize = 512
	}
	return &LocalEmbedder{
		modelPath:   cfg.ModelPath,
		gpuLayers:   cfg.GPULayers,
		contextSize: ctxSize,
	}
}

// Available reports whether the model file exists on disk. Cheap check that
// does not load the model.
func (l *LocalEmbedder) Available() bool {
	if l.modelPath == "" {
		return false
	}
	_, err := os.Stat(l.modelPath)
	return err == nil
}

func (l *LocalEmbedder) load() error {
	l.once.Do(func() {
		if l.modelPath == "" {
			l.loadErr = fmt.Errorf("local embedder: %w: no model path configured", ErrUnavailable)
			return
		}

		model, err := llama.LoadModel(l.modelPath,
			llama.WithGPULayers(l.gpuLayers),
			llama.WithMMap(true),
			llama.WithSilentLoading(),
		)
		if err != nil {
			l.loadErr = fmt.Errorf("loading model %s: %w", l.modelPath, err)
			return
		}
		l.model = model

		ctx, err := model.NewContext(
			llama.WithEmbeddings(),
			llama.WithContext(l.contextSize),
			llama.WithThreads(runtime.NumCPU()),
		)
		if err != nil {
			model.Close()
			l.model = nil
			l.loadErr = fmt.Errorf("creating embedding context: %w", err)
			return
		}
		l.embCtx = ctx
	})
	return l.loadErr
}

// Embed returns the embedding vector for text.
func (l *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.load(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	emb, err := l.embCtx.GetEmbeddings(text)
	if err != nil {
		return nil, fmt.Errorf("getting embeddings: %w", err)
	}
	return emb, nil
}

// Close releases the model and context resources. Safe to call multiple times.
func (l *LocalEmbedder) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.embCtx != nil {
		l.embCtx.Close()
		l.embCtx = nil
	}
	if l.model != nil {
		l.model.Close()
		l.model = nil
	}
	return nil
}
