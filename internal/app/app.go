// Package app wires a fieldloop project together: configuration, the
// feedback store, the embedding backend, and a ready-to-use resolver. The
// CLI and the MCP server share this glue so they cannot drift apart.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/consensus"
	"github.com/tclarke/fieldloop/internal/embed"
	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/resolver"
)

// App is one opened fieldloop project.
type App struct {
	Root   string
	Dir    string
	Config config.Config
	Store  feedback.Store

	embedder embed.Embedder
}

// Open loads the project at root. The project must have been initialized
// (`fieldloop init`) first.
func Open(root string) (*App, error) {
	dir := config.Dir(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not initialized; run 'fieldloop init' first", dir)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	var store feedback.Store
	switch cfg.Store {
	case config.StoreSQLite:
		store, err = feedback.OpenSQLite(config.DatabasePath(dir))
	default:
		store, err = feedback.OpenJSONL(config.FeedbackPath(dir))
	}
	if err != nil {
		return nil, err
	}

	return &App{Root: root, Dir: dir, Config: cfg, Store: store}, nil
}

// Embedder returns the project's embedding backend: the local GGUF model
// when configured and usable in this build, the lexical embedder otherwise.
func (a *App) Embedder() embed.Embedder {
	if a.embedder != nil {
		return a.embedder
	}
	if a.Config.Embedding.ModelPath != "" {
		local := embed.NewLocalEmbedder(embed.LocalConfig{ModelPath: a.Config.Embedding.ModelPath})
		if local.Available() {
			a.embedder = local
			return a.embedder
		}
		fmt.Fprintf(os.Stderr, "warning: embedding model %s unavailable, using lexical backend\n",
			a.Config.Embedding.ModelPath)
	}
	a.embedder = embed.NewLexicalEmbedder(0)
	return a.embedder
}

// ConsensusOptions returns the configured consensus thresholds.
func (a *App) ConsensusOptions() consensus.Options {
	return consensus.Options{
		MinAgreement: a.Config.Thresholds.Agreement,
		MinSupport:   a.Config.Thresholds.MinSupport,
	}
}

// NewResolver loads the canonical schema, recomputes the learned-mapping
// table from feedback history, and builds a resolver. Schema embeddings are
// computed once here, which is the expensive part; reuse the resolver across
// a batch rather than calling this per field.
func (a *App) NewResolver(ctx context.Context) (*resolver.Resolver, error) {
	schema, err := config.LoadSchema(a.Dir)
	if err != nil {
		return nil, err
	}

	learner := consensus.NewLearner(a.Store)
	table, err := learner.Table(ctx, a.ConsensusOptions())
	if err != nil {
		return nil, err
	}

	return resolver.New(ctx, schema, table, a.Embedder(), resolver.Config{
		ConfidenceThreshold: a.Config.Thresholds.Confidence,
		FuzzyThreshold:      a.Config.Thresholds.Fuzzy,
	})
}

// Close releases the store and embedding backend.
func (a *App) Close() error {
	var firstErr error
	if a.embedder != nil {
		if err := a.embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
