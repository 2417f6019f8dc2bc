// Package resolver maps raw incoming field names onto a fixed canonical
// schema. Resolution walks an ordered list of tiers — learned-exact,
// learned-fuzzy, embedding-fallback — and the first tier that produces a
// match wins. Adding or reordering tiers is a data change in New, not a
// code change in Resolve.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/tclarke/fieldloop/internal/embed"
	"github.com/tclarke/fieldloop/internal/models"
	"github.com/tclarke/fieldloop/internal/schemaindex"
	"github.com/tclarke/fieldloop/internal/vecmath"
)

const (
	// DefaultConfidenceThreshold is the embedding-fallback floor. The 0.45
	// value was calibrated empirically against real telemetry vocabularies
	// and is load-bearing: treat changes as a tuning exercise, not a tidy-up.
	DefaultConfidenceThreshold = 0.45

	// DefaultFuzzyThreshold is the floor for fuzzy matches against learned
	// mapping keys.
	DefaultFuzzyThreshold = 0.7
)

// Config tunes the resolver thresholds.
type Config struct {
	// ConfidenceThreshold is the minimum embedding-fallback score for a
	// match. Zero selects DefaultConfidenceThreshold.
	ConfidenceThreshold float64

	// FuzzyThreshold is the minimum similarity between a raw field and a
	// learned-mapping key for the fuzzy tier. Zero selects
	// DefaultFuzzyThreshold.
	FuzzyThreshold float64
}

func (c Config) withDefaults() Config {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = DefaultFuzzyThreshold
	}
	return c
}

// request carries one resolution's lazily-computed state between tiers:
// the query embedding and the best schema match, computed at most once.
type request struct {
	rawField string

	embedded      bool
	query         []float32
	schemaBest    schemaindex.Match
	hasSchemaBest bool
}

// tier attempts one resolution strategy. It returns (result, true, nil) on a
// match, (zero, false, nil) for "no match, try the next tier", and a non-nil
// error only for infrastructure failures, which abort the whole resolution.
type tier func(ctx context.Context, req *request) (models.Resolution, bool, error)

// Resolver resolves raw field names against a canonical schema plus an
// optional learned-mapping table. It is immutable after construction and a
// pure function of its inputs: resolving the same field twice yields the
// identical result, and recording feedback is an explicit separate call.
type Resolver struct {
	schema   []string
	index    schemaindex.Index
	embedder embed.Embedder

	learned     map[string]string
	learnedKeys []string
	learnedVecs [][]float32

	cfg   Config
	tiers []tier
}

// New builds a Resolver. The canonical schema and the learned-mapping keys
// are embedded once here, never per resolution call. Embedding failures
// propagate: there is no safe default vector.
func New(ctx context.Context, schema []string, learned map[string]string, embedder embed.Embedder, cfg Config) (*Resolver, error) {
	r := &Resolver{
		schema:   append([]string(nil), schema...),
		embedder: embedder,
		learned:  make(map[string]string, len(learned)),
		cfg:      cfg.withDefaults(),
	}

	schemaVecs := make(map[string][]float32, len(schema))
	for _, field := range schema {
		vec, err := embedder.Embed(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("embedding canonical field %q: %w", field, err)
		}
		schemaVecs[field] = vec
	}
	r.index = schemaindex.New(schemaVecs)

	for raw, canonical := range learned {
		r.learned[raw] = canonical
		r.learnedKeys = append(r.learnedKeys, raw)
	}
	// Sorted keys keep fuzzy-tier tie-breaking deterministic.
	sort.Strings(r.learnedKeys)

	var err error
	r.learnedVecs, err = embed.EmbedAll(ctx, embedder, r.learnedKeys)
	if err != nil {
		return nil, fmt.Errorf("embedding learned mapping keys: %w", err)
	}

	r.tiers = []tier{
		r.learnedExact,
		r.learnedFuzzy,
		r.embeddingFallback,
	}
	return r, nil
}

// Resolve maps rawField to a canonical field. A failure to match is not an
// error: the result carries MethodNone, an empty canonical field, and the
// best score seen, so callers can route the field to human review. Errors
// are reserved for infrastructure failures (embedding backend down).
func (r *Resolver) Resolve(ctx context.Context, rawField string) (models.Resolution, error) {
	req := &request{rawField: rawField}

	for _, t := range r.tiers {
		res, ok, err := t(ctx, req)
		if err != nil {
			return models.Resolution{}, err
		}
		if ok {
			return res, nil
		}
	}

	// No tier matched; surface the best fallback score for review routing.
	best, err := r.schemaBest(ctx, req)
	if err != nil {
		return models.Resolution{}, err
	}
	return models.Resolution{
		RawField:   rawField,
		Confidence: best.Score,
		Method:     models.MethodNone,
	}, nil
}

// Schema returns the canonical schema this resolver was built with.
func (r *Resolver) Schema() []string {
	return append([]string(nil), r.schema...)
}

// learnedExact resolves a case-sensitive hit in the learned-mapping table.
// Exact human-endorsed consensus is definitionally maximal confidence and
// short-circuits the embedding path entirely. Case-folding, when wanted, is
// the caller's concern.
func (r *Resolver) learnedExact(_ context.Context, req *request) (models.Resolution, bool, error) {
	canonical, ok := r.learned[req.rawField]
	if !ok {
		return models.Resolution{}, false, nil
	}
	return models.Resolution{
		RawField:       req.rawField,
		CanonicalField: canonical,
		Confidence:     1.0,
		Method:         models.MethodLearnedExact,
	}, true, nil
}

// learnedFuzzy resolves against learned-mapping keys by embedding
// similarity. It uses the same embedding metric as the fallback tier so the
// two confidences are directly comparable, and it only wins when it both
// clears the fuzzy threshold and beats the fallback's score for this input.
func (r *Resolver) learnedFuzzy(ctx context.Context, req *request) (models.Resolution, bool, error) {
	if len(r.learnedKeys) == 0 {
		return models.Resolution{}, false, nil
	}

	query, err := r.queryVec(ctx, req)
	if err != nil {
		return models.Resolution{}, false, err
	}

	bestIdx, bestScore := -1, 0.0
	for i, vec := range r.learnedVecs {
		if score := vecmath.CosineSimilarity(query, vec); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 || bestScore <= r.cfg.FuzzyThreshold {
		return models.Resolution{}, false, nil
	}

	fallback, err := r.schemaBest(ctx, req)
	if err != nil {
		return models.Resolution{}, false, err
	}
	if bestScore <= fallback.Score {
		return models.Resolution{}, false, nil
	}

	return models.Resolution{
		RawField:       req.rawField,
		CanonicalField: r.learned[r.learnedKeys[bestIdx]],
		Confidence:     bestScore,
		Method:         models.MethodLearnedFuzzy,
	}, true, nil
}

// embeddingFallback resolves against the canonical schema itself.
func (r *Resolver) embeddingFallback(ctx context.Context, req *request) (models.Resolution, bool, error) {
	best, err := r.schemaBest(ctx, req)
	if err != nil {
		return models.Resolution{}, false, err
	}
	if best.Field == "" || best.Score < r.cfg.ConfidenceThreshold {
		return models.Resolution{}, false, nil
	}
	return models.Resolution{
		RawField:       req.rawField,
		CanonicalField: best.Field,
		Confidence:     best.Score,
		Method:         models.MethodEmbeddingFallback,
	}, true, nil
}

// queryVec embeds the raw field at most once per resolution.
func (r *Resolver) queryVec(ctx context.Context, req *request) ([]float32, error) {
	if !req.embedded {
		vec, err := r.embedder.Embed(ctx, req.rawField)
		if err != nil {
			return nil, fmt.Errorf("embedding field %q: %w", req.rawField, err)
		}
		req.query = vec
		req.embedded = true
	}
	return req.query, nil
}

// schemaBest finds the best canonical-schema match at most once per
// resolution.
func (r *Resolver) schemaBest(ctx context.Context, req *request) (schemaindex.Match, error) {
	if req.hasSchemaBest {
		return req.schemaBest, nil
	}

	query, err := r.queryVec(ctx, req)
	if err != nil {
		return schemaindex.Match{}, err
	}

	if matches := r.index.Search(query, 1); len(matches) > 0 {
		req.schemaBest = matches[0]
	}
	req.hasSchemaBest = true
	return req.schemaBest, nil
}
