// Package consensus turns raw feedback history into trusted learned
// mappings. A mapping is emitted only when enough of the feedback for a raw
// field agrees on the same canonical field.
package consensus

import (
	"context"

	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

// DefaultMinAgreement is the default consensus threshold: at least 80% of a
// raw field's feedback must back the winning canonical field.
const DefaultMinAgreement = 0.8

// Options controls which consensus mappings are materialized.
type Options struct {
	// MinAgreement is the minimum agreement ratio for a mapping to be
	// emitted. Zero selects DefaultMinAgreement.
	MinAgreement float64

	// MinSupport is the minimum number of records that must back the
	// winning canonical field. Zero or one allows single-sample consensus,
	// which is deliberate: one confident human judgment beats none. Raise
	// it when statistical confidence matters more than coverage.
	MinSupport int
}

func (o Options) withDefaults() Options {
	if o.MinAgreement <= 0 {
		o.MinAgreement = DefaultMinAgreement
	}
	if o.MinSupport < 1 {
		o.MinSupport = 1
	}
	return o
}

// Learner derives learned mappings from a feedback store. It holds no state
// of its own: every call recomputes from the store, so mappings can never
// drift from the feedback history.
type Learner struct {
	store feedback.Store
}

// NewLearner creates a Learner over the given store.
func NewLearner(store feedback.Store) *Learner {
	return &Learner{store: store}
}

// Mappings computes the consensus mappings for every raw field in the store.
//
// Votes come from APPROVED records (the suggested match) and CORRECTED
// records (the human correction). REJECTED records never vote but count
// toward the group's denominator, dragging the agreement ratio down. A group
// with only rejections produces no mapping: the field resolves to "ignore".
// Ties between candidates break toward the one with the most recent
// supporting record, so output is deterministic regardless of map iteration
// order.
func (l *Learner) Mappings(ctx context.Context, opts Options) (map[string]models.LearnedMapping, error) {
	opts = opts.withDefaults()

	records, err := l.store.All(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.FeedbackRecord)
	for _, rec := range records {
		groups[rec.RawField] = append(groups[rec.RawField], rec)
	}

	out := make(map[string]models.LearnedMapping)
	for rawField, group := range groups {
		if m, ok := consensusFor(rawField, group, opts); ok {
			out[rawField] = m
		}
	}
	return out, nil
}

// Table flattens the consensus mappings into the raw→canonical table the
// resolver consumes.
func (l *Learner) Table(ctx context.Context, opts Options) (map[string]string, error) {
	mappings, err := l.Mappings(ctx, opts)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string, len(mappings))
	for raw, m := range mappings {
		table[raw] = m.CanonicalField
	}
	return table, nil
}

// consensusFor computes the winning mapping for one raw field's records.
func consensusFor(rawField string, group []models.FeedbackRecord, opts Options) (models.LearnedMapping, bool) {
	type candidate struct {
		votes  int
		latest models.FeedbackRecord
	}
	candidates := make(map[string]*candidate)

	for _, rec := range group {
		field, ok := rec.CanonicalVote()
		if !ok {
			continue
		}
		c := candidates[field]
		if c == nil {
			c = &candidate{latest: rec}
			candidates[field] = c
		}
		c.votes++
		if rec.Timestamp.After(c.latest.Timestamp) {
			c.latest = rec
		}
	}

	if len(candidates) == 0 {
		// Rejected-only group: no viable canonical field.
		return models.LearnedMapping{}, false
	}

	var winner string
	var best *candidate
	for field, c := range candidates {
		switch {
		case best == nil,
			c.votes > best.votes,
			c.votes == best.votes && c.latest.Timestamp.After(best.latest.Timestamp),
			c.votes == best.votes && c.latest.Timestamp.Equal(best.latest.Timestamp) && field < winner:
			winner = field
			best = c
		}
	}

	ratio := float64(best.votes) / float64(len(group))
	if ratio < opts.MinAgreement || best.votes < opts.MinSupport {
		return models.LearnedMapping{}, false
	}

	return models.LearnedMapping{
		RawField:        rawField,
		CanonicalField:  winner,
		AgreementRatio:  ratio,
		SupportCount:    best.votes,
		LastSupportedAt: best.latest.Timestamp,
	}, true
}
