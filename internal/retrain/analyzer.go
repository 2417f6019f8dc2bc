// Package retrain analyzes feedback history and produces actionable
// retraining guidance: recurring resolver confusions, confidence-threshold
// recommendations, and error-reduction estimates. Nothing here applies a
// change automatically; a human decides what to deploy.
package retrain

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tclarke/fieldloop/internal/consensus"
	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

const (
	// DefaultMinRecords is the operational floor below which statistical
	// analysis is refused. Five records is already thin; the LOW/MEDIUM/HIGH
	// confidence label on estimates communicates how thin.
	DefaultMinRecords = 5

	// DefaultCoverageFloor is the minimum fraction of feedback records a
	// recommended threshold must keep above it. Guards against recommending
	// a threshold so high that coverage collapses.
	DefaultCoverageFloor = 0.5

	// DefaultCurrentThreshold mirrors the resolver's embedding-fallback
	// default.
	DefaultCurrentThreshold = 0.45
)

// Confidence labels for improvement estimates. Heuristic sample-size labels,
// not statistical guarantees.
const (
	ConfidenceLow    = "low"    // fewer than 10 records
	ConfidenceMedium = "medium" // fewer than 30 records
	ConfidenceHigh   = "high"
)

// InsufficientDataError signals that the store holds too few records for a
// meaningful analysis. Callers should treat it as "come back later", not as
// a hard failure.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient feedback data: have %d records, need %d", e.Have, e.Need)
}

// Config tunes the analyzer.
type Config struct {
	// MinRecords is the operational floor. Zero selects DefaultMinRecords.
	MinRecords int

	// CoverageFloor is the minimum coverage a recommended threshold must
	// retain. Zero selects DefaultCoverageFloor.
	CoverageFloor float64

	// CurrentThreshold is the resolver's threshold in production, reported
	// alongside recommendations. Zero selects DefaultCurrentThreshold.
	CurrentThreshold float64

	// Consensus controls which learned mappings count as "covering" a
	// correction in improvement estimates.
	Consensus consensus.Options
}

func (c Config) withDefaults() Config {
	if c.MinRecords <= 0 {
		c.MinRecords = DefaultMinRecords
	}
	if c.CoverageFloor <= 0 {
		c.CoverageFloor = DefaultCoverageFloor
	}
	if c.CurrentThreshold <= 0 {
		c.CurrentThreshold = DefaultCurrentThreshold
	}
	return c
}

// Analyzer computes retraining guidance from a feedback store. All outputs
// are pure functions of the store contents at call time.
type Analyzer struct {
	store   feedback.Store
	learner *consensus.Learner
	cfg     Config
}

// NewAnalyzer creates an Analyzer over the given store.
func NewAnalyzer(store feedback.Store, cfg Config) *Analyzer {
	return &Analyzer{
		store:   store,
		learner: consensus.NewLearner(store),
		cfg:     cfg.withDefaults(),
	}
}

// Mismatch is a recurring resolver confusion: the resolver keeps proposing
// SuggestedMatch when CorrectField is right.
type Mismatch struct {
	SuggestedMatch string `json:"suggested_match"`
	CorrectField   string `json:"correct_field"`
	Count          int    `json:"count"`
}

// SystematicMismatches groups CORRECTED records by (suggestion, correction)
// pair and returns the pairs occurring more than once, sorted by count
// descending. Single occurrences are noise, not a pattern.
func (a *Analyzer) SystematicMismatches(ctx context.Context) ([]Mismatch, error) {
	records, err := a.store.All(ctx)
	if err != nil {
		return nil, err
	}

	type pair struct{ suggested, correct string }
	counts := make(map[pair]int)
	for _, rec := range records {
		if rec.FeedbackType != models.FeedbackCorrected {
			continue
		}
		counts[pair{rec.SuggestedMatch, rec.HumanCorrection}]++
	}

	var out []Mismatch
	for p, n := range counts {
		if n > 1 {
			out = append(out, Mismatch{SuggestedMatch: p.suggested, CorrectField: p.correct, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].SuggestedMatch != out[j].SuggestedMatch {
			return out[i].SuggestedMatch < out[j].SuggestedMatch
		}
		return out[i].CorrectField < out[j].CorrectField
	})
	return out, nil
}

// ThresholdCandidate is one point in the threshold sweep.
type ThresholdCandidate struct {
	Threshold float64 `json:"threshold"`
	Accuracy  float64 `json:"accuracy"` // fraction of APPROVED among records at or above
	Coverage  float64 `json:"coverage"` // fraction of all records at or above
}

// ThresholdRecommendation reports the threshold sweep and its winner.
type ThresholdRecommendation struct {
	CurrentThreshold     float64              `json:"current_threshold"`
	RecommendedThreshold float64              `json:"recommended_threshold"`
	Rationale            string               `json:"rationale"`
	Candidates           []ThresholdCandidate `json:"candidates"`
}

// RecommendThreshold sweeps candidate thresholds across the observed
// confidence range and recommends the one that maximizes empirical accuracy
// without dropping coverage below the configured floor. Ties break toward
// the lower threshold (better coverage). Returns *InsufficientDataError
// below the operational floor.
func (a *Analyzer) RecommendThreshold(ctx context.Context) (ThresholdRecommendation, error) {
	records, err := a.store.All(ctx)
	if err != nil {
		return ThresholdRecommendation{}, err
	}
	if len(records) < a.cfg.MinRecords {
		return ThresholdRecommendation{}, &InsufficientDataError{Have: len(records), Need: a.cfg.MinRecords}
	}

	lo, hi := records[0].ConfidenceScore, records[0].ConfidenceScore
	for _, rec := range records[1:] {
		lo = math.Min(lo, rec.ConfidenceScore)
		hi = math.Max(hi, rec.ConfidenceScore)
	}

	rec := ThresholdRecommendation{CurrentThreshold: a.cfg.CurrentThreshold}
	best := ThresholdCandidate{Threshold: a.cfg.CurrentThreshold, Accuracy: -1}

	const step = 0.05
	for t := snap(lo); t <= hi+1e-9; t += step {
		cand := evaluateThreshold(records, snap(t))
		rec.Candidates = append(rec.Candidates, cand)

		if cand.Coverage < a.cfg.CoverageFloor {
			continue
		}
		// Strictly-greater keeps the lowest threshold on ties.
		if cand.Accuracy > best.Accuracy+1e-9 {
			best = cand
		}
	}

	if best.Accuracy < 0 {
		// Even the lowest candidate failed the coverage floor, which only
		// happens with a floor above 1.0; keep the current threshold.
		rec.RecommendedThreshold = a.cfg.CurrentThreshold
		rec.Rationale = "no candidate threshold met the coverage floor; keeping current threshold"
		return rec, nil
	}

	rec.RecommendedThreshold = best.Threshold
	rec.Rationale = fmt.Sprintf(
		"threshold %.2f yields %.1f%% accuracy at %.1f%% coverage (floor %.0f%%); ties resolved toward lower thresholds",
		best.Threshold, best.Accuracy*100, best.Coverage*100, a.cfg.CoverageFloor*100)
	return rec, nil
}

func evaluateThreshold(records []models.FeedbackRecord, t float64) ThresholdCandidate {
	var above, approved int
	for _, rec := range records {
		if rec.ConfidenceScore >= t {
			above++
			if rec.FeedbackType == models.FeedbackApproved {
				approved++
			}
		}
	}
	cand := ThresholdCandidate{Threshold: t, Coverage: float64(above) / float64(len(records))}
	if above > 0 {
		cand.Accuracy = float64(approved) / float64(above)
	}
	return cand
}

// snap rounds to two decimals so sweep output stays readable.
func snap(v float64) float64 {
	return math.Round(v*100) / 100
}

// Improvement estimates the error reduction retraining would deliver.
type Improvement struct {
	CurrentErrorRate      float64 `json:"current_error_rate"`
	EstimatedErrorRate    float64 `json:"estimated_error_rate_after_retraining"`
	ImprovementPercentage float64 `json:"improvement_percentage"`
	ConfidenceLevel       string  `json:"confidence_level"`
}

// EstimateImprovement computes the current error rate (corrections plus
// rejections) and assumes every CORRECTED record whose correction is now
// backed by a learned mapping would resolve correctly after retraining.
// Returns *InsufficientDataError below the operational floor.
func (a *Analyzer) EstimateImprovement(ctx context.Context) (Improvement, error) {
	records, err := a.store.All(ctx)
	if err != nil {
		return Improvement{}, err
	}
	if len(records) < a.cfg.MinRecords {
		return Improvement{}, &InsufficientDataError{Have: len(records), Need: a.cfg.MinRecords}
	}

	stats := computeRates(records)
	current := stats.correctionRate + stats.rejectionRate

	table, err := a.learner.Table(ctx, a.cfg.Consensus)
	if err != nil {
		return Improvement{}, err
	}

	var correctable int
	for _, rec := range records {
		if rec.FeedbackType != models.FeedbackCorrected {
			continue
		}
		if table[rec.RawField] == rec.HumanCorrection {
			correctable++
		}
	}

	estimated := current - float64(correctable)/float64(len(records))
	if estimated < 0 {
		estimated = 0
	}

	imp := Improvement{
		CurrentErrorRate:   current,
		EstimatedErrorRate: estimated,
		ConfidenceLevel:    confidenceLabel(len(records)),
	}
	if current > 0 {
		imp.ImprovementPercentage = (current - estimated) / current * 100
	}
	return imp, nil
}

// ConfidenceAdjustments computes per-canonical-field calibration factors:
// the resolver's empirical accuracy when suggesting that field, amplified by
// 1.5 so systematically wrong suggestions get pushed down hard.
func (a *Analyzer) ConfidenceAdjustments(ctx context.Context) (map[string]float64, error) {
	records, err := a.store.All(ctx)
	if err != nil {
		return nil, err
	}

	type perf struct{ correct, total int }
	byField := make(map[string]*perf)
	for _, rec := range records {
		if rec.SuggestedMatch == "" {
			continue
		}
		p := byField[rec.SuggestedMatch]
		if p == nil {
			p = &perf{}
			byField[rec.SuggestedMatch] = p
		}
		p.total++
		if rec.FeedbackType == models.FeedbackApproved {
			p.correct++
		}
	}

	out := make(map[string]float64, len(byField))
	for field, p := range byField {
		out[field] = float64(p.correct) / float64(p.total) * 1.5
	}
	return out, nil
}

func confidenceLabel(total int) string {
	switch {
	case total < 10:
		return ConfidenceLow
	case total < 30:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

type rates struct {
	correctionRate float64
	rejectionRate  float64
}

func computeRates(records []models.FeedbackRecord) rates {
	if len(records) == 0 {
		return rates{}
	}
	var corrected, rejected int
	for _, rec := range records {
		switch rec.FeedbackType {
		case models.FeedbackCorrected:
			corrected++
		case models.FeedbackRejected:
			rejected++
		}
	}
	total := float64(len(records))
	return rates{
		correctionRate: float64(corrected) / total,
		rejectionRate:  float64(rejected) / total,
	}
}
