package retrain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

// Plan is the retraining report handed to human operators. It is read-only
// output: nothing in fieldloop consumes it programmatically.
type Plan struct {
	GeneratedAt          time.Time                        `json:"generated_at"`
	Statistics           feedback.Statistics              `json:"statistics"`
	SystematicMismatches []Mismatch                       `json:"systematic_mismatches"`
	LearnedMappings      map[string]models.LearnedMapping `json:"learned_mappings"`
	Threshold            ThresholdRecommendation          `json:"threshold_adjustment"`
	ConfidenceFactors    map[string]float64               `json:"confidence_adjustments"`
	Improvement          Improvement                      `json:"improvement_estimate"`
}

// BuildPlan assembles the full retraining plan. Returns
// *InsufficientDataError below the operational floor, since every
// statistical section would be meaningless.
func (a *Analyzer) BuildPlan(ctx context.Context) (*Plan, error) {
	stats, err := a.store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalRecords < a.cfg.MinRecords {
		return nil, &InsufficientDataError{Have: stats.TotalRecords, Need: a.cfg.MinRecords}
	}

	mismatches, err := a.SystematicMismatches(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := a.learner.Mappings(ctx, a.cfg.Consensus)
	if err != nil {
		return nil, err
	}
	threshold, err := a.RecommendThreshold(ctx)
	if err != nil {
		return nil, err
	}
	factors, err := a.ConfidenceAdjustments(ctx)
	if err != nil {
		return nil, err
	}
	improvement, err := a.EstimateImprovement(ctx)
	if err != nil {
		return nil, err
	}

	return &Plan{
		GeneratedAt:          time.Now().UTC(),
		Statistics:           stats,
		SystematicMismatches: mismatches,
		LearnedMappings:      mappings,
		Threshold:            threshold,
		ConfidenceFactors:    factors,
		Improvement:          improvement,
	}, nil
}

// WritePlan builds the plan and writes it as indented JSON to path.
func (a *Analyzer) WritePlan(ctx context.Context, path string) (*Plan, error) {
	plan, err := a.BuildPlan(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding retraining plan: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating plan directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing retraining plan: %w", err)
	}
	return plan, nil
}
