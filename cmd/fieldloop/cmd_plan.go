package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/app"
	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/retrain"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a retraining plan from the feedback history",
		Long: `Analyze the feedback history and write a retraining plan: statistics,
recurring resolver confusions, learned mappings, a confidence-threshold
recommendation, and an error-reduction estimate.

The plan is a report for human operators; nothing is applied automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")

			a, err := app.Open(root)
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" {
				output = config.PlanPath(a.Dir)
			}

			analyzer := retrain.NewAnalyzer(a.Store, retrain.Config{
				MinRecords:       a.Config.Retraining.MinRecords,
				CoverageFloor:    a.Config.Retraining.CoverageFloor,
				CurrentThreshold: a.Config.Thresholds.Confidence,
				Consensus:        a.ConsensusOptions(),
			})

			plan, err := analyzer.WritePlan(context.Background(), output)

			var insufficient *retrain.InsufficientDataError
			if errors.As(err, &insufficient) {
				if jsonOut {
					return json.NewEncoder(os.Stdout).Encode(map[string]any{
						"status":  "insufficient_data",
						"have":    insufficient.Have,
						"need":    insufficient.Need,
						"message": insufficient.Error(),
					})
				}
				fmt.Printf("Not enough feedback yet: %d records, need %d. Come back later.\n",
					insufficient.Have, insufficient.Need)
				return nil
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(plan)
			}

			fmt.Printf("Retraining plan written to %s\n\n", output)
			fmt.Printf("Records analyzed:     %d\n", plan.Statistics.TotalRecords)
			fmt.Printf("Learned mappings:     %d\n", len(plan.LearnedMappings))
			fmt.Printf("Systematic mismatches: %d\n", len(plan.SystematicMismatches))
			fmt.Printf("Threshold:            %.2f -> %.2f\n",
				plan.Threshold.CurrentThreshold, plan.Threshold.RecommendedThreshold)
			fmt.Printf("Error rate:           %.1f%% -> %.1f%% estimated (confidence: %s)\n",
				plan.Improvement.CurrentErrorRate*100,
				plan.Improvement.EstimatedErrorRate*100,
				plan.Improvement.ConfidenceLevel)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Plan output path (default: .fieldloop/retraining_plan.json)")

	return cmd
}
