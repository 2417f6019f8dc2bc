package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/app"
	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
	"github.com/tclarke/fieldloop/internal/review"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fieldloop",
		Short: "Self-healing field reconciliation for messy telemetry schemas",
		Long: `fieldloop maps inconsistently named incoming fields onto a fixed
canonical schema using embedding similarity, learns from human
approve/correct/reject feedback, and resolves future fields through
learned mappings before falling back to the embedding match.`,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for machine consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newResolveCmd(),
		newRecordCmd(),
		newReviewCmd(),
		newStatsCmd(),
		newMappingsCmd(),
		newPlanCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("fieldloop version %s\n", version)
			}
		},
	}
}

// starterSchema seeds a freshly initialized project so resolve works out of
// the box; operators replace it with their own vocabulary.
var starterSchema = []string{
	"Heart Rate (bpm)",
	"Engine Temperature (°C)",
	"Brake Temperature (Celsius)",
	"Speed (km/h)",
	"Throttle Position (%)",
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize fieldloop tracking in the project root",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			dir := config.Dir(root)

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			if _, err := os.Stat(config.ConfigPath(dir)); os.IsNotExist(err) {
				if err := config.Save(dir, config.Default()); err != nil {
					return err
				}
			}
			if _, err := os.Stat(config.SchemaPath(dir)); os.IsNotExist(err) {
				if err := config.SaveSchema(dir, starterSchema); err != nil {
					return err
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status": "initialized",
					"path":   dir,
				})
			}
			fmt.Printf("Initialized %s\n", dir)
			fmt.Println("Edit schema.yaml to define your canonical fields.")
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <field>...",
		Short: "Resolve raw field names against the canonical schema",
		Long: `Resolve one or more raw field names. Each field goes through the
tiered policy: exact learned mapping, fuzzy learned mapping, then the
embedding fallback. Fields that cannot be resolved are submitted to the
review queue instead of being dropped.

Example:
  fieldloop resolve hr_watch_01 temp_deg_c`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			source, _ := cmd.Flags().GetString("source")
			noQueue, _ := cmd.Flags().GetBool("no-queue")

			a, err := app.Open(root)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			r, err := a.NewResolver(ctx)
			if err != nil {
				return err
			}

			var queue *review.Queue
			if !noQueue {
				queue, err = review.Open(config.QueuePath(a.Dir), a.Store, "")
				if err != nil {
					return err
				}
			}

			results := make([]models.Resolution, 0, len(args))
			for _, field := range args {
				res, err := r.Resolve(ctx, field)
				if err != nil {
					return err
				}
				results = append(results, res)

				if queue != nil && !res.Matched() {
					if _, err := queue.Submit(res, source); err != nil {
						return err
					}
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"resolutions": results,
					"count":       len(results),
				})
			}

			for _, res := range results {
				if res.Matched() {
					fmt.Printf("%s -> %s  (%.2f, %s)\n", res.RawField, res.CanonicalField, res.Confidence, res.Method)
				} else {
					fmt.Printf("%s -> no match  (best %.2f, queued for review)\n", res.RawField, res.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("source", "", "Data source name recorded with queued reviews")
	cmd.Flags().Bool("no-queue", false, "Do not queue unresolved fields for review")

	return cmd
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one feedback judgment directly",
		Long: `Record a human judgment on a field-mapping suggestion without going
through the review queue.

Examples:
  fieldloop record --field hr_watch_01 --suggested "Heart Rate (bpm)" --type approved --confidence 0.78
  fieldloop record --field temp_deg_c --suggested "Engine Temperature (°C)" \
      --type corrected --correction "Brake Temperature (Celsius)" --confidence 0.45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			field, _ := cmd.Flags().GetString("field")
			suggested, _ := cmd.Flags().GetString("suggested")
			feedbackType, _ := cmd.Flags().GetString("type")
			correction, _ := cmd.Flags().GetString("correction")
			confidence, _ := cmd.Flags().GetFloat64("confidence")
			source, _ := cmd.Flags().GetString("source")
			session, _ := cmd.Flags().GetString("session")

			a, err := app.Open(root)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Store.Record(context.Background(), feedback.RecordRequest{
				RawField:        field,
				SuggestedMatch:  suggested,
				HumanCorrection: correction,
				FeedbackType:    models.FeedbackType(feedbackType),
				ConfidenceScore: confidence,
				SourceName:      source,
				SessionID:       session,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rec)
			}
			fmt.Printf("Recorded %s feedback for %q\n", rec.FeedbackType, rec.RawField)
			return nil
		},
	}

	cmd.Flags().String("field", "", "Raw field name (required)")
	cmd.Flags().String("suggested", "", "Canonical field the resolver proposed")
	cmd.Flags().String("type", "approved", "Feedback type: approved, corrected, or rejected")
	cmd.Flags().String("correction", "", "Correct canonical field (required for corrected)")
	cmd.Flags().Float64("confidence", 0, "Resolver confidence at suggestion time")
	cmd.Flags().String("source", "", "Data source name")
	cmd.Flags().String("session", "", "Review session identifier")
	cmd.MarkFlagRequired("field")

	return cmd
}
