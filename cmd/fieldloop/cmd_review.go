package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/app"
	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/review"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work the pending review queue",
		Long: `List and settle resolutions awaiting human judgment. Every verdict
becomes an immutable feedback record; settled entries leave the queue.

Examples:
  fieldloop review list
  fieldloop review approve hr_watch_01
  fieldloop review correct temp_deg_c "Brake Temperature (Celsius)"
  fieldloop review reject mystery_col_7`,
	}

	cmd.PersistentFlags().String("session", "", "Session identifier recorded with verdicts")

	cmd.AddCommand(
		newReviewListCmd(),
		newReviewApproveCmd(),
		newReviewCorrectCmd(),
		newReviewRejectCmd(),
	)
	return cmd
}

// openQueue opens the project and its review queue in one step.
func openQueue(cmd *cobra.Command) (*app.App, *review.Queue, error) {
	root, _ := cmd.Flags().GetString("root")
	session, _ := cmd.Flags().GetString("session")

	a, err := app.Open(root)
	if err != nil {
		return nil, nil, err
	}
	q, err := review.Open(config.QueuePath(a.Dir), a.Store, session)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, q, nil
}

func newReviewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pending := q.List()
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"pending": pending,
					"count":   len(pending),
				})
			}

			if len(pending) == 0 {
				fmt.Println("No pending reviews.")
				return nil
			}
			fmt.Printf("Pending reviews (%d):\n\n", len(pending))
			for i, p := range pending {
				suggestion := p.SuggestedMatch
				if suggestion == "" {
					suggestion = "(no suggestion)"
				}
				fmt.Printf("%d. %s -> %s  (%.2f)\n", i+1, p.RawField, suggestion, p.ConfidenceScore)
				if p.SourceName != "" {
					fmt.Printf("   Source: %s\n", p.SourceName)
				}
				fmt.Printf("   Submitted: %s\n", p.SubmittedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newReviewApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <field>",
		Short: "Approve the suggestion for a pending field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := q.Approve(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rec)
			}
			fmt.Printf("Approved: %s -> %s\n", rec.RawField, rec.SuggestedMatch)
			return nil
		},
	}
}

func newReviewCorrectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correct <field> <canonical-field>",
		Short: "Supply the correct canonical field for a pending field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := q.Correct(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rec)
			}
			fmt.Printf("Corrected: %s -> %s", rec.RawField, rec.HumanCorrection)
			if rec.SuggestedMatch != "" {
				fmt.Printf(" (was %s)", rec.SuggestedMatch)
			}
			fmt.Println()
			return nil
		},
	}
}

func newReviewRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <field>",
		Short: "Mark a pending field as having no canonical match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := q.Reject(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rec)
			}
			fmt.Printf("Rejected: %s (no canonical field applies)\n", rec.RawField)
			return nil
		},
	}
}
