package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/app"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the feedback history",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := app.Open(root)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Store.Statistics(context.Background())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(stats)
			}

			if stats.TotalRecords == 0 {
				fmt.Println("No feedback recorded yet.")
				fmt.Println("\nUse 'fieldloop resolve' and 'fieldloop review' to start collecting judgments.")
				return nil
			}

			fmt.Printf("Feedback records:  %d (%d unique fields)\n", stats.TotalRecords, stats.UniqueFields)
			fmt.Printf("Approval rate:     %.1f%%\n", stats.ApprovalRate*100)
			fmt.Printf("Correction rate:   %.1f%%\n", stats.CorrectionRate*100)
			fmt.Printf("Rejection rate:    %.1f%%\n", stats.RejectionRate*100)
			fmt.Printf("Avg confidence when approved:  %.2f\n", stats.AvgConfidenceApproved)
			fmt.Printf("Avg confidence when corrected: %.2f\n", stats.AvgConfidenceCorrected)
			return nil
		},
	}
}
