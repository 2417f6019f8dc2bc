package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/app"
	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/consensus"
)

func newMappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Show or export learned mappings derived from feedback",
		Long: `Recompute the consensus learned mappings from the feedback history.

With --export, also write the flat raw->canonical JSON table that the
resolver loads at startup.

Example:
  fieldloop mappings --export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			export, _ := cmd.Flags().GetBool("export")
			minAgreement, _ := cmd.Flags().GetFloat64("min-agreement")
			minSupport, _ := cmd.Flags().GetInt("min-support")

			a, err := app.Open(root)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := a.ConsensusOptions()
			if cmd.Flags().Changed("min-agreement") {
				opts.MinAgreement = minAgreement
			}
			if cmd.Flags().Changed("min-support") {
				opts.MinSupport = minSupport
			}

			learner := consensus.NewLearner(a.Store)
			mappings, err := learner.Mappings(context.Background(), opts)
			if err != nil {
				return err
			}

			if export {
				table := make(map[string]string, len(mappings))
				for raw, m := range mappings {
					table[raw] = m.CanonicalField
				}
				if err := consensus.WriteMappings(config.MappingsPath(a.Dir), table); err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"mappings": mappings,
					"count":    len(mappings),
				})
			}

			if len(mappings) == 0 {
				fmt.Println("No learned mappings yet.")
				fmt.Println("\nMappings emerge once feedback for a field reaches consensus.")
				return nil
			}

			keys := make([]string, 0, len(mappings))
			for raw := range mappings {
				keys = append(keys, raw)
			}
			sort.Strings(keys)

			fmt.Printf("Learned mappings (%d):\n\n", len(mappings))
			for _, raw := range keys {
				m := mappings[raw]
				fmt.Printf("  %s -> %s  (agreement %.0f%%, support %d)\n",
					m.RawField, m.CanonicalField, m.AgreementRatio*100, m.SupportCount)
			}
			if export {
				fmt.Printf("\nExported to %s\n", config.MappingsPath(a.Dir))
			}
			return nil
		},
	}

	cmd.Flags().Bool("export", false, "Write the raw->canonical table to mappings.json")
	cmd.Flags().Float64("min-agreement", consensus.DefaultMinAgreement, "Minimum consensus ratio")
	cmd.Flags().Int("min-support", 1, "Minimum records backing a mapping")

	return cmd
}
