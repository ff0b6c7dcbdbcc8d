package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planlens/compare-cli/internal/model"
)

var (
	compareInsurers []string
	compareQuery    string
	compareCodes    []string
	compareTopK     int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run a one-shot comparison and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := e.Engine.Compare(ctx, model.CompareRequest{
			Insurers:       compareInsurers,
			Query:          compareQuery,
			CoverageCodes:  compareCodes,
			TopKPerInsurer: compareTopK,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareInsurers, "insurers", nil, "insurer codes to compare (e.g. SAMSUNG,MERITZ)")
	compareCmd.Flags().StringVar(&compareQuery, "query", "", "natural-language comparison query")
	compareCmd.Flags().StringSliceVar(&compareCodes, "codes", nil, "explicit coverage codes (skips recommendation)")
	compareCmd.Flags().IntVar(&compareTopK, "top-k", 0, "evidence chunks per insurer cell (0 uses config)")
	rootCmd.AddCommand(compareCmd)
}
