package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planlens/compare-cli/internal/ingest"
	"github.com/planlens/compare-cli/internal/store"
)

var (
	seedXLSXPath string
	seedSheet    string
	seedNoHeader bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data into the database",
}

var seedAliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Import coverage aliases from a spreadsheet",
	Long:  "Reads rows of insurer_code, alias, coverage_code, coverage_name, source_doc_type and upserts them. Existing (insurer, alias) pairs are replaced.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rows, err := ingest.ReadXLSX(seedXLSXPath, ingest.XLSXOptions{
			Sheet:      seedSheet,
			SkipHeader: !seedNoHeader,
		})
		if err != nil {
			return err
		}
		aliases, err := ingest.ParseAliasRows(rows)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.UpsertAliases(ctx, aliases)
		if err != nil {
			return err
		}
		zap.L().Info("aliases imported",
			zap.String("file", seedXLSXPath),
			zap.Int64("rows", n),
		)
		return nil
	},
}

func init() {
	seedAliasesCmd.Flags().StringVar(&seedXLSXPath, "xlsx", "", "path to the alias spreadsheet")
	seedAliasesCmd.Flags().StringVar(&seedSheet, "sheet", "", "sheet name (default: first sheet)")
	seedAliasesCmd.Flags().BoolVar(&seedNoHeader, "no-header", false, "treat the first row as data")
	_ = seedAliasesCmd.MarkFlagRequired("xlsx")
	seedCmd.AddCommand(seedAliasesCmd)
	rootCmd.AddCommand(seedCmd)
}
