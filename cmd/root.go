package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planlens/compare-cli/internal/anchor"
	"github.com/planlens/compare-cli/internal/assist"
	"github.com/planlens/compare-cli/internal/compare"
	"github.com/planlens/compare-cli/internal/config"
	"github.com/planlens/compare-cli/internal/coverage"
	"github.com/planlens/compare-cli/internal/refine"
	"github.com/planlens/compare-cli/internal/store"
	"github.com/planlens/compare-cli/pkg/anthropic"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "compare-cli",
	Short: "Insurance coverage comparison pipeline",
	Long:  "Compares coverage amounts and policy conditions across insurers from pre-ingested documents, with rule-based extraction and guarded LLM refinement.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// env bundles the wired pipeline collaborators for one command invocation.
type env struct {
	Store     store.Store
	Resolver  *coverage.Resolver
	Engine    *compare.Engine
	Tracker   *anchor.Tracker
	Assistant *assist.Assistant
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	resolver, err := coverage.NewResolver(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	client := newLLMClient(cfg.LLM)
	gate := refine.NewGate(client, cfg.LLM)

	return &env{
		Store:     st,
		Resolver:  resolver,
		Engine:    compare.NewEngine(st, resolver, gate, cfg.Compare),
		Tracker:   anchor.NewTracker(resolver, 30*time.Minute),
		Assistant: assist.New(client, cfg.LLM),
	}, nil
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func newLLMClient(llm config.LLMConfig) anthropic.Client {
	if !llm.Enabled || llm.APIKey == "" {
		return anthropic.NewDisabled()
	}
	return anthropic.NewClient(llm.APIKey)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
