package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lmoreno/microhunt/internal/config"
	"github.com/lmoreno/microhunt/internal/pipeline"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Analyze a specific ticker",
		Long: `Run one ticker through validation and the analyst, skipping discovery.

The ticker is resolved against the region's exchange suffixes, so a bare
symbol works for any configured region. Rejected tickers still get a
written explanation of the rejection.

Examples:
  microhunt analyze GHSI
  microhunt analyze AFC --region UK`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("region", "r", "USA", "region for exchange suffix resolution")
	_ = viper.BindPFlag("analyze.region", cmd.Flags().Lookup("region"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	region := viper.GetString("analyze.region")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := initLedger(cfg.LedgerPath)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close ledger", "error", closeErr)
		}
	}()

	p, _, err := buildPipeline(cfg, store, false)
	if err != nil {
		return err
	}

	outcome, err := p.Run(ctx, pipeline.Request{Region: region, Input: ticker})
	if err != nil {
		return fmt.Errorf("delivering analysis: %w", err)
	}
	slog.Info("Analysis complete", "ticker", outcome.Ticker, "status", outcome.Status)
	return nil
}
