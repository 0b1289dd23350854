package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lmoreno/microhunt/internal/config"
	"github.com/lmoreno/microhunt/internal/pipeline"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat MESSAGE...",
		Short: "Ask the desk a free-text question",
		Long: `Send a conversational question straight to the model chain, bypassing
discovery and validation.

Examples:
  microhunt chat what does margin of safety mean
  microhunt chat "is the Graham number still useful for banks?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	message := strings.Join(args, " ")

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

	if _, err := p.Run(ctx, pipeline.Request{Input: message, Conversational: true}); err != nil {
		return fmt.Errorf("delivering reply: %w", err)
	}
	return nil
}
