package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lmoreno/microhunt/internal/cli"
	"github.com/lmoreno/microhunt/internal/config"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and manage the seen-ticker ledger",
	}
	cmd.AddCommand(ledgerListCmd())
	cmd.AddCommand(ledgerForgetCmd())
	return cmd
}

func ledgerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tickers still inside the cooldown window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store := initLedger(config.LedgerPath())
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close ledger", "error", closeErr)
				}
			}()

			seen := store.Load(ctx)
			if len(seen) == 0 {
				fmt.Println(cli.FormatInfo("Ledger is empty"))
				return nil
			}

			symbols := make([]string, 0, len(seen))
			for symbol := range seen {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d ticker(s) in cooldown", len(symbols))))
			for _, symbol := range symbols {
				fmt.Printf("  %s  %s\n",
					cli.BoldStyle.Render(fmt.Sprintf("%-8s", symbol)),
					cli.SubtleStyle.Render("seen "+seen[symbol].Format("2006-01-02")))
			}
			return nil
		},
	}
}

func ledgerForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget TICKER...",
		Short: "Remove tickers from the cooldown window",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store := initLedger(config.LedgerPath())
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close ledger", "error", closeErr)
				}
			}()

			for _, arg := range args {
				symbol := strings.ToUpper(strings.TrimSpace(arg))
				if err := store.Forget(ctx, symbol); err != nil {
					return fmt.Errorf("forgetting %s: %w", symbol, err)
				}
				fmt.Println(cli.FormatSuccess("Forgot " + symbol))
			}
			return nil
		},
	}
}
