package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lmoreno/microhunt/internal/cli"
	"github.com/lmoreno/microhunt/internal/config"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/pipeline"
)

func huntCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Run a discovery hunt across configured regions",
		Long: `Run the full discover-validate-analyze pipeline once per region.

Each region gets its own retry budget and ledger-aware discovery pass;
anything that survives the gatekeeper is written up as a broker memo.

Examples:
  microhunt hunt                   # Hunt every configured region
  microhunt hunt --region UK       # Hunt a single region
  microhunt hunt --social          # Also scout social handles for tickers`,
		RunE: runHunt,
	}

	cmd.Flags().StringP("region", "r", "", "hunt a single region instead of all configured ones")
	cmd.Flags().Bool("social", false, "scout known social handles for extra ticker hints")
	cmd.Flags().Bool("progress", false, "show a progress bar during screening")

	_ = viper.BindPFlag("hunt.region", cmd.Flags().Lookup("region"))
	_ = viper.BindPFlag("hunt.social", cmd.Flags().Lookup("social"))
	_ = viper.BindPFlag("hunt.progress", cmd.Flags().Lookup("progress"))

	return cmd
}

func runHunt(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	regions := cfg.Regions
	if r := viper.GetString("hunt.region"); r != "" {
		regions = []string{r}
	}

	store := initLedger(cfg.LedgerPath)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close ledger", "error", closeErr)
		}
	}()

	p, screener, err := buildPipeline(cfg, store, viper.GetBool("hunt.progress"))
	if err != nil {
		return err
	}

	var hints []string
	if viper.GetBool("hunt.social") {
		hints = scoutSocial(ctx, screener)
	}

	passes := 0
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Println(cli.FormatTitle(fmt.Sprintf("Hunting %s", region)))

		outcome, err := p.Run(ctx, pipeline.Request{Region: region, Hints: hints})
		if err != nil {
			slog.Error("Hunt delivery failed", "region", region, "error", err)
		}
		if outcome.Status == model.StatusPass {
			passes++
		}
	}

	fmt.Println(cli.FormatInfo(fmt.Sprintf("Hunt complete: %d signal(s) across %d region(s)", passes, len(regions))))
	return nil
}
