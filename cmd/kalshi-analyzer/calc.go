package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/datasource"
	"github.com/yourusername/kalshi-analyzer/internal/logger"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	fetchTimeout = 30 * time.Second
)

type calcOptions struct {
	eventID    string
	probs      models.Probabilities
	inputs     calculator.UserInputs
	totalStake float64
	output     string
}

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate stakes for one event",
		Long: `Calculates the stake split for one event. Probabilities come from --event
(fetched from the configured source) or from --home-prob/--draw-prob/--away-prob.
Odds, max loss and commissions are given as they would be typed; blank means absent.`,
		Example: `  kalshi-analyzer calc --home-prob 0.5 --draw-prob 0.3 --away-prob 0.25 --work-event --max-loss 10
  kalshi-analyzer calc --event mock-1 --home-odds 2.7 --ah0-away 3.8 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-loss") {
				opts.inputs.MaxLossPercent = strconv.FormatFloat(cfg.Calculator.DefaultMaxLossPercent, 'f', -1, 64)
			}
			if !cmd.Flags().Changed("stake") {
				opts.totalStake = cfg.Calculator.DefaultTotalStake
			}
			return runCalc(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.eventID, "event", "", "Event id to take probabilities from")
	f.Float64Var(&opts.probs.Home, "home-prob", 0, "Kalshi home probability (0-1)")
	f.Float64Var(&opts.probs.Draw, "draw-prob", 0, "Kalshi draw probability (0-1)")
	f.Float64Var(&opts.probs.Away, "away-prob", 0, "Kalshi away probability (0-1)")
	f.StringVar(&opts.inputs.ExchangeOdds.Home, "home-odds", "", "Exchange home odds")
	f.StringVar(&opts.inputs.ExchangeOdds.Draw, "draw-odds", "", "Exchange draw odds")
	f.StringVar(&opts.inputs.ExchangeOdds.Away, "away-odds", "", "Exchange away odds")
	f.StringVar(&opts.inputs.AH0Odds.Home, "ah0-home", "", "AH0 home odds")
	f.StringVar(&opts.inputs.AH0Odds.Away, "ah0-away", "", "AH0 away odds")
	f.BoolVar(&opts.inputs.WorkEvent, "work-event", false, "Cap the loss on the least likely outcome")
	f.StringVar(&opts.inputs.MaxLossPercent, "max-loss", "", "Max loss as a percent of the total stake")
	f.BoolVar(&opts.inputs.ZeroDrawProfit, "zero-draw", false, "Make the draw outcome break even")
	f.StringVar(&opts.inputs.Commissions.Home, "commission-home", "", "Home commission percent")
	f.StringVar(&opts.inputs.Commissions.Draw, "commission-draw", "", "Draw commission percent")
	f.StringVar(&opts.inputs.Commissions.Away, "commission-away", "", "Away commission percent")
	f.Float64Var(&opts.totalStake, "stake", 0, "Total stake (defaults to calculator.default_total_stake)")
	f.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table or json")

	return cmd
}

func runCalc(ctx context.Context, w io.Writer, cfg *config.Config, opts *calcOptions) error {
	if opts.output != outputTable && opts.output != outputJSON {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	if opts.totalStake <= 0 {
		return fmt.Errorf("%w: %v", models.ErrInvalidStake, opts.totalStake)
	}

	probs := opts.probs
	var ev *models.Event
	if opts.eventID != "" {
		found, err := findEvent(ctx, cfg, opts.eventID)
		if err != nil {
			return err
		}
		ev = found
		probs = found.KalshiProbs
	} else if probs.Sum() <= 0 {
		return fmt.Errorf("%w: either --event or the outcome probabilities are required", models.ErrInvalidQuote)
	}

	result := newEngine(cfg).Calculate(opts.inputs.Quote(probs), opts.inputs.Risk(), opts.totalStake)

	if opts.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Event  *models.Event     `json:"event,omitempty"`
			Result calculator.Result `json:"result"`
		}{ev, result.Rounded(2)})
	}

	if ev != nil {
		fmt.Fprintf(w, "%s v %s (%s)\n\n", ev.HomeTeam, ev.AwayTeam, ev.League)
	}
	return renderResult(w, result.Rounded(2))
}

// findEvent fetches the configured source once and returns the event with id
func findEvent(ctx context.Context, cfg *config.Config, id string) (*models.Event, error) {
	batch, err := fetchBatch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snapshot := models.NewSnapshot(batch.Source, batch.FetchedAt, batch.Events)
	ev := snapshot.FindEvent(id)
	if ev == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrEventNotFound, id)
	}
	return ev, nil
}

func fetchBatch(ctx context.Context, cfg *config.Config) (*datasource.Batch, error) {
	appLog := newCLILogger(cfg)
	source, err := datasource.NewFactory(cfg, nil, logger.NewSourceLogger(appLog)).NewEventSource()
	if err != nil {
		return nil, fmt.Errorf("failed to create event source: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	batch, err := source.FetchEvents(ctx)
	if err != nil {
		appLog.WithError(err).Error("Error fetching events")
		return nil, fmt.Errorf("failed to fetch events from Kalshi: %w", err)
	}
	appLog.WithField("source", batch.Source).WithField("events", len(batch.Events)).Debug("Events fetched")
	return batch, nil
}
