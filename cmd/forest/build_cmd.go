package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"signal-forest/internal/domain"
	"signal-forest/internal/logger"
	"signal-forest/internal/ml/features"
	"signal-forest/internal/provider"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type dailyFetcher interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Candle, error)
}

var newFetcherFunc = func(tracer trace.Tracer) dailyFetcher {
	return provider.NewStooqProvider(tracer)
}

type buildCmdConfig struct {
	*rootCmdConfig
	symbol    string
	from      string
	to        string
	threshold float64
	target    string
	output    string
}

func buildCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &buildCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a labelled feature set for a ticker",
		Long:  `Download daily candles for a ticker, derive returns, Sharpe ratio and technical indicators, label each day from the next day's return and write the result as CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, target, err := config.parse()
			if err != nil {
				return err
			}
			tracer := noop.NewTracerProvider().Tracer("forest")
			candles, err := newFetcherFunc(tracer).FetchDaily(cmd.Context(), config.symbol, from, to)
			if err != nil {
				return fmt.Errorf("fetching candles: %w", err)
			}
			logger.Debug().Int("candles", len(candles)).Str("symbol", config.symbol).Msg("candles fetched")

			frame, err := features.NewEngine(config.threshold).BuildFrame(candles, target)
			if err != nil {
				return fmt.Errorf("building features: %w", err)
			}

			out, closeOut, err := config.writer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()
			if err := frame.WriteCSV(out); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
			logger.Info().Int("rows", frame.Len()).Str("target", target.Column()).Msg("feature set written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&(config.symbol), "symbol", "s", "AAPL", "ticker to download")
	cmd.Flags().StringVar(&(config.from), "from", "", "first day, YYYY-MM-DD (defaults to 335 days before --to)")
	cmd.Flags().StringVar(&(config.to), "to", "", "last day, YYYY-MM-DD (defaults to today)")
	cmd.Flags().Float64Var(&(config.threshold), "threshold", features.DefaultSignalThreshold, "next-day return in percent beyond which a day is labelled B or S")
	cmd.Flags().StringVar(&(config.target), "target", "signal", "label column to emit: signal or return")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path of the CSV file to write (defaults to STDOUT)")
	return cmd
}

func (c *buildCmdConfig) parse() (from, to time.Time, target features.Target, err error) {
	c.symbol = strings.ToUpper(strings.TrimSpace(c.symbol))
	if c.symbol == "" {
		return from, to, target, fmt.Errorf("required symbol flag was not set")
	}
	to = time.Now().UTC().Truncate(24 * time.Hour)
	if c.to != "" {
		if to, err = time.Parse(time.DateOnly, c.to); err != nil {
			return from, to, target, fmt.Errorf("invalid --to date %q", c.to)
		}
	}
	from = to.AddDate(0, 0, -335)
	if c.from != "" {
		if from, err = time.Parse(time.DateOnly, c.from); err != nil {
			return from, to, target, fmt.Errorf("invalid --from date %q", c.from)
		}
	}
	if !from.Before(to) {
		return from, to, target, fmt.Errorf("--from must be before --to")
	}
	switch strings.ToLower(c.target) {
	case "signal":
		target = features.TargetSignal
	case "return":
		target = features.TargetNextReturn
	default:
		return from, to, target, fmt.Errorf("unknown target %q, want signal or return", c.target)
	}
	return from, to, target, nil
}

func (c *buildCmdConfig) writer(stdout io.Writer) (io.Writer, func(), error) {
	if c.output == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(c.output)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", c.output, err)
	}
	return f, func() { _ = f.Close() }, nil
}
