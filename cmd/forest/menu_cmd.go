package main

import (
	"strings"

	appconfig "signal-forest/internal/config"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/service"
	"signal-forest/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
)

var runProgramFunc = func(m tea.Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

type menuCmdConfig struct {
	*rootCmdConfig
	symbol string
	bags   int
}

func menuCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &menuCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive training menu",
		Long:  `Pick a bag of decision or random trees, train it on freshly downloaded candles and browse the held-out scores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := training.FromAppConfig(appconfig.Load())
			if s := strings.ToUpper(strings.TrimSpace(config.symbol)); s != "" {
				defaults.Symbol = s
			}
			if config.bags > 0 {
				defaults.Bags = config.bags
			}
			if err := defaults.Validate(); err != nil {
				return err
			}

			tracer := noop.NewTracerProvider().Tracer("forest")
			marketData := service.NewMarketDataService(tracer, newFetcherFunc(tracer), nil, nil)
			svc := training.NewService(tracer, marketData, nil, defaults)

			model := tui.NewModel(cmd.Context(), "forest - "+defaults.Symbol, tui.ServiceRunner(svc))
			return runProgramFunc(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		},
	}
	cmd.Flags().StringVarP(&(config.symbol), "symbol", "s", "", "ticker to train on (defaults to ML_SYMBOL)")
	cmd.Flags().IntVarP(&(config.bags), "bags", "b", 0, "number of bagged members (defaults to ML_BAGS)")
	return cmd
}
