package main

import (
	"fmt"
	"io"
	"os"

	"signal-forest/internal/dataset"
	"signal-forest/internal/logger"
	"signal-forest/internal/ml/features"
	"signal-forest/internal/ml/training"
	"signal-forest/internal/ml/tree"
	"signal-forest/internal/tui"

	"github.com/spf13/cobra"
)

type trainCmdConfig struct {
	*rootCmdConfig
	input         string
	target        string
	learner       string
	bags          int
	leafSize      int
	maxDepth      int
	regression    bool
	trainFraction float64
	seed          uint64
	workers       int
	baseline      bool
	printTree     bool
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	defaults := training.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a bagged ensemble on a feature set",
		Long:  `Split a feature set chronologically, train a bag of decision or random trees on the head and report held-out scores on the tail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.trainingConfig()
			if err != nil {
				return err
			}
			frame, err := config.readFrame(cmd.InOrStdin())
			if err != nil {
				return err
			}

			var encoder *dataset.LabelEncoder
			if cfg.Classifier && config.target == features.ColSignal {
				encoder = features.SignalEncoder()
			}

			out := cmd.OutOrStdout()
			if encoder != nil {
				mapping := make(map[string]int)
				for i, l := range encoder.Labels() {
					mapping[l] = i
				}
				fmt.Fprintf(out, "Label Encoder Classes: %v\n", mapping)
			}

			outcome, err := training.Fit(cmd.Context(), frame, config.target, encoder, cfg)
			if err != nil {
				return fmt.Errorf("training: %w", err)
			}
			fmt.Fprintf(out, "Train Set Length: %d\n", outcome.TrainRows)
			fmt.Fprintf(out, "Test Set Length: %d\n", outcome.TestRows)
			fmt.Fprintln(out, "Successfully Trained")
			logger.Debug().Uint64("seed", outcome.Config.Seed).Int("members", outcome.Ensemble.Members()).Msg("ensemble trained")

			fmt.Fprintln(out, "Test Results")
			if c := outcome.Classification; c != nil {
				fmt.Fprintf(out, "Accuracy: %v\n", c.Accuracy)
				fmt.Fprintf(out, "Precision: %v\n", c.Precision)
				fmt.Fprintf(out, "F1 Score: %v\n", c.F1)
				fmt.Fprintf(out, "Recall: %v\n", c.Recall)
			}
			if r := outcome.Regression; r != nil {
				fmt.Fprintf(out, "RMSE: %v\n", r.RMSE)
				fmt.Fprintf(out, "MAE: %v\n", r.MAE)
			}
			if config.verbose {
				fmt.Fprintln(out, tui.RenderReport(&tui.Result{
					Symbol:    config.target,
					Learner:   cfg.Learner,
					Bags:      cfg.Bags,
					TrainRows: outcome.TrainRows,
					TestRows:  outcome.TestRows,
					Report:    outcome.Report,
				}))
			}
			if config.printTree {
				fmt.Fprintln(out, "First Member Tree")
				fmt.Fprint(out, outcome.Ensemble.Tree(0))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&(config.input), "input", "i", "", "path to an input CSV file built by the build command (defaults to STDIN)")
	cmd.Flags().StringVarP(&(config.target), "target", "t", features.ColSignal, "name of the column to predict")
	cmd.Flags().StringVarP(&(config.learner), "learner", "l", string(defaults.Learner), "member learner: dt (decision) or rt (random)")
	cmd.Flags().IntVarP(&(config.bags), "bags", "b", defaults.Bags, "number of bagged members")
	cmd.Flags().IntVar(&(config.leafSize), "leaf-size", defaults.LeafSize, "rows at or below which a node becomes a leaf")
	cmd.Flags().IntVar(&(config.maxDepth), "max-depth", defaults.MaxDepth, "maximum tree depth")
	cmd.Flags().BoolVar(&(config.regression), "regression", false, "average member outputs instead of voting")
	cmd.Flags().Float64Var(&(config.trainFraction), "train-fraction", defaults.TrainFraction, "share of leading rows used for training")
	cmd.Flags().Uint64Var(&(config.seed), "seed", 0, "random seed (0 draws a fresh one)")
	cmd.Flags().IntVar(&(config.workers), "workers", 0, "concurrent member builds (0 uses GOMAXPROCS)")
	cmd.Flags().BoolVar(&(config.baseline), "baseline", false, "also score a gradient-boosted baseline")
	cmd.Flags().BoolVar(&(config.printTree), "print-tree", false, "print the first member's tree")
	return cmd
}

func (c *trainCmdConfig) trainingConfig() (training.Config, error) {
	kind, err := tree.ParseKind(c.learner)
	if err != nil {
		return training.Config{}, err
	}
	if c.target == "" {
		return training.Config{}, fmt.Errorf("required target flag was not set")
	}
	cfg := training.DefaultConfig()
	cfg.Learner = kind
	cfg.Bags = c.bags
	cfg.LeafSize = c.leafSize
	cfg.MaxDepth = c.maxDepth
	cfg.Classifier = !c.regression
	cfg.TrainFraction = c.trainFraction
	cfg.Seed = c.seed
	cfg.Workers = c.workers
	cfg.Baseline = c.baseline
	return cfg, cfg.Validate()
}

func (c *trainCmdConfig) readFrame(stdin io.Reader) (*dataset.Frame, error) {
	r := stdin
	if c.input != "" {
		f, err := os.Open(c.input)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", c.input, err)
		}
		defer f.Close()
		r = f
	} else {
		logger.Debug().Msg("reading feature set from STDIN")
	}
	frame, err := dataset.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("reading feature set: %w", err)
	}
	return frame.DropNonFinite(), nil
}
