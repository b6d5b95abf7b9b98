package train

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/config"
	"github.com/pitwall/f1-strategy-manager-go/pkg/openf1"
	"github.com/pitwall/f1-strategy-manager-go/pkg/service"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/collector"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/manager"
)

var sessionKeys []int

// NewTrainCmd trains one model family (or all of them when no argument is
// given) and persists the bundles to the models directory.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "train [model]",
		Short:     "trains strategy models and persists the bundles",
		Long:      fmt.Sprintf("Valid model names: %v. Without an argument all models are trained.", manager.Names),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: manager.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runTrain(cmd, name)
		},
	}
	cmd.Flags().IntSliceVar(&sessionKeys,
		"session-keys",
		nil,
		"OpenF1 session keys to collect telemetry from (omit for synthetic training)")
	return cmd
}

func runTrain(cmd *cobra.Command, name string) error {
	logger, err := log.Init(log.Config{
		Level:      config.LogLevel,
		Format:     config.LogFormat,
		FilterRule: config.LogFilter,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync

	fetchTimeout, err := time.ParseDuration(config.FetchTimeout)
	if err != nil {
		return err
	}

	client := openf1.New(config.OpenF1URL, openf1.WithTimeout(fetchTimeout))
	col := collector.New(
		collector.WithWeights(config.RealDataWeight, config.SyntheticDataWeight))
	mgr := manager.New(config.ModelsDir)
	training := service.NewTrainingService(client, mgr,
		service.WithCollector(col),
		service.WithSampleTargets(config.MinRealSamples, config.TargetTotalSamples))

	ctx := cmd.Context()
	if name != "" {
		report, err := training.TrainModel(ctx, name, sessionKeys)
		if err != nil {
			return err
		}
		printReport(cmd, name, report.SamplesUsed, report.Metrics)
		return nil
	}

	results := training.TrainAll(ctx, sessionKeys)
	failures := 0
	for _, n := range manager.Names {
		entry := results[n]
		if !entry.Success {
			failures++
			cmd.Printf("%s: FAILED: %s\n", n, entry.Error)
			continue
		}
		printReport(cmd, n, entry.SamplesUsed, entry.Metrics)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d models failed to train", failures, len(manager.Names))
	}
	return nil
}

func printReport(cmd *cobra.Command, name string, samples int, metrics map[string]float64) {
	cmd.Printf("%s: trained on %d samples\n", name, samples)
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %.4f\n", k, metrics[k])
	}
}
