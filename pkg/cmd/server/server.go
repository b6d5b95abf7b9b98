package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/config"
	"github.com/pitwall/f1-strategy-manager-go/pkg/endpoints"
	"github.com/pitwall/f1-strategy-manager-go/pkg/openf1"
	"github.com/pitwall/f1-strategy-manager-go/pkg/service"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/collector"
	"github.com/pitwall/f1-strategy-manager-go/pkg/strategy/manager"
)

const shutdownGrace = 10 * time.Second

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the strategy API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.ListenAddr,
		"listen-addr",
		"localhost:8000",
		"listen address for the HTTP API")
	cmd.Flags().StringSliceVar(&config.CorsOrigins,
		"cors-origins",
		[]string{"http://localhost:3000", "http://localhost:5173"},
		"allowed CORS origins")
	return cmd
}

func startServer(ctx context.Context) error {
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
	mgr.LoadAll()

	training := service.NewTrainingService(client, mgr,
		service.WithCollector(col),
		service.WithSampleTargets(config.MinRealSamples, config.TargetTotalSamples))

	srv := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           endpoints.NewServer(mgr, training).Router(config.CorsOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server started",
			log.String("addr", config.ListenAddr),
			log.String("modelsDir", config.ModelsDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown did not complete cleanly", log.ErrorField(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Server terminated")
	return nil
}
