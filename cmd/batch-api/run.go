package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/annotext/batch-annotator/internal/api_server"
	"github.com/annotext/batch-annotator/internal/config"
	"github.com/annotext/batch-annotator/internal/objstore"
	"github.com/annotext/batch-annotator/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the batch annotator api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.LevelFromString(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Named("batch_api").Info("Starting API service")
		defer zap.S().Named("batch_api").Info("API service stopped")

		store, err := objstore.NewMinioStore(
			objstore.WithEndpoint(cfg.Store.Endpoint),
			objstore.WithAccessKey(cfg.Store.AccessKey),
			objstore.WithSecretKey(cfg.Store.SecretKey),
			objstore.WithSSL(cfg.Store.UseSSL),
		)
		if err != nil {
			zap.S().Named("batch_api").Fatalw("initializing object store", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Named("batch_api").Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, store, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Named("batch_api").Fatalw("running server", "error", err)
			}
			cancel()
		}()

		go func() {
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Named("batch_api").Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Named("batch_api").Fatalw("running metrics server", "error", err)
			}
			cancel()
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
