package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Leganyst/appointment-queue/internal/model"
	"github.com/Leganyst/appointment-queue/internal/service"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC queue service and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// 1. Хранилище, лента, уведомления.
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn().Err(err).Msg("close resources")
				}
			}()

			// 2. Миграции по флагу.
			if migrate {
				if err := model.AutoMigrate(a.db); err != nil {
					return fmt.Errorf("auto migrate: %w", err)
				}
			}

			// 3. Метрики.
			a.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metricsSrv := &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           metricsHandler(a.registry),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server stopped")
				}
			}()

			// 4. gRPC.
			grpcSrv, hs := service.NewGRPCServer(service.NewQueueService(a.controller), log)
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- grpcSrv.Serve(lis)
			}()
			log.Info().Str("grpc_addr", cfg.GRPCAddr).Str("metrics_addr", cfg.MetricsAddr).Msg("queuecore listening")

			// 5. Грейсфул-шатдаун по сигналу.
			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("grpc serve: %w", err)
				}
			}

			log.Info().Msg("shutting down")
			hs.Shutdown()
			grpcSrv.GracefulStop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("metrics shutdown")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migrations before serving")
	return cmd
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
