package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phylotree/internal/adapters/treeapi"
	"phylotree/internal/core"
	"phylotree/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides server.addr")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	svc, err := a.service(ctx, core.WithMetrics(metrics))
	if err != nil {
		return err
	}
	objects, err := a.blobStore(ctx)
	if err != nil {
		return err
	}
	store, err := a.presetStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	worker := treeapi.NewWorker(svc, objects, treeapi.WorkerOptions{
		QueueSize: a.cfg.Exports.QueueSize,
		Audit:     treeapi.ZapAuditLog{Logger: a.logger.Named("audit")},
		Metrics:   metrics,
		Logger:    a.logger,
	})
	worker.Start()

	handler := treeapi.NewHandler(svc)
	handler.Presets = store
	handler.Exports = worker
	handler.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	handler.Logger = a.logger

	if a.cfg.Data.Watch {
		go func() {
			if err := svc.Watch(ctx); err != nil {
				a.logger.Warn("data watch stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           observability.Middleware(handler, metrics, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening",
			zap.String("addr", server.Addr),
			zap.String("engine", svc.Engine()),
			zap.String("presets", a.cfg.Presets.Driver),
			zap.String("blob", a.cfg.Blob.Driver))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = worker.Stop(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", zap.Error(err))
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		a.logger.Warn("export worker shutdown", zap.Error(err))
	}
	a.logger.Info("stopped")
	return nil
}
