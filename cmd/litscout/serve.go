// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litscout/internal/candidates"
	"github.com/pdiddy/litscout/internal/encoder"
	"github.com/pdiddy/litscout/internal/engine"
	"github.com/pdiddy/litscout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Long: `Serve exposes the scoring engine over HTTP:

  GET  /v1/{papers|authors|venues|all}?q=...&offset=&limit=&paper_weight=&concept_weight=&min_score=
  POST /v1/upload?kind=...   (request body is the query text)
  GET  /healthz
  GET  /metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		return err
	}

	eng, err := newEngine(cfg, metrics)
	if err != nil {
		return err
	}
	defer eng.Release()

	store, err := candidates.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := serviceOptions(cfg)
	enc, err := encoder.New(cfg.Encoder, loadedSecrets)
	if err != nil {
		slog.Warn("query encoder unavailable, text queries will be rejected", "err", err)
	} else {
		opts = append(opts, engine.WithEncoder(enc))
	}
	svc, err := engine.NewService(eng, store, opts...)
	if err != nil {
		return err
	}

	srv, err := server.New(svc, cfg.Server,
		server.WithHealth(store),
		server.WithGatherer(reg),
		server.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
