// Command pantryd runs the pantry agent's HTTP daemon: chat turns,
// confirmation resumes, and the progress stream, per spec §6.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"pantry/internal/compose"
	"pantry/internal/config"
	"pantry/internal/llmclient"
	"pantry/internal/logging"
	"pantry/internal/planner"
	"pantry/internal/progressstream"
	httpserver "pantry/internal/server/http"
	"pantry/internal/sessionstore"
	"pantry/internal/telemetry"
	"pantry/internal/tools/builtin"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "pantryd",
		Short: "pantry agent daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.NewNamed("pantryd")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTLPEndpoint, "dev")
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	if _, err := telemetry.NewPrometheusMeterProvider(); err != nil {
		logger.Warn("otel meter provider unavailable, continuing with prometheus-only metrics: %v", err)
	}

	llm := llmclient.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, 0)

	registry, err := builtin.RegisterAll(cfg, llm)
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	budget := planner.NewPromptBudget(cfg.PromptTokenBudget, cfg.TiktokenEncoding)
	plnr := planner.New(llm, registry, nil, budget)
	composer := compose.New(llm)

	store := sessionstore.NewStore(sessionstore.WithTimeout(cfg.SessionTimeout))
	hub := progressstream.NewHub()

	var auth httpserver.AuthResolver
	if cfg.Auth.ServiceURL != "" {
		auth = httpserver.NewRemoteAuthResolver(cfg.Auth.ServiceURL, cfg.Auth.ServiceKey)
	}

	srv := httpserver.New(cfg, store, registry, plnr, composer, hub, auth)

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("metrics listening on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(cfg.HTTPAddr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return nil
	}
}
