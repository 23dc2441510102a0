package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	charm "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"clasificador/pkg/batch"
	"clasificador/pkg/classify"
	"clasificador/pkg/config"
	"clasificador/pkg/inference"
	"clasificador/pkg/metrics"
	"clasificador/pkg/queue/memory"
	"clasificador/pkg/server"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		charm.Fatal("invalid configuration", "error", err)
	}
	charm.SetLevel(cfg.LogLevel)

	// Untyped nil disables a tier.
	var gemini, openAI inference.Inferencer
	if cfg.GeminiEnabled() {
		g, err := inference.NewGeminiInferencer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil && cfg.GeminiBaseURL != "" {
			err = g.ChangeBaseURL(ctx, cfg.GeminiBaseURL)
		}
		if err != nil {
			charm.Warn("gemini disabled", "error", err)
		} else {
			gemini = g
			charm.Info("gemini enabled", "model", g.Model())
		}
	} else {
		charm.Warn("GEMINI_API_KEY not set, gemini disabled")
	}
	if cfg.OpenAIEnabled() {
		o := inference.NewOpenAIInferencer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIBaseURL != "" {
			o.ChangeBaseURL(cfg.OpenAIBaseURL)
		}
		openAI = o
		charm.Info("openai enabled", "model", o.Model())
	} else {
		charm.Warn("OPENAI_API_KEY not set, openai disabled")
	}

	cascade := classify.New(
		classify.Standard(gemini, openAI, cfg.ClassifyTimeout),
		classify.WithMetrics(metrics.NewCascadeMetrics(nil)),
		classify.WithMemo(cfg.MemoTTL),
	)
	metrics.RegisterMemo(nil, cascade)

	registry := batch.NewRegistry()
	if err := registry.Restore(cfg.JobsFile); err != nil {
		charm.Warn("failed to load jobs", "path", cfg.JobsFile, "error", err)
	}
	results := batch.NewMemorySink()
	q := memory.New(registry, batch.NewRunner(cascade, results, cfg.BatchWorkers), cfg.QueueSize, 1)
	q.Start()

	srv := server.NewServer(ctx, cascade, registry, results, q)
	srv.JobsFile = cfg.JobsFile
	if cfg.LogLevel <= charm.DebugLevel {
		srv.Echo.Logger.SetLevel(log.DEBUG)
	} else {
		srv.Echo.Logger.SetLevel(log.INFO)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			charm.Error("shutdown", "error", err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		charm.Error("server", "error", err)
		done()
	}
	<-finishedShutDown
}
