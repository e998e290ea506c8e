package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ent0n29/aria/internal/audio"
	"github.com/ent0n29/aria/internal/config"
	"github.com/ent0n29/aria/internal/httpapi"
	"github.com/ent0n29/aria/internal/observability"
	"github.com/ent0n29/aria/internal/tts"
	"github.com/ent0n29/aria/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	usageStore, err := usage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("usage store init failed: %v", err)
	}
	defer usageStore.Close()

	catalog := tts.DefaultCatalog()
	if cfg.VoicesFile != "" {
		catalog, err = tts.LoadCatalog(cfg.VoicesFile)
		if err != nil {
			log.Fatalf("voice catalog init failed: %v", err)
		}
	}
	if _, ok := catalog.Get(cfg.DefaultVoice); !ok {
		log.Fatalf("DEFAULT_VOICE %q is not in the voice catalog %v", cfg.DefaultVoice, catalog.IDs())
	}

	policy, err := tts.ParseSymbolPolicy(cfg.SymbolPolicy)
	if err != nil {
		log.Fatalf("TEXT_SYMBOL_POLICY error: %v", err)
	}
	normalizer := tts.Normalizer{MaxLength: cfg.MaxTextLength, Policy: policy}

	buildEngine := engineBuilder(cfg)
	loader := tts.NewLoader(buildEngine, cfg.ModelLoadTimeout)
	loader.OnLoad = func(err error) {
		if err != nil {
			metrics.ModelLoads.WithLabelValues("error").Inc()
			metrics.ModelState.Set(3)
			return
		}
		metrics.ModelLoads.WithLabelValues("ok").Inc()
		metrics.ModelState.Set(2)
	}
	defer loader.Close()

	if cfg.PreloadModel {
		metrics.ModelState.Set(1)
		go func() {
			log.Printf("pre-loading model...")
			if err := loader.Warmup(context.Background()); err != nil {
				// Not fatal: the loader retries on the first real request.
				log.Printf("model preload failed, will load lazily: %v", err)
				return
			}
			log.Printf("model loaded")
		}()
	}

	encoder := audio.NewEncoder(cfg.FFmpegPath)
	orchestrator := tts.NewOrchestrator(loader, catalog, normalizer, encoder, metrics, usageStore, cfg.Workers, cfg.DefaultVoice)

	api := httpapi.New(cfg, orchestrator, loader, usageStore, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr(),
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on http://%s", cfg.BindAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// engineBuilder picks the inference backend: the worker process when
// requested or (in auto mode) when its script is present, otherwise
// the deterministic mock so the API stays usable without weights.
func engineBuilder(cfg config.Config) func(ctx context.Context) (tts.Engine, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Engine))
	return func(_ context.Context) (tts.Engine, error) {
		switch mode {
		case "worker":
			return tts.NewWorkerEngine(tts.WorkerConfig{
				Python:      cfg.WorkerPython,
				Script:      cfg.WorkerScript,
				WarmupVoice: cfg.DefaultVoice,
			})
		case "mock":
			log.Printf("tts engine: mock")
			return tts.NewMockEngine(), nil
		default: // auto
			if _, err := os.Stat(cfg.WorkerScript); err == nil {
				engine, werr := tts.NewWorkerEngine(tts.WorkerConfig{
					Python:      cfg.WorkerPython,
					Script:      cfg.WorkerScript,
					WarmupVoice: cfg.DefaultVoice,
				})
				if werr == nil {
					log.Printf("tts engine: worker (%s)", cfg.WorkerScript)
					return engine, nil
				}
				return nil, werr
			}
			log.Printf("tts engine: mock (worker script %s not found)", cfg.WorkerScript)
			return tts.NewMockEngine(), nil
		}
	}
}
