package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carelinehq/intakeline/internal/call"
	"github.com/carelinehq/intakeline/internal/config"
	"github.com/carelinehq/intakeline/internal/feedback"
	"github.com/carelinehq/intakeline/internal/httpapi"
	"github.com/carelinehq/intakeline/internal/observability"
	"github.com/carelinehq/intakeline/internal/questionnaire"
	"github.com/carelinehq/intakeline/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := questionnaire.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("answer store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL != "" {
		log.Printf("answer store: postgres")
	} else {
		log.Printf("answer store: in-memory")
	}

	var lifecycle call.Lifecycle
	if cfg.ProviderAccountSID != "" && cfg.ProviderAuthToken != "" {
		lifecycle = call.NewProviderLifecycle(cfg.ProviderAccountSID, cfg.ProviderAuthToken, cfg.ProviderAPIBaseURL)
		log.Printf("call lifecycle: provider rest api")
	} else {
		lifecycle = call.NoopLifecycle{}
		log.Printf("call lifecycle: noop (no provider credentials)")
	}

	registry := call.NewManager(cfg.CallInactivityTimeout)
	registry.SetExpireHook(func(_ *call.Call) {
		metrics.CallEvents.WithLabelValues("expired").Inc()
		metrics.ActiveCalls.Set(float64(registry.ActiveCount()))
	})

	orchestrator := call.NewOrchestrator(
		registry,
		store,
		feedback.NewTableProvider(store),
		lifecycle,
		metrics,
		cfg.ModelVoice,
		cfg.ModelTemperature,
		cfg.VerboseModelEvents,
	)

	dialModel := func(ctx context.Context) (call.Conn, error) {
		return realtime.Dial(ctx, realtime.DialConfig{
			URL:    cfg.ModelRealtimeURL,
			APIKey: cfg.ModelAPIKey,
			Model:  cfg.ModelName,
		})
	}

	api := httpapi.New(cfg, registry, orchestrator, store, metrics, dialModel)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	registry.StartJanitor(runCtx, 30*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
