package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "intakeline" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "intakeline")
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.CallInactivityTimeout != 5*time.Minute {
		t.Fatalf("CallInactivityTimeout = %v, want 5m", cfg.CallInactivityTimeout)
	}
	if cfg.ModelTemperature != 0.7 {
		t.Fatalf("ModelTemperature = %v, want 0.7", cfg.ModelTemperature)
	}
	if !strings.HasPrefix(cfg.ModelRealtimeURL, "wss://") {
		t.Fatalf("ModelRealtimeURL = %q, want wss:// URL", cfg.ModelRealtimeURL)
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = true, want false by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_BIND_ADDR", ":9999")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("APP_CALL_INACTIVITY_TIMEOUT", "90s")
	t.Setenv("MODEL_TEMPERATURE", "0.2")
	t.Setenv("MODEL_VERBOSE_EVENTS", "session.updated, response.done ,")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9999" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9999")
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 3s", cfg.ShutdownTimeout)
	}
	if cfg.CallInactivityTimeout != 90*time.Second {
		t.Fatalf("CallInactivityTimeout = %v, want 90s", cfg.CallInactivityTimeout)
	}
	if cfg.ModelTemperature != 0.2 {
		t.Fatalf("ModelTemperature = %v, want 0.2", cfg.ModelTemperature)
	}
	want := []string{"session.updated", "response.done"}
	if len(cfg.VerboseModelEvents) != len(want) {
		t.Fatalf("VerboseModelEvents = %v, want %v", cfg.VerboseModelEvents, want)
	}
	for i := range want {
		if cfg.VerboseModelEvents[i] != want[i] {
			t.Fatalf("VerboseModelEvents = %v, want %v", cfg.VerboseModelEvents, want)
		}
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin = false, want true")
	}
}

func TestLoadRejectsShortInactivityTimeout(t *testing.T) {
	t.Setenv("APP_CALL_INACTIVITY_TIMEOUT", "10s")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want inactivity timeout validation error")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want duration parse error")
	}
}

func TestLoadRejectsOutOfRangeTemperature(t *testing.T) {
	t.Setenv("MODEL_TEMPERATURE", "3.5")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want temperature range error")
	}
}

func TestLoadRejectsNonWebsocketModelURL(t *testing.T) {
	t.Setenv("MODEL_REALTIME_URL", "https://api.openai.com/v1/realtime")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want websocket scheme error")
	}
}

func TestLoadRejectsBadBool(t *testing.T) {
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "maybe")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want bool parse error")
	}
}
