package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TURNOS_API_URL", "")
	t.Setenv("TURNOS_PROBE_LOOKAHEAD_DAYS", "")
	cfg := Load()
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.ProbeLookaheadDays != 7 {
		t.Fatalf("expected default probe lookahead, got %d", cfg.ProbeLookaheadDays)
	}
	if cfg.ProbeTimeout != 5*time.Second {
		t.Fatalf("expected default probe timeout, got %s", cfg.ProbeTimeout)
	}
	if cfg.NegocioID != "" {
		t.Fatalf("expected empty negocio id, got %s", cfg.NegocioID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TURNOS_API_URL", "https://api.ordema.app/api/v1/")
	t.Setenv("TURNOS_NEGOCIO_ID", "3")
	t.Setenv("TURNOS_HTTP_TIMEOUT", "20s")
	t.Setenv("TURNOS_PROBE_TIMEOUT", "2s")
	t.Setenv("TURNOS_MAX_BOOKING_DAYS", "30")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.APIBaseURL != "https://api.ordema.app/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.NegocioID != "3" {
		t.Fatalf("expected negocio override, got %s", cfg.NegocioID)
	}
	if cfg.HTTPTimeout != 20*time.Second {
		t.Fatalf("expected http timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.ProbeTimeout != 2*time.Second {
		t.Fatalf("expected probe timeout override, got %s", cfg.ProbeTimeout)
	}
	if cfg.MaxBookingDays != 30 {
		t.Fatalf("expected max booking days override, got %d", cfg.MaxBookingDays)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
}
