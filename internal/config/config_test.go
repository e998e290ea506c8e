package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8880 {
		t.Fatalf("Port = %d, want 8880", cfg.Port)
	}
	if cfg.BindAddr() != "0.0.0.0:8880" {
		t.Fatalf("BindAddr() = %q", cfg.BindAddr())
	}
	if cfg.Workers != 1 {
		t.Fatalf("Workers = %d, want 1", cfg.Workers)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.MaxTextLength != 4096 {
		t.Fatalf("MaxTextLength = %d, want 4096", cfg.MaxTextLength)
	}
	if cfg.DefaultVoice != "Vivian" {
		t.Fatalf("DefaultVoice = %q, want Vivian", cfg.DefaultVoice)
	}
	if !cfg.PreloadModel {
		t.Fatalf("PreloadModel should default to true")
	}
	if cfg.Engine != "auto" {
		t.Fatalf("Engine = %q, want auto", cfg.Engine)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKERS", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PRELOAD_MODEL", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("TTS_ENGINE", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9000 || cfg.Workers != 4 {
		t.Fatalf("Port/Workers = %d/%d", cfg.Port, cfg.Workers)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.PreloadModel {
		t.Fatalf("PreloadModel should be false")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "70000",
		"WORKERS":         "0",
		"MAX_TEXT_LENGTH": "-1",
		"TTS_ENGINE":      "gpu",
		"PRELOAD_MODEL":   "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s should fail to load", key, value)
			}
		})
	}
}
