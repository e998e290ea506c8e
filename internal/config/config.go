package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the synthesis server.
type Config struct {
	Host             string
	Port             int
	Workers          int
	CORSOrigins      []string
	StaticDir        string
	MetricsNamespace string
	ShutdownTimeout  time.Duration

	Engine           string
	WorkerPython     string
	WorkerScript     string
	PreloadModel     bool
	ModelLoadTimeout time.Duration
	SynthTimeout     time.Duration

	MaxTextLength int
	SymbolPolicy  string
	DefaultVoice  string
	VoicesFile    string

	FFmpegPath string

	DatabaseURL string
}

// BindAddr formats the listen address for net/http.
func (c Config) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		Host:             envOrDefault("HOST", "0.0.0.0"),
		Port:             8880,
		Workers:          1,
		CORSOrigins:      splitList(envOrDefault("CORS_ORIGINS", "*")),
		StaticDir:        stringsTrimSpace("STATIC_DIR"),
		MetricsNamespace: envOrDefault("METRICS_NAMESPACE", "aria"),
		ShutdownTimeout:  15 * time.Second,
		Engine:           envOrDefault("TTS_ENGINE", "auto"),
		WorkerPython:     envOrDefault("TTS_WORKER_PYTHON", "python3"),
		WorkerScript:     envOrDefault("TTS_WORKER_SCRIPT", "scripts/tts_worker.py"),
		PreloadModel:     true,
		ModelLoadTimeout: 5 * time.Minute,
		SynthTimeout:     2 * time.Minute,
		MaxTextLength:    4096,
		SymbolPolicy:     envOrDefault("TEXT_SYMBOL_POLICY", "replace"),
		DefaultVoice:     envOrDefault("DEFAULT_VOICE", "Vivian"),
		VoicesFile:       stringsTrimSpace("VOICES_FILE"),
		FFmpegPath:       envOrDefault("FFMPEG_PATH", "ffmpeg"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
	}

	var err error
	cfg.Port, err = intFromEnv("PORT", cfg.Port)
	if err != nil {
		return Config{}, err
	}
	cfg.Workers, err = intFromEnv("WORKERS", cfg.Workers)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTextLength, err = intFromEnv("MAX_TEXT_LENGTH", cfg.MaxTextLength)
	if err != nil {
		return Config{}, err
	}
	cfg.PreloadModel, err = boolFromEnv("PRELOAD_MODEL", cfg.PreloadModel)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ModelLoadTimeout, err = durationFromEnv("MODEL_LOAD_TIMEOUT", cfg.ModelLoadTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SynthTimeout, err = durationFromEnv("SYNTH_TIMEOUT", cfg.SynthTimeout)
	if err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be in range 1..65535")
	}
	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("WORKERS must be positive")
	}
	if cfg.MaxTextLength <= 0 {
		return Config{}, fmt.Errorf("MAX_TEXT_LENGTH must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "auto", "worker", "mock":
	default:
		return Config{}, fmt.Errorf("invalid TTS_ENGINE: %q (expected auto|worker|mock)", cfg.Engine)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
