package usage

import (
	"context"
	"strings"
	"time"
)

// Record captures one synthesis request for the usage log.
type Record struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Voice      string    `json:"voice"`
	Format     string    `json:"format"`
	TextChars  int       `json:"text_chars"`
	AudioBytes int       `json:"audio_bytes"`
	DurationMS int64     `json:"duration_ms"`
	Streamed   bool      `json:"streamed"`
	Status     string    `json:"status"`
}

// Store persists and retrieves synthesis usage records.
type Store interface {
	Save(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
