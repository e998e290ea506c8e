package tts

import (
	"context"

	"github.com/ent0n29/aria/internal/audio"
)

// Engine is a loaded, ready-to-use text-to-speech model. Engines are
// shared read-only by all concurrent requests once constructed.
type Engine interface {
	// Synthesize renders normalized text with the given voice and speed
	// into one raw PCM buffer.
	Synthesize(ctx context.Context, text, voice string, speed float64) (audio.Raw, error)
	// Close releases model resources (worker process, device memory).
	Close() error
}
