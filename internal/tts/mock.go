package tts

import (
	"context"
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ent0n29/aria/internal/audio"
)

// MockEngine is a deterministic in-process engine used for tests and
// for running the server without model weights. It renders a short
// tone whose length scales with the input text.
type MockEngine struct {
	// SampleRate defaults to 24000 when zero.
	SampleRate int
	// Err, when set, is returned by every Synthesize call.
	Err error

	calls atomic.Int64
}

func NewMockEngine() *MockEngine { return &MockEngine{} }

// SynthCalls reports how many times Synthesize has been invoked.
func (m *MockEngine) SynthCalls() int64 { return m.calls.Load() }

func (m *MockEngine) Synthesize(ctx context.Context, text, voice string, speed float64) (audio.Raw, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return audio.Raw{}, m.Err
	}
	if err := ctx.Err(); err != nil {
		return audio.Raw{}, err
	}

	rate := m.SampleRate
	if rate <= 0 {
		rate = 24000
	}
	if speed <= 0 {
		speed = 1.0
	}

	// Roughly 60ms of audio per input rune, compressed by speed.
	frames := int(float64(len([]rune(text))*rate) * 0.06 / speed)
	if frames < rate/10 {
		frames = rate / 10
	}

	// Pitch varies with the voice so distinct voices produce distinct bytes.
	freq := 180.0
	for _, r := range voice {
		freq += float64(r % 97)
	}

	pcm := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		sample := int16(6000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return audio.Raw{PCM: pcm, SampleRate: rate, Channels: 1}, nil
}

func (m *MockEngine) Close() error { return nil }
