package audio

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRaw marks a raw buffer whose shape does not match its tags.
var ErrInvalidRaw = errors.New("invalid raw audio buffer")

// Raw holds one inference call's worth of PCM16LE samples together
// with the sample rate and channel count the model produced them at.
type Raw struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

const bytesPerSample = 2 // PCM16LE

// Validate rejects buffers whose declared layout cannot describe the
// byte payload. Encoders call this before touching the samples.
func (r Raw) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidRaw, r.SampleRate)
	}
	if r.Channels != 1 && r.Channels != 2 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidRaw, r.Channels)
	}
	frame := bytesPerSample * r.Channels
	if len(r.PCM) == 0 || len(r.PCM)%frame != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames", ErrInvalidRaw, len(r.PCM), frame)
	}
	return nil
}

// Duration reports the playback length of the buffer.
func (r Raw) Duration() time.Duration {
	frame := bytesPerSample * r.Channels
	if r.SampleRate <= 0 || frame <= 0 {
		return 0
	}
	frames := len(r.PCM) / frame
	return time.Duration(frames) * time.Second / time.Duration(r.SampleRate)
}
