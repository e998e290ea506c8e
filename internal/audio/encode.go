package audio

import (
	"bytes"
	"context"
	"fmt"
)

const defaultChunkSize = 16 * 1024

// Encoder turns raw model output into one of the supported container
// formats, either as a complete buffer or as an ordered chunk stream.
type Encoder struct {
	// FFmpegPath overrides the ffmpeg binary used for codec formats.
	FFmpegPath string
	// ChunkSize bounds the size of streamed chunks.
	ChunkSize int
}

func NewEncoder(ffmpegPath string) *Encoder {
	return &Encoder{FFmpegPath: ffmpegPath, ChunkSize: defaultChunkSize}
}

func (e *Encoder) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return defaultChunkSize
}

// Encode produces the complete encoded payload for raw in the target format.
func (e *Encoder) Encode(ctx context.Context, raw Raw, format Format) ([]byte, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatPCM:
		out := make([]byte, len(raw.PCM))
		copy(out, raw.PCM)
		return out, nil
	case FormatWAV:
		return EncodeWAV(raw)
	case FormatMP3, FormatAAC, FormatOpus, FormatFLAC:
		var buf bytes.Buffer
		err := e.transcode(ctx, raw, format, func(chunk []byte) error {
			_, werr := buf.Write(chunk)
			return werr
		})
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// EncodeStream produces the same bytes as Encode, delivered as an
// ordered, forward-only chunk sequence. Both channels close once the
// stream is exhausted; the error channel reports at most one failure.
// Cancelling ctx stops production and releases codec resources.
func (e *Encoder) EncodeStream(ctx context.Context, raw Raw, format Format) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte, 4)
	errs := make(chan error, 1)

	emit := func(chunk []byte) error {
		out := make([]byte, len(chunk))
		copy(out, chunk)
		select {
		case chunks <- out:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := raw.Validate(); err != nil {
			errs <- err
			return
		}

		var err error
		switch format {
		case FormatPCM:
			err = e.emitChunked(raw.PCM, emit)
		case FormatWAV:
			var payload []byte
			payload, err = EncodeWAV(raw)
			if err == nil {
				err = e.emitChunked(payload, emit)
			}
		case FormatMP3, FormatAAC, FormatOpus, FormatFLAC:
			err = e.transcode(ctx, raw, format, emit)
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			errs <- err
		}
	}()

	return chunks, errs
}

func (e *Encoder) emitChunked(payload []byte, emit func([]byte) error) error {
	size := e.chunkSize()
	for off := 0; off < len(payload); off += size {
		end := off + size
		if end > len(payload) {
			end = len(payload)
		}
		if err := emit(payload[off:end]); err != nil {
			return err
		}
	}
	return nil
}
