package audio

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func testRaw(frames int) Raw {
	pcm := make([]byte, frames*2)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	return Raw{PCM: pcm, SampleRate: 24000, Channels: 1}
}

func TestEncodePCMPassthrough(t *testing.T) {
	e := NewEncoder("")
	raw := testRaw(600)

	out, err := e.Encode(context.Background(), raw, FormatPCM)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(out, raw.PCM) {
		t.Fatalf("pcm output differs from input samples")
	}

	// The returned buffer is a copy, not an alias.
	out[0]++
	if out[0] == raw.PCM[0] {
		t.Fatalf("pcm output aliases the raw buffer")
	}
}

func TestEncodeRejectsInvalidRaw(t *testing.T) {
	e := NewEncoder("")
	bad := Raw{PCM: make([]byte, 3), SampleRate: 24000, Channels: 1}

	if _, err := e.Encode(context.Background(), bad, FormatWAV); !errors.Is(err, ErrInvalidRaw) {
		t.Fatalf("Encode() error = %v, want ErrInvalidRaw", err)
	}

	chunks, errs := e.EncodeStream(context.Background(), bad, FormatWAV)
	for range chunks {
	}
	if err := <-errs; !errors.Is(err, ErrInvalidRaw) {
		t.Fatalf("EncodeStream() error = %v, want ErrInvalidRaw", err)
	}
}

func TestEncodeStreamMatchesBuffered(t *testing.T) {
	for _, format := range []Format{FormatWAV, FormatPCM} {
		e := NewEncoder("")
		e.ChunkSize = 100
		raw := testRaw(1234)

		buffered, err := e.Encode(context.Background(), raw, format)
		if err != nil {
			t.Fatalf("[%s] Encode() error = %v", format, err)
		}

		chunks, errs := e.EncodeStream(context.Background(), raw, format)
		var streamed bytes.Buffer
		sizes := []int{}
		for chunk := range chunks {
			streamed.Write(chunk)
			sizes = append(sizes, len(chunk))
		}
		if err := <-errs; err != nil {
			t.Fatalf("[%s] EncodeStream() error = %v", format, err)
		}
		if !bytes.Equal(streamed.Bytes(), buffered) {
			t.Fatalf("[%s] streamed bytes differ from buffered output", format)
		}
		for i, n := range sizes {
			if n > 100 {
				t.Fatalf("[%s] chunk %d size = %d exceeds configured chunk size", format, i, n)
			}
		}
	}
}

func TestEncodeStreamCancellation(t *testing.T) {
	e := NewEncoder("")
	e.ChunkSize = 8
	raw := testRaw(20000)

	ctx, cancel := context.WithCancel(context.Background())
	chunks, errs := e.EncodeStream(ctx, raw, FormatPCM)

	select {
	case <-chunks:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for first chunk")
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-chunks:
			if !ok {
				if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
					t.Fatalf("error = %v, want context.Canceled or nil", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("stream did not terminate after cancellation")
		}
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	e := NewEncoder("")
	if _, err := e.Encode(context.Background(), testRaw(10), Format("ogg")); err == nil {
		t.Fatalf("unknown format should error")
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range SupportedFormats() {
		f, ok := ParseFormat(" " + name + " ")
		if !ok || string(f) != name {
			t.Fatalf("ParseFormat(%q) = %q, %v", name, f, ok)
		}
		if f.ContentType() == "" || f.ContentType() == "application/octet-stream" {
			t.Fatalf("format %q has no content type", name)
		}
	}
	if _, ok := ParseFormat("webm"); ok {
		t.Fatalf("webm should not parse")
	}
	if got := FormatMP3.ContentType(); got != "audio/mpeg" {
		t.Fatalf("mp3 content type = %q", got)
	}
}

func TestTranscodeMissingBinary(t *testing.T) {
	e := NewEncoder("/nonexistent/ffmpeg")
	_, err := e.Encode(context.Background(), testRaw(600), FormatMP3)
	if err == nil {
		t.Fatalf("missing ffmpeg should error")
	}
}
