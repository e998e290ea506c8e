package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// transcode feeds raw s16le samples to an ffmpeg child process and
// forwards encoded stdout output to emit as it becomes available.
// Codec formats frame their output internally, so chunk timing is
// governed by the codec's flush behavior, not by input availability.
func (e *Encoder) transcode(ctx context.Context, raw Raw, format Format, emit func([]byte) error) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(raw.SampleRate),
		"-ac", strconv.Itoa(raw.Channels),
		"-i", "pipe:0",
	}
	switch format {
	case FormatMP3:
		args = append(args, "-f", "mp3", "-b:a", "128k")
	case FormatAAC:
		args = append(args, "-f", "adts", "-c:a", "aac", "-b:a", "128k")
	case FormatOpus:
		args = append(args, "-f", "ogg", "-c:a", "libopus", "-b:a", "96k")
	case FormatFLAC:
		args = append(args, "-f", "flac")
	default:
		return fmt.Errorf("format %q is not a codec format", format)
	}
	args = append(args, "pipe:1")

	bin := strings.TrimSpace(e.FFmpegPath)
	if bin == "" {
		bin = "ffmpeg"
	}

	// CommandContext kills the encoder when the caller cancels, which
	// is the release path for aborted streaming requests.
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	// Feed samples on a separate goroutine so reading never deadlocks
	// against the encoder's own buffering. A write error here usually
	// means ffmpeg exited early; Wait reports the real cause.
	writeDone := make(chan error, 1)
	go func() {
		_, werr := stdin.Write(raw.PCM)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		writeDone <- werr
	}()

	buf := make([]byte, e.chunkSize())
	var emitErr error
	for {
		n, rerr := stdout.Read(buf)
		if n > 0 && emitErr == nil {
			emitErr = emit(buf[:n])
		}
		if rerr != nil {
			break
		}
		if emitErr != nil {
			// Stop pulling output; killing the process unblocks everything.
			break
		}
	}

	if emitErr != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	<-writeDone

	if emitErr != nil {
		return emitErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = waitErr.Error()
		}
		return fmt.Errorf("ffmpeg %s encode failed: %s", format, detail)
	}
	return nil
}
