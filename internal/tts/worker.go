package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/aria/internal/audio"
)

// WorkerConfig describes how to start the inference worker process.
type WorkerConfig struct {
	Python      string
	Script      string
	WarmupVoice string
}

// workerEngine drives a long-lived python inference process over a
// line-delimited JSON protocol: one request line in, one response
// object out, raw samples carried as base64 PCM16LE.
type workerEngine struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	dec    *json.Decoder
	closed bool
	seq    int64
}

type workerRequest struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

type workerResponse struct {
	ID          string `json:"id"`
	OK          bool   `json:"ok"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	AudioBase64 string `json:"audio_base64"`
	Error       string `json:"error"`
}

// NewWorkerEngine starts the worker process and runs one warmup
// synthesis so missing weights or broken dependencies surface as a
// construction error instead of failing the first real request.
func NewWorkerEngine(cfg WorkerConfig) (Engine, error) {
	python := strings.TrimSpace(cfg.Python)
	if python == "" {
		python = "python3"
	}
	script := strings.TrimSpace(cfg.Script)
	if script == "" {
		return nil, fmt.Errorf("worker script path is required")
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("worker script not found: %s", script)
	}

	cmd := exec.Command(python, "-u", script)
	cmd.Env = os.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	w := &workerEngine{cmd: cmd, stdin: stdin, dec: json.NewDecoder(stdout)}

	warmupVoice := strings.TrimSpace(cfg.WarmupVoice)
	if warmupVoice == "" {
		warmupVoice = "Vivian"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	if _, err := w.Synthesize(ctx, "warmup", warmupVoice, 1.0); err != nil {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("tts worker failed to start: %s", msg)
	}

	return w, nil
}

func (w *workerEngine) Synthesize(ctx context.Context, text, voice string, speed float64) (audio.Raw, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return audio.Raw{}, fmt.Errorf("tts worker closed")
	}
	if err := ctx.Err(); err != nil {
		return audio.Raw{}, err
	}

	w.seq++
	req := workerRequest{
		ID:    fmt.Sprintf("req-%d-%d", time.Now().UnixNano(), w.seq),
		Text:  text,
		Voice: voice,
		Speed: speed,
	}
	if req.Speed <= 0 {
		req.Speed = 1.0
	}

	b, _ := json.Marshal(req)
	b = append(b, '\n')
	if _, err := w.stdin.Write(b); err != nil {
		return audio.Raw{}, err
	}

	// Decode exactly one response; the mutex keeps the protocol
	// single-flight so lines cannot interleave.
	var resp workerResponse
	if err := w.dec.Decode(&resp); err != nil {
		return audio.Raw{}, err
	}
	if resp.ID != req.ID {
		return audio.Raw{}, fmt.Errorf("tts worker out-of-sync (got %q, expected %q)", resp.ID, req.ID)
	}
	if !resp.OK {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = "unknown worker error"
		}
		return audio.Raw{}, fmt.Errorf("%s", msg)
	}

	pcm, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return audio.Raw{}, fmt.Errorf("decode audio_base64: %w", err)
	}
	raw := audio.Raw{PCM: pcm, SampleRate: resp.SampleRate, Channels: resp.Channels}
	if raw.SampleRate <= 0 {
		raw.SampleRate = 24000
	}
	if raw.Channels <= 0 {
		raw.Channels = 1
	}
	if err := raw.Validate(); err != nil {
		return audio.Raw{}, err
	}
	return raw, nil
}

func (w *workerEngine) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	stdin := w.stdin
	cmd := w.cmd
	w.stdin = nil
	w.cmd = nil
	w.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(1200 * time.Millisecond):
		_ = cmd.Process.Kill()
		<-done
	case <-done:
	}
	return nil
}
