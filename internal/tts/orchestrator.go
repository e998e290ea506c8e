package tts

import (
	"context"
	"errors"
	"time"

	"github.com/ent0n29/aria/internal/audio"
	"github.com/ent0n29/aria/internal/observability"
	"github.com/ent0n29/aria/internal/usage"
)

// Speed bounds accepted on requests, matching the upstream contract.
const (
	MinSpeed     = 0.25
	MaxSpeed     = 4.0
	DefaultSpeed = 1.0
)

// Request carries one synthesis call. Field names follow the
// OpenAI audio-speech wire contract.
type Request struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
	Stream         bool    `json:"stream"`
}

// Result is a complete, non-streamed synthesis output.
type Result struct {
	Audio       []byte
	ContentType string
	Format      audio.Format
	Voice       Voice
}

// Stream is a forward-only, single-pass sequence of encoded chunks.
// Drain Chunks in order, then consult Err for the terminal status.
type Stream struct {
	ContentType string
	Format      audio.Format
	Voice       Voice
	Chunks      <-chan []byte

	err  error
	done chan struct{}
}

// Err reports the stream's terminal error, blocking until the
// producer has settled. Chunks closes just before done, so a caller
// that drained Chunks waits at most one scheduler hop here.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Orchestrator validates requests and drives the synthesis pipeline:
// normalize, infer on the shared engine, encode.
type Orchestrator struct {
	loader       *Loader
	catalog      *Catalog
	normalizer   Normalizer
	encoder      *audio.Encoder
	metrics      *observability.Metrics
	usageStore   usage.Store
	defaultVoice string
	sem          chan struct{}
}

// NewOrchestrator wires the pipeline. workers bounds concurrent
// inference calls; metrics and store may be nil in tests.
func NewOrchestrator(
	loader *Loader,
	catalog *Catalog,
	normalizer Normalizer,
	encoder *audio.Encoder,
	metrics *observability.Metrics,
	store usage.Store,
	workers int,
	defaultVoice string,
) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if encoder == nil {
		encoder = audio.NewEncoder("")
	}
	return &Orchestrator{
		loader:       loader,
		catalog:      catalog,
		normalizer:   normalizer,
		encoder:      encoder,
		metrics:      metrics,
		usageStore:   store,
		defaultVoice: defaultVoice,
		sem:          make(chan struct{}, workers),
	}
}

// Catalog exposes the supported voice set for the API layer.
func (o *Orchestrator) Catalog() *Catalog { return o.catalog }

// validate checks request fields against the supported sets before any
// model work. The model field is accepted as-is: this server hosts a
// single model and the upstream contract treats it as advisory.
func (o *Orchestrator) validate(req Request) (Voice, audio.Format, float64, error) {
	voiceID := req.Voice
	if voiceID == "" {
		voiceID = o.defaultVoice
	}
	voice, ok := o.catalog.Get(voiceID)
	if !ok {
		return Voice{}, "", 0, invalidf("voice", "unsupported voice %q (supported: %v)", req.Voice, o.catalog.IDs())
	}

	formatName := req.ResponseFormat
	if formatName == "" {
		formatName = string(audio.FormatMP3)
	}
	format, ok := audio.ParseFormat(formatName)
	if !ok {
		return Voice{}, "", 0, invalidf("response_format", "unsupported format %q (supported: %v)", req.ResponseFormat, audio.SupportedFormats())
	}

	speed := req.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return Voice{}, "", 0, invalidf("speed", "speed %.2f out of range [%.2f, %.2f]", req.Speed, MinSpeed, MaxSpeed)
	}

	return voice, format, speed, nil
}

// infer runs validation, normalization, and one inference call.
func (o *Orchestrator) infer(ctx context.Context, req Request) (audio.Raw, Voice, audio.Format, string, error) {
	voice, format, speed, err := o.validate(req)
	if err != nil {
		return audio.Raw{}, Voice{}, format, "", err
	}

	text, err := o.normalizer.Normalize(req.Input)
	if err != nil {
		return audio.Raw{}, voice, format, "", err
	}

	engine, err := o.loader.Engine(ctx)
	if err != nil {
		return audio.Raw{}, voice, format, text, err
	}

	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return audio.Raw{}, voice, format, text, ctx.Err()
	}
	defer func() { <-o.sem }()

	raw, err := engine.Synthesize(ctx, text, voice.ID, speed)
	if err != nil {
		if ctx.Err() != nil {
			return audio.Raw{}, voice, format, text, ctx.Err()
		}
		if o.metrics != nil {
			o.metrics.EngineErrors.Inc()
		}
		return audio.Raw{}, voice, format, text, &InferenceError{Err: err}
	}
	return raw, voice, format, text, nil
}

// Synthesize runs the full pipeline and returns one complete buffer.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	raw, voice, format, text, err := o.infer(ctx, req)
	if err != nil {
		o.finish(voice, format, text, 0, start, false, err)
		return nil, err
	}

	payload, err := o.encoder.Encode(ctx, raw, format)
	if err != nil {
		if ctx.Err() == nil {
			err = &EncodingError{Err: err}
		}
		o.finish(voice, format, text, 0, start, false, err)
		return nil, err
	}

	o.finish(voice, format, text, len(payload), start, false, nil)
	return &Result{
		Audio:       payload,
		ContentType: format.ContentType(),
		Format:      format,
		Voice:       voice,
	}, nil
}

// SynthesizeStream runs the pipeline and returns encoded output as a
// lazy chunk sequence. Cancelling ctx stops production and releases
// encoder resources; the shared engine is untouched either way.
func (o *Orchestrator) SynthesizeStream(ctx context.Context, req Request) (*Stream, error) {
	start := time.Now()

	raw, voice, format, text, err := o.infer(ctx, req)
	if err != nil {
		o.finish(voice, format, text, 0, start, true, err)
		return nil, err
	}

	encChunks, encErrs := o.encoder.EncodeStream(ctx, raw, format)

	out := make(chan []byte, 4)
	stream := &Stream{
		ContentType: format.ContentType(),
		Format:      format,
		Voice:       voice,
		Chunks:      out,
		done:        make(chan struct{}),
	}

	if o.metrics != nil {
		o.metrics.ActiveStreams.Inc()
	}

	go func() {
		defer close(stream.done)
		defer close(out)
		if o.metrics != nil {
			defer o.metrics.ActiveStreams.Dec()
		}

		sent := 0
		for chunk := range encChunks {
			select {
			case out <- chunk:
				sent += len(chunk)
			case <-ctx.Done():
				stream.err = ctx.Err()
				// Stop pulling; the encoder unwinds on the same ctx.
				for range encChunks {
				}
				<-encErrs
				o.finish(voice, format, text, sent, start, true, stream.err)
				return
			}
		}
		if encErr := <-encErrs; encErr != nil {
			if ctx.Err() != nil {
				stream.err = ctx.Err()
			} else {
				stream.err = &EncodingError{Err: encErr}
			}
		}
		o.finish(voice, format, text, sent, start, true, stream.err)
	}()

	return stream, nil
}

// finish records metrics and the usage log entry for one request.
func (o *Orchestrator) finish(voice Voice, format audio.Format, text string, audioBytes int, start time.Time, streamed bool, err error) {
	outcome := Outcome(err)
	if o.metrics != nil {
		label := string(format)
		if label == "" {
			label = "unknown"
		}
		o.metrics.SynthesisRequests.WithLabelValues(label, outcome).Inc()
		if err == nil {
			o.metrics.ObserveSynthesisLatency(time.Since(start))
		}
	}
	if o.usageStore == nil {
		return
	}
	record := usage.Record{
		Voice:      voice.ID,
		Format:     string(format),
		TextChars:  len([]rune(text)),
		AudioBytes: audioBytes,
		DurationMS: time.Since(start).Milliseconds(),
		Streamed:   streamed,
		Status:     outcome,
	}
	// Detached context: the usage log must survive client disconnects.
	saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = o.usageStore.Save(saveCtx, record)
}

// Outcome classifies an error for metrics and the usage log.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		var vErr *ValidationError
		var lErr *ModelLoadError
		var iErr *InferenceError
		var eErr *EncodingError
		switch {
		case errors.As(err, &vErr):
			return "validation"
		case errors.As(err, &lErr):
			return "model_load"
		case errors.As(err, &iErr):
			return "inference"
		case errors.As(err, &eErr):
			return "encoding"
		default:
			return "internal"
		}
	}
}
