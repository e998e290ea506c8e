package tts

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LoaderState names the lifecycle phase of the shared engine.
type LoaderState string

const (
	LoaderIdle    LoaderState = "idle"
	LoaderLoading LoaderState = "loading"
	LoaderReady   LoaderState = "ready"
	LoaderFailed  LoaderState = "failed"
	LoaderClosed  LoaderState = "closed"
)

// Loader guards at-most-once lazy construction of the shared engine.
// The first caller of Engine triggers construction; concurrent callers
// block on the in-flight attempt and observe the same handle. A failed
// attempt is not permanent: the next call re-attempts construction.
type Loader struct {
	build   func(ctx context.Context) (Engine, error)
	timeout time.Duration

	// OnLoad, when set, observes the outcome of every construction
	// attempt. Called outside the loader lock.
	OnLoad func(err error)

	mu      sync.Mutex
	state   LoaderState
	engine  Engine
	lastErr error
	done    chan struct{}
}

// NewLoader wraps an engine constructor. timeout bounds each
// construction attempt; zero means no bound.
func NewLoader(build func(ctx context.Context) (Engine, error), timeout time.Duration) *Loader {
	return &Loader{build: build, timeout: timeout, state: LoaderIdle}
}

// Engine returns the shared engine, constructing it on first use.
// Callers waiting on an in-flight attempt unblock together when the
// attempt settles; failures surface as *ModelLoadError.
func (l *Loader) Engine(ctx context.Context) (Engine, error) {
	waited := false
	for {
		l.mu.Lock()
		switch l.state {
		case LoaderReady:
			engine := l.engine
			l.mu.Unlock()
			return engine, nil

		case LoaderClosed:
			l.mu.Unlock()
			return nil, &ModelLoadError{Err: fmt.Errorf("loader is closed")}

		case LoaderFailed:
			if waited {
				// This caller already sat through an attempt; report its
				// failure rather than spinning up another load.
				err := l.lastErr
				l.mu.Unlock()
				return nil, &ModelLoadError{Err: err}
			}
			l.startLoadLocked()

		case LoaderIdle:
			l.startLoadLocked()

		case LoaderLoading:
			// fall through to wait
		}

		done := l.done
		l.mu.Unlock()

		select {
		case <-done:
			waited = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// startLoadLocked transitions to loading and kicks off a detached
// construction attempt. Callers must hold l.mu.
func (l *Loader) startLoadLocked() {
	l.state = LoaderLoading
	l.lastErr = nil
	l.done = make(chan struct{})
	go l.runLoad(l.done)
}

func (l *Loader) runLoad(done chan struct{}) {
	// Construction runs under its own context so a disconnecting first
	// caller cannot strand everyone else waiting on the attempt.
	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	engine, err := l.build(ctx)

	l.mu.Lock()
	if l.state == LoaderClosed {
		l.mu.Unlock()
		if engine != nil {
			_ = engine.Close()
		}
		close(done)
		return
	}
	if err != nil {
		l.state = LoaderFailed
		l.lastErr = err
	} else {
		l.state = LoaderReady
		l.engine = engine
	}
	l.mu.Unlock()
	close(done)

	if l.OnLoad != nil {
		l.OnLoad(err)
	}
}

// Warmup eagerly constructs the engine. Best-effort: callers log the
// returned error instead of treating it as fatal, and the loader falls
// back to lazy loading on the first real request.
func (l *Loader) Warmup(ctx context.Context) error {
	_, err := l.Engine(ctx)
	return err
}

// State reports the current lifecycle phase and, in the failed state,
// the last construction error.
func (l *Loader) State() (LoaderState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.lastErr
}

// Close tears down the engine and rejects subsequent calls.
func (l *Loader) Close() error {
	l.mu.Lock()
	engine := l.engine
	l.engine = nil
	l.state = LoaderClosed
	l.mu.Unlock()

	if engine != nil {
		return engine.Close()
	}
	return nil
}
