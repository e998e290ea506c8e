package tts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoaderConcurrentFirstUseBuildsOnce(t *testing.T) {
	var builds atomic.Int64
	release := make(chan struct{})
	l := NewLoader(func(context.Context) (Engine, error) {
		builds.Add(1)
		<-release
		return NewMockEngine(), nil
	}, 0)

	const callers = 16
	engines := make([]Engine, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engines[i], errs[i] = l.Engine(context.Background())
		}(i)
	}

	// Give every caller time to pile up on the in-flight attempt.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Fatalf("construction ran %d times, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if engines[i] != engines[0] {
			t.Fatalf("caller %d observed a different engine handle", i)
		}
	}
}

func TestLoaderFailureSurfacesToAllWaitersAndRetries(t *testing.T) {
	var builds atomic.Int64
	boom := errors.New("weights missing")
	release := make(chan struct{})
	l := NewLoader(func(context.Context) (Engine, error) {
		if builds.Add(1) == 1 {
			<-release
			return nil, boom
		}
		return NewMockEngine(), nil
	}, 0)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Engine(context.Background())
		}(i)
	}

	// Hold the attempt open until every caller is blocked on it, so all
	// of them observe this failure rather than racing into a retry.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		var lErr *ModelLoadError
		if !errors.As(err, &lErr) {
			t.Fatalf("caller %d error type = %T, want *ModelLoadError", i, err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("caller %d error = %v, want wrapped %v", i, err, boom)
		}
	}

	// Failure is not permanent: the next call re-attempts and succeeds.
	engine, err := l.Engine(context.Background())
	if err != nil {
		t.Fatalf("retry Engine() error = %v", err)
	}
	if engine == nil {
		t.Fatalf("retry Engine() returned nil handle")
	}
	if state, _ := l.State(); state != LoaderReady {
		t.Fatalf("state = %q, want %q", state, LoaderReady)
	}
}

func TestLoaderWaiterHonorsContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	l := NewLoader(func(context.Context) (Engine, error) {
		close(started)
		<-release
		return NewMockEngine(), nil
	}, 0)

	go func() { _, _ = l.Engine(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Engine(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context deadline", err)
	}
}

func TestLoaderWarmupFailureLeavesLoaderUsable(t *testing.T) {
	var builds atomic.Int64
	l := NewLoader(func(context.Context) (Engine, error) {
		if builds.Add(1) == 1 {
			return nil, errors.New("gpu busy")
		}
		return NewMockEngine(), nil
	}, 0)

	if err := l.Warmup(context.Background()); err == nil {
		t.Fatalf("Warmup() should report the first failure")
	}
	if state, lastErr := l.State(); state != LoaderFailed || lastErr == nil {
		t.Fatalf("state = %q lastErr = %v, want failed with error", state, lastErr)
	}

	if _, err := l.Engine(context.Background()); err != nil {
		t.Fatalf("Engine() after failed warmup error = %v", err)
	}
}

func TestLoaderCloseRejectsLaterCalls(t *testing.T) {
	l := NewLoader(func(context.Context) (Engine, error) {
		return NewMockEngine(), nil
	}, 0)
	if _, err := l.Engine(context.Background()); err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := l.Engine(context.Background()); err == nil {
		t.Fatalf("Engine() after Close should fail")
	}
	if state, _ := l.State(); state != LoaderClosed {
		t.Fatalf("state = %q, want %q", state, LoaderClosed)
	}
}

func TestLoaderLoadTimeoutFailsAttempt(t *testing.T) {
	l := NewLoader(func(ctx context.Context) (Engine, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return NewMockEngine(), nil
		}
	}, 30*time.Millisecond)

	_, err := l.Engine(context.Background())
	var lErr *ModelLoadError
	if !errors.As(err, &lErr) {
		t.Fatalf("error = %v, want *ModelLoadError", err)
	}
}
