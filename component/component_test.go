package component

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(ctx context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "start:"+f.name)
	}
	return f.startErr
}
func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.events != nil {
		*f.events = append(*f.events, "stop:"+f.name)
	}
	return f.stopErr
}
func (f *fakeComponent) Health(ctx context.Context) Health { return f.health }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeComponent{name: "server"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&fakeComponent{name: "server"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("server") == nil || r.Get("missing") != nil {
		t.Error("expected Get to find only registered components")
	}
}

func TestStartAndStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry()
	for _, name := range []string{"storage", "transcription", "server"} {
		_ = r.Register(&fakeComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{
		"start:storage", "start:transcription", "start:server",
		"stop:server", "stop:transcription", "stop:storage",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestStartFailureStopsOnlyStarted(t *testing.T) {
	var events []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "storage", events: &events})
	_ = r.Register(&fakeComponent{name: "server", events: &events, startErr: errors.New("port in use")})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	events = nil
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 1 || events[0] != "stop:storage" {
		t.Errorf("expected only storage stopped, got %v", events)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", stopErr: errors.New("a failed")})
	_ = r.Register(&fakeComponent{name: "b", stopErr: errors.New("b failed")})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected error from StopAll")
	}
	for _, msg := range []string{"a failed", "b failed"} {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("expected %q in %q", msg, err.Error())
		}
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "server", health: Health{Name: "server", Status: StatusHealthy}})
	_ = r.Register(&fakeComponent{name: "transcription", health: Health{Name: "transcription", Status: StatusDegraded}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", results[1].Status)
	}
}

func TestLazyRetriesAfterFailure(t *testing.T) {
	calls := 0
	l := NewLazy("model", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("weights missing")
		}
		return nil
	})

	if err := l.Initialize(context.Background()); err == nil {
		t.Fatal("expected first initialization to fail")
	}
	if l.IsInitialized() || l.LastError() == nil {
		t.Error("expected failure to be recorded and not cached as success")
	}
	if err := l.Initialize(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	_ = l.Initialize(context.Background())
	if calls != 2 {
		t.Errorf("expected 2 initializer calls, got %d", calls)
	}
}

func TestLazyConcurrentInitializeRunsOnce(t *testing.T) {
	var calls atomic.Int32
	l := NewLazy("model", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Initialize(context.Background())
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("expected 1 initializer call, got %d", calls.Load())
	}
}

func TestLazyClose(t *testing.T) {
	closed := false
	l := NewLazy("model", func(ctx context.Context) error { return nil }).
		WithCloser(func() error { closed = true; return nil })

	_ = l.Close()
	if closed {
		t.Error("expected closer not to run before initialization")
	}
	_ = l.Initialize(context.Background())
	if err := l.Close(); err != nil || !closed {
		t.Errorf("expected closer to run, got %v", err)
	}
	if l.IsInitialized() {
		t.Error("expected guard reset after Close")
	}
}

func TestLazyStateReadableDuringInit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	l := NewLazy("model", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})

	go func() { _ = l.Initialize(context.Background()) }()
	<-started

	done := make(chan struct{})
	go func() {
		_ = l.IsInitialized()
		_ = l.LastError()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected state queries not to wait for a running init")
	}
	if l.IsInitialized() {
		t.Error("expected not initialized while init runs")
	}

	close(release)
	if err := l.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.IsInitialized() {
		t.Error("expected initialized after init returned")
	}
}
