package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// testProvider implements the Provider interface for testing.
type testProvider struct {
	name      string
	available bool
	closed    bool
	closeErr  error
}

func (p *testProvider) Name() string                        { return p.name }
func (p *testProvider) IsAvailable(ctx context.Context) bool { return p.available }
func (p *testProvider) Close(ctx context.Context) error {
	p.closed = true
	return p.closeErr
}

func staticFactory(p *testProvider) Factory[*testProvider] {
	return func(cfg map[string]any) (*testProvider, error) { return p, nil }
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("test", staticFactory(&testProvider{name: "test", available: true}))

	p, err := reg.Create("test", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("expected name 'test', got %q", p.Name())
	}
	if !reg.Has("test") || reg.Has("other") {
		t.Error("expected Has to reflect registrations")
	}
}

func TestRegistryCreateUnregistered(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	_, err := reg.Create("missing", nil)
	if err == nil {
		t.Fatal("expected error for unregistered factory")
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("expected 'not registered' in error, got %q", err.Error())
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("beta", staticFactory(&testProvider{name: "beta"}))
	reg.RegisterFactory("alpha", staticFactory(&testProvider{name: "alpha"}))

	names := reg.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", names)
	}
}

func TestPrioritySelector(t *testing.T) {
	providers := map[string]*testProvider{
		"whisper":       {name: "whisper", available: false},
		"fasterwhisper": {name: "fasterwhisper", available: true},
	}
	sel := &PrioritySelector[*testProvider]{Priority: []string{"missing", "whisper", "fasterwhisper"}}

	p, err := sel.Select(context.Background(), providers)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p.Name() != "fasterwhisper" {
		t.Errorf("expected 'fasterwhisper', got %q", p.Name())
	}
}

func TestPrioritySelectorNoneAvailable(t *testing.T) {
	providers := map[string]*testProvider{"a": {name: "a"}}
	sel := &PrioritySelector[*testProvider]{Priority: []string{"a"}}

	if _, err := sel.Select(context.Background(), providers); !errors.Is(err, ErrNoProvider) {
		t.Errorf("expected ErrNoProvider, got %v", err)
	}
}

func TestManagerInitializeAndGet(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("primary", staticFactory(&testProvider{name: "primary", available: true}))
	reg.RegisterFactory("fallback", staticFactory(&testProvider{name: "fallback", available: true}))

	mgr := NewManager(reg, &PrioritySelector[*testProvider]{Priority: []string{"primary", "fallback"}})
	for _, name := range []string{"fallback", "primary"} {
		if err := mgr.Initialize(name, nil); err != nil {
			t.Fatalf("Initialize %s failed: %v", name, err)
		}
	}

	p, err := mgr.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name() != "primary" {
		t.Errorf("expected 'primary', got %q", p.Name())
	}
	if got := mgr.Available(); len(got) != 2 || got[0] != "fallback" {
		t.Errorf("expected sorted [fallback primary], got %v", got)
	}
}

func TestManagerGetByName(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("x", staticFactory(&testProvider{name: "x"}))
	mgr := NewManager(reg, &PrioritySelector[*testProvider]{})
	_ = mgr.Initialize("x", nil)

	if p, err := mgr.GetByName("x"); err != nil || p.Name() != "x" {
		t.Errorf("expected provider x, got %v, %v", p, err)
	}
	if _, err := mgr.GetByName("y"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestManagerInitializeFailure(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("bad", func(cfg map[string]any) (*testProvider, error) {
		return nil, errors.New("bad config")
	})
	mgr := NewManager(reg, &PrioritySelector[*testProvider]{Priority: []string{"bad"}})

	err := mgr.Initialize("bad", nil)
	if err == nil || !strings.Contains(err.Error(), "bad config") {
		t.Errorf("expected factory error, got %v", err)
	}
	if len(mgr.Available()) != 0 {
		t.Error("failed provider must not be kept")
	}
}

func TestManagerClose(t *testing.T) {
	ok := &testProvider{name: "ok"}
	bad := &testProvider{name: "bad", closeErr: errors.New("stuck")}
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("ok", staticFactory(ok))
	reg.RegisterFactory("bad", staticFactory(bad))
	mgr := NewManager(reg, &PrioritySelector[*testProvider]{})
	_ = mgr.Initialize("ok", nil)
	_ = mgr.Initialize("bad", nil)

	err := mgr.Close(context.Background())
	if !ok.closed || !bad.closed {
		t.Error("expected every provider to be closed")
	}
	if err == nil || !strings.Contains(err.Error(), "stuck") {
		t.Errorf("expected joined close error, got %v", err)
	}
}

func TestDecodeConfig(t *testing.T) {
	var out struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
		Beam    int           `mapstructure:"beam_size"`
		Langs   []string      `mapstructure:"languages"`
	}
	err := DecodeConfig(map[string]any{
		"url":       "http://localhost:8387",
		"timeout":   "90s",
		"beam_size": "5",
		"languages": "en,de",
	}, &out)
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if out.Timeout != 90*time.Second {
		t.Errorf("expected 90s, got %v", out.Timeout)
	}
	if out.Beam != 5 {
		t.Errorf("expected beam 5, got %d", out.Beam)
	}
	if len(out.Langs) != 2 || out.Langs[1] != "de" {
		t.Errorf("expected [en de], got %v", out.Langs)
	}
}

func TestSliceIteratorAndDrain(t *testing.T) {
	it := FromSlice([]int{1, 2, 3})
	got, err := Drain[int](context.Background(), it)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if _, ok, _ := it.Next(context.Background()); ok {
		t.Error("expected exhausted iterator after Close")
	}
}

func TestFuncIteratorClosesOnce(t *testing.T) {
	closes := 0
	n := 0
	it := NewFuncIterator(func(ctx context.Context) (int, bool, error) {
		if n == 2 {
			return 0, false, errors.New("broken stream")
		}
		n++
		return n, true, nil
	}, func() error {
		closes++
		return nil
	})

	got, err := Drain[int](context.Background(), it)
	if err == nil || len(got) != 2 {
		t.Errorf("expected 2 values then error, got %v, %v", got, err)
	}
	_ = it.Close()
	if closes != 1 {
		t.Errorf("expected close called once, got %d", closes)
	}
}
