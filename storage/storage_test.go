package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/voicegate/component"
)

// mockStorage implements Storage for testing.
type mockStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	failOn string // method name to fail on
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) Upload(_ context.Context, path string, reader io.Reader) error {
	if m.failOn == "upload" {
		return fmt.Errorf("mock upload error")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[path] = data
	m.mu.Unlock()
	return nil
}

func (m *mockStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.data, path)
	m.mu.Unlock()
	return nil
}

func (m *mockStorage) Exists(_ context.Context, path string) (bool, error) {
	if m.failOn == "exists" {
		return false, fmt.Errorf("mock exists error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[path]
	return ok, nil
}

func (m *mockStorage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (m *mockStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var files []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			files = append(files, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// registerLocal installs m as the local backend for the duration of a test.
func registerLocal(t *testing.T, m *mockStorage) {
	t.Helper()
	RegisterFactory(ProviderLocal, func(map[string]any) (Storage, error) { return m, nil })
	t.Cleanup(func() {
		factoriesMu.Lock()
		delete(factories, ProviderLocal)
		factoriesMu.Unlock()
	})
}

func TestNew_UnregisteredProvider(t *testing.T) {
	_, err := New(Config{Provider: ProviderS3})
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}

func TestNew_InvalidProvider(t *testing.T) {
	_, err := New(Config{Provider: "ftp"})
	if err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestNew_PassesProviderOptions(t *testing.T) {
	var got map[string]any
	registerLocal(t, nil)
	RegisterFactory(ProviderLocal, func(opts map[string]any) (Storage, error) {
		got = opts
		return newMockStorage(), nil
	})

	_, err := New(Config{Local: map[string]any{"base_path": "/data"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["base_path"] != "/data" {
		t.Errorf("expected base_path option, got %v", got)
	}
	found := false
	for _, p := range Providers() {
		if p == ProviderLocal {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q in Providers(), got %v", ProviderLocal, Providers())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newMockStorage()

	type doc struct {
		Text string `json:"text"`
	}
	if err := PutJSON(ctx, m, "a/doc.json", doc{Text: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(string(m.data["a/doc.json"]), "\n") {
		t.Error("expected trailing newline")
	}

	var out doc
	if err := GetJSON(ctx, m, "a/doc.json", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "hello" {
		t.Errorf("expected 'hello', got %q", out.Text)
	}
}

func TestGetBytes_NotFound(t *testing.T) {
	_, err := GetBytes(context.Background(), newMockStorage(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComponent_Disabled(t *testing.T) {
	c := NewComponent(Config{Enabled: false})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Storage() != nil {
		t.Error("expected no storage when disabled")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("expected healthy/disabled, got %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("expected disabled details, got %q", d.Details)
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	m := newMockStorage()
	registerLocal(t, m)
	c := NewComponent(Config{Enabled: true})

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsAvailable(context.Background()) {
		t.Error("expected available after start")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}

	m.failOn = "exists"
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy when probe fails, got %+v", h)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsAvailable(context.Background()) {
		t.Error("expected unavailable after stop")
	}
}

func TestComponent_StartFailure(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Provider: ProviderS3})
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected start error without a registered backend")
	}
}

func TestConfig_Describe(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Provider: ProviderS3, S3: map[string]any{"bucket": "recs"}})
	d := c.Describe()
	if !strings.Contains(d.Details, "provider=s3") || !strings.Contains(d.Details, "bucket=recs") {
		t.Errorf("unexpected details %q", d.Details)
	}
}
