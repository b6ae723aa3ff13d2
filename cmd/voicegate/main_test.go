package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/voicegate/server"
)

func TestDispatch_UnknownCommand(t *testing.T) {
	err := dispatch(context.Background(), []string{"bogus"})
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestDispatch_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"--help"}, {"record", "--help"}} {
		if err := dispatch(context.Background(), args); err != nil {
			t.Errorf("expected no error for %v, got %v", args, err)
		}
	}
}

func TestDispatch_TranscribeNeedsOneFile(t *testing.T) {
	err := dispatch(context.Background(), []string{"transcribe"})
	if err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Fatalf("expected argument error, got %v", err)
	}
}

func TestUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	usage(&buf)
	for _, c := range commands {
		if !strings.Contains(buf.String(), c.name) {
			t.Errorf("expected usage to list %q", c.name)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if got["a"] != 1 {
		t.Errorf("expected a=1, got %v", got)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()

	if cfg.Name != serviceName {
		t.Errorf("expected name %q, got %q", serviceName, cfg.Name)
	}
	if cfg.Transcription.Provider != "whisper" {
		t.Errorf("expected whisper provider, got %q", cfg.Transcription.Provider)
	}
	if cfg.Archive.Enabled {
		t.Error("expected archive disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestAppConfig_ValidateNamesSection(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	cfg.Archive.Provider = "ftp"

	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "archive:") {
		t.Fatalf("expected archive error, got %v", err)
	}
}

func TestLoadConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "voicegate.yml")
	yml := "server:\n  host: 0.0.0.0\ncapture:\n  silence_duration: 2s\n"
	if err := os.WriteFile(file, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	fs.Int("port", server.DefaultPort, "")
	if err := fs.Parse([]string{"--config", file, "--port", "0", "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &common, map[string]string{"port": "server.port"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host from file, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("expected flag port 0, got %d", cfg.Server.Port)
	}
	if cfg.Capture.SilenceDuration != 2*time.Second {
		t.Errorf("expected 2s silence, got %v", cfg.Capture.SilenceDuration)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_DefaultPort(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &common, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != server.DefaultPort {
		t.Errorf("expected port %d, got %d", server.DefaultPort, cfg.Server.Port)
	}
	if cfg.Name != serviceName {
		t.Errorf("expected name %q, got %q", serviceName, cfg.Name)
	}
}
