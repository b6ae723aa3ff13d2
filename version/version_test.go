package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func withVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	prevV, prevC, prevB, prevT := Version, GitCommit, GitBranch, BuildTime
	t.Cleanup(func() { Version, GitCommit, GitBranch, BuildTime = prevV, prevC, prevB, prevT })
	Version, GitCommit, GitBranch, BuildTime = version, commit, "", buildTime
}

func TestGetVersionInfo_LDFlags(t *testing.T) {
	withVars(t, "v1.2.0", "0123456789abcdef", "2026-03-01T10:00:00Z")

	info := GetVersionInfo()
	if info.Version != "v1.2.0" {
		t.Errorf("expected version v1.2.0, got %q", info.Version)
	}
	if info.GitCommit != "0123456" {
		t.Errorf("expected commit shortened to 0123456, got %q", info.GitCommit)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build date parsed, got %v", info.BuildDate)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("expected platform %s/%s, got %q", runtime.GOOS, runtime.GOARCH, info.Platform)
	}
}

func TestGetVersionInfo_DevIsNotRelease(t *testing.T) {
	withVars(t, "dev", "", "")
	if GetVersionInfo().IsRelease {
		t.Error("expected dev build not to be a release")
	}
}

func TestApplyBuildSettings(t *testing.T) {
	info := &Info{GitCommit: "pinned"}
	applyBuildSettings(info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abcdef0123"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if info.GitCommit != "pinned" {
		t.Errorf("expected ldflags commit to win, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("expected vcs time, got %q", info.BuildTime)
	}
	if !info.IsDirty {
		t.Error("expected dirty flag from vcs.modified")
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "v1.0.0", GitCommit: "abc1234"}, "v1.0.0-abc1234"},
		{Info{Version: "v1.0.0", GitCommit: "abc1234", IsDirty: true}, "v1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestString(t *testing.T) {
	withVars(t, "v0.3.0", "", "2026-05-06T07:08:09Z")
	s := GetVersionInfo().String()
	if !strings.HasPrefix(s, "v0.3.0") || !strings.Contains(s, "built 2026-05-06") {
		t.Errorf("unexpected version line %q", s)
	}
}
