package version

import (
	"strings"
	"testing"
)

func saveAndRestore(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = v, c, b
	})
}

func TestGetUsesLinkedValues(t *testing.T) {
	saveAndRestore(t)
	Version = "1.4.0"
	GitCommit = "abcdef1234567"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected version 1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "abcdef1" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	s := Info{Version: "1.0.0", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0"}.String()
	if s != "1.0.0 (built 2026-01-02T03:04:05Z) go1.26.0" {
		t.Errorf("unexpected string %q", s)
	}
}

func TestUserAgent(t *testing.T) {
	saveAndRestore(t)
	Version = "2.0.0"
	if ua := UserAgent("authclient"); !strings.HasPrefix(ua, "authclient/2.0.0") {
		t.Errorf("unexpected user agent %q", ua)
	}
}
