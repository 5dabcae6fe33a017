package version

import (
	"runtime/debug"
	"testing"
)

func withBuild(t *testing.T, version, commit string, settings ...debug.BuildSetting) {
	t.Helper()
	origVersion, origCommit, origBuildTime, origRead := Version, GitCommit, BuildTime, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, readBuildInfo = origVersion, origCommit, origBuildTime, origRead
	})
	Version, GitCommit, BuildTime = version, commit, ""
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{GoVersion: "go1.26.0", Settings: settings}, true
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		settings []debug.BuildSetting
		want     string
	}{
		{"dev without vcs", "dev", "", nil, "dev"},
		{"ldflags commit", "1.0.0", "abc1234", nil, "1.0.0-abc1234"},
		{"vcs fallback truncated", "1.0.0", "", []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}, "1.0.0-0123456"},
		{"dirty tree", "1.0.0", "abc1234", []debug.BuildSetting{{Key: "vcs.modified", Value: "true"}}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.version, tt.commit, tt.settings...)
			info := Get()
			if got := info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if info.GoVersion != "go1.26.0" {
				t.Errorf("GoVersion = %q", info.GoVersion)
			}
		})
	}
}

func TestGetBuildTimeFromVCS(t *testing.T) {
	withBuild(t, "1.0.0", "", debug.BuildSetting{Key: "vcs.time", Value: "2026-01-15T10:30:00Z"})
	if got := Get().BuildTime; got != "2026-01-15T10:30:00Z" {
		t.Errorf("BuildTime = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	withBuild(t, "2.1.0", "")
	if got := UserAgent("transcribot"); got != "transcribot/2.1.0" {
		t.Errorf("UserAgent = %q", got)
	}
}
