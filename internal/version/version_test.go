package version

import (
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	})
	Version, Commit, BuildDate = v, commit, date
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{name: "unknown commit", commit: "unknown", want: "1.0.0"},
		{name: "short commit is ignored", commit: "abc", want: "1.0.0"},
		{name: "seven chars is ignored", commit: "1234567", want: "1.0.0"},
		{name: "long commit is abbreviated", commit: "abc1234567890", want: "1.0.0 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, "1.0.0", tt.commit, "unknown")
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	withBuildInfo(t, "1.2.3", "abcdef123456", "2026-01-15")

	got := Full()
	for _, part := range []string{"goatk version 1.2.3", "Commit: abcdef123456", "Built: 2026-01-15"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
