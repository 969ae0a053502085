// Package version holds build information for goatk.
package version

// Overridden at build time:
// go build -ldflags "-X goatk/internal/version.Version=1.0.0 -X goatk/internal/version.Commit=abc123"
var (
	// Version is the semantic version of goatk
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a short version string, with the abbreviated commit when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns version, commit and build date on separate lines.
func Full() string {
	return "goatk version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
