// Package version reports how the facet binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	BuildUser string    `json:"build_user,omitempty"`
}

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC 3339.
	BuildTime = "unknown"
	BuildUser = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// setting looks up a VCS setting recorded by the go toolchain.
func setting(key string) (string, bool) {
	info, ok := readBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

// GetBuildInfo returns everything known about the build.
func GetBuildInfo() *BuildInfo {
	user := BuildUser
	if user == "unknown" {
		user = ""
	}
	return &BuildInfo{
		Version:   GetVersion(),
		GitCommit: GetGitCommit(),
		BuildTime: GetBuildTime(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildUser: user,
	}
}

// GetVersion prefers the linked version, then the module version, then a
// dev version derived from the VCS revision.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	if rev, ok := setting("vcs.revision"); ok && len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

// GetGitCommit returns the full commit hash, or "unknown".
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev, ok := setting("vcs.revision"); ok && rev != "" {
		return rev
	}
	return "unknown"
}

// GetBuildTime returns the linked build time, falling back to the VCS
// commit time. The zero time means unknown.
func GetBuildTime() time.Time {
	if t := parseISOTime(BuildTime); !t.IsZero() {
		return t
	}
	if v, ok := setting("vcs.time"); ok {
		return parseISOTime(v)
	}
	return time.Time{}
}

// GetShortVersion is the version with an abbreviated commit.
func GetShortVersion() string {
	v := GetVersion()
	commit := GetGitCommit()
	if commit == "unknown" || len(commit) < 7 {
		return v
	}
	if v == "dev" || strings.HasPrefix(v, "dev-") {
		return "dev-" + commit[:7]
	}
	return fmt.Sprintf("%s (%s)", v, commit[:7])
}

// GetDetailedVersion renders one "Field: value" line per known field.
func GetDetailedVersion() string {
	info := GetBuildInfo()

	lines := []string{"Version: " + info.Version}
	if info.GitCommit != "unknown" {
		lines = append(lines, "Commit: "+info.GitCommit)
	}
	if !info.BuildTime.IsZero() {
		lines = append(lines, "Built: "+info.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+info.GoVersion, "Platform: "+info.Platform)
	if info.BuildUser != "" {
		lines = append(lines, "User: "+info.BuildUser)
	}
	return strings.Join(lines, "\n")
}

// IsRelease reports whether this is a tagged build.
func IsRelease() bool {
	v := GetVersion()
	return v != "dev" && !strings.HasPrefix(v, "dev-")
}

// IsDirty reports whether the working tree had uncommitted changes.
func IsDirty() bool {
	v, _ := setting("vcs.modified")
	return v == "true"
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
}

// parseISOTime returns the zero time for anything it cannot parse.
func parseISOTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
