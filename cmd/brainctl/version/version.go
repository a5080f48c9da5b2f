package version

import (
	"fmt"
	"runtime"
	"time"
)

// Date format constants for consistent parsing.
const (
	RFC3339Format = time.RFC3339
	LegacyFormat  = "2006-01-02T15:04:05"
	DisplayFormat = "2006-01-02 15:04:05 UTC"
)

// Info contains all version-related information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Compiler  string `json:"compiler"`
}

// Build-time variables set via ldflags. BuildDate should be RFC3339.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildDate = "1970-01-01T00:00:00Z"
)

// GetInfo returns comprehensive version information.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Compiler:  runtime.Compiler,
	}
}

// GetVersionString returns a short formatted version string.
func GetVersionString() string {
	info := GetInfo()
	if info.Version == "dev" {
		commit := info.GitCommit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		return fmt.Sprintf("brainctl %s (commit: %s, built: %s)", info.Version, commit, info.BuildDate)
	}
	return fmt.Sprintf("brainctl %s", info.Version)
}

// GetDetailedVersionString returns a detailed multi-line version string.
func GetDetailedVersionString() string {
	info := GetInfo()

	var buildTime string
	if info.BuildDate == "1970-01-01T00:00:00Z" {
		buildTime = "unknown"
	} else if t, err := time.Parse(RFC3339Format, info.BuildDate); err == nil {
		buildTime = t.Format(DisplayFormat)
	} else if t, err := time.Parse(LegacyFormat, info.BuildDate); err == nil {
		buildTime = t.Format(DisplayFormat)
	} else {
		buildTime = info.BuildDate
	}

	return fmt.Sprintf(`brainctl version %s
Git commit: %s
Git branch: %s
Build date: %s
Go version: %s
Platform: %s
Compiler: %s`,
		info.Version, info.GitCommit, info.GitBranch, buildTime, info.GoVersion, info.Platform, info.Compiler,
	)
}
