package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDetailedVersionStringParsesKnownDateFormats(t *testing.T) {
	tests := []struct {
		name       string
		buildDate  string
		expectTime string
	}{
		{"RFC3339 format", "2024-01-15T10:30:45Z", "2024-01-15 10:30:45 UTC"},
		{"legacy format without timezone", "2024-01-15T10:30:45", "2024-01-15 10:30:45 UTC"},
		{"default unknown date", "1970-01-01T00:00:00Z", "unknown"},
		{"unparseable date falls back to raw value", "invalid-date", "invalid-date"},
	}

	originalBuildDate := BuildDate
	defer func() { BuildDate = originalBuildDate }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BuildDate = tt.buildDate
			result := GetDetailedVersionString()
			assert.Contains(t, result, tt.expectTime)
			for _, field := range []string{"brainctl version", "Git commit:", "Git branch:", "Build date:", "Go version:", "Platform:", "Compiler:"} {
				assert.Contains(t, result, field)
			}
		})
	}
}

func TestGetInfoIsConsistentAcrossCalls(t *testing.T) {
	info1 := GetInfo()
	info2 := GetInfo()
	assert.Equal(t, info1, info2)
}

func TestBuildDateFormatsParseAsRFC3339(t *testing.T) {
	for _, dateStr := range []string{"2024-01-15T10:30:45Z", "1970-01-01T00:00:00Z"} {
		_, err := time.Parse(time.RFC3339, dateStr)
		assert.NoError(t, err)
	}
}

func TestGetVersionStringDevBuildIncludesCommitAndDate(t *testing.T) {
	originalVersion, originalCommit, originalDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = originalVersion, originalCommit, originalDate }()

	Version = "dev"
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:45Z"

	assert.Equal(t, "brainctl dev (commit: abc123de, built: 2024-01-15T10:30:45Z)", GetVersionString())
}

func TestGetVersionStringReleaseBuildOmitsCommit(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	Version = "v1.0.0"
	assert.Equal(t, "brainctl v1.0.0", GetVersionString())
}
