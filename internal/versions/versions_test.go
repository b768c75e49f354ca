package versions

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		version  string
		expected string
	}{
		{name: "plain semver gets prefix", version: "1.2.3", expected: "v1.2.3"},
		{name: "prefixed semver kept", version: "v1.2.3", expected: "v1.2.3"},
		{name: "prerelease kept", version: "1.0.0-beta.1", expected: "v1.0.0-beta.1"},
		{name: "short version padded", version: "v2", expected: "v2.0.0"},
		{name: "dev build unchanged", version: "dev", expected: "dev"},
		{name: "empty unchanged", version: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeVersion(tt.version))
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()

	info := GetVersionInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.True(t, strings.Contains(info.Platform, runtime.GOOS))
	assert.NotEmpty(t, info.Version)
}
