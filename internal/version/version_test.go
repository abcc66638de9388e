package version

import (
	"strings"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" || GitCommit == "" {
		t.Error("build metadata should be initialized")
	}
}

func TestStringIncludesMetadata(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "sitepub "+Version) {
		t.Fatalf("unexpected version line %q", s)
	}
	if !strings.Contains(s, GitCommit) || !strings.Contains(s, BuildTime) {
		t.Fatalf("version line %q lacks build metadata", s)
	}
}
