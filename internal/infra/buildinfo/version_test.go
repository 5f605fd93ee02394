package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	// Without ldflags or a VCS stamp these degrade to "unknown", never ""
	if info.Commit == "" {
		t.Error("Commit is empty, want a revision or \"unknown\"")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime is empty, want a timestamp or \"unknown\"")
	}
}

func TestGetPrefersLdflags(t *testing.T) {
	oldCommit, oldTime := Commit, BuildTime
	defer func() { Commit, BuildTime = oldCommit, oldTime }()

	Commit = "abc1234"
	BuildTime = "2026-08-01T00:00:00Z"

	info := Get()
	if info.Commit != "abc1234" {
		t.Errorf("Commit = %q, want the ldflags value", info.Commit)
	}
	if info.BuildTime != "2026-08-01T00:00:00Z" {
		t.Errorf("BuildTime = %q, want the ldflags value", info.BuildTime)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, Version) {
		t.Errorf("String() = %q, missing version", s)
	}
	if !strings.Contains(s, "built at") {
		t.Errorf("String() = %q, missing build time clause", s)
	}
}
