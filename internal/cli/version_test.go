package cli

import (
	"runtime/debug"
	"testing"

	"github.com/aidanlsb/moodb/internal/buildinfo"
)

func TestCurrentVersionInfoFromBuildInfo(t *testing.T) {
	prevRead := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prevRead })

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.23.4",
			Main:      debug.Module{Path: "github.com/aidanlsb/moodb", Version: "v1.2.3"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-02-14T17:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}

	info := currentVersionInfo()
	if info.Version != "v1.2.3" {
		t.Fatalf("Version = %q, want v1.2.3", info.Version)
	}
	if info.Commit != "abc123" || info.BuiltAt != "2026-02-14T17:00:00Z" || !info.Modified {
		t.Fatalf("unexpected vcs info: %+v", info)
	}
	if info.GoVersion != "go1.23.4" {
		t.Fatalf("GoVersion = %q, want go1.23.4", info.GoVersion)
	}
}

func TestCurrentVersionInfoFallsBackToLdflags(t *testing.T) {
	prevRead := readBuildInfo
	prevVersion, prevCommit := buildinfo.Version, buildinfo.Commit
	t.Cleanup(func() {
		readBuildInfo = prevRead
		buildinfo.Version, buildinfo.Commit = prevVersion, prevCommit
	})

	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }
	buildinfo.Version = "v0.9.0"
	buildinfo.Commit = "def456"

	info := currentVersionInfo()
	if info.Version != "v0.9.0" || info.Commit != "def456" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
