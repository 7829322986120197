package buildinfo

import (
	"runtime"
	"runtime/debug"
	"testing"
)

func TestBinaryVersion(t *testing.T) {
	if BinaryVersion != "dev" {
		t.Errorf("Expected BinaryVersion to be 'dev', got '%s'", BinaryVersion)
	}
}

func TestModuleVersionIntegration(t *testing.T) {
	expected := ""
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		expected = info.Main.Version
	}

	actual := ModuleVersion()

	if expected != actual {
		t.Errorf("ModuleVersion() = '%s', expected '%s'", actual, expected)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != BinaryVersion {
		t.Errorf("Version = %q, expected %q", info.Version, BinaryVersion)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, expected %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("unexpected platform %s/%s", info.Platform, info.Arch)
	}
}

func TestGetPrefersLinkedCommit(t *testing.T) {
	old := Commit
	Commit = "abc1234"
	defer func() { Commit = old }()

	if got := Get().Commit; got != "abc1234" {
		t.Errorf("Commit = %q, expected abc1234", got)
	}
}
