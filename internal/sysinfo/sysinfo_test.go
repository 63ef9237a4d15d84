package sysinfo

import "testing"

func TestCollect(t *testing.T) {
	info := Collect()

	if info == nil {
		t.Fatal("Collect returned nil")
	}

	// Hostname should always be available
	if info.Hostname == "" {
		t.Error("Hostname is empty")
	}
	if info.Arch == "" {
		t.Error("Arch is empty")
	}

	t.Logf("Collected: host=%s os=%s kernel=%s arch=%s", info.Hostname, info.OSName, info.Kernel, info.Arch)
}

func TestReadOSReleasePrettyName(t *testing.T) {
	name := readOSReleasePrettyName()
	t.Logf("PRETTY_NAME: %q", name)
}
