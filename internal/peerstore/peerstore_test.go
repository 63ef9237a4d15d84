package peerstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lanbeacon/internal/announce"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath, testLogger())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s, func() {
		s.Close()
		os.Remove(dbPath)
	}
}

func sampleAnnouncement(nodeID, hostname string) announce.Announcement {
	return announce.Announcement{
		NodeID:    nodeID,
		Hostname:  hostname,
		Port:      7000,
		OS:        "Ubuntu 22.04",
		Kernel:    "5.15.0",
		Arch:      "amd64",
		Timestamp: time.Now().Unix(),
	}
}

func TestStore_UpsertAndGetAll(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	a := sampleAnnouncement("node-1", "host1")

	if err := s.Upsert(a, "192.168.1.10"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	records, err := s.GetAll()
	if err != nil {
		t.Fatalf("getall failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Announce.NodeID != "node-1" {
		t.Errorf("NodeID: got %s, want node-1", r.Announce.NodeID)
	}
	if r.Announce.Hostname != "host1" {
		t.Errorf("Hostname: got %s, want host1", r.Announce.Hostname)
	}
	if r.Addr != "192.168.1.10" {
		t.Errorf("Addr: got %s, want 192.168.1.10", r.Addr)
	}
	if r.BeaconCount != 1 {
		t.Errorf("BeaconCount: got %d, want 1", r.BeaconCount)
	}
	if !r.Active {
		t.Error("expected peer to be active")
	}
}

func TestStore_UpsertIncrementsBeaconCount(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	a := sampleAnnouncement("node-1", "host1")

	for i := 0; i < 5; i++ {
		if err := s.Upsert(a, "192.168.1.10"); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	records, err := s.GetAll()
	if err != nil {
		t.Fatalf("getall failed: %v", err)
	}

	if records[0].BeaconCount != 5 {
		t.Errorf("BeaconCount: got %d, want 5", records[0].BeaconCount)
	}
}

func TestStore_MultiplePeers(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	s.Upsert(sampleAnnouncement("node-1", "host1"), "192.168.1.1")
	s.Upsert(sampleAnnouncement("node-2", "host2"), "192.168.1.2")
	s.Upsert(sampleAnnouncement("node-3", "host3"), "192.168.1.3")

	records, err := s.GetAll()
	if err != nil {
		t.Fatalf("getall failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestStore_GetActive(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	s.Upsert(sampleAnnouncement("node-1", "host1"), "192.168.1.1")
	s.Upsert(sampleAnnouncement("node-2", "host2"), "192.168.1.2")

	active, err := s.GetActive()
	if err != nil {
		t.Fatalf("getactive failed: %v", err)
	}

	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}
}

func TestStore_Expiry(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	s.Upsert(sampleAnnouncement("node-1", "host1"), "192.168.1.10")

	// Force expiry with a threshold of 0 (expires everything)
	s.expireStalePeers(0)

	records, err := s.GetAll()
	if err != nil {
		t.Fatalf("getall failed: %v", err)
	}

	if records[0].Active {
		t.Error("expected peer to be inactive after expiry")
	}
}

func TestStore_ExpiredPeerReactivates(t *testing.T) {
	s, cleanup := testStore(t)
	defer cleanup()

	s.Upsert(sampleAnnouncement("node-1", "host1"), "192.168.1.10")
	s.expireStalePeers(0)

	// A fresh beacon brings the peer back.
	if err := s.Upsert(sampleAnnouncement("node-1", "host1"), "192.168.1.10"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	active, err := s.GetActive()
	if err != nil {
		t.Fatalf("getactive failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected peer to be active again, got %d active", len(active))
	}
}
