package rpc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lanbeacon/internal/announce"
	"lanbeacon/internal/peerstore"
)

func TestRPC_ListActivePeers(t *testing.T) {
	dir := t.TempDir()

	db, err := peerstore.New(filepath.Join(dir, "peers.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()

	a := announce.Announcement{
		NodeID:    "node-1",
		Hostname:  "host1",
		Port:      7000,
		Timestamp: time.Now().Unix(),
	}
	if err := db.Upsert(a, "192.168.1.10"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sock := filepath.Join(dir, "node.sock")
	if err := StartServer(sock, db, zerolog.Nop()); err != nil {
		t.Fatalf("starting server: %v", err)
	}

	client, err := NewClient(sock)
	if err != nil {
		t.Fatalf("connecting client: %v", err)
	}
	defer client.Close()

	peers, err := client.ListActivePeers()
	if err != nil {
		t.Fatalf("listing peers: %v", err)
	}

	if len(peers) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(peers))
	}
	if peers[0].Announce.NodeID != "node-1" {
		t.Errorf("NodeID: got %s, want node-1", peers[0].Announce.NodeID)
	}
	if peers[0].Addr != "192.168.1.10" {
		t.Errorf("Addr: got %s, want 192.168.1.10", peers[0].Addr)
	}
}
