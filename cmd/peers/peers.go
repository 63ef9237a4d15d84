// Package peers implements the lanbeacon peers listing CLI.
package peers

import (
	"fmt"
	"strings"

	"lanbeacon/internal/peerstore"
	"lanbeacon/internal/rpc"
	"lanbeacon/pkg/config"
)

// Run lists the active peers known to a running node.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := rpc.NewClient(cfg.Peers.RPCSocket)
	if err != nil {
		return fmt.Errorf("connecting to node: %w\nIs 'lanbeacon node' running?", err)
	}
	defer client.Close()

	peers, err := client.ListActivePeers()
	if err != nil {
		return fmt.Errorf("fetching active peers: %w", err)
	}

	if len(peers) == 0 {
		fmt.Println("No active peers discovered. Make sure other nodes are running.")
		return nil
	}

	fmt.Printf("\n  Active Peers (%d found)\n\n", len(peers))
	displayPeerTable(peers)
	return nil
}

func displayPeerTable(peers []peerstore.PeerRecord) {
	fmt.Printf("  %-4s %-20s %-16s %-10s %-25s %-8s %-10s %-8s\n",
		"#", "Hostname", "Address", "Node", "OS", "Port", "Last Seen", "Beacons")
	fmt.Printf("  %s %s %s %s %s %s %s %s\n",
		strings.Repeat("─", 4),
		strings.Repeat("─", 20),
		strings.Repeat("─", 16),
		strings.Repeat("─", 10),
		strings.Repeat("─", 25),
		strings.Repeat("─", 8),
		strings.Repeat("─", 10),
		strings.Repeat("─", 8))

	for i, peer := range peers {
		hostname := truncate(peer.Announce.Hostname, 20)
		osName := truncate(peer.Announce.OS, 25)
		nodeID := truncate(peer.Announce.NodeID, 10)

		fmt.Printf("  %-4d %-20s %-16s %-10s %-25s %-8d %-10s %-8d\n",
			i+1,
			hostname,
			peer.Addr,
			nodeID,
			osName,
			peer.Announce.Port,
			peer.LastSeen.Format("15:04:05"),
			peer.BeaconCount,
		)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
