// Package node implements the lanbeacon discovery node CLI entry point.
package node

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"lanbeacon/internal/announce"
	"lanbeacon/internal/beacon"
	"lanbeacon/internal/peerstore"
	"lanbeacon/internal/rpc"
	"lanbeacon/internal/sysinfo"
	"lanbeacon/pkg/config"
	"lanbeacon/pkg/logger"
)

// timestampMaxAge rejects replayed or badly-clocked announcements.
const timestampMaxAge = 60 * time.Second

// Run starts the discovery node (beacon + peer store + RPC + expiry).
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Node.LogLevel)

	secret, err := resolveSecret(cfg.Node.SharedSecret)
	if err != nil {
		return err
	}

	beaconInterval, err := cfg.Node.ParseBeaconInterval()
	if err != nil {
		return fmt.Errorf("parsing beacon interval: %w", err)
	}
	refreshInterval, err := cfg.Node.ParseRefreshInterval()
	if err != nil {
		return fmt.Errorf("parsing refresh interval: %w", err)
	}
	staleThreshold, err := cfg.Node.ParseStaleThreshold()
	if err != nil {
		return fmt.Errorf("parsing stale threshold: %w", err)
	}

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Node.DBPath)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	// Ensure RPC socket directory exists
	sockDir := filepath.Dir(cfg.Node.RPCSocket)
	if err := os.MkdirAll(sockDir, 0700); err != nil {
		return fmt.Errorf("creating socket directory %s: %w", sockDir, err)
	}

	db, err := peerstore.New(cfg.Node.DBPath, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	db.RunExpiry(5*time.Second, staleThreshold)

	// Start RPC server (for 'lanbeacon peers' to query this node)
	if err := rpc.StartServer(cfg.Node.RPCSocket, db, log); err != nil {
		return fmt.Errorf("starting RPC server: %w", err)
	}

	nodeID := uuid.NewString()
	info := sysinfo.Collect()

	b := beacon.New(log)
	if cfg.Node.MulticastGroup != "" {
		if err := b.SetAnnounceTarget(cfg.Node.MulticastGroup); err != nil {
			return fmt.Errorf("setting announce target: %w", err)
		}
	}
	if err := b.Start(cfg.Node.Port); err != nil {
		return fmt.Errorf("starting beacon: %w", err)
	}

	log.Info().
		Str("node_id", nodeID).
		Str("address", b.Hostname()).
		Int("port", cfg.Node.Port).
		Dur("interval", beaconInterval).
		Msg("Discovery node started")

	b.SetInterval(beaconInterval)
	b.Subscribe(announce.Filter())
	b.NoEcho()

	publish := func() error {
		frame, err := announce.Encode(&announce.Announcement{
			NodeID:    nodeID,
			Hostname:  info.Hostname,
			Port:      cfg.Node.AnnouncePort,
			OS:        info.OSName,
			Kernel:    info.Kernel,
			Arch:      info.Arch,
			Timestamp: time.Now().Unix(),
		}, secret)
		if err != nil {
			return err
		}
		b.Publish(frame)
		return nil
	}
	if err := publish(); err != nil {
		return fmt.Errorf("encoding announcement: %w", err)
	}

	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig, ok := <-b.Signals():
			if !ok {
				return fmt.Errorf("beacon agent terminated unexpectedly")
			}
			handleBeacon(sig, nodeID, secret, db, log)

		case <-refresh.C:
			// Republish so the announcement timestamp stays fresh.
			if err := publish(); err != nil {
				log.Error().Err(err).Msg("Failed to refresh announcement")
			}

		case s := <-sigCh:
			log.Info().Str("signal", s.String()).Msg("Shutting down")
			b.Stop()
			os.Remove(cfg.Node.RPCSocket)
			return nil
		}
	}
}

// handleBeacon validates one received beacon and records its sender.
func handleBeacon(sig beacon.Signal, selfID, secret string, db *peerstore.Store, log zerolog.Logger) {
	a, err := announce.Decode(sig.Transmit, secret)
	if err != nil {
		log.Warn().Err(err).Str("src", sig.Addr).Msg("Discarding invalid beacon")
		return
	}

	// Echo suppression only catches the currently transmitted frame; an
	// older refresh of our own announcement still carries our node ID.
	if a.NodeID == selfID {
		return
	}

	if a.Age(time.Now()) > timestampMaxAge {
		log.Warn().Str("src", sig.Addr).Msg("Stale timestamp in beacon")
		return
	}

	log.Debug().
		Str("hostname", a.Hostname).
		Str("src", sig.Addr).
		Msg("Beacon accepted")

	if err := db.Upsert(*a, sig.Addr); err != nil {
		log.Error().Err(err).Msg("Database write error")
	}
}

// resolveSecret returns the shared secret from config, falling back to an
// interactive prompt when possible.
func resolveSecret(configured string) (string, error) {
	if configured != "" && configured != "CHANGE_ME" {
		return configured, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("shared_secret must be set in config (not 'CHANGE_ME')")
	}

	fmt.Print("Shared secret: ")
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading shared secret: %w", err)
	}
	if len(secretBytes) == 0 {
		return "", fmt.Errorf("shared secret must not be empty")
	}
	return string(secretBytes), nil
}
