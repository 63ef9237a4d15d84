// Package config provides TOML configuration loading for lanbeacon.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration structure.
type Config struct {
	Node  NodeConfig  `toml:"node"`
	Peers PeersConfig `toml:"peers"`
}

// NodeConfig holds settings for the discovery node.
type NodeConfig struct {
	Port            int    `toml:"port"`
	MulticastGroup  string `toml:"multicast_group"`
	AnnouncePort    int    `toml:"announce_port"`
	BeaconInterval  string `toml:"beacon_interval"`
	RefreshInterval string `toml:"refresh_interval"`
	SharedSecret    string `toml:"shared_secret"`
	DBPath          string `toml:"db_path"`
	RPCSocket       string `toml:"rpc_socket"`
	StaleThreshold  string `toml:"stale_threshold"`
	LogLevel        string `toml:"log_level"`
}

// PeersConfig holds settings for the peers listing CLI.
type PeersConfig struct {
	RPCSocket string `toml:"rpc_socket"`
}

// ParseBeaconInterval parses the beacon transmit interval string to a time.Duration.
func (n *NodeConfig) ParseBeaconInterval() (time.Duration, error) {
	if n.BeaconInterval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(n.BeaconInterval)
}

// ParseRefreshInterval parses the announcement refresh interval string to a time.Duration.
func (n *NodeConfig) ParseRefreshInterval() (time.Duration, error) {
	if n.RefreshInterval == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(n.RefreshInterval)
}

// ParseStaleThreshold parses the peer stale threshold string to a time.Duration.
func (n *NodeConfig) ParseStaleThreshold() (time.Duration, error) {
	if n.StaleThreshold == "" {
		return 90 * time.Second, nil
	}
	return time.ParseDuration(n.StaleThreshold)
}

// Load reads and parses a TOML config file, applying defaults for unset values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	cfg.expandPaths()
	return cfg, nil
}

func (cfg *Config) expandPaths() {
	cfg.Node.DBPath = ExpandPath(cfg.Node.DBPath)
}

// ExpandPath expands tilde (~) to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

func applyDefaults(cfg *Config) {

	// Node defaults
	if cfg.Node.Port == 0 {
		cfg.Node.Port = 5670
	}
	if cfg.Node.BeaconInterval == "" {
		cfg.Node.BeaconInterval = "1s"
	}
	if cfg.Node.RefreshInterval == "" {
		cfg.Node.RefreshInterval = "30s"
	}
	if cfg.Node.DBPath == "" {
		cfg.Node.DBPath = "/var/lib/lanbeacon/peers.db"
	}
	if cfg.Node.RPCSocket == "" {
		cfg.Node.RPCSocket = "/run/lanbeacon/node.sock"
	}
	if cfg.Node.StaleThreshold == "" {
		cfg.Node.StaleThreshold = "90s"
	}
	if cfg.Node.LogLevel == "" {
		cfg.Node.LogLevel = "info"
	}

	// Peers defaults
	if cfg.Peers.RPCSocket == "" {
		cfg.Peers.RPCSocket = "/run/lanbeacon/node.sock"
	}
}
