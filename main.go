// lanbeacon — LAN peer discovery over UDP beacons
//
// Usage:
//
//	lanbeacon node   — announce this host and track discovered peers
//	lanbeacon peers  — list active peers known to the running node
//	lanbeacon edit   — edit the configuration file
package main

import (
	"fmt"
	"os"

	"lanbeacon/cmd/node"
	"lanbeacon/cmd/peers"
)

const (
	defaultSystemPath = "/etc/lanbeacon/config.toml"
	defaultLocalPath  = "config.toml"
	version           = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	// Parse --config flag if present
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			i--
			continue
		}
		if len(arg) > 9 && arg[:9] == "--config=" {
			configPath = arg[9:]
			args = append(args[:i], args[i+1:]...)
			i--
			continue
		}
	}

	// Auto-discover config if not specified
	if configPath == "" {
		if _, err := os.Stat(defaultLocalPath); err == nil {
			configPath = defaultLocalPath
		} else {
			configPath = defaultSystemPath
		}
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	var err error

	switch subcommand {
	case "node":
		err = node.Run(configPath)
	case "peers":
		err = peers.Run(configPath)
	case "edit":
		err = node.EditConfig(configPath)
	case "version":
		fmt.Printf("lanbeacon v%s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`lanbeacon v%s — LAN peer discovery over UDP beacons

Usage:
  lanbeacon <command> [--config <path>]

Commands:
  node     Start the discovery node (announces & listens)
  peers    List active peers known to the running node
  edit     Edit the configuration file in your system editor
  version  Print version information
  help     Show this help message

Options:
  --config <path>  Path to config file (default: looks for ./config.toml, then %s)

Examples:
  lanbeacon node                        # Start a node with default config
  lanbeacon edit                        # Edit configuration
  lanbeacon peers                       # Show discovered peers

`, version, defaultSystemPath)
}
