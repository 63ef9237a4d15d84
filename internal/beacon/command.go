package beacon

import "time"

type cmdKind int

const (
	cmdInterval cmdKind = iota
	cmdNoEcho
	cmdPublish
	cmdSilence
	cmdSubscribe
	cmdUnsubscribe
	cmdTerminate
)

// command is one control message from the Beacon handle to its agent.
type command struct {
	kind     cmdKind
	interval time.Duration
	payload  []byte
}

// Signal is a beacon received from another node.
type Signal struct {
	Addr     string // sender IP as printable string
	Transmit []byte // raw beacon payload
}

// startup is the agent's one-time report back to Start.
type startup struct {
	addr string
	err  error
}
