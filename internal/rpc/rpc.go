// Package rpc provides Unix socket IPC between a running lanbeacon node and
// the peers CLI.
package rpc

import (
	"fmt"
	"net"
	netrpc "net/rpc"
	"os"

	"github.com/rs/zerolog"

	"lanbeacon/internal/peerstore"
)

// Service is the RPC service exposed by the node.
type Service struct {
	store *peerstore.Store
	log   zerolog.Logger
}

// ListActivePeersArgs is the request for ListActivePeers.
type ListActivePeersArgs struct{}

// ListActivePeersReply is the response for ListActivePeers.
type ListActivePeersReply struct {
	Peers []peerstore.PeerRecord
}

// ListActivePeers returns all active peer records.
func (s *Service) ListActivePeers(args *ListActivePeersArgs, reply *ListActivePeersReply) error {
	peers, err := s.store.GetActive()
	if err != nil {
		return fmt.Errorf("fetching active peers: %w", err)
	}
	reply.Peers = peers
	return nil
}

// StartServer starts the Unix socket RPC server.
func StartServer(socketPath string, db *peerstore.Store, log zerolog.Logger) error {
	service := &Service{store: db, log: log}

	server := netrpc.NewServer()
	if err := server.Register(service); err != nil {
		return fmt.Errorf("registering RPC service: %w", err)
	}

	// Remove existing socket file if present
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	// Set socket permissions
	if err := os.Chmod(socketPath, 0660); err != nil {
		log.Warn().Err(err).Msg("Failed to set socket permissions")
	}

	log.Info().Str("socket", socketPath).Msg("RPC server started")

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("RPC accept error")
				continue
			}
			go server.ServeConn(conn)
		}
	}()

	return nil
}

// Client is a client for the lanbeacon RPC service.
type Client struct {
	client *netrpc.Client
}

// NewClient dials the Unix socket and returns an RPC client.
func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to RPC socket %s: %w", socketPath, err)
	}
	return &Client{client: netrpc.NewClient(conn)}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ListActivePeers fetches all active peers from the node.
func (c *Client) ListActivePeers() ([]peerstore.PeerRecord, error) {
	args := &ListActivePeersArgs{}
	reply := &ListActivePeersReply{}
	if err := c.client.Call("Service.ListActivePeers", args, reply); err != nil {
		return nil, err
	}
	return reply.Peers, nil
}
