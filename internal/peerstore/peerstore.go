// Package peerstore provides a BoltDB-backed record of discovered peers.
package peerstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"lanbeacon/internal/announce"
)

var peersBucket = []byte("peers")

// PeerRecord represents a discovered peer in the database.
type PeerRecord struct {
	Announce    announce.Announcement `json:"announce"`
	Addr        string                `json:"addr"`
	FirstSeen   time.Time             `json:"first_seen"`
	LastSeen    time.Time             `json:"last_seen"`
	BeaconCount uint64                `json:"beacon_count"`
	Active      bool                  `json:"active"`
}

// Store wraps a bbolt database for peer records.
type Store struct {
	db  *bolt.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

// New opens or creates a BoltDB file at the given path.
func New(path string, log zerolog.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// Ensure the peers bucket exists
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(peersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating peers bucket: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying BoltDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or updates a peer record keyed by node ID.
func (s *Store) Upsert(a announce.Announcement, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(peersBucket)
		key := []byte(a.NodeID)

		now := time.Now()
		var record PeerRecord

		existing := b.Get(key)
		if existing != nil {
			if err := json.Unmarshal(existing, &record); err != nil {
				s.log.Warn().Err(err).Str("node_id", a.NodeID).Msg("Failed to unmarshal existing record, overwriting")
			}
			record.Announce = a
			record.Addr = addr
			record.LastSeen = now
			record.BeaconCount++
			record.Active = true

			s.log.Debug().
				Str("node_id", a.NodeID).
				Str("hostname", a.Hostname).
				Msg("Peer updated")
		} else {
			record = PeerRecord{
				Announce:    a,
				Addr:        addr,
				FirstSeen:   now,
				LastSeen:    now,
				BeaconCount: 1,
				Active:      true,
			}

			s.log.Info().
				Str("node_id", a.NodeID).
				Str("hostname", a.Hostname).
				Str("addr", addr).
				Str("os", a.OS).
				Msg("New peer discovered")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling peer record: %w", err)
		}

		return b.Put(key, data)
	})
}

// GetAll returns all peer records.
func (s *Store) GetAll() ([]PeerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []PeerRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(peersBucket)
		return b.ForEach(func(k, v []byte) error {
			var record PeerRecord
			if err := json.Unmarshal(v, &record); err != nil {
				s.log.Warn().Err(err).Str("key", string(k)).Msg("Skipping corrupt record")
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// GetActive returns only active peer records.
func (s *Store) GetActive() ([]PeerRecord, error) {
	all, err := s.GetAll()
	if err != nil {
		return nil, err
	}

	var active []PeerRecord
	for _, r := range all {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}

// RunExpiry starts a background goroutine that marks peers as inactive if
// their LastSeen exceeds the given threshold. Runs at the given check interval.
func (s *Store) RunExpiry(checkInterval, threshold time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for range ticker.C {
			s.expireStalePeers(threshold)
		}
	}()
}

func (s *Store) expireStalePeers(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-threshold)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(peersBucket)
		return b.ForEach(func(k, v []byte) error {
			var record PeerRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil
			}

			if record.Active && record.LastSeen.Before(cutoff) {
				record.Active = false

				s.log.Info().
					Str("node_id", record.Announce.NodeID).
					Str("hostname", record.Announce.Hostname).
					Time("last_seen", record.LastSeen).
					Msg("Peer marked inactive")

				data, err := json.Marshal(record)
				if err != nil {
					return nil
				}
				return b.Put(k, data)
			}
			return nil
		})
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Database error during expiry check")
	}
}
