// Package announce defines the framed payload lanbeacon nodes publish:
// a magic prefix and version byte, an HMAC-SHA256 signature over the body,
// and a msgpack-encoded body with the node's identity.
package announce

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"lanbeacon/internal/beacon"
)

const (
	// Magic marks a datagram as a lanbeacon announcement.
	Magic = "LBX"

	// Version is the current frame version.
	Version = 1
)

var header = []byte{'L', 'B', 'X', Version}

// Announcement is the body a node broadcasts over the beacon.
type Announcement struct {
	NodeID    string `msgpack:"node_id"`
	Hostname  string `msgpack:"hostname"`
	Port      int    `msgpack:"port"`
	OS        string `msgpack:"os"`
	Kernel    string `msgpack:"kernel"`
	Arch      string `msgpack:"arch"`
	Timestamp int64  `msgpack:"timestamp"`
}

// Filter returns the frame prefix suitable for Beacon.Subscribe, matching any
// announcement of the current version.
func Filter() []byte {
	f := make([]byte, len(header))
	copy(f, header)
	return f
}

// Encode frames and signs an announcement. The result must fit in a single
// beacon payload; an oversized announcement is an error, not a truncation.
func Encode(a *Announcement, secret string) ([]byte, error) {
	body, err := msgpack.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshaling announcement: %w", err)
	}

	frame := make([]byte, 0, len(header)+HMACSize+len(body))
	frame = append(frame, header...)
	frame = append(frame, ComputeHMAC(body, secret)...)
	frame = append(frame, body...)

	if len(frame) > beacon.BeaconMax {
		return nil, fmt.Errorf("announcement frame is %d bytes, exceeds %d", len(frame), beacon.BeaconMax)
	}
	return frame, nil
}

// Decode validates a frame and returns its announcement. It rejects foreign
// magic, unknown versions and bad signatures.
func Decode(frame []byte, secret string) (*Announcement, error) {
	if len(frame) <= len(header)+HMACSize {
		return nil, fmt.Errorf("frame too small: %d bytes", len(frame))
	}
	if !bytes.Equal(frame[:len(Magic)], []byte(Magic)) {
		return nil, fmt.Errorf("not a lanbeacon frame")
	}
	if frame[len(Magic)] != Version {
		return nil, fmt.Errorf("unsupported frame version %d", frame[len(Magic)])
	}

	sig := frame[len(header) : len(header)+HMACSize]
	body := frame[len(header)+HMACSize:]
	if !VerifyHMAC(sig, body, secret) {
		return nil, fmt.Errorf("signature mismatch")
	}

	var a Announcement
	if err := msgpack.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("unmarshaling announcement: %w", err)
	}
	return &a, nil
}

// Age returns how far the announcement timestamp lies from now, regardless of
// direction. Used to reject replayed or badly-clocked beacons.
func (a *Announcement) Age(now time.Time) time.Duration {
	d := now.Sub(time.Unix(a.Timestamp, 0))
	if d < 0 {
		d = -d
	}
	return d
}
