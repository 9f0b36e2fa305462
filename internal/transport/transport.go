// Package transport defines the clock and transport contracts consumed by
// the core (spec §6) and provides an in-memory simulated bus implementing
// them, used by tests and by cmd/kvnode's local multi-node demo mode. A
// real deployment plugs in its own Transport/Clock (e.g. UDP sockets and a
// wall-clock tick source) without the core package needing to change.
package transport

import (
	"math/rand"
	"sync"

	"gossipkv/internal/wireaddr"
)

// Clock returns a monotonically non-decreasing tick counter (spec §6).
type Clock interface {
	Now() int64
}

// Layer selects one of the two per-node inbound queues spec §5's
// "Shared resources" paragraph mandates: mp1 for membership frames, mp2
// for KV frames. Each is drained independently, so a Tick's membership
// receive can never consume frames the KV receive still needs (and vice
// versa).
type Layer int

const (
	LayerMembership Layer = iota
	LayerKV
)

// Transport is the simulated packet bus contract (spec §6): best-effort
// send of opaque byte buffers addressed by 6-byte node address and layer,
// with receipt by draining whatever has arrived so far on that layer.
type Transport interface {
	// Send enqueues payload for delivery to "to" on the given layer. May
	// silently drop, duplicate or reorder relative to other sends.
	Send(from, to wireaddr.Address, layer Layer, payload []byte)
	// Recv drains and returns all frames currently queued for addr on the
	// given layer. The caller owns the returned buffers from this point on
	// (spec §5 buffer ownership). Frames sent on one layer are never
	// returned by a Recv on the other.
	Recv(addr wireaddr.Address, layer Layer) [][]byte
}

// TickClock is a Clock driven by an external scheduler calling Advance.
type TickClock struct {
	mu  sync.Mutex
	now int64
}

// Now returns the current tick.
func (c *TickClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by one tick and returns the new value.
func (c *TickClock) Advance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

// queueKey addresses one of a node's two per-layer inbound queues.
type queueKey struct {
	addr  wireaddr.Address
	layer Layer
}

// SimulatedBus is an in-memory Transport for tests and local demos. It can
// be configured to drop or duplicate frames to exercise the loss-tolerance
// invariants of spec §4.1/§8. Membership and KV frames are kept in
// separate queues per node (spec §5 mp1/mp2), so draining one layer never
// touches the other.
type SimulatedBus struct {
	mu     sync.Mutex
	queues map[queueKey][][]byte
	dropP  float64
	dupP   float64
	rng    *rand.Rand
	failed map[wireaddr.Address]bool
}

// NewSimulatedBus creates an empty bus. dropProbability and dupProbability
// are in [0,1]; pass 0,0 for a reliable bus.
func NewSimulatedBus(dropProbability, dupProbability float64, seed int64) *SimulatedBus {
	return &SimulatedBus{
		queues: make(map[queueKey][][]byte),
		dropP:  dropProbability,
		dupP:   dupProbability,
		rng:    rand.New(rand.NewSource(seed)),
		failed: make(map[wireaddr.Address]bool),
	}
}

// SetFailed marks addr as failed: sends to it are dropped and its own sends
// are no-ops (spec §7 "Node failed flag set").
func (b *SimulatedBus) SetFailed(addr wireaddr.Address, failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed[addr] = failed
}

// Send implements Transport.
func (b *SimulatedBus) Send(from, to wireaddr.Address, layer Layer, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failed[from] || b.failed[to] {
		return
	}
	if b.dropP > 0 && b.rng.Float64() < b.dropP {
		return
	}
	key := queueKey{addr: to, layer: layer}
	cp := append([]byte(nil), payload...)
	b.queues[key] = append(b.queues[key], cp)
	if b.dupP > 0 && b.rng.Float64() < b.dupP {
		b.queues[key] = append(b.queues[key], append([]byte(nil), payload...))
	}
}

// Recv implements Transport.
func (b *SimulatedBus) Recv(addr wireaddr.Address, layer Layer) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failed[addr] {
		return nil
	}
	key := queueKey{addr: addr, layer: layer}
	frames := b.queues[key]
	delete(b.queues, key)
	return frames
}
