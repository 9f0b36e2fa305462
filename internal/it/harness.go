package it

import (
	"gossipkv/internal/proto"
	"gossipkv/internal/sched"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// Cluster is an in-process cluster of sched.Driver nodes sharing one
// simulated bus and tick clock (replaces the teacher's subprocess+gRPC
// Cluster, see doc.go).
type Cluster struct {
	Bus    *transport.SimulatedBus
	Clock  *transport.TickClock
	Nodes  []*sched.Driver
	Addrs  []wireaddr.Address
	Rec    *telemetry.Recording
	Config sched.Config // template; Self/Introducer are overridden per node
}

// NewCluster builds a Cluster of n nodes using AddrFor(i) for i in
// [1,n], node 1 as introducer, and the given drop/duplicate bus
// parameters.
func NewCluster(n int, cfg sched.Config, dropP, dupP float64, seed int64) *Cluster {
	bus := transport.NewSimulatedBus(dropP, dupP, seed)
	rec := &telemetry.Recording{}
	c := &Cluster{
		Bus:    bus,
		Clock:  &transport.TickClock{},
		Rec:    rec,
		Config: cfg,
	}

	introducer := AddrFor(1)
	for i := 1; i <= n; i++ {
		addr := AddrFor(i)
		c.Addrs = append(c.Addrs, addr)
		nodeCfg := cfg
		nodeCfg.Self = addr
		nodeCfg.Introducer = introducer
		c.Nodes = append(c.Nodes, sched.New(nodeCfg, rec))
	}
	return c
}

// AddrFor derives a deterministic synthetic address for cluster node i
// (1-based).
func AddrFor(i int) wireaddr.Address {
	return wireaddr.Address{ID: uint32(i), Port: uint16(i)}
}

// Bootstrap joins every node into the cluster at the current tick.
func (c *Cluster) Bootstrap() {
	now := c.Clock.Now()
	for _, d := range c.Nodes {
		d.Bootstrap(now, c.Bus)
	}
}

// RunTicks advances every node n ticks, in cluster order, per tick (spec §5
// has no cross-node interleaving within a tick, but across nodes within a
// tick order is immaterial since nodes share no state).
func (c *Cluster) RunTicks(n int) {
	for i := 0; i < n; i++ {
		now := c.Clock.Advance()
		for _, d := range c.Nodes {
			d.Tick(now, c.Bus)
		}
	}
}

// Fail marks node index idx (0-based) as failed, both in its Driver (stops
// participating in Tick) and on the bus (stops delivering to/from it),
// modeling spec §7's "failed node" test scenarios.
func (c *Cluster) Fail(idx int) {
	c.Nodes[idx].Shutdown()
	c.Bus.SetFailed(c.Addrs[idx], true)
}

// Submit issues a client op from node idx and returns the coordinator's
// transID and whether replicas were available.
func (c *Cluster) Submit(idx int, op proto.Op, key, value string) (transID int64, hasReplicas bool) {
	return c.Nodes[idx].Submit(c.Clock.Now(), op, key, value, c.Bus)
}

// PendingAt returns the number of open quorum trackers at node idx.
func (c *Cluster) PendingAt(idx int) int {
	return c.Nodes[idx].Snapshot().PendingOps
}
