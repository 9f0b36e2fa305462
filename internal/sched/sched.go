package sched

import (
	"gossipkv/internal/dispatch"
	"gossipkv/internal/membership"
	"gossipkv/internal/proto"
	"gossipkv/internal/quorum"
	"gossipkv/internal/ring"
	"gossipkv/internal/stabilize"
	"gossipkv/internal/store"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// Driver runs one node through the fixed tick order of spec §5. It owns
// every layer exclusively; nothing outside Driver touches membership,
// ring, stabilize, quorum or store directly.
type Driver struct {
	self wireaddr.Address

	membership  *membership.Membership
	stabilizer  *stabilize.Stabilizer
	coordinator *quorum.Coordinator
	store       *store.Store
	sink        telemetry.Sink

	ringSize    uint32
	currentRing ring.Ring
	failed      bool
}

// Config bundles the tick thresholds of spec §6 a Driver needs to build its
// sub-components.
type Config struct {
	Self       wireaddr.Address
	Introducer wireaddr.Address
	RingSize   uint32
	TGossip    int64
	TFail      int64
	TRemove    int64
	TQuorum    int64
}

// New builds a Driver for cfg.Self. Call Bootstrap before the first Tick.
func New(cfg Config, sink telemetry.Sink) *Driver {
	return &Driver{
		self:        cfg.Self,
		membership:  membership.New(cfg.Self, cfg.Introducer, cfg.TGossip, cfg.TFail, cfg.TRemove),
		stabilizer:  stabilize.New(cfg.Self, cfg.RingSize),
		coordinator: quorum.NewCoordinator(cfg.Self, cfg.TQuorum),
		store:       store.New(),
		sink:        sink,
		ringSize:    cfg.RingSize,
	}
}

// Bootstrap joins the node into the cluster (spec §4.1).
func (d *Driver) Bootstrap(now int64, t transport.Transport) {
	d.membership.Bootstrap(now, t)
}

// Submit issues a client CRUD op against the key's current replica triple
// (spec §4.4), returning the coordinator's transID and whether replicas
// were available to send to.
func (d *Driver) Submit(now int64, op proto.Op, key, value string, t transport.Transport) (transID int64, hasReplicas bool) {
	triple, ok := ring.ReplicasOf(d.currentRing, key, d.ringSize)
	transID = d.coordinator.Issue(now, op, key, value, triple, ok, t)
	return transID, ok
}

// Tick advances this node by exactly one tick, in the fixed order of spec
// §5: membership receive, membership housekeeping, ring rebuild and
// stabilization, KV receive/dispatch, quorum timeout sweep. A failed node
// performs no send/recv (spec §4.6, §7).
func (d *Driver) Tick(now int64, t transport.Transport) {
	if d.failed {
		return
	}

	d.membership.Receive(now, t, d.sink)
	d.membership.Housekeeping(now, t, d.sink)

	d.currentRing = ring.Build(d.membership.Snapshot(now), d.ringSize)
	d.stabilizer.Run(d.currentRing, d.store, t)

	d.receiveKV(now, t)

	d.coordinator.Sweep(now, d.sink)
}

func (d *Driver) receiveKV(now int64, t transport.Transport) {
	for _, raw := range t.Recv(d.self, transport.LayerKV) {
		frame, err := proto.DecodeKVFrame(string(raw))
		if err != nil {
			continue
		}
		switch frame.Kind {
		case "REQUEST":
			dispatch.Handle(d.self, frame.Request, d.store, t, d.sink)
		case "REPLY":
			d.coordinator.HandleReply(now, frame.Reply, d.sink)
		case "READREPLY":
			d.coordinator.HandleReadReply(now, frame.ReadReply, d.sink)
		}
	}
}

// Shutdown transitions the node to FAILED: Tick becomes a no-op from this
// point on (spec §4.6, §7 terminal state).
func (d *Driver) Shutdown() {
	d.failed = true
}

// Failed reports whether Shutdown has been called.
func (d *Driver) Failed() bool { return d.failed }

// Status is a point-in-time debug/telemetry snapshot of a node (SPEC_FULL
// §10), exposing counts only — never internal state — to keep Driver the
// sole owner of every layer.
type Status struct {
	InGroup     bool
	MemberCount int
	RingSize    int
	PendingOps  int
	Failed      bool
}

// Snapshot reports this node's current status.
func (d *Driver) Snapshot() Status {
	return Status{
		InGroup:     d.membership.InGroup(),
		MemberCount: len(d.membership.Entries()),
		RingSize:    len(d.currentRing),
		PendingOps:  d.coordinator.Pending(),
		Failed:      d.failed,
	}
}
