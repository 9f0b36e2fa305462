package quorum

import (
	"encoding/binary"

	"github.com/google/uuid"

	"gossipkv/internal/proto"
	"gossipkv/internal/ring"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// Tracker is a QuorumTracker (spec §3): the per-transID bookkeeping a
// coordinator maintains between issuing replicated requests and finalizing
// the client-visible outcome.
type Tracker struct {
	TransID           int64
	Op                proto.Op
	Key               string
	Value             string
	TotalReplies      int
	OkReplies         int
	ReadValueObserved string
	CreatedAtTick     int64
}

// IDAllocator mints transaction IDs. The spec's default is a per-node
// monotonically-advancing counter (§9, replacing the original source's
// mutable global); MonotonicIDAllocator implements that. UUIDIDAllocator is
// offered as an alternative for deployments that fan a single logical
// coordinator identity across process restarts, where counter resets would
// otherwise risk transID reuse.
type IDAllocator interface {
	NextID() int64
}

// MonotonicIDAllocator is the spec-default transID allocator: unique for
// the coordinator's lifetime, owned exclusively by one Coordinator.
type MonotonicIDAllocator struct {
	next int64
}

// NextID returns the next monotonically increasing transaction ID.
func (a *MonotonicIDAllocator) NextID() int64 {
	a.next++
	return a.next
}

// UUIDIDAllocator derives transaction IDs from random UUIDs, masked into
// the positive int64 range so they still fit the wire protocol's decimal
// transID field.
type UUIDIDAllocator struct{}

// NextID returns a random, effectively-unique positive transaction ID.
func (UUIDIDAllocator) NextID() int64 {
	id := uuid.New()
	v := binary.LittleEndian.Uint64(id[:8])
	return int64(v &^ (1 << 63))
}

// Coordinator drives 2-of-3 quorum operations for one node. It is
// exclusively owned by that node; the QuorumTracker map it holds is the
// sole home for each Tracker from creation to erasure-on-finalize (spec §9
// "leaked ownership... redesigned as a value owned by the tracker map").
type Coordinator struct {
	self      wireaddr.Address
	allocator IDAllocator
	trackers  map[int64]*Tracker
	tQuorum   int64
}

// NewCoordinator creates a Coordinator for self using the spec-default
// monotonic ID allocator.
func NewCoordinator(self wireaddr.Address, tQuorum int64) *Coordinator {
	return &Coordinator{
		self:      self,
		allocator: &MonotonicIDAllocator{},
		trackers:  make(map[int64]*Tracker),
		tQuorum:   tQuorum,
	}
}

// WithAllocator overrides the transID allocator (e.g. UUIDIDAllocator).
func (c *Coordinator) WithAllocator(a IDAllocator) { c.allocator = a }

// Pending returns the number of open trackers, for status/debug reporting.
func (c *Coordinator) Pending() int { return len(c.trackers) }

// Issue allocates a transID, creates its Tracker, and sends one KV request
// to each replica in the triple, tagged by role (spec §4.4). If replicas is
// empty (ring has fewer than 3 members), the tracker is still created and
// will finalize as FAILED by timeout (spec §7).
func (c *Coordinator) Issue(now int64, op proto.Op, key, value string, replicas [3]ring.Replica, haveReplicas bool, t transport.Transport) int64 {
	transID := c.allocator.NextID()
	c.trackers[transID] = &Tracker{
		TransID:       transID,
		Op:            op,
		Key:           key,
		Value:         value,
		CreatedAtTick: now,
	}

	if !haveReplicas {
		return transID
	}

	for _, rep := range replicas {
		req := proto.RequestFrame{
			TransID: transID,
			From:    c.self,
			Op:      op,
			Key:     key,
			Value:   value,
			Role:    rep.Role,
			HasRole: true,
		}
		t.Send(c.self, rep.Node.Addr, transport.LayerKV, []byte(proto.EncodeRequest(req)))
	}
	return transID
}

// HandleReply applies a REPLY frame (spec §4.4). Unknown transIDs are
// dropped silently — a late or foreign reply, not an error (spec §7).
func (c *Coordinator) HandleReply(now int64, f proto.ReplyFrame, sink telemetry.Sink) {
	tr, ok := c.trackers[f.TransID]
	if !ok {
		return
	}
	tr.TotalReplies++
	if f.Success {
		tr.OkReplies++
	}
	c.tryFinalize(now, tr, sink)
}

// HandleReadReply applies a READREPLY frame (spec §4.4).
func (c *Coordinator) HandleReadReply(now int64, f proto.ReadReplyFrame, sink telemetry.Sink) {
	tr, ok := c.trackers[f.TransID]
	if !ok {
		return
	}
	tr.TotalReplies++
	if f.Value != "" {
		tr.OkReplies++
		tr.ReadValueObserved = f.Value
	}
	c.tryFinalize(now, tr, sink)
}

// Sweep evaluates every open tracker for T_QUORUM timeout (spec §5 step 5).
func (c *Coordinator) Sweep(now int64, sink telemetry.Sink) {
	for _, tr := range c.trackers {
		c.tryFinalize(now, tr, sink)
	}
}

// tryFinalize checks the three finalization conditions of spec §4.4 and, if
// one holds, logs the terminal event and erases the tracker — erasure
// guarantees at-most-once finalization per transID.
func (c *Coordinator) tryFinalize(now int64, tr *Tracker, sink telemetry.Sink) {
	switch {
	case tr.OkReplies >= 2:
		c.logTerminal(tr, true, sink)
	case tr.TotalReplies >= 3 && tr.OkReplies < 2:
		c.logTerminal(tr, false, sink)
	case now-tr.CreatedAtTick > c.tQuorum:
		c.logTerminal(tr, false, sink)
	default:
		return
	}
	delete(c.trackers, tr.TransID)
}

func (c *Coordinator) logTerminal(tr *Tracker, success bool, sink telemetry.Sink) {
	value := tr.Value
	if tr.Op == proto.OpRead {
		value = tr.ReadValueObserved
	}
	switch tr.Op {
	case proto.OpCreate:
		if success {
			sink.CreateSuccess(c.self, true, tr.TransID, tr.Key, value)
		} else {
			sink.CreateFail(c.self, true, tr.TransID, tr.Key, value)
		}
	case proto.OpRead:
		if success {
			sink.ReadSuccess(c.self, true, tr.TransID, tr.Key, value)
		} else {
			sink.ReadFail(c.self, true, tr.TransID, tr.Key, value)
		}
	case proto.OpUpdate:
		if success {
			sink.UpdateSuccess(c.self, true, tr.TransID, tr.Key, value)
		} else {
			sink.UpdateFail(c.self, true, tr.TransID, tr.Key, value)
		}
	case proto.OpDelete:
		if success {
			sink.DeleteSuccess(c.self, true, tr.TransID, tr.Key, value)
		} else {
			sink.DeleteFail(c.self, true, tr.TransID, tr.Key, value)
		}
	}
}
