// Package membership implements the gossip-based failure detector (spec
// §4.1): bootstrap against a well-known introducer, periodic heartbeat
// gossip, and timeout-based suspicion/removal. It owns the MemberList
// exclusively; the ring and KV layers only ever see an immutable snapshot
// pulled once per tick (spec §9 "deep coupling... redesigned as a pull
// interface"), never the list itself.
package membership

import (
	"gossipkv/internal/proto"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// MemberEntry is one row of the membership view (spec §3).
type MemberEntry struct {
	Addr      wireaddr.Address
	Heartbeat int64
	Timestamp int64 // local tick at which Heartbeat was last advanced
}

// Membership is the per-node gossip failure detector. It is exclusively
// owned by one node instance; all coordination with peers happens by
// message passing over a transport.Transport (spec §5).
type Membership struct {
	self       wireaddr.Address
	introducer wireaddr.Address

	entries []MemberEntry // entries[0] is always self, once initialized
	inGroup bool

	pingCounter int64

	tGossip int64
	tFail   int64
	tRemove int64
}

// New creates a Membership for self, bootstrapping against introducer, with
// the tick thresholds of spec §6. Call Bootstrap before any Tick.
func New(self, introducer wireaddr.Address, tGossip, tFail, tRemove int64) *Membership {
	return &Membership{
		self:       self,
		introducer: introducer,
		tGossip:    tGossip,
		tFail:      tFail,
		tRemove:    tRemove,
	}
}

// Bootstrap initializes the MemberList with self (heartbeat 0). If self is
// the introducer it joins the group immediately; otherwise it sends a
// JOINREQ and remains out of group until a JOINREP arrives (spec §4.1).
func (m *Membership) Bootstrap(now int64, t transport.Transport) {
	m.entries = []MemberEntry{{Addr: m.self, Heartbeat: 0, Timestamp: now}}

	if m.self == m.introducer {
		m.inGroup = true
		return
	}
	t.Send(m.self, m.introducer, transport.LayerMembership, proto.EncodeJoinReq(proto.JoinMsg{
		Addr:      m.self,
		Heartbeat: m.selfHeartbeat(),
	}))
}

// Initialized reports whether Bootstrap has run (spec I2).
func (m *Membership) Initialized() bool { return len(m.entries) > 0 }

// InGroup reports whether this node has completed the join handshake.
func (m *Membership) InGroup() bool { return m.inGroup }

func (m *Membership) selfHeartbeat() int64 { return m.entries[0].Heartbeat }

// Entries returns a defensive copy of the full MemberList, for tests and
// debug tooling.
func (m *Membership) Entries() []MemberEntry {
	out := make([]MemberEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Suspected reports whether addr's entry is currently suspected (I3):
// now - timestamp >= T_FAIL. Unknown addresses are reported as suspected.
func (m *Membership) Suspected(addr wireaddr.Address, now int64) bool {
	idx := m.indexOf(addr)
	if idx < 0 {
		return true
	}
	return now-m.entries[idx].Timestamp >= m.tFail
}

// Snapshot returns the addresses of all non-suspected members (including
// self), the pull interface the ring layer uses to rebuild each tick
// (spec §4.2, §9).
func (m *Membership) Snapshot(now int64) []wireaddr.Address {
	out := make([]wireaddr.Address, 0, len(m.entries))
	for _, e := range m.entries {
		if now-e.Timestamp < m.tFail {
			out = append(out, e.Addr)
		}
	}
	return out
}

func (m *Membership) indexOf(addr wireaddr.Address) int {
	for i, e := range m.entries {
		if e.Addr == addr {
			return i
		}
	}
	return -1
}

// merge applies a received (addr, heartbeat) pair (spec §4.1 "merge"):
// update iff strictly newer, insert if unknown, ignore self (self's
// heartbeat is authoritative and only ever advanced locally). Returns true
// if the call changed the MemberList (advisory only, per spec §9).
func (m *Membership) merge(addr wireaddr.Address, hb, now int64, sink telemetry.Sink) bool {
	if addr == m.self {
		return false
	}
	idx := m.indexOf(addr)
	if idx < 0 {
		m.entries = append(m.entries, MemberEntry{Addr: addr, Heartbeat: hb, Timestamp: now})
		sink.NodeAdd(m.self, addr)
		return true
	}
	if hb > m.entries[idx].Heartbeat {
		m.entries[idx].Heartbeat = hb
		m.entries[idx].Timestamp = now
		return true
	}
	return false
}

// Receive drains and applies every membership frame currently queued for
// this node (spec §5 step 1). Decode failures drop the frame without
// mutating state (spec §7).
func (m *Membership) Receive(now int64, t transport.Transport, sink telemetry.Sink) {
	for _, raw := range t.Recv(m.self, transport.LayerMembership) {
		frame, err := proto.DecodeMembershipFrame(raw)
		if err != nil {
			continue
		}
		switch frame.Type {
		case proto.MsgJoinReq:
			m.merge(frame.JoinReq.Addr, frame.JoinReq.Heartbeat, now, sink)
			t.Send(m.self, frame.JoinReq.Addr, transport.LayerMembership, proto.EncodeJoinRep(proto.JoinMsg{
				Addr:      m.self,
				Heartbeat: m.selfHeartbeat(),
			}))
		case proto.MsgJoinRep:
			m.inGroup = true
			m.merge(frame.JoinRep.Addr, frame.JoinRep.Heartbeat, now, sink)
		case proto.MsgGossip:
			for _, e := range frame.Gossip.Entries {
				m.merge(wireaddr.Address{ID: e.ID, Port: e.Port}, e.Heartbeat, now, sink)
			}
		}
	}
}

// Housekeeping advances the gossip period and failure sweep (spec §5 step
// 2, §4.1 "Steady state"). It must run once per tick after Receive, for any
// initialized node (bootstrapped, whether or not yet in group — a joining
// node still gossips, harmlessly, to an empty peer set).
func (m *Membership) Housekeeping(now int64, t transport.Transport, sink telemetry.Sink) {
	if !m.Initialized() {
		return
	}

	if m.pingCounter <= 0 {
		m.entries[0].Heartbeat++
		m.entries[0].Timestamp = now

		payload := proto.EncodeGossip(m.gossipPayload(now))
		for _, e := range m.entries {
			t.Send(m.self, e.Addr, transport.LayerMembership, payload)
		}
		m.pingCounter = m.tGossip
	} else {
		m.pingCounter--
	}

	m.sweep(now, sink)
}

// gossipPayload builds the GOSSIP entries to advertise: every member not
// currently suspected (spec §4.1 "Gossip payload policy").
func (m *Membership) gossipPayload(now int64) proto.GossipMsg {
	msg := proto.GossipMsg{Entries: make([]proto.GossipEntry, 0, len(m.entries))}
	for _, e := range m.entries {
		if now-e.Timestamp < m.tFail {
			msg.Entries = append(msg.Entries, proto.GossipEntry{
				ID: e.Addr.ID, Port: e.Addr.Port, Heartbeat: e.Heartbeat,
			})
		}
	}
	return msg
}

// sweep removes any non-self entry whose timestamp has aged past T_REMOVE
// (I3), logging a remove event for each.
func (m *Membership) sweep(now int64, sink telemetry.Sink) {
	kept := make([]MemberEntry, 1, len(m.entries))
	kept[0] = m.entries[0] // self is never swept
	for _, e := range m.entries[1:] {
		if now-e.Timestamp >= m.tRemove {
			sink.NodeRemove(m.self, e.Addr)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
}
