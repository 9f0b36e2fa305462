package sched

import (
	"testing"

	"gossipkv/internal/proto"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

const ringSize = 1024

func a(id uint32) wireaddr.Address { return wireaddr.Address{ID: id, Port: uint16(id)} }

func newCluster(n int, bus *transport.SimulatedBus) []*Driver {
	introducer := a(1)
	drivers := make([]*Driver, n)
	for i := 0; i < n; i++ {
		self := a(uint32(i + 1))
		drivers[i] = New(Config{
			Self:       self,
			Introducer: introducer,
			RingSize:   ringSize,
			TGossip:    3,
			TFail:      10,
			TRemove:    20,
			TQuorum:    10,
		}, &telemetry.Recording{})
	}
	return drivers
}

func runTicks(drivers []*Driver, bus *transport.SimulatedBus, clock *transport.TickClock, n int) {
	for i := 0; i < n; i++ {
		now := clock.Advance()
		for _, d := range drivers {
			d.Tick(now, bus)
		}
	}
}

func TestThreeNodeBootstrapReachesInGroup(t *testing.T) {
	bus := transport.NewSimulatedBus(0, 0, 1)
	clock := &transport.TickClock{}
	drivers := newCluster(3, bus)

	for _, d := range drivers {
		d.Bootstrap(clock.Now(), bus)
	}
	runTicks(drivers, bus, clock, 5)

	for i, d := range drivers {
		if !d.Snapshot().InGroup {
			t.Fatalf("driver %d not in group after bootstrap", i)
		}
		if d.Snapshot().MemberCount != 3 {
			t.Fatalf("driver %d expected 3 members, got %d", i, d.Snapshot().MemberCount)
		}
	}
}

func TestCreateQuorumSucceedsAcrossCluster(t *testing.T) {
	bus := transport.NewSimulatedBus(0, 0, 2)
	clock := &transport.TickClock{}
	drivers := newCluster(5, bus)

	for _, d := range drivers {
		d.Bootstrap(clock.Now(), bus)
	}
	runTicks(drivers, bus, clock, 5)

	coordinator := drivers[0]
	now := clock.Advance()
	transID, hasReplicas := coordinator.Submit(now, proto.OpCreate, "greeting", "hello", bus)
	if !hasReplicas {
		t.Fatal("expected replicas available after bootstrap")
	}

	runTicks(drivers, bus, clock, 3)

	if coordinator.Snapshot().PendingOps != 0 {
		t.Fatalf("expected create quorum to finalize, still pending: %d", coordinator.Snapshot().PendingOps)
	}
	_ = transID
}

func TestShutdownNodeStopsParticipating(t *testing.T) {
	bus := transport.NewSimulatedBus(0, 0, 3)
	clock := &transport.TickClock{}
	drivers := newCluster(3, bus)
	for _, d := range drivers {
		d.Bootstrap(clock.Now(), bus)
	}
	runTicks(drivers, bus, clock, 5)
	// Drain what node 3 already had queued (its own tick-5 self-gossip) so
	// only traffic after Shutdown is counted.
	bus.Recv(a(3), transport.LayerMembership)
	bus.Recv(a(3), transport.LayerKV)

	drivers[2].Shutdown()
	now := clock.Advance()
	drivers[2].Tick(now, bus)

	if !drivers[2].Failed() {
		t.Fatal("expected driver to report Failed after Shutdown")
	}
	if len(bus.Recv(a(3), transport.LayerMembership))+len(bus.Recv(a(3), transport.LayerKV)) != 0 {
		t.Fatal("expected a failed node to receive nothing further")
	}
}
