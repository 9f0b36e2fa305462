package stabilize

import (
	"testing"

	"gossipkv/internal/proto"
	"gossipkv/internal/ring"
	"gossipkv/internal/store"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

const ringSize = 1024

func a(id uint32) wireaddr.Address { return wireaddr.Address{ID: id, Port: uint16(id)} }

func TestRunIsNoOpOnUnchangedRing(t *testing.T) {
	addrs := []wireaddr.Address{a(1), a(2), a(3)}
	r := ring.Build(addrs, ringSize)

	st := store.New()
	st.Create("k1", "v1")

	s := New(a(1), ringSize)
	bus := transport.NewSimulatedBus(0, 0, 1)
	s.Run(r, st, bus)
	s.Run(r, st, bus)

	total := 0
	for _, addr := range addrs {
		total += len(bus.Recv(addr, transport.LayerKV))
	}
	if total != 0 {
		t.Fatalf("expected no messages on repeated stable runs, got %d", total)
	}
}

func TestRunDeletesKeyWhenNoLongerAReplica(t *testing.T) {
	self := a(1)
	r1 := ring.Build([]wireaddr.Address{self, a(2), a(3)}, ringSize)

	st := store.New()
	st.Create("k", "v")

	s := New(self, ringSize)
	bus := transport.NewSimulatedBus(0, 0, 1)
	s.Run(r1, st, bus)

	// Introduce enough churn that "k" no longer hashes to self's triple.
	var bigMembership []wireaddr.Address
	for i := uint32(1); i <= 50; i++ {
		bigMembership = append(bigMembership, a(i))
	}
	r2 := ring.Build(bigMembership, ringSize)
	triple, ok := ring.ReplicasOf(r2, "k", ringSize)
	if !ok {
		t.Fatal("expected placement with 50 members")
	}
	selfStillReplica := false
	for _, rep := range triple {
		if rep.Node.Addr == self {
			selfStillReplica = true
		}
	}

	s.Run(r2, st, bus)
	_, present := st.Read("k")
	if present != selfStillReplica {
		t.Fatalf("key presence %v does not match replica membership %v", present, selfStillReplica)
	}
}

func TestRunRepairsNewReplicaOnRingGrowth(t *testing.T) {
	self := a(1)
	other := a(2)
	third := a(3)
	r1 := ring.Build([]wireaddr.Address{self, other, third}, ringSize)

	st := store.New()
	st.Create("k", "v")

	s := New(self, ringSize)
	bus := transport.NewSimulatedBus(0, 0, 1)
	s.Run(r1, st, bus)
	for _, addr := range []wireaddr.Address{self, other, third} {
		bus.Recv(addr, transport.LayerKV) // drain baseline, first-seen key emits nothing
	}

	fourth := a(4)
	r2 := ring.Build([]wireaddr.Address{self, other, third, fourth}, ringSize)
	triple, ok := ring.ReplicasOf(r2, "k", ringSize)
	if !ok {
		t.Fatal("expected placement")
	}
	var newMember wireaddr.Address
	found := false
	for _, rep := range triple {
		if rep.Node.Addr == fourth {
			newMember = fourth
			found = true
		}
	}
	if !found {
		t.Skip("fourth node did not enter k's triple with this hash layout")
	}

	s.Run(r2, st, bus)
	frames := bus.Recv(newMember, transport.LayerKV)
	if len(frames) != 1 {
		t.Fatalf("expected exactly one repair CREATE to the new replica, got %d", len(frames))
	}
	f, err := proto.DecodeKVFrame(string(frames[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Kind != "REQUEST" || f.Request.Op != proto.OpCreate || f.Request.Key != "k" || f.Request.Value != "v" {
		t.Fatalf("unexpected repair frame: %+v", f)
	}
}
