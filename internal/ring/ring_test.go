package ring

import (
	"testing"

	"gossipkv/internal/proto"
	"gossipkv/internal/wireaddr"
)

const ringSize = 1024

func addrs(n int) []wireaddr.Address {
	out := make([]wireaddr.Address, n)
	for i := 0; i < n; i++ {
		out[i] = wireaddr.Address{ID: uint32(i + 1), Port: uint16(i + 1)}
	}
	return out
}

func TestBuildSortsAscendingByHash(t *testing.T) {
	r := Build(addrs(5), ringSize)
	for i := 1; i < len(r); i++ {
		if r[i].Hash < r[i-1].Hash {
			t.Fatalf("ring not sorted ascending at index %d: %v", i, r)
		}
	}
}

func TestReplicasOfTooFewMembers(t *testing.T) {
	r := Build(addrs(2), ringSize)
	if _, ok := ReplicasOf(r, "key", ringSize); ok {
		t.Fatal("expected ok=false with fewer than 3 members")
	}
}

func TestReplicasOfDistinctTriple(t *testing.T) {
	r := Build(addrs(7), ringSize)
	for _, key := range []string{"a", "b", "c", "longer-key-name"} {
		triple, ok := ReplicasOf(r, key, ringSize)
		if !ok {
			t.Fatalf("expected placement for key %q", key)
		}
		seen := map[wireaddr.Address]bool{}
		for _, rep := range triple {
			if seen[rep.Node.Addr] {
				t.Fatalf("replica triple for %q has a duplicate member: %v", key, triple)
			}
			seen[rep.Node.Addr] = true
		}
	}
}

func TestReplicasOfDeterministic(t *testing.T) {
	r1 := Build(addrs(6), ringSize)
	r2 := Build(addrs(6), ringSize)
	t1, ok1 := ReplicasOf(r1, "stable-key", ringSize)
	t2, ok2 := ReplicasOf(r2, "stable-key", ringSize)
	if !ok1 || !ok2 || t1 != t2 {
		t.Fatalf("two builds of the same membership must agree: %v vs %v", t1, t2)
	}
}

func TestReplicasOfRoleOrder(t *testing.T) {
	r := Build(addrs(5), ringSize)
	triple, ok := ReplicasOf(r, "k", ringSize)
	if !ok {
		t.Fatal("expected placement")
	}
	if triple[0].Role != proto.RolePrimary {
		t.Fatalf("expected PRIMARY first, got %v", triple[0].Role)
	}
	if triple[1].Role != proto.RoleSecondary || triple[2].Role != proto.RoleTertiary {
		t.Fatalf("unexpected role order: %v", triple)
	}
}
