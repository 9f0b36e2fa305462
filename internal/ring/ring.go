package ring

import (
	"hash/fnv"
	"sort"

	"gossipkv/internal/proto"
	"gossipkv/internal/wireaddr"
)

// RingNode is one position on the ring.
type RingNode struct {
	Addr wireaddr.Address
	Hash uint32
}

// Ring is the ascending-by-hash sequence of live members.
type Ring []RingNode

// Replica is one member of a key's replica triple, tagged by its role.
type Replica struct {
	Node RingNode
	Role proto.ReplicaRole
}

// H computes the stable hash of addr modulo ringSize (spec §3).
func H(addr wireaddr.Address, ringSize uint32) uint32 {
	buf := addr.Bytes()
	h := fnv.New32a()
	h.Write(buf[:])
	return h.Sum32() % ringSize
}

// hashKey computes the stable hash of a key modulo ringSize, used to locate
// a key's replica triple.
func hashKey(key string, ringSize uint32) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % ringSize
}

// Build constructs the ring from a membership snapshot: one RingNode per
// address, sorted ascending by hashcode with address order breaking ties
// (spec §4.2).
func Build(addrs []wireaddr.Address, ringSize uint32) Ring {
	r := make(Ring, len(addrs))
	for i, a := range addrs {
		r[i] = RingNode{Addr: a, Hash: H(a, ringSize)}
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].Hash != r[j].Hash {
			return r[i].Hash < r[j].Hash
		}
		return r[i].Addr.Less(r[j].Addr)
	})
	return r
}

// ReplicasOf computes the replica triple for key (spec §4.2). If the ring
// has fewer than 3 members, placement is undefined and ok is false — the
// caller (quorum coordinator) still tracks the op, which will time out
// (spec §7).
func ReplicasOf(r Ring, key string, ringSize uint32) (triple [3]Replica, ok bool) {
	n := len(r)
	if n < 3 {
		return triple, false
	}

	p := hashKey(key, ringSize)
	i := sort.Search(n, func(idx int) bool { return r[idx].Hash >= p })
	if i == n {
		i = 0
	}

	roles := [3]proto.ReplicaRole{proto.RolePrimary, proto.RoleSecondary, proto.RoleTertiary}
	for k := 0; k < 3; k++ {
		triple[k] = Replica{Node: r[(i+k)%n], Role: roles[k]}
	}
	return triple, true
}
