package quorum

import (
	"math/rand"
	"testing"

	"gossipkv/internal/proto"
	"gossipkv/internal/telemetry"
	"gossipkv/internal/transport"
	"gossipkv/internal/wireaddr"
)

// TestProperty_ExactlyOneTerminalEventPerTransaction exercises many random
// reply orderings/outcomes and checks that every transaction finalizes
// exactly once, never zero and never more than once (spec §9 "at-most-once
// finalization via map erasure").
func TestProperty_ExactlyOneTerminalEventPerTransaction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	self := addr(1)

	for trial := 0; trial < 200; trial++ {
		c := NewCoordinator(self, 1000)
		triple := tripleOf([3]wireaddr.Address{addr(2), addr(3), addr(4)})
		bus := transport.NewSimulatedBus(0, 0, int64(trial))
		transID := c.Issue(0, proto.OpUpdate, "k", "v", triple, true, bus)

		outcomes := make([]bool, 3)
		for i := range outcomes {
			outcomes[i] = rng.Intn(2) == 0
		}
		rng.Shuffle(len(triple), func(i, j int) { triple[i], triple[j] = triple[j], triple[i] })

		rec := &telemetry.Recording{}
		for i, rep := range triple {
			c.HandleReply(int64(i+1), proto.ReplyFrame{TransID: transID, From: rep.Node.Addr, Success: outcomes[i]}, rec)
		}
		// Extra sweep and a duplicate reply after finalization must be no-ops.
		c.Sweep(int64(10), rec)
		c.HandleReply(11, proto.ReplyFrame{TransID: transID, From: triple[0].Node.Addr, Success: true}, rec)

		terminal := rec.CountKind("update_success") + rec.CountKind("update_fail")
		if terminal != 1 {
			t.Fatalf("trial %d: expected exactly one terminal event, got %d (events=%v)", trial, terminal, rec.Events)
		}
		if c.Pending() != 0 {
			t.Fatalf("trial %d: expected tracker erased after finalization", trial)
		}
	}
}

// TestProperty_SuccessIffTwoOrMoreOk checks the quorum decision itself
// against a brute-force count of true outcomes, independent of delivery
// order.
func TestProperty_SuccessIffTwoOrMoreOk(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	self := addr(1)

	for trial := 0; trial < 200; trial++ {
		c := NewCoordinator(self, 1000)
		triple := tripleOf([3]wireaddr.Address{addr(2), addr(3), addr(4)})
		bus := transport.NewSimulatedBus(0, 0, int64(trial))
		transID := c.Issue(0, proto.OpDelete, "k", "", triple, true, bus)

		okCount := 0
		order := rng.Perm(3)
		rec := &telemetry.Recording{}
		for _, idx := range order {
			ok := rng.Intn(2) == 0
			if ok {
				okCount++
			}
			c.HandleReply(int64(idx+1), proto.ReplyFrame{TransID: transID, From: triple[idx].Node.Addr, Success: ok}, rec)
		}

		wantSuccess := okCount >= 2
		gotSuccess := rec.CountKind("delete_success") == 1
		if gotSuccess != wantSuccess {
			t.Fatalf("trial %d: okCount=%d wantSuccess=%v events=%v", trial, okCount, wantSuccess, rec.Events)
		}
	}
}
