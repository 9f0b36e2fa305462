package transport

import (
	"testing"

	"gossipkv/internal/wireaddr"
)

var (
	addrA = wireaddr.Address{ID: 1, Port: 1}
	addrB = wireaddr.Address{ID: 2, Port: 2}
)

func TestSimulatedBusDeliversInOrder(t *testing.T) {
	bus := NewSimulatedBus(0, 0, 1)
	bus.Send(addrA, addrB, LayerKV, []byte("one"))
	bus.Send(addrA, addrB, LayerKV, []byte("two"))

	got := bus.Recv(addrB, LayerKV)
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if string(got[0]) != "one" || string(got[1]) != "two" {
		t.Fatalf("got %v", got)
	}
	if more := bus.Recv(addrB, LayerKV); len(more) != 0 {
		t.Fatalf("expected drained queue, got %v", more)
	}
}

func TestSimulatedBusFailedNodeDropsBothWays(t *testing.T) {
	bus := NewSimulatedBus(0, 0, 1)
	bus.SetFailed(addrB, true)
	bus.Send(addrA, addrB, LayerKV, []byte("x"))
	if got := bus.Recv(addrB, LayerKV); len(got) != 0 {
		t.Fatalf("failed node should not receive, got %v", got)
	}

	bus.SetFailed(addrB, false)
	bus.SetFailed(addrA, true)
	bus.Send(addrA, addrB, LayerKV, []byte("y"))
	if got := bus.Recv(addrB, LayerKV); len(got) != 0 {
		t.Fatalf("send from failed node should be a no-op, got %v", got)
	}
}

func TestSimulatedBusLayersAreIndependent(t *testing.T) {
	bus := NewSimulatedBus(0, 0, 1)
	bus.Send(addrA, addrB, LayerMembership, []byte("m"))
	bus.Send(addrA, addrB, LayerKV, []byte("k"))

	if got := bus.Recv(addrB, LayerMembership); len(got) != 1 || string(got[0]) != "m" {
		t.Fatalf("expected only the membership frame, got %v", got)
	}
	if got := bus.Recv(addrB, LayerKV); len(got) != 1 || string(got[0]) != "k" {
		t.Fatalf("expected only the KV frame, got %v", got)
	}
}

func TestTickClockAdvances(t *testing.T) {
	c := &TickClock{}
	if c.Now() != 0 {
		t.Fatalf("expected initial tick 0, got %d", c.Now())
	}
	c.Advance()
	c.Advance()
	if c.Now() != 2 {
		t.Fatalf("expected tick 2, got %d", c.Now())
	}
}
