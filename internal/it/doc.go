// Package it runs whole-cluster integration scenarios against sched.Driver
// and an in-memory transport.SimulatedBus. It replaces the teacher's
// subprocess+gRPC Cluster harness (internal/it/harness.go) with an
// in-process one: the spec's nodes are goroutine-free tick-driven state
// machines, so there is no process to spawn and no port to dial.
package it
