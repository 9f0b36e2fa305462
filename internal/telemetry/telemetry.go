// Package telemetry adapts the external logging contract of spec §6 to a
// Go interface, following the teacher's convention of per-node prefixed
// log.Printf calls (internal/node's "[%s] ..." style) rather than a
// structured logging library — none of the retrieved pack pulls in one, so
// the standard log package is used directly (see DESIGN.md).
package telemetry

import (
	"log"

	"gossipkv/internal/wireaddr"
)

// Sink is the named-event log contract consumed by the core (spec §6).
// Implementations must not assume idempotency: callers emit at most one
// terminal event per transID themselves.
type Sink interface {
	NodeAdd(self, other wireaddr.Address)
	NodeRemove(self, other wireaddr.Address)

	CreateSuccess(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	CreateFail(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	ReadSuccess(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	ReadFail(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	UpdateSuccess(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	UpdateFail(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	DeleteSuccess(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
	DeleteFail(self wireaddr.Address, isCoordinator bool, transID int64, key, value string)
}

// LogSink is the default Sink, writing to the standard log package.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink builds a LogSink writing through logger, or log.Default() if nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) NodeAdd(self, other wireaddr.Address) {
	s.logger.Printf("[%s] node_add: %s", self, other)
}

func (s *LogSink) NodeRemove(self, other wireaddr.Address) {
	s.logger.Printf("[%s] node_remove: %s", self, other)
}

func (s *LogSink) op(verb string, self wireaddr.Address, isCoordinator bool, transID int64, key, value string) {
	role := "replica"
	if isCoordinator {
		role = "coordinator"
	}
	s.logger.Printf("[%s] %s (%s) transID=%d key=%s value=%q", self, verb, role, transID, key, value)
}

func (s *LogSink) CreateSuccess(self wireaddr.Address, c bool, t int64, k, v string) { s.op("create_success", self, c, t, k, v) }
func (s *LogSink) CreateFail(self wireaddr.Address, c bool, t int64, k, v string)    { s.op("create_fail", self, c, t, k, v) }
func (s *LogSink) ReadSuccess(self wireaddr.Address, c bool, t int64, k, v string)   { s.op("read_success", self, c, t, k, v) }
func (s *LogSink) ReadFail(self wireaddr.Address, c bool, t int64, k, v string)      { s.op("read_fail", self, c, t, k, v) }
func (s *LogSink) UpdateSuccess(self wireaddr.Address, c bool, t int64, k, v string) { s.op("update_success", self, c, t, k, v) }
func (s *LogSink) UpdateFail(self wireaddr.Address, c bool, t int64, k, v string)    { s.op("update_fail", self, c, t, k, v) }
func (s *LogSink) DeleteSuccess(self wireaddr.Address, c bool, t int64, k, v string) { s.op("delete_success", self, c, t, k, v) }
func (s *LogSink) DeleteFail(self wireaddr.Address, c bool, t int64, k, v string)    { s.op("delete_fail", self, c, t, k, v) }

// Event is one recorded call against a Recording sink, used by tests instead
// of mocking the Sink interface.
type Event struct {
	Kind          string
	Self, Other   wireaddr.Address
	IsCoordinator bool
	TransID       int64
	Key, Value    string
}

// Recording is a Sink that appends every call to Events, for assertions in
// property and scenario tests (teacher's it/harness.go plays the equivalent
// role via subprocess logs; here it is an in-process double).
type Recording struct {
	Events []Event
}

func (r *Recording) record(kind string, self wireaddr.Address, isCoordinator bool, transID int64, key, value string) {
	r.Events = append(r.Events, Event{Kind: kind, Self: self, IsCoordinator: isCoordinator, TransID: transID, Key: key, Value: value})
}

func (r *Recording) NodeAdd(self, other wireaddr.Address)    { r.record("node_add", self, false, 0, "", ""); r.Events[len(r.Events)-1].Other = other }
func (r *Recording) NodeRemove(self, other wireaddr.Address) { r.record("node_remove", self, false, 0, "", ""); r.Events[len(r.Events)-1].Other = other }

func (r *Recording) CreateSuccess(self wireaddr.Address, c bool, t int64, k, v string) { r.record("create_success", self, c, t, k, v) }
func (r *Recording) CreateFail(self wireaddr.Address, c bool, t int64, k, v string)    { r.record("create_fail", self, c, t, k, v) }
func (r *Recording) ReadSuccess(self wireaddr.Address, c bool, t int64, k, v string)   { r.record("read_success", self, c, t, k, v) }
func (r *Recording) ReadFail(self wireaddr.Address, c bool, t int64, k, v string)      { r.record("read_fail", self, c, t, k, v) }
func (r *Recording) UpdateSuccess(self wireaddr.Address, c bool, t int64, k, v string) { r.record("update_success", self, c, t, k, v) }
func (r *Recording) UpdateFail(self wireaddr.Address, c bool, t int64, k, v string)    { r.record("update_fail", self, c, t, k, v) }
func (r *Recording) DeleteSuccess(self wireaddr.Address, c bool, t int64, k, v string) { r.record("delete_success", self, c, t, k, v) }
func (r *Recording) DeleteFail(self wireaddr.Address, c bool, t int64, k, v string)    { r.record("delete_fail", self, c, t, k, v) }

// CountKind returns how many recorded events match kind, coordinator-side
// and replica-side alike. A quorum op of kind X logs once per replica plus
// once from the coordinator (spec §4.5); use CountCoordinatorKind to count
// only the client-visible terminal event.
func (r *Recording) CountKind(kind string) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// CountCoordinatorKind returns how many recorded events match kind and were
// logged by the coordinator (IsCoordinator), i.e. the client-visible
// terminal outcome of a quorum op, excluding each replica's own server-side
// log of the same kind.
func (r *Recording) CountCoordinatorKind(kind string) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind && e.IsCoordinator {
			n++
		}
	}
	return n
}
