// Package stabilize restores the replica-triple invariant after ring
// membership changes (spec §4.3). It is grounded on the repair concerns of
// internal/repair (detect-then-push) and internal/replication
// (ring→replica lookup) in the teacher repo, generalized from vector-clock
// sibling reconciliation to the spec's simpler CREATE-on-join repair: no
// conflict resolution is needed because keys are single-valued and replicas
// are pushed forward only, never merged.
package stabilize
