// Package sched drives one node through the fixed per-tick operation order
// of spec §5: membership receive, membership housekeeping, ring rebuild and
// stabilization, KV receive and dispatch, quorum timeout sweep. It is the
// wiring point for every other internal package; nothing outside sched
// calls more than one of them directly.
package sched
