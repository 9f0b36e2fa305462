// Package quorum drives the 2-of-3 quorum coordinator: it issues a KV
// request to each of a key's three replicas, collects replies into a
// QuorumTracker, and finalizes exactly once — on quorum success, on
// all-replied failure, or on T_QUORUM timeout (spec §4.4).
package quorum
