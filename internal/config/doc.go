// Package config loads node and cluster configuration: a comma-separated
// peer list in the teacher's "id=addr" convention, extended to parse
// wireaddr.Address pairs, plus an optional YAML cluster-topology file for
// static multi-node demos (ambient stack, see SPEC_FULL.md §6.1).
package config
