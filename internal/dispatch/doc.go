// Package dispatch applies inbound KV requests to the local store and
// replies to the requester (spec §4.5). It trusts the coordinator's replica
// placement and never consults the ring itself.
package dispatch
