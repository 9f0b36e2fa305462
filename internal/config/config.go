package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gossipkv/internal/wireaddr"
)

// Peer names one cluster member by a short ID and its wireaddr.Address,
// following the teacher's "id=addr" peer-list convention (config.go),
// generalized from a TCP host:port string to the spec's 6-byte address.
type Peer struct {
	ID   string
	Addr wireaddr.Address
}

// Node is this process's own configuration: its address, the cluster
// introducer to bootstrap against, and the tick thresholds of spec §6.
type Node struct {
	Self       wireaddr.Address
	Introducer wireaddr.Address
	RingSize   uint32
	TGossip    int64
	TFail      int64
	TRemove    int64
	TQuorum    int64
	Peers      []Peer
}

// ParsePeers parses a comma-separated "id=id:port,id=id:port" peer list,
// the same shape the teacher's ParsePeers accepts, with addr parsed as a
// wireaddr.Address instead of a host:port string.
func ParsePeers(peersStr string) ([]Peer, error) {
	if strings.TrimSpace(peersStr) == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("config: invalid peer format %q (expected id=id:port)", part)
		}

		id := strings.TrimSpace(kv[0])
		addrStr := strings.TrimSpace(kv[1])
		if id == "" || addrStr == "" {
			return nil, fmt.Errorf("config: peer id and address cannot be empty: %q", part)
		}

		addr, err := parseAddr(addrStr)
		if err != nil {
			return nil, fmt.Errorf("config: peer %q: %w", part, err)
		}

		peers = append(peers, Peer{ID: id, Addr: addr})
	}

	return peers, nil
}

func parseAddr(s string) (wireaddr.Address, error) {
	idStr, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return wireaddr.Address{}, fmt.Errorf("malformed address %q, expected id:port", s)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return wireaddr.Address{}, fmt.Errorf("malformed address id %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return wireaddr.Address{}, fmt.Errorf("malformed address port %q: %w", s, err)
	}
	return wireaddr.Address{ID: uint32(id), Port: uint16(port)}, nil
}

// topologyFile is the on-disk YAML shape for a static cluster topology
// (SPEC_FULL.md §6.1): a ring size, tick thresholds, and the full peer set
// including which peer is the introducer.
type topologyFile struct {
	RingSize   uint32   `yaml:"ring_size"`
	TGossip    int64    `yaml:"t_gossip"`
	TFail      int64    `yaml:"t_fail"`
	TRemove    int64    `yaml:"t_remove"`
	TQuorum    int64    `yaml:"t_quorum"`
	Introducer string   `yaml:"introducer"`
	Peers      []string `yaml:"peers"` // each "id=id:port"
}

// LoadTopology reads a YAML cluster-topology file and resolves self's Node
// configuration from it. self must match one of the peers' addr field.
func LoadTopology(path string, self wireaddr.Address) (Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("config: reading topology file: %w", err)
	}

	var tf topologyFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return Node{}, fmt.Errorf("config: parsing topology yaml: %w", err)
	}

	peers, err := ParsePeers(strings.Join(tf.Peers, ","))
	if err != nil {
		return Node{}, err
	}

	introducerAddr, err := parseAddr(tf.Introducer)
	if err != nil {
		return Node{}, fmt.Errorf("config: introducer: %w", err)
	}

	found := false
	for _, p := range peers {
		if p.Addr == self {
			found = true
			break
		}
	}
	if !found {
		return Node{}, fmt.Errorf("config: self address %s not present in topology peer list", self)
	}

	return Node{
		Self:       self,
		Introducer: introducerAddr,
		RingSize:   tf.RingSize,
		TGossip:    tf.TGossip,
		TFail:      tf.TFail,
		TRemove:    tf.TRemove,
		TQuorum:    tf.TQuorum,
		Peers:      peers,
	}, nil
}
