// Package proto implements the wire codecs for the membership and KV
// protocols (spec §6). Manual byte packing in the original source is
// re-expressed here as one encode/decode pair per message type, each
// returning a typed frame or a decode-error value — decode failures never
// panic and never partially mutate caller state (spec §7).
package proto

import (
	"encoding/binary"
	"fmt"

	"gossipkv/internal/wireaddr"
)

// MsgType tags a membership frame's 4-byte header.
type MsgType uint32

const (
	MsgJoinReq MsgType = iota + 1
	MsgJoinRep
	MsgGossip
)

const headerSize = 4

// joinPayloadSize is addr(6) + pad(1) + heartbeat(8): the address, one zero
// pad byte, then the heartbeat. The original source's sender and receiver
// disagree on whether that pad byte is present; here encodeJoin and
// decodeJoin share this one layout, so sender and receiver always agree.
const joinPayloadSize = wireaddr.Size + 1 + 8

// JoinMsg is the payload shared by JOINREQ and JOINREP.
type JoinMsg struct {
	Addr      wireaddr.Address
	Heartbeat int64
}

func encodeJoin(msgType MsgType, m JoinMsg) []byte {
	buf := make([]byte, headerSize+joinPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(msgType))
	addrBytes := m.Addr.Bytes()
	copy(buf[headerSize:headerSize+wireaddr.Size], addrBytes[:])
	// buf[headerSize+wireaddr.Size] is the pad byte, left zero.
	binary.LittleEndian.PutUint64(buf[headerSize+wireaddr.Size+1:], uint64(m.Heartbeat))
	return buf
}

func decodeJoin(b []byte) (JoinMsg, error) {
	if len(b) < headerSize+joinPayloadSize {
		return JoinMsg{}, fmt.Errorf("proto: short join frame: got %d bytes", len(b))
	}
	addr, err := wireaddr.FromBytes(b[headerSize : headerSize+wireaddr.Size])
	if err != nil {
		return JoinMsg{}, err
	}
	hb := int64(binary.LittleEndian.Uint64(b[headerSize+wireaddr.Size+1:]))
	return JoinMsg{Addr: addr, Heartbeat: hb}, nil
}

// EncodeJoinReq encodes a JOINREQ frame.
func EncodeJoinReq(m JoinMsg) []byte { return encodeJoin(MsgJoinReq, m) }

// EncodeJoinRep encodes a JOINREP frame.
func EncodeJoinRep(m JoinMsg) []byte { return encodeJoin(MsgJoinRep, m) }

// GossipEntry is one member record carried in a GOSSIP frame.
type GossipEntry struct {
	ID        uint32
	Port      uint16
	Heartbeat int64
}

// GossipMsg is the GOSSIP frame payload: count followed by that many entries.
type GossipMsg struct {
	Entries []GossipEntry
}

const gossipEntrySize = 4 + 2 + 8

// EncodeGossip encodes a GOSSIP frame.
func EncodeGossip(m GossipMsg) []byte {
	buf := make([]byte, headerSize+4+len(m.Entries)*gossipEntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(MsgGossip))
	binary.LittleEndian.PutUint32(buf[headerSize:headerSize+4], uint32(len(m.Entries)))
	off := headerSize + 4
	for _, e := range m.Entries {
		binary.LittleEndian.PutUint32(buf[off:off+4], e.ID)
		binary.LittleEndian.PutUint16(buf[off+4:off+6], e.Port)
		binary.LittleEndian.PutUint64(buf[off+6:off+14], uint64(e.Heartbeat))
		off += gossipEntrySize
	}
	return buf
}

func decodeGossip(b []byte) (GossipMsg, error) {
	if len(b) < headerSize+4 {
		return GossipMsg{}, fmt.Errorf("proto: short gossip frame: got %d bytes", len(b))
	}
	count := int(binary.LittleEndian.Uint32(b[headerSize : headerSize+4]))
	want := headerSize + 4 + count*gossipEntrySize
	if count < 0 || len(b) < want {
		return GossipMsg{}, fmt.Errorf("proto: gossip frame truncated: declared %d entries, got %d bytes", count, len(b))
	}
	entries := make([]GossipEntry, count)
	off := headerSize + 4
	for i := 0; i < count; i++ {
		entries[i] = GossipEntry{
			ID:        binary.LittleEndian.Uint32(b[off : off+4]),
			Port:      binary.LittleEndian.Uint16(b[off+4 : off+6]),
			Heartbeat: int64(binary.LittleEndian.Uint64(b[off+6 : off+14])),
		}
		off += gossipEntrySize
	}
	return GossipMsg{Entries: entries}, nil
}

// MembershipFrame is the decoded result of a membership message: exactly one
// of JoinReq, JoinRep or Gossip is populated, selected by Type.
type MembershipFrame struct {
	Type    MsgType
	JoinReq JoinMsg
	JoinRep JoinMsg
	Gossip  GossipMsg
}

// DecodeMembershipFrame reads the 4-byte type header and dispatches to the
// matching payload decoder. Unknown types and malformed payloads are
// reported as an error; per spec §7 the caller must drop the frame and leave
// all state untouched.
func DecodeMembershipFrame(b []byte) (MembershipFrame, error) {
	if len(b) < headerSize {
		return MembershipFrame{}, fmt.Errorf("proto: short frame header: got %d bytes", len(b))
	}
	msgType := MsgType(binary.LittleEndian.Uint32(b[0:4]))
	switch msgType {
	case MsgJoinReq:
		m, err := decodeJoin(b)
		if err != nil {
			return MembershipFrame{}, err
		}
		return MembershipFrame{Type: msgType, JoinReq: m}, nil
	case MsgJoinRep:
		m, err := decodeJoin(b)
		if err != nil {
			return MembershipFrame{}, err
		}
		return MembershipFrame{Type: msgType, JoinRep: m}, nil
	case MsgGossip:
		m, err := decodeGossip(b)
		if err != nil {
			return MembershipFrame{}, err
		}
		return MembershipFrame{Type: msgType, Gossip: m}, nil
	default:
		return MembershipFrame{}, fmt.Errorf("proto: unknown membership msgType %d", msgType)
	}
}
