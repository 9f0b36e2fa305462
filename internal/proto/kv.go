package proto

import (
	"fmt"
	"strconv"
	"strings"

	"gossipkv/internal/wireaddr"
)

// Op is a client CRUD operation tag, encoded numerically in REQUEST frames.
type Op int

const (
	OpCreate Op = iota
	OpRead
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "CREATE"
	case OpRead:
		return "READ"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ReplicaRole tags which position in a key's replica triple a REQUEST
// targets (spec §3).
type ReplicaRole int

const (
	RolePrimary ReplicaRole = iota
	RoleSecondary
	RoleTertiary
)

func (r ReplicaRole) String() string {
	switch r {
	case RolePrimary:
		return "PRIMARY"
	case RoleSecondary:
		return "SECONDARY"
	case RoleTertiary:
		return "TERTIARY"
	default:
		return "UNKNOWN"
	}
}

func parseReplicaRole(s string) (ReplicaRole, error) {
	switch s {
	case "PRIMARY":
		return RolePrimary, nil
	case "SECONDARY":
		return RoleSecondary, nil
	case "TERTIARY":
		return RoleTertiary, nil
	default:
		return 0, fmt.Errorf("proto: unknown replica role %q", s)
	}
}

const fieldSep = "::"

// RequestFrame is a CREATE/READ/UPDATE/DELETE KV request.
type RequestFrame struct {
	TransID  int64
	From     wireaddr.Address
	Op       Op
	Key      string
	Value    string // meaningful for CREATE/UPDATE
	Role     ReplicaRole
	HasRole  bool
}

// ReplyFrame is a boolean success/fail reply to CREATE/UPDATE/DELETE.
type ReplyFrame struct {
	TransID int64
	From    wireaddr.Address
	Success bool
}

// ReadReplyFrame carries the value observed for a READ ("" denotes not-found).
type ReadReplyFrame struct {
	TransID int64
	From    wireaddr.Address
	Value   string
}

// EncodeRequest renders a REQUEST frame: transID::fromAddr::type::key[::value][::replicaRole].
func EncodeRequest(f RequestFrame) string {
	parts := []string{
		strconv.FormatInt(f.TransID, 10),
		f.From.String(),
		strconv.Itoa(int(f.Op)),
		f.Key,
	}
	switch f.Op {
	case OpCreate, OpUpdate:
		parts = append(parts, f.Value)
	}
	if f.HasRole {
		// CREATE/UPDATE already appended value; READ/DELETE have none, so pad
		// with an empty value field to keep the role position stable.
		if f.Op == OpRead || f.Op == OpDelete {
			parts = append(parts, "")
		}
		parts = append(parts, f.Role.String())
	}
	return strings.Join(parts, fieldSep)
}

// EncodeReply renders a REPLY frame: transID::fromAddr::REPLY::success(0|1).
func EncodeReply(f ReplyFrame) string {
	success := "0"
	if f.Success {
		success = "1"
	}
	return strings.Join([]string{
		strconv.FormatInt(f.TransID, 10),
		f.From.String(),
		"REPLY",
		success,
	}, fieldSep)
}

// EncodeReadReply renders a READREPLY frame: transID::fromAddr::READREPLY::value.
func EncodeReadReply(f ReadReplyFrame) string {
	return strings.Join([]string{
		strconv.FormatInt(f.TransID, 10),
		f.From.String(),
		"READREPLY",
		f.Value,
	}, fieldSep)
}

// KVFrame is the decoded result of a KV text frame: exactly one of Request,
// Reply or ReadReply is populated, selected by Kind.
type KVFrame struct {
	Kind      string // "REQUEST", "REPLY", "READREPLY"
	Request   RequestFrame
	Reply     ReplyFrame
	ReadReply ReadReplyFrame
}

func parseFromAddr(s string) (wireaddr.Address, error) {
	idStr, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return wireaddr.Address{}, fmt.Errorf("proto: malformed address %q", s)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return wireaddr.Address{}, fmt.Errorf("proto: malformed address id %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return wireaddr.Address{}, fmt.Errorf("proto: malformed address port %q: %w", s, err)
	}
	return wireaddr.Address{ID: uint32(id), Port: uint16(port)}, nil
}

// DecodeKVFrame parses any of the three KV text frame shapes. Decode failure
// drops the frame without mutating any caller state (spec §7).
func DecodeKVFrame(line string) (KVFrame, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) < 4 {
		return KVFrame{}, fmt.Errorf("proto: kv frame has too few fields: %q", line)
	}
	transID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return KVFrame{}, fmt.Errorf("proto: malformed transID in %q: %w", line, err)
	}
	from, err := parseFromAddr(fields[1])
	if err != nil {
		return KVFrame{}, err
	}

	switch fields[2] {
	case "REPLY":
		if len(fields) < 4 {
			return KVFrame{}, fmt.Errorf("proto: short REPLY frame: %q", line)
		}
		return KVFrame{Kind: "REPLY", Reply: ReplyFrame{
			TransID: transID,
			From:    from,
			Success: fields[3] == "1",
		}}, nil
	case "READREPLY":
		value := ""
		if len(fields) >= 4 {
			value = fields[3]
		}
		return KVFrame{Kind: "READREPLY", ReadReply: ReadReplyFrame{
			TransID: transID,
			From:    from,
			Value:   value,
		}}, nil
	default:
		opNum, err := strconv.Atoi(fields[2])
		if err != nil {
			return KVFrame{}, fmt.Errorf("proto: unknown kv frame type %q in %q", fields[2], line)
		}
		op := Op(opNum)
		if op < OpCreate || op > OpDelete {
			return KVFrame{}, fmt.Errorf("proto: invalid op code %d in %q", opNum, line)
		}
		key := fields[3]
		req := RequestFrame{TransID: transID, From: from, Op: op, Key: key}

		rest := fields[4:]
		switch op {
		case OpCreate, OpUpdate:
			if len(rest) == 0 {
				return KVFrame{}, fmt.Errorf("proto: %s request missing value: %q", op, line)
			}
			req.Value = rest[0]
			rest = rest[1:]
		case OpRead, OpDelete:
			if len(rest) > 0 && rest[0] == "" {
				rest = rest[1:]
			}
		}
		if len(rest) > 0 {
			role, err := parseReplicaRole(rest[0])
			if err != nil {
				return KVFrame{}, err
			}
			req.Role = role
			req.HasRole = true
		}
		return KVFrame{Kind: "REQUEST", Request: req}, nil
	}
}
