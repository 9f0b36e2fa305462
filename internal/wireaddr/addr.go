// Package wireaddr implements the 6-byte node address used throughout the
// membership and KV wire protocols: a 4-byte id followed by a 2-byte port.
package wireaddr

import (
	"encoding/binary"
	"fmt"
)

// Size is the wire length of an Address: 4-byte id + 2-byte port.
const Size = 6

// Address identifies a node: a 32-bit id and a 16-bit port, compared by byte
// equality per spec.
type Address struct {
	ID   uint32
	Port uint16
}

// Null is the all-zero address.
var Null = Address{}

// IsNull reports whether a equals the all-zero address.
func (a Address) IsNull() bool {
	return a == Null
}

// Bytes encodes a into its 6-byte wire form, id then port, both little-endian.
func (a Address) Bytes() [Size]byte {
	var buf [Size]byte
	binary.LittleEndian.PutUint32(buf[0:4], a.ID)
	binary.LittleEndian.PutUint16(buf[4:6], a.Port)
	return buf
}

// FromBytes decodes a 6-byte wire address.
func FromBytes(b []byte) (Address, error) {
	if len(b) < Size {
		return Address{}, fmt.Errorf("wireaddr: short buffer: got %d bytes, need %d", len(b), Size)
	}
	return Address{
		ID:   binary.LittleEndian.Uint32(b[0:4]),
		Port: binary.LittleEndian.Uint16(b[4:6]),
	}, nil
}

// Less gives the lexical ordering over the 6-byte wire form used to break
// hash ties on the ring (spec §4.2): the wire bytes are compared directly,
// not the numeric ID/Port fields, since Bytes() is little-endian and the
// two orders diverge.
func (a Address) Less(b Address) bool {
	ab, bb := a.Bytes(), b.Bytes()
	for i := range ab {
		if ab[i] != bb[i] {
			return ab[i] < bb[i]
		}
	}
	return false
}

// String renders an address as "id:port" for logs.
func (a Address) String() string {
	return fmt.Sprintf("%d:%d", a.ID, a.Port)
}
