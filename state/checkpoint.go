package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/gaissmai/bart"
)

// ErrUnsupportedVersion is raised when a checkpoint's leading version byte
// falls outside the range this build knows how to decode (§6).
var ErrUnsupportedVersion = errors.New("unsupported checkpoint version")

// NeighborAddr pairs a neighbor id with the address the transport
// collaborator last associated with it, as recorded in a checkpoint (§6:
// "neighbor id list with addresses").
type NeighborAddr struct {
	Id   NodeId
	Addr netip.Addr
}

// NodeRecord is one versioned, self-describing checkpoint record (§6).
type NodeRecord struct {
	Version         byte
	Id              NodeId
	RoutingX        float64
	RoutingY        float64
	CoordVersion    uint64
	Neighbors       []NeighborAddr
}

// EncodeNodeRecord serializes a NodeRecord with the leading version byte
// required by §6, in the same style as MarshalBinary on state.Packet.
func EncodeNodeRecord(r *NodeRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte(CheckpointVersion)
	writeString(buf, string(r.Id))
	if err := binary.Write(buf, binary.BigEndian, r.RoutingX); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, r.RoutingY); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, r.CoordVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(r.Neighbors))); err != nil {
		return nil, err
	}
	for _, n := range r.Neighbors {
		writeString(buf, string(n.Id))
		addrBytes := n.Addr.AsSlice()
		buf.WriteByte(byte(len(addrBytes)))
		buf.Write(addrBytes)
	}
	return buf.Bytes(), nil
}

// DecodeNodeRecord is the inverse of EncodeNodeRecord. A record whose
// version is newer than CheckpointVersion (or is zero/unrecognised) is
// rejected with ErrUnsupportedVersion rather than partially decoded, per
// §6's "schema evolution uses a leading version byte" contract.
func DecodeNodeRecord(data []byte) (*NodeRecord, error) {
	buf := bytes.NewReader(data)
	version, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}
	if version == 0 || version > CheckpointVersion {
		return nil, fmt.Errorf("%w: got version %d, support up to %d", ErrUnsupportedVersion, version, CheckpointVersion)
	}
	id, err := readString(buf)
	if err != nil {
		return nil, err
	}
	r := &NodeRecord{Version: version, Id: NodeId(id)}
	if err := binary.Read(buf, binary.BigEndian, &r.RoutingX); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.BigEndian, &r.RoutingY); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.BigEndian, &r.CoordVersion); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(buf, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	r.Neighbors = make([]NeighborAddr, 0, count)
	for i := uint32(0); i < count; i++ {
		nid, err := readString(buf)
		if err != nil {
			return nil, err
		}
		addrLen, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		addrBytes := make([]byte, addrLen)
		if _, err := buf.Read(addrBytes); err != nil {
			return nil, err
		}
		addr, ok := netip.AddrFromSlice(addrBytes)
		if !ok {
			return nil, fmt.Errorf("hxroute: malformed neighbor address for %s", nid)
		}
		r.Neighbors = append(r.Neighbors, NeighborAddr{Id: NodeId(nid), Addr: addr})
	}
	return r, nil
}

// AddressIndex is a reverse index from address prefix to node id, built
// from a set of checkpoint records. It reuses the donor's bart.Table (its
// live forwarding/exit table in core/router.go) for its intended purpose,
// longest-prefix match, but here as a restore-time lookup: given an
// address the transport collaborator observes, find which checkpointed
// node it belongs to, without the core needing to know the deployment's
// addressing scheme at embed/build time.
type AddressIndex struct {
	table bart.Table[NodeId]
}

// NewAddressIndex builds the index from a checkpoint's node records.
func NewAddressIndex(records []*NodeRecord) *AddressIndex {
	idx := &AddressIndex{}
	for _, r := range records {
		for _, n := range r.Neighbors {
			bits := n.Addr.BitLen()
			prefix := netip.PrefixFrom(n.Addr, bits)
			idx.table.Insert(prefix, n.Id)
		}
	}
	return idx
}

// Lookup returns the node id owning addr, if any.
func (a *AddressIndex) Lookup(addr netip.Addr) (NodeId, bool) {
	return a.table.Lookup(addr)
}
