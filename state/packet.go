package state

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Mode is the forwarding FSM's tagged variant (§4.F, §9: "expressed as a
// tagged variant, not as subclassing").
type Mode uint8

const (
	ModeGravity Mode = iota
	ModePressure
	ModeTZ
	ModeTree
)

func (m Mode) String() string {
	switch m {
	case ModeGravity:
		return "gravity"
	case ModePressure:
		return "pressure"
	case ModeTZ:
		return "tz"
	case ModeTree:
		return "tree"
	default:
		return "unknown"
	}
}

// Packet is the immutable-identity, mutable-state unit routed by the FSM
// (§3). It is created at the source and mutated at each forwarder; no
// field is ever shared between concurrently routed packets.
type Packet struct {
	Id          uuid.UUID
	Source      NodeId
	Destination NodeId
	DestX, DestY float64 // destination coordinate hint

	TTL  uint32
	Mode Mode

	Visited  map[NodeId]struct{}
	Pressure map[NodeId]float64

	RecoveryThreshold float64 // d*
	PressureBudget    int

	// DFSStack records the Tree-mode backtrack path.
	DFSStack []NodeId
}

// NewPacket creates a packet in its initial Gravity state, mirroring the
// donor's *Header::new constructors that zero every mutable field and set
// a single starting mode.
func NewPacket(source, dest NodeId, destX, destY float64, ttl uint32) *Packet {
	return &Packet{
		Id:                uuid.New(),
		Source:            source,
		Destination:       dest,
		DestX:             destX,
		DestY:             destY,
		TTL:               ttl,
		Mode:              ModeGravity,
		Visited:           make(map[NodeId]struct{}),
		Pressure:          make(map[NodeId]float64),
		RecoveryThreshold: 0,
		PressureBudget:    0,
	}
}

func (p *Packet) HasVisited(n NodeId) bool {
	_, ok := p.Visited[n]
	return ok
}

func (p *Packet) Visit(n NodeId) {
	p.Visited[n] = struct{}{}
}

// wire format: [version byte][id 16 bytes][ttl u32][mode byte]
// [source len u16][source][dest len u16][dest][destX f64][destY f64],
// integers and floats big-endian.
// A minimal self-describing encoding sufficient for the round-trip law in
// §8; visited/pressure/DFS state is per-hop scratch state that the
// collaborator transport does not need to persist between hops (it lives
// alongside the packet, it is not recovered from a checkpoint).
const packetWireVersion byte = 1

// MarshalBinary serializes the packet's identity and protocol-visible
// fields. Grounded on the donor's versioned-bundle convention in
// state/distribution.go (leading version byte, self-describing payload).
func (p *Packet) MarshalBinary() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte(packetWireVersion)
	idBytes, err := p.Id.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(idBytes)
	if err := binary.Write(buf, binary.BigEndian, p.TTL); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(p.Mode))
	writeString(buf, string(p.Source))
	writeString(buf, string(p.Destination))
	if err := binary.Write(buf, binary.BigEndian, p.DestX); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, p.DestY); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary (§8 round-trip law).
func (p *Packet) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)
	version, err := buf.ReadByte()
	if err != nil {
		return err
	}
	if version != packetWireVersion {
		return fmt.Errorf("hxroute: %w: packet version %d", ErrUnsupportedVersion, version)
	}
	idBytes := make([]byte, 16)
	if _, err := buf.Read(idBytes); err != nil {
		return err
	}
	id, err := uuid.FromBytes(idBytes)
	if err != nil {
		return err
	}
	p.Id = id
	if err := binary.Read(buf, binary.BigEndian, &p.TTL); err != nil {
		return err
	}
	modeByte, err := buf.ReadByte()
	if err != nil {
		return err
	}
	p.Mode = Mode(modeByte)
	src, err := readString(buf)
	if err != nil {
		return err
	}
	dst, err := readString(buf)
	if err != nil {
		return err
	}
	p.Source = NodeId(src)
	p.Destination = NodeId(dst)
	if err := binary.Read(buf, binary.BigEndian, &p.DestX); err != nil {
		return err
	}
	if err := binary.Read(buf, binary.BigEndian, &p.DestY); err != nil {
		return err
	}
	if p.Visited == nil {
		p.Visited = make(map[NodeId]struct{})
	}
	if p.Pressure == nil {
		p.Pressure = make(map[NodeId]float64)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(buf *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := buf.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
