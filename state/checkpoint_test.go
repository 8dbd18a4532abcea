package state

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord() *NodeRecord {
	return &NodeRecord{
		Id:           "alice",
		RoutingX:     0.12,
		RoutingY:     -0.5,
		CoordVersion: 3,
		Neighbors: []NeighborAddr{
			{Id: "bob", Addr: netip.MustParseAddr("10.0.0.2")},
			{Id: "carol", Addr: netip.MustParseAddr("10.0.0.3")},
		},
	}
}

func TestNodeRecordRoundTrip(t *testing.T) {
	rec := sampleRecord()
	data, err := EncodeNodeRecord(rec)
	require.NoError(t, err)

	restored, err := DecodeNodeRecord(data)
	require.NoError(t, err)

	require.Equal(t, rec.Id, restored.Id)
	require.InDelta(t, rec.RoutingX, restored.RoutingX, 1e-12)
	require.InDelta(t, rec.RoutingY, restored.RoutingY, 1e-12)
	require.Equal(t, rec.CoordVersion, restored.CoordVersion)
	require.Equal(t, rec.Neighbors, restored.Neighbors)
}

func TestDecodeNodeRecordRejectsFutureVersion(t *testing.T) {
	rec := sampleRecord()
	data, err := EncodeNodeRecord(rec)
	require.NoError(t, err)
	data[0] = CheckpointVersion + 1

	_, err = DecodeNodeRecord(data)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeNodeRecordRejectsZeroVersion(t *testing.T) {
	rec := sampleRecord()
	data, err := EncodeNodeRecord(rec)
	require.NoError(t, err)
	data[0] = 0

	_, err = DecodeNodeRecord(data)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestAddressIndexLookup(t *testing.T) {
	idx := NewAddressIndex([]*NodeRecord{sampleRecord()})

	id, ok := idx.Lookup(netip.MustParseAddr("10.0.0.2"))
	require.True(t, ok)
	require.Equal(t, NodeId("bob"), id)

	_, ok = idx.Lookup(netip.MustParseAddr("192.168.1.1"))
	require.False(t, ok)
}
