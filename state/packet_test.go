package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	p := NewPacket("alice", "bob", 0.3, -0.2, 42)
	p.Mode = ModeTZ
	p.TTL = 17

	data, err := p.MarshalBinary()
	require.NoError(t, err)

	restored := &Packet{}
	require.NoError(t, restored.UnmarshalBinary(data))

	require.Equal(t, p.Id, restored.Id)
	require.Equal(t, p.Source, restored.Source)
	require.Equal(t, p.Destination, restored.Destination)
	require.Equal(t, p.TTL, restored.TTL)
	require.Equal(t, p.Mode, restored.Mode)
	require.InDelta(t, p.DestX, restored.DestX, 1e-12)
	require.InDelta(t, p.DestY, restored.DestY, 1e-12)
}

func TestPacketUnmarshalRejectsBadVersion(t *testing.T) {
	p := NewPacket("alice", "bob", 0, 0, 10)
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	data[0] = 0xFF

	restored := &Packet{}
	err = restored.UnmarshalBinary(data)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestModeString(t *testing.T) {
	require.Equal(t, "gravity", ModeGravity.String())
	require.Equal(t, "pressure", ModePressure.String())
	require.Equal(t, "tz", ModeTZ.String())
	require.Equal(t, "tree", ModeTree.String())
}
