package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExperimentCfgWithDefaults(t *testing.T) {
	c := (&ExperimentCfg{Nodes: 100, Topology: TopologyBarabasiAlbert}).WithDefaults()
	require.Equal(t, HeartbeatPeriod, c.HeartbeatPeriod)
	require.Equal(t, SuspectMultiplier, c.SuspectMultiplier)
	require.Equal(t, DeadMultiplier, c.DeadMultiplier)
	require.Equal(t, DefaultTTL, c.TTL)
	require.Equal(t, 1000, c.Trials)
}

func TestValidateExperimentCfg(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ExperimentCfg
		wantErr bool
	}{
		{"valid", ExperimentCfg{Nodes: 10, Topology: TopologyGrid, GridSide: 4, DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 0.95}, false},
		{"zero nodes", ExperimentCfg{Nodes: 0, Topology: TopologyGrid, GridSide: 4, DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 0.95}, true},
		{"unknown topology", ExperimentCfg{Nodes: 10, Topology: "bogus", DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 0.95}, true},
		{"grid missing side", ExperimentCfg{Nodes: 10, Topology: TopologyGrid, DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 0.95}, true},
		{"bad edge prob", ExperimentCfg{Nodes: 10, Topology: TopologyErdosRenyi, EdgeProb: 1.5, DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 0.95}, true},
		{"dead <= suspect", ExperimentCfg{Nodes: 10, Topology: TopologyGrid, GridSide: 4, DeadMultiplier: 2, SuspectMultiplier: 3, PressureDecay: 0.95}, true},
		{"bad decay", ExperimentCfg{Nodes: 10, Topology: TopologyGrid, GridSide: 4, DeadMultiplier: 5, SuspectMultiplier: 3, PressureDecay: 1.5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateExperimentCfg(&tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
