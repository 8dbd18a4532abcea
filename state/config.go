package state

import (
	"fmt"
	"time"
)

// TopologyKind selects a generator in the harness package (component H).
type TopologyKind string

const (
	TopologyBarabasiAlbert TopologyKind = "barabasi-albert"
	TopologyWattsStrogatz  TopologyKind = "watts-strogatz"
	TopologyGrid           TopologyKind = "grid"
	TopologyErdosRenyi     TopologyKind = "erdos-renyi"
)

// ExperimentCfg is loaded from YAML via goccy/go-yaml, mirroring the
// donor's CentralCfg/LocalCfg split between network-wide and per-run
// configuration. A single struct suffices here since the core has no
// per-node deployment concerns (those belong to the out-of-scope
// transport collaborator).
type ExperimentCfg struct {
	Nodes    int          `yaml:"nodes"`
	Topology TopologyKind `yaml:"topology"`
	Seed     uint64       `yaml:"seed"`

	// Topology specific, ignored by the other generators: Degree is m for
	// Barabasi-Albert and k for Watts-Strogatz, RewireProb is
	// Watts-Strogatz, EdgeProb is Erdos-Renyi, GridSide is grid.
	Degree       int     `yaml:"degree,omitempty"`
	RewireProb   float64 `yaml:"rewire_prob,omitempty"`
	EdgeProb     float64 `yaml:"edge_prob,omitempty"` // Erdos-Renyi
	GridSide     int     `yaml:"grid_side,omitempty"`

	Trials int `yaml:"trials"`

	HeartbeatPeriod   time.Duration `yaml:"heartbeat_period,omitempty"`
	SuspectMultiplier int           `yaml:"suspect_multiplier,omitempty"`
	DeadMultiplier    int           `yaml:"dead_multiplier,omitempty"`

	LandmarkDensity      float64 `yaml:"landmark_density,omitempty"`
	PieDepthConstant     float64 `yaml:"pie_depth_constant,omitempty"`
	PressureIncrement    float64 `yaml:"pressure_increment,omitempty"`
	PressureDecay        float64 `yaml:"pressure_decay,omitempty"`
	StickyRecoveryMargin float64 `yaml:"sticky_recovery_margin,omitempty"`
	TTL                  uint32  `yaml:"ttl,omitempty"`
}

// WithDefaults fills zero-valued tunables from the package defaults in
// constants.go, the same "load, then apply defaults" two-step the donor
// uses for LocalCfg/CentralCfg before validation.
func (c *ExperimentCfg) WithDefaults() *ExperimentCfg {
	if c.HeartbeatPeriod == 0 {
		c.HeartbeatPeriod = HeartbeatPeriod
	}
	if c.SuspectMultiplier == 0 {
		c.SuspectMultiplier = SuspectMultiplier
	}
	if c.DeadMultiplier == 0 {
		c.DeadMultiplier = DeadMultiplier
	}
	if c.LandmarkDensity == 0 {
		c.LandmarkDensity = LandmarkDensity
	}
	if c.PieDepthConstant == 0 {
		c.PieDepthConstant = PieDepthConstant
	}
	if c.PressureIncrement == 0 {
		c.PressureIncrement = PressureIncrement
	}
	if c.PressureDecay == 0 {
		c.PressureDecay = PressureDecay
	}
	if c.StickyRecoveryMargin == 0 {
		c.StickyRecoveryMargin = StickyRecoveryMargin
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Trials == 0 {
		c.Trials = 1000
	}
	return c
}

// Apply copies the validated tunables onto the package vars in
// constants.go that pie, tzoracle, forwarding, and churn actually consult.
// Call this once, after WithDefaults/ValidateExperimentCfg, before running
// any command — mirrors the donor's pattern of a config struct driving
// package-level state at process startup rather than each package
// reaching into a config object per call.
func (c *ExperimentCfg) Apply() {
	HeartbeatPeriod = c.HeartbeatPeriod
	SuspectMultiplier = c.SuspectMultiplier
	DeadMultiplier = c.DeadMultiplier
	LandmarkDensity = c.LandmarkDensity
	PieDepthConstant = c.PieDepthConstant
	PressureIncrement = c.PressureIncrement
	PressureDecay = c.PressureDecay
	StickyRecoveryMargin = c.StickyRecoveryMargin
	DefaultTTL = c.TTL
}

// ValidateExperimentCfg mirrors the donor's CentralConfigValidator /
// NodeConfigValidator pattern: one function per config struct, returning
// the first violated invariant.
func ValidateExperimentCfg(c *ExperimentCfg) error {
	if c.Nodes <= 0 {
		return fmt.Errorf("nodes must be positive, got %d", c.Nodes)
	}
	switch c.Topology {
	case TopologyBarabasiAlbert, TopologyWattsStrogatz, TopologyGrid, TopologyErdosRenyi:
	default:
		return fmt.Errorf("unknown topology %q", c.Topology)
	}
	if c.Topology == TopologyGrid && c.GridSide <= 0 {
		return fmt.Errorf("grid topology requires grid_side > 0")
	}
	if c.Topology == TopologyErdosRenyi && (c.EdgeProb < 0 || c.EdgeProb > 1) {
		return fmt.Errorf("edge_prob must be in [0,1], got %f", c.EdgeProb)
	}
	if c.DeadMultiplier <= c.SuspectMultiplier {
		return fmt.Errorf("dead_multiplier (%d) must exceed suspect_multiplier (%d)", c.DeadMultiplier, c.SuspectMultiplier)
	}
	if c.PressureDecay <= 0 || c.PressureDecay >= 1 {
		return fmt.Errorf("pressure_decay must be in (0,1), got %f", c.PressureDecay)
	}
	return nil
}
