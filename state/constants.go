package state

import "time"

// Tunable constants. As in the donor's state/constants.go, these are plain
// package vars rather than a config struct field with a derivation — §9
// notes that sticky-recovery margin and pressure decay are a tuned pair
// without a closed-form derivation in the source this was distilled from,
// so they are documented as configurable defaults instead of being baked
// into the algorithm.
var (
	// LandmarkDensity is k in |L| = ceil(k*sqrt(n)).
	LandmarkDensity = 1.0

	// PieDepthConstant is c in r_d = tanh(c*d/2).
	PieDepthConstant = 1.0

	// PressureIncrement is added to a node's pressure value each time a
	// packet is forwarded there in Pressure mode.
	PressureIncrement = 5.0

	// PressureDecay is applied to every entry in the pressure map after
	// each Pressure-mode hop.
	PressureDecay = 0.95

	// StickyRecoveryMargin is δ: Pressure/Tree only returns to Gravity
	// once dist(u, dest) < d* - δ.
	StickyRecoveryMargin = 1e-3

	// ClampEpsilon is ε in the Poincaré-disk invariant ‖z‖ < 1-ε.
	ClampEpsilon = 1e-6

	// HeartbeatPeriod is the collaborator-driven liveness tick interval;
	// T_suspect and T_dead are expressed as multiples of it.
	HeartbeatPeriod     = 200 * time.Millisecond
	SuspectMultiplier   = 3
	DeadMultiplier      = 5

	// DefaultTTL bounds the number of hops a packet may take before it is
	// dropped with forwarding.FailTTLExpired.
	DefaultTTL uint32 = 64

	// RebuildDebounce is the delay between a churn rebuild being scheduled
	// and it being dispatched. Each scheduling call dispatches its own
	// rebuild; calls made within the window are not merged. Deaths recorded
	// before a rebuild starts are all included, since it reads the current
	// dead-set at its start.
	RebuildDebounce = 10 * time.Millisecond
)

// Debug toggles, flippable from the CLI, in the same spirit as the donor's
// state.DBG_* package vars.
var (
	DBG_log_fsm    = false
	DBG_log_churn  = false
	DBG_log_oracle = false
)

// CheckpointVersion is the leading version byte of a persisted coordinate
// record (§6). The schema is append-only; a checkpoint whose version is
// outside [1, CheckpointVersion] is rejected with UnsupportedVersion.
const CheckpointVersion byte = 1
