package auction

import "time"

// Config holds the engine tuning knobs. The defaults are the contract;
// overriding them is for tests and operational experiments only.
type Config struct {
	// MinIncrement is the amount every new bid must exceed the current
	// highest bid by, in whole currency units.
	MinIncrement int64
	// ExtensionWindow is how close to the deadline an accepted bid must
	// land to trigger an anti-snipe extension. The boundary is inclusive.
	ExtensionWindow time.Duration
	// ExtensionDuration is added to the current deadline on each trigger,
	// compounding across consecutive near-deadline bids.
	ExtensionDuration time.Duration
	// SweepInterval is the status sweeper period.
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinIncrement:      1,
		ExtensionWindow:   10 * time.Second,
		ExtensionDuration: 15 * time.Second,
		SweepInterval:     500 * time.Millisecond,
	}
}
