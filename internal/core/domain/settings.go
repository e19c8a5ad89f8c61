package domain

import "time"

// Settings holds the mutable ledger-level state that must survive restarts:
// the fee-collector role holder and the per-claim fees collected so far but
// not yet withdrawn.
type Settings struct {
	FeeCollector    string
	ReservedForFees uint64
	UpdatedAt       time.Time
}
