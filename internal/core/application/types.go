package application

import "github.com/vestlabs/vestd/internal/core/domain"

// CreateVestingRequest carries the creation parameters of one vesting
// position. The schedule fields are immutable once the record exists.
type CreateVestingRequest struct {
	Recipient string
	Schedule  domain.Schedule
	Revocable bool
}

// LedgerTotals is a snapshot of the funding-invariant ledger. Withdrawable is
// the admin surplus: pool balance minus everything owed to recipients and to
// the fee collector.
type LedgerTotals struct {
	Balance            uint64
	ReservedForVesting uint64
	ReservedForFees    uint64
	Withdrawable       uint64
}
