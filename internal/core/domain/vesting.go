package domain

import (
	errors "github.com/vestlabs/vestd/pkg/errors"
)

// Vesting is the aggregate holding one custodial vesting position. The
// schedule is immutable after creation; the only mutations are funding and
// claim increments, ownership changes and the single terminal deactivation
// write performed by Revoke. Records are never deleted.
type Vesting struct {
	Id               string
	Recipient        string
	Schedule         Schedule
	Revocable        bool
	CreatedAt        int64
	DeactivationTime int64
	ClaimedAmount    uint64
	FundedAmount     uint64
	WithheldAmount   uint64
	PendingOwner     string

	changes []Event
}

func NewVesting(
	id, recipient string, schedule Schedule, revocable bool, funded uint64, now int64,
) *Vesting {
	v := &Vesting{}
	v.raise(VestingCreated{
		Id:        id,
		Type:      EventTypeVestingCreated,
		Recipient: recipient,
		Schedule:  schedule,
		Revocable: revocable,
		Funded:    funded,
		Timestamp: now,
	})
	return v
}

// NewVestingFromEvents rebuilds a vesting position from its ordered event log.
func NewVestingFromEvents(events []Event) *Vesting {
	v := &Vesting{}
	for _, event := range events {
		v.on(event)
	}
	return v
}

func (v *Vesting) IsActive() bool {
	return v.DeactivationTime == 0
}

// TotalRequired is the amount the issuer owes across all unlock components.
// Invariant once the record exists.
func (v *Vesting) TotalRequired() uint64 {
	return v.Schedule.Total()
}

// VestedAt evaluates the release curve at refTime. On revoked records the
// curve is frozen at the deactivation timestamp: the recipient keeps the
// right to what had vested before revocation, nothing more.
func (v *Vesting) VestedAt(refTime int64) uint64 {
	if !v.IsActive() && refTime > v.DeactivationTime {
		refTime = v.DeactivationTime
	}
	return v.Schedule.VestedAt(refTime)
}

// Fund records an incremental deposit against the position.
func (v *Vesting) Fund(amount uint64, now int64) error {
	if !v.IsActive() {
		return errors.VESTING_NOT_ACTIVE.New("vesting %s is revoked", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	total := v.TotalRequired()
	if v.FundedAmount >= total {
		return errors.VESTING_FULLY_FUNDED.New("vesting %s is fully funded", v.Id).
			WithMetadata(errors.FundingMetadata{
				VestingID:     v.Id,
				Funded:        v.FundedAmount,
				TotalRequired: total,
				Amount:        amount,
			})
	}
	if amount > total-v.FundedAmount {
		return errors.FUNDING_LIMIT_EXCEEDED.New(
			"amount %d exceeds remaining funding gap %d", amount, total-v.FundedAmount,
		).WithMetadata(errors.FundingMetadata{
			VestingID:     v.Id,
			Funded:        v.FundedAmount,
			TotalRequired: total,
			Amount:        amount,
		})
	}
	v.raise(VestingFunded{
		Id:            v.Id,
		Type:          EventTypeVestingFunded,
		Amount:        amount,
		TotalFunded:   v.FundedAmount + amount,
		TotalRequired: total,
		Timestamp:     now,
	})
	return nil
}

// Claim records a payout of amount to the current recipient. The caller is
// responsible for having clamped amount against the vested and funded totals.
func (v *Vesting) Claim(amount, fee uint64, now int64) {
	v.raise(Claimed{
		Id:           v.Id,
		Type:         EventTypeClaimed,
		Recipient:    v.Recipient,
		Amount:       amount,
		TotalClaimed: v.ClaimedAmount + amount,
		Fee:          fee,
		Timestamp:    now,
	})
}

// Revoke deactivates the position, withholding the given not-yet-vested
// amount. The transition is terminal.
func (v *Vesting) Revoke(withheld uint64, now int64) error {
	if !v.IsActive() {
		return errors.VESTING_NOT_ACTIVE.New("vesting %s is already revoked", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	if !v.Revocable {
		return errors.VESTING_NOT_REVOCABLE.New("vesting %s is not revocable", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	v.raise(VestingRevoked{
		Id:             v.Id,
		Type:           EventTypeVestingRevoked,
		AmountWithheld: withheld,
		Timestamp:      now,
	})
	return nil
}

// InitiateTransfer opens a pending ownership handover to newOwner.
func (v *Vesting) InitiateTransfer(newOwner string, now int64) error {
	if !v.IsActive() {
		return errors.VESTING_NOT_ACTIVE.New("vesting %s is revoked", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	if v.PendingOwner != "" {
		return errors.PENDING_TRANSFER_EXISTS.New(
			"transfer of vesting %s already pending", v.Id,
		).WithMetadata(errors.TransferMetadata{
			VestingID:    v.Id,
			PendingOwner: v.PendingOwner,
		})
	}
	v.raise(VestingTransferInitiated{
		Id:           v.Id,
		Type:         EventTypeVestingTransferInitiated,
		Recipient:    v.Recipient,
		PendingOwner: newOwner,
		Timestamp:    now,
	})
	return nil
}

// CancelTransfer clears a pending ownership handover.
func (v *Vesting) CancelTransfer(now int64) error {
	if v.PendingOwner == "" {
		return errors.NO_PENDING_TRANSFER.New("no pending transfer for vesting %s", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	v.raise(VestingTransferCancelled{
		Id:        v.Id,
		Type:      EventTypeVestingTransferCancelled,
		Recipient: v.Recipient,
		Timestamp: now,
	})
	return nil
}

// TransferTo hands the position over to newOwner, clearing any pending entry.
func (v *Vesting) TransferTo(newOwner string, now int64) error {
	if !v.IsActive() {
		return errors.VESTING_NOT_ACTIVE.New("vesting %s is revoked", v.Id).
			WithMetadata(errors.VestingMetadata{VestingID: v.Id})
	}
	v.raise(VestingTransferred{
		Id:           v.Id,
		Type:         EventTypeVestingTransferred,
		OldRecipient: v.Recipient,
		NewRecipient: newOwner,
		Timestamp:    now,
	})
	return nil
}

// Clone returns a copy of the vesting with no uncommitted events attached.
func (v *Vesting) Clone() *Vesting {
	clone := *v
	clone.changes = nil
	return &clone
}

// Events drains and returns the uncommitted events raised on the aggregate.
func (v *Vesting) Events() []Event {
	events := v.changes
	v.changes = nil
	return events
}

func (v *Vesting) raise(event Event) {
	if v.changes == nil {
		v.changes = make([]Event, 0)
	}
	v.changes = append(v.changes, event)
	v.on(event)
}

func (v *Vesting) on(event Event) {
	switch e := event.(type) {
	case VestingCreated:
		v.Id = e.Id
		v.Recipient = e.Recipient
		v.Schedule = e.Schedule
		v.Revocable = e.Revocable
		v.FundedAmount = e.Funded
		v.CreatedAt = e.Timestamp
	case VestingFunded:
		v.FundedAmount = e.TotalFunded
	case Claimed:
		v.ClaimedAmount = e.TotalClaimed
	case VestingRevoked:
		v.DeactivationTime = e.Timestamp
		v.WithheldAmount = e.AmountWithheld
	case VestingTransferInitiated:
		v.PendingOwner = e.PendingOwner
	case VestingTransferCancelled:
		v.PendingOwner = ""
	case VestingTransferred:
		v.Recipient = e.NewRecipient
		v.PendingOwner = ""
	}
}
