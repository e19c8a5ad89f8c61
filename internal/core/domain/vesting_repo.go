package domain

import "context"

type VestingRepository interface {
	AddOrUpdateVesting(ctx context.Context, vesting Vesting) error
	GetVesting(ctx context.Context, id string) (*Vesting, error)
	GetAllVestings(ctx context.Context) ([]Vesting, error)
	GetVestingsForRecipient(ctx context.Context, recipient string) ([]Vesting, error)
	Close()
}
