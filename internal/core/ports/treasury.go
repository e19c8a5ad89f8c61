package ports

import "context"

// Treasury abstracts the custodial pool holding the asset. Deposit credits
// funds supplied by a caller, Transfer pays funds out to a recipient. A
// Transfer error surfaces upstream as a transfer failure and aborts the
// operation that attempted it.
type Treasury interface {
	Balance(ctx context.Context) (uint64, error)
	Deposit(ctx context.Context, amount uint64) error
	Transfer(ctx context.Context, to string, amount uint64) error
}
