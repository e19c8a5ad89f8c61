package treasuryinmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vestlabs/vestd/internal/core/ports"
)

// Service is an in-process treasury holding the custodial pool as a single
// balance. Payouts are tallied per destination so callers can audit what
// left the pool.
type Service struct {
	mu      sync.Mutex
	balance uint64
	payouts map[string]uint64
}

func NewService(initialBalance uint64) *Service {
	return &Service{
		balance: initialBalance,
		payouts: make(map[string]uint64),
	}
}

var _ ports.Treasury = (*Service)(nil)

func (s *Service) Balance(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *Service) Deposit(ctx context.Context, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += amount
	return nil
}

func (s *Service) Transfer(ctx context.Context, to string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if to == "" {
		return fmt.Errorf("missing payout destination")
	}
	if amount > s.balance {
		return fmt.Errorf("pool balance %d is lower than payout %d", s.balance, amount)
	}
	s.balance -= amount
	s.payouts[to] += amount
	return nil
}

// PaidTo returns the cumulative amount paid out to the given destination.
func (s *Service) PaidTo(to string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payouts[to]
}
