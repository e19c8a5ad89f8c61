package treasuryinmemory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	treasuryinmemory "github.com/vestlabs/vestd/internal/infrastructure/treasury/inmemory"
)

func TestTreasury(t *testing.T) {
	ctx := context.Background()
	svc := treasuryinmemory.NewService(100)

	balance, err := svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)

	require.NoError(t, svc.Deposit(ctx, 50))
	balance, err = svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(150), balance)

	require.NoError(t, svc.Transfer(ctx, "alice", 120))
	require.Equal(t, uint64(120), svc.PaidTo("alice"))
	require.Zero(t, svc.PaidTo("bob"))

	balance, err = svc.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(30), balance)

	err = svc.Transfer(ctx, "alice", 31)
	require.Error(t, err)

	err = svc.Transfer(ctx, "", 1)
	require.Error(t, err)
}
