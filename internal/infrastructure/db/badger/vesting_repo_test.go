package badgerdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vestlabs/vestd/internal/core/domain"
	badgerdb "github.com/vestlabs/vestd/internal/infrastructure/db/badger"
)

func testVesting(id, recipient string) domain.Vesting {
	schedule := domain.Schedule{
		StartTime:           1000,
		EndTime:             1000 + 360*86400,
		InitialUnlock:       100,
		ReleaseIntervalSecs: 30 * 86400,
		LinearVestAmount:    3600,
	}
	return *domain.NewVesting(id, recipient, schedule, true, schedule.Total(), 500)
}

func TestVestingRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := badgerdb.NewVestingRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.GetVesting(ctx, "missing")
	require.Error(t, err)

	vesting := testVesting("v1", "alice")
	require.NoError(t, repo.AddOrUpdateVesting(ctx, vesting))

	got, err := repo.GetVesting(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, vesting.Id, got.Id)
	require.Equal(t, vesting.Recipient, got.Recipient)
	require.Equal(t, vesting.FundedAmount, got.FundedAmount)

	// upsert replaces the stored record
	vesting.ClaimedAmount = 42
	require.NoError(t, repo.AddOrUpdateVesting(ctx, vesting))
	got, err = repo.GetVesting(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.ClaimedAmount)

	require.NoError(t, repo.AddOrUpdateVesting(ctx, testVesting("v2", "alice")))
	require.NoError(t, repo.AddOrUpdateVesting(ctx, testVesting("v3", "bob")))

	all, err := repo.GetAllVestings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	forAlice, err := repo.GetVestingsForRecipient(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, forAlice, 2)

	forCarol, err := repo.GetVestingsForRecipient(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, forCarol)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := badgerdb.NewSettingsRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, settings)

	require.NoError(t, repo.Upsert(ctx, domain.Settings{
		FeeCollector:    "collector",
		ReservedForFees: 77,
	}))

	settings, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	require.Equal(t, "collector", settings.FeeCollector)
	require.Equal(t, uint64(77), settings.ReservedForFees)
}
