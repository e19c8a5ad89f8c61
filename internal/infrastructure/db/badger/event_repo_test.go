package badgerdb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vestlabs/vestd/internal/core/domain"
	badgerdb "github.com/vestlabs/vestd/internal/infrastructure/db/badger"
)

func TestEventRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := badgerdb.NewEventRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	events, err := repo.Get(ctx, domain.VestingTopic, "missing")
	require.NoError(t, err)
	require.Empty(t, events)

	created := domain.VestingCreated{
		Id:        "v1",
		Type:      domain.EventTypeVestingCreated,
		Recipient: "alice",
		Schedule: domain.Schedule{
			StartTime:           1000,
			EndTime:             1000 + 360*86400,
			InitialUnlock:       100,
			ReleaseIntervalSecs: 30 * 86400,
			LinearVestAmount:    3600,
		},
		Revocable: true,
		Funded:    3700,
		Timestamp: 500,
	}
	funded := domain.VestingFunded{
		Id:            "v1",
		Type:          domain.EventTypeVestingFunded,
		Amount:        100,
		TotalFunded:   3800,
		TotalRequired: 3800,
		Timestamp:     600,
	}

	require.NoError(t, repo.Save(ctx, domain.VestingTopic, "v1", []domain.Event{created}))
	require.NoError(t, repo.Save(ctx, domain.VestingTopic, "v1", []domain.Event{funded}))

	events, err = repo.Get(ctx, domain.VestingTopic, "v1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.EventTypeVestingCreated, events[0].GetType())
	require.Equal(t, domain.EventTypeVestingFunded, events[1].GetType())

	got, ok := events[0].(domain.VestingCreated)
	require.True(t, ok)
	require.Equal(t, "alice", got.Recipient)
	require.Equal(t, uint64(3700), got.Funded)

	// logs are isolated per topic and id
	events, err = repo.Get(ctx, domain.TreasuryTopic, "v1")
	require.NoError(t, err)
	require.Empty(t, events)

	events, err = repo.Get(ctx, domain.VestingTopic, "v2")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventRepositoryDispatch(t *testing.T) {
	ctx := context.Background()

	repo, err := badgerdb.NewEventRepository("", nil)
	require.NoError(t, err)
	defer repo.Close()

	var mu sync.Mutex
	var received []domain.Event
	repo.RegisterEventsHandler(domain.VestingTopic, func(events []domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = events
	})

	event := domain.VestingRevoked{
		Id:             "v1",
		Type:           domain.EventTypeVestingRevoked,
		AmountWithheld: 100,
		Timestamp:      700,
	}
	require.NoError(t, repo.Save(ctx, domain.VestingTopic, "v1", []domain.Event{event}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, domain.EventTypeVestingRevoked, received[0].GetType())
	mu.Unlock()

	// cleared handlers stop receiving
	repo.ClearRegisteredHandlers(domain.VestingTopic)
	mu.Lock()
	received = nil
	mu.Unlock()

	require.NoError(t, repo.Save(ctx, domain.VestingTopic, "v1", []domain.Event{event}))
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Nil(t, received)
	mu.Unlock()
}
