package application_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vestlabs/vestd/internal/core/application"
	"github.com/vestlabs/vestd/internal/core/domain"
	treasuryinmemory "github.com/vestlabs/vestd/internal/infrastructure/treasury/inmemory"
)

const (
	day = int64(86400)

	admin        = "admin"
	feeCollector = "collector"
	alice        = "alice"
	bob          = "bob"
	carol        = "carol"
)

type mockRepoManager struct {
	eventsRepo   *mockEventRepository
	vestingsRepo *mockVestingRepository
	settingsRepo *mockSettingsRepository
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{
		eventsRepo:   newMockEventRepository(),
		vestingsRepo: newMockVestingRepository(),
		settingsRepo: &mockSettingsRepository{},
	}
}

func (m *mockRepoManager) Events() domain.EventRepository {
	return m.eventsRepo
}

func (m *mockRepoManager) Vestings() domain.VestingRepository {
	return m.vestingsRepo
}

func (m *mockRepoManager) Settings() domain.SettingsRepository {
	return m.settingsRepo
}

func (m *mockRepoManager) Close() {}

type mockEventRepository struct {
	mu      sync.Mutex
	events  map[string][]domain.Event // topic/id -> log
	saveErr error
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{events: make(map[string][]domain.Event)}
}

func (m *mockEventRepository) Save(
	_ context.Context, topic, id string, events []domain.Event,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	key := fmt.Sprintf("%s/%s", topic, id)
	m.events[key] = append(m.events[key], events...)
	return nil
}

func (m *mockEventRepository) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *mockEventRepository) Get(
	_ context.Context, topic, id string,
) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%s", topic, id)
	out := make([]domain.Event, len(m.events[key]))
	copy(out, m.events[key])
	return out, nil
}

func (m *mockEventRepository) RegisterEventsHandler(
	string, func(events []domain.Event),
) {
}

func (m *mockEventRepository) ClearRegisteredHandlers(...string) {}

func (m *mockEventRepository) Close() {}

type mockVestingRepository struct {
	mu       sync.Mutex
	vestings map[string]domain.Vesting
}

func newMockVestingRepository() *mockVestingRepository {
	return &mockVestingRepository{vestings: make(map[string]domain.Vesting)}
}

func (m *mockVestingRepository) AddOrUpdateVesting(
	_ context.Context, vesting domain.Vesting,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vestings[vesting.Id] = vesting
	return nil
}

func (m *mockVestingRepository) GetVesting(
	_ context.Context, id string,
) (*domain.Vesting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vesting, ok := m.vestings[id]
	if !ok {
		return nil, fmt.Errorf("vesting %s not found", id)
	}
	return &vesting, nil
}

func (m *mockVestingRepository) GetAllVestings(_ context.Context) ([]domain.Vesting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Vesting, 0, len(m.vestings))
	for _, vesting := range m.vestings {
		out = append(out, vesting)
	}
	return out, nil
}

func (m *mockVestingRepository) GetVestingsForRecipient(
	_ context.Context, recipient string,
) ([]domain.Vesting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Vesting, 0)
	for _, vesting := range m.vestings {
		if vesting.Recipient == recipient {
			out = append(out, vesting)
		}
	}
	return out, nil
}

func (m *mockVestingRepository) Close() {}

type mockSettingsRepository struct {
	mu       sync.Mutex
	settings *domain.Settings
}

func (m *mockSettingsRepository) Get(_ context.Context) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, nil
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepository) Upsert(_ context.Context, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &settings
	return nil
}

func (m *mockSettingsRepository) Close() {}

type mockAuthorizer struct {
	admins map[string]struct{}
}

func (m *mockAuthorizer) IsPrivileged(caller string) bool {
	_, ok := m.admins[caller]
	return ok
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type testEnv struct {
	svc      application.Service
	repo     *mockRepoManager
	treasury *treasuryinmemory.Service
	clock    *fakeClock
}

func newTestEnv(
	t *testing.T, mode domain.FundingMode, claimFee uint64,
) *testEnv {
	t.Helper()

	repo := newMockRepoManager()
	treasury := treasuryinmemory.NewService(0)
	auth := &mockAuthorizer{admins: map[string]struct{}{admin: {}}}
	clock := &fakeClock{now: 1}

	svc, err := application.NewService(
		repo, treasury, auth, mode, claimFee, feeCollector,
		application.WithClock(clock.Now),
	)
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, treasury: treasury, clock: clock}
}

// 100 upfront, 900 at the cliff after 90 days, then 3600 released in 30-day
// steps over the following 270 days.
func testSchedule(start int64) domain.Schedule {
	return domain.Schedule{
		StartTime:           start,
		EndTime:             start + 360*day,
		InitialUnlock:       100,
		CliffReleaseTime:    start + 90*day,
		CliffAmount:         900,
		ReleaseIntervalSecs: 30 * day,
		LinearVestAmount:    3600,
	}
}

func createVesting(
	t *testing.T, env *testEnv, recipient string, schedule domain.Schedule, revocable bool,
	mode domain.FundingMode,
) string {
	t.Helper()

	var value uint64
	if mode == domain.FundingModeFull {
		value = schedule.Total()
	}
	id, err := env.svc.CreateVesting(
		context.Background(), admin,
		application.CreateVestingRequest{
			Recipient: recipient, Schedule: schedule, Revocable: revocable,
		},
		value,
	)
	require.NoError(t, err)
	return id
}
