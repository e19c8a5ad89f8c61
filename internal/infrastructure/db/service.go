package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vestlabs/vestd/internal/core/domain"
	"github.com/vestlabs/vestd/internal/core/ports"
	badgerdb "github.com/vestlabs/vestd/internal/infrastructure/db/badger"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger": badgerdb.NewEventRepository,
	}
	vestingStoreTypes = map[string]func(...interface{}) (domain.VestingRepository, error){
		"badger": badgerdb.NewVestingRepository,
	}
	settingsStoreTypes = map[string]func(...interface{}) (domain.SettingsRepository, error){
		"badger": badgerdb.NewSettingsRepository,
	}
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore    domain.EventRepository
	vestingStore  domain.VestingRepository
	settingsStore domain.SettingsRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	vestingStoreFactory, ok := vestingStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	settingsStoreFactory, ok := settingsStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}
	vestingStore, err := vestingStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open vesting store: %s", err)
	}
	settingsStore, err := settingsStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %s", err)
	}

	svc := &service{
		eventStore:    eventStore,
		vestingStore:  vestingStore,
		settingsStore: settingsStore,
	}

	// Keeps the projection store up-to-date with the event log.
	eventStore.RegisterEventsHandler(
		domain.VestingTopic, svc.updateProjectionsAfterVestingEvents,
	)

	return svc, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Vestings() domain.VestingRepository {
	return s.vestingStore
}

func (s *service) Settings() domain.SettingsRepository {
	return s.settingsStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.vestingStore.Close()
	s.settingsStore.Close()
}

func (s *service) updateProjectionsAfterVestingEvents(events []domain.Event) {
	ctx := context.Background()
	vesting := domain.NewVestingFromEvents(events)

	if err := s.vestingStore.AddOrUpdateVesting(ctx, *vesting); err != nil {
		log.WithError(err).Errorf("failed to add or update vesting %s", vesting.Id)
		return
	}
	log.Debugf("added or updated vesting %s", vesting.Id)
}
