package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vestlabs/vestd/internal/core/domain"
)

const eventStoreDir = "events"

type subscriber struct {
	topic   string
	handler func(events []domain.Event)
}

// eventLog is the append-only record of one aggregate's history within a
// topic. Payloads stay JSON so the log survives event struct reordering.
type eventLog struct {
	Key       string
	Topic     string
	AggID     string
	Payloads  [][]byte
	UpdatedAt int64
}

type eventRepository struct {
	store     *badgerhold.Store
	publisher message.Publisher

	subscribers    map[string][]subscriber // topic -> subscribers
	subscriberLock *sync.Mutex
}

func NewEventRepository(config ...interface{}) (domain.EventRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, eventStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %s", err)
	}

	publisher := gochannel.NewGoChannel(
		gochannel.Config{}, watermill.NewStdLogger(false, false),
	)

	return &eventRepository{
		store:          store,
		publisher:      publisher,
		subscribers:    make(map[string][]subscriber),
		subscriberLock: &sync.Mutex{},
	}, nil
}

func (r *eventRepository) Save(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	if err := r.append(topic, id, events); err != nil {
		return err
	}
	if err := r.publish(topic, events); err != nil {
		log.WithError(err).Error("failed to publish saved events")
	}
	if err := r.dispatch(topic, id); err != nil {
		log.WithError(err).Error("failed to dispatch saved events")
	}
	return nil
}

func (r *eventRepository) Get(
	ctx context.Context, topic, id string,
) ([]domain.Event, error) {
	var record eventLog
	err := r.store.Get(logKey(topic, id), &record)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get events for %s %s: %w", topic, id, err)
	}

	events := make([]domain.Event, 0, len(record.Payloads))
	for _, payload := range record.Payloads {
		event, err := deserializeEvent(payload)
		if err != nil {
			log.WithError(err).Warnf("failed to deserialize event: %s", string(payload))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *eventRepository) RegisterEventsHandler(
	topic string, handler func(events []domain.Event),
) {
	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()

	if _, ok := r.subscribers[topic]; !ok {
		r.subscribers[topic] = make([]subscriber, 0)
	}

	r.subscribers[topic] = append(r.subscribers[topic], subscriber{
		topic:   topic,
		handler: handler,
	})
}

func (r *eventRepository) ClearRegisteredHandlers(topics ...string) {
	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()

	if len(topics) == 0 {
		r.subscribers = make(map[string][]subscriber)
		return
	}

	for _, topic := range topics {
		delete(r.subscribers, topic)
	}
}

func (r *eventRepository) Close() {
	// nolint:all
	r.publisher.Close()
	// nolint:all
	r.store.Close()
}

func (r *eventRepository) append(topic, id string, events []domain.Event) error {
	payloads := make([][]byte, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event: %w", err)
		}
		payloads = append(payloads, payload)
	}

	key := logKey(topic, id)
	upsertFn := func() error {
		var record eventLog
		err := r.store.Get(key, &record)
		if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		record.Key = key
		record.Topic = topic
		record.AggID = id
		record.Payloads = append(record.Payloads, payloads...)
		record.UpdatedAt = time.Now().Unix()
		return r.store.Upsert(key, record)
	}
	if err := upsertFn(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = upsertFn()
				attempts++
			}
		}
		if err != nil {
			return fmt.Errorf("failed to append events for %s %s: %w", topic, id, err)
		}
	}
	return nil
}

func (r *eventRepository) publish(topic string, events []domain.Event) error {
	watermillMessages := make([]*message.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		watermillMessages = append(
			watermillMessages, message.NewMessage(watermill.NewUUID(), payload),
		)
	}
	return r.publisher.Publish(topic, watermillMessages...)
}

func (r *eventRepository) dispatch(topic, id string) error {
	events, err := r.Get(context.Background(), topic, id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	r.subscriberLock.Lock()
	defer r.subscriberLock.Unlock()
	for _, subscriber := range r.subscribers[topic] {
		go subscriber.handler(events)
	}
	return nil
}

func logKey(topic, id string) string {
	return fmt.Sprintf("%s/%s", topic, id)
}

func deserializeEvent(buf []byte) (domain.Event, error) {
	var eventType struct {
		Type domain.EventType
	}

	if err := json.Unmarshal(buf, &eventType); err != nil {
		return nil, err
	}

	switch eventType.Type {
	case domain.EventTypeVestingCreated:
		var event = domain.VestingCreated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeVestingFunded:
		var event = domain.VestingFunded{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeClaimed:
		var event = domain.Claimed{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeVestingRevoked:
		var event = domain.VestingRevoked{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeVestingTransferInitiated:
		var event = domain.VestingTransferInitiated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeVestingTransferCancelled:
		var event = domain.VestingTransferCancelled{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeVestingTransferred:
		var event = domain.VestingTransferred{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeAdminWithdrawn:
		var event = domain.AdminWithdrawn{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeGasFeeWithdrawn:
		var event = domain.GasFeeWithdrawn{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	case domain.EventTypeFeeCollectorUpdated:
		var event = domain.FeeCollectorUpdated{}
		if err := json.Unmarshal(buf, &event); err == nil {
			return event, nil
		}
	}

	return nil, fmt.Errorf("unknown event")
}
