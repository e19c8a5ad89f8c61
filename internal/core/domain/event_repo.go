package domain

import "context"

// EventRepository persists the durable, ordered event log and fans saved
// events out to registered handlers (projection updaters).
type EventRepository interface {
	Save(ctx context.Context, topic, id string, events []Event) error
	Get(ctx context.Context, topic, id string) ([]Event, error)
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}
