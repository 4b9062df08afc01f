package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus used to fan state
// changes out to whoever renders them.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Topics: each room publishes on its own topic; the default topic is "".
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
//
// Handlers should be quick or offload heavy work to avoid blocking publishers.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type() in the default topic.
	Publish(event Event) error
	// PublishToTopic delivers the event to subscribers within topic.
	PublishToTopic(topic string, event Event) error

	// Subscribe registers a handler for eventType in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeTopic registers a handler for eventType within topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Safe to call with nil.
	Unsubscribe(sub Subscription) error

	// CreateTopic declares a topic. Repeat declarations are no-ops.
	CreateTopic(name string) error
	// DropTopic removes a topic and cancels all of its subscriptions.
	DropTopic(name string) error
	// Topics returns a snapshot of known topics.
	Topics() []TopicInfo

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs Observer)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs Observer)
	// Metrics returns accumulated counters. They only move while at least
	// one observer is registered.
	Metrics() Metrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries and errors. Observers should return quickly.
type Observer interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration)
}

// Metrics is a minimal set of counters.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
	Topics            uint64
}

// TopicInfo provides a minimal snapshot about a topic.
type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
