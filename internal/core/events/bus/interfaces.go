package bus

import "time"

// EventBus is an in-process pub/sub bus for world notifications.
//
// Delivery is synchronous, in the publisher's goroutine, to handlers in subscription order.
// Handler errors are joined and returned from Publish; a failing handler does not stop the others.
// Topics scope subscriptions; the default topic is "".
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type() in the default topic.
	Publish(event Event) error
	// Subscribe registers a handler for an event type in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	// SubscribeTopic registers a handler for eventType within a topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// PublishToTopic publishes to a specific topic.
	PublishToTopic(topic string, event Event) error

	// AddObserver registers an observer notified after each delivery.
	AddObserver(obs Observer)
	// Topics lists topics that currently have subscribers, sorted.
	Topics() []TopicInfo
}

// Event is an immutable notification.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked once per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Observer sees every delivery. Implementations must return quickly.
type Observer interface {
	OnDelivered(topic, eventType string, handlers int, err error)
}

// TopicInfo is a snapshot of one topic.
type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
