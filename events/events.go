package events

import (
	"reflect"
	"sync"
)

// EventHandler defines a callback for a published event of the generic type.
// A non-nil error returned by a handler is propagated to the publisher.
type EventHandler[T any] func(T) error

// globalEventHandlers maps event type names to EventHandler objects which are
// invoked any time any EventEmitter publishes an event of that type.
var globalEventHandlers map[string][]any

// globalEventHandlersLock synchronizes access to globalEventHandlers to avoid
// concurrent access panics.
var globalEventHandlersLock sync.Mutex

// SubscribeAny adds an EventHandler to the global handler list for the given
// event data type, so it is triggered by every emitter publishing that type.
// Note: a handler subscribed here remains for the rest of program execution;
// objects which should be freed should not subscribe this way.
func SubscribeAny[T any](callback EventHandler[T]) {
	// Reflect on a nil pointer to recover the generic event type.
	eventType := reflect.TypeOf((*T)(nil)).Elem()

	globalEventHandlersLock.Lock()
	defer globalEventHandlersLock.Unlock()

	if globalEventHandlers == nil {
		globalEventHandlers = make(map[string][]any)
	}
	globalEventHandlers[eventType.String()] = append(globalEventHandlers[eventType.String()], callback)
}

// EventEmitter describes a provider which EventHandler methods can subscribe
// to for callback when an event of the generic type is published.
type EventEmitter[T any] struct {
	// subscriptions defines the EventHandler methods to invoke when a new
	// event is published to this emitter.
	subscriptions []EventHandler[T]
}

// Subscribe adds an EventHandler to this emitter's subscription list. When an
// event is published, the callback is triggered with the event data.
func (e *EventEmitter[T]) Subscribe(callback EventHandler[T]) {
	e.subscriptions = append(e.subscriptions, callback)
}

// Publish emits the provided event to every subscribed EventHandler, then to
// every matching globally subscribed handler. Publishing stops at the first
// handler error, which is returned.
func (e *EventEmitter[T]) Publish(event T) error {
	// Call every handler subscribed directly to this emitter.
	for _, subscription := range e.subscriptions {
		if err := subscription(event); err != nil {
			return err
		}
	}

	// Fetch any globally subscribed handlers for this event type.
	eventType := reflect.TypeOf(event)
	globalEventHandlersLock.Lock()
	callbacks := globalEventHandlers[eventType.String()]
	globalEventHandlersLock.Unlock()

	for _, callback := range callbacks {
		if err := callback.(EventHandler[T])(event); err != nil {
			return err
		}
	}
	return nil
}
