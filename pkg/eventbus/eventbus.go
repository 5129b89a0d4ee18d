package eventbus

import (
	"sync"

	"github.com/talentdao/talentdao-backend/pkg/events"
	"github.com/talentdao/talentdao-backend/pkg/logging"
)

// EventHandler is a function that handles an event.
type EventHandler func(event events.Event)

// EventBus manages event subscriptions and publications.
type EventBus struct {
	handlers map[events.EventType][]EventHandler
	logger   logging.Logger
	mu       sync.RWMutex
}

func New(logger logging.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[events.EventType][]EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a specific event type.
func (eb *EventBus) Subscribe(eventType events.EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish sends an event to all subscribed handlers. Handlers run on their own
// goroutines; a panicking handler does not take down the publisher.
func (eb *EventBus) Publish(event events.Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	handlers, exists := eb.handlers[event.Type]
	if !exists {
		return
	}
	for _, handler := range handlers {
		go func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil {
					eb.logger.Errorf("Recovered from panic in event handler for %s: %v", event.Type, r)
				}
			}()
			h(event)
		}(handler)
	}
}

// PublishSync delivers the event on the caller's goroutine, in subscription
// order. Used where delivery must complete before the caller returns.
func (eb *EventBus) PublishSync(event events.Event) {
	eb.mu.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[event.Type]...)
	eb.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
