package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous: each
// subscriber receives events in publish order on its own goroutine.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case TransitionEvent:
		event.Publish(b.dispatcher, e)
	case ScheduleEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler; its parameter type selects the events it
// receives. Returns an unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(TransitionEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ScheduleEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

