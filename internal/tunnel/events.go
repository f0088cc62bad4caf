package tunnel

import (
	"time"

	gookitevent "github.com/gookit/event"
	"github.com/google/uuid"

	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
)

// Lifecycle event names published by the manager.
const (
	EventUp    = "tunnel.up"
	EventDown  = "tunnel.down"
	EventError = "tunnel.error"
)

// Event describes one lifecycle transition. Err and ErrorKind are set
// only for EventError.
type Event struct {
	ID         string
	Type       string
	At         time.Time
	ConfigName string
	Interface  string
	ErrorKind  string
	Err        string
}

// Bus is a thin adapter over gookit's event manager carrying lifecycle
// events to in-process subscribers (the journal, notification hooks).
// Publishing never fails the operation that triggered it.
type Bus struct {
	manager *gookitevent.Manager
	log     *logger.Logger
}

// NewBus creates an event bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewDevelopment("events")
	}
	return &Bus{
		manager: gookitevent.NewManager("tunnelctl"),
		log:     log.WithComponent("events"),
	}
}

// Publish fires an event of the given type. The event is stamped with
// an ID and timestamp here so callers only fill the payload fields.
func (b *Bus) Publish(eventType string, ev Event) {
	ev.ID = uuid.NewString()
	ev.Type = eventType
	ev.At = time.Now().UTC()

	err, _ := b.manager.Fire(eventType, gookitevent.M{"payload": ev})
	if err != nil {
		// A misbehaving subscriber must not fail the tunnel operation.
		b.log.Warn("event subscriber failed", "type", eventType, "error", err)
	}
}

// Subscribe registers fn for events of the given type.
func (b *Bus) Subscribe(eventType string, fn func(Event)) {
	b.manager.On(eventType, gookitevent.ListenerFunc(func(e gookitevent.Event) error {
		if ev, ok := e.Get("payload").(Event); ok {
			fn(ev)
		}
		return nil
	}))
}

// SubscribeAll registers fn for every lifecycle event type.
func (b *Bus) SubscribeAll(fn func(Event)) {
	for _, t := range []string{EventUp, EventDown, EventError} {
		b.Subscribe(t, fn)
	}
}

// Close shuts the bus down and drops all subscribers.
func (b *Bus) Close() {
	b.manager.Clear()
}
