package event

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// Handler receives messages of type T.
type Handler[T any] func(T)

// subscription is a type-erased handler registration.
type subscription struct {
	id      uint64
	deliver func(any)
}

// Bus routes published messages to the handlers subscribed to their type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]subscription
	nextID   atomic.Uint64
	logger   observability.Logger
}

// BusOption is a functional option for configuring the bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(logger observability.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[reflect.Type][]subscription),
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers h for messages of type T and returns a function
// that removes the registration. Calling the returned function more than
// once is harmless.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	typ := reflect.TypeFor[T]()
	sub := subscription{
		id: b.nextID.Add(1),
		deliver: func(msg any) {
			h(msg.(T))
		},
	}

	b.mu.Lock()
	b.handlers[typ] = append(b.handlers[typ], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(typ, sub.id)
		})
	}
}

// remove drops the subscription with the given id.
func (b *Bus) remove(typ reflect.Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[typ]
	kept := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}

	if len(kept) == 0 {
		delete(b.handlers, typ)
		return
	}
	b.handlers[typ] = kept
}

// Publish delivers msg to every handler subscribed to its dynamic type
// and returns the number of handlers that received it. A panicking
// handler is logged and does not stop delivery to the others.
func (b *Bus) Publish(msg any) int {
	if msg == nil {
		return 0
	}

	typ := reflect.TypeOf(msg)

	b.mu.RLock()
	subs := b.handlers[typ]
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(typ, s, msg)
	}

	return len(subs)
}

// deliver invokes one handler, containing any panic it raises.
func (b *Bus) deliver(typ reflect.Type, s subscription, msg any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				observability.String("type", typ.String()),
				observability.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	s.deliver(msg)
}

// Subscribers returns the number of handlers registered for type T.
func Subscribers[T any](b *Bus) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeFor[T]()])
}
