// Package events delivers domain events raised by aggregates to the registered handlers.
package events

import (
	"context"
	"fmt"
	"sync"

	"table-service/internal/common/logger"
	"table-service/internal/common/metrics"
	"table-service/internal/domain"
)

// AllEvents subscribes a handler to every event name.
const AllEvents = "*"

// Handler reacts to one event.
type Handler func(ctx context.Context, e domain.Event) error

// On adapts a typed handler. Events of other types are ignored.
func On[E domain.Event](fn func(ctx context.Context, e E) error) Handler {
	return func(ctx context.Context, e domain.Event) error {
		typed, ok := e.(E)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	}
}

type registration struct {
	event   string
	name    string
	handler Handler
}

// Dispatcher invokes handlers sequentially: events in the order they were raised, and for each
// event its handlers in registration order.
//
// By default a failing handler is logged and counted and dispatch moves on, so a notification
// outage cannot undo a committed state change. In strict mode the first failure is returned.
type Dispatcher struct {
	mu     sync.RWMutex
	regs   []registration
	log    *logger.Logger
	m      *metrics.Metrics
	strict bool
}

type Option func(*Dispatcher)

// WithStrict makes Dispatch stop at and return the first handler error.
func WithStrict(strict bool) Option { return func(d *Dispatcher) { d.strict = strict } }

func WithMetrics(m *metrics.Metrics) Option { return func(d *Dispatcher) { d.m = m } }

func NewDispatcher(log *logger.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	d := &Dispatcher{log: log}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Subscribe registers h for an event name, or for AllEvents.
func (d *Dispatcher) Subscribe(event, name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs = append(d.regs, registration{event: event, name: name, handler: h})
}

func (d *Dispatcher) handlersFor(event string) []registration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]registration, 0, len(d.regs))
	for _, r := range d.regs {
		if r.event == event || r.event == AllEvents {
			out = append(out, r)
		}
	}
	return out
}

// Dispatch delivers evs. Cancellation of ctx stops delivery between handler calls.
func (d *Dispatcher) Dispatch(ctx context.Context, evs ...domain.Event) error {
	for _, e := range evs {
		d.m.EventDispatched(e.EventName())
		for _, r := range d.handlersFor(e.EventName()) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.invoke(ctx, r, e); err != nil {
				d.m.HandlerFailed(e.EventName(), r.name)
				d.log.Error("event_handler_failed", err, map[string]any{
					"event":    e.EventName(),
					"handler":  r.name,
					"order_id": e.AggregateID().String(),
				})
				if d.strict {
					return fmt.Errorf("handle %s by %s: %w", e.EventName(), r.name, err)
				}
			}
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, r registration, e domain.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return r.handler(ctx, e)
}

// Publisher is the dispatch side used by the application services.
type Publisher interface {
	Dispatch(ctx context.Context, evs ...domain.Event) error
}

var _ Publisher = (*Dispatcher)(nil)
