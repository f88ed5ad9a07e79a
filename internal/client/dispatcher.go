package client

import (
	"sync"

	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/wire"
)

// Handler receives one decoded inbound message.
type Handler func(msg *wire.Message)

// Dispatcher routes decoded messages to registered handlers in arrival
// order. For a given discriminant, handlers run synchronously in
// registration order before the next frame is processed, so dispatched
// effects are totally ordered by wire arrival. A panicking handler is
// recovered and logged; it never affects sibling handlers or later frames.
type Dispatcher struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[cnst.MsgType][]Handler
	wildcard []Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger.Named("dispatcher"),
		handlers: make(map[cnst.MsgType][]Handler),
	}
}

// On registers a handler for one discriminant.
func (d *Dispatcher) On(t cnst.MsgType, h Handler) {
	d.mu.Lock()
	d.handlers[t] = append(d.handlers[t], h)
	d.mu.Unlock()
}

// OnAny registers a wildcard observer invoked for every message, including
// unrecognized ones. Intended for logging and telemetry.
func (d *Dispatcher) OnAny(h Handler) {
	d.mu.Lock()
	d.wildcard = append(d.wildcard, h)
	d.mu.Unlock()
}

// Dispatch invokes wildcard observers, then the discriminant's handlers, all
// synchronously on the calling goroutine.
func (d *Dispatcher) Dispatch(msg *wire.Message) {
	d.mu.RLock()
	wildcard := d.wildcard
	typed := d.handlers[msg.Type]
	d.mu.RUnlock()

	for _, h := range wildcard {
		d.invoke(h, msg)
	}
	for _, h := range typed {
		d.invoke(h, msg)
	}
}

// DispatchWildcard notifies only the wildcard observers. Used for frames
// with unrecognized discriminants, which are visible to telemetry but never
// routed to typed handlers.
func (d *Dispatcher) DispatchWildcard(msg *wire.Message) {
	d.mu.RLock()
	wildcard := d.wildcard
	d.mu.RUnlock()

	for _, h := range wildcard {
		d.invoke(h, msg)
	}
}

func (d *Dispatcher) invoke(h Handler, msg *wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				zap.String("type", msg.Type.String()),
				zap.Any("panic", r))
		}
	}()
	h(msg)
}
