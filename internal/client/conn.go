// Package client implements the connection manager for a collaboration
// session: one WebSocket link with a connect/retry/heartbeat state machine,
// plus the dispatcher that routes decoded frames to registered handlers.
package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/common/config"
	"github.com/syncroom/syncroom/internal/wire"
)

// State is the connection lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
	StateFailed     State = "failed"
)

// Options configure a Conn.
type Options struct {
	// ReconnectInterval is the fixed delay between reconnect attempts.
	// Zero uses the default (3s).
	ReconnectInterval time.Duration
	// MaxReconnectAttempts bounds automatic reconnection; once exhausted
	// the connection stays failed until a manual Connect. Zero uses the
	// default (5), negative disables reconnection entirely.
	MaxReconnectAttempts int
	// PingInterval is the heartbeat period. Zero uses the default (30s),
	// negative disables the heartbeat.
	PingInterval time.Duration

	Logger *zap.Logger

	// OnGiveUp fires exactly once when the reconnect budget is exhausted.
	// It is the only condition callers must treat as fatal for the session.
	OnGiveUp func()
	// OnStateChange observes lifecycle transitions. It is invoked with
	// internal state held and must not call back into the Conn.
	OnStateChange func(State)

	// Dialer overrides the WebSocket dialer. Tests inject fake transports
	// through it.
	Dialer Dialer
}

type eventKind int

const (
	eventOpened eventKind = iota
	eventMessage
	eventError
	eventClosed
)

// transportEvent funnels every transport callback (open, message, error,
// close) through the single handleTransportEvent entry point.
type transportEvent struct {
	kind      eventKind
	transport Transport
	data      []byte
	err       error
	gen       int
}

// Conn owns one transport connection for a session. Inbound frames are
// decoded and dispatched in arrival order on the read goroutine. Outbound
// messages are never queued across disconnects. A missing pong does not by
// itself trigger a reconnect; dead-link detection is left to the transport
// and the heartbeat exists to keep intermediaries from idling the connection
// out.
type Conn struct {
	url        string
	opts       Options
	logger     *zap.Logger
	dispatcher *Dispatcher
	dial       Dialer

	mu             sync.Mutex
	state          State
	attemptCount   int
	lastHeartbeat  time.Time
	transport      Transport
	manualClose    bool
	gaveUp         bool
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
	gen            int // bumped by Connect/Disconnect to invalidate stale dials and timers
}

// New creates a connection handle without connecting.
func New(url string, opts Options) *Conn {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReconnectInterval == 0 {
		opts.ReconnectInterval = config.DefaultReconnectInterval
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = config.DefaultMaxReconnectAttempts
	}
	if opts.MaxReconnectAttempts < 0 {
		opts.MaxReconnectAttempts = 0
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = config.DefaultPingInterval
	}
	dial := opts.Dialer
	if dial == nil {
		dial = DialWebSocket
	}
	return &Conn{
		url:        url,
		opts:       opts,
		logger:     opts.Logger.Named("client.conn"),
		dispatcher: NewDispatcher(opts.Logger),
		dial:       dial,
		state:      StateIdle,
	}
}

// Dial creates a connection handle and starts connecting.
func Dial(url string, opts Options) *Conn {
	c := New(url, opts)
	c.Connect()
	return c
}

// Connect starts a connection attempt. It is a no-op while already
// connecting or open. A manual Connect after the budget was exhausted starts
// a fresh attempt.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return
	}
	c.manualClose = false
	c.gaveUp = false
	c.gen++
	gen := c.gen
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.attempt(gen)
}

// Disconnect closes the connection and cancels any pending reconnect and
// heartbeat timers atomically, so no stale timer can reconnect afterwards.
// It always ends in closed, never failed.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	c.manualClose = true
	c.gen++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	t := c.transport
	if t != nil {
		c.setStateLocked(StateClosing)
	} else {
		c.setStateLocked(StateClosed)
	}
	c.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
}

// Send serializes and transmits the message when the connection is open.
// Otherwise it reports false; there is no store-and-forward.
func (c *Conn) Send(msg *wire.Message) bool {
	c.mu.Lock()
	if c.state != StateOpen || c.transport == nil {
		c.mu.Unlock()
		return false
	}
	t := c.transport
	c.mu.Unlock()

	data, err := wire.Encode(msg)
	if err != nil {
		c.logger.Error("encode outbound message", zap.Error(err))
		return false
	}
	if err := t.WriteMessage(data); err != nil {
		c.logger.Warn("outbound write failed", zap.Error(err))
		return false
	}
	return true
}

// On registers a handler for one discriminant.
func (c *Conn) On(t cnst.MsgType, h Handler) {
	c.dispatcher.On(t, h)
}

// OnAny registers a wildcard observer for every inbound message.
func (c *Conn) OnAny(h Handler) {
	c.dispatcher.OnAny(h)
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AttemptCount returns the number of reconnect attempts made since the link
// was last open.
func (c *Conn) AttemptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptCount
}

// LastHeartbeatAt returns the receive time of the most recent pong, or the
// zero time when none arrived yet.
func (c *Conn) LastHeartbeatAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeartbeat
}

// attempt dials once and reports the outcome as a transport event.
func (c *Conn) attempt(gen int) {
	t, err := c.dial(context.Background(), c.url)

	c.mu.Lock()
	stale := gen != c.gen || c.manualClose
	c.mu.Unlock()
	if stale {
		if err == nil {
			_ = t.Close()
		}
		return
	}

	if err != nil {
		c.handleTransportEvent(transportEvent{kind: eventError, err: err, gen: gen})
		return
	}
	c.handleTransportEvent(transportEvent{kind: eventOpened, transport: t, gen: gen})
}

// handleTransportEvent is the single entry point for every transport
// callback, keeping all state transitions in one place.
func (c *Conn) handleTransportEvent(ev transportEvent) {
	switch ev.kind {
	case eventOpened:
		c.onOpened(ev)
	case eventMessage:
		c.onFrame(ev.data)
	case eventError, eventClosed:
		c.onClosure(ev)
	}
}

func (c *Conn) onOpened(ev transportEvent) {
	c.mu.Lock()
	if ev.gen != c.gen || c.manualClose {
		c.mu.Unlock()
		_ = ev.transport.Close()
		return
	}
	c.transport = ev.transport
	c.attemptCount = 0
	c.lastHeartbeat = time.Time{}
	c.setStateLocked(StateOpen)
	c.startHeartbeatLocked(ev.transport)
	c.mu.Unlock()

	c.logger.Info("connection open", zap.String("url", c.url))
	go c.readLoop(ev.transport)
}

// readLoop pumps inbound frames from one transport until it fails. Dispatch
// happens here, synchronously, so handlers for frame A complete before any
// handler for frame B begins.
func (c *Conn) readLoop(t Transport) {
	for {
		data, err := t.ReadMessage()
		if err != nil {
			c.handleTransportEvent(transportEvent{kind: eventClosed, transport: t, err: err})
			return
		}
		c.handleTransportEvent(transportEvent{kind: eventMessage, transport: t, data: data})
	}
}

func (c *Conn) onFrame(data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		c.logger.Warn("dropping undecodable frame", zap.Error(err))
		return
	}

	switch {
	case msg.Type == cnst.MsgPong:
		// liveness bookkeeping only; filtered before dispatch
		c.mu.Lock()
		c.lastHeartbeat = time.Now()
		c.mu.Unlock()
	case msg.Type == cnst.MsgPing:
		c.writePong()
	case !msg.Known():
		c.logger.Debug("unrecognized message type", zap.String("type", msg.Type.String()))
		c.dispatcher.DispatchWildcard(msg)
	default:
		c.dispatcher.Dispatch(msg)
	}
}

func (c *Conn) onClosure(ev transportEvent) {
	c.mu.Lock()
	if ev.transport != nil && ev.transport != c.transport {
		// stale reader from a superseded connection
		c.mu.Unlock()
		return
	}
	c.stopHeartbeatLocked()
	c.transport = nil

	if c.manualClose {
		c.setStateLocked(StateClosed)
		c.mu.Unlock()
		return
	}

	if ev.err != nil {
		c.logger.Warn("transport lost", zap.Error(ev.err))
	}
	c.setStateLocked(StateFailed)

	if c.attemptCount >= c.opts.MaxReconnectAttempts {
		already := c.gaveUp
		c.gaveUp = true
		attempts := c.attemptCount
		c.mu.Unlock()
		if !already {
			c.logger.Error("reconnect budget exhausted", zap.Int("attempts", attempts))
			if c.opts.OnGiveUp != nil {
				c.opts.OnGiveUp()
			}
		}
		return
	}

	c.scheduleReconnectLocked()
	c.mu.Unlock()
}

// scheduleReconnectLocked arms the reconnect timer. The attempt counter is
// incremented when the timer fires, before the dial. Callers must hold c.mu.
func (c *Conn) scheduleReconnectLocked() {
	gen := c.gen
	c.reconnectTimer = time.AfterFunc(c.opts.ReconnectInterval, func() {
		c.mu.Lock()
		if gen != c.gen || c.manualClose {
			c.mu.Unlock()
			return
		}
		c.reconnectTimer = nil
		c.attemptCount++
		attempt := c.attemptCount
		c.setStateLocked(StateConnecting)
		c.mu.Unlock()

		c.logger.Info("reconnecting",
			zap.Int("attempt", attempt),
			zap.Int("max", c.opts.MaxReconnectAttempts))
		c.attempt(gen)
	})
}

func (c *Conn) startHeartbeatLocked(t Transport) {
	if c.opts.PingInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	c.heartbeatStop = stop
	interval := c.opts.PingInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ping, err := wire.Encode(&wire.Message{Type: cnst.MsgPing})
		if err != nil {
			return
		}
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := t.WriteMessage(ping); err != nil {
					c.logger.Debug("heartbeat write failed", zap.Error(err))
					return
				}
			}
		}
	}()
}

func (c *Conn) stopHeartbeatLocked() {
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}

func (c *Conn) writePong() {
	c.mu.Lock()
	t := c.transport
	c.mu.Unlock()
	if t == nil {
		return
	}
	pong, err := wire.Encode(&wire.Message{Type: cnst.MsgPong})
	if err != nil {
		return
	}
	if err := t.WriteMessage(pong); err != nil {
		c.logger.Debug("pong write failed", zap.Error(err))
	}
}

func (c *Conn) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if cb := c.opts.OnStateChange; cb != nil {
		cb(s)
	}
}
