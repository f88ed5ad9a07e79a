package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/session"
)

// peerQueueSize bounds the per-peer outbound queue; a slow reader drops
// frames rather than stalling the room.
const peerQueueSize = 64

// peer is one connected client of a room. Writes go through the send queue
// so a single goroutine owns the socket's write side.
type peer struct {
	participant session.Participant
	conn        *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newPeer(p session.Participant, conn *websocket.Conn) *peer {
	return &peer{
		participant: p,
		conn:        conn,
		send:        make(chan []byte, peerQueueSize),
	}
}

// queue enqueues one frame for delivery, reporting false when the peer's
// queue is full or the peer is closing.
func (p *peer) queue(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.send <- data:
		return true
	default:
		return false
	}
}

// close shuts the outbound queue down once; writePump then closes the socket.
func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
}

// writePump drains the send queue onto the socket. It exits when the queue
// closes or a write fails, closing the socket either way so the read side
// unblocks.
func (p *peer) writePump(logger *zap.Logger, timeout time.Duration) {
	defer func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = p.conn.Close()
	}()

	for data := range p.send {
		if timeout > 0 {
			_ = p.conn.SetWriteDeadline(time.Now().Add(timeout))
		}
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("peer write failed",
				zap.String("participant", p.participant.ID),
				zap.Error(err))
			return
		}
	}
}

// room is one live collaboration session on this hub instance.
type room struct {
	id     string
	logger *zap.Logger

	mu    sync.RWMutex
	peers map[string]*peer
}

func newRoom(id string, logger *zap.Logger) *room {
	return &room{
		id:     id,
		logger: logger,
		peers:  make(map[string]*peer),
	}
}

// add registers the peer, returning a displaced peer when the same
// participant id was already connected.
func (r *room) add(p *peer) *peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.peers[p.participant.ID]
	r.peers[p.participant.ID] = p
	return old
}

// remove drops the peer by participant id if it is still the registered one.
func (r *room) remove(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.peers[p.participant.ID]; ok && current == p {
		delete(r.peers, p.participant.ID)
		return true
	}
	return false
}

// broadcast queues one frame to every peer except the named sender,
// reporting how many peers dropped it due to a full queue.
func (r *room) broadcast(except string, data []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dropped := 0
	for id, p := range r.peers {
		if id == except {
			continue
		}
		if !p.queue(data) {
			dropped++
			r.logger.Warn("dropping frame for slow peer",
				zap.String("session", r.id),
				zap.String("participant", id))
		}
	}
	return dropped
}

// roster returns the participants currently connected to this room.
func (r *room) roster() []session.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]session.Participant, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.participant)
	}
	return out
}

// update patches the stored participant value for id.
func (r *room) update(id string, fn func(*session.Participant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[id]; ok {
		fn(&p.participant)
	}
}

func (r *room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers) == 0
}
