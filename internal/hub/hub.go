// Package hub implements the server side of the collaboration protocol:
// per-session rooms of WebSocket peers, join/leave bookkeeping, roster
// snapshots for joiners, and best-effort frame relay between peers.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/hub/storage"
	"github.com/syncroom/syncroom/internal/session"
	"github.com/syncroom/syncroom/internal/wire"
	"github.com/syncroom/syncroom/pkg/metrics"
)

// Hub manages the rooms hosted by this instance.
type Hub struct {
	logger       *zap.Logger
	store        storage.Store
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu    sync.Mutex
	rooms map[string]*room
}

// New creates a hub backed by the given roster store.
func New(logger *zap.Logger, store storage.Store, m *metrics.Metrics, writeTimeout time.Duration) *Hub {
	return &Hub{
		logger:       logger.Named("hub"),
		store:        store,
		metrics:      m,
		writeTimeout: writeTimeout,
		rooms:        make(map[string]*room),
	}
}

// Roster lists the participants of a session from the roster store.
func (h *Hub) Roster(ctx context.Context, sessionID string) ([]session.Participant, error) {
	return h.store.List(ctx, sessionID)
}

// ServeConn runs one client connection to completion: registers the
// participant, sends the roster snapshot, announces the join, relays frames,
// and tears everything down when the socket dies.
func (h *Hub) ServeConn(ctx context.Context, sessionID string, p session.Participant, conn *websocket.Conn) {
	r := h.getOrCreateRoom(sessionID)
	pr := newPeer(p, conn)
	go pr.writePump(h.logger, h.writeTimeout)

	if old := r.add(pr); old != nil {
		h.logger.Info("participant reconnected, displacing old peer",
			zap.String("session", sessionID),
			zap.String("participant", p.ID))
		old.close()
	}
	if err := h.store.Upsert(ctx, sessionID, p); err != nil {
		h.logger.Warn("roster upsert failed", zap.Error(err))
	}
	h.metrics.ClientConnected(sessionID)
	h.logger.Info("participant joined",
		zap.String("session", sessionID),
		zap.String("participant", p.ID),
		zap.String("role", string(p.Role)))

	// a consistent baseline for the joiner, then the join for everyone else
	h.sendRoster(r, pr)
	h.announce(r, p.ID, &wire.Message{
		Type: cnst.MsgUserJoin,
		Join: &wire.JoinPayload{ParticipantInfo: wire.FromParticipant(p)},
	})

	h.readLoop(ctx, r, pr)

	// teardown
	if r.remove(pr) {
		if err := h.store.Remove(ctx, sessionID, p.ID); err != nil {
			h.logger.Warn("roster remove failed", zap.Error(err))
		}
		h.announce(r, p.ID, &wire.Message{
			Type:  cnst.MsgUserLeave,
			Leave: &wire.LeavePayload{ID: p.ID},
		})
	}
	pr.close()
	h.metrics.ClientDisconnected(sessionID)
	h.logger.Info("participant left",
		zap.String("session", sessionID),
		zap.String("participant", p.ID))
	h.reapRoom(ctx, r)
}

func (h *Hub) readLoop(ctx context.Context, r *room, pr *peer) {
	for {
		_, data, err := pr.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("peer connection lost",
					zap.String("participant", pr.participant.ID),
					zap.Error(err))
			}
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			h.metrics.DecodeFailed()
			h.logger.Warn("dropping undecodable frame",
				zap.String("participant", pr.participant.ID),
				zap.Error(err))
			continue
		}
		h.metrics.FrameReceived(msg.Type.String())
		h.handleFrame(ctx, r, pr, msg)
	}
}

// handleFrame applies one inbound frame. The hub is authoritative for
// join/leave and roster snapshots; those arriving from a client are dropped.
func (h *Hub) handleFrame(ctx context.Context, r *room, pr *peer, msg *wire.Message) {
	from := pr.participant.ID

	switch msg.Type {
	case cnst.MsgPing:
		h.sendTo(pr, &wire.Message{Type: cnst.MsgPong})

	case cnst.MsgPong:
		// nothing to do; clients answer their own pings

	case cnst.MsgUserJoin, cnst.MsgUserLeave, cnst.MsgUserListUpdate:
		h.metrics.FrameDropped()
		h.logger.Debug("dropping hub-authoritative frame from client",
			zap.String("type", msg.Type.String()),
			zap.String("participant", from))

	case cnst.MsgStatusUpdate:
		msg.Status.ID = from
		status := session.PresenceStatus(msg.Status.Status)
		if !status.Valid() {
			h.metrics.FrameDropped()
			h.logger.Warn("dropping status update with unknown status",
				zap.String("participant", from),
				zap.String("status", msg.Status.Status))
			return
		}
		r.update(from, func(p *session.Participant) { p.Status = status })
		h.persist(ctx, r, from)
		h.relay(r, from, msg)

	case cnst.MsgCursorUpdate:
		msg.Cursor.ID = from
		pos := msg.Cursor.Position
		r.update(from, func(p *session.Participant) { p.Cursor = &pos })
		h.relay(r, from, msg)

	case cnst.MsgNewMessage:
		msg.Chat.SenderID = from
		if msg.Chat.ID == "" {
			msg.Chat.ID = uuid.NewString()
		}
		if msg.Chat.SentAt.IsZero() {
			msg.Chat.SentAt = time.Now().UTC()
		}
		h.relay(r, from, msg)

	case cnst.MsgThinkingShared:
		msg.Thinking.SenderID = from
		if msg.Thinking.SharedAt.IsZero() {
			msg.Thinking.SharedAt = time.Now().UTC()
		}
		r.update(from, func(p *session.Participant) { p.Focus = msg.Thinking.ArtifactID })
		h.relay(r, from, msg)

	case cnst.MsgAnnotationAdded:
		msg.Annotation.SenderID = from
		if msg.Annotation.CreatedAt.IsZero() {
			msg.Annotation.CreatedAt = time.Now().UTC()
		}
		h.relay(r, from, msg)

	default:
		// unrecognized discriminants are dropped, never relayed
		h.metrics.FrameDropped()
		h.logger.Debug("dropping unrecognized frame",
			zap.String("type", msg.Type.String()),
			zap.String("participant", from))
	}
}

// relay encodes and broadcasts the message to every peer but the sender.
func (h *Hub) relay(r *room, from string, msg *wire.Message) {
	data, err := wire.Encode(msg)
	if err != nil {
		h.logger.Error("encode relay frame", zap.Error(err))
		return
	}
	dropped := r.broadcast(from, data)
	for i := 0; i < dropped; i++ {
		h.metrics.FrameDropped()
	}
	h.metrics.FrameSent(msg.Type.String())
}

// announce broadcasts a hub-synthesized message to everyone but `from`.
func (h *Hub) announce(r *room, from string, msg *wire.Message) {
	h.relay(r, from, msg)
}

// sendRoster delivers the full roster snapshot to one peer.
func (h *Hub) sendRoster(r *room, pr *peer) {
	participants := r.roster()
	infos := make([]wire.ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		infos = append(infos, wire.FromParticipant(p))
	}
	h.sendTo(pr, &wire.Message{
		Type:   cnst.MsgUserListUpdate,
		Roster: &wire.RosterPayload{Participants: infos},
	})
}

func (h *Hub) sendTo(pr *peer, msg *wire.Message) {
	data, err := wire.Encode(msg)
	if err != nil {
		h.logger.Error("encode frame", zap.Error(err))
		return
	}
	if !pr.queue(data) {
		h.metrics.FrameDropped()
		return
	}
	h.metrics.FrameSent(msg.Type.String())
}

// persist writes the room's current view of one participant to the store.
func (h *Hub) persist(ctx context.Context, r *room, id string) {
	for _, p := range r.roster() {
		if p.ID == id {
			if err := h.store.Upsert(ctx, r.id, p); err != nil {
				h.logger.Warn("roster upsert failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) getOrCreateRoom(sessionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[sessionID]
	if !ok {
		r = newRoom(sessionID, h.logger)
		h.rooms[sessionID] = r
		h.logger.Info("room created", zap.String("session", sessionID))
	}
	return r
}

// reapRoom drops the room once its last peer is gone.
func (h *Hub) reapRoom(ctx context.Context, r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.empty() {
		delete(h.rooms, r.id)
		if err := h.store.Clear(ctx, r.id); err != nil {
			h.logger.Warn("roster clear failed", zap.Error(err))
		}
		h.logger.Info("room reaped", zap.String("session", r.id))
	}
}
