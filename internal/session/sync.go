package session

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultEventLogLimit bounds the in-memory event log when no limit is given.
const DefaultEventLogLimit = 500

// Synchronizer owns the local Session value. All roster and event-log
// mutation flows through its Apply*/AppendEvent methods; consumers only ever
// see deep-copied snapshots. Every operation is idempotent, and operations
// referencing an unknown participant synthesize a minimal placeholder first
// so an out-of-order frame never drops state (self-healing roster).
type Synchronizer struct {
	logger *zap.Logger

	mu    sync.RWMutex
	sess  Session
	limit int
}

// NewSynchronizer creates a Synchronizer for one session room. A limit of 0
// uses DefaultEventLogLimit.
func NewSynchronizer(logger *zap.Logger, sessionID string, limit int) *Synchronizer {
	if limit <= 0 {
		limit = DefaultEventLogLimit
	}
	return &Synchronizer{
		logger: logger.Named("session.sync"),
		sess: Session{
			ID:           sessionID,
			Participants: make(map[string]Participant),
		},
		limit: limit,
	}
}

// ApplyRosterSnapshot replaces the entire roster wholesale. It is the only
// operation that replaces rather than patches, and re-establishes a
// consistent baseline after (re)connection.
func (s *Synchronizer) ApplyRosterSnapshot(participants []Participant) {
	roster := make(map[string]Participant, len(participants))
	for _, p := range participants {
		if p.ID == "" {
			s.logger.Warn("roster snapshot entry without id, skipping")
			continue
		}
		normalize(&p)
		roster[p.ID] = p
	}

	s.mu.Lock()
	s.sess.Participants = roster
	s.mu.Unlock()

	s.logger.Debug("applied roster snapshot", zap.Int("participants", len(roster)))
}

// ApplyJoin inserts or overwrites the participant by id. Re-joining with the
// same id is safe and idempotent.
func (s *Synchronizer) ApplyJoin(p Participant) {
	if p.ID == "" {
		s.logger.Warn("join without participant id, dropping")
		return
	}
	normalize(&p)

	s.mu.Lock()
	s.sess.Participants[p.ID] = p
	s.mu.Unlock()
}

// ApplyLeave removes the participant by id. Removing an absent id is a no-op.
func (s *Synchronizer) ApplyLeave(id string) {
	s.mu.Lock()
	delete(s.sess.Participants, id)
	s.mu.Unlock()
}

// ApplyPresence patches the presence status of the named participant.
func (s *Synchronizer) ApplyPresence(id string, status PresenceStatus) {
	if !status.Valid() {
		s.logger.Warn("unrecognized presence status, dropping",
			zap.String("participant", id),
			zap.String("status", string(status)))
		return
	}

	s.mu.Lock()
	p := s.ensureLocked(id)
	p.Status = status
	s.sess.Participants[id] = p
	s.mu.Unlock()
}

// ApplyCursor patches the cursor position of the named participant.
func (s *Synchronizer) ApplyCursor(id string, pos Position) {
	s.mu.Lock()
	p := s.ensureLocked(id)
	p.Cursor = &pos
	s.sess.Participants[id] = p
	s.mu.Unlock()
}

// ApplyFocus patches the shared-artifact reference the named participant is
// viewing.
func (s *Synchronizer) ApplyFocus(id, focus string) {
	s.mu.Lock()
	p := s.ensureLocked(id)
	p.Focus = focus
	s.sess.Participants[id] = p
	s.mu.Unlock()
}

// AppendEvent appends to the event log, trimming oldest-first past the
// configured limit. A non-system event naming an unknown sender heals the
// roster before the append.
func (s *Synchronizer) AppendEvent(ev Event) {
	s.mu.Lock()
	if id := ev.Sender(); id != "" {
		s.ensureLocked(id)
	}
	s.sess.Events = append(s.sess.Events, ev)
	if over := len(s.sess.Events) - s.limit; over > 0 {
		s.sess.Events = append([]Event(nil), s.sess.Events[over:]...)
	}
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current session state.
func (s *Synchronizer) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Clone()
}

// Participant returns a copy of the named participant, if known.
func (s *Synchronizer) Participant(id string) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sess.Participants[id]
	if ok && p.Cursor != nil {
		cur := *p.Cursor
		p.Cursor = &cur
	}
	return p, ok
}

// ensureLocked returns the participant for id, synthesizing a minimal
// placeholder when the id is unknown. Callers must hold s.mu.
func (s *Synchronizer) ensureLocked(id string) Participant {
	if p, ok := s.sess.Participants[id]; ok {
		return p
	}
	p := Participant{ID: id, Status: StatusOnline, Role: RoleParticipant}
	s.sess.Participants[id] = p
	s.logger.Debug("synthesized placeholder participant", zap.String("participant", id))
	return p
}

func normalize(p *Participant) {
	if !p.Status.Valid() {
		p.Status = StatusOnline
	}
	if !p.Role.Valid() {
		p.Role = RoleParticipant
	}
}
