package session

// PresenceStatus is a participant's presence state.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusBusy    PresenceStatus = "busy"
	StatusOffline PresenceStatus = "offline"
)

// Valid reports whether s is one of the recognized presence states.
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// Role is a participant's role within a session.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleObserver    Role = "observer"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleParticipant, RoleObserver:
		return true
	}
	return false
}

// Position is a cursor location inside a shared artifact.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant is one member of a collaboration session.
type Participant struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name,omitempty"`
	Status      PresenceStatus `json:"status"`
	Role        Role           `json:"role"`
	Focus       string         `json:"focus,omitempty"` // shared artifact the participant is viewing
	Cursor      *Position      `json:"cursor,omitempty"`
}

// Session is one collaboration room: the roster plus a bounded event log.
// Events keeps arrival order, which is not guaranteed to match global causal
// order across peers.
type Session struct {
	ID           string                 `json:"id"`
	Participants map[string]Participant `json:"participants"`
	Events       []Event                `json:"-"`
}

// Clone returns a deep copy safe to hand out to consumers.
func (s Session) Clone() Session {
	out := Session{
		ID:           s.ID,
		Participants: make(map[string]Participant, len(s.Participants)),
	}
	for id, p := range s.Participants {
		if p.Cursor != nil {
			cur := *p.Cursor
			p.Cursor = &cur
		}
		out.Participants[id] = p
	}
	if len(s.Events) > 0 {
		out.Events = make([]Event, len(s.Events))
		copy(out.Events, s.Events)
	}
	return out
}
