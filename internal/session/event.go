package session

import (
	"encoding/json"
	"time"
)

// EventKind discriminates the members of the Event union.
type EventKind string

const (
	EventChat       EventKind = "chat"
	EventPresence   EventKind = "presence"
	EventCursor     EventKind = "cursor"
	EventArtifact   EventKind = "artifact"
	EventAnnotation EventKind = "annotation"
	EventSystem     EventKind = "system"
)

// Event is one entry of a session's event log.
type Event interface {
	Kind() EventKind
	// Sender returns the participant id the event originated from, or ""
	// for locally synthesized events.
	Sender() string
}

// ChatEvent is a chat message sent by a participant.
type ChatEvent struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

func (ChatEvent) Kind() EventKind  { return EventChat }
func (e ChatEvent) Sender() string { return e.SenderID }

// PresenceEvent records a participant's presence change.
type PresenceEvent struct {
	ParticipantID string         `json:"participant_id"`
	Status        PresenceStatus `json:"status"`
}

func (PresenceEvent) Kind() EventKind  { return EventPresence }
func (e PresenceEvent) Sender() string { return e.ParticipantID }

// CursorEvent records a participant moving their cursor.
type CursorEvent struct {
	ParticipantID string   `json:"participant_id"`
	Position      Position `json:"position"`
}

func (CursorEvent) Kind() EventKind  { return EventCursor }
func (e CursorEvent) Sender() string { return e.ParticipantID }

// ArtifactEvent records a participant sharing an artifact (a "thinking"
// payload in the wire protocol).
type ArtifactEvent struct {
	SenderID   string          `json:"sender_id"`
	ArtifactID string          `json:"artifact_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SharedAt   time.Time       `json:"shared_at"`
}

func (ArtifactEvent) Kind() EventKind  { return EventArtifact }
func (e ArtifactEvent) Sender() string { return e.SenderID }

// AnnotationEvent records an annotation attached to a shared artifact.
type AnnotationEvent struct {
	SenderID  string          `json:"sender_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (AnnotationEvent) Kind() EventKind  { return EventAnnotation }
func (e AnnotationEvent) Sender() string { return e.SenderID }

// SystemNotice is synthesized locally and never sent over the wire.
type SystemNotice struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (SystemNotice) Kind() EventKind { return EventSystem }
func (SystemNotice) Sender() string  { return "" }
