// Package wire implements the codec for the collaboration protocol: one JSON
// envelope per frame, a type discriminant plus a payload whose shape is tied
// to the discriminant.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/session"
)

// Envelope is the frame shape: {"type": "<discriminant>", "payload": {...}}.
type Envelope struct {
	Type    cnst.MsgType    `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParticipantInfo is the wire representation of a participant.
type ParticipantInfo struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name,omitempty"`
	Status      string            `json:"status,omitempty"`
	Role        string            `json:"role,omitempty"`
	Focus       string            `json:"focus,omitempty"`
	Cursor      *session.Position `json:"cursor,omitempty"`
}

// Participant converts the wire shape into the domain type.
func (p ParticipantInfo) Participant() session.Participant {
	return session.Participant{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Status:      session.PresenceStatus(p.Status),
		Role:        session.Role(p.Role),
		Focus:       p.Focus,
		Cursor:      p.Cursor,
	}
}

// FromParticipant converts the domain type into the wire shape.
func FromParticipant(p session.Participant) ParticipantInfo {
	return ParticipantInfo{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Status:      string(p.Status),
		Role:        string(p.Role),
		Focus:       p.Focus,
		Cursor:      p.Cursor,
	}
}

// JoinPayload is the payload of a user_join frame.
type JoinPayload struct {
	ParticipantInfo
}

// LeavePayload is the payload of a user_leave frame.
type LeavePayload struct {
	ID string `json:"id"`
}

// CursorPayload is the payload of a cursor_update frame.
type CursorPayload struct {
	ID       string           `json:"id"`
	Position session.Position `json:"position"`
}

// StatusPayload is the payload of a status_update frame.
type StatusPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ChatPayload is the payload of a new_message frame.
type ChatPayload struct {
	ID       string    `json:"id,omitempty"`
	SenderID string    `json:"sender_id"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at,omitempty"`
}

// ThinkingPayload is the payload of a thinking_shared frame.
type ThinkingPayload struct {
	SenderID   string          `json:"sender_id"`
	ArtifactID string          `json:"artifact_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SharedAt   time.Time       `json:"shared_at,omitempty"`
}

// AnnotationPayload is the payload of an annotation_added frame.
type AnnotationPayload struct {
	SenderID  string          `json:"sender_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// RosterPayload is the payload of a user_list_update frame.
type RosterPayload struct {
	Participants []ParticipantInfo `json:"participants"`
}

// Message is the decoded union. Exactly the field matching Type is set;
// ping/pong carry no payload, and an unrecognized discriminant yields a
// Message with only Type set (Known reports false).
type Message struct {
	Type       cnst.MsgType
	Join       *JoinPayload
	Leave      *LeavePayload
	Cursor     *CursorPayload
	Status     *StatusPayload
	Chat       *ChatPayload
	Thinking   *ThinkingPayload
	Annotation *AnnotationPayload
	Roster     *RosterPayload
}

// Known reports whether the discriminant is part of the recognized protocol.
func (m *Message) Known() bool {
	_, ok := cnst.KnownMsgTypes[m.Type]
	return ok
}

// DecodeError wraps any failure to turn an inbound frame into a Message. One
// bad frame is dropped with a log entry; it never terminates the connection.
type DecodeError struct {
	Type cnst.MsgType // discriminant, when one could be read
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("decode %s frame: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
