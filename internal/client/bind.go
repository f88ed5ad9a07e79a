package client

import (
	"fmt"
	"time"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/session"
	"github.com/syncroom/syncroom/internal/wire"
)

// BindSynchronizer wires a connection's dispatcher to a session
// synchronizer: roster snapshots replace the roster, joins/leaves patch it,
// presence/cursor/focus updates patch individual participants, and chat,
// artifact and annotation frames land in the event log. Join and leave also
// synthesize local system notices.
func BindSynchronizer(c *Conn, sync *session.Synchronizer) {
	c.On(cnst.MsgUserListUpdate, func(msg *wire.Message) {
		participants := make([]session.Participant, 0, len(msg.Roster.Participants))
		for _, p := range msg.Roster.Participants {
			participants = append(participants, p.Participant())
		}
		sync.ApplyRosterSnapshot(participants)
	})

	c.On(cnst.MsgUserJoin, func(msg *wire.Message) {
		p := msg.Join.Participant()
		sync.ApplyJoin(p)
		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		sync.AppendEvent(session.SystemNotice{
			Text:      fmt.Sprintf("%s joined", name),
			CreatedAt: time.Now(),
		})
	})

	c.On(cnst.MsgUserLeave, func(msg *wire.Message) {
		sync.ApplyLeave(msg.Leave.ID)
		sync.AppendEvent(session.SystemNotice{
			Text:      fmt.Sprintf("%s left", msg.Leave.ID),
			CreatedAt: time.Now(),
		})
	})

	c.On(cnst.MsgStatusUpdate, func(msg *wire.Message) {
		status := session.PresenceStatus(msg.Status.Status)
		sync.ApplyPresence(msg.Status.ID, status)
		sync.AppendEvent(session.PresenceEvent{
			ParticipantID: msg.Status.ID,
			Status:        status,
		})
	})

	c.On(cnst.MsgCursorUpdate, func(msg *wire.Message) {
		sync.ApplyCursor(msg.Cursor.ID, msg.Cursor.Position)
		sync.AppendEvent(session.CursorEvent{
			ParticipantID: msg.Cursor.ID,
			Position:      msg.Cursor.Position,
		})
	})

	c.On(cnst.MsgNewMessage, func(msg *wire.Message) {
		sync.AppendEvent(session.ChatEvent{
			ID:       msg.Chat.ID,
			SenderID: msg.Chat.SenderID,
			Text:     msg.Chat.Text,
			SentAt:   msg.Chat.SentAt,
		})
	})

	c.On(cnst.MsgThinkingShared, func(msg *wire.Message) {
		sync.ApplyFocus(msg.Thinking.SenderID, msg.Thinking.ArtifactID)
		sync.AppendEvent(session.ArtifactEvent{
			SenderID:   msg.Thinking.SenderID,
			ArtifactID: msg.Thinking.ArtifactID,
			Payload:    msg.Thinking.Payload,
			SharedAt:   msg.Thinking.SharedAt,
		})
	})

	c.On(cnst.MsgAnnotationAdded, func(msg *wire.Message) {
		sync.AppendEvent(session.AnnotationEvent{
			SenderID:  msg.Annotation.SenderID,
			Payload:   msg.Annotation.Payload,
			CreatedAt: msg.Annotation.CreatedAt,
		})
	})
}
