package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSync(t *testing.T) *Synchronizer {
	t.Helper()
	return NewSynchronizer(zap.NewNop(), "room-1", 0)
}

func TestApplyJoin_Idempotent(t *testing.T) {
	s := newTestSync(t)
	p := Participant{ID: "alice", DisplayName: "Alice", Status: StatusOnline, Role: RoleHost}

	s.ApplyJoin(p)
	once := s.Snapshot()

	s.ApplyJoin(p)
	twice := s.Snapshot()

	assert.Equal(t, once.Participants, twice.Participants)
	assert.Len(t, twice.Participants, 1)
}

func TestApplyJoin_UpsertOverwrites(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{ID: "alice", DisplayName: "Alice"})
	s.ApplyJoin(Participant{ID: "alice", DisplayName: "Alice B", Status: StatusAway})

	p, ok := s.Participant("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice B", p.DisplayName)
	assert.Equal(t, StatusAway, p.Status)
}

func TestApplyJoin_MissingIDDropped(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{DisplayName: "ghost"})
	assert.Empty(t, s.Snapshot().Participants)
}

func TestApplyLeave_AbsentIsNoop(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{ID: "alice"})

	assert.NotPanics(t, func() { s.ApplyLeave("nobody") })
	assert.Len(t, s.Snapshot().Participants, 1)

	s.ApplyLeave("alice")
	s.ApplyLeave("alice") // removal is idempotent
	assert.Empty(t, s.Snapshot().Participants)
}

func TestApplyCursor_SelfHealing(t *testing.T) {
	s := newTestSync(t)
	s.ApplyCursor("stranger", Position{X: 3, Y: 4})

	snap := s.Snapshot()
	require.Len(t, snap.Participants, 1)
	p := snap.Participants["stranger"]
	assert.Equal(t, "stranger", p.ID)
	assert.Equal(t, StatusOnline, p.Status)
	require.NotNil(t, p.Cursor)
	assert.Equal(t, Position{X: 3, Y: 4}, *p.Cursor)
}

func TestApplyPresence_InvalidStatusDropped(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{ID: "alice", Status: StatusOnline})
	s.ApplyPresence("alice", PresenceStatus("sleeping"))

	p, _ := s.Participant("alice")
	assert.Equal(t, StatusOnline, p.Status)
}

func TestApplyFocus_PatchesOnlyFocus(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{ID: "alice", DisplayName: "Alice", Status: StatusBusy})
	s.ApplyFocus("alice", "artifact-9")

	p, _ := s.Participant("alice")
	assert.Equal(t, "artifact-9", p.Focus)
	assert.Equal(t, "Alice", p.DisplayName)
	assert.Equal(t, StatusBusy, p.Status)
}

func TestApplyRosterSnapshot_ReplacesNotMerges(t *testing.T) {
	s := newTestSync(t)
	s.ApplyJoin(Participant{ID: "old-1"})
	s.ApplyJoin(Participant{ID: "old-2"})

	s.ApplyRosterSnapshot([]Participant{
		{ID: "new-1", DisplayName: "New One"},
	})

	snap := s.Snapshot()
	require.Len(t, snap.Participants, 1)
	assert.Contains(t, snap.Participants, "new-1")
	assert.NotContains(t, snap.Participants, "old-1")
}

func TestAppendEvent_SelfHealsSender(t *testing.T) {
	s := newTestSync(t)
	s.AppendEvent(ChatEvent{ID: "m1", SenderID: "bob", Text: "hi", SentAt: time.Now()})

	snap := s.Snapshot()
	require.Len(t, snap.Events, 1)
	assert.Contains(t, snap.Participants, "bob")
}

func TestAppendEvent_SystemNoticeHasNoSender(t *testing.T) {
	s := newTestSync(t)
	s.AppendEvent(SystemNotice{Text: "reconnected", CreatedAt: time.Now()})

	snap := s.Snapshot()
	assert.Len(t, snap.Events, 1)
	assert.Empty(t, snap.Participants)
}

func TestAppendEvent_TrimsOldestFirst(t *testing.T) {
	s := NewSynchronizer(zap.NewNop(), "room-1", 3)
	for i := 0; i < 5; i++ {
		s.AppendEvent(SystemNotice{Text: string(rune('a' + i))})
	}

	snap := s.Snapshot()
	require.Len(t, snap.Events, 3)
	first := snap.Events[0].(SystemNotice)
	last := snap.Events[2].(SystemNotice)
	assert.Equal(t, "c", first.Text)
	assert.Equal(t, "e", last.Text)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := newTestSync(t)
	s.ApplyCursor("alice", Position{X: 1, Y: 1})

	snap := s.Snapshot()
	snap.Participants["alice"].Cursor.X = 99
	delete(snap.Participants, "alice")

	p, ok := s.Participant("alice")
	require.True(t, ok)
	assert.Equal(t, 1.0, p.Cursor.X)
}
