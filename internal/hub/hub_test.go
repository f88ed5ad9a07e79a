package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/hub/storage"
	"github.com/syncroom/syncroom/internal/session"
	"github.com/syncroom/syncroom/internal/wire"
	"github.com/syncroom/syncroom/pkg/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	h := New(logger, storage.NewMemoryStore(logger), metrics.New("test"), time.Second)
	engine := gin.New()
	NewHandler(logger, h).Register(engine)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) *wire.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := wire.Decode(data)
	require.NoError(t, err)
	return msg
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg *wire.Message) {
	t.Helper()
	data, err := wire.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestJoin_ReceivesRosterSnapshot(t *testing.T) {
	srv := newTestServer(t)
	alice := dialWS(t, srv, "/ws/room-1?participant=alice&name=Alice&role=host")

	msg := readMsg(t, alice)
	require.Equal(t, cnst.MsgUserListUpdate, msg.Type)
	require.NotNil(t, msg.Roster)
	require.Len(t, msg.Roster.Participants, 1)
	assert.Equal(t, "alice", msg.Roster.Participants[0].ID)
	assert.Equal(t, "Alice", msg.Roster.Participants[0].DisplayName)
	assert.Equal(t, "host", msg.Roster.Participants[0].Role)
}

func TestJoin_AnnouncedToExistingPeers(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice) // own snapshot

	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	snap := readMsg(t, bob)
	require.Equal(t, cnst.MsgUserListUpdate, snap.Type)
	assert.Len(t, snap.Roster.Participants, 2)

	join := readMsg(t, alice)
	require.Equal(t, cnst.MsgUserJoin, join.Type)
	assert.Equal(t, "bob", join.Join.ID)
}

func TestChat_RelayedWithServerAssignedIdentity(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)
	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	readMsg(t, bob)
	readMsg(t, alice) // bob's join

	sendMsg(t, bob, &wire.Message{
		Type: cnst.MsgNewMessage,
		Chat: &wire.ChatPayload{SenderID: "spoofed", Text: "hello room"},
	})

	msg := readMsg(t, alice)
	require.Equal(t, cnst.MsgNewMessage, msg.Type)
	assert.Equal(t, "bob", msg.Chat.SenderID, "sender id comes from the connection, not the payload")
	assert.Equal(t, "hello room", msg.Chat.Text)
	assert.NotEmpty(t, msg.Chat.ID)
	assert.False(t, msg.Chat.SentAt.IsZero())
}

func TestPing_AnsweredWithPong(t *testing.T) {
	srv := newTestServer(t)
	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)

	sendMsg(t, alice, &wire.Message{Type: cnst.MsgPing})
	msg := readMsg(t, alice)
	assert.Equal(t, cnst.MsgPong, msg.Type)
}

func TestLeave_Broadcast(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)
	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	readMsg(t, bob)
	readMsg(t, alice)

	require.NoError(t, bob.Close())

	msg := readMsg(t, alice)
	require.Equal(t, cnst.MsgUserLeave, msg.Type)
	assert.Equal(t, "bob", msg.Leave.ID)
}

func TestCursorAndStatus_Relayed(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)
	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	readMsg(t, bob)
	readMsg(t, alice)

	sendMsg(t, bob, &wire.Message{
		Type:   cnst.MsgCursorUpdate,
		Cursor: &wire.CursorPayload{ID: "bob", Position: session.Position{X: 3, Y: 4}},
	})
	msg := readMsg(t, alice)
	require.Equal(t, cnst.MsgCursorUpdate, msg.Type)
	assert.Equal(t, 3.0, msg.Cursor.Position.X)

	sendMsg(t, bob, &wire.Message{
		Type:   cnst.MsgStatusUpdate,
		Status: &wire.StatusPayload{ID: "bob", Status: "away"},
	})
	msg = readMsg(t, alice)
	require.Equal(t, cnst.MsgStatusUpdate, msg.Type)
	assert.Equal(t, "away", msg.Status.Status)
}

func TestMalformedFrame_DoesNotKillConnection(t *testing.T) {
	srv := newTestServer(t)
	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{{{")))

	sendMsg(t, alice, &wire.Message{Type: cnst.MsgPing})
	msg := readMsg(t, alice)
	assert.Equal(t, cnst.MsgPong, msg.Type)
}

func TestHubAuthoritativeFrames_Dropped(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice")
	readMsg(t, alice)
	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	readMsg(t, bob)
	readMsg(t, alice)

	// a client must not be able to forge joins
	sendMsg(t, bob, &wire.Message{
		Type: cnst.MsgUserJoin,
		Join: &wire.JoinPayload{ParticipantInfo: wire.ParticipantInfo{ID: "mallory"}},
	})

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := alice.ReadMessage()
	assert.Error(t, err, "forged join must not be relayed")
}

func TestParticipantsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv, "/ws/room-1?participant=alice&name=Alice")
	readMsg(t, alice)
	bob := dialWS(t, srv, "/ws/room-1?participant=bob")
	readMsg(t, bob)
	readMsg(t, alice)

	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s/participants", srv.URL, "room-1"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Session string `json:"session"`
		Count   int    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "room-1", body.Session)
	assert.Equal(t, 2, body.Count)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
