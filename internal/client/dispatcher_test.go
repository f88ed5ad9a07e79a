package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/cnst"
	"github.com/syncroom/syncroom/internal/wire"
)

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var order []string
	d.On(cnst.MsgNewMessage, func(*wire.Message) { order = append(order, "first") })
	d.On(cnst.MsgNewMessage, func(*wire.Message) { order = append(order, "second") })
	d.On(cnst.MsgNewMessage, func(*wire.Message) { order = append(order, "third") })

	d.Dispatch(&wire.Message{Type: cnst.MsgNewMessage, Chat: &wire.ChatPayload{SenderID: "a"}})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestDispatcher_WildcardSeesEverything(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var seen []cnst.MsgType
	d.OnAny(func(msg *wire.Message) { seen = append(seen, msg.Type) })

	d.Dispatch(&wire.Message{Type: cnst.MsgUserJoin, Join: &wire.JoinPayload{}})
	d.Dispatch(&wire.Message{Type: cnst.MsgUserLeave, Leave: &wire.LeavePayload{ID: "a"}})
	d.DispatchWildcard(&wire.Message{Type: "something_new"})

	assert.Equal(t, []cnst.MsgType{cnst.MsgUserJoin, cnst.MsgUserLeave, "something_new"}, seen)
}

func TestDispatcher_PanickingHandlerIsIsolated(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var after int
	d.On(cnst.MsgNewMessage, func(*wire.Message) { panic("boom") })
	d.On(cnst.MsgNewMessage, func(*wire.Message) { after++ })

	msg := &wire.Message{Type: cnst.MsgNewMessage, Chat: &wire.ChatPayload{SenderID: "a"}}
	assert.NotPanics(t, func() { d.Dispatch(msg) })
	assert.Equal(t, 1, after, "sibling handler must still run")

	// later frames are unaffected too
	d.Dispatch(msg)
	assert.Equal(t, 2, after)
}

func TestDispatcher_NoHandlersIsFine(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	assert.NotPanics(t, func() {
		d.Dispatch(&wire.Message{Type: cnst.MsgCursorUpdate, Cursor: &wire.CursorPayload{ID: "a"}})
	})
}
