package cnst

// MsgType is the wire discriminant carried in every envelope.
type MsgType string

const (
	MsgPing            MsgType = "ping"
	MsgPong            MsgType = "pong"
	MsgUserJoin        MsgType = "user_join"
	MsgUserLeave       MsgType = "user_leave"
	MsgCursorUpdate    MsgType = "cursor_update"
	MsgStatusUpdate    MsgType = "status_update"
	MsgNewMessage      MsgType = "new_message"
	MsgThinkingShared  MsgType = "thinking_shared"
	MsgAnnotationAdded MsgType = "annotation_added"
	MsgUserListUpdate  MsgType = "user_list_update"
)

func (t MsgType) String() string {
	return string(t)
}

// KnownMsgTypes lists every discriminant the codec recognizes.
var KnownMsgTypes = map[MsgType]struct{}{
	MsgPing:            {},
	MsgPong:            {},
	MsgUserJoin:        {},
	MsgUserLeave:       {},
	MsgCursorUpdate:    {},
	MsgStatusUpdate:    {},
	MsgNewMessage:      {},
	MsgThinkingShared:  {},
	MsgAnnotationAdded: {},
	MsgUserListUpdate:  {},
}
