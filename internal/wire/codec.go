package wire

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/syncroom/syncroom/internal/common/cnst"
)

// Decode parses one wire frame. Unrecognized discriminants decode into a
// Message whose Known() is false so the receive path can log and move on;
// malformed input and known frames missing required fields return a
// *DecodeError.
func Decode(data []byte) (*Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, &DecodeError{Err: cnst.ErrMalformedFrame}
	}

	t := gjson.GetBytes(data, "type")
	if !t.Exists() || t.Type != gjson.String || t.Str == "" {
		return nil, &DecodeError{Err: cnst.ErrMissingDiscriminant}
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Type: cnst.MsgType(t.Str), Err: err}
	}

	msg := &Message{Type: env.Type}
	if !msg.Known() {
		return msg, nil
	}

	switch env.Type {
	case cnst.MsgPing, cnst.MsgPong:
		// control frames carry no payload

	case cnst.MsgUserJoin:
		var p JoinPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, missingField(env.Type, "id")
		}
		msg.Join = &p

	case cnst.MsgUserLeave:
		var p LeavePayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, missingField(env.Type, "id")
		}
		msg.Leave = &p

	case cnst.MsgCursorUpdate:
		var p CursorPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, missingField(env.Type, "id")
		}
		msg.Cursor = &p

	case cnst.MsgStatusUpdate:
		var p StatusPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, missingField(env.Type, "id")
		}
		if p.Status == "" {
			return nil, missingField(env.Type, "status")
		}
		msg.Status = &p

	case cnst.MsgNewMessage:
		var p ChatPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.SenderID == "" {
			return nil, missingField(env.Type, "sender_id")
		}
		msg.Chat = &p

	case cnst.MsgThinkingShared:
		var p ThinkingPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.SenderID == "" {
			return nil, missingField(env.Type, "sender_id")
		}
		msg.Thinking = &p

	case cnst.MsgAnnotationAdded:
		var p AnnotationPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.SenderID == "" {
			return nil, missingField(env.Type, "sender_id")
		}
		msg.Annotation = &p

	case cnst.MsgUserListUpdate:
		var p RosterPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		msg.Roster = &p
	}

	return msg, nil
}

// Encode renders a Message back into one wire frame. It is total over the
// defined union; it fails only for messages that do not belong to the
// protocol, which is a programming error on the sending side.
func Encode(msg *Message) ([]byte, error) {
	if msg == nil || msg.Type == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	if !msg.Known() {
		return nil, fmt.Errorf("encode: unknown message type %q", msg.Type)
	}

	var payload any
	switch msg.Type {
	case cnst.MsgPing, cnst.MsgPong:
		payload = nil
	case cnst.MsgUserJoin:
		payload = msg.Join
	case cnst.MsgUserLeave:
		payload = msg.Leave
	case cnst.MsgCursorUpdate:
		payload = msg.Cursor
	case cnst.MsgStatusUpdate:
		payload = msg.Status
	case cnst.MsgNewMessage:
		payload = msg.Chat
	case cnst.MsgThinkingShared:
		payload = msg.Thinking
	case cnst.MsgAnnotationAdded:
		payload = msg.Annotation
	case cnst.MsgUserListUpdate:
		payload = msg.Roster
	}

	env := Envelope{Type: msg.Type}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msg.Type, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

func unmarshalPayload(env Envelope, dst any) error {
	if len(env.Payload) == 0 {
		return &DecodeError{Type: env.Type, Err: cnst.ErrMissingField}
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return &DecodeError{Type: env.Type, Err: err}
	}
	return nil
}

func missingField(t cnst.MsgType, field string) error {
	return &DecodeError{Type: t, Err: fmt.Errorf("%w: %s", cnst.ErrMissingField, field)}
}
