package client

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one connection attempt's underlying socket. The Conn owns it
// exclusively; no other component ever holds a reference.
type Transport interface {
	// ReadMessage blocks until the next inbound frame or a transport error.
	ReadMessage() ([]byte, error)
	// WriteMessage transmits one frame.
	WriteMessage(data []byte) error
	// Close tears the socket down with a normal-closure code.
	Close() error
}

// Dialer opens a Transport for one connection attempt.
type Dialer func(ctx context.Context, url string) (Transport, error)

// wsTransport adapts a gorilla websocket connection to Transport.
type wsTransport struct {
	conn *websocket.Conn
}

var _ Transport = (*wsTransport)(nil)

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return t.conn.Close()
}

// DialWebSocket is the production Dialer.
func DialWebSocket(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}
