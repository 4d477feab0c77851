package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WriteWait bounds a single frame write.
	WriteWait = 10 * time.Second
	// ReadWait is how long a connection may stay silent. Clients ping well within it.
	ReadWait = 5 * time.Minute
	// MaxMessageBytes caps a client message.
	MaxMessageBytes = 4096
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return conn.WriteJSON(v)
}

// ErrMalformed wraps a frame that arrived intact but did not decode.
// The connection is still usable after it.
var ErrMalformed = errors.New("malformed message")

// ReadJSON reads one whole message and decodes it into v. It sets a read
// deadline. Decode failures, including empty and truncated payloads, wrap
// ErrMalformed; any other error means the connection is gone.
func ReadJSON(conn *websocket.Conn, v any) error {
	conn.SetReadDeadline(time.Now().Add(ReadWait))
	_, r, err := conn.NextReader()
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// WriteClose sends a close frame with code and reason.
func WriteClose(conn *websocket.Conn, code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteWait))
}
