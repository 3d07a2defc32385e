package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/abiturprep/abitur-backend/internal/model"
)

// writeTimeout bounds a single frame write to a slow client.
const writeTimeout = 10 * time.Second

// StatusEvent is pushed to stream subscribers whenever a job's status is
// known or changes. Terminal events are followed by connection close.
type StatusEvent struct {
	HexCode string              `json:"hexcode"`
	Status  model.ExamJobStatus `json:"status"`
}

// ErrorPayload is sent before closing a stream that cannot be served.
type ErrorPayload struct {
	Error string `json:"error"`
}

// WriteEvent sends a status event with a write deadline.
func WriteEvent(conn *websocket.Conn, ev StatusEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ev)
}

// WriteError sends an error payload with a write deadline.
func WriteError(conn *websocket.Conn, msg string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ErrorPayload{Error: msg})
}
