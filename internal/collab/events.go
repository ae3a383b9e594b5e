package collab

import (
	"encoding/json"
	"time"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
)

// Inbound event names.
const (
	EventGetDocument    = "get-document"
	EventSendChanges    = "send-changes"
	EventCursorPosition = "cursor-position"
	EventSaveDocument   = "save-document"
)

// Outbound event names.
const (
	EventLoadDocument   = "load-document"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventReceiveChanges = "receive-changes"
	EventCursorMoved    = "cursor-moved"
	EventError          = "error"
)

// Envelope is the wire frame for every realtime event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals v into an envelope for the given event name.
func NewEnvelope(event string, v interface{}) Envelope {
	b, _ := json.Marshal(v)
	return Envelope{Event: event, Data: b}
}

type GetDocumentPayload struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title,omitempty"`
}

// SendChangesPayload carries an opaque delta. The server never interprets it.
type SendChangesPayload struct {
	Delta json.RawMessage `json:"delta"`
}

type CursorPositionPayload struct {
	DocumentID string          `json:"documentId"`
	Position   json.RawMessage `json:"position"`
}

// SaveDocumentPayload carries the full opaque content to persist.
type SaveDocumentPayload struct {
	Data json.RawMessage `json:"data"`
}

type LoadDocumentPayload struct {
	DocumentID     string `json:"documentId"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Data           string `json:"data"`
	CurrentVersion int64  `json:"currentVersion"`
}

// PresencePayload announces a join or leave together with the online-user
// list recomputed after the registry mutation that triggered it.
type PresencePayload struct {
	User        models.PublicUser `json:"user"`
	DocumentID  string            `json:"documentId"`
	OnlineUsers []string          `json:"onlineUsers"`
}

type ReceiveChangesPayload struct {
	DocumentID string          `json:"documentId"`
	Delta      json.RawMessage `json:"delta"`
}

type CursorMovedPayload struct {
	DocumentID string          `json:"documentId"`
	UserID     string          `json:"userId"`
	Username   string          `json:"username"`
	Position   json.RawMessage `json:"position"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ErrorPayload is a scoped error delivered to the originating client only.
type ErrorPayload struct {
	Message    string `json:"message"`
	DocumentID string `json:"documentId,omitempty"`
}
