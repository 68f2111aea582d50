package ws

import (
	"encoding/json"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
	"github.com/zipxxx1/GravityBox-sub001/internal/tracker"
)

type MessageType string

// Messages sent to consumers on /ws.
const (
	MsgSnapshot       MessageType = "snapshot"
	MsgSessionStarted MessageType = "session_started"
	MsgProgress       MessageType = "progress"
	MsgSessionStopped MessageType = "session_stopped"
	MsgModeChanged    MessageType = "mode_changed"
	MsgSettings       MessageType = "settings"
	MsgError          MessageType = "error"
)

// Messages host glue sends on /host.
const (
	MsgAdded   MessageType = "added"
	MsgUpdated MessageType = "updated"
	MsgRemoved MessageType = "removed"
	MsgConfig  MessageType = "config"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type SnapshotPayload = tracker.State

type SessionStartedPayload struct {
	Download bool        `json:"download"`
	Mode     config.Mode `json:"mode"`
}

type ProgressPayload struct {
	progress.Info
	Fraction float64 `json:"fraction"`
}

type ModeChangedPayload struct {
	Mode config.Mode `json:"mode"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// HostMessage is one lifecycle or configuration event from host glue. The
// notification is kept raw and handed to a session.Adapter.
type HostMessage struct {
	Type         MessageType     `json:"type"`
	Notification json.RawMessage `json:"notification,omitempty"`
	Removed      *RemovedPayload `json:"removed,omitempty"`
	Config       *config.Change  `json:"config,omitempty"`
}

// RemovedPayload carries the identity fields of a removed notification.
type RemovedPayload struct {
	SourceID string `json:"sourceId"`
	Tag      string `json:"tag,omitempty"`
	ID       int    `json:"id"`
}
