package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

var ErrUnsupportedPayload = errors.New("unsupported notification payload")

// Adapter turns a host-specific notification object into a Notification.
// Host glue implements it for whatever representation the host exposes.
type Adapter interface {
	Notification(raw any) (Notification, error)
}

// WireNotification is the JSON form of a notification exchanged with host
// glue over the network. Action records travel either as a list of base64
// records or as one length-framed base64 blob.
type WireNotification struct {
	SourceID     string            `json:"sourceId"`
	Tag          string            `json:"tag,omitempty"`
	ID           int               `json:"id"`
	Clearable    bool              `json:"clearable"`
	Tracking     bool              `json:"tracking,omitempty"`
	Actions      []progress.Record `json:"actions,omitempty"`
	ActionStream []byte            `json:"actionStream,omitempty"`
}

// Notification converts the wire form. Actions wins over ActionStream; when
// neither is present the notification has no payload.
func (w WireNotification) Notification() Notification {
	n := Notification{
		SourceID:  w.SourceID,
		Tag:       w.Tag,
		ID:        w.ID,
		Clearable: w.Clearable,
		Tracking:  w.Tracking,
	}
	switch {
	case w.Actions != nil:
		n.Actions = w.Actions
	case w.ActionStream != nil:
		n.Actions = progress.SplitFrames(w.ActionStream)
		if n.Actions == nil {
			n.Actions = []progress.Record{}
		}
	}
	return n
}

// WireAdapter adapts WireNotification values and their raw JSON encoding.
type WireAdapter struct{}

func (WireAdapter) Notification(raw any) (Notification, error) {
	switch v := raw.(type) {
	case WireNotification:
		return v.Notification(), nil
	case *WireNotification:
		if v == nil {
			return Notification{}, fmt.Errorf("%w: nil notification", ErrUnsupportedPayload)
		}
		return v.Notification(), nil
	case json.RawMessage:
		return decodeWire(v)
	case []byte:
		return decodeWire(v)
	default:
		return Notification{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, raw)
	}
}

func decodeWire(data []byte) (Notification, error) {
	var w WireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if w.SourceID == "" {
		return Notification{}, fmt.Errorf("%w: missing sourceId", ErrUnsupportedPayload)
	}
	return w.Notification(), nil
}
