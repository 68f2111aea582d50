package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

var errMissingField = errors.New("missing field")

// handleHost accepts one host glue connection and feeds its lifecycle events
// to the engine. Bad messages are answered with an error message and the
// connection stays open.
func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("host upgrade error", "error", err)
		return
	}
	s.logger.Info("host connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			conn.Close()
			s.logger.Info("host disconnected", "remote", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := s.dispatch(data); err != nil {
				s.logger.Debug("host message rejected", "error", err)
				reply, _ := json.Marshal(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
				if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
					return
				}
			}
		}
	}()
}

// dispatch decodes one host message and applies it to the engine.
func (s *Server) dispatch(data []byte) error {
	var msg HostMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode host message: %w", err)
	}

	switch msg.Type {
	case MsgAdded, MsgUpdated:
		if len(msg.Notification) == 0 {
			return fmt.Errorf("%s: notification: %w", msg.Type, errMissingField)
		}
		n, err := s.adapter.Notification(msg.Notification)
		if err != nil {
			return fmt.Errorf("%s: %w", msg.Type, err)
		}
		if msg.Type == MsgAdded {
			s.engine.Added(n)
		} else {
			s.engine.Updated(n)
		}
	case MsgRemoved:
		if msg.Removed == nil {
			return fmt.Errorf("removed: %w", errMissingField)
		}
		s.engine.Removed(msg.Removed.SourceID, msg.Removed.Tag, msg.Removed.ID)
	case MsgConfig:
		if msg.Config == nil {
			return fmt.Errorf("config: %w", errMissingField)
		}
		if _, err := s.engine.ApplyConfig(*msg.Config); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
