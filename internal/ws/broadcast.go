package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

const writeTimeout = 10 * time.Second

type client struct {
	id   string
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, b *Broadcaster) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		b:    b,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// trySend queues msg without blocking. It reports false when the buffer is
// full; sends after close are dropped.
func (c *client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Broadcaster is a tracker listener that relays every event to connected
// websocket consumers. Progress updates are coalesced: within one throttle
// window only the latest value is sent, and it is always flushed before any
// other event so consumers never see progress after a stop.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int
	logger   *slog.Logger

	snapshot func() SnapshotPayload

	// sendMu serializes every outgoing event, including timer flushes, so a
	// flushed progress value cannot overtake a later event.
	sendMu sync.Mutex

	throttle        time.Duration
	flushMu         sync.Mutex
	pendingProgress *progress.Info
	flushTimer      *time.Timer
}

// NewBroadcaster creates a broadcaster. maxConns <= 0 means no limit; a zero
// throttle sends every progress update immediately.
func NewBroadcaster(snapshot func() SnapshotPayload, throttle time.Duration, maxConns int, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
		logger:   logger,
		snapshot: snapshot,
		throttle: throttle,
	}
}

// AddClient registers conn and queues the current snapshot as its first
// message. It returns nil when the connection limit is reached; the caller
// closes conn.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		return nil
	}
	c := newClient(conn, b)
	if b.snapshot != nil {
		data, err := json.Marshal(WSMessage{Type: MsgSnapshot, Payload: b.snapshot()})
		if err != nil {
			b.logger.Error("snapshot marshal error", "error", err)
		} else {
			c.trySend(data)
		}
	}
	b.clients[c] = true
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop cancels a pending progress flush and disconnects every client.
func (b *Broadcaster) Stop() {
	b.flushMu.Lock()
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
	b.pendingProgress = nil
	b.flushMu.Unlock()

	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) OnSessionStarted(download bool, mode config.Mode) {
	b.send(WSMessage{Type: MsgSessionStarted, Payload: SessionStartedPayload{Download: download, Mode: mode}})
}

func (b *Broadcaster) OnProgress(info progress.Info) {
	if b.throttle <= 0 {
		b.send(progressMessage(info))
		return
	}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.pendingProgress = &info
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flushProgress)
	}
}

func (b *Broadcaster) OnSessionStopped() {
	b.send(WSMessage{Type: MsgSessionStopped})
}

func (b *Broadcaster) OnModeChanged(mode config.Mode) {
	b.send(WSMessage{Type: MsgModeChanged, Payload: ModeChangedPayload{Mode: mode}})
}

func (b *Broadcaster) OnSettingsChanged(settings config.Settings) {
	b.send(WSMessage{Type: MsgSettings, Payload: settings})
}

func progressMessage(info progress.Info) WSMessage {
	return WSMessage{Type: MsgProgress, Payload: ProgressPayload{Info: info, Fraction: info.Fraction()}}
}

// send delivers any pending progress and then msg, as one step.
func (b *Broadcaster) send(msg WSMessage) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	b.flushPendingLocked()
	b.broadcast(msg)
}

// flushProgress is the throttle timer callback.
func (b *Broadcaster) flushProgress() {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	b.flushPendingLocked()
}

// flushPendingLocked broadcasts the coalesced progress value, if any.
// Caller holds b.sendMu.
func (b *Broadcaster) flushPendingLocked() {
	b.flushMu.Lock()
	pending := b.pendingProgress
	b.pendingProgress = nil
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
	b.flushMu.Unlock()

	if pending != nil {
		b.broadcast(progressMessage(*pending))
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("broadcast marshal error", "type", msg.Type, "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			b.logger.Warn("ws client too slow, disconnecting", "client", c.id)
			b.RemoveClient(c)
		}
	}
}
