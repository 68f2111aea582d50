// Package tracker mirrors the progress of at most one host notification at a
// time onto registered listeners.
package tracker

import (
	"log/slog"
	"sync"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
	"github.com/zipxxx1/GravityBox-sub001/internal/session"
)

// Notifier is the fan-out side of the tracker, satisfied by
// *broadcast.Registry.
type Notifier interface {
	NotifyStarted(download bool, mode config.Mode)
	NotifyProgress(info progress.Info)
	NotifyStopped()
	NotifyModeChanged(mode config.Mode)
	NotifySettings(settings config.Settings)
}

// State is a point-in-time view of the tracker.
type State struct {
	Tracking bool            `json:"tracking"`
	Key      string          `json:"key,omitempty"`
	Download bool            `json:"download"`
	Progress progress.Info   `json:"progress"`
	Settings config.Settings `json:"settings"`
}

// Tracker is a single-slot state machine over host lifecycle events. While
// one session is tracked every other session is ignored until it ends.
//
// Decisions are made under mu and queue their notifications. Whichever caller
// finds the queue idle drains it with mu released, so listeners see events in
// decision order and may call back into the tracker. A caller whose events
// were queued behind an active drain returns before they are delivered.
type Tracker struct {
	resolver *session.Resolver
	store    *config.Store
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	key      string // empty while idle
	download bool
	last     progress.Info

	pending    []func()
	delivering bool
}

func New(resolver *session.Resolver, store *config.Store, notifier Notifier, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		resolver: resolver,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Added handles a newly posted notification.
func (t *Tracker) Added(n session.Notification) {
	t.mu.Lock()
	var out []func()
	if t.key == "" {
		out = t.startLocked(n)
	}
	t.release(out)
}

// Updated handles a change to a posted notification. While idle an update is
// treated as an add, because tracking may have been enabled mid-transfer.
//
// That also means an update redelivered after a removal this tracker never
// saw resurrects the session. This is kept as observed behaviour.
func (t *Tracker) Updated(n session.Notification) {
	t.mu.Lock()
	var out []func()
	if t.key == "" {
		out = t.startLocked(n)
		if out != nil {
			t.logger.Debug("update started a session while idle", "key", t.key)
		}
		t.release(out)
		return
	}

	key, ok := t.resolver.Key(n.SourceID, n.Tag, n.ID)
	if !ok || key != t.key {
		t.release(nil)
		return
	}

	if info, ok := t.resolver.Qualifies(n); ok {
		t.last = info
		out = append(out, func() { t.notifier.NotifyProgress(info) })
	} else {
		out = t.stopLocked("no longer trackable")
	}
	t.release(out)
}

// Removed handles the cancellation of a notification. Only identity fields
// are available at this point.
func (t *Tracker) Removed(sourceID, tag string, id int) {
	t.mu.Lock()
	var out []func()
	if t.key != "" {
		if key, ok := t.resolver.Key(sourceID, tag, id); ok && key == t.key {
			out = t.stopLocked("removed")
		}
	}
	t.release(out)
}

// ApplyConfig applies a configuration-change message. Switching the mode to
// Off ends the tracked session before the mode change is announced.
func (t *Tracker) ApplyConfig(c config.Change) (config.Delta, error) {
	if err := c.Validate(); err != nil {
		return config.Delta{}, err
	}

	t.mu.Lock()
	d := t.store.Apply(c)
	settings := t.store.Settings()

	var out []func()
	if d.Mode && settings.Mode == config.Off && t.key != "" {
		out = t.stopLocked("mode off")
	}
	if d.Mode {
		out = append(out, func() { t.notifier.NotifyModeChanged(settings.Mode) })
	}
	if d.Presentation {
		out = append(out, func() { t.notifier.NotifySettings(settings) })
	}
	if d.Any() {
		t.logger.Info("indicator settings changed", "mode", settings.Mode,
			"animated", settings.Animated, "centered", settings.Centered,
			"thickness_dip", settings.ThicknessDip, "margin_dip", settings.MarginDip)
	}
	t.release(out)
	return d, nil
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Tracking: t.key != "",
		Key:      t.key,
		Download: t.download,
		Progress: t.last,
		Settings: t.store.Settings(),
	}
}

// startLocked begins tracking n if it qualifies. Caller holds t.mu.
func (t *Tracker) startLocked(n session.Notification) []func() {
	mode := t.store.Mode()
	if mode == config.Off {
		return nil
	}
	id, info, ok := t.resolver.Resolve(n)
	if !ok {
		return nil
	}

	t.key = id.Key
	t.download = id.Download
	t.last = info
	t.logger.Info("session started", "key", id.Key, "download", id.Download, "percent", info.Percent())

	return []func(){
		func() { t.notifier.NotifyStarted(id.Download, mode) },
		func() { t.notifier.NotifyProgress(info) },
	}
}

// stopLocked returns the tracker to idle. Caller holds t.mu.
func (t *Tracker) stopLocked(reason string) []func() {
	t.logger.Info("session stopped", "key", t.key, "reason", reason)
	t.key = ""
	t.download = false
	t.last = progress.Info{}
	return []func(){t.notifier.NotifyStopped}
}

// release queues out and unlocks mu, draining the queue first unless
// another caller is already doing so. Caller holds t.mu.
func (t *Tracker) release(out []func()) {
	t.pending = append(t.pending, out...)
	if t.delivering {
		t.mu.Unlock()
		return
	}
	t.delivering = true
	for len(t.pending) > 0 {
		batch := t.pending
		t.pending = nil
		t.mu.Unlock()
		for _, fn := range batch {
			t.deliver(fn)
		}
		t.mu.Lock()
	}
	t.delivering = false
	t.mu.Unlock()
}

// deliver runs one queued notification. A panicking notifier is logged and
// the rest of the queue is still delivered.
func (t *Tracker) deliver(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			t.logger.Error("notifier failed", "panic", v)
		}
	}()
	fn()
}
