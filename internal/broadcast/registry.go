package broadcast

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

// Registry fans events out to registered listeners. Delivery iterates a copy
// of the listener list taken under the lock, so listeners may register or
// unregister (themselves included) from inside a callback.
//
// Listeners are compared with ==; register pointers. A listener whose
// dynamic type is not comparable never matches another entry, so it is added
// on every Register and cannot be unregistered.
type Registry struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds l. Registering a listener twice is a no-op.
func (r *Registry) Register(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.listeners, l) >= 0 {
		return
	}
	r.listeners = append(r.listeners, l)
}

// Unregister removes l if present.
func (r *Registry) Unregister(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := indexOf(r.listeners, l); i >= 0 {
		r.listeners = slices.Delete(r.listeners, i, i+1)
	}
}

// indexOf finds l without comparing values of an uncomparable type, which
// would panic.
func indexOf(listeners []Listener, l Listener) int {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return -1
	}
	return slices.Index(listeners, l)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

func (r *Registry) NotifyStarted(download bool, mode config.Mode) {
	r.each("session_started", func(l Listener) { l.OnSessionStarted(download, mode) })
}

func (r *Registry) NotifyProgress(info progress.Info) {
	r.each("progress", func(l Listener) { l.OnProgress(info) })
}

func (r *Registry) NotifyStopped() {
	r.each("session_stopped", func(l Listener) { l.OnSessionStopped() })
}

func (r *Registry) NotifyModeChanged(mode config.Mode) {
	r.each("mode_changed", func(l Listener) { l.OnModeChanged(mode) })
}

// NotifySettings reaches only listeners implementing SettingsListener.
func (r *Registry) NotifySettings(settings config.Settings) {
	r.each("settings", func(l Listener) {
		if sl, ok := l.(SettingsListener); ok {
			sl.OnSettingsChanged(settings)
		}
	})
}

func (r *Registry) snapshot() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.listeners)
}

func (r *Registry) each(event string, deliver func(Listener)) {
	for _, l := range r.snapshot() {
		r.deliver(event, l, deliver)
	}
}

// deliver invokes one callback, containing any panic so the remaining
// listeners still receive the event.
func (r *Registry) deliver(event string, l Listener, fn func(Listener)) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("listener failed", "event", event, "listener", fmt.Sprintf("%T", l), "panic", v)
		}
	}()
	fn(l)
}
