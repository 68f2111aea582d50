package broadcast

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

// recorder logs every callback as a short string.
type recorder struct {
	mu     sync.Mutex
	name   string
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) OnSessionStarted(download bool, mode config.Mode) {
	r.add(fmt.Sprintf("%sstarted(%v,%s)", r.name, download, mode))
}

func (r *recorder) OnProgress(info progress.Info) {
	r.add(fmt.Sprintf("%sprogress(%d/%d)", r.name, info.Progress, info.Max))
}

func (r *recorder) OnSessionStopped()              { r.add(r.name + "stopped") }
func (r *recorder) OnModeChanged(mode config.Mode) { r.add(r.name + "mode(" + mode.String() + ")") }

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestRegistryDelivers(t *testing.T) {
	reg := NewRegistry(nil)
	rec := &recorder{}
	reg.Register(rec)

	reg.NotifyStarted(true, config.Top)
	reg.NotifyProgress(progress.Info{HasProgressBar: true, Progress: 1, Max: 4})
	reg.NotifyStopped()
	reg.NotifyModeChanged(config.Off)
	reg.NotifySettings(config.Settings{})

	assert.Equal(t, []string{"started(true,top)", "progress(1/4)", "stopped", "mode(off)"}, rec.Events())
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	reg := NewRegistry(nil)
	rec := &recorder{}

	reg.Register(rec)
	reg.Register(rec)
	require.Equal(t, 1, reg.Len())

	reg.NotifyStopped()
	assert.Equal(t, []string{"stopped"}, rec.Events())

	reg.Unregister(rec)
	reg.Unregister(rec)
	assert.Equal(t, 0, reg.Len())

	reg.NotifyStopped()
	assert.Len(t, rec.Events(), 1)
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry(nil)
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		reg.Register(&Funcs{SessionStopped: func() { order = append(order, name) }})
	}

	reg.NotifyStopped()
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRegistryUnregisterDuringCallback(t *testing.T) {
	reg := NewRegistry(nil)
	after := &recorder{name: "after:"}

	self := &Funcs{}
	self.SessionStopped = func() { reg.Unregister(self) }

	reg.Register(self)
	reg.Register(after)

	reg.NotifyStopped()
	assert.Equal(t, []string{"after:stopped"}, after.Events(), "snapshot delivery must still reach later listeners")
	assert.Equal(t, 1, reg.Len())

	reg.NotifyStopped()
	assert.Len(t, after.Events(), 2)
}

func TestRegistryPanicIsolation(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))

	before := &recorder{name: "before:"}
	after := &recorder{name: "after:"}
	reg.Register(before)
	reg.Register(&Funcs{Progress: func(progress.Info) { panic("view detached") }})
	reg.Register(after)

	require.NotPanics(t, func() {
		reg.NotifyProgress(progress.Info{HasProgressBar: true, Progress: 2, Max: 3})
	})

	assert.Equal(t, []string{"before:progress(2/3)"}, before.Events())
	assert.Equal(t, []string{"after:progress(2/3)"}, after.Events())
	assert.True(t, strings.Contains(buf.String(), "view detached"))
	assert.True(t, strings.Contains(buf.String(), "event=progress"))
}

func TestRegistrySettingsListener(t *testing.T) {
	reg := NewRegistry(nil)
	var got []config.Settings
	reg.Register(&Funcs{SettingsChanged: func(s config.Settings) { got = append(got, s) }})
	reg.Register(&recorder{})

	want := config.Settings{Mode: config.Bottom, Centered: true, ThicknessDip: 2}
	reg.NotifySettings(want)
	assert.Equal(t, []config.Settings{want}, got)
}

func TestRegistryConcurrentUse(t *testing.T) {
	reg := NewRegistry(nil)
	stable := &recorder{}
	reg.Register(stable)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l := &recorder{}
				reg.Register(l)
				reg.Unregister(l)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.NotifyProgress(progress.Info{HasProgressBar: true, Progress: j, Max: 100})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Len())
	assert.Len(t, stable.Events(), 800)
}

// tagsListener is a value listener whose type cannot be compared with ==.
type tagsListener struct {
	tags []string
}

func (tagsListener) OnSessionStarted(bool, config.Mode) {}
func (tagsListener) OnProgress(progress.Info)           {}
func (tagsListener) OnSessionStopped()                  {}
func (tagsListener) OnModeChanged(config.Mode)          {}

func TestRegistryUncomparableListener(t *testing.T) {
	reg := NewRegistry(nil)
	rec := &recorder{}
	reg.Register(rec)

	require.NotPanics(t, func() {
		reg.Register(tagsListener{tags: []string{"a"}})
		reg.Register(tagsListener{tags: []string{"b"}})
		reg.Unregister(tagsListener{tags: []string{"a"}})
		reg.Unregister(nil)
		reg.Register(nil)
	})
	assert.Equal(t, 3, reg.Len())

	reg.Unregister(rec)
	assert.Equal(t, 2, reg.Len())
}
