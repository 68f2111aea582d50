package broadcast

import (
	"github.com/zipxxx1/GravityBox-sub001/internal/config"
	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

// Listener receives session lifecycle and progress events. Callbacks run on
// the goroutine that delivered the host event and must not block.
type Listener interface {
	OnSessionStarted(download bool, mode config.Mode)
	OnProgress(info progress.Info)
	OnSessionStopped()
	OnModeChanged(mode config.Mode)
}

// SettingsListener is implemented by listeners that also want presentation
// hint updates (animation, centering, thickness, margin).
type SettingsListener interface {
	OnSettingsChanged(settings config.Settings)
}

// Funcs is a Listener built from optional callbacks. Register a pointer so
// the registry can tell instances apart.
type Funcs struct {
	SessionStarted  func(download bool, mode config.Mode)
	Progress        func(info progress.Info)
	SessionStopped  func()
	ModeChanged     func(mode config.Mode)
	SettingsChanged func(settings config.Settings)
}

func (f *Funcs) OnSessionStarted(download bool, mode config.Mode) {
	if f.SessionStarted != nil {
		f.SessionStarted(download, mode)
	}
}

func (f *Funcs) OnProgress(info progress.Info) {
	if f.Progress != nil {
		f.Progress(info)
	}
}

func (f *Funcs) OnSessionStopped() {
	if f.SessionStopped != nil {
		f.SessionStopped()
	}
}

func (f *Funcs) OnModeChanged(mode config.Mode) {
	if f.ModeChanged != nil {
		f.ModeChanged(mode)
	}
}

func (f *Funcs) OnSettingsChanged(settings config.Settings) {
	if f.SettingsChanged != nil {
		f.SettingsChanged(settings)
	}
}
