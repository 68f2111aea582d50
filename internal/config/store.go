package config

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownMode   = errors.New("unknown display mode")
	ErrInvalidChange = errors.New("invalid configuration change")
)

// Settings is the indicator configuration. Only Mode affects tracking; the
// remaining fields are presentation hints for view-layer consumers.
type Settings struct {
	Mode         Mode `yaml:"mode" json:"mode"`
	Animated     bool `yaml:"animated" json:"animated"`
	Centered     bool `yaml:"centered" json:"centered"`
	ThicknessDip int  `yaml:"thickness_dip" json:"thicknessDip"`
	MarginDip    int  `yaml:"margin_dip" json:"marginDip"`
}

// Change is a sparse configuration-change message. Nil fields leave the
// current value untouched.
type Change struct {
	Mode         *Mode `yaml:"mode,omitempty" json:"mode,omitempty"`
	Animated     *bool `yaml:"animated,omitempty" json:"animated,omitempty"`
	Centered     *bool `yaml:"centered,omitempty" json:"centered,omitempty"`
	ThicknessDip *int  `yaml:"thicknessDip,omitempty" json:"thicknessDip,omitempty"`
	MarginDip    *int  `yaml:"marginDip,omitempty" json:"marginDip,omitempty"`
}

// IsEmpty reports whether the change carries no fields at all.
func (c Change) IsEmpty() bool {
	return c.Mode == nil && c.Animated == nil && c.Centered == nil &&
		c.ThicknessDip == nil && c.MarginDip == nil
}

func (c Change) Validate() error {
	if c.Mode != nil && !c.Mode.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChange, ErrUnknownMode, int(*c.Mode))
	}
	if c.ThicknessDip != nil && *c.ThicknessDip < 0 {
		return fmt.Errorf("%w: thicknessDip %d is negative", ErrInvalidChange, *c.ThicknessDip)
	}
	if c.MarginDip != nil && *c.MarginDip < 0 {
		return fmt.Errorf("%w: marginDip %d is negative", ErrInvalidChange, *c.MarginDip)
	}
	return nil
}

// Diff returns the change that turns from into to.
func Diff(from, to Settings) Change {
	var c Change
	if from.Mode != to.Mode {
		c.Mode = &to.Mode
	}
	if from.Animated != to.Animated {
		c.Animated = &to.Animated
	}
	if from.Centered != to.Centered {
		c.Centered = &to.Centered
	}
	if from.ThicknessDip != to.ThicknessDip {
		c.ThicknessDip = &to.ThicknessDip
	}
	if from.MarginDip != to.MarginDip {
		c.MarginDip = &to.MarginDip
	}
	return c
}

// Delta reports which parts of the settings an Apply actually changed.
type Delta struct {
	Mode         bool
	Presentation bool
}

func (d Delta) Any() bool {
	return d.Mode || d.Presentation
}

// Store holds the live indicator settings.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

func NewStore(initial Settings) *Store {
	return &Store{settings: initial}
}

func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Mode
}

// Apply sets every field present in c. Fields equal to the current value do
// not count as changed. The caller validates c first.
func (s *Store) Apply(c Change) Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d Delta
	st := &s.settings
	if c.Mode != nil && *c.Mode != st.Mode {
		st.Mode = *c.Mode
		d.Mode = true
	}
	if c.Animated != nil && *c.Animated != st.Animated {
		st.Animated = *c.Animated
		d.Presentation = true
	}
	if c.Centered != nil && *c.Centered != st.Centered {
		st.Centered = *c.Centered
		d.Presentation = true
	}
	if c.ThicknessDip != nil && *c.ThicknessDip != st.ThicknessDip {
		st.ThicknessDip = *c.ThicknessDip
		d.Presentation = true
	}
	if c.MarginDip != nil && *c.MarginDip != st.MarginDip {
		st.MarginDip = *c.MarginDip
		d.Presentation = true
	}
	return d
}
