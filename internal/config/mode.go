package config

import (
	"fmt"
	"strings"
)

// Mode selects where the progress indicator is shown, if at all.
type Mode int

const (
	Off Mode = iota
	Top
	Bottom
)

var modeNames = map[Mode]string{
	Off:    "off",
	Top:    "top",
	Bottom: "bottom",
}

var modeFromName = map[string]Mode{
	"off":    Off,
	"top":    Top,
	"bottom": Bottom,
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts the lowercase mode names, ignoring case and surrounding
// whitespace.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeFromName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return Off, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(data []byte) error {
	v, err := ParseMode(string(data))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
