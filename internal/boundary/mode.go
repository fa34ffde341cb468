package boundary

import (
	"fmt"
	"strings"
)

// Mode selects which axes a query scans.
type Mode int

const (
	// Both scans the horizontal and the vertical axis (the cross tool).
	Both Mode = iota
	// HorizontalOnly scans left and right only.
	HorizontalOnly
	// VerticalOnly scans up and down only.
	VerticalOnly
)

var modeNames = map[Mode]string{
	Both:           "both",
	HorizontalOnly: "horizontal",
	VerticalOnly:   "vertical",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Horizontal reports whether the mode scans the x axis.
func (m Mode) Horizontal() bool { return m == Both || m == HorizontalOnly }

// Vertical reports whether the mode scans the y axis.
func (m Mode) Vertical() bool { return m == Both || m == VerticalOnly }

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts "both"/"cross", "horizontal"/"h" and "vertical"/"v",
// case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "cross", "":
		return Both, nil
	case "horizontal", "h":
		return HorizontalOnly, nil
	case "vertical", "v":
		return VerticalOnly, nil
	}
	return Both, fmt.Errorf("unknown mode: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("unknown mode: %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Direction is one of the four scan directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Vertical reports whether the direction walks along the y axis.
func (d Direction) Vertical() bool { return d == Up || d == Down }
