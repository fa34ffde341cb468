package boundary

import "strconv"

// Measurement is the span a scan result reports to the user.
type Measurement struct {
	Mode   Mode `json:"mode"`
	Width  int  `json:"width"`  // Right - Left + 1, or 0 when not scanned
	Height int  `json:"height"` // Bottom - Top + 1, or 0 when not scanned
}

// Measure converts a scan result into pixel spans for the given mode.
func Measure(res Result, mode Mode) Measurement {
	m := Measurement{Mode: mode}
	if mode.Horizontal() {
		m.Width = res.Right - res.Left + 1
	}
	if mode.Vertical() {
		m.Height = res.Bottom - res.Top + 1
	}
	return m
}

// Label formats the measurement the way the overlay tooltip shows it:
// "W × H" for the cross tool, otherwise the single scanned span.
func (m Measurement) Label() string {
	switch m.Mode {
	case HorizontalOnly:
		return strconv.Itoa(m.Width)
	case VerticalOnly:
		return strconv.Itoa(m.Height)
	default:
		return strconv.Itoa(m.Width) + " × " + strconv.Itoa(m.Height)
	}
}
