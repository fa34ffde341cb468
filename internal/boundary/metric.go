package boundary

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/pixel-ruler/internal/raster"
)

// Metric is the color-distance function compared against the threshold.
type Metric int

const (
	// MetricRGB is the Euclidean distance over 8-bit channel differences,
	// the calibrated default for thresholds around 20.
	MetricRGB Metric = iota
	// MetricCIE76 is the Euclidean distance in CIE L*a*b*, in ΔE units.
	MetricCIE76
	// MetricCIEDE2000 is the CIEDE2000 color difference, in ΔE units.
	MetricCIEDE2000
)

// deltaEScale maps go-colorful's [0,1] lightness range onto ΔE units.
const deltaEScale = 100.0

var metricNames = map[Metric]string{
	MetricRGB:       "rgb",
	MetricCIE76:     "cie76",
	MetricCIEDE2000: "ciede2000",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// Valid reports whether m is one of the defined metrics.
func (m Metric) Valid() bool {
	_, ok := metricNames[m]
	return ok
}

// ParseMetric parses a metric name. The empty string selects MetricRGB.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb", "":
		return MetricRGB, nil
	case "cie76", "lab":
		return MetricCIE76, nil
	case "ciede2000", "de2000":
		return MetricCIEDE2000, nil
	}
	return MetricRGB, fmt.Errorf("unknown metric: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if _, ok := metricNames[m]; !ok {
		return nil, fmt.Errorf("unknown metric: %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Distance returns the magnitude of the color change from a to b.
func (m Metric) Distance(a, b raster.RGB) float64 {
	switch m {
	case MetricCIE76:
		return a.Colorful().DistanceCIE76(b.Colorful()) * deltaEScale
	case MetricCIEDE2000:
		return a.Colorful().DistanceCIEDE2000(b.Colorful()) * deltaEScale
	default:
		return rgbDistance(a, b)
	}
}

// rgbDistance is sqrt(dR² + dG² + dB²) on integer differences, so a
// magnitude equal to the threshold compares exactly.
func rgbDistance(a, b raster.RGB) float64 {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return math.Sqrt(float64(dr*dr + dg*dg + db*db))
}
