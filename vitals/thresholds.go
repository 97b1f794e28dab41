package vitals

// Default metric ceilings. A metric above its ceiling is considered
// degraded; the score penalty is derived from how far it exceeds it.
const (
	DefaultFCPMs    = 2000.0
	DefaultLCPMs    = 2500.0
	DefaultTTIMs    = 3000.0
	DefaultCLS      = 0.1
	DefaultFIDMs    = 100.0
	DefaultINPMs    = 200.0
	DefaultTTFBMs   = 800.0
	DefaultRenderMs = 500.0
)

var defaultCeilings = map[Metric]float64{
	MetricFCP:    DefaultFCPMs,
	MetricLCP:    DefaultLCPMs,
	MetricTTI:    DefaultTTIMs,
	MetricCLS:    DefaultCLS,
	MetricFID:    DefaultFIDMs,
	MetricINP:    DefaultINPMs,
	MetricTTFB:   DefaultTTFBMs,
	MetricRender: DefaultRenderMs,
}

// Thresholds is a partial metric→ceiling override set. Keys that are absent
// fall back to the fixed defaults key-by-key, so a caller overriding only
// one ceiling keeps the defaults for the rest.
type Thresholds map[Metric]float64

// Resolve returns the configured ceiling for m, or the default when m is
// not overridden.
func (t Thresholds) Resolve(m Metric) float64 {
	if v, ok := t[m]; ok {
		return v
	}
	return defaultCeilings[m]
}

// DefaultCeiling returns the fixed default ceiling for m.
func DefaultCeiling(m Metric) float64 { return defaultCeilings[m] }

// Unit returns the display unit for m: "ms" for time-based metrics, empty
// for the unitless layout-shift score.
func Unit(m Metric) string {
	if m == MetricCLS {
		return ""
	}
	return "ms"
}
