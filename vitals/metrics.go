package vitals

import (
	"fmt"
	"math"
)

// Metric identifies one of the tracked performance signals.
type Metric string

// Metric keys. These are the canonical identifiers used in threshold
// configuration, alerts, and JSON output.
const (
	MetricFCP    Metric = "fcp"
	MetricLCP    Metric = "lcp"
	MetricTTI    Metric = "tti"
	MetricCLS    Metric = "cls"
	MetricFID    Metric = "fid"
	MetricINP    Metric = "inp"
	MetricTTFB   Metric = "ttfb"
	MetricRender Metric = "component_render"
)

// ScalarMetrics is the ordered set of snapshot scalar metrics. It excludes
// MetricRender, which is evaluated per render record.
var ScalarMetrics = []Metric{
	MetricFCP, MetricLCP, MetricTTI, MetricCLS, MetricFID, MetricINP, MetricTTFB,
}

// Value is a metric reading that is either a known finite non-negative
// number or the explicit unknown sentinel. The zero Value is unknown,
// never a silent zero reading.
type Value struct {
	val   float64
	known bool
}

// Known returns a resolved Value holding v.
func Known(v float64) Value { return Value{val: v, known: true} }

// Unknown returns the unresolved sentinel Value.
func Unknown() Value { return Value{} }

// Get returns the underlying number and whether it is known.
func (v Value) Get() (float64, bool) { return v.val, v.known }

// IsKnown reports whether the value has been resolved.
func (v Value) IsKnown() bool { return v.known }

// Float64 returns the underlying number, or 0 when unknown. Use Get when
// the distinction matters.
func (v Value) Float64() float64 { return v.val }

func (v Value) String() string {
	if !v.known {
		return "unknown"
	}
	return fmt.Sprintf("%g", v.val)
}

// Scalars holds the seven scalar metric readings of one aggregation cycle.
// Time-based fields are milliseconds; CumulativeLayoutShift is unitless.
type Scalars struct {
	FirstContentfulPaint   Value
	LargestContentfulPaint Value
	TimeToInteractive      Value
	CumulativeLayoutShift  Value
	FirstInputDelay        Value
	InteractionToNextPaint Value
	TimeToFirstByte        Value
}

// Value returns the reading for the given scalar metric key.
// Unrecognised keys (including MetricRender) return the unknown sentinel.
func (s Scalars) Value(m Metric) Value {
	switch m {
	case MetricFCP:
		return s.FirstContentfulPaint
	case MetricLCP:
		return s.LargestContentfulPaint
	case MetricTTI:
		return s.TimeToInteractive
	case MetricCLS:
		return s.CumulativeLayoutShift
	case MetricFID:
		return s.FirstInputDelay
	case MetricINP:
		return s.InteractionToNextPaint
	case MetricTTFB:
		return s.TimeToFirstByte
	default:
		return Unknown()
	}
}

// RenderRecord is one component render observation. Records are append-only
// and insertion-ordered within a session; the core never mutates or removes
// them.
type RenderRecord struct {
	Name       string  `json:"name"`
	RenderTime float64 `json:"render_time"`
}

// Snapshot is a consistent view of the session's metric state: the scalar
// set of the latest aggregation cycle plus all render records appended so
// far.
type Snapshot struct {
	Scalars
	Renders []RenderRecord
}

// timeDecimals and clsDecimals fix the presentation precision applied at
// the point of observation.
const (
	timeDecimals = 2
	clsDecimals  = 4
)

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
