package vitals

import "fmt"

// Alert is a single threshold violation event. Alerts are values: the
// evaluator returns them and logs them, but does not mutate the snapshot
// or deliver them anywhere itself.
type Alert struct {
	// Metric is the violated metric key; MetricRender for render alerts.
	Metric Metric `json:"metric"`

	// Component is the render record name. Empty for scalar metrics.
	Component string `json:"component,omitempty"`

	// Value is the observed reading.
	Value float64 `json:"value"`

	// Threshold is the resolved ceiling the reading exceeded.
	Threshold float64 `json:"threshold"`

	// Message is the formatted alert text.
	Message string `json:"message"`
}

// CheckAlerts evaluates the current snapshot against the given threshold
// overrides, resolved key-by-key against the defaults. One alert is
// emitted per scalar metric whose value is known and strictly greater than
// its ceiling, plus one per render record exceeding the component render
// ceiling (repeated renders of the same component alert independently).
// Unknown metrics are silently skipped. Each alert is logged as a warning.
func (s *Session) CheckAlerts(overrides Thresholds) []Alert {
	snap := s.store.Snapshot()
	var out []Alert

	for _, m := range ScalarMetrics {
		v, known := snap.Value(m).Get()
		if !known {
			continue
		}
		limit := overrides.Resolve(m)
		if v <= limit {
			continue
		}
		a := Alert{
			Metric:    m,
			Value:     v,
			Threshold: limit,
			Message: fmt.Sprintf("%s exceeded threshold: %.2f%s > %g%s",
				m, v, Unit(m), limit, Unit(m)),
		}
		out = append(out, a)
		s.log.Warn("vitals: metric over threshold",
			"metric", m, "value", v, "threshold", limit)
	}

	renderLimit := overrides.Resolve(MetricRender)
	for _, rec := range snap.Renders {
		if rec.RenderTime <= renderLimit {
			continue
		}
		a := Alert{
			Metric:    MetricRender,
			Component: rec.Name,
			Value:     rec.RenderTime,
			Threshold: renderLimit,
			Message: fmt.Sprintf("%s render exceeded threshold: %.2fms > %gms",
				rec.Name, rec.RenderTime, renderLimit),
		}
		out = append(out, a)
		s.log.Warn("vitals: component render over threshold",
			"component", rec.Name, "render_ms", rec.RenderTime, "threshold", renderLimit)
	}

	return out
}
