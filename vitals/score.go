package vitals

import "math"

// Feedback tiers returned by Feedback. The ladder is checked in descending
// threshold order with inclusive lower edges, so 90 is excellent and 70 is
// good.
const (
	TierExcellent        = "excellent"
	TierGood             = "good"
	TierNeedsImprovement = "needs improvement"
)

// Tier boundaries.
const (
	ThresholdExcellent = 90
	ThresholdGood      = 70
)

// Overage normalisation: milliseconds over the ceiling cost 1 point per
// 100ms; layout-shift overage is scaled up since CLS is a small ratio.
const (
	msPerPoint       = 100.0
	clsPointsPerUnit = 100.0
)

// Score converts a snapshot into a bounded [0,100] score via accumulated
// penalty. Starting from 100, every known scalar metric contributes its
// positive normalised overage against the default ceiling, and every
// render record contributes its positive overage against the component
// render ceiling. Unknown metrics contribute nothing at all, so the score
// is invariant to metrics that have no data yet; beating a ceiling earns
// no bonus. The result is clamped at 0 and rounded to the nearest integer.
func Score(snap Snapshot) int {
	score := 100.0

	for _, m := range ScalarMetrics {
		v, known := snap.Value(m).Get()
		if !known {
			continue
		}
		if over := overage(m, v); over > 0 {
			score -= over
		}
	}

	for _, rec := range snap.Renders {
		over := (rec.RenderTime - DefaultCeiling(MetricRender)) / msPerPoint
		if over > 0 {
			score -= over
		}
	}

	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

// overage returns the normalised amount by which v exceeds the default
// ceiling for m, in score points. Negative when under the ceiling.
func overage(m Metric, v float64) float64 {
	ceiling := DefaultCeiling(m)
	if m == MetricCLS {
		return (v - ceiling) * clsPointsPerUnit
	}
	return (v - ceiling) / msPerPoint
}

// Feedback maps a score to its qualitative tier. Highest tier whose
// threshold the score meets or exceeds wins.
func Feedback(score int) string {
	switch {
	case score >= ThresholdExcellent:
		return TierExcellent
	case score >= ThresholdGood:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

// FeedbackMessage returns the human-readable message for the score's tier.
func FeedbackMessage(score int) string {
	switch Feedback(score) {
	case TierExcellent:
		return "Excellent! Your app feels fast and responsive."
	case TierGood:
		return "Good performance, with room to tighten a few metrics."
	default:
		return "Needs improvement: several metrics exceed their ceilings."
	}
}
