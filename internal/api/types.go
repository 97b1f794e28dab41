package api

import "github.com/vitalscope/vitalscope/vitals"

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Score    int    `json:"score"`
	Tier     string `json:"tier"`
	Feedback string `json:"feedback"`
}

// SnapshotResponse is the body of GET /api/v1/snapshot. Scalar fields are
// null until their collector has resolved a value.
type SnapshotResponse struct {
	FirstContentfulPaint   *float64 `json:"first_contentful_paint"`
	LargestContentfulPaint *float64 `json:"largest_contentful_paint"`
	TimeToInteractive      *float64 `json:"time_to_interactive"`
	CumulativeLayoutShift  *float64 `json:"cumulative_layout_shift"`
	FirstInputDelay        *float64 `json:"first_input_delay"`
	InteractionToNextPaint *float64 `json:"interaction_to_next_paint"`
	TimeToFirstByte        *float64 `json:"time_to_first_byte"`

	Renders []vitals.RenderRecord `json:"component_renders"`
}

// AlertsResponse is the body of GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts      []vitals.Alert `json:"alerts"`
	EvaluatedAt string         `json:"evaluated_at"`
}

func toSnapshotResponse(snap vitals.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		FirstContentfulPaint:   nullable(snap.FirstContentfulPaint),
		LargestContentfulPaint: nullable(snap.LargestContentfulPaint),
		TimeToInteractive:      nullable(snap.TimeToInteractive),
		CumulativeLayoutShift:  nullable(snap.CumulativeLayoutShift),
		FirstInputDelay:        nullable(snap.FirstInputDelay),
		InteractionToNextPaint: nullable(snap.InteractionToNextPaint),
		TimeToFirstByte:        nullable(snap.TimeToFirstByte),
		Renders:                snap.Renders,
	}
	if resp.Renders == nil {
		resp.Renders = []vitals.RenderRecord{}
	}
	return resp
}

// nullable maps the unknown sentinel to a JSON null.
func nullable(v vitals.Value) *float64 {
	f, ok := v.Get()
	if !ok {
		return nil
	}
	return &f
}
