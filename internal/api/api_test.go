package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/vitals"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastSession builds a session over a fully buffered feed and runs one
// aggregation so the API has real state to serve. Kinds absent from the
// published set stay unknown.
func fastSession(t *testing.T, obs ...vitals.Observation) *vitals.Session {
	t.Helper()

	kinds := make([]vitals.Kind, 0, len(obs))
	for _, o := range obs {
		kinds = append(kinds, o.Kind)
	}
	if len(kinds) == 0 {
		// An unmatched kind keeps every real kind unsupported, so the
		// collectors resolve unknown instead of waiting on live events.
		kinds = append(kinds, vitals.Kind("unused"))
	}
	feed := provider.NewFeed(quietLogger(), kinds...)
	t.Cleanup(feed.Close)
	for _, o := range obs {
		feed.Publish(o)
	}
	feed.SetRequestTiming(12.5, 250)

	session := vitals.NewSession(feed, vitals.Config{Logger: quietLogger()})
	session.Collect(context.Background())
	return session
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	session := fastSession(t,
		vitals.Observation{Kind: vitals.KindPaint, Value: 1234.5},
		vitals.Observation{Kind: vitals.KindLargestPaint, Value: 2100.13},
	)
	h := New(session, nil)

	rec := get(t, h, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Score != 100 {
		t.Errorf("score = %d, want 100", resp.Score)
	}
	if resp.Tier != vitals.TierExcellent {
		t.Errorf("tier = %q, want %q", resp.Tier, vitals.TierExcellent)
	}
	if resp.Feedback == "" {
		t.Error("feedback message is empty")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	session := fastSession(t,
		vitals.Observation{Kind: vitals.KindPaint, Value: 1234.5},
	)
	session.TrackRender("Widget", 734.567)
	h := New(session, nil)

	rec := get(t, h, "/api/v1/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SnapshotResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FirstContentfulPaint == nil || *resp.FirstContentfulPaint != 1234.5 {
		t.Errorf("first_contentful_paint = %v, want 1234.5", resp.FirstContentfulPaint)
	}
	if resp.FirstInputDelay != nil {
		t.Errorf("first_input_delay = %v, want null", *resp.FirstInputDelay)
	}
	if len(resp.Renders) != 1 || resp.Renders[0].Name != "Widget" || resp.Renders[0].RenderTime != 734.57 {
		t.Errorf("component_renders = %+v", resp.Renders)
	}
}

func TestSnapshotRendersNeverNull(t *testing.T) {
	h := New(fastSession(t), nil)

	rec := get(t, h, "/api/v1/snapshot")
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["component_renders"]) != "[]" {
		t.Errorf("component_renders = %s, want []", raw["component_renders"])
	}
}

func TestAlertsEndpoint(t *testing.T) {
	session := fastSession(t,
		vitals.Observation{Kind: vitals.KindLargestPaint, Value: 2100.13},
	)
	overrides := func() vitals.Thresholds {
		return vitals.Thresholds{vitals.MetricLCP: 2000}
	}
	h := New(session, overrides)

	rec := get(t, h, "/api/v1/alerts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp AlertsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %+v, want exactly one", resp.Alerts)
	}
	if resp.Alerts[0].Metric != vitals.MetricLCP || resp.Alerts[0].Threshold != 2000 {
		t.Errorf("alert = %+v", resp.Alerts[0])
	}
	if resp.EvaluatedAt == "" {
		t.Error("evaluated_at is empty")
	}
}

func TestAlertsNeverNull(t *testing.T) {
	h := New(fastSession(t), nil)

	rec := get(t, h, "/api/v1/alerts")
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["alerts"]) != "[]" {
		t.Errorf("alerts = %s, want []", raw["alerts"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(fastSession(t), nil)

	for _, path := range []string{"/api/v1/health", "/api/v1/snapshot", "/api/v1/alerts"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d, want 405", path, rec.Code)
		}
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		mode, key  string
		header     string
		sendHeader string
		sendKey    string
		want       int
	}{
		{name: "disabled mode passes through", mode: "none", key: "k", want: http.StatusOK},
		{name: "empty key passes through", mode: "apikey", key: "", want: http.StatusOK},
		{name: "valid key", mode: "apikey", key: "s3cret", sendHeader: "X-API-Key", sendKey: "s3cret", want: http.StatusOK},
		{name: "wrong key", mode: "apikey", key: "s3cret", sendHeader: "X-API-Key", sendKey: "nope", want: http.StatusUnauthorized},
		{name: "missing key", mode: "apikey", key: "s3cret", want: http.StatusUnauthorized},
		{name: "custom header", mode: "apikey", key: "s3cret", header: "X-Custom", sendHeader: "X-Custom", sendKey: "s3cret", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKey(tt.mode, tt.header, tt.key, inner)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			if tt.sendHeader != "" {
				req.Header.Set(tt.sendHeader, tt.sendKey)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
