// Package promtext builds an observation feed from a Prometheus text
// exposition. Real-user-monitoring collectors commonly re-export web-vital
// readings as gauges; a one-shot fetch of such an endpoint yields a fully
// buffered feed, so every collector resolves immediately and kinds absent
// from the exposition report as unsupported.
package promtext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/vitals"
)

const defaultFetchTimeout = 10 * time.Second

// Gauge names read from the exposition.
const (
	gaugeFCP           = "web_vitals_first_contentful_paint_milliseconds"
	gaugeLCP           = "web_vitals_largest_contentful_paint_milliseconds"
	gaugeCLS           = "web_vitals_cumulative_layout_shift_score"
	gaugeFID           = "web_vitals_first_input_delay_milliseconds"
	gaugeINP           = "web_vitals_interaction_to_next_paint_milliseconds"
	gaugePageLoad      = "web_vitals_page_load_milliseconds"
	gaugeRequestStart  = "web_vitals_request_start_milliseconds"
	gaugeResponseStart = "web_vitals_response_start_milliseconds"
)

// gaugeKinds maps each per-metric gauge to its observation kind.
var gaugeKinds = map[string]vitals.Kind{
	gaugeFCP:      vitals.KindPaint,
	gaugeLCP:      vitals.KindLargestPaint,
	gaugeCLS:      vitals.KindLayoutShift,
	gaugeFID:      vitals.KindFirstInput,
	gaugeINP:      vitals.KindInteraction,
	gaugePageLoad: vitals.KindPageLoad,
}

// Source fetches one exposition endpoint.
type Source struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

// New creates a Source for the given endpoint URL.
func New(endpoint string, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: defaultFetchTimeout},
		Logger:   log,
	}
}

// Fetch performs one GET of the exposition and returns a feed populated
// with every web-vital gauge found. Gauges missing from the exposition
// leave their kind unsupported, so the corresponding collectors resolve
// unknown instead of waiting.
func (s *Source) Fetch(ctx context.Context) (*provider.Feed, error) {
	mfs, err := s.fetchFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("promtext: fetch %q: %w", s.Endpoint, err)
	}

	var kinds []vitals.Kind
	for gauge, kind := range gaugeKinds {
		if _, ok := familyValue(mfs[gauge]); ok {
			kinds = append(kinds, kind)
		}
	}

	feed := provider.NewFeed(s.Logger, kinds...)
	for gauge, kind := range gaugeKinds {
		v, ok := familyValue(mfs[gauge])
		if !ok {
			s.Logger.Debug("promtext: gauge absent from exposition",
				"gauge", gauge, "kind", kind)
			continue
		}
		feed.Publish(vitals.Observation{Kind: kind, Value: v})
	}

	req, okReq := familyValue(mfs[gaugeRequestStart])
	res, okRes := familyValue(mfs[gaugeResponseStart])
	if okReq && okRes {
		feed.SetRequestTiming(req, res)
	}

	s.Logger.Info("promtext: exposition fetched",
		"endpoint", s.Endpoint, "kinds", len(kinds))
	return feed, nil
}

// fetchFamilies performs the HTTP GET and parses the text exposition.
func (s *Source) fetchFamilies(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseFamilies(resp.Body)
}

// parseFamilies decodes a Prometheus text exposition. A partial result with
// trailing-format warnings is still returned successfully.
func parseFamilies(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse exposition: %w", err)
	}
	return mfs, nil
}

// familyValue extracts the reading from a single-series gauge family.
// Returns false when the family is absent or holds no usable sample.
func familyValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		}
	}
	return 0, false
}
