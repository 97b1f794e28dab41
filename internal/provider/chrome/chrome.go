// Package chrome samples web vitals by driving a real Chrome instance.
// It navigates the target page, installs PerformanceObserver instrumentation,
// lets the page settle, then reads the collected entries back and publishes
// them into an observation feed. Since the sample is complete by the time
// the feed is built, kinds that produced no entries are reported as
// unsupported so collectors resolve immediately instead of waiting.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/vitals"
)

const (
	defaultNavTimeout  = 30 * time.Second
	defaultSettleDelay = 3 * time.Second
)

// Config configures the Chrome driver.
type Config struct {
	// URL is the page to profile.
	URL string

	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless instance.
	RemoteURL string

	// SettleDelay is how long to let the page run after load before the
	// collected entries are read back. Defaults to 3s.
	SettleDelay time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Driver owns the Chrome connection for one sampling run.
type Driver struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New creates a Driver. The browser is started lazily by Collect.
func New(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg}
}

// Collect navigates the configured URL, samples its performance entries,
// and returns a feed holding the full buffered session.
func (d *Driver) Collect(ctx context.Context) (*provider.Feed, error) {
	if d.cfg.URL == "" {
		return nil, fmt.Errorf("chrome: no target url configured")
	}
	if err := d.connect(); err != nil {
		return nil, err
	}

	page, err := d.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("chrome: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, defaultNavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(d.cfg.URL); err != nil {
		return nil, fmt.Errorf("chrome: navigate %s: %w", d.cfg.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		d.cfg.Logger.Warn("chrome: wait load timeout", "url", d.cfg.URL, "err", err)
	}
	// Buffered observers pick up entries recorded before installation, so
	// installing after load still sees the full page history.
	if _, err := page.Context(navCtx).Eval(installScript); err != nil {
		return nil, fmt.Errorf("chrome: install instrumentation: %w", err)
	}

	select {
	case <-time.After(d.cfg.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res, err := page.Context(ctx).Eval(readScript)
	if err != nil {
		return nil, fmt.Errorf("chrome: read entries: %w", err)
	}

	var sample pageSample
	if err := json.Unmarshal([]byte(res.Value.Str()), &sample); err != nil {
		return nil, fmt.Errorf("chrome: decode entries: %w", err)
	}
	return d.buildFeed(sample), nil
}

// Close shuts down the tab's browser and, for locally launched instances,
// the Chrome process itself.
func (d *Driver) Close() {
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			d.cfg.Logger.Warn("chrome: browser close failed", "err", err)
		}
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Kill()
		d.lnch = nil
	}
}

func (d *Driver) connect() error {
	if d.browser != nil {
		return nil
	}

	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("chrome: launch: %w", err)
		}
		d.lnch = l
		wsURL = u
		d.cfg.Logger.Info("chrome: launched local instance", "url", wsURL)
	} else {
		d.cfg.Logger.Info("chrome: connecting to remote instance", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("chrome: connect: %w", err)
	}
	d.browser = b
	return nil
}

// pageSample is the JSON shape produced by readScript.
type pageSample struct {
	Paint        []float64     `json:"paint"`
	LCP          []float64     `json:"lcp"`
	Shifts       []shiftSample `json:"shifts"`
	FirstInput   []float64     `json:"first_input"`
	Interactions []float64     `json:"interactions"`

	LoadTime      *float64 `json:"load_time"`
	RequestStart  *float64 `json:"request_start"`
	ResponseStart *float64 `json:"response_start"`
}

type shiftSample struct {
	Value          float64 `json:"value"`
	HadRecentInput bool    `json:"had_recent_input"`
}

// buildFeed converts a finished sample into a fully buffered feed. Layout
// shift is always supported once instrumentation ran (zero shifts is a
// valid accumulated reading); every other kind is supported only when it
// produced entries.
func (d *Driver) buildFeed(sample pageSample) *provider.Feed {
	kinds := []vitals.Kind{vitals.KindLayoutShift}
	if len(sample.Paint) > 0 {
		kinds = append(kinds, vitals.KindPaint)
	}
	if len(sample.LCP) > 0 {
		kinds = append(kinds, vitals.KindLargestPaint)
	}
	if len(sample.FirstInput) > 0 {
		kinds = append(kinds, vitals.KindFirstInput)
	}
	if len(sample.Interactions) > 0 {
		kinds = append(kinds, vitals.KindInteraction)
	}
	if sample.LoadTime != nil {
		kinds = append(kinds, vitals.KindPageLoad)
	}

	feed := provider.NewFeed(d.cfg.Logger, kinds...)
	for _, v := range sample.Paint {
		feed.Publish(vitals.Observation{Kind: vitals.KindPaint, Value: v})
	}
	// The last LCP candidate is the authoritative one; publish it first so
	// the one-shot collector resolves it.
	if n := len(sample.LCP); n > 0 {
		feed.Publish(vitals.Observation{Kind: vitals.KindLargestPaint, Value: sample.LCP[n-1]})
	}
	for _, s := range sample.Shifts {
		feed.Publish(vitals.Observation{
			Kind:           vitals.KindLayoutShift,
			Value:          s.Value,
			HadRecentInput: s.HadRecentInput,
		})
	}
	for _, v := range sample.FirstInput {
		feed.Publish(vitals.Observation{Kind: vitals.KindFirstInput, Value: v})
	}
	for _, v := range sample.Interactions {
		feed.Publish(vitals.Observation{Kind: vitals.KindInteraction, Value: v})
	}
	if sample.LoadTime != nil {
		feed.Publish(vitals.Observation{Kind: vitals.KindPageLoad, Value: *sample.LoadTime})
	}
	if sample.RequestStart != nil && sample.ResponseStart != nil {
		feed.SetRequestTiming(*sample.RequestStart, *sample.ResponseStart)
	}
	return feed
}

// installScript registers buffered PerformanceObservers collecting into
// window.__vitalscope. Observer types a browser does not support are
// skipped silently.
const installScript = `() => {
	if (window.__vitalscope) return true;
	const state = {paint: [], lcp: [], shifts: [], firstInput: [], interactions: []};
	window.__vitalscope = state;
	const observe = (type, fn) => {
		try {
			new PerformanceObserver(fn).observe({type, buffered: true});
		} catch (e) {}
	};
	observe('paint', list => {
		for (const e of list.getEntries())
			if (e.name === 'first-contentful-paint') state.paint.push(e.startTime);
	});
	observe('largest-contentful-paint', list => {
		for (const e of list.getEntries()) state.lcp.push(e.startTime);
	});
	observe('layout-shift', list => {
		for (const e of list.getEntries())
			state.shifts.push({value: e.value, had_recent_input: e.hadRecentInput});
	});
	observe('first-input', list => {
		for (const e of list.getEntries())
			state.firstInput.push(e.processingStart - e.startTime);
	});
	observe('event', list => {
		for (const e of list.getEntries())
			if (e.name === 'click') state.interactions.push(e.duration);
	});
	return true;
}`

// readScript serialises the collected state plus navigation timing.
const readScript = `() => {
	const state = window.__vitalscope || {};
	const nav = performance.getEntriesByType('navigation')[0];
	return JSON.stringify({
		paint: state.paint || [],
		lcp: state.lcp || [],
		shifts: state.shifts || [],
		first_input: state.firstInput || [],
		interactions: state.interactions || [],
		load_time: nav && nav.loadEventEnd > 0 ? nav.loadEventEnd : null,
		request_start: nav ? nav.requestStart : null,
		response_start: nav ? nav.responseStart : null
	});
}`
