package vitals

import (
	"context"
	"time"
)

// Signal collectors. Each wraps exactly one provider observation channel
// and resolves to a single Value. Collectors never fail: an unsupported
// environment, a closed channel, or an elapsed fallback window all degrade
// to the unknown sentinel, so the aggregator's join always completes once
// every collector has settled.

// FirstContentfulPaint resolves the FCP timing from the first paint
// observation. With no configured CollectorTimeout it waits indefinitely
// for a real signal.
func (s *Session) FirstContentfulPaint(ctx context.Context) Value {
	return s.oneShot(ctx, KindPaint, MetricFCP)
}

// LargestContentfulPaint resolves the LCP timing from the first
// largest-paint observation (providers deliver the latest known candidate).
func (s *Session) LargestContentfulPaint(ctx context.Context) Value {
	return s.oneShot(ctx, KindLargestPaint, MetricLCP)
}

// TimeToInteractive resolves when the page-load signal fires. Providers
// buffer the signal, so a session created after the load resolves
// immediately; the race between "already loaded" and "load fires now" is
// benign since both resolve the same value once.
func (s *Session) TimeToInteractive(ctx context.Context) Value {
	return s.oneShot(ctx, KindPageLoad, MetricTTI)
}

// CumulativeLayoutShift accumulates every qualifying shift in the
// subscription's buffered history, excluding shifts caused by recent user
// input, and resolves with the total once the history is drained. A page
// with no shifts resolves to an accumulated 0; only a missing capability
// yields unknown.
func (s *Session) CumulativeLayoutShift(ctx context.Context) Value {
	sub, err := s.provider.Subscribe(KindLayoutShift)
	if err != nil {
		s.log.Debug("vitals: layout-shift unsupported", "err", err)
		return Unknown()
	}
	defer sub.Close()

	var total float64
	for {
		select {
		case obs, ok := <-sub.Events():
			if !ok {
				return Known(roundTo(total, clsDecimals))
			}
			if obs.HadRecentInput {
				continue
			}
			total += obs.Value
		case <-ctx.Done():
			return Known(roundTo(total, clsDecimals))
		default:
			// Buffered history drained; resolve with the running total.
			return Known(roundTo(total, clsDecimals))
		}
	}
}

// FirstInputDelay resolves the first-input delay, or unknown if no input
// arrives within the fallback window.
func (s *Session) FirstInputDelay(ctx context.Context) Value {
	return s.withFallback(ctx, KindFirstInput, MetricFID)
}

// InteractionToNextPaint resolves the first observed interaction latency,
// or unknown if no interaction arrives within the fallback window.
func (s *Session) InteractionToNextPaint(ctx context.Context) Value {
	return s.withFallback(ctx, KindInteraction, MetricINP)
}

// TimeToFirstByte derives TTFB from the navigation request/response
// timestamps. Unavailable or inconsistent timing resolves unknown.
func (s *Session) TimeToFirstByte(ctx context.Context) Value {
	reqStart, respStart, err := s.provider.RequestTiming()
	if err != nil {
		s.log.Debug("vitals: request timing unavailable", "err", err)
		return Unknown()
	}
	ttfb := respStart - reqStart
	if ttfb < 0 {
		s.log.Warn("vitals: negative ttfb from provider timing",
			"request_start", reqStart, "response_start", respStart)
		return Unknown()
	}
	return Known(roundTo(ttfb, timeDecimals))
}

// oneShot subscribes to kind, resolves on the first observation, and
// unsubscribes. Applies the optional CollectorTimeout.
func (s *Session) oneShot(ctx context.Context, kind Kind, m Metric) Value {
	sub, err := s.provider.Subscribe(kind)
	if err != nil {
		s.log.Debug("vitals: observation kind unsupported",
			"metric", m, "kind", kind, "err", err)
		return Unknown()
	}
	defer sub.Close()

	var timeout <-chan time.Time
	if s.timeout > 0 {
		t := time.NewTimer(s.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case obs, ok := <-sub.Events():
		if !ok {
			return Unknown()
		}
		return Known(roundTo(obs.Value, timeDecimals))
	case <-timeout:
		s.log.Warn("vitals: collector timed out waiting for observation",
			"metric", m, "kind", kind, "timeout", s.timeout)
		return Unknown()
	case <-ctx.Done():
		return Unknown()
	}
}

// withFallback is oneShot with the fixed input fallback window: if no
// qualifying observation arrives within InputWait, the metric resolves
// unknown and a warning is logged. This bounds worst-case collector
// latency for the input-driven metrics.
func (s *Session) withFallback(ctx context.Context, kind Kind, m Metric) Value {
	sub, err := s.provider.Subscribe(kind)
	if err != nil {
		s.log.Debug("vitals: observation kind unsupported",
			"metric", m, "kind", kind, "err", err)
		return Unknown()
	}
	defer sub.Close()

	t := time.NewTimer(s.inputWait)
	defer t.Stop()

	select {
	case obs, ok := <-sub.Events():
		if !ok {
			return Unknown()
		}
		return Known(roundTo(obs.Value, timeDecimals))
	case <-t.C:
		s.log.Warn("vitals: no qualifying input within fallback window",
			"metric", m, "kind", kind, "window", s.inputWait)
		return Unknown()
	case <-ctx.Done():
		return Unknown()
	}
}
