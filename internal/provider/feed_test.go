package provider

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vitalscope/vitalscope/vitals"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscribeReplaysHistory(t *testing.T) {
	f := NewFeed(quietLogger())
	defer f.Close()

	f.Publish(vitals.Observation{Kind: vitals.KindLayoutShift, Value: 0.01})
	f.Publish(vitals.Observation{Kind: vitals.KindLayoutShift, Value: 0.02})

	sub, err := f.Subscribe(vitals.KindLayoutShift)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	got := []float64{(<-sub.Events()).Value, (<-sub.Events()).Value}
	if got[0] != 0.01 || got[1] != 0.02 {
		t.Errorf("replayed history = %v, want [0.01 0.02]", got)
	}
}

func TestPublishReachesLiveSubscriber(t *testing.T) {
	f := NewFeed(quietLogger())
	defer f.Close()

	sub, err := f.Subscribe(vitals.KindPaint)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	f.Publish(vitals.Observation{Kind: vitals.KindPaint, Value: 1234.5})

	obs := <-sub.Events()
	if obs.Value != 1234.5 {
		t.Errorf("live event value = %g, want 1234.5", obs.Value)
	}
}

func TestUnsupportedKinds(t *testing.T) {
	f := NewFeed(quietLogger(), vitals.KindPaint)
	defer f.Close()

	if _, err := f.Subscribe(vitals.KindPaint); err != nil {
		t.Errorf("Subscribe(supported kind) error = %v", err)
	}
	if _, err := f.Subscribe(vitals.KindFirstInput); !errors.Is(err, vitals.ErrUnsupported) {
		t.Errorf("Subscribe(unsupported kind) error = %v, want ErrUnsupported", err)
	}

	// Publishing an unsupported kind is dropped, not buffered.
	f.Publish(vitals.Observation{Kind: vitals.KindFirstInput, Value: 10})
	if len(f.history[vitals.KindFirstInput]) != 0 {
		t.Error("unsupported observation reached the history")
	}
}

func TestRequestTiming(t *testing.T) {
	f := NewFeed(quietLogger())
	defer f.Close()

	if _, _, err := f.RequestTiming(); err == nil {
		t.Error("RequestTiming() before SetRequestTiming should fail")
	}

	f.SetRequestTiming(12.5, 250)
	req, res, err := f.RequestTiming()
	if err != nil {
		t.Fatalf("RequestTiming() error = %v", err)
	}
	if req != 12.5 || res != 250 {
		t.Errorf("RequestTiming() = (%g, %g), want (12.5, 250)", req, res)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	f := NewFeed(quietLogger())

	sub, err := f.Subscribe(vitals.KindPageLoad)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	f.Close()

	if _, open := <-sub.Events(); open {
		t.Error("subscription channel still open after feed Close")
	}
	if _, err := f.Subscribe(vitals.KindPageLoad); err == nil {
		t.Error("Subscribe() after Close should fail")
	}

	// Publish after close is a no-op, not a panic.
	f.Publish(vitals.Observation{Kind: vitals.KindPageLoad, Value: 1})
}

func TestSubscriptionCloseLeavesChannelOpen(t *testing.T) {
	f := NewFeed(quietLogger())
	defer f.Close()

	f.Publish(vitals.Observation{Kind: vitals.KindPaint, Value: 1})
	sub, err := f.Subscribe(vitals.KindPaint)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	sub.Close()
	sub.Close() // idempotent

	// Buffered history is still drainable after Close.
	if obs := <-sub.Events(); obs.Value != 1 {
		t.Errorf("drained value = %g, want 1", obs.Value)
	}

	// But new publishes no longer reach the closed subscription.
	f.Publish(vitals.Observation{Kind: vitals.KindPaint, Value: 2})
	select {
	case obs := <-sub.Events():
		t.Errorf("closed subscription received live event %+v", obs)
	default:
	}
}

func TestNowIsMonotonicFromOrigin(t *testing.T) {
	f := NewFeed(quietLogger())
	defer f.Close()

	a := f.Now()
	b := f.Now()
	if a < 0 || b < a {
		t.Errorf("Now() went backwards: %g then %g", a, b)
	}
}
