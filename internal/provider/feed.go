// Package provider implements vitals.Provider on top of an in-memory
// observation feed. Concrete instrumentation frontends (beacon, chrome,
// promtext) publish observations into a Feed; collectors subscribe through
// the vitals.Provider contract and receive the buffered history followed
// by live events.
package provider

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vitalscope/vitalscope/vitals"
)

// subBufSlack is the extra channel capacity beyond the replayed history,
// absorbing live bursts between subscribe and drain.
const subBufSlack = 32

// Feed is a thread-safe observation hub. Every published observation is
// kept as buffered history for its kind, so late subscribers replay the
// full session (one-shot signals like page-load resolve immediately for
// sessions created after the fact).
type Feed struct {
	log *slog.Logger
	now func() time.Time // injectable for deterministic tests

	mu        sync.Mutex
	origin    time.Time
	history   map[vitals.Kind][]vitals.Observation
	subs      map[vitals.Kind]map[*subscription]struct{}
	supported map[vitals.Kind]bool // nil = every kind supported
	closed    bool

	hasTiming          bool
	reqStart, resStart float64
}

// NewFeed creates a Feed. When kinds is non-empty, only those observation
// kinds are supported and Subscribe on any other kind returns
// vitals.ErrUnsupported; an empty list supports everything.
func NewFeed(log *slog.Logger, kinds ...vitals.Kind) *Feed {
	if log == nil {
		log = slog.Default()
	}
	f := &Feed{
		log:     log,
		now:     time.Now,
		origin:  time.Now(),
		history: make(map[vitals.Kind][]vitals.Observation),
		subs:    make(map[vitals.Kind]map[*subscription]struct{}),
	}
	if len(kinds) > 0 {
		f.supported = make(map[vitals.Kind]bool, len(kinds))
		for _, k := range kinds {
			f.supported[k] = true
		}
	}
	return f
}

// Publish records obs in the history for its kind and fans it out to live
// subscribers. Delivery is non-blocking: a subscriber that cannot keep up
// misses the live event but still has it in history for future replays.
func (f *Feed) Publish(obs vitals.Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.supported != nil && !f.supported[obs.Kind] {
		f.log.Debug("feed: dropping observation for unsupported kind", "kind", obs.Kind)
		return
	}

	f.history[obs.Kind] = append(f.history[obs.Kind], obs)
	for sub := range f.subs[obs.Kind] {
		select {
		case sub.ch <- obs:
		default:
			f.log.Debug("feed: subscriber buffer full, live event skipped",
				"kind", obs.Kind)
		}
	}
}

// SetRequestTiming records the navigation request/response timestamps
// (ms since origin) used to derive TTFB.
func (f *Feed) SetRequestTiming(requestStart, responseStart float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqStart = requestStart
	f.resStart = responseStart
	f.hasTiming = true
}

// Subscribe implements vitals.Provider. The buffered history for kind is
// preloaded onto the subscription channel before it is returned.
func (f *Feed) Subscribe(kind vitals.Kind) (vitals.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.supported != nil && !f.supported[kind] {
		return nil, vitals.ErrUnsupported
	}
	if f.closed {
		return nil, errors.New("provider: feed closed")
	}

	hist := f.history[kind]
	sub := &subscription{
		feed: f,
		kind: kind,
		ch:   make(chan vitals.Observation, len(hist)+subBufSlack),
	}
	for _, obs := range hist {
		sub.ch <- obs
	}

	if f.subs[kind] == nil {
		f.subs[kind] = make(map[*subscription]struct{})
	}
	f.subs[kind][sub] = struct{}{}
	return sub, nil
}

// RequestTiming implements vitals.Provider.
func (f *Feed) RequestTiming() (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasTiming {
		return 0, 0, errors.New("provider: navigation timing not reported")
	}
	return f.reqStart, f.resStart, nil
}

// Now implements vitals.Provider: milliseconds since the feed's origin.
func (f *Feed) Now() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return float64(f.now().Sub(f.origin)) / float64(time.Millisecond)
}

// Close shuts the feed down and closes every live subscription channel.
// Further Publish calls are ignored.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, subs := range f.subs {
		for sub := range subs {
			close(sub.ch)
		}
	}
	f.subs = make(map[vitals.Kind]map[*subscription]struct{})
}

// subscription is one scoped listener on a Feed.
type subscription struct {
	feed *Feed
	kind vitals.Kind
	ch   chan vitals.Observation
	once sync.Once
}

func (s *subscription) Events() <-chan vitals.Observation { return s.ch }

// Close unregisters the listener. The channel is intentionally left open
// (and drains naturally) so a racing Publish never sends on a closed
// channel.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()
		delete(s.feed.subs[s.kind], s)
	})
}
