package vitals

import "errors"

// Kind identifies one host observation channel a collector can subscribe to.
type Kind string

// Observation channels. Each maps to one browser instrumentation source.
const (
	// KindPaint delivers first-contentful-paint timing (ms).
	KindPaint Kind = "paint"

	// KindLargestPaint delivers largest-contentful-paint timing (ms).
	// Providers send the latest known candidate per event.
	KindLargestPaint Kind = "largest-paint"

	// KindLayoutShift delivers individual layout-shift scores (unitless).
	// Observations carry HadRecentInput for input-caused shifts.
	KindLayoutShift Kind = "layout-shift"

	// KindFirstInput delivers the first-input processing delay (ms).
	KindFirstInput Kind = "first-input"

	// KindInteraction delivers recurring interaction latencies (ms),
	// e.g. click-to-next-paint.
	KindInteraction Kind = "interaction"

	// KindPageLoad fires once when the page is fully loaded, carrying the
	// elapsed time (ms). Providers buffer it so a subscriber that arrives
	// after the load still resolves immediately.
	KindPageLoad Kind = "page-load"
)

// ErrUnsupported is returned by Provider.Subscribe when the host
// environment lacks the requested observation capability. Collectors
// resolve the affected metric to unknown and carry on.
var ErrUnsupported = errors.New("vitals: observation kind not supported")

// Observation is one timestamped reading delivered by a Provider.
type Observation struct {
	Kind Kind

	// Value is milliseconds for time-based kinds and the raw shift score
	// for KindLayoutShift.
	Value float64

	// HadRecentInput marks layout shifts caused by recent user input.
	// Such shifts are excluded from the accumulated CLS.
	HadRecentInput bool
}

// Subscription is a scoped acquisition of one observation channel.
// Close releases the underlying listener; it is safe to call more than
// once. Buffered history is replayed onto Events before new observations.
type Subscription interface {
	// Events yields observations. The channel is closed when the
	// subscription is closed or the provider shuts down.
	Events() <-chan Observation

	// Close releases the listener. No observations are delivered after
	// Close returns.
	Close()
}

// Provider abstracts the host instrumentation the collectors sample from.
// Implementations must be safe for concurrent use: the aggregator
// subscribes from several goroutines at once.
type Provider interface {
	// Subscribe registers interest in one observation kind. It returns
	// ErrUnsupported when the host lacks the capability.
	Subscribe(kind Kind) (Subscription, error)

	// RequestTiming returns the absolute request-start and response-start
	// timestamps (ms since origin) of the session's navigation, used to
	// derive TTFB. An error means the timing is unavailable.
	RequestTiming() (requestStart, responseStart float64, err error)

	// Now returns the monotonic session clock reading in milliseconds
	// since origin.
	Now() float64
}
