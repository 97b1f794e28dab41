package beacon

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/vitals"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dialBeacon spins up a test server around a Receiver and opens one
// client connection to it.
func dialBeacon(t *testing.T, feed *provider.Feed) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(New(feed, quietLogger()))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial beacon: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// awaitObservation drains one observation for kind, waiting for the
// receiver goroutine to publish it.
func awaitObservation(t *testing.T, feed *provider.Feed, kind vitals.Kind) vitals.Observation {
	t.Helper()

	sub, err := feed.Subscribe(kind)
	if err != nil {
		t.Fatalf("Subscribe(%s): %v", kind, err)
	}
	defer sub.Close()

	select {
	case obs := <-sub.Events():
		return obs
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s observation arrived", kind)
		return vitals.Observation{}
	}
}

func TestReceiverPublishesEvents(t *testing.T) {
	feed := provider.NewFeed(quietLogger())
	defer feed.Close()

	conn := dialBeacon(t, feed)
	msg := `{"kind":"layout-shift","value":0.04,"had_recent_input":true}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	obs := awaitObservation(t, feed, vitals.KindLayoutShift)
	if obs.Value != 0.04 || !obs.HadRecentInput {
		t.Errorf("observation = %+v, want value 0.04 with recent input", obs)
	}
}

func TestReceiverTimingEvent(t *testing.T) {
	feed := provider.NewFeed(quietLogger())
	defer feed.Close()

	conn := dialBeacon(t, feed)
	msg := `{"kind":"timing","request_start":12.5,"response_start":250}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		req, res, err := feed.RequestTiming()
		if err == nil {
			if req != 12.5 || res != 250 {
				t.Errorf("RequestTiming() = (%g, %g), want (12.5, 250)", req, res)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timing event never reached the feed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReceiverDropsBadEvents(t *testing.T) {
	feed := provider.NewFeed(quietLogger())
	defer feed.Close()

	conn := dialBeacon(t, feed)
	bad := []string{
		`not json`,
		`{"kind":"bogus-kind","value":1}`,
		`{"kind":"paint","value":-5}`,
	}
	for _, msg := range bad {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// A valid event after the garbage proves the read loop survived.
	good := `{"kind":"paint","value":1234.5}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
		t.Fatalf("write: %v", err)
	}

	obs := awaitObservation(t, feed, vitals.KindPaint)
	if obs.Value != 1234.5 {
		t.Errorf("first published paint = %g, want 1234.5 (bad events must be dropped)", obs.Value)
	}
}

func TestDispatchKindGuard(t *testing.T) {
	feed := provider.NewFeed(quietLogger())
	defer feed.Close()
	r := New(feed, quietLogger())

	r.dispatch(event{Kind: "largest-paint", Value: 2100.13})
	r.dispatch(event{Kind: "", Value: 1})
	r.dispatch(event{Kind: "drop-me", Value: 1})

	sub, err := feed.Subscribe(vitals.KindLargestPaint)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	if obs := <-sub.Events(); obs.Value != 2100.13 {
		t.Errorf("published value = %g, want 2100.13", obs.Value)
	}
}
