// Package beacon receives browser observations over a WebSocket. The
// instrumented page opens a socket to the beacon endpoint and streams one
// JSON event per performance entry; the receiver decodes them and publishes
// into the session's observation feed.
//
// Wire format, one JSON object per text message:
//
//	{"kind":"paint","value":1234.5}
//	{"kind":"layout-shift","value":0.04,"had_recent_input":false}
//	{"kind":"timing","request_start":12.5,"response_start":250.0}
//
// kind matches the vitals observation kinds, plus the pseudo-kind "timing"
// carrying the navigation request/response timestamps.
package beacon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitalscope/vitalscope/internal/provider"
	"github.com/vitalscope/vitalscope/vitals"
)

const (
	// readWait is how long to wait between messages (or pongs) before
	// treating the connection as dead.
	readWait = 60 * time.Second

	// maxEventSize bounds a single observation message.
	maxEventSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins; the beacon endpoint is expected to sit behind a
	// reverse proxy that applies CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// kindTiming is the pseudo-kind carrying navigation timestamps.
const kindTiming = "timing"

// event is the wire representation of one browser observation.
type event struct {
	Kind           string  `json:"kind"`
	Value          float64 `json:"value"`
	HadRecentInput bool    `json:"had_recent_input"`
	RequestStart   float64 `json:"request_start"`
	ResponseStart  float64 `json:"response_start"`
}

// knownKinds guards against arbitrary wire input reaching the feed.
var knownKinds = map[vitals.Kind]bool{
	vitals.KindPaint:        true,
	vitals.KindLargestPaint: true,
	vitals.KindLayoutShift:  true,
	vitals.KindFirstInput:   true,
	vitals.KindInteraction:  true,
	vitals.KindPageLoad:     true,
}

// Receiver upgrades beacon connections and feeds decoded observations into
// a Feed. One receiver serves any number of concurrent page connections;
// they all publish into the same session feed.
type Receiver struct {
	feed *provider.Feed
	log  *slog.Logger
}

// New creates a Receiver publishing into feed.
func New(feed *provider.Feed, log *slog.Logger) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{feed: feed, log: log}
}

// ServeHTTP upgrades the connection and reads observation events until the
// page closes the socket or the read deadline lapses.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrader has already written the error response.
		return
	}
	defer conn.Close()

	r.log.Info("beacon: page connected", "remote", conn.RemoteAddr().String())
	r.readLoop(conn)
	r.log.Debug("beacon: page disconnected", "remote", conn.RemoteAddr().String())
}

func (r *Receiver) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxEventSize)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn("beacon: read failed", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			r.log.Warn("beacon: dropping malformed event", "err", err)
			continue
		}
		r.dispatch(ev)
	}
}

// dispatch routes one decoded event into the feed.
func (r *Receiver) dispatch(ev event) {
	if ev.Kind == kindTiming {
		r.feed.SetRequestTiming(ev.RequestStart, ev.ResponseStart)
		return
	}

	kind := vitals.Kind(ev.Kind)
	if !knownKinds[kind] {
		r.log.Warn("beacon: dropping event of unknown kind", "kind", ev.Kind)
		return
	}
	if ev.Value < 0 {
		r.log.Warn("beacon: dropping negative observation", "kind", ev.Kind, "value", ev.Value)
		return
	}
	r.feed.Publish(vitals.Observation{
		Kind:           kind,
		Value:          ev.Value,
		HadRecentInput: ev.HadRecentInput,
	})
}
