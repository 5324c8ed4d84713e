package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/s376930/Chat-Arena/internal/event"
)

// sseHeartbeatInterval is the interval for SSE heartbeats.
const sseHeartbeatInterval = 30 * time.Second

// streamConnected is the hello sent once the subscription is live. Clients
// use it to know the feed is attached before anything happens on the bus.
const streamConnected event.EventType = "stream.connected"

// eventEnvelope is the wire shape of one feed entry.
type eventEnvelope struct {
	Type event.EventType `json:"type"`
	Data any             `json:"data"`
}

// sseWriter wraps http.ResponseWriter for SSE.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

// newSSEWriter creates a new SSE writer.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	rc := http.NewResponseController(w)

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	return &sseWriter{w: w, flusher: flusher, rc: rc}, nil
}

// writeEvent writes one SSE event and flushes it out.
func (s *sseWriter) writeEvent(eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, jsonData)
	if err != nil {
		return err
	}

	// ResponseController flushes through middleware wrappers; fall back to
	// the plain Flusher when it can't.
	if flushErr := s.rc.Flush(); flushErr != nil {
		s.flusher.Flush()
	}

	return nil
}

// writeHeartbeat writes an SSE heartbeat comment.
func (s *sseWriter) writeHeartbeat() {
	fmt.Fprintf(s.w, ": heartbeat\n\n")
	s.flusher.Flush()
}

// streamEvents serves the operator event feed: every bus event as a
// server-sent event, with heartbeats so intermediaries keep the stream open.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	sse.flusher.Flush()

	// Small buffer for low-latency streaming; a stalled client drops events
	// rather than blocking the bus.
	events := make(chan event.Event, 10)

	unsub := event.SubscribeAll(func(e event.Event) {
		select {
		case events <- e:
		default:
			s.log.Warn().Str("type", string(e.Type)).Msg("SSE event dropped: channel full")
		}
	})
	defer unsub()

	// The hello goes out after the subscription exists, so a client that has
	// seen it knows later events can't be lost to a subscribe race.
	if err := sse.writeEvent("message", eventEnvelope{Type: streamConnected, Data: map[string]any{}}); err != nil {
		return
	}

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			if err := sse.writeEvent("message", eventEnvelope{Type: e.Type, Data: e.Data}); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}
