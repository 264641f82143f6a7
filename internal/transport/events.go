package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
)

// EventSource fans committed ledger events out to live listeners.
type EventSource interface {
	Subscribe(buffer int) (<-chan event.Event, func())
}

const (
	eventStreamBuffer    = 64
	eventStreamHeartbeat = 15 * time.Second
)

// EventStream serves committed events as Server-Sent Events. The optional
// project_id query parameter restricts the stream to one project.
func EventStream(src EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		projectID := r.URL.Query().Get("project_id")

		events, cancel := src.Subscribe(eventStreamBuffer)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(eventStreamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case ev, ok := <-events:
				if !ok {
					return
				}
				if projectID != "" && ev.ProjectID != projectID {
					continue
				}
				if err := writeSSE(w, string(ev.Name), strconv.FormatInt(ev.Seq, 10), ev); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, name, id string, payload any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", name, id, blob)
	return err
}
