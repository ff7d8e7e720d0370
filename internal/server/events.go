package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleWorkoutEvents streams the workout view as server-sent events. A
// "state" event is sent on connect and again whenever the view changes,
// which includes every rest countdown second.
func (s *Server) handleWorkoutEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(s.eventInterval)
	defer ticker.Stop()

	var last string
	for {
		data := mustJSON(s.workout.State())
		if data != last {
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
			flusher.Flush()
			last = data
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}
