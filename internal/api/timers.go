package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/tinkeringguild/logquest-go/internal/timers"
)

// TimersHandler serves live timer state: a one-shot snapshot (GET /timers)
// and a streaming feed of lifecycle changes (GET /timers/stream).
type TimersHandler struct {
	mgr *timers.Manager
}

func NewTimersHandler(mgr *timers.Manager) *TimersHandler {
	return &TimersHandler{mgr: mgr}
}

// List handles GET /timers: every currently-live timer and stopwatch.
func (h *TimersHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot, _, cancel := h.mgr.Subscribe()
	cancel()
	WriteJSON(w, http.StatusOK, map[string]any{"timers": snapshot})
}

// keepaliveInterval matches the teacher's SSE keepalive cadence, frequent
// enough to keep idle proxies from closing the connection.
const keepaliveInterval = 15 * time.Second

// Stream handles GET /timers/stream: an initial snapshot as a sequence of
// "added" events, followed by every subsequent StateUpdate, SSE-encoded.
func (h *TimersHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	snapshot, ch, cancel := h.mgr.Subscribe()
	defer cancel()

	for _, live := range snapshot {
		writeTimerEvent(w, string(timers.TimerAdded), live)
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	log := hlog.FromRequest(r)
	log.Info().Msg("timer stream client connected")

	for {
		select {
		case <-r.Context().Done():
			log.Info().Msg("timer stream client disconnected")
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			writeTimerEvent(w, string(update.Kind), update.Live)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeTimerEvent(w http.ResponseWriter, event string, live *timers.LiveTimer) {
	data, err := json.Marshal(live)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
