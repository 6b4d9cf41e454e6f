package spectatorgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	apppublic "arena-core/internal/app/public"
	"arena-core/internal/match"

	"github.com/go-chi/chi/v5"
)

var pingInterval = 15 * time.Second

type ArenaLookup interface {
	Arena(ctx context.Context, id string) (*apppublic.ArenaItem, error)
}

// EventsHandler streams one arena: a snapshot first, then the buffered
// events after Last-Event-ID, then live events with periodic pings.
func EventsHandler(arenas ArenaLookup, feed *Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		arenaID := chi.URLParam(r, "arena_id")
		snapshot, err := arenas.Arena(r.Context(), arenaID)
		if err != nil {
			status, code := http.StatusInternalServerError, "internal_error"
			if errors.Is(err, match.ErrArenaNotFound) {
				status, code = http.StatusNotFound, "arena_not_found"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
			return
		}
		buf := feed.Buffer(arenaID)
		if buf == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		// Subscribe before replaying so nothing falls between the two.
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		SetSSEHeaders(w)
		now := time.Now().UnixMilli()
		if err := WriteSSE(w, StreamEvent{Event: "snapshot", ArenaID: arenaID, ServerTS: now, Data: snapshot}); err != nil {
			return
		}
		sent := ""
		for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			sent = ev.EventID
		}
		flusher.Flush()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if !newer(ev.EventID, sent) {
					continue
				}
				if err := WriteSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := StreamEvent{Event: "ping", ArenaID: arenaID, ServerTS: time.Now().UnixMilli()}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// newer skips live events the replay already delivered.
func newer(id, than string) bool {
	a, errA := strconv.ParseInt(id, 10, 64)
	b, errB := strconv.ParseInt(than, 10, 64)
	return errA != nil || errB != nil || a > b
}
