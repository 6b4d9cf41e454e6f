package httptransport

import (
	"context"
	"net/http"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type TickState interface {
	Running() bool
}

type AdminHandlers struct {
	db    Pinger
	ticks TickState
}

// NewAdminHandlers builds the health handler. db is nil when results are not
// persisted.
func NewAdminHandlers(db Pinger, ticks TickState) *AdminHandlers {
	return &AdminHandlers{db: db, ticks: ticks}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"ok": true, "db": "disabled", "scheduler": "running"}
		status := http.StatusOK
		if h.ticks != nil && !h.ticks.Running() {
			resp["ok"] = false
			resp["scheduler"] = "stopped"
			status = http.StatusServiceUnavailable
		}
		if h.db != nil {
			resp["db"] = "up"
			if err := h.db.Ping(r.Context()); err != nil {
				resp["ok"] = false
				resp["db"] = "down"
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, resp)
	}
}
