package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	appsession "arena-core/internal/app/session"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	svc *appsession.Service
}

func NewSessionHandlers(svc *appsession.Service) *SessionHandlers {
	return &SessionHandlers{svc: svc}
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricJoinRequests.Add(1)
		var req appsession.JoinInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricJoinRejected.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.Join(r.Context(), req)
		if err != nil {
			metricJoinRejected.Add(1)
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *SessionHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricLeaveRequests.Add(1)
		if err := h.svc.Leave(r.Context(), chi.URLParam(r, "player")); err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// Get describes a session. drain=true also hands over and clears the
// player's queued messages.
func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drain, _ := strconv.ParseBool(r.URL.Query().Get("drain"))
		res, err := h.svc.Get(r.Context(), chi.URLParam(r, "player"), drain)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *SessionHandlers) Move() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appsession.MoveInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.Player = chi.URLParam(r, "player")
		res, err := h.svc.Move(r.Context(), req)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *SessionHandlers) AssignMap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricMapRequests.Add(1)
		var body struct {
			Map string `json:"map"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		arenaID := chi.URLParam(r, "arena_id")
		if err := h.svc.AssignMap(r.Context(), arenaID, body.Map); err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "arena_id": arenaID, "map": body.Map})
	}
}

func (h *SessionHandlers) Finish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Finish(r.Context(), chi.URLParam(r, "arena_id")); err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SessionHandlers) Damage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricDamageRequests.Add(1)
		var req appsession.DamageInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.Damage(r.Context(), req)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		if res.Cancelled {
			metricDamageCancelled.Add(1)
		}
		writeJSON(w, http.StatusOK, res)
	}
}
