package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apppublic "arena-core/internal/app/public"
	appsession "arena-core/internal/app/session"
	"arena-core/internal/match"
	"arena-core/internal/mcpserver"
	"arena-core/internal/scheduler"
	"arena-core/internal/spectatorgateway"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Scheduler *scheduler.Scheduler
	Manager   *match.Manager
	// History and DB are nil when results are not persisted.
	History apppublic.MatchReader
	DB      Pinger
	// Feed serves arena event streams when set.
	Feed        *spectatorgateway.Feed
	AdminAPIKey string
}

func NewRouter(d Deps) *chi.Mux {
	publicSvc := apppublic.NewService(d.Scheduler, d.Manager, d.History)
	sessionSvc := appsession.NewService(d.Scheduler, d.Manager)
	mcpSrv := mcpserver.New(publicSvc, sessionSvc)

	publicHandlers := NewPublicHandlers(publicSvc)
	sessionHandlers := NewSessionHandlers(sessionSvc)
	adminHandlers := NewAdminHandlers(d.DB, d.Scheduler)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Group(func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(AdminAuthMiddleware(d.AdminAPIKey))
		r.MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/games", publicHandlers.Games())
		r.Get("/games/{game}/arenas", publicHandlers.Arenas())
		r.Get("/games/{game}/stats", publicHandlers.Stats())
		r.Get("/arenas/{arena_id}", publicHandlers.Arena())
		if d.Feed != nil {
			r.Get("/arenas/{arena_id}/events", spectatorgateway.EventsHandler(publicSvc, d.Feed))
		}
		r.Get("/matches", publicHandlers.Matches())
		r.Get("/matches/{match_id}", publicHandlers.Match())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Post("/sessions", sessionHandlers.Create())
			r.Get("/sessions/{player}", sessionHandlers.Get())
			r.Delete("/sessions/{player}", sessionHandlers.Delete())
			r.Post("/sessions/{player}/move", sessionHandlers.Move())
			r.Post("/arenas/{arena_id}/map", sessionHandlers.AssignMap())
			r.Post("/arenas/{arena_id}/finish", sessionHandlers.Finish())
			r.Post("/damage", sessionHandlers.Damage())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
