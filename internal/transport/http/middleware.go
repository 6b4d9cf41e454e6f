package httptransport

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"arena-core/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/zerolog/log"
)

const (
	maxBodyBytes = 1 << 20

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// routeParams are copied into the request log when the matched route has them.
var routeParams = []string{"game", "arena_id", "player", "match_id"}

func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs:      routeAttrs,
		},
	)
}

func routeAttrs(req *http.Request, _ string, _ int) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("request_id", chimw.GetReqID(req.Context())),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	}
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		return append(attrs, slog.String("route", req.URL.Path))
	}
	route := rc.RoutePattern()
	if route == "" {
		route = req.URL.Path
	}
	attrs = append(attrs, slog.String("route", route))
	for _, key := range routeParams {
		if v := rc.URLParam(key); v != "" {
			attrs = append(attrs, slog.String(key, v))
		}
	}
	return attrs
}

// BodyCaptureMiddleware adds the first maxCaptureBytes of command bodies to
// the request log. Event streams pass through untouched.
func BodyCaptureMiddleware(maxCaptureBytes int) func(http.Handler) http.Handler {
	if maxCaptureBytes <= 0 {
		maxCaptureBytes = 4096
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isEventStream(r) {
				next.ServeHTTP(w, r)
				return
			}
			reqBody, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			r.Body = io.NopCloser(bytes.NewReader(reqBody))

			cw := &captureWriter{ResponseWriter: w, limit: maxCaptureBytes}
			next.ServeHTTP(cw, r)

			reqLog, reqTruncated := clip(reqBody, maxCaptureBytes)
			httplog.SetAttrs(r.Context(),
				slog.Any("request_body", decodeForLog(reqLog)),
				slog.Any("response_body", decodeForLog(cw.body.Bytes())),
				slog.Bool("request_body_truncated", reqTruncated),
				slog.Bool("response_body_truncated", cw.truncated),
			)
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	body      bytes.Buffer
	limit     int
	truncated bool
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if room := c.limit - c.body.Len(); room < len(p) {
		c.truncated = true
		if room > 0 {
			_, _ = c.body.Write(p[:room])
		}
	} else {
		_, _ = c.body.Write(p)
	}
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clip(b []byte, n int) ([]byte, bool) {
	if len(b) <= n {
		return b, false
	}
	return b[:n], true
}

func decodeForLog(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

// AdminAuthMiddleware guards commands with the admin key. An empty key leaves
// the routes open, which is only meant for local runs.
func AdminAuthMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey != "" && !CheckAdminAuth(r, adminKey) {
				log.Warn().
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Msg("admin key rejected")
				WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckAdminAuth accepts the key in X-Admin-Key or as a bearer token.
func CheckAdminAuth(r *http.Request, adminKey string) bool {
	got := r.Header.Get("X-Admin-Key")
	if got == "" {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			got = token
		}
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) == 1
}

// ParsePagination reads limit and offset for match history. Bad values fall
// back to the defaults; limit is clamped to [1, maxPageLimit].
func ParsePagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = queryInt(q.Get("limit"), defaultPageLimit)
	offset = queryInt(q.Get("offset"), 0)
	limit = min(max(limit, 1), maxPageLimit)
	offset = max(offset, 0)
	return limit, offset
}

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func isEventStream(r *http.Request) bool {
	return strings.HasSuffix(r.URL.Path, "/events") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
