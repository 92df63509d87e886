package httpx

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/steeven-js/madinia-cyber/internal/service/auth"
	"github.com/steeven-js/madinia-cyber/internal/service/identity"
	"github.com/steeven-js/madinia-cyber/internal/service/logs"
	"github.com/steeven-js/madinia-cyber/internal/ws"
)

// Settings carries the HTTP-facing configuration of the Router.
type Settings struct {
	SessionCookieName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration
	StreamHeartbeat     time.Duration
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	logs     logs.Service
	identity identity.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	settings Settings
	dbHealth func(context.Context) error
	now      func() time.Time

	registry           *prometheus.Registry
	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitRead      = 120
	rateLimitWrite     = 30
	rateLimitProvider  = 20
	rateLimitStream    = 30
	healthCheckTimeout = 2 * time.Second
	defaultDays        = 7
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, logSvc logs.Service, identitySvc identity.Service, hub *ws.Hub, limiter RateLimiter, settings Settings, dbHealth func(context.Context) error) *Router {
	if settings.SessionCookieName == "" {
		settings.SessionCookieName = "madinia_session"
	}
	if settings.StreamHeartbeat <= 0 {
		settings.StreamHeartbeat = 20 * time.Second
	}
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		logs:     logSvc,
		identity: identitySvc,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: sameOrigin,
		},
		limiter:  limiter,
		settings: settings,
		dbHealth: dbHealth,
		now:      time.Now,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", r.metricsHandler())

	r.mux.HandleFunc("/auth/signup", r.audit("/auth/signup", r.withRateLimit("/auth/signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("/auth/login", r.audit("/auth/login", r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/auth/refresh", r.audit("/auth/refresh", r.withRateLimit("/auth/refresh", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleRefresh)))
	r.mux.HandleFunc("/auth/logout", r.audit("/auth/logout", r.handleLogout))

	r.mux.HandleFunc("/firebase-logs", r.audit("/firebase-logs", r.handlerAuthRate("/firebase-logs", rateLimitRead, rateWindowDefault, r.handleFirebaseLogs)))
	r.mux.HandleFunc("/firebase-logs/test", r.audit("/firebase-logs/test", r.handlerAuthRate("/firebase-logs/test", rateLimitWrite, rateWindowDefault, r.handleFirebaseLogTest)))
	r.mux.HandleFunc("/firebase-logs/stream", r.audit("/firebase-logs/stream", r.handlerAuthRate("/firebase-logs/stream", rateLimitStream, rateWindowRealtime, r.handleFirebaseLogStream)))
	r.mux.HandleFunc("/ws/firebase-logs", r.audit("/ws/firebase-logs", r.handlerAuthRate("/ws/firebase-logs", rateLimitStream, rateWindowRealtime, r.handleFirebaseLogsWS)))

	r.mux.HandleFunc("/firebase-test", r.audit("/firebase-test", r.handlerAuthRate("/firebase-test", rateLimitProvider, rateWindowDefault, r.handleFirebaseTest)))
	r.mux.HandleFunc("/firebase-users", r.audit("/firebase-users", r.handlerAuthRate("/firebase-users", rateLimitProvider, rateWindowDefault, r.handleFirebaseUsers)))
	r.mux.HandleFunc("/firebase-users/set-role", r.audit("/firebase-users/set-role", r.handlerAuthRate("/firebase-users/set-role", rateLimitWrite, rateWindowDefault, r.handleSetUserRole)))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	if r.hub != nil {
		components["stream"] = map[string]any{
			"status":      "up",
			"subscribers": r.hub.Subscribers(r.logs.Channel()),
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  r.now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// audit logs every request and records its metrics under route.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "operator"
			fields = append(fields, "operator_id", info.OperatorID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		// upgraded connections report 101
		if sr.status == 0 {
			sr.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

// sameOrigin accepts non-browser clients and browsers on the API's own host.
func sameOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(origin, req.Host)
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
