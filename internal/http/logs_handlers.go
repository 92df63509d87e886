package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/steeven-js/madinia-cyber/internal/service/logs"
	"github.com/steeven-js/madinia-cyber/internal/ws"
)

const testLogFlash = "Test log message added successfully"

// handleFirebaseLogs serves the log dashboard payload.
func (r *Router) handleFirebaseLogs(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	query := req.URL.Query()
	days, err := parseDays(query.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := r.logs.GetLogs(req.Context(), days)
	if err != nil {
		if errors.Is(err, logs.ErrInvalidDays) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("load logs failed", "error", err, "days", days)
		writeError(w, http.StatusInternalServerError, "could not load logs")
		return
	}
	filtered := logs.Filter(entries, logs.Query{
		Level:  query.Get("level"),
		Search: query.Get("search"),
	})
	payload := map[string]any{
		"logs":         filtered,
		"days":         days,
		"totalLogs":    len(entries),
		"filteredLogs": len(filtered),
		"levels":       logs.Levels(entries),
	}
	if flash := strings.TrimSpace(query.Get("flash")); flash != "" {
		payload["flash"] = flash
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleFirebaseLogTest writes a diagnostic entry and sends the operator back
// to the log view.
func (r *Router) handleFirebaseLogTest(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	fields := map[string]any{
		"source":    "dashboard",
		"action":    "testLog",
		"timestamp": r.now().Unix(),
	}
	if info, ok := authInfoFromContext(req.Context()); ok {
		fields["operator"] = info.Email
	}
	r.logs.Log("Test log message from the operator dashboard", fields)
	http.Redirect(w, req, "/firebase-logs?flash="+url.QueryEscape(testLogFlash), http.StatusFound)
}

// handleFirebaseLogStream pushes newly written entries as Server-Sent Events.
func (r *Router) handleFirebaseLogStream(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	topic := r.logs.Channel()
	client := ws.NewSSEClient(w, flusher, "log", r.logger)
	r.hub.Register(topic, client)
	defer func() {
		r.hub.Unregister(topic, client)
		client.Close()
	}()

	ticker := time.NewTicker(r.settings.StreamHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// handleFirebaseLogsWS streams newly written entries over a websocket.
func (r *Router) handleFirebaseLogsWS(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	topic := r.logs.Channel()
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(topic, client)
	go func() {
		defer r.hub.Unregister(topic, client)
		client.Serve()
	}()
}

func parseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, logs.ErrInvalidDays
	}
	return days, nil
}
