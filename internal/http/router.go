package httpx

import (
	"net/http"

	"log/slog"

	"chat-relay/internal/app"
	"chat-relay/internal/ws"
	"chat-relay/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and the websocket
// endpoint.
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub) http.Handler {
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
