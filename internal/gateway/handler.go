package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/security/auth"
)

// Handler upgrades authenticated HTTP requests to realtime connections.
// Authentication happens before the upgrade; an unauthenticated request
// never gets a socket.
type Handler struct {
	tokens         *auth.TokenManager
	hub            *Hub
	dispatcher     *Dispatcher
	logger         *slog.Logger
	allowedOrigins []string
}

func NewHandler(tokens *auth.TokenManager, hub *Hub, d *Dispatcher, logger *slog.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		tokens:         tokens,
		hub:            hub,
		dispatcher:     d,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed || allowed == "*" {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// token looks in the query string first because browser websocket clients
// cannot set headers, then falls back to the Authorization header.
func (h *Handler) token(r *http.Request) (string, error) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, nil
	}
	return auth.ExtractToken(r.Header.Get("Authorization"))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := h.token(r)
	if err != nil {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		h.logger.Warn("websocket token rejected", slog.String("error", err.Error()))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sess := claims.Session()
	if !sess.Valid() {
		h.logger.Warn("websocket session rejected",
			slog.String("company_id", sess.CompanyID),
			slog.String("metadata_company_id", sess.MetadataCompanyID))
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := newConn(ws, sess, h.hub, h.logger)
	h.hub.Join(RoomForTenant(sess.CompanyID), conn)
	metrics.ConnectionOpened()
	h.logger.Info("websocket connected",
		slog.String("company_id", sess.CompanyID),
		slog.String("user_id", sess.UserID),
		slog.String("role", string(sess.Role)))

	go conn.writePump()
	conn.readPump(r.Context(), h.dispatcher)
}
