package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
)

// Handler upgrades and authenticates modbus feed subscriptions. The feed is
// admin-only, same as the REST modbus surface.
type Handler struct {
	hub        *Hub
	identities *identity.Resolver
	origins    []string
	ctx        context.Context
}

// NewHandler creates a WebSocket handler.
func NewHandler(ctx context.Context, hub *Hub, idents *identity.Resolver, allowedOrigins []string) *Handler {
	return &Handler{
		hub:        hub,
		identities: idents,
		origins:    allowedOrigins,
		ctx:        ctx,
	}
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.origins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// extractBearer pulls the access token from the Authorization header or the
// token query param. Browsers cannot set headers on WebSocket dials, so the
// query param is the common path.
func (h *Handler) extractBearer(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return r.URL.Query().Get("token")
}

// ServeModbus handles websocket subscriptions to the modbus event feed.
func (h *Handler) ServeModbus(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identities.Resolve(r.Context(), h.extractBearer(r))
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	if ident.Disabled || !ident.IsAdmin() {
		http.Error(w, "Permission denied", http.StatusForbidden)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logger.StdLogger().Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.ctx, h.hub, conn, uuid.New().String(), ident.Username)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
