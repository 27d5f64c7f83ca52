package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/ghoulgame/internal/api/middleware"
	"github.com/mcoot/ghoulgame/internal/api/response"
	"github.com/mcoot/ghoulgame/internal/gateway"
	"github.com/mcoot/ghoulgame/internal/services/auth"
)

// ConnectionHandler handles the HTTP connection lifecycle
type ConnectionHandler struct {
	gateway     *gateway.Gateway
	authService *auth.Service
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(gateway *gateway.Gateway, authService *auth.Service) *ConnectionHandler {
	return &ConnectionHandler{
		gateway:     gateway,
		authService: authService,
	}
}

// Open handles POST /api/v1/connections
func (h *ConnectionHandler) Open(w http.ResponseWriter, r *http.Request) {
	client := h.gateway.Connect(gateway.TransportHTTP)

	grant, err := h.authService.IssueToken(client.ID())
	if err != nil {
		_ = h.gateway.Disconnect(context.WithoutCancel(r.Context()), client.ID())
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ConnectionFromGrant(grant))
}

// Close handles DELETE /api/v1/connections/me
func (h *ConnectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())

	_ = h.authService.RevokeToken(middleware.GetToken(r.Context()))
	if err := h.gateway.Disconnect(context.WithoutCancel(r.Context()), conn); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Events handles GET /api/v1/connections/me/events
func (h *ConnectionHandler) Events(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	h.gateway.ServeSSE(w, r, conn)
}
