package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/api/middleware"
	"github.com/mcoot/ghoulgame/internal/api/request"
	"github.com/mcoot/ghoulgame/internal/api/response"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/lobby"
)

// SessionHandler handles session and game command endpoints
type SessionHandler struct {
	registry *lobby.Registry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *lobby.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionListFromModel(h.registry.List()))
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())

	var req request.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	view, player, err := h.registry.Create(r.Context(), conn, lobby.CreateRequest{
		Name:     req.Name,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Membership{
		Session: response.SessionFromModel(view),
		Player:  response.PlayerFromModel(player),
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Get(sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(view))
}

// Join handles POST /api/v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	conn := middleware.MustGetConnection(r.Context())
	id := sessionID(r)

	var req request.JoinSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.registry.Join(r.Context(), id, conn, lobby.JoinRequest{
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.registry.Get(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Membership{
		Session: response.SessionFromModel(view),
		Player:  response.PlayerFromModel(player),
	})
}

// Leave handles POST /api/v1/sessions/{id}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
		return h.registry.Leave(ctx, id, conn)
	})
}

// Start handles POST /api/v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.registry.Start)
}

// Kill handles POST /api/v1/sessions/{id}/kill
func (h *SessionHandler) Kill(w http.ResponseWriter, r *http.Request) {
	h.targetCommand(w, r, h.registry.Kill)
}

// Vote handles POST /api/v1/sessions/{id}/vote
func (h *SessionHandler) Vote(w http.ResponseWriter, r *http.Request) {
	h.targetCommand(w, r, h.registry.Vote)
}

// Verdict handles POST /api/v1/sessions/{id}/verdict
func (h *SessionHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	var req request.VerdictRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Guilty == nil {
		WriteError(w, apierr.NewInvalidRequestError("guilty is required"))
		return
	}

	h.command(w, r, func(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
		return h.registry.CastVerdict(ctx, id, conn, *req.Guilty)
	})
}

// Pause handles POST /api/v1/sessions/{id}/pause
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.registry.PauseDayTimer)
}

// EndPhase handles POST /api/v1/sessions/{id}/end-phase
func (h *SessionHandler) EndPhase(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.registry.EndPhase)
}

// command runs a session command and answers with the session's new public view
func (h *SessionHandler) command(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, id model.SessionID, conn model.ConnectionID) error) {
	conn := middleware.MustGetConnection(r.Context())
	id := sessionID(r)

	if err := run(r.Context(), id, conn); err != nil {
		WriteError(w, err)
		return
	}

	view, err := h.registry.Get(id)
	if err != nil {
		// The command may have emptied and destroyed the session
		response.NoContent(w)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(view))
}

func (h *SessionHandler) targetCommand(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, id model.SessionID, conn, target model.ConnectionID) error) {
	var req request.TargetRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.TargetID == "" {
		WriteError(w, apierr.NewInvalidRequestError("target_id is required"))
		return
	}

	h.command(w, r, func(ctx context.Context, id model.SessionID, conn model.ConnectionID) error {
		return run(ctx, id, conn, model.ConnectionID(req.TargetID))
	})
}
