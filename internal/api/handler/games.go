package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/api/response"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/storage"
)

const (
	defaultGameListLimit = 20
	maxGameListLimit     = 100
)

// GameHandler serves the archive of finished games
type GameHandler struct {
	storage storage.Storage
}

// NewGameHandler creates a new game handler
func NewGameHandler(storage storage.Storage) *GameHandler {
	return &GameHandler{storage: storage}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultGameListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxGameListLimit {
			WriteError(w, apierr.NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	records, err := h.storage.ListGameRecords(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(records))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	record, err := h.storage.GetGameRecord(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(record))
}
