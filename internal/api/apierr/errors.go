package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeSessionFull         = "SESSION_FULL"
	CodeAlreadyStarted      = "ALREADY_STARTED"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeWrongPassword       = "WRONG_PASSWORD"
	CodeNotInSession        = "NOT_IN_SESSION"
	CodeAlreadyInSession    = "ALREADY_IN_SESSION"
	CodeInvalidNickname     = "INVALID_NICKNAME"
	CodeNotOwner            = "NOT_OWNER"
	CodeNotGhoul            = "NOT_GHOUL"
	CodeWrongPhase          = "WRONG_PHASE"
	CodeUnknownTarget       = "UNKNOWN_TARGET"
	CodeTargetNotAlive      = "TARGET_NOT_ALIVE"
	CodeInvalidTarget       = "INVALID_TARGET"
	CodeNotAlive            = "NOT_ALIVE"
	CodeAlreadyVoted        = "ALREADY_VOTED"
	CodeConnectionNotFound  = "CONNECTION_NOT_FOUND"
	CodeStreamActive        = "STREAM_ACTIVE"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// ErrStreamActive is returned when a connection already has an event stream attached
var ErrStreamActive = errors.New("connection already has an active event stream")

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// FromError returns the HTTP status and API error body an error maps to
func FromError(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Session lookup and membership
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrSessionFull):
		return &httpError{http.StatusConflict, APIError{CodeSessionFull, "Session is full"}}
	case errors.Is(err, model.ErrAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyStarted, "Game has already started"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrWrongPassword):
		return &httpError{http.StatusForbidden, APIError{CodeWrongPassword, "Wrong session password"}}
	case errors.Is(err, model.ErrNotInSession):
		return &httpError{http.StatusForbidden, APIError{CodeNotInSession, "Not in this session"}}
	case errors.Is(err, model.ErrAlreadyInSession):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInSession, "Already in a session"}}
	case errors.Is(err, model.ErrInvalidNickname):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidNickname, "Nickname must be 1-24 printable characters"}}
	case errors.Is(err, model.ErrCodeGeneration):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeInternalError, "Could not allocate a session code"}}

	// Authorisation
	case errors.Is(err, model.ErrNotOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotOwner, "Only the session owner can do that"}}
	case errors.Is(err, model.ErrNotGhoul):
		return &httpError{http.StatusForbidden, APIError{CodeNotGhoul, "Only the ghoul can do that"}}

	// Play
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Not allowed in the current phase"}}
	case errors.Is(err, model.ErrUnknownTarget):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownTarget, "Unknown target"}}
	case errors.Is(err, model.ErrTargetNotAlive):
		return &httpError{http.StatusConflict, APIError{CodeTargetNotAlive, "Target is not alive"}}
	case errors.Is(err, model.ErrInvalidTarget):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidTarget, "Target is not eligible"}}
	case errors.Is(err, model.ErrNotAlive):
		return &httpError{http.StatusForbidden, APIError{CodeNotAlive, "Eliminated players cannot act"}}
	case errors.Is(err, model.ErrAlreadyVoted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyVoted, "Verdict already cast"}}

	// Connections and archive
	case errors.Is(err, model.ErrConnectionNotFound):
		return &httpError{http.StatusUnauthorized, APIError{CodeConnectionNotFound, "Connection not found"}}
	case errors.Is(err, ErrStreamActive):
		return &httpError{http.StatusConflict, APIError{CodeStreamActive, "Connection already has an event stream"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
