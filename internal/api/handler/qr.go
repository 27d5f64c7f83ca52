package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/services/lobby"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// QRHandler renders join links as QR codes
type QRHandler struct {
	registry  *lobby.Registry
	publicURL string
}

// NewQRHandler creates a new QR handler. Join links are built on publicURL.
func NewQRHandler(registry *lobby.Registry, publicURL string) *QRHandler {
	return &QRHandler{
		registry:  registry,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// JoinLink returns the link players follow to join the session
func (h *QRHandler) JoinLink(id string) string {
	return h.publicURL + "/join/" + id
}

// Session handles GET /api/v1/sessions/{id}/qr
func (h *QRHandler) Session(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Get(sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			WriteError(w, apierr.NewInvalidRequestError("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.JoinLink(string(view.ID)), qrcode.Medium, size)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
