package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Pings are sent at this interval, which must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound command accepted
	maxMessageSize = 4096
)

// WebSocketHandler upgrades requests to websocket connections and pumps commands and
// notifications over them
type WebSocketHandler struct {
	gateway    *Gateway
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWebSocketHandler creates a WebSocketHandler. Any origin is accepted.
func NewWebSocketHandler(gateway *Gateway, dispatcher *Dispatcher, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gateway:    gateway,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "websocket")),
	}
}

// ServeHTTP handles the websocket upgrade and blocks until the socket closes
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := h.gateway.Connect(TransportWebSocket)
	client.streaming.Store(true)

	go h.writePump(ws, client)
	h.readPump(ws, client)
}

// readPump runs commands until the peer goes away, then disconnects the client
func (h *WebSocketHandler) readPump(ws *websocket.Conn, client *Client) {
	ctx := context.Background()
	defer func() {
		_ = h.gateway.Disconnect(ctx, client.id)
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = h.gateway.Touch(client.id)
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed",
					slog.String("connection_id", string(client.id)),
					slog.String("error", err.Error()))
			}
			return
		}
		_ = h.gateway.Touch(client.id)
		h.dispatcher.Handle(ctx, client.id, raw)
	}
}

// writePump drains the client's queue onto the socket and keeps it alive with pings
func (h *WebSocketHandler) writePump(ws *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case msg := <-client.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg.body); err != nil {
				return
			}

		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
