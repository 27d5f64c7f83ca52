package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/model"
)

// Time between keepalive comments on an event stream
const keepalivePeriod = 30 * time.Second

// ServeSSE streams the connection's notifications as server-sent events until the request
// or the connection ends. A connection may have only one stream at a time.
func (g *Gateway) ServeSSE(w http.ResponseWriter, r *http.Request, conn model.ConnectionID) {
	client, err := g.Client(conn)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	if !client.streaming.CompareAndSwap(false, true) {
		apierr.WriteError(w, apierr.ErrStreamActive)
		return
	}
	// Streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	defer func() {
		client.streaming.Store(false)
		client.touch(g.clock.Now())
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-client.send:
			if _, err := w.Write(formatSSEMessage(string(msg.kind), string(msg.body))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-client.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data is split with a "data: " prefix on each line.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits a string into lines, dropping carriage returns and a trailing newline
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
