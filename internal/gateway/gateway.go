package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/session"
)

// DisconnectFunc is told about every connection the gateway drops
type DisconnectFunc func(ctx context.Context, conn model.ConnectionID)

// Gateway tracks open connections and per-session audiences, and delivers notifications to them
type Gateway struct {
	clock  clock.Clock
	logger *slog.Logger

	mu           sync.RWMutex
	clients      map[model.ConnectionID]*Client
	hubs         map[model.SessionID]*hub
	onDisconnect DisconnectFunc
}

// Ensure Gateway implements session.Notifier
var _ session.Notifier = (*Gateway)(nil)

// New creates a Gateway with no connections
func New(clock clock.Clock, logger *slog.Logger) *Gateway {
	return &Gateway{
		clock:   clock,
		logger:  logger.With(slog.String("component", "gateway")),
		clients: make(map[model.ConnectionID]*Client),
		hubs:    make(map[model.SessionID]*hub),
	}
}

// OnDisconnect sets the hook run after a connection is dropped. The hook runs without
// any gateway lock held.
func (g *Gateway) OnDisconnect(fn DisconnectFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onDisconnect = fn
}

// Connect registers a new connection and queues its connected notification
func (g *Gateway) Connect(transport Transport) *Client {
	now := g.clock.Now()
	client := newClient(model.ConnectionID(uuid.NewString()), transport, now)

	g.mu.Lock()
	g.clients[client.id] = client
	total := len(g.clients)
	g.mu.Unlock()

	g.deliver(client, model.Notification{
		Type:      model.NotifyConnected,
		Timestamp: now,
		Payload:   model.ConnectedPayload{ConnectionID: client.id},
	})

	g.logger.Info("connection opened",
		slog.String("connection_id", string(client.id)),
		slog.String("transport", string(client.transport)),
		slog.Int("total_connections", total))
	return client
}

// Disconnect drops a connection and runs the disconnect hook
func (g *Gateway) Disconnect(ctx context.Context, conn model.ConnectionID) error {
	g.mu.Lock()
	client, ok := g.clients[conn]
	if !ok {
		g.mu.Unlock()
		return model.ErrConnectionNotFound
	}
	delete(g.clients, conn)
	hook := g.onDisconnect
	total := len(g.clients)
	g.mu.Unlock()

	client.close()
	g.logger.Info("connection closed",
		slog.String("connection_id", string(conn)),
		slog.Duration("connection_duration", g.clock.Now().Sub(client.connectedAt)),
		slog.Int("total_connections", total))

	if hook != nil {
		hook(ctx, conn)
	}
	return nil
}

// Client returns an open connection
func (g *Gateway) Client(conn model.ConnectionID) (*Client, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	client, ok := g.clients[conn]
	if !ok {
		return nil, model.ErrConnectionNotFound
	}
	return client, nil
}

// Touch records activity on a connection so the reaper leaves it alone
func (g *Gateway) Touch(conn model.ConnectionID) error {
	client, err := g.Client(conn)
	if err != nil {
		return err
	}
	client.touch(g.clock.Now())
	return nil
}

// Count returns the number of open connections
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// Subscribe adds the connection to the session's audience
func (g *Gateway) Subscribe(sessionID model.SessionID, conn model.ConnectionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.hubs[sessionID]
	if !ok {
		h = newHub(sessionID)
		g.hubs[sessionID] = h
	}
	h.add(conn)
}

// Unsubscribe removes the connection from the session's audience
func (g *Gateway) Unsubscribe(sessionID model.SessionID, conn model.ConnectionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.hubs[sessionID]
	if !ok {
		return
	}
	h.remove(conn)
	if h.empty() {
		delete(g.hubs, sessionID)
	}
}

// Publish sends to every connection subscribed to the session
func (g *Gateway) Publish(sessionID model.SessionID, n model.Notification) {
	msg, ok := g.encode(n)
	if !ok {
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.hubs[sessionID]
	if !ok {
		return
	}
	dropped := 0
	for conn := range h.members {
		client, ok := g.clients[conn]
		if !ok {
			continue
		}
		if !client.enqueue(msg) {
			dropped++
			g.logger.Warn("message dropped - client buffer full",
				slog.String("connection_id", string(conn)),
				slog.String("type", string(n.Type)))
		}
	}
	if dropped > 0 {
		g.logger.Warn("publish partial failure",
			slog.String("session_id", string(sessionID)),
			slog.Int("members", len(h.members)),
			slog.Int("dropped", dropped))
	}
}

// Send delivers privately to one connection
func (g *Gateway) Send(conn model.ConnectionID, n model.Notification) {
	client, err := g.Client(conn)
	if err != nil {
		return
	}
	g.deliver(client, n)
}

// Broadcast sends to every open connection
func (g *Gateway) Broadcast(n model.Notification) {
	msg, ok := g.encode(n)
	if !ok {
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, client := range g.clients {
		if !client.enqueue(msg) {
			g.logger.Warn("message dropped - client buffer full",
				slog.String("connection_id", string(client.id)),
				slog.String("type", string(n.Type)))
		}
	}
}

// ReapIdle drops connections that have no live stream and have been quiet for longer than
// the timeout. It returns the number dropped.
func (g *Gateway) ReapIdle(ctx context.Context, timeout time.Duration) int {
	cutoff := g.clock.Now().Add(-timeout)

	g.mu.RLock()
	var idle []model.ConnectionID
	for id, client := range g.clients {
		if client.streaming.Load() {
			continue
		}
		if client.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	g.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if err := g.Disconnect(ctx, id); err == nil {
			reaped++
		}
	}
	if reaped > 0 {
		g.logger.Info("idle connections reaped", slog.Int("reaped", reaped))
	}
	return reaped
}

// RunReaper calls ReapIdle on every tick until the context is cancelled
func (g *Gateway) RunReaper(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.ReapIdle(ctx, timeout)
		}
	}
}

// Close drops every connection
func (g *Gateway) Close(ctx context.Context) {
	g.mu.RLock()
	ids := make([]model.ConnectionID, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, id)
	}
	g.mu.RUnlock()

	for _, id := range ids {
		_ = g.Disconnect(ctx, id)
	}
}

func (g *Gateway) deliver(client *Client, n model.Notification) {
	msg, ok := g.encode(n)
	if !ok {
		return
	}
	if !client.enqueue(msg) {
		g.logger.Warn("message dropped - client buffer full",
			slog.String("connection_id", string(client.id)),
			slog.String("type", string(n.Type)))
	}
}

func (g *Gateway) encode(n model.Notification) (message, bool) {
	body, err := json.Marshal(n)
	if err != nil {
		g.logger.Error("failed to encode notification",
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()))
		return message{}, false
	}
	return message{kind: n.Type, body: body}, true
}
