package testutil

import (
	"sync"

	"github.com/mcoot/ghoulgame/internal/model"
)

// RecordingNotifier captures every notification instead of delivering it
type RecordingNotifier struct {
	mu          sync.Mutex
	subscribers map[model.SessionID]map[model.ConnectionID]bool
	published   []model.Notification
	sent        map[model.ConnectionID][]model.Notification
	broadcast   []model.Notification
}

// NewRecordingNotifier creates an empty RecordingNotifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		subscribers: make(map[model.SessionID]map[model.ConnectionID]bool),
		sent:        make(map[model.ConnectionID][]model.Notification),
	}
}

func (n *RecordingNotifier) Subscribe(session model.SessionID, conn model.ConnectionID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscribers[session] == nil {
		n.subscribers[session] = make(map[model.ConnectionID]bool)
	}
	n.subscribers[session][conn] = true
}

func (n *RecordingNotifier) Unsubscribe(session model.SessionID, conn model.ConnectionID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscribers[session], conn)
}

func (n *RecordingNotifier) Publish(session model.SessionID, notification model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, notification)
}

func (n *RecordingNotifier) Send(conn model.ConnectionID, notification model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[conn] = append(n.sent[conn], notification)
}

func (n *RecordingNotifier) Broadcast(notification model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcast = append(n.broadcast, notification)
}

// IsSubscribed reports whether conn is in the session's audience
func (n *RecordingNotifier) IsSubscribed(session model.SessionID, conn model.ConnectionID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subscribers[session][conn]
}

// PublishedOfType returns public notifications of the given type, oldest first
func (n *RecordingNotifier) PublishedOfType(t model.NotificationType) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return ofType(n.published, t)
}

// SentOfType returns private notifications of the given type delivered to conn
func (n *RecordingNotifier) SentOfType(conn model.ConnectionID, t model.NotificationType) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return ofType(n.sent[conn], t)
}

// Broadcasts returns every notification sent to all connections
func (n *RecordingNotifier) Broadcasts() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.broadcast...)
}

// PublishedTypes lists the types of every public notification in order
func (n *RecordingNotifier) PublishedTypes() []model.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]model.NotificationType, len(n.published))
	for i, notification := range n.published {
		types[i] = notification.Type
	}
	return types
}

// Reset forgets recorded notifications but keeps subscriptions
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = nil
	n.sent = make(map[model.ConnectionID][]model.Notification)
	n.broadcast = nil
}

func ofType(notifications []model.Notification, t model.NotificationType) []model.Notification {
	var out []model.Notification
	for _, notification := range notifications {
		if notification.Type == t {
			out = append(out, notification)
		}
	}
	return out
}
