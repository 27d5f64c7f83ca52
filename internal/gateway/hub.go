package gateway

import "github.com/mcoot/ghoulgame/internal/model"

// hub is the audience of one session. It is guarded by the gateway's lock.
type hub struct {
	session model.SessionID
	members map[model.ConnectionID]struct{}
}

func newHub(session model.SessionID) *hub {
	return &hub{
		session: session,
		members: make(map[model.ConnectionID]struct{}),
	}
}

func (h *hub) add(conn model.ConnectionID) {
	h.members[conn] = struct{}{}
}

func (h *hub) remove(conn model.ConnectionID) {
	delete(h.members, conn)
}

func (h *hub) empty() bool {
	return len(h.members) == 0
}
