package request

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Password string `json:"password,omitempty"`
}

// JoinSessionRequest is the request body for joining a session
type JoinSessionRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password,omitempty"`
}

// TargetRequest is the request body for the kill and vote commands
type TargetRequest struct {
	TargetID string `json:"target_id"`
}

// VerdictRequest is the request body for a final vote
type VerdictRequest struct {
	Guilty *bool `json:"guilty"`
}
