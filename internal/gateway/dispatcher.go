package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mcoot/ghoulgame/internal/api/apierr"
	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/services/lobby"
)

// CommandType identifies an inbound command
type CommandType string

const (
	CommandCreateSession CommandType = "createSession"
	CommandListSessions  CommandType = "listSessions"
	CommandJoinSession   CommandType = "joinSession"
	CommandLeaveSession  CommandType = "leaveSession"
	CommandStartGame     CommandType = "startGame"
	CommandKill          CommandType = "kill"
	CommandVote          CommandType = "vote"
	CommandFinalVote     CommandType = "finalVote"
	CommandPauseDayTimer CommandType = "pauseDayTimer"
	CommandEndPhase      CommandType = "endPhase"
)

// Command is the inbound envelope
type Command struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createSessionPayload struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type joinSessionPayload struct {
	SessionID model.SessionID `json:"sessionId"`
	Nickname  string          `json:"nickname"`
	Password  string          `json:"password"`
}

type sessionPayload struct {
	SessionID model.SessionID `json:"sessionId"`
}

type targetPayload struct {
	SessionID model.SessionID    `json:"sessionId"`
	TargetID  model.ConnectionID `json:"targetId"`
}

type finalVotePayload struct {
	SessionID model.SessionID `json:"sessionId"`
	Guilty    *bool           `json:"guilty"`
}

// Lobby is the command surface the dispatcher drives
type Lobby interface {
	Create(ctx context.Context, conn model.ConnectionID, req lobby.CreateRequest) (model.SessionView, model.Player, error)
	Join(ctx context.Context, id model.SessionID, conn model.ConnectionID, req lobby.JoinRequest) (model.Player, error)
	Leave(ctx context.Context, id model.SessionID, conn model.ConnectionID) error
	SendSessionList(conn model.ConnectionID)
	Start(ctx context.Context, id model.SessionID, conn model.ConnectionID) error
	Kill(ctx context.Context, id model.SessionID, conn, target model.ConnectionID) error
	Vote(ctx context.Context, id model.SessionID, conn, target model.ConnectionID) error
	CastVerdict(ctx context.Context, id model.SessionID, conn model.ConnectionID, guilty bool) error
	PauseDayTimer(ctx context.Context, id model.SessionID, conn model.ConnectionID) error
	EndPhase(ctx context.Context, id model.SessionID, conn model.ConnectionID) error
}

var errMalformed = errors.New("malformed command")

// Dispatcher decodes inbound commands and routes them to the lobby. Refused commands are
// answered with a private rejected notification.
type Dispatcher struct {
	lobby   Lobby
	gateway *Gateway
	clock   clock.Clock
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(lobby Lobby, gateway *Gateway, clock clock.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		lobby:   lobby,
		gateway: gateway,
		clock:   clock,
		logger:  logger.With(slog.String("component", "dispatcher")),
	}
}

// Handle runs one raw command from the connection
func (d *Dispatcher) Handle(ctx context.Context, conn model.ConnectionID, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Type == "" {
		d.reject(conn, cmd.Type, apierr.NewInvalidRequestError("Command must be a JSON object with a type"))
		return
	}

	if err := d.dispatch(ctx, conn, cmd); err != nil {
		if errors.Is(err, errMalformed) {
			err = apierr.NewInvalidRequestError("Invalid payload for " + string(cmd.Type))
		}
		d.reject(conn, cmd.Type, err)
		return
	}

	d.logger.Debug("command handled",
		slog.String("connection_id", string(conn)),
		slog.String("command", string(cmd.Type)))
}

func (d *Dispatcher) dispatch(ctx context.Context, conn model.ConnectionID, cmd Command) error {
	switch cmd.Type {
	case CommandCreateSession:
		var p createSessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		_, _, err := d.lobby.Create(ctx, conn, lobby.CreateRequest{Name: p.Name, Nickname: p.Nickname, Password: p.Password})
		return err

	case CommandListSessions:
		d.lobby.SendSessionList(conn)
		return nil

	case CommandJoinSession:
		var p joinSessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		_, err := d.lobby.Join(ctx, p.SessionID, conn, lobby.JoinRequest{Nickname: p.Nickname, Password: p.Password})
		return err

	case CommandLeaveSession:
		var p sessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.Leave(ctx, p.SessionID, conn)

	case CommandStartGame:
		var p sessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.Start(ctx, p.SessionID, conn)

	case CommandKill:
		var p targetPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.Kill(ctx, p.SessionID, conn, p.TargetID)

	case CommandVote:
		var p targetPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.Vote(ctx, p.SessionID, conn, p.TargetID)

	case CommandFinalVote:
		var p finalVotePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		if p.Guilty == nil {
			return errMalformed
		}
		return d.lobby.CastVerdict(ctx, p.SessionID, conn, *p.Guilty)

	case CommandPauseDayTimer:
		var p sessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.PauseDayTimer(ctx, p.SessionID, conn)

	case CommandEndPhase:
		var p sessionPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return err
		}
		return d.lobby.EndPhase(ctx, p.SessionID, conn)

	default:
		return apierr.NewInvalidRequestError("Unknown command " + string(cmd.Type))
	}
}

func (d *Dispatcher) reject(conn model.ConnectionID, command CommandType, err error) {
	_, apiErr := apierr.FromError(err)
	if apiErr.Code == apierr.CodeInternalError {
		d.logger.Error("command failed",
			slog.String("connection_id", string(conn)),
			slog.String("command", string(command)),
			slog.String("error", err.Error()))
	} else {
		d.logger.Debug("command rejected",
			slog.String("connection_id", string(conn)),
			slog.String("command", string(command)),
			slog.String("code", apiErr.Code))
	}

	d.gateway.Send(conn, model.Notification{
		Type:      model.NotifyRejected,
		Timestamp: d.clock.Now(),
		Payload: model.RejectedPayload{
			Command: string(command),
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errMalformed
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errMalformed
	}
	return nil
}
