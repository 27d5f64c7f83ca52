package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionFull         = errors.New("session is full")
	ErrAlreadyStarted      = errors.New("game has already started")
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
	ErrWrongPassword       = errors.New("wrong session password")
	ErrCodeGeneration      = errors.New("could not generate a unique session code")

	// Membership errors
	ErrNotInSession     = errors.New("connection is not in this session")
	ErrAlreadyInSession = errors.New("connection is already in a session")
	ErrInvalidNickname  = errors.New("invalid nickname")

	// Authorisation errors
	ErrNotOwner = errors.New("connection is not the session owner")
	ErrNotGhoul = errors.New("connection is not the ghoul")

	// Play errors
	ErrWrongPhase     = errors.New("command not allowed in current phase")
	ErrUnknownTarget  = errors.New("unknown target")
	ErrTargetNotAlive = errors.New("target is not alive")
	ErrInvalidTarget  = errors.New("target is not eligible")
	ErrNotAlive       = errors.New("player is not alive")
	ErrAlreadyVoted   = errors.New("player has already cast a verdict")

	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")

	// Archive errors
	ErrGameNotFound = errors.New("game record not found")
)
