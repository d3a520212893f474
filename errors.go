package main

import "fmt"

// --- Error Taxonomy ---

// Every command handler returns a *GameError; the dispatch loop turns
// it into a single "error" envelope. No handler failure may kill the
// session serve loop.
type ErrKind int

const (
	ErrNotFound ErrKind = iota
	ErrInvalidState
	ErrInsufficientResources
	ErrProtocol
	ErrTransient
)

type GameError struct {
	Kind ErrKind
	Msg  string
}

func (e *GameError) Error() string { return e.Msg }

func errNotFound(format string, args ...interface{}) *GameError {
	return &GameError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func errInvalidState(format string, args ...interface{}) *GameError {
	return &GameError{Kind: ErrInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func errInsufficient(format string, args ...interface{}) *GameError {
	return &GameError{Kind: ErrInsufficientResources, Msg: fmt.Sprintf(format, args...)}
}

func errProtocol(format string, args ...interface{}) *GameError {
	return &GameError{Kind: ErrProtocol, Msg: fmt.Sprintf(format, args...)}
}

func errTransient(format string, args ...interface{}) *GameError {
	return &GameError{Kind: ErrTransient, Msg: fmt.Sprintf(format, args...)}
}
