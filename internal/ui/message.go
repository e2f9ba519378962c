package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgRequestDone MsgKind = iota
	MsgContinueDone
)

type requestOutcome struct {
	query  brain.ResolvedQuery
	result player.Result
}

type continueOutcome struct {
	request string
	query   brain.ResolvedQuery
	result  player.Result
	err     error
}

// requestDoneMsg is the constructor for [MsgRequestDone]
func requestDoneMsg(query brain.ResolvedQuery, result player.Result) Msg {
	return Msg{kind: MsgRequestDone, data: requestOutcome{query: query, result: result}}
}

// continueDoneMsg is the constructor for [MsgContinueDone]
func continueDoneMsg(request string, query brain.ResolvedQuery, result player.Result, err error) Msg {
	return Msg{kind: MsgContinueDone, data: continueOutcome{request: request, query: query, result: result, err: err}}
}
