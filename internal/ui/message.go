package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/session"
	"github.com/desertthunder/pathfinder/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgSessionEvent
	MsgAuthDone
	MsgAnalyzeDone
	MsgResultLoaded
	MsgSelectDone
	MsgOpened
	MsgChannelClosed
)

type authDone struct {
	action authAction
	err    error
}

type analyzeDone struct {
	result *models.AnalysisResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// sessionEventMsg is the constructor for [MsgSessionEvent]
func sessionEventMsg(ev session.Event) Msg {
	return Msg{kind: MsgSessionEvent, data: ev}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(action authAction, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authDone{action, err}}
}

// analyzeDoneMsg is the constructor for [MsgAnalyzeDone]
func analyzeDoneMsg(result *models.AnalysisResult, err error) Msg {
	return Msg{kind: MsgAnalyzeDone, data: analyzeDone{result, err}}
}

// resultLoadedMsg is the constructor for [MsgResultLoaded]
func resultLoadedMsg(result *models.AnalysisResult) Msg {
	return Msg{kind: MsgResultLoaded, data: result}
}

// selectDoneMsg is the constructor for [MsgSelectDone]
func selectDoneMsg(err error) Msg {
	return Msg{kind: MsgSelectDone, data: err}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}

func channelClosedMsg() Msg {
	return Msg{kind: MsgChannelClosed}
}
