package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/tasks"
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
	MsgGenerated MsgKind = iota
	MsgProgressUpdate
	MsgAssembled
	MsgSaved
)

type generatedData struct {
	result *tasks.GenerateResult
	err    error
}

type assembledData struct {
	result *tasks.AssembleResult
	err    error
}

// generatedMsg is the constructor for [MsgGenerated]
func generatedMsg(result *tasks.GenerateResult, err error) Msg {
	return Msg{kind: MsgGenerated, data: generatedData{result, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// assembledMsg is the constructor for [MsgAssembled]
func assembledMsg(result *tasks.AssembleResult, err error) Msg {
	return Msg{kind: MsgAssembled, data: assembledData{result, err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(err error) Msg {
	return Msg{kind: MsgSaved, data: err}
}
