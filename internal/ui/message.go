package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/repx/internal/models"
	"github.com/desertthunder/repx/internal/tasks"
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
	MsgProgramsLoaded MsgKind = iota
	MsgDaysLoaded
	MsgSessionLoaded
	MsgRestTick
	MsgRecordResult
	MsgRecorderClosed
)

type programsPayload struct {
	programs []*models.Program
	err      error
}

type daysPayload struct {
	program *models.Program
	days    []*models.Day
	err     error
}

type sessionPayload struct {
	day       *models.Day
	snapshots []models.ExerciseSnapshot
	err       error
}

type recordPayload struct {
	recorder *tasks.Recorder
	result   tasks.RecordResult
}

// programsLoadedMsg is the constructor for [MsgProgramsLoaded]
func programsLoadedMsg(programs []*models.Program, err error) Msg {
	return Msg{kind: MsgProgramsLoaded, data: programsPayload{programs, err}}
}

// daysLoadedMsg is the constructor for [MsgDaysLoaded]
func daysLoadedMsg(program *models.Program, days []*models.Day, err error) Msg {
	return Msg{kind: MsgDaysLoaded, data: daysPayload{program, days, err}}
}

// sessionLoadedMsg is the constructor for [MsgSessionLoaded]
func sessionLoadedMsg(day *models.Day, snapshots []models.ExerciseSnapshot, err error) Msg {
	return Msg{kind: MsgSessionLoaded, data: sessionPayload{day, snapshots, err}}
}

// restTickMsg is the constructor for [MsgRestTick]. It carries the timer generation that scheduled it.
func restTickMsg(generation uint64) Msg {
	return Msg{kind: MsgRestTick, data: generation}
}

// recordResultMsg is the constructor for [MsgRecordResult]
func recordResultMsg(r *tasks.Recorder, result tasks.RecordResult) Msg {
	return Msg{kind: MsgRecordResult, data: recordPayload{r, result}}
}

// recorderClosedMsg is the constructor for [MsgRecorderClosed]
func recorderClosedMsg(r *tasks.Recorder) Msg {
	return Msg{kind: MsgRecorderClosed, data: r}
}
