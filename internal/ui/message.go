package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/session"
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
	MsgSessionChanged MsgKind = iota
	MsgBootstrapped
	MsgLoginDone
	MsgRegisterDone
	MsgRefreshDone
)

type authResult struct {
	profile models.UserProfile
	err     error
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(st session.State) Msg {
	return Msg{kind: MsgSessionChanged, data: st}
}

// bootstrappedMsg is the constructor for [MsgBootstrapped]
func bootstrappedMsg(st session.State) Msg {
	return Msg{kind: MsgBootstrapped, data: st}
}

// loginDoneMsg is the constructor for [MsgLoginDone]
func loginDoneMsg(profile models.UserProfile, err error) Msg {
	return Msg{kind: MsgLoginDone, data: authResult{profile, err}}
}

// registerDoneMsg is the constructor for [MsgRegisterDone]
func registerDoneMsg(profile models.UserProfile, err error) Msg {
	return Msg{kind: MsgRegisterDone, data: authResult{profile, err}}
}

// refreshDoneMsg is the constructor for [MsgRefreshDone]
func refreshDoneMsg(st session.State) Msg {
	return Msg{kind: MsgRefreshDone, data: st}
}

func (m Msg) state() session.State {
	st, _ := m.data.(session.State)
	return st
}

func (m Msg) result() authResult {
	res, _ := m.data.(authResult)
	return res
}
