package types

import (
	"errors"
	"strconv"
)

// Client -> Server frame types. Commands are typed by the user, actions are
// button presses and carry the button's data.
const (
	CmdStartGame    = "start_game"
	CmdStartGameNow = "start_game_now"
	CmdStopGame     = "stop_game"
	CmdExtendGame   = "extend_game"
	CmdText         = "text"

	ActionParticipate     = "participate"
	ActionAcceptHusband   = "accept_husband_role"
	ActionDenyHusband     = "deny_husband_role"
	ActionEliminate       = "eliminate"
	ActionSkipElimination = "skip_elimination"
)

var (
	ErrUnknownType = errors.New("unknown type")
	ErrBadData     = errors.New("bad data")
)

type ClientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data string `json:"data,omitempty"`
}

// Validate checks the frame shape; game rules are enforced further in.
func (m ClientMessage) Validate() error {
	switch m.Type {
	case CmdStartGame, CmdStartGameNow, CmdStopGame, CmdExtendGame,
		ActionParticipate, ActionAcceptHusband, ActionDenyHusband, ActionSkipElimination:
		return nil
	case CmdText:
		if m.Text == "" {
			return ErrBadData
		}
		return nil
	case ActionEliminate:
		_, err := m.MemberID()
		return err
	default:
		return ErrUnknownType
	}
}

// MemberID parses the data of an eliminate button.
func (m ClientMessage) MemberID() (int64, error) {
	id, err := strconv.ParseInt(m.Data, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadData
	}
	return id, nil
}
