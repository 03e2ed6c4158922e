package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/timer"
	"github.com/DoyleJ11/husband-game/internal/types"
	pkgtypes "github.com/DoyleJ11/husband-game/pkg/types"
)

// StartGame opens registration in chat. When a game already exists the user
// is told privately who created it.
func (g *Game) StartGame(ctx context.Context, chat engine.ChatID, creator engine.User) error {
	return g.do(ctx, func(e *engine.Engine) error {
		if !e.CreateRoom(chat) {
			g.tell(chat, creator.ID, i18n.RegistrationExists, mention(g.session(chat).creator))
			return ErrGameExists
		}

		s := g.session(chat)
		s.creator = creator
		id, err := g.board.SendChat(ctx, chat, g.registrationMessage(e, chat))
		if err != nil {
			e.CloseRoom(chat, true)
			delete(g.sessions, chat)
			return fmt.Errorf("post registration: %w", err)
		}
		s.registration = id
		e.SetMessageForRegistration(chat, creator, id)

		e.RegisterTimeoutEvent(chat,
			func() { g.completeRegistration(e, chat) },
			g.cfg.RegistrationTimeout,
			&timer.Reminder{
				Callback: func() { g.remindRegistration(e, chat) },
				Lead:     g.cfg.RegistrationRemind,
			})

		g.log.Info("registration opened", zap.Int64("chat_id", int64(chat)), zap.Int64("user_id", int64(creator.ID)))
		return nil
	})
}

// Participate adds user to the chat's registration. The join is rolled back
// when the user cannot be reached privately.
func (g *Game) Participate(ctx context.Context, chat engine.ChatID, user engine.User) error {
	return g.do(ctx, func(e *engine.Engine) error {
		switch e.AddParticipantToRoom(chat, user) {
		case engine.AddRoomNotExist:
			return ErrNoGame
		case engine.AddParticipantInGame:
			return ErrAlreadyInGame
		case engine.AddNotRegistration:
			return ErrNotRegistration
		}

		if _, err := g.board.SendUser(ctx, chat, user.ID, lobby.Message{Text: g.text.Sprintf(i18n.RegistrationJoined)}); err != nil {
			e.RemoveParticipantFromRoom(chat, user)
			return fmt.Errorf("notify participant: %w", err)
		}

		if len(e.Participants(chat)) >= g.cfg.MaxParticipants {
			g.completeRegistration(e, chat)
			return nil
		}
		g.editOrSend(chat, g.session(chat).registration, g.registrationMessage(e, chat))
		return nil
	})
}

// StartGameNow closes registration early. Only the creator may do it.
func (g *Game) StartGameNow(ctx context.Context, chat engine.ChatID, user engine.User) error {
	return g.do(ctx, func(e *engine.Engine) error {
		if err := g.checkCreator(e, chat, user); err != nil {
			return err
		}
		g.completeRegistration(e, chat)
		return nil
	})
}

// StopGame cancels a game that is still registering. Only the creator may
// do it.
func (g *Game) StopGame(ctx context.Context, chat engine.ChatID, user engine.User) error {
	return g.do(ctx, func(e *engine.Engine) error {
		if err := g.checkCreator(e, chat, user); err != nil {
			return err
		}
		g.editOrSend(chat, g.session(chat).registration, lobby.Message{Text: g.text.Sprintf(i18n.RegistrationStopped)})
		e.CloseRoom(chat, false)
		g.forget(chat)
		g.log.Info("game stopped", zap.Int64("chat_id", int64(chat)), zap.Int64("user_id", int64(user.ID)))
		return nil
	})
}

// ExtendGame pushes the registration deadline back and returns the time
// left. Anyone in the chat may extend, up to the configured maximum.
func (g *Game) ExtendGame(ctx context.Context, chat engine.ChatID) (time.Duration, error) {
	var left time.Duration
	err := g.do(ctx, func(e *engine.Engine) error {
		status, ok := e.Status(chat)
		if !ok {
			return ErrNoGame
		}
		if status != engine.StatusRegistration {
			return ErrNotRegistration
		}

		left = e.ExtendRegistrationTimeout(chat, g.cfg.ExtendRegistration)
		if left <= 0 {
			return nil
		}
		id := g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.RegistrationExtended, seconds(left))})
		g.autoClear(id)
		return nil
	})
	return left, err
}

func (g *Game) checkCreator(e *engine.Engine, chat engine.ChatID, user engine.User) error {
	room, ok := e.Room(chat)
	if !ok {
		return ErrNoGame
	}
	if room.Status != engine.StatusRegistration {
		return ErrNotRegistration
	}
	if room.Registration == nil || room.Registration.CreatorID != user.ID {
		g.tell(chat, user.ID, i18n.NotCreator, mention(g.session(chat).creator))
		return ErrNotCreator
	}
	return nil
}

func (g *Game) registrationMessage(e *engine.Engine, chat engine.ChatID) lobby.Message {
	entries := e.Participants(chat)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = fmt.Sprintf("%d. %s", i+1, mention(entry.Participant.User))
	}

	text := g.text.Sprintf(i18n.RegistrationStarted, mention(g.session(chat).creator)) +
		"\n\n" + g.text.Sprintf(i18n.RegistrationParticipants, len(entries), strings.Join(names, "\n"))
	return lobby.Message{
		Text: text,
		Buttons: []pkgtypes.Button{{
			Text:   g.text.Sprintf(i18n.ButtonParticipate),
			Action: types.ActionParticipate,
		}},
	}
}

func (g *Game) remindRegistration(e *engine.Engine, chat engine.ChatID) {
	if status, _ := e.Status(chat); status != engine.StatusRegistration {
		return
	}
	left, _ := e.TimeoutRemaining(chat)
	id := g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.RegistrationRemind, seconds(left))})
	g.autoClear(id)
}

// completeRegistration runs on the hub, from the registration timeout, the
// creator's start_now or the last free seat being taken.
func (g *Game) completeRegistration(e *engine.Engine, chat engine.ChatID) {
	registration := g.session(chat).registration

	switch e.CompleteRegistration(chat) {
	case engine.RegistrationNotEnoughParticipants:
		g.editOrSend(chat, registration, lobby.Message{
			Text: g.text.Sprintf(i18n.NotEnoughParticipants, e.Config().MinParticipants),
		})
		g.forget(chat)
		g.log.Info("not enough participants", zap.Int64("chat_id", int64(chat)))

	case engine.RegistrationNextStatus:
		e.UnregisterTimeoutEvent(chat)
		g.editOrSend(chat, registration, lobby.Message{Text: g.text.Sprintf(i18n.SearchHusband)})
		g.log.Info("game started", zap.Int64("chat_id", int64(chat)), zap.Int("participants", len(e.Participants(chat))))
		g.searchHusband(e, chat)
	}
}

func (g *Game) forget(chat engine.ChatID) {
	delete(g.sessions, chat)
	g.board.Forget(chat)
}
