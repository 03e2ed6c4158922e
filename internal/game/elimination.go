package game

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/types"
	pkgtypes "github.com/DoyleJ11/husband-game/pkg/types"
)

// ChooseElimination is the husband picking the member who leaves.
func (g *Game) ChooseElimination(ctx context.Context, user engine.User, member engine.UserID) error {
	return g.do(ctx, func(e *engine.Engine) error {
		chat, room, err := g.eliminationTurn(e, user)
		if err != nil {
			return err
		}
		if !e.EliminateMember(chat, member) {
			return ErrInvalidChoice
		}
		g.editPrivate(room.Elimination.MessageID, g.text.Sprintf(i18n.ChoiceAccepted))
		g.handleElimination(e, chat, false, false)
		return nil
	})
}

// SkipElimination spends one of the game's skips.
func (g *Game) SkipElimination(ctx context.Context, user engine.User) error {
	return g.do(ctx, func(e *engine.Engine) error {
		chat, room, err := g.eliminationTurn(e, user)
		if err != nil {
			return err
		}
		if !e.SkipElimination(chat) {
			return ErrNoSkipsLeft
		}
		g.editPrivate(room.Elimination.MessageID, g.text.Sprintf(i18n.ChoiceAccepted))
		g.handleElimination(e, chat, true, false)
		return nil
	})
}

func (g *Game) eliminationTurn(e *engine.Engine, user engine.User) (engine.ChatID, engine.Room, error) {
	chat, room, ok := e.RoomOfUser(user.ID)
	if !ok {
		return 0, engine.Room{}, ErrNoGame
	}
	if room.Status != engine.StatusElimination || room.Elimination == nil || !e.IsHusband(user.ID) {
		return 0, engine.Room{}, ErrNotYourTurn
	}
	return chat, room, nil
}

func (g *Game) startElimination(e *engine.Engine, chat engine.ChatID) {
	room, ok := e.Room(chat)
	if !ok {
		return
	}
	members := e.MembersInGame(chat)
	husband, _ := e.HusbandInRoom(chat)

	switch len(members) {
	case 0:
		g.sendChat(chat, lobby.Message{
			Text:    g.text.Sprintf(i18n.AllAFK, mention(husband.Participant.User)),
			ReplyTo: room.ReplyID,
		})
		e.CompleteElimination(chat, true)
		g.finish(e, chat, ReasonAllAFK)
		return

	case 1:
		g.sendChat(chat, lobby.Message{
			Text:    g.winnerText(members[0], husband),
			ReplyTo: room.ReplyID,
		})
		g.session(chat).winner = members[0].ID
		e.CompleteElimination(chat, true)
		g.finish(e, chat, ReasonWinner)
		return
	}

	buttons := make([]pkgtypes.Button, 0, len(members)+1)
	for _, member := range members {
		m, _ := member.Participant.Member()
		buttons = append(buttons, pkgtypes.Button{
			Text:   g.text.Sprintf(i18n.ButtonMember, m.Number),
			Action: types.ActionEliminate,
			Data:   strconv.FormatInt(int64(member.ID), 10),
		})
	}
	if room.NumberOfSkips > 0 {
		buttons = append(buttons, pkgtypes.Button{
			Text:   g.text.Sprintf(i18n.ButtonSkip, room.NumberOfSkips),
			Action: types.ActionSkipElimination,
		})
	}

	// an unreachable husband still gets the timeout below
	id, _ := g.sendUser(chat, husband.ID, lobby.Message{Text: g.text.Sprintf(i18n.AskElimination), Buttons: buttons})
	g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.WaitingElimination)})
	e.SetEliminationQueryMessage(chat, id)

	e.RegisterTimeoutEvent(chat, func() {
		if status, _ := e.Status(chat); status != engine.StatusElimination {
			return
		}
		g.editPrivate(id, g.text.Sprintf(i18n.ChoiceTimedOut))

		if member, ok := e.MemberForElimination(chat); ok {
			e.EliminateMember(chat, member)
			g.handleElimination(e, chat, false, true)
			return
		}
		e.SkipElimination(chat)
		g.handleElimination(e, chat, true, true)
	}, g.cfg.EliminationTimeout, nil)
}

// handleElimination announces the round's outcome and either loops back to
// the question or ends the game.
func (g *Game) handleElimination(e *engine.Engine, chat engine.ChatID, skipped, timedOut bool) {
	e.UnregisterTimeoutEvent(chat)

	room, ok := e.Room(chat)
	if !ok {
		return
	}
	members := e.MembersInGame(chat)
	husband, _ := e.HusbandInRoom(chat)

	var (
		text     string
		finished bool
		reason   Reason
	)
	switch {
	case skipped:
		text = g.text.Sprintf(i18n.EliminationSkipped)

	case room.Elimination != nil && room.Elimination.EliminatedMemberID != nil:
		out := room.Participants[*room.Elimination.EliminatedMemberID]
		m, _ := out.Member()
		key := i18n.Eliminated
		if timedOut {
			key = i18n.EliminationRandom
		}
		text = g.text.Sprintf(key, m.Number, mention(out.User))

		switch len(members) {
		case 0:
			finished, reason = true, ReasonAllAFK
			text += "\n\n" + g.text.Sprintf(i18n.AllAFK, mention(husband.Participant.User))
		case 1:
			finished, reason = true, ReasonWinner
			text += "\n\n" + g.winnerText(members[0], husband)
			g.session(chat).winner = members[0].ID
		}
	}

	g.sendChat(chat, lobby.Message{Text: text, ReplyTo: room.ReplyID})
	if !skipped && len(members) == 2 {
		g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.FinalRound)})
	}

	e.CompleteElimination(chat, finished)
	g.log.Debug("elimination complete",
		zap.Int64("chat_id", int64(chat)), zap.Bool("skipped", skipped), zap.Int("members", len(members)))

	if finished {
		g.finish(e, chat, reason)
		return
	}
	g.requestQuestion(e, chat)
}

func (g *Game) winnerText(winner, husband engine.Entry) string {
	m, _ := winner.Participant.Member()
	return g.text.Sprintf(i18n.Winner, m.Number, mention(winner.Participant.User), mention(husband.Participant.User))
}
