package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
)

// SubmitText handles a private text from a player. Depending on the phase it
// is the husband's question, a member's answer or a husband's remark.
func (g *Game) SubmitText(ctx context.Context, user engine.User, text string) error {
	return g.do(ctx, func(e *engine.Engine) error {
		chat, room, ok := e.RoomOfUser(user.ID)
		if !ok {
			return ErrNoGame
		}
		husband := e.IsHusband(user.ID)

		switch {
		case room.Status == engine.StatusQuestion && husband:
			return g.submitQuestion(e, chat, user, text)
		case room.Status == engine.StatusAnswers && husband:
			return g.relayHusbandMessage(chat, user, text)
		case room.Status == engine.StatusAnswers:
			return g.submitAnswer(e, chat, user, text)
		default:
			return ErrNotYourTurn
		}
	})
}

func (g *Game) requestQuestion(e *engine.Engine, chat engine.ChatID) {
	husband, ok := e.HusbandInGame(chat)
	if !ok {
		return
	}
	g.tell(chat, husband.ID, i18n.AskQuestion, g.cfg.MaxQuestionLength)
	g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.WaitingQuestion)})

	e.RegisterTimeoutEvent(chat, func() {
		if status, _ := e.Status(chat); status != engine.StatusQuestion {
			return
		}
		g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.FinishedHusbandAFK)})
		g.tell(chat, husband.ID, i18n.QuestionAFKPersonal)
		e.CompleteHusbandQuestion(chat, true)
		g.log.Info("husband sent no question", zap.Int64("chat_id", int64(chat)))
		g.finish(e, chat, ReasonHusbandAFK)
	}, g.cfg.QuestionTimeout, nil)
}

func (g *Game) submitQuestion(e *engine.Engine, chat engine.ChatID, user engine.User, text string) error {
	if err := g.checkLength(chat, user.ID, text, g.cfg.MaxQuestionLength); err != nil {
		return err
	}
	e.UnregisterTimeoutEvent(chat)

	question := capitalize(text)
	id := g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.QuestionPublished, question)})
	e.SetQuestionByHusband(user.ID, id)
	g.session(chat).question = question
	e.CompleteHusbandQuestion(chat, false)
	g.requestAnswers(e, chat)
	return nil
}

func (g *Game) relayHusbandMessage(chat engine.ChatID, user engine.User, text string) error {
	if err := g.checkLength(chat, user.ID, text, g.cfg.MaxHusbandMessageLength); err != nil {
		return err
	}
	g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.HusbandMessage, text)})
	return nil
}
