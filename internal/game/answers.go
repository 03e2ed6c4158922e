package game

import (
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
)

func (g *Game) requestAnswers(e *engine.Engine, chat engine.ChatID) {
	question := g.session(chat).question
	for _, member := range e.MembersInGame(chat) {
		g.tell(chat, member.ID, i18n.AskAnswer, question, g.cfg.MaxAnswerLength)
	}
	if husband, ok := e.HusbandInGame(chat); ok {
		g.tell(chat, husband.ID, i18n.AskHusbandMessage, g.cfg.MaxHusbandMessageLength)
	}

	e.RegisterTimeoutEvent(chat, func() {
		if status, _ := e.Status(chat); status != engine.StatusAnswers {
			return
		}
		e.SetAFKMembersInAnswers(chat)
		g.completeAnswers(e, chat)
	}, g.cfg.AnswersTimeout, nil)
}

func (g *Game) submitAnswer(e *engine.Engine, chat engine.ChatID, user engine.User, text string) error {
	if err := g.checkLength(chat, user.ID, text, g.cfg.MaxAnswerLength); err != nil {
		return err
	}
	if !e.SetAnswerByMember(user.ID, strings.TrimSpace(text)) {
		return ErrNotYourTurn
	}
	g.tell(chat, user.ID, i18n.AnswerSaved)

	if e.EveryoneAnswered(chat) {
		g.completeAnswers(e, chat)
	}
	return nil
}

// completeAnswers publishes the round's answers under the question and
// moves on to elimination. Members without an answer are out.
func (g *Game) completeAnswers(e *engine.Engine, chat engine.ChatID) {
	e.UnregisterTimeoutEvent(chat)

	room, ok := e.Room(chat)
	if !ok {
		return
	}

	var lines []string
	for _, member := range e.MembersInGame(chat) {
		m, _ := member.Participant.Member()
		if member.Participant.AFK {
			lines = append(lines, g.text.Sprintf(i18n.NoAnswer, m.Number))
			g.tell(chat, member.ID, i18n.AnswerAFKPersonal)
			continue
		}
		lines = append(lines, g.text.Sprintf(i18n.AnswerLine, m.Number, room.Answers[member.ID]))
	}

	id := g.sendChat(chat, lobby.Message{
		Text:    g.text.Sprintf(i18n.AnswersPublished, strings.Join(lines, "\n")),
		ReplyTo: room.ReplyID,
	})
	e.CompleteMemberAnswers(chat, id)
	g.session(chat).rounds++
	g.log.Debug("answers complete", zap.Int64("chat_id", int64(chat)), zap.Int("answers", len(room.Answers)))
	g.startElimination(e, chat)
}
