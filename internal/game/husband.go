package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/types"
	pkgtypes "github.com/DoyleJ11/husband-game/pkg/types"
)

// AnswerHusbandOffer records the answer of the participant currently offered
// the husband role.
func (g *Game) AnswerHusbandOffer(ctx context.Context, user engine.User, accepted bool) error {
	return g.do(ctx, func(e *engine.Engine) error {
		chat, room, ok := e.RoomOfUser(user.ID)
		if !ok {
			return ErrNoGame
		}
		s := g.session(chat)
		if room.Status != engine.StatusSearchHusband || s.offered != user.ID {
			return ErrNotYourTurn
		}

		key := i18n.HusbandDenied
		if accepted {
			key = i18n.HusbandAccepted
		}
		g.editPrivate(s.offer, g.text.Sprintf(key))
		g.pickHusband(e, chat, user, accepted)
		return nil
	})
}

// searchHusband offers the role to a random participant that has not
// declined yet. Silence counts as a refusal.
func (g *Game) searchHusband(e *engine.Engine, chat engine.ChatID) {
	entry, ok := e.RandomRequestHusbandRole(chat)
	if !ok {
		return
	}
	user := entry.Participant.User
	s := g.session(chat)
	s.offered = user.ID

	id, err := g.sendUser(chat, user.ID, lobby.Message{
		Text: g.text.Sprintf(i18n.OfferHusband),
		Buttons: []pkgtypes.Button{
			{Text: g.text.Sprintf(i18n.ButtonAccept), Action: types.ActionAcceptHusband},
			{Text: g.text.Sprintf(i18n.ButtonDeny), Action: types.ActionDenyHusband},
		},
	})
	if err != nil {
		g.pickHusband(e, chat, user, false)
		return
	}
	s.offer = id

	e.RegisterTimeoutEvent(chat, func() {
		if status, _ := e.Status(chat); status != engine.StatusSearchHusband {
			return
		}
		g.editPrivate(id, g.text.Sprintf(i18n.OfferTimedOut))
		g.pickHusband(e, chat, user, false)
	}, g.cfg.AcceptHusbandRole, nil)
}

func (g *Game) pickHusband(e *engine.Engine, chat engine.ChatID, user engine.User, accepted bool) {
	status := e.AcceptHusbandRole(chat, user, accepted)
	e.UnregisterTimeoutEvent(chat)

	switch status {
	case engine.HusbandRoleAccept:
		g.completeHusbandSearch(e, chat, user)

	case engine.HusbandRoleDeny:
		if !e.AllCanceledHusbandRole(chat) {
			g.searchHusband(e, chat)
			return
		}

		entry, ok := e.RandomRequestHusbandRole(chat)
		if !ok {
			return
		}
		forced := entry.Participant.User
		e.AcceptHusbandRole(chat, forced, true)
		g.tell(chat, forced.ID, i18n.RandomRole)
		g.log.Info("husband role forced", zap.Int64("chat_id", int64(chat)), zap.Int64("user_id", int64(forced.ID)))
		g.completeHusbandSearch(e, chat, forced)
	}
}

func (g *Game) completeHusbandSearch(e *engine.Engine, chat engine.ChatID, husband engine.User) {
	if !e.AssignRandomNumberToMembers(chat) {
		return
	}
	for _, entry := range e.MembersInGame(chat) {
		m, _ := entry.Participant.Member()
		g.tell(chat, entry.ID, i18n.MemberNumber, m.Number)
	}
	if !e.CompleteHusbandSearch(chat) {
		return
	}

	s := g.session(chat)
	s.husband = husband.ID
	s.offered, s.offer = 0, 0
	g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.HusbandFound, mention(husband))})
	g.log.Info("husband found", zap.Int64("chat_id", int64(chat)), zap.Int64("user_id", int64(husband.ID)))
	g.requestQuestion(e, chat)
}
