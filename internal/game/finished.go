package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/storage"
)

// Reason is why a game ended, as stored in its history record.
type Reason string

const (
	ReasonWinner     Reason = "winner"
	ReasonAllAFK     Reason = "all_afk"
	ReasonHusbandAFK Reason = "husband_afk"
)

// finish announces the end, records the game and closes the room. The room
// must already be in the finished phase.
func (g *Game) finish(e *engine.Engine, chat engine.ChatID, reason Reason) {
	room, ok := e.Room(chat)
	if !ok || room.Status != engine.StatusFinished {
		return
	}

	now := g.clock.Now()
	lasted := now.Sub(room.StartDate).Round(time.Second)
	g.sendChat(chat, lobby.Message{Text: g.text.Sprintf(i18n.FinishedChat, lasted.String())})

	entries := e.Participants(chat)
	for _, entry := range entries {
		g.tell(chat, entry.ID, i18n.GameOver)
	}

	s := g.session(chat)
	rec := &storage.GameRecord{
		ChatID:     int64(chat),
		StartedAt:  room.StartDate,
		FinishedAt: now,
		Reason:     string(reason),
		HusbandID:  int64(s.husband),
		WinnerID:   int64(s.winner),
		Rounds:     s.rounds,
	}
	for _, entry := range entries {
		p := entry.Participant
		m, _ := p.Member()
		rec.Participants = append(rec.Participants, storage.ParticipantRecord{
			UserID:     int64(entry.ID),
			FirstName:  p.User.FirstName,
			Username:   p.User.Username,
			Role:       p.RoleName(),
			Number:     m.Number,
			AFK:        p.AFK,
			Eliminated: m.Eliminated,
		})
	}
	if err := g.history.RecordGame(g.ctx, rec); err != nil {
		g.log.Error("record game failed", zap.Int64("chat_id", int64(chat)), zap.Error(err))
	}

	e.CloseRoom(chat, false)
	g.forget(chat)
	g.log.Info("game finished",
		zap.Int64("chat_id", int64(chat)),
		zap.String("reason", string(reason)),
		zap.Int("rounds", s.rounds),
		zap.Duration("lasted", lasted))
}
