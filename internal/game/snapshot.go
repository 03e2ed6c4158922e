package game

import (
	"context"

	"github.com/DoyleJ11/husband-game/internal/engine"
	pkgtypes "github.com/DoyleJ11/husband-game/pkg/types"
)

// Snapshot is the public view of a room. Answers are counted, never shown.
func (g *Game) Snapshot(ctx context.Context, chat engine.ChatID) (pkgtypes.RoomSnapshot, error) {
	var snap pkgtypes.RoomSnapshot
	err := g.do(ctx, func(e *engine.Engine) error {
		room, ok := e.Room(chat)
		if !ok {
			return ErrNoGame
		}

		snap = pkgtypes.RoomSnapshot{
			ChatID:        int64(chat),
			Status:        string(room.Status),
			StartDate:     room.StartDate,
			NumberOfSkips: room.NumberOfSkips,
			Answered:      len(room.Answers),
			Participants:  []pkgtypes.ParticipantSnapshot{},
		}
		if room.Registration != nil {
			snap.CreatorID = int64(room.Registration.CreatorID)
		}
		if info, ok := e.TimeoutInfo(chat); ok && !info.Idle {
			snap.TimerArmed = true
			left, _ := e.TimeoutRemaining(chat)
			snap.RemainingMS = left.Milliseconds()
		}

		for _, entry := range e.Participants(chat) {
			p := entry.Participant
			ps := pkgtypes.ParticipantSnapshot{
				UserID:    int64(entry.ID),
				FirstName: p.User.FirstName,
				Username:  p.User.Username,
				Role:      p.RoleName(),
				AFK:       p.AFK,
			}
			switch role := p.Role.(type) {
			case engine.Member:
				ps.Number = role.Number
				ps.Eliminated = role.Eliminated
			case engine.Husband, engine.Unknown:
			}
			snap.Participants = append(snap.Participants, ps)
		}
		return nil
	})
	return snap, err
}
