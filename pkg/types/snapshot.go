package types

import "time"

// RoomSnapshot is the read model served by GET /chats/{chatID}.
type RoomSnapshot struct {
	ChatID        int64                 `json:"chat_id"`
	Status        string                `json:"status"`
	StartDate     time.Time             `json:"start_date"`
	CreatorID     int64                 `json:"creator_id,omitempty"`
	NumberOfSkips int                   `json:"number_of_skips"`
	Participants  []ParticipantSnapshot `json:"participants"`
	Answered      int                   `json:"answered"`
	TimerArmed    bool                  `json:"timer_armed"`
	RemainingMS   int64                 `json:"remaining_ms,omitempty"`
}

type ParticipantSnapshot struct {
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	Username   string `json:"username,omitempty"`
	Role       string `json:"role"`
	Number     int    `json:"number,omitempty"`
	AFK        bool   `json:"afk,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`
}

// GameSummary is one finished game as served by GET /chats/{chatID}/history.
type GameSummary struct {
	ID           uint      `json:"id"`
	ChatID       int64     `json:"chat_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Reason       string    `json:"reason"`
	HusbandID    int64     `json:"husband_id,omitempty"`
	WinnerID     int64     `json:"winner_id,omitempty"`
	Rounds       int       `json:"rounds"`
	Participants int       `json:"participants"`
}
