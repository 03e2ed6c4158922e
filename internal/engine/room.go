package engine

import (
	"maps"
	"time"
)

type Registration struct {
	CreatorID UserID
}

type Elimination struct {
	MessageID          MessageID
	EliminatedMemberID *UserID
}

type Room struct {
	Status       Status
	StartDate    time.Time
	Registration *Registration
	// ReplyID is the message follow-ups thread under; 0 means none.
	ReplyID       MessageID
	Participants  map[UserID]Participant
	Answers       map[UserID]string
	NumberOfSkips int
	Elimination   *Elimination
}

func newRoom(now time.Time, skips int) *Room {
	return &Room{
		Status:        StatusRegistration,
		StartDate:     now,
		Participants:  make(map[UserID]Participant),
		Answers:       make(map[UserID]string),
		NumberOfSkips: skips,
	}
}

// clone copies everything a caller could otherwise mutate behind the engine.
func (r *Room) clone() Room {
	c := *r
	c.Participants = maps.Clone(r.Participants)
	c.Answers = maps.Clone(r.Answers)
	if r.Registration != nil {
		reg := *r.Registration
		c.Registration = &reg
	}
	if r.Elimination != nil {
		el := *r.Elimination
		if r.Elimination.EliminatedMemberID != nil {
			id := *r.Elimination.EliminatedMemberID
			el.EliminatedMemberID = &id
		}
		c.Elimination = &el
	}
	return c
}
