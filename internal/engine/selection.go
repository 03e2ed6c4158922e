package engine

import "github.com/DoyleJ11/husband-game/internal/random"

// RandomRequestHusbandRole draws the next participant to offer the husband
// role to. When every candidate has declined it draws from the whole roster.
func (e *Engine) RandomRequestHusbandRole(chatID ChatID) (Entry, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return Entry{}, false
	}

	all := sortedEntries(room)
	var candidates []Entry
	for _, entry := range all {
		if entry.Participant.Candidate() {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		candidates = all
	}
	return random.Pick(e.rand, candidates)
}

// AssignRandomNumberToMembers turns everybody but the husband into a member
// numbered 1..N with no repeats.
func (e *Engine) AssignRandomNumberToMembers(chatID ChatID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusSearchHusband {
		return false
	}
	husband, ok := husbandOf(room)
	if !ok {
		return false
	}

	var others []Entry
	for _, entry := range sortedEntries(room) {
		if entry.ID != husband.ID {
			others = append(others, entry)
		}
	}

	ids := make([]UserID, len(others))
	for i, entry := range others {
		ids[i] = entry.ID
	}
	numbers := random.AssignNumbers(e.rand, ids)

	for _, entry := range others {
		room.Participants[entry.ID] = Participant{
			User: entry.Participant.User,
			AFK:  entry.Participant.AFK,
			Role: Member{Number: numbers[entry.ID]},
		}
	}
	return true
}

// MemberForElimination draws the member to remove when the husband did not
// choose in time. It yields nothing while skips remain.
func (e *Engine) MemberForElimination(chatID ChatID) (UserID, bool) {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusElimination || room.NumberOfSkips != 0 {
		return 0, false
	}
	entry, ok := random.Pick(e.rand, membersInGame(room))
	if !ok {
		return 0, false
	}
	return entry.ID, true
}
