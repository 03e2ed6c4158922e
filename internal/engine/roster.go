package engine

import (
	"cmp"
	"slices"
)

// roomOfUser scans every room in chat order. A user joins at most one room,
// so the first hit is the only one.
func (e *Engine) roomOfUser(userID UserID) (ChatID, *Room, bool) {
	for _, chatID := range e.Rooms() {
		room := e.rooms[chatID]
		if _, ok := room.Participants[userID]; ok {
			return chatID, room, true
		}
	}
	return 0, nil, false
}

func (e *Engine) RoomOfUser(userID UserID) (ChatID, Room, bool) {
	chatID, room, ok := e.roomOfUser(userID)
	if !ok {
		return 0, Room{}, false
	}
	return chatID, room.clone(), true
}

// sortedEntries snapshots the roster: members by number first, then the
// rest by id. Callers mutate the map only while ranging over this slice.
func sortedEntries(room *Room) []Entry {
	entries := make([]Entry, 0, len(room.Participants))
	for id, p := range room.Participants {
		entries = append(entries, Entry{ID: id, Participant: p})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		am, aok := a.Participant.Member()
		bm, bok := b.Participant.Member()
		switch {
		case aok && bok:
			return cmp.Compare(am.Number, bm.Number)
		case aok:
			return -1
		case bok:
			return 1
		default:
			return cmp.Compare(a.ID, b.ID)
		}
	})
	return entries
}

func husbandOf(room *Room) (Entry, bool) {
	for _, entry := range sortedEntries(room) {
		if entry.Participant.IsHusband() {
			return entry, true
		}
	}
	return Entry{}, false
}

func (e *Engine) Participants(chatID ChatID) []Entry {
	room, ok := e.rooms[chatID]
	if !ok {
		return nil
	}
	return sortedEntries(room)
}

func (e *Engine) Participant(chatID ChatID, userID UserID) (Participant, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return Participant{}, false
	}
	p, ok := room.Participants[userID]
	return p, ok
}

// MembersInGame lists members still in play, ordered by number.
func (e *Engine) MembersInGame(chatID ChatID) []Entry {
	room, ok := e.rooms[chatID]
	if !ok {
		return nil
	}
	return membersInGame(room)
}

func membersInGame(room *Room) []Entry {
	var members []Entry
	for _, entry := range sortedEntries(room) {
		if entry.Participant.InGame() {
			members = append(members, entry)
		}
	}
	return members
}

// HusbandInGame returns the husband unless he went AFK.
func (e *Engine) HusbandInGame(chatID ChatID) (Entry, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return Entry{}, false
	}
	husband, ok := husbandOf(room)
	if !ok || husband.Participant.AFK {
		return Entry{}, false
	}
	return husband, true
}

func (e *Engine) HusbandInRoom(chatID ChatID) (Entry, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return Entry{}, false
	}
	return husbandOf(room)
}

func (e *Engine) IsHusband(userID UserID) bool {
	_, room, ok := e.roomOfUser(userID)
	return ok && room.Participants[userID].IsHusband()
}

func (e *Engine) IsMember(userID UserID) bool {
	_, room, ok := e.roomOfUser(userID)
	if !ok {
		return false
	}
	_, member := room.Participants[userID].Member()
	return member
}

// SetAnswerByMember stores the answer of an in-game member during the
// answers phase. A later answer replaces an earlier one.
func (e *Engine) SetAnswerByMember(userID UserID, answer string) bool {
	_, room, ok := e.roomOfUser(userID)
	if !ok || room.Status != StatusAnswers {
		return false
	}
	if !room.Participants[userID].InGame() {
		return false
	}
	room.Answers[userID] = answer
	return true
}

// SetAFKMembersInAnswers flags every in-game member without a non-empty answer.
func (e *Engine) SetAFKMembersInAnswers(chatID ChatID) {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusAnswers {
		return
	}
	for _, entry := range membersInGame(room) {
		if room.Answers[entry.ID] != "" {
			continue
		}
		p := entry.Participant
		p.AFK = true
		room.Participants[entry.ID] = p
	}
}

func (e *Engine) EveryoneAnswered(chatID ChatID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusAnswers {
		return false
	}
	return len(room.Answers) == len(membersInGame(room))
}
