package engine

import (
	"slices"
	"time"

	"github.com/DoyleJ11/husband-game/internal/random"
	"github.com/DoyleJ11/husband-game/internal/timer"
)

// Config carries the static game parameters the engine enforces.
type Config struct {
	MinParticipants        int
	EliminationSkips       int
	MaxRegistrationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinParticipants:        4,
		EliminationSkips:       1,
		MaxRegistrationTimeout: 3 * time.Minute,
	}
}

type Option func(*Engine)

func WithClock(clock timer.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithRandom(src random.Source) Option {
	return func(e *Engine) { e.rand = src }
}

// WithDispatch routes timer expiries back onto the goroutine that owns the
// engine. See timer.Registry.
func WithDispatch(dispatch func(func())) Option {
	return func(e *Engine) { e.dispatch = dispatch }
}

// Engine is the session engine: every room, its participants, its phase and
// its pending timeout. It is not safe for concurrent use; the hub package
// serialises access to it.
type Engine struct {
	cfg      Config
	rooms    map[ChatID]*Room
	events   *timer.Registry[ChatID]
	clock    timer.Clock
	rand     random.Source
	dispatch func(func())
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		rooms: make(map[ChatID]*Room),
		clock: timer.System,
		rand:  random.Default,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.events = timer.NewRegistry[ChatID](e.clock, e.dispatch)
	return e
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) CreateRoom(chatID ChatID) bool {
	if _, ok := e.rooms[chatID]; ok {
		return false
	}
	e.rooms[chatID] = newRoom(e.clock.Now(), e.cfg.EliminationSkips)
	e.events.Open(chatID)
	return true
}

// CloseRoom deletes the room when forced or when it sits in registration or
// finished. It reports whether the room was deleted.
func (e *Engine) CloseRoom(chatID ChatID, force bool) bool {
	room, ok := e.rooms[chatID]
	if !ok {
		return false
	}
	if !force && room.Status != StatusRegistration && room.Status != StatusFinished {
		return false
	}

	e.events.Unregister(chatID)
	e.events.Close(chatID)
	delete(e.rooms, chatID)
	return true
}

func (e *Engine) Status(chatID ChatID) (Status, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return "", false
	}
	return room.Status, true
}

// Room returns a copy of the room state.
func (e *Engine) Room(chatID ChatID) (Room, bool) {
	room, ok := e.rooms[chatID]
	if !ok {
		return Room{}, false
	}
	return room.clone(), true
}

// Rooms lists open rooms in ascending chat order.
func (e *Engine) Rooms() []ChatID {
	ids := make([]ChatID, 0, len(e.rooms))
	for id := range e.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) SetMessageForRegistration(chatID ChatID, creator User, messageID MessageID) bool {
	room, ok := e.rooms[chatID]
	if !ok {
		return false
	}
	room.Registration = &Registration{CreatorID: creator.ID}
	room.ReplyID = messageID
	return true
}

func (e *Engine) AddParticipantToRoom(chatID ChatID, user User) AddParticipantStatus {
	room, ok := e.rooms[chatID]
	if !ok {
		return AddRoomNotExist
	}
	if _, _, ok := e.roomOfUser(user.ID); ok {
		return AddParticipantInGame
	}
	if room.Status != StatusRegistration {
		return AddNotRegistration
	}

	room.Participants[user.ID] = newParticipant(user)
	return AddParticipantAdded
}

// RemoveParticipantFromRoom rolls back a join; absent rooms or users are ignored.
func (e *Engine) RemoveParticipantFromRoom(chatID ChatID, user User) {
	room, ok := e.rooms[chatID]
	if !ok {
		return
	}
	delete(room.Participants, user.ID)
}

// CompleteRegistration starts the husband search, or force-closes the room
// when too few participants joined.
func (e *Engine) CompleteRegistration(chatID ChatID) RegistrationStatus {
	room, ok := e.rooms[chatID]
	if !ok {
		return RegistrationRoomNotExist
	}
	if room.Status != StatusRegistration {
		return RegistrationNotRegistration
	}

	if len(room.Participants) >= e.cfg.MinParticipants {
		room.Status = StatusSearchHusband
		return RegistrationNextStatus
	}

	e.CloseRoom(chatID, true)
	return RegistrationNotEnoughParticipants
}

// AcceptHusbandRole records a candidate's answer to the husband offer.
// Anything but a participant of a room in search_husband, or an accept while
// a husband already exists, is cancelled.
func (e *Engine) AcceptHusbandRole(chatID ChatID, user User, accepted bool) HusbandRoleStatus {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusSearchHusband {
		return HusbandRoleCancel
	}
	current, ok := room.Participants[user.ID]
	if !ok {
		return HusbandRoleCancel
	}

	if !accepted {
		room.Participants[user.ID] = Participant{
			User: current.User,
			Role: Unknown{RequestHusband: RequestDenied},
		}
		return HusbandRoleDeny
	}

	for id, p := range room.Participants {
		if id != user.ID && p.IsHusband() {
			return HusbandRoleCancel
		}
	}
	room.Participants[user.ID] = Participant{User: current.User, Role: Husband{}}
	return HusbandRoleAccept
}

// AllCanceledHusbandRole reports that every candidate has declined.
func (e *Engine) AllCanceledHusbandRole(chatID ChatID) bool {
	room, ok := e.rooms[chatID]
	if !ok {
		return false
	}
	for _, p := range room.Participants {
		if p.Candidate() {
			return false
		}
	}
	return true
}

// CompleteHusbandSearch moves to the question phase once a husband exists.
func (e *Engine) CompleteHusbandSearch(chatID ChatID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusSearchHusband {
		return false
	}
	if _, ok := husbandOf(room); !ok {
		return false
	}
	room.Status = StatusQuestion
	return true
}

func (e *Engine) SetQuestionByHusband(userID UserID, messageID MessageID) bool {
	_, room, ok := e.roomOfUser(userID)
	if !ok || room.Status != StatusQuestion {
		return false
	}
	room.ReplyID = messageID
	return true
}

func (e *Engine) CompleteHusbandQuestion(chatID ChatID, finished bool) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusQuestion {
		return false
	}
	if finished {
		room.Status = StatusFinished
	} else {
		room.Status = StatusAnswers
	}
	clear(room.Answers)
	return true
}

// CompleteMemberAnswers eliminates every member that went AFK this round and
// opens the elimination phase threaded under messageID.
func (e *Engine) CompleteMemberAnswers(chatID ChatID, messageID MessageID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusAnswers {
		return false
	}

	for _, entry := range sortedEntries(room) {
		m, ok := entry.Participant.Member()
		if !ok || !entry.Participant.AFK || m.Eliminated {
			continue
		}
		m.Eliminated = true
		p := entry.Participant
		p.Role = m
		room.Participants[entry.ID] = p
	}

	clear(room.Answers)
	room.Status = StatusElimination
	room.ReplyID = messageID
	return true
}

// SetEliminationQueryMessage opens the elimination sub-state around the
// message the husband chooses from.
func (e *Engine) SetEliminationQueryMessage(chatID ChatID, messageID MessageID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusElimination {
		return false
	}
	room.Elimination = &Elimination{MessageID: messageID}
	return true
}

func (e *Engine) SkipElimination(chatID ChatID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusElimination || room.NumberOfSkips <= 0 {
		return false
	}
	room.NumberOfSkips--
	return true
}

// EliminateMember removes an in-game member from play.
func (e *Engine) EliminateMember(chatID ChatID, memberID UserID) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusElimination || room.Elimination == nil {
		return false
	}
	p, ok := room.Participants[memberID]
	if !ok || !p.InGame() {
		return false
	}

	m, _ := p.Member()
	m.Eliminated = true
	p.Role = m
	room.Participants[memberID] = p

	id := memberID
	room.Elimination.EliminatedMemberID = &id
	return true
}

func (e *Engine) CompleteElimination(chatID ChatID, finished bool) bool {
	room, ok := e.rooms[chatID]
	if !ok || room.Status != StatusElimination {
		return false
	}
	if finished {
		room.Status = StatusFinished
	} else {
		room.Status = StatusQuestion
	}
	room.Elimination = nil
	room.ReplyID = 0
	return true
}
