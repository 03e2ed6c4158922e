package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/husband-game/internal/random"
	"github.com/DoyleJ11/husband-game/internal/timer"
	"github.com/DoyleJ11/husband-game/internal/timer/timertest"
)

const chat ChatID = 1

var epoch = time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *timertest.Clock) {
	t.Helper()
	clock := timertest.NewClock(epoch)
	e := New(DefaultConfig(), WithClock(clock), WithRandom(random.NewSeeded(1)))
	return e, clock
}

func user(id UserID) User {
	return User{ID: id, FirstName: "user"}
}

// registered creates chat with participants 1..n still in registration.
func registered(t *testing.T, e *Engine, n int) {
	t.Helper()
	require.True(t, e.CreateRoom(chat))
	for i := 1; i <= n; i++ {
		require.Equal(t, AddParticipantAdded, e.AddParticipantToRoom(chat, user(UserID(i))))
	}
}

// inQuestion drives chat to the question phase with user 1 as husband.
func inQuestion(t *testing.T, e *Engine, n int) {
	t.Helper()
	registered(t, e, n)
	require.Equal(t, RegistrationNextStatus, e.CompleteRegistration(chat))
	require.Equal(t, HusbandRoleAccept, e.AcceptHusbandRole(chat, user(1), true))
	require.True(t, e.AssignRandomNumberToMembers(chat))
	require.True(t, e.CompleteHusbandSearch(chat))
}

func inAnswers(t *testing.T, e *Engine, n int) {
	t.Helper()
	inQuestion(t, e, n)
	require.True(t, e.SetQuestionByHusband(1, 10))
	require.True(t, e.CompleteHusbandQuestion(chat, false))
}

func inElimination(t *testing.T, e *Engine, n int) {
	t.Helper()
	inAnswers(t, e, n)
	for i := 2; i <= n; i++ {
		require.True(t, e.SetAnswerByMember(UserID(i), "answer"))
	}
	require.True(t, e.CompleteMemberAnswers(chat, 20))
	require.True(t, e.SetEliminationQueryMessage(chat, 30))
}

func TestCreateRoom(t *testing.T) {
	e, _ := newTestEngine(t)

	require.True(t, e.CreateRoom(chat))
	assert.False(t, e.CreateRoom(chat))

	room, ok := e.Room(chat)
	require.True(t, ok)
	assert.Equal(t, StatusRegistration, room.Status)
	assert.Equal(t, epoch, room.StartDate)
	assert.Equal(t, 1, room.NumberOfSkips)
	assert.Nil(t, room.Registration)
	assert.Empty(t, room.Participants)

	info, ok := e.TimeoutInfo(chat)
	require.True(t, ok)
	assert.True(t, info.Idle)
}

func TestCloseRoom(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T, e *Engine)
		force   bool
		deleted bool
	}{
		{
			name:    "registration closes",
			setup:   func(t *testing.T, e *Engine) { registered(t, e, 2) },
			deleted: true,
		},
		{
			name: "finished closes",
			setup: func(t *testing.T, e *Engine) {
				inQuestion(t, e, 4)
				require.True(t, e.CompleteHusbandQuestion(chat, true))
			},
			deleted: true,
		},
		{
			name:    "running game stays",
			setup:   func(t *testing.T, e *Engine) { inAnswers(t, e, 4) },
			deleted: false,
		},
		{
			name:    "running game forced",
			setup:   func(t *testing.T, e *Engine) { inAnswers(t, e, 4) },
			force:   true,
			deleted: true,
		},
		{
			name:    "missing room",
			setup:   func(t *testing.T, e *Engine) {},
			force:   true,
			deleted: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			tc.setup(t, e)

			assert.Equal(t, tc.deleted, e.CloseRoom(chat, tc.force))
			_, exists := e.Room(chat)
			_, slot := e.TimeoutInfo(chat)
			if tc.deleted {
				assert.False(t, exists)
				assert.False(t, slot)
			} else if exists {
				assert.True(t, slot)
			}
		})
	}
}

func TestCloseRoom_DisarmsTimer(t *testing.T) {
	e, clock := newTestEngine(t)
	registered(t, e, 1)
	e.RegisterTimeoutEvent(chat, func() { t.Fatalf("timer of closed room fired") }, time.Minute, nil)

	require.True(t, e.CloseRoom(chat, false))
	clock.Advance(time.Hour)
}

func TestAddParticipant_SameUserTwice(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.CreateRoom(chat))

	assert.Equal(t, AddParticipantAdded, e.AddParticipantToRoom(chat, user(7)))
	assert.Equal(t, AddParticipantInGame, e.AddParticipantToRoom(chat, user(7)))
}

func TestAddParticipant_ResultOrder(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Equal(t, AddRoomNotExist, e.AddParticipantToRoom(chat, user(1)))

	inQuestion(t, e, 4)
	require.True(t, e.CreateRoom(2))

	// already playing elsewhere wins over the target's phase
	assert.Equal(t, AddParticipantInGame, e.AddParticipantToRoom(2, user(1)))
	assert.Equal(t, AddNotRegistration, e.AddParticipantToRoom(chat, user(99)))
	assert.Equal(t, AddParticipantAdded, e.AddParticipantToRoom(2, user(99)))
}

func TestRemoveParticipant(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 2)

	e.RemoveParticipantFromRoom(chat, user(2))
	e.RemoveParticipantFromRoom(chat, user(42))
	e.RemoveParticipantFromRoom(99, user(1))

	assert.Len(t, e.Participants(chat), 1)
	_, _, ok := e.RoomOfUser(2)
	assert.False(t, ok)
}

func TestRoomOfUser(t *testing.T) {
	e, _ := newTestEngine(t)
	_, _, ok := e.RoomOfUser(1)
	assert.False(t, ok)

	require.True(t, e.CreateRoom(5))
	require.True(t, e.CreateRoom(3))
	e.AddParticipantToRoom(5, user(1))
	e.AddParticipantToRoom(3, user(2))

	chatID, room, ok := e.RoomOfUser(1)
	require.True(t, ok)
	assert.Equal(t, ChatID(5), chatID)
	assert.Contains(t, room.Participants, UserID(1))

	// returned rooms are copies
	delete(room.Participants, 1)
	_, _, ok = e.RoomOfUser(1)
	assert.True(t, ok)
}

func TestSetMessageForRegistration(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.False(t, e.SetMessageForRegistration(chat, user(1), 5))

	require.True(t, e.CreateRoom(chat))
	require.True(t, e.SetMessageForRegistration(chat, user(1), 5))

	room, _ := e.Room(chat)
	require.NotNil(t, room.Registration)
	assert.Equal(t, UserID(1), room.Registration.CreatorID)
	assert.Equal(t, MessageID(5), room.ReplyID)
}

func TestCompleteRegistration_Enough(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 4)

	assert.Equal(t, RegistrationNextStatus, e.CompleteRegistration(chat))
	status, _ := e.Status(chat)
	assert.Equal(t, StatusSearchHusband, status)

	assert.Equal(t, RegistrationNotRegistration, e.CompleteRegistration(chat))
}

func TestCompleteRegistration_NotEnough(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 3)

	assert.Equal(t, RegistrationNotEnoughParticipants, e.CompleteRegistration(chat))
	_, ok := e.Room(chat)
	assert.False(t, ok)

	assert.Equal(t, RegistrationRoomNotExist, e.CompleteRegistration(chat))
}

func TestAcceptHusbandRole(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 4)

	assert.Equal(t, HusbandRoleCancel, e.AcceptHusbandRole(chat, user(1), true), "still registering")

	e.CompleteRegistration(chat)
	assert.Equal(t, HusbandRoleDeny, e.AcceptHusbandRole(chat, user(2), false))
	p, _ := e.Participant(chat, 2)
	assert.Equal(t, Unknown{RequestHusband: RequestDenied}, p.Role)

	assert.Equal(t, HusbandRoleCancel, e.AcceptHusbandRole(chat, user(42), true), "stranger")
	assert.Equal(t, HusbandRoleAccept, e.AcceptHusbandRole(chat, user(3), true))
	assert.Equal(t, HusbandRoleCancel, e.AcceptHusbandRole(chat, user(4), true), "second husband")

	husband, ok := e.HusbandInRoom(chat)
	require.True(t, ok)
	assert.Equal(t, UserID(3), husband.ID)
}

func TestAllCanceledHusbandRole(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 4)
	e.CompleteRegistration(chat)

	for i := 1; i <= 3; i++ {
		e.AcceptHusbandRole(chat, user(UserID(i)), false)
		assert.False(t, e.AllCanceledHusbandRole(chat))
	}
	e.AcceptHusbandRole(chat, user(4), false)
	assert.True(t, e.AllCanceledHusbandRole(chat))
}

func TestRandomRequestHusbandRole(t *testing.T) {
	e, _ := newTestEngine(t)
	_, ok := e.RandomRequestHusbandRole(chat)
	assert.False(t, ok)

	registered(t, e, 4)
	e.CompleteRegistration(chat)
	e.AcceptHusbandRole(chat, user(1), false)
	e.AcceptHusbandRole(chat, user(2), false)
	e.AcceptHusbandRole(chat, user(4), false)

	for range 20 {
		entry, ok := e.RandomRequestHusbandRole(chat)
		require.True(t, ok)
		assert.Equal(t, UserID(3), entry.ID, "only candidate left")
	}

	e.AcceptHusbandRole(chat, user(3), false)
	seen := map[UserID]bool{}
	for range 100 {
		entry, ok := e.RandomRequestHusbandRole(chat)
		require.True(t, ok)
		seen[entry.ID] = true
	}
	assert.Len(t, seen, 4, "falls back to every participant")
}

func TestAssignRandomNumberToMembers(t *testing.T) {
	for n := 4; n <= 15; n++ {
		e, _ := newTestEngine(t)
		registered(t, e, n)
		e.CompleteRegistration(chat)
		require.Equal(t, HusbandRoleAccept, e.AcceptHusbandRole(chat, user(2), true))
		require.True(t, e.AssignRandomNumberToMembers(chat))

		used := map[int]bool{}
		husbands := 0
		for _, entry := range e.Participants(chat) {
			if entry.Participant.IsHusband() {
				husbands++
				assert.Equal(t, UserID(2), entry.ID)
				continue
			}
			m, ok := entry.Participant.Member()
			require.True(t, ok, "participant %d has no member role", entry.ID)
			require.False(t, m.Eliminated)
			require.GreaterOrEqual(t, m.Number, 1)
			require.LessOrEqual(t, m.Number, n-1)
			require.False(t, used[m.Number], "number %d reused", m.Number)
			used[m.Number] = true
		}
		assert.Equal(t, 1, husbands)
		assert.Len(t, used, n-1)
	}
}

func TestAssignRandomNumberToMembers_NeedsHusband(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 4)
	e.CompleteRegistration(chat)

	before, _ := e.Room(chat)
	assert.False(t, e.AssignRandomNumberToMembers(chat))
	after, _ := e.Room(chat)
	assert.Equal(t, before, after)
}

func TestCompleteHusbandSearch_NeedsHusband(t *testing.T) {
	e, _ := newTestEngine(t)
	registered(t, e, 4)
	e.CompleteRegistration(chat)

	assert.False(t, e.CompleteHusbandSearch(chat))
	e.AcceptHusbandRole(chat, user(1), true)
	assert.True(t, e.CompleteHusbandSearch(chat))

	status, _ := e.Status(chat)
	assert.Equal(t, StatusQuestion, status)
}

func TestQuestionPhase(t *testing.T) {
	e, _ := newTestEngine(t)
	inQuestion(t, e, 4)

	assert.False(t, e.SetQuestionByHusband(42, 7), "user without room")
	assert.True(t, e.SetQuestionByHusband(1, 7))
	room, _ := e.Room(chat)
	assert.Equal(t, MessageID(7), room.ReplyID)

	require.True(t, e.CompleteHusbandQuestion(chat, false))
	status, _ := e.Status(chat)
	assert.Equal(t, StatusAnswers, status)
	assert.False(t, e.SetQuestionByHusband(1, 8))
}

func TestSetAnswerByMember(t *testing.T) {
	e, _ := newTestEngine(t)
	inAnswers(t, e, 4)

	assert.False(t, e.SetAnswerByMember(1, "husband cannot answer"))
	assert.False(t, e.SetAnswerByMember(42, "stranger"))
	assert.True(t, e.SetAnswerByMember(2, "first"))
	assert.True(t, e.SetAnswerByMember(2, "second"))

	room, _ := e.Room(chat)
	assert.Equal(t, map[UserID]string{2: "second"}, room.Answers)
}

func TestAFKAndEveryoneAnswered(t *testing.T) {
	e, _ := newTestEngine(t)
	inAnswers(t, e, 4)

	require.True(t, e.SetAnswerByMember(2, "x"))
	require.True(t, e.SetAnswerByMember(3, ""))
	assert.False(t, e.EveryoneAnswered(chat), "member 4 has no entry yet")

	e.SetAFKMembersInAnswers(chat)
	p2, _ := e.Participant(chat, 2)
	p3, _ := e.Participant(chat, 3)
	p4, _ := e.Participant(chat, 4)
	assert.False(t, p2.AFK)
	assert.True(t, p3.AFK)
	assert.True(t, p4.AFK)
	assert.False(t, e.EveryoneAnswered(chat))

	require.True(t, e.SetAnswerByMember(4, "late"))
	assert.True(t, e.EveryoneAnswered(chat))
}

func TestCompleteMemberAnswers_EliminatesAFK(t *testing.T) {
	e, _ := newTestEngine(t)
	inAnswers(t, e, 4)
	e.SetAnswerByMember(2, "x")
	e.SetAFKMembersInAnswers(chat)

	require.True(t, e.CompleteMemberAnswers(chat, 99))

	room, _ := e.Room(chat)
	assert.Equal(t, StatusElimination, room.Status)
	assert.Equal(t, MessageID(99), room.ReplyID)
	assert.Empty(t, room.Answers)

	members := e.MembersInGame(chat)
	require.Len(t, members, 1)
	assert.Equal(t, UserID(2), members[0].ID)
}

func TestMembersInGame_OrderedByNumber(t *testing.T) {
	e, _ := newTestEngine(t)
	inQuestion(t, e, 6)

	members := e.MembersInGame(chat)
	require.Len(t, members, 5)
	for i, entry := range members {
		m, _ := entry.Participant.Member()
		assert.Equal(t, i+1, m.Number)
	}
}

func TestHusbandInGame(t *testing.T) {
	e, _ := newTestEngine(t)
	_, ok := e.HusbandInGame(chat)
	assert.False(t, ok)

	inQuestion(t, e, 4)
	husband, ok := e.HusbandInGame(chat)
	require.True(t, ok)
	assert.Equal(t, UserID(1), husband.ID)
	assert.True(t, e.IsHusband(1))
	assert.False(t, e.IsMember(1))
	assert.True(t, e.IsMember(2))

	e.rooms[chat].Participants[1] = Participant{User: user(1), AFK: true, Role: Husband{}}
	_, ok = e.HusbandInGame(chat)
	assert.False(t, ok)
}

func TestElimination_SkipBudget(t *testing.T) {
	e, _ := newTestEngine(t)
	inElimination(t, e, 4)

	_, ok := e.MemberForElimination(chat)
	assert.False(t, ok, "skip budget not exhausted")

	require.True(t, e.SkipElimination(chat))
	room, _ := e.Room(chat)
	assert.Equal(t, 0, room.NumberOfSkips)
	assert.False(t, e.SkipElimination(chat))

	id, ok := e.MemberForElimination(chat)
	require.True(t, ok)
	inGame := map[UserID]bool{}
	for _, entry := range e.MembersInGame(chat) {
		inGame[entry.ID] = true
	}
	assert.True(t, inGame[id])
}

func TestEliminateMember(t *testing.T) {
	e, _ := newTestEngine(t)
	inElimination(t, e, 4)

	assert.False(t, e.EliminateMember(chat, 1), "husband")
	assert.False(t, e.EliminateMember(chat, 42), "stranger")
	require.True(t, e.EliminateMember(chat, 3))
	assert.False(t, e.EliminateMember(chat, 3), "already out")

	room, _ := e.Room(chat)
	require.NotNil(t, room.Elimination)
	require.NotNil(t, room.Elimination.EliminatedMemberID)
	assert.Equal(t, UserID(3), *room.Elimination.EliminatedMemberID)
	assert.Len(t, e.MembersInGame(chat), 2)

	require.True(t, e.CompleteElimination(chat, false))
	room, _ = e.Room(chat)
	assert.Equal(t, StatusQuestion, room.Status)
	assert.Nil(t, room.Elimination)
	assert.Zero(t, room.ReplyID)
}

func TestEliminateMember_NeedsQueryMessage(t *testing.T) {
	e, _ := newTestEngine(t)
	inAnswers(t, e, 4)
	e.CompleteMemberAnswers(chat, 1)

	assert.False(t, e.EliminateMember(chat, 2))
}

func TestCompleteElimination_Finished(t *testing.T) {
	e, _ := newTestEngine(t)
	inElimination(t, e, 4)

	require.True(t, e.CompleteElimination(chat, true))
	status, _ := e.Status(chat)
	assert.Equal(t, StatusFinished, status)
	assert.True(t, e.CloseRoom(chat, false))
}

// Every phase-gated mutation leaves the room untouched outside its phase.
func TestPhaseGuards_NoStateChange(t *testing.T) {
	mutations := []struct {
		name  string
		apply func(e *Engine) bool
	}{
		{"CompleteRegistration", func(e *Engine) bool { return e.CompleteRegistration(chat) == RegistrationNextStatus }},
		{"AcceptHusbandRole", func(e *Engine) bool { return e.AcceptHusbandRole(chat, user(2), true) == HusbandRoleAccept }},
		{"AssignRandomNumberToMembers", func(e *Engine) bool { return e.AssignRandomNumberToMembers(chat) }},
		{"CompleteHusbandSearch", func(e *Engine) bool { return e.CompleteHusbandSearch(chat) }},
		{"SetQuestionByHusband", func(e *Engine) bool { return e.SetQuestionByHusband(1, 777) }},
		{"CompleteHusbandQuestion", func(e *Engine) bool { return e.CompleteHusbandQuestion(chat, false) }},
		{"SetAnswerByMember", func(e *Engine) bool { return e.SetAnswerByMember(2, "x") }},
		{"CompleteMemberAnswers", func(e *Engine) bool { return e.CompleteMemberAnswers(chat, 777) }},
		{"SetEliminationQueryMessage", func(e *Engine) bool { return e.SetEliminationQueryMessage(chat, 777) }},
		{"SkipElimination", func(e *Engine) bool { return e.SkipElimination(chat) }},
		{"EliminateMember", func(e *Engine) bool { return e.EliminateMember(chat, 2) }},
		{"CompleteElimination", func(e *Engine) bool { return e.CompleteElimination(chat, false) }},
	}

	phases := []struct {
		status Status
		setup  func(t *testing.T, e *Engine)
	}{
		{StatusRegistration, func(t *testing.T, e *Engine) { registered(t, e, 4) }},
		{StatusSearchHusband, func(t *testing.T, e *Engine) {
			registered(t, e, 4)
			e.CompleteRegistration(chat)
		}},
		{StatusQuestion, func(t *testing.T, e *Engine) { inQuestion(t, e, 4) }},
		{StatusAnswers, func(t *testing.T, e *Engine) { inAnswers(t, e, 4) }},
		{StatusElimination, func(t *testing.T, e *Engine) { inElimination(t, e, 4) }},
	}

	allowed := map[string]Status{
		"CompleteRegistration":        StatusRegistration,
		"AcceptHusbandRole":           StatusSearchHusband,
		"AssignRandomNumberToMembers": StatusSearchHusband,
		"CompleteHusbandSearch":       StatusSearchHusband,
		"SetQuestionByHusband":        StatusQuestion,
		"CompleteHusbandQuestion":     StatusQuestion,
		"SetAnswerByMember":           StatusAnswers,
		"CompleteMemberAnswers":       StatusAnswers,
		"SetEliminationQueryMessage":  StatusElimination,
		"SkipElimination":             StatusElimination,
		"EliminateMember":             StatusElimination,
		"CompleteElimination":         StatusElimination,
	}

	for _, phase := range phases {
		for _, m := range mutations {
			if allowed[m.name] == phase.status {
				continue
			}
			t.Run(string(phase.status)+"/"+m.name, func(t *testing.T) {
				e, _ := newTestEngine(t)
				phase.setup(t, e)
				before, _ := e.Room(chat)

				assert.False(t, m.apply(e))

				after, _ := e.Room(chat)
				assert.Equal(t, before, after)
			})
		}
	}
}

func TestSingleHusbandThroughRounds(t *testing.T) {
	e, _ := newTestEngine(t)
	inElimination(t, e, 6)

	countHusbands := func() int {
		n := 0
		for _, entry := range e.Participants(chat) {
			if entry.Participant.IsHusband() {
				n++
			}
		}
		return n
	}

	for round := 0; round < 3; round++ {
		require.Equal(t, 1, countHusbands())
		members := e.MembersInGame(chat)
		require.True(t, e.EliminateMember(chat, members[0].ID))
		require.True(t, e.CompleteElimination(chat, false))
		require.True(t, e.SetQuestionByHusband(1, 1))
		require.True(t, e.CompleteHusbandQuestion(chat, false))
		for _, m := range e.MembersInGame(chat) {
			require.True(t, e.SetAnswerByMember(m.ID, "a"))
		}
		require.True(t, e.EveryoneAnswered(chat))
		require.True(t, e.CompleteMemberAnswers(chat, 2))
		require.True(t, e.SetEliminationQueryMessage(chat, 3))
	}
	assert.Equal(t, 1, countHusbands())
	assert.Len(t, e.MembersInGame(chat), 2)
}

func TestTimeouts(t *testing.T) {
	e, clock := newTestEngine(t)
	registered(t, e, 2)

	var fired []string
	require.True(t, e.RegisterTimeoutEvent(chat, func() { fired = append(fired, "done") }, time.Minute,
		&timer.Reminder{Callback: func() { fired = append(fired, "remind") }, Lead: 10 * time.Second}))
	assert.False(t, e.RegisterTimeoutEvent(chat, func() { fired = append(fired, "dup") }, time.Second, nil))
	assert.Equal(t, 1, e.ArmedTimers())

	clock.Advance(20 * time.Second)
	assert.Equal(t, 80*time.Second, e.ExtendRegistrationTimeout(chat, 40*time.Second))

	left, ok := e.TimeoutRemaining(chat)
	require.True(t, ok)
	assert.Equal(t, 80*time.Second, left)

	clock.Advance(time.Hour)
	assert.Equal(t, []string{"remind", "done"}, fired)
	assert.Zero(t, e.ArmedTimers())
	assert.Zero(t, e.ExtendRegistrationTimeout(chat, 40*time.Second), "idle slot")
}

func TestExtendRegistrationTimeout_CappedAndPhaseBound(t *testing.T) {
	e, clock := newTestEngine(t)
	registered(t, e, 4)
	e.RegisterTimeoutEvent(chat, func() {}, time.Minute, nil)

	for range 10 {
		clock.Advance(time.Second)
		e.ExtendRegistrationTimeout(chat, 40*time.Second)
		info, _ := e.TimeoutInfo(chat)
		require.LessOrEqual(t, info.Budget, e.Config().MaxRegistrationTimeout)
	}

	e.UnregisterTimeoutEvent(chat)
	e.CompleteRegistration(chat)
	e.RegisterTimeoutEvent(chat, func() {}, time.Minute, nil)
	assert.Zero(t, e.ExtendRegistrationTimeout(chat, time.Minute), "husband search timer is not extendable")
}
