package engine

type RequestHusband string

const (
	RequestAwaiting RequestHusband = "awaiting"
	RequestDenied   RequestHusband = "denied"
)

// Role is closed over Unknown, Husband and Member.
type Role interface{ isRole() }

// Unknown is a participant that has not been given a role yet.
type Unknown struct {
	RequestHusband RequestHusband
}

func (Unknown) isRole() {}

type Husband struct{}

func (Husband) isRole() {}

type Member struct {
	Number     int
	Eliminated bool
}

func (Member) isRole() {}

type Participant struct {
	User User
	AFK  bool
	Role Role
}

// Entry pairs a participant with its id, the way queries hand them out.
type Entry struct {
	ID          UserID
	Participant Participant
}

func newParticipant(user User) Participant {
	return Participant{
		User: user,
		Role: Unknown{RequestHusband: RequestAwaiting},
	}
}

func (p Participant) IsHusband() bool {
	_, ok := p.Role.(Husband)
	return ok
}

// Member returns the member record when the participant holds that role.
func (p Participant) Member() (Member, bool) {
	m, ok := p.Role.(Member)
	return m, ok
}

// InGame reports a member that has not been eliminated.
func (p Participant) InGame() bool {
	m, ok := p.Role.(Member)
	return ok && !m.Eliminated
}

// Candidate reports an unassigned participant that has not declined the
// husband role.
func (p Participant) Candidate() bool {
	switch role := p.Role.(type) {
	case Unknown:
		return role.RequestHusband != RequestDenied
	case Husband, Member:
		return false
	default:
		return false
	}
}

// RoleName is the wire name of the participant's role.
func (p Participant) RoleName() string {
	switch p.Role.(type) {
	case Unknown:
		return "unknown"
	case Husband:
		return "husband"
	case Member:
		return "member"
	default:
		return ""
	}
}
