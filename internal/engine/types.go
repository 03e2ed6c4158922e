package engine

type ChatID int64

type UserID int64

type MessageID int

// User is the identity a transport supplies for a player.
type User struct {
	ID        UserID `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Status string

const (
	StatusRegistration  Status = "registration"
	StatusSearchHusband Status = "search_husband"
	StatusQuestion      Status = "question"
	StatusAnswers       Status = "answers"
	StatusElimination   Status = "elimination"
	StatusFinished      Status = "finished"
)

type AddParticipantStatus string

const (
	AddRoomNotExist      AddParticipantStatus = "room_not_exist"
	AddParticipantInGame AddParticipantStatus = "participant_in_game"
	AddNotRegistration   AddParticipantStatus = "not_registration"
	AddParticipantAdded  AddParticipantStatus = "participant_added"
)

type RegistrationStatus string

const (
	RegistrationRoomNotExist          RegistrationStatus = "room_not_exist"
	RegistrationNotRegistration       RegistrationStatus = "not_registration"
	RegistrationNextStatus            RegistrationStatus = "next_status"
	RegistrationNotEnoughParticipants RegistrationStatus = "not_enough_participants"
)

type HusbandRoleStatus string

const (
	HusbandRoleCancel HusbandRoleStatus = "cancel"
	HusbandRoleAccept HusbandRoleStatus = "accept"
	HusbandRoleDeny   HusbandRoleStatus = "deny"
)
