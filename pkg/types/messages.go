package types

// Server -> Client frames.
//
// message:
//   message_id: number
//   chat_id: number
//   private: boolean // sent to this user only
//   reply_to: number // optional
//   text: string
//   buttons: Button[] // optional
//
// edit: same fields as message, replaces the message with message_id.
// delete: message_id.
// joined: chat_id, user_id. Sent once after the socket is accepted.
// error: error.

const (
	TypeMessage = "message"
	TypeEdit    = "edit"
	TypeDelete  = "delete"
	TypeJoined  = "joined"
	TypeError   = "error"
)

type ServerMessage struct {
	Type      string   `json:"type"`
	MessageID int      `json:"message_id,omitempty"`
	ChatID    int64    `json:"chat_id,omitempty"`
	UserID    int64    `json:"user_id,omitempty"`
	Private   bool     `json:"private,omitempty"`
	ReplyTo   int      `json:"reply_to,omitempty"`
	Text      string   `json:"text,omitempty"`
	Buttons   []Button `json:"buttons,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Button is an inline action. Pressing it sends a ClientMessage with the
// button's Action and Data.
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
	Data   string `json:"data,omitempty"`
}
