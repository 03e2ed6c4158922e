// Package lobby is the message board every connected client listens on. It
// fans chat messages out to the clients of a chat and private messages to
// the clients of a user.
package lobby

import (
	"context"
	"errors"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/pkg/types"
)

var (
	ErrUserUnreachable = errors.New("user has no connected client")
	ErrMessageNotFound = errors.New("message not found")
	ErrLobbyClosed     = errors.New("lobby closed")
)

// Message is an outgoing post before the board assigns it an id.
type Message struct {
	Text    string
	ReplyTo engine.MessageID
	Buttons []types.Button
}

type Msg interface{ isLobbyMsg() }

type Join struct {
	ClientID string
	Chat     engine.ChatID
	User     engine.UserID
	Outbox   chan types.ServerMessage // where this client wants to receive frames
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Post publishes a message in Chat, or privately to User when Private is set.
type Post struct {
	Chat    engine.ChatID
	User    engine.UserID
	Private bool
	Message Message
	Reply   chan PostResult
}

func (Post) isLobbyMsg() {}

type PostResult struct {
	ID  engine.MessageID
	Err error
}

type Edit struct {
	ID      engine.MessageID
	Message Message
	Reply   chan error
}

func (Edit) isLobbyMsg() {}

type Delete struct {
	ID    engine.MessageID
	Reply chan error
}

func (Delete) isLobbyMsg() {}

// Forget drops the edit targets of every message posted for Chat.
type Forget struct{ Chat engine.ChatID }

func (Forget) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Version    int
	NumClients int
	Messages   int
}

type client struct {
	chat   engine.ChatID
	user   engine.UserID
	outbox chan types.ServerMessage
}

type target struct {
	chat    engine.ChatID
	user    engine.UserID
	private bool
}

type Lobby struct {
	inbox    chan Msg
	version  int
	clients  map[string]client
	messages map[engine.MessageID]target
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewLobby(parent context.Context) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:    make(chan Msg, 64),
		clients:  make(map[string]client),
		messages: make(map[engine.MessageID]target),
		ctx:      ctx,
		cancel:   cancel,
	}

	go l.loop()
	return l
}

// Inbox exposes the actor so the ws layer can join and leave clients.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = client{chat: msg.Chat, user: msg.User, outbox: msg.Outbox}
				l.deliver(msg.ClientID, types.ServerMessage{
					Type:   types.TypeJoined,
					ChatID: int64(msg.Chat),
					UserID: int64(msg.User),
				})

			case Leave:
				delete(l.clients, msg.ClientID)

			case Post:
				msg.Reply <- l.post(msg)

			case Edit:
				msg.Reply <- l.edit(msg)

			case Delete:
				t, ok := l.messages[msg.ID]
				if !ok {
					msg.Reply <- ErrMessageNotFound
					break
				}
				delete(l.messages, msg.ID)
				l.broadcast(t, types.ServerMessage{Type: types.TypeDelete, MessageID: int(msg.ID), ChatID: int64(t.chat)})
				msg.Reply <- nil

			case Forget:
				for id, t := range l.messages {
					if t.chat == msg.Chat {
						delete(l.messages, id)
					}
				}

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Messages:   len(l.messages),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) post(msg Post) PostResult {
	t := target{chat: msg.Chat, user: msg.User, private: msg.Private}
	if t.private && !l.reachable(t.user) {
		return PostResult{Err: ErrUserUnreachable}
	}

	l.version++
	id := engine.MessageID(l.version)
	l.messages[id] = t
	l.broadcast(t, frame(types.TypeMessage, id, t, msg.Message))
	return PostResult{ID: id}
}

func (l *Lobby) edit(msg Edit) error {
	t, ok := l.messages[msg.ID]
	if !ok {
		return ErrMessageNotFound
	}
	l.broadcast(t, frame(types.TypeEdit, msg.ID, t, msg.Message))
	return nil
}

func frame(kind string, id engine.MessageID, t target, m Message) types.ServerMessage {
	return types.ServerMessage{
		Type:      kind,
		MessageID: int(id),
		ChatID:    int64(t.chat),
		Private:   t.private,
		ReplyTo:   int(m.ReplyTo),
		Text:      m.Text,
		Buttons:   m.Buttons,
	}
}

func (l *Lobby) reachable(user engine.UserID) bool {
	for _, c := range l.clients {
		if c.user == user {
			return true
		}
	}
	return false
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.outbox) // Tell client no more frames
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(t target, m types.ServerMessage) {
	for id, c := range l.clients {
		if t.private && c.user != t.user {
			continue
		}
		if !t.private && c.chat != t.chat {
			continue
		}
		l.deliver(id, m)
	}
}

func (l *Lobby) deliver(id string, m types.ServerMessage) {
	c := l.clients[id]
	select {
	case c.outbox <- m:
	default:
		// Client is slow/full - drop them.
		close(c.outbox)
		delete(l.clients, id)
	}
}

// SendChat posts msg to everyone in chat.
func (l *Lobby) SendChat(ctx context.Context, chat engine.ChatID, msg Message) (engine.MessageID, error) {
	return l.send(ctx, Post{Chat: chat, Message: msg})
}

// SendUser posts msg privately to user on behalf of chat. It fails with
// ErrUserUnreachable when the user has no connected client.
func (l *Lobby) SendUser(ctx context.Context, chat engine.ChatID, user engine.UserID, msg Message) (engine.MessageID, error) {
	return l.send(ctx, Post{Chat: chat, User: user, Private: true, Message: msg})
}

func (l *Lobby) send(ctx context.Context, p Post) (engine.MessageID, error) {
	p.Reply = make(chan PostResult, 1)
	res, err := call(ctx, l, p, p.Reply)
	if err != nil {
		return 0, err
	}
	return res.ID, res.Err
}

func (l *Lobby) Edit(ctx context.Context, id engine.MessageID, msg Message) error {
	reply := make(chan error, 1)
	res, err := call(ctx, l, Edit{ID: id, Message: msg, Reply: reply}, reply)
	if err != nil {
		return err
	}
	return res
}

func (l *Lobby) Delete(ctx context.Context, id engine.MessageID) error {
	reply := make(chan error, 1)
	res, err := call(ctx, l, Delete{ID: id, Reply: reply}, reply)
	if err != nil {
		return err
	}
	return res
}

// Forget releases the bookkeeping of a finished chat. Later edits of its
// messages fail with ErrMessageNotFound.
func (l *Lobby) Forget(chat engine.ChatID) {
	select {
	case l.inbox <- Forget{Chat: chat}:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	return call(ctx, l, GetState{Reply: reply}, reply)
}

func call[T any](ctx context.Context, l *Lobby, m Msg, reply chan T) (T, error) {
	var zero T
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
		return zero, ErrLobbyClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return zero, ErrLobbyClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
