// Package game drives rooms through their phases: it reacts to commands and
// button presses, talks to players through the board and arms the timeouts
// that move a room on when nobody acts.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/hub"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/storage"
	"github.com/DoyleJ11/husband-game/internal/timer"
)

var (
	ErrNoGame          = errors.New("no game in this chat")
	ErrGameExists      = errors.New("game already created")
	ErrNotCreator      = errors.New("only the creator can do that")
	ErrAlreadyInGame   = errors.New("already playing")
	ErrNotRegistration = errors.New("registration is closed")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrTooLong         = errors.New("text too long")
	ErrInvalidChoice   = errors.New("invalid choice")
	ErrNoSkipsLeft     = errors.New("no skips left")
)

// Notifier is how the game reaches players. lobby.Lobby implements it.
type Notifier interface {
	SendChat(ctx context.Context, chat engine.ChatID, msg lobby.Message) (engine.MessageID, error)
	SendUser(ctx context.Context, chat engine.ChatID, user engine.UserID, msg lobby.Message) (engine.MessageID, error)
	Edit(ctx context.Context, id engine.MessageID, msg lobby.Message) error
	Delete(ctx context.Context, id engine.MessageID) error
	Forget(chat engine.ChatID)
}

type Config struct {
	MaxParticipants         int
	RegistrationTimeout     time.Duration
	RegistrationRemind      time.Duration
	ExtendRegistration      time.Duration
	AcceptHusbandRole       time.Duration
	QuestionTimeout         time.Duration
	AnswersTimeout          time.Duration
	EliminationTimeout      time.Duration
	AutoClearMessage        time.Duration
	MaxQuestionLength       int
	MaxAnswerLength         int
	MaxHusbandMessageLength int
}

func DefaultConfig() Config {
	return Config{
		MaxParticipants:         15,
		RegistrationTimeout:     time.Minute,
		RegistrationRemind:      10 * time.Second,
		ExtendRegistration:      40 * time.Second,
		AcceptHusbandRole:       40 * time.Second,
		QuestionTimeout:         15 * time.Minute,
		AnswersTimeout:          18 * time.Minute,
		EliminationTimeout:      12 * time.Minute,
		AutoClearMessage:        7 * time.Second,
		MaxQuestionLength:       320,
		MaxAnswerLength:         420,
		MaxHusbandMessageLength: 360,
	}
}

type Option func(*Game)

func WithLogger(log *zap.Logger) Option {
	return func(g *Game) { g.log = log }
}

func WithRecorder(rec storage.Recorder) Option {
	return func(g *Game) { g.history = rec }
}

// WithClock sets the clock used for message auto-clear and game durations.
// It should be the clock the engine runs on.
func WithClock(clock timer.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// Game is safe for concurrent use. Every exported method runs on the hub.
type Game struct {
	ctx     context.Context
	hub     *hub.Hub
	board   Notifier
	text    *i18n.Printer
	history storage.Recorder
	log     *zap.Logger
	clock   timer.Clock
	cfg     Config

	// owned by the hub goroutine
	sessions map[engine.ChatID]*session
}

// session is what the game remembers about a room beyond engine state.
type session struct {
	creator      engine.User
	registration engine.MessageID
	offered      engine.UserID
	offer        engine.MessageID
	husband      engine.UserID
	question     string
	rounds       int
	winner       engine.UserID
}

// New wires a game onto h. ctx bounds the sends made from timer callbacks.
func New(ctx context.Context, h *hub.Hub, board Notifier, text *i18n.Printer, cfg Config, opts ...Option) *Game {
	g := &Game{
		ctx:      ctx,
		hub:      h,
		board:    board,
		text:     text,
		history:  storage.Discard,
		log:      zap.NewNop(),
		clock:    timer.System,
		cfg:      cfg,
		sessions: make(map[engine.ChatID]*session),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Config() Config { return g.cfg }

// do runs fn on the hub and hands back its error.
func (g *Game) do(ctx context.Context, fn func(e *engine.Engine) error) error {
	var err error
	if herr := g.hub.Do(ctx, func(e *engine.Engine) { err = fn(e) }); herr != nil {
		return herr
	}
	return err
}

func (g *Game) session(chat engine.ChatID) *session {
	s, ok := g.sessions[chat]
	if !ok {
		s = &session{}
		g.sessions[chat] = s
	}
	return s
}

func (g *Game) sendChat(chat engine.ChatID, msg lobby.Message) engine.MessageID {
	id, err := g.board.SendChat(g.ctx, chat, msg)
	if err != nil {
		g.log.Warn("send chat message failed", zap.Int64("chat_id", int64(chat)), zap.Error(err))
	}
	return id
}

func (g *Game) sendUser(chat engine.ChatID, user engine.UserID, msg lobby.Message) (engine.MessageID, error) {
	id, err := g.board.SendUser(g.ctx, chat, user, msg)
	if err != nil {
		g.log.Warn("send private message failed",
			zap.Int64("chat_id", int64(chat)), zap.Int64("user_id", int64(user)), zap.Error(err))
	}
	return id, err
}

// editOrSend replaces a message, posting a new one when the old is gone.
func (g *Game) editOrSend(chat engine.ChatID, id engine.MessageID, msg lobby.Message) {
	if id != 0 {
		if err := g.board.Edit(g.ctx, id, msg); err == nil {
			return
		}
	}
	g.sendChat(chat, msg)
}

func (g *Game) editPrivate(id engine.MessageID, text string) {
	if id == 0 {
		return
	}
	if err := g.board.Edit(g.ctx, id, lobby.Message{Text: text}); err != nil {
		g.log.Debug("edit private message failed", zap.Int("message_id", int(id)), zap.Error(err))
	}
}

// autoClear deletes a transient chat message once it has been read.
func (g *Game) autoClear(id engine.MessageID) {
	if id == 0 {
		return
	}
	g.clock.AfterFunc(g.cfg.AutoClearMessage, func() {
		err := g.board.Delete(g.ctx, id)
		if err != nil && !errors.Is(err, lobby.ErrMessageNotFound) {
			g.log.Debug("auto clear failed", zap.Int("message_id", int(id)), zap.Error(err))
		}
	})
}

// tell sends the user a private notice about a rejected action.
func (g *Game) tell(chat engine.ChatID, user engine.UserID, key i18n.Key, args ...any) {
	_, _ = g.sendUser(chat, user, lobby.Message{Text: g.text.Sprintf(key, args...)})
}

func (g *Game) checkLength(chat engine.ChatID, user engine.UserID, text string, limit int) error {
	n := utf8.RuneCountInString(text)
	if n <= limit {
		return nil
	}
	g.tell(chat, user, i18n.TooLong, n, limit)
	return fmt.Errorf("%w: %d of %d characters", ErrTooLong, n, limit)
}

func mention(u engine.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("user %d", u.ID)
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
