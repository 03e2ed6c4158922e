// Package ws is the websocket transport. One connection is one user sitting
// in one chat: it receives that chat's messages plus the user's private ones
// and sends commands and button presses back.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/types"
	pkgtypes "github.com/DoyleJ11/husband-game/pkg/types"
)

const writeTimeout = 3 * time.Second

var errBadJSON = errors.New("bad json")

// Game is the part of game.Game a connection drives.
type Game interface {
	StartGame(ctx context.Context, chat engine.ChatID, user engine.User) error
	Participate(ctx context.Context, chat engine.ChatID, user engine.User) error
	StartGameNow(ctx context.Context, chat engine.ChatID, user engine.User) error
	StopGame(ctx context.Context, chat engine.ChatID, user engine.User) error
	ExtendGame(ctx context.Context, chat engine.ChatID) (time.Duration, error)
	AnswerHusbandOffer(ctx context.Context, user engine.User, accepted bool) error
	SubmitText(ctx context.Context, user engine.User, text string) error
	ChooseElimination(ctx context.Context, user engine.User, member engine.UserID) error
	SkipElimination(ctx context.Context, user engine.User) error
}

// Handler upgrades GET /ws?chat=<id>&user=<id>&name=<first name>&username=<handle>.
func Handler(g Game, board *lobby.Lobby, log *zap.Logger, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		chat, err := strconv.ParseInt(q.Get("chat"), 10, 64)
		if err != nil || chat == 0 {
			http.Error(w, "missing or bad chat", http.StatusBadRequest)
			return
		}
		userID, err := strconv.ParseInt(q.Get("user"), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "missing or bad user", http.StatusBadRequest)
			return
		}
		user := engine.User{ID: engine.UserID(userID), FirstName: q.Get("name"), Username: q.Get("username")}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			id:   uuid.NewString(),
			chat: engine.ChatID(chat),
			user: user,
			conn: conn,
			game: g,
			log:  log.With(zap.Int64("chat_id", chat), zap.Int64("user_id", userID)),
		}
		c.serve(r.Context(), board)
	}
}

type client struct {
	id   string
	chat engine.ChatID
	user engine.User
	conn *websocket.Conn
	game Game
	log  *zap.Logger
}

func (c *client) serve(ctx context.Context, board *lobby.Lobby) {
	out := make(chan pkgtypes.ServerMessage, 32)
	select {
	case board.Inbox() <- lobby.Join{ClientID: c.id, Chat: c.chat, User: c.user.ID, Outbox: out}:
	case <-ctx.Done():
		return
	}
	defer func() {
		select {
		case board.Inbox() <- lobby.Leave{ClientID: c.id}:
		case <-time.After(writeTimeout):
		}
	}()
	c.log.Info("client connected", zap.String("client_id", c.id))

	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go c.writeLoop(writeCtx, out)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.log.Info("client disconnected")
			default:
				c.log.Debug("read failed", zap.Error(err))
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.reject(ctx, "", errBadJSON)
			continue
		}
		if err := c.handle(ctx, cm); err != nil {
			c.reject(ctx, cm.Type, err)
		}
	}
}

func (c *client) reject(ctx context.Context, kind string, err error) {
	c.log.Debug("client frame rejected", zap.String("type", kind), zap.Error(err))
	c.write(ctx, pkgtypes.ServerMessage{
		Type:   pkgtypes.TypeError,
		ChatID: int64(c.chat),
		UserID: int64(c.user.ID),
		Error:  err.Error(),
	})
}

func (c *client) writeLoop(ctx context.Context, out <-chan pkgtypes.ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-out:
			if !ok {
				// the board dropped us
				c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
				return
			}
			c.write(ctx, msg)
		}
	}
}

func (c *client) write(ctx context.Context, msg pkgtypes.ServerMessage) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		c.log.Debug("write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// handle routes one frame to the game.
func (c *client) handle(ctx context.Context, cm types.ClientMessage) error {
	if err := cm.Validate(); err != nil {
		return err
	}

	switch cm.Type {
	case types.CmdStartGame:
		return c.game.StartGame(ctx, c.chat, c.user)
	case types.CmdStartGameNow:
		return c.game.StartGameNow(ctx, c.chat, c.user)
	case types.CmdStopGame:
		return c.game.StopGame(ctx, c.chat, c.user)
	case types.CmdExtendGame:
		_, err := c.game.ExtendGame(ctx, c.chat)
		return err
	case types.CmdText:
		return c.game.SubmitText(ctx, c.user, cm.Text)
	case types.ActionParticipate:
		return c.game.Participate(ctx, c.chat, c.user)
	case types.ActionAcceptHusband:
		return c.game.AnswerHusbandOffer(ctx, c.user, true)
	case types.ActionDenyHusband:
		return c.game.AnswerHusbandOffer(ctx, c.user, false)
	case types.ActionEliminate:
		id, _ := cm.MemberID()
		return c.game.ChooseElimination(ctx, c.user, engine.UserID(id))
	case types.ActionSkipElimination:
		return c.game.SkipElimination(ctx, c.user)
	}
	return types.ErrUnknownType
}
