package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/storage"
	"github.com/DoyleJ11/husband-game/internal/ws"
)

// Game is everything the routes need from game.Game.
type Game interface {
	ws.Game
	Rooms
}

type Deps struct {
	Game    Game
	Board   *lobby.Lobby
	History storage.History
	Log     *zap.Logger
	// Origins allowed to open a websocket from a browser on another host.
	Origins []string
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Game, d.Board, d.Log.Named("ws"), d.Origins))
	r.Route("/chats/{chatID}", func(r chi.Router) {
		r.Get("/", ChatSnapshot(d.Game, d.Log))
		r.Get("/history", ChatHistory(d.History, d.Log))
	})
	return r
}
