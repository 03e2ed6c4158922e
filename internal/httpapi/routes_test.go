package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/game"
	"github.com/DoyleJ11/husband-game/internal/hub"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/storage"
	"github.com/DoyleJ11/husband-game/pkg/types"
)

func TestSetupRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, engine.DefaultConfig())
	t.Cleanup(h.Shutdown)
	board := lobby.NewLobby(ctx)
	text, err := i18n.New("uk")
	require.NoError(t, err)
	g := game.New(ctx, h, board, text, game.DefaultConfig())

	routes := SetupRoutes(Deps{Game: g, Board: board, History: storage.Discard, Log: zap.NewNop()})

	assert.Equal(t, http.StatusOK, get(t, routes, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, routes, "/chats/-5").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, routes, "/ws").Code, "no chat or user")

	require.NoError(t, g.StartGame(ctx, -5, engine.User{ID: 1, FirstName: "Olena"}))

	rec := get(t, routes, "/chats/-5")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap types.RoomSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "registration", snap.Status)
	assert.Equal(t, int64(1), snap.CreatorID)
	assert.True(t, snap.TimerArmed)

	rec = get(t, routes, "/chats/-5/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
