package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/husband-game/internal/engine"
	"github.com/DoyleJ11/husband-game/internal/game"
	"github.com/DoyleJ11/husband-game/internal/storage"
	"github.com/DoyleJ11/husband-game/pkg/types"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Rooms is the read side of game.Game.
type Rooms interface {
	Snapshot(ctx context.Context, chat engine.ChatID) (types.RoomSnapshot, error)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatSnapshot serves GET /chats/{chatID}.
func ChatSnapshot(rooms Rooms, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := chatID(w, r)
		if !ok {
			return
		}

		snap, err := rooms.Snapshot(r.Context(), chat)
		switch {
		case errors.Is(err, game.ErrNoGame):
			http.Error(w, "no game in this chat", http.StatusNotFound)
			return
		case err != nil:
			log.Error("snapshot failed", zap.Int64("chat_id", int64(chat)), zap.Error(err))
			http.Error(w, "snapshot failed", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// ChatHistory serves GET /chats/{chatID}/history?limit=n, newest first.
func ChatHistory(history storage.History, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, ok := chatID(w, r)
		if !ok {
			return
		}

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		records, err := history.ListGames(r.Context(), int64(chat), limit)
		if err != nil {
			log.Error("list games failed", zap.Int64("chat_id", int64(chat)), zap.Error(err))
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}

		games := make([]types.GameSummary, len(records))
		for i, rec := range records {
			games[i] = types.GameSummary{
				ID:           rec.ID,
				ChatID:       rec.ChatID,
				StartedAt:    rec.StartedAt,
				FinishedAt:   rec.FinishedAt,
				Reason:       rec.Reason,
				HusbandID:    rec.HusbandID,
				WinnerID:     rec.WinnerID,
				Rounds:       rec.Rounds,
				Participants: len(rec.Participants),
			}
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func chatID(w http.ResponseWriter, r *http.Request) (engine.ChatID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "bad chat id", http.StatusBadRequest)
		return 0, false
	}
	return engine.ChatID(id), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
