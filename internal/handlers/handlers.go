// Package handlers exposes the operator control channel over HTTP:
// the begin-game and advance-round signals, plus a leaderboard view.
// Requests carry the operator token minted at startup.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"tcpquiz-backend/api"
	errs "tcpquiz-backend/internal/errors"
	"tcpquiz-backend/internal/quiz"
)

type statusResponse struct {
	Status string `json:"status"`
}

// StartHandler returns a handler triggering the begin-game signal.
// Starting requires at least one registered participant and a game
// that has not run yet.
func StartHandler(game *quiz.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkOperator(game, r); err != nil {
			errs.WriteHTTPError(r.Context(), w, err)
			return
		}

		if err := game.Start(); err != nil {
			errs.WriteHTTPError(r.Context(), w, errs.GameStateError(err))
			return
		}

		slog.InfoContext(r.Context(), "game start signaled",
			slog.String("game", game.ID()),
			slog.Int("players", game.Count()))

		writeJSON(r, w, statusResponse{Status: "started"})
	}
}

// NextHandler returns a handler triggering the advance-round signal,
// valid only while a round is waiting.
func NextHandler(game *quiz.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkOperator(game, r); err != nil {
			errs.WriteHTTPError(r.Context(), w, err)
			return
		}

		if err := game.Advance(); err != nil {
			errs.WriteHTTPError(r.Context(), w, errs.GameStateError(err))
			return
		}

		slog.InfoContext(r.Context(), "round advance signaled",
			slog.String("game", game.ID()))

		writeJSON(r, w, statusResponse{Status: "advanced"})
	}
}

// LeaderboardHandler returns a handler serving the full current
// ranking.
func LeaderboardHandler(game *quiz.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkOperator(game, r); err != nil {
			errs.WriteHTTPError(r.Context(), w, err)
			return
		}

		writeJSON(r, w, struct {
			State       string                 `json:"state"`
			Players     []string               `json:"players"`
			Leaderboard []api.LeaderboardEntry `json:"leaderboard"`
		}{
			State:       game.State().String(),
			Players:     game.Players(),
			Leaderboard: game.Leaderboard(0),
		})
	}
}

func checkOperator(game *quiz.Game, r *http.Request) error {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return errs.UnauthorizedError("missing bearer token")
	}
	if err := game.CheckOperatorToken(token); err != nil {
		return errs.InvalidTokenError(err)
	}
	return nil
}

func writeJSON(r *http.Request, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "response write", slog.Any("error", err))
	}
}
