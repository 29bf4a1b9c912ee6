// Package leaderboard exposes the persistent high score board over
// HTTP. Hosts running a local game post their winner here; lobby
// screens poll the top list.
package leaderboard

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/roopamkhare/fashion-vashion/internal/database/highscore"
	"github.com/roopamkhare/fashion-vashion/internal/logging"
)

const maxNameLen = 24

type Handler struct {
	scores *highscore.DB
}

func New(scores *highscore.DB) *Handler {
	return &Handler{scores: scores}
}

func (h *Handler) Routes(r *httprouter.Router) {
	r.GET("/scores", h.list)
	r.POST("/scores", h.submit)
}

func (h *Handler) list(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	top, err := h.scores.Top()
	if err != nil {
		logging.FromContext(req.Context()).Named("leaderboard").Errorf("fetch top: %v", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"scores": top})
}

type submission struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (h *Handler) submit(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	logger := logging.FromContext(req.Context()).Named("leaderboard")

	var sub submission
	if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
		http.Error(w, "malformed submission", http.StatusBadRequest)
		return
	}

	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" || len(sub.Name) > maxNameLen || sub.Score < 0 {
		http.Error(w, "invalid submission", http.StatusBadRequest)
		return
	}

	high, err := h.scores.IsHighScore(sub.Score)
	if err != nil {
		logger.Errorf("check score: %v", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	if !high {
		writeJSON(w, http.StatusOK, map[string]any{"accepted": false})
		return
	}

	if err := h.scores.Add(sub.Name, sub.Score); err != nil {
		logger.Errorf("record score: %v", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	logger.Infof("new high score: %s %d", sub.Name, sub.Score)
	writeJSON(w, http.StatusCreated, map[string]any{"accepted": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
