package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daybook-ai/daybook/internal/api/respond"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/services"
	"github.com/daybook-ai/daybook/internal/streak"
)

type StreakHandler struct {
	svc *services.StreakService
}

func NewStreakHandler(svc *services.StreakService) *StreakHandler { return &StreakHandler{svc: svc} }

type streakResponse struct {
	*model.StreakState
	MilestonePercent int `json:"milestonePercent"`
	NextMilestone    int `json:"nextMilestone"`
}

func withMilestone(st *model.StreakState) streakResponse {
	percent, milestone := streak.MilestoneProgress(st.CurrentStreak, 0)
	return streakResponse{StreakState: st, MilestonePercent: percent, NextMilestone: milestone}
}

// GetStreak handles GET /api/users/{userId}/streak.
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, withMilestone(st))
}

// RecomputeStreak handles POST /api/users/{userId}/streak/recompute.
func (h *StreakHandler) RecomputeStreak(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Recompute(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, withMilestone(st))
}
