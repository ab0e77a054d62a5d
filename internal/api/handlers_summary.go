package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daybook-ai/daybook/internal/api/respond"
	"github.com/daybook-ai/daybook/internal/api/validate"
	"github.com/daybook-ai/daybook/internal/services"
)

type SummaryHandler struct {
	svc *services.SummaryService
}

func NewSummaryHandler(svc *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

// SummarizeDay handles POST /api/users/{userId}/days/{date}/summary.
func (h *SummaryHandler) SummarizeDay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := validate.Date(vars["date"]); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	sum, err := h.svc.SummarizeDay(r.Context(), vars["userId"], vars["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}

// SummarizeRange handles POST /api/users/{userId}/summaries.
func (h *SummaryHandler) SummarizeRange(w http.ResponseWriter, r *http.Request) {
	var in struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.Date(in.From); err != nil {
		respond.WriteBadRequest(w, "from: "+err.Error())
		return
	}
	if err := validate.Date(in.To); err != nil {
		respond.WriteBadRequest(w, "to: "+err.Error())
		return
	}
	sum, err := h.svc.SummarizeRange(r.Context(), mux.Vars(r)["userId"], in.From, in.To)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, sum)
}
