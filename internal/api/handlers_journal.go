package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/daybook-ai/daybook/internal/api/respond"
	"github.com/daybook-ai/daybook/internal/api/validate"
	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/services"
)

// maxMessageLen bounds a single journal entry.
const maxMessageLen = 4000

type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// OpenDay handles GET /api/users/{userId}/days/{date}. Opening today
// creates the day record on first access.
func (h *JournalHandler) OpenDay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := validate.Date(vars["date"]); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	view, err := h.svc.OpenDay(r.Context(), vars["userId"], vars["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, view)
}

// SendMessage handles POST /api/users/{userId}/days/{date}/messages.
func (h *JournalHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := validate.Date(vars["date"]); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var in struct {
		Text           string `json:"text"`
		IdempotencyKey string `json:"idempotencyKey,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.NonEmpty("text", in.Text); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MaxLen("text", in.Text, maxMessageLen); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	res, err := h.svc.SendMessage(r.Context(), model.AppendMessageRequest{
		UserID:         vars["userId"],
		Date:           vars["date"],
		Text:           in.Text,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, res)
}

// ListMessages handles GET /api/users/{userId}/days/{date}/messages.
func (h *JournalHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := validate.Date(vars["date"]); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	msgs, err := h.svc.History(r.Context(), vars["userId"], vars["date"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// ListDays handles GET /api/users/{userId}/days.
func (h *JournalHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.ListDays(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"count": len(days),
	})
}

// Calendar handles GET /api/users/{userId}/calendar?year=&month=.
func (h *JournalHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		respond.WriteBadRequest(w, "year must be an integer")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		respond.WriteBadRequest(w, "month must be an integer")
		return
	}
	days, svcErr := h.svc.Calendar(r.Context(), mux.Vars(r)["userId"], year, month)
	if svcErr != nil {
		respond.WriteServiceError(w, svcErr)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}
