package api

import (
	"github.com/gorilla/mux"

	"github.com/daybook-ai/daybook/internal/api/recovery"
	"github.com/daybook-ai/daybook/internal/services"
)

// Deps carries the services the router exposes.
type Deps struct {
	Users     *services.UserService
	Journal   *services.JournalService
	Streaks   *services.StreakService
	Summaries *services.SummaryService
	IsHealthy func() bool
}

// NewRouter wires all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	userHandler := NewUserHandler(d.Users)
	journalHandler := NewJournalHandler(d.Journal)
	streakHandler := NewStreakHandler(d.Streaks)
	summaryHandler := NewSummaryHandler(d.Summaries)
	healthHandler := NewHealthHandler(d.IsHealthy)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// User endpoints
	router.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/api/users/{userId}", userHandler.GetUser).Methods("GET")

	// Day and message endpoints (date is the day's identity)
	router.HandleFunc("/api/users/{userId}/days", journalHandler.ListDays).Methods("GET")
	router.HandleFunc("/api/users/{userId}/days/{date:\\d{4}-\\d{2}-\\d{2}}", journalHandler.OpenDay).Methods("GET")
	router.HandleFunc("/api/users/{userId}/days/{date:\\d{4}-\\d{2}-\\d{2}}/messages", journalHandler.SendMessage).Methods("POST")
	router.HandleFunc("/api/users/{userId}/days/{date:\\d{4}-\\d{2}-\\d{2}}/messages", journalHandler.ListMessages).Methods("GET")
	router.HandleFunc("/api/users/{userId}/days/{date:\\d{4}-\\d{2}-\\d{2}}/summary", summaryHandler.SummarizeDay).Methods("POST")
	router.HandleFunc("/api/users/{userId}/summaries", summaryHandler.SummarizeRange).Methods("POST")

	// Calendar endpoint
	router.HandleFunc("/api/users/{userId}/calendar", journalHandler.Calendar).Methods("GET")

	// Streak endpoints
	router.HandleFunc("/api/users/{userId}/streak", streakHandler.GetStreak).Methods("GET")
	router.HandleFunc("/api/users/{userId}/streak/recompute", streakHandler.RecomputeStreak).Methods("POST")

	return router
}
