package model

import "time"

// DateKey is the canonical calendar-day key format, YYYY-MM-DD in the
// user's local time zone. The date string is the day record's identity;
// there is no surrogate key.
const DateKey = "2006-01-02"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DayStatus is a derived projection, never persisted as truth.
type DayStatus string

const (
	StatusUpcoming DayStatus = "upcoming"
	StatusPending  DayStatus = "pending"
	StatusDone     DayStatus = "done"
	StatusMissed   DayStatus = "missed"
)

// User represents an account in the system.
type User struct {
	UserID         string     `json:"userId"`
	Email          string     `json:"email"`
	DisplayName    *string    `json:"displayName,omitempty"`
	TimeZone       string     `json:"timeZone"`
	Status         string     `json:"status"`
	CreationTime   time.Time  `json:"creationTime"`
	LastActiveTime *time.Time `json:"lastActiveTime,omitempty"`
}

// DayRecord is one chat per user per calendar date. Created lazily,
// never deleted.
type DayRecord struct {
	UserID          string    `json:"userId"`
	Date            string    `json:"date"`
	LastMessageText string    `json:"lastMessageText"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Message is an append-only child of exactly one DayRecord, ordered by
// CreatedAt ascending.
type Message struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// RolePresence reports whether a day has at least one non-empty message
// per role. Aggregated from live message rows at read time; a persisted
// status field is never trusted.
type RolePresence struct {
	HasUserMessage      bool `json:"hasUserMessage"`
	HasAssistantMessage bool `json:"hasAssistantMessage"`
}

// DayWithPresence pairs a day record with its live role presence.
type DayWithPresence struct {
	Day      DayRecord    `json:"day"`
	Presence RolePresence `json:"presence"`
}

// StreakState is the per-user streak snapshot. It is only ever written
// by a full recompute over all day records; LastComputedOn is a
// monotonically non-decreasing watermark.
type StreakState struct {
	UserID          string    `json:"userId"`
	CurrentStreak   int       `json:"currentStreak"`
	HighestStreak   int       `json:"highestStreak"`
	TotalDaysActive int       `json:"totalDaysActive"`
	Consistency     int       `json:"consistency"`
	FirstDoneDate   *string   `json:"firstDoneDate,omitempty"`
	LastComputedOn  string    `json:"lastComputedOn"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CalendarDay is the read-only projection used by calendar views.
// Days with no backing record carry a placeholder status and HasChat false.
type CalendarDay struct {
	Date            string    `json:"date"`
	Status          DayStatus `json:"status"`
	HasChat         bool      `json:"hasChat"`
	LastMessageText string    `json:"lastMessageText,omitempty"`
}

// AppendMessageRequest captures one message append attempt. The
// idempotency key is client-generated per attempt so a retried append
// cannot double-insert.
type AppendMessageRequest struct {
	UserID         string `json:"userId"`
	Date           string `json:"date"`
	Role           Role   `json:"role"`
	Text           string `json:"text"`
	IdempotencyKey string `json:"idempotencyKey"`
}
