package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daybook-ai/daybook/internal/model"
	"github.com/daybook-ai/daybook/internal/store"
)

// CreateUserRequest carries the fields a new account needs.
type CreateUserRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName,omitempty"`
	TimeZone    string  `json:"timeZone"`
}

// UserService manages accounts.
type UserService struct {
	store           store.Store
	defaultTimeZone string
	log             zerolog.Logger
}

func NewUserService(s store.Store, defaultTimeZone string, log zerolog.Logger) *UserService {
	return &UserService{store: s, defaultTimeZone: defaultTimeZone, log: log.With().Str("service", "user").Logger()}
}

// Create validates the time zone against the IANA database before the
// account is persisted. Every later day-identity decision depends on
// this zone resolving.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q: %w", req.Email, model.ErrValidation)
	}
	tz := strings.TrimSpace(req.TimeZone)
	if tz == "" {
		tz = s.defaultTimeZone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", tz, model.ErrValidation)
	}

	u, err := s.store.Users().Create(ctx, &model.User{
		UserID:      uuid.New().String(),
		Email:       email,
		DisplayName: req.DisplayName,
		TimeZone:    tz,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", u.UserID).Str("time_zone", tz).Msg("user created")
	return u, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}
