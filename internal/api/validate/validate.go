package validate

import (
	"fmt"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// dateRx matches the YYYY-MM-DD day-identity form. Calendar validity
// is checked separately by parsing.
var dateRx = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func Date(v string) error {
	if v == "" {
		return fmt.Errorf("date is required")
	}
	if !dateRx.MatchString(v) {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
