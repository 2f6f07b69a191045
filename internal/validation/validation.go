// Package validation holds the stateless field rules applied to public
// form payloads. Validators append to a Violations list so a rejected
// submission reports every problem, not just the first one found.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s()+\-]+$`)
)

// minPhoneDigits is the fewest digits a phone number may carry once
// formatting characters are stripped.
const minPhoneDigits = 7

// Violation describes a single field-level rule failure
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations collects field-level rule failures for one payload
type Violations []Violation

// Add appends a violation for the given field
func (v *Violations) Add(field, format string, args ...any) {
	*v = append(*v, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OK reports whether no rule failed
func (v Violations) OK() bool {
	return len(v) == 0
}

// Messages returns the violation messages in order
func (v Violations) Messages() []string {
	msgs := make([]string, len(v))
	for i, violation := range v {
		msgs[i] = fmt.Sprintf("%s: %s", violation.Field, violation.Message)
	}
	return msgs
}

func (v Violations) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Required checks that a trimmed value is present
func Required(v *Violations, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Length checks trimmed length bounds. Empty values are skipped so
// optional fields can be validated only when present.
func Length(v *Violations, field, value string, min, max int) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	if len(trimmed) < min {
		v.Add(field, "must be at least %d characters", min)
		return
	}
	if len(trimmed) > max {
		v.Add(field, "must not exceed %d characters", max)
	}
}

// Email checks the address format
func Email(v *Violations, field, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	if len(trimmed) > 255 || !emailPattern.MatchString(trimmed) {
		v.Add(field, "must be a valid email address")
	}
}

// Phone checks the number format: digits, spaces, parentheses, + and -
// only, with a minimum digit count
func Phone(v *Violations, field, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	if len(trimmed) > 20 || !phonePattern.MatchString(trimmed) {
		v.Add(field, "must be a valid phone number")
		return
	}
	digits := 0
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		v.Add(field, "must contain at least %d digits", minPhoneDigits)
	}
}

// OneOf checks enum membership
func OneOf(v *Violations, field, value string, allowed []string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	for _, a := range allowed {
		if trimmed == a {
			return
		}
	}
	v.Add(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// IntRange checks numeric bounds
func IntRange(v *Violations, field string, value, min, max int) {
	if value < min || value > max {
		v.Add(field, "must be between %d and %d", min, max)
	}
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
