package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Insurance types offered by the brokerage
const (
	InsuranceHealth = "health"
	InsuranceLife   = "life"
	InsuranceMotor  = "motor"
	InsuranceTravel = "travel"
	InsuranceHome   = "home"
)

// Quote request statuses
const (
	QuoteStatusPending    = "pending"
	QuoteStatusProcessing = "processing"
	QuoteStatusQuoted     = "quoted"
	QuoteStatusConverted  = "converted"
	QuoteStatusDeclined   = "declined"
)

// QuoteValidityDays is how long an issued quote stays valid when no
// explicit deadline was set.
const QuoteValidityDays = 30

// InsuranceTypes lists the accepted insurance type values
var InsuranceTypes = []string{
	InsuranceHealth, InsuranceLife, InsuranceMotor,
	InsuranceTravel, InsuranceHome,
}

// QuoteStatuses lists the accepted quote status values
var QuoteStatuses = []string{
	QuoteStatusPending, QuoteStatusProcessing, QuoteStatusQuoted,
	QuoteStatusConverted, QuoteStatusDeclined,
}

// QuoteRequest represents a quote request submitted through the public form
type QuoteRequest struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	FirstName     string `gorm:"size:50;not null" json:"first_name"`
	LastName      string `gorm:"size:50;not null" json:"last_name"`
	Email         string `gorm:"size:255;not null;index" json:"email"`
	Phone         string `gorm:"size:20;not null" json:"phone"`
	InsuranceType string `gorm:"size:20;not null" json:"insurance_type"`
	Age           int    `gorm:"not null" json:"age"`
	Requirements  string `gorm:"type:text" json:"requirements"`

	Status           string `gorm:"size:20;default:'pending';index" json:"status"`
	Priority         string `gorm:"size:10;default:'low'" json:"priority"`
	PriorityExplicit bool   `gorm:"default:false" json:"-"`

	Source    string `gorm:"size:30;default:'website'" json:"source"`
	IPAddress string `gorm:"size:45" json:"-"`
	UserAgent string `gorm:"size:512" json:"-"`

	Notes        string                      `gorm:"type:text" json:"notes"`
	AssignedTo   *string                     `gorm:"size:100" json:"assigned_to"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	FollowUpDate *time.Time                  `json:"follow_up_date"`

	QuotedDate    *time.Time `json:"quoted_date"`
	ValidUntil    *time.Time `json:"valid_until"`
	ConvertedDate *time.Time `json:"converted_date"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// TableName specifies the table name for QuoteRequest
func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// BeforeCreate hook
func (q *QuoteRequest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if q.Status == "" {
		q.Status = QuoteStatusPending
	}
	return nil
}

// BeforeUpdate hook
func (q *QuoteRequest) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	q.UpdatedAt = &now
	return nil
}

// quoteTransitions maps each status to the statuses reachable from it.
// Declined is reachable from every non-terminal state; converted and
// declined are terminal.
var quoteTransitions = map[string][]string{
	QuoteStatusPending:    {QuoteStatusProcessing, QuoteStatusDeclined},
	QuoteStatusProcessing: {QuoteStatusQuoted, QuoteStatusDeclined},
	QuoteStatusQuoted:     {QuoteStatusConverted, QuoteStatusDeclined},
	QuoteStatusConverted:  {},
	QuoteStatusDeclined:   {},
}

// TransitionQuoteStatus moves a quote request to the given status,
// enforcing the lifecycle. Entering quoted stamps the quote-issuance date
// and, when unset, a validity deadline; entering converted stamps the
// conversion date. Completion timestamps are set exactly once; a
// same-status transition is a no-op.
func TransitionQuoteStatus(q *QuoteRequest, next string) error {
	if next == q.Status {
		return nil
	}
	allowed, ok := quoteTransitions[q.Status]
	if !ok {
		return fmt.Errorf("unknown quote status %q", q.Status)
	}
	permitted := false
	for _, s := range allowed {
		if s == next {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("cannot transition quote request from %q to %q", q.Status, next)
	}

	q.Status = next
	now := time.Now().UTC()
	switch next {
	case QuoteStatusQuoted:
		if q.QuotedDate == nil {
			q.QuotedDate = &now
		}
		if q.ValidUntil == nil {
			deadline := now.AddDate(0, 0, QuoteValidityDays)
			q.ValidUntil = &deadline
		}
	case QuoteStatusConverted:
		if q.ConvertedDate == nil {
			q.ConvertedDate = &now
		}
	}
	return nil
}

// DeriveQuotePriority maps applicant age and insurance type to a handling
// priority. Older applicants are time-sensitive regardless of product.
func DeriveQuotePriority(insuranceType string, age int) string {
	if age >= 60 {
		return PriorityHigh
	}
	if insuranceType == InsuranceLife && age >= 50 {
		return PriorityMedium
	}
	return PriorityLow
}

// ApplyQuotePriority recomputes the derived priority after an insurance
// type or age change. An explicitly set priority is left untouched.
func ApplyQuotePriority(q *QuoteRequest) {
	if q.PriorityExplicit {
		return
	}
	q.Priority = DeriveQuotePriority(q.InsuranceType, q.Age)
}

// IsValidInsuranceType reports whether s is an accepted insurance type
func IsValidInsuranceType(s string) bool {
	for _, v := range InsuranceTypes {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidQuoteStatus reports whether s is an accepted quote status
func IsValidQuoteStatus(s string) bool {
	for _, v := range QuoteStatuses {
		if v == s {
			return true
		}
	}
	return false
}
