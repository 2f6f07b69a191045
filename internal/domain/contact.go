package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Contact message subjects
const (
	SubjectGeneral     = "general"
	SubjectQuote       = "quote"
	SubjectPolicy      = "policy"
	SubjectClaim       = "claim"
	SubjectComplaint   = "complaint"
	SubjectPartnership = "partnership"
)

// Contact message statuses
const (
	ContactStatusPending    = "pending"
	ContactStatusInProgress = "in-progress"
	ContactStatusResolved   = "resolved"
	ContactStatusClosed     = "closed"
)

// Priorities, shared by contact messages and quote requests
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ContactSubjects lists the accepted subject values
var ContactSubjects = []string{
	SubjectGeneral, SubjectQuote, SubjectPolicy,
	SubjectClaim, SubjectComplaint, SubjectPartnership,
}

// ContactStatuses lists the accepted status values
var ContactStatuses = []string{
	ContactStatusPending, ContactStatusInProgress,
	ContactStatusResolved, ContactStatusClosed,
}

// ContactMessage represents a contact form submission
type ContactMessage struct {
	ID            string  `gorm:"primaryKey;size:36" json:"id"`
	FirstName     string  `gorm:"size:50;not null" json:"first_name"`
	LastName      string  `gorm:"size:50;not null" json:"last_name"`
	Email         string  `gorm:"size:255;not null;index" json:"email"`
	Phone         *string `gorm:"size:20" json:"phone"`
	Subject       string  `gorm:"size:20;not null" json:"subject"`
	InsuranceType *string `gorm:"size:20" json:"insurance_type"`
	Message       string  `gorm:"type:text;not null" json:"message"`
	Newsletter    bool    `gorm:"default:false" json:"newsletter"`

	Status string `gorm:"size:20;default:'pending';index" json:"status"`
	// PriorityExplicit marks a priority set by an administrator; explicit
	// priorities are never recomputed.
	Priority         string `gorm:"size:10;default:'medium'" json:"priority"`
	PriorityExplicit bool   `gorm:"default:false" json:"-"`

	Source    string `gorm:"size:30;default:'website'" json:"source"`
	IPAddress string `gorm:"size:45" json:"-"`
	UserAgent string `gorm:"size:512" json:"-"`

	Notes        string                      `gorm:"type:text" json:"notes"`
	AssignedTo   *string                     `gorm:"size:100" json:"assigned_to"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	FollowUpDate *time.Time                  `json:"follow_up_date"`
	ResolvedDate *time.Time                  `json:"resolved_date"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// TableName specifies the table name for ContactMessage
func (ContactMessage) TableName() string {
	return "contact_messages"
}

// BeforeCreate hook
func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = ContactStatusPending
	}
	return nil
}

// BeforeUpdate hook
func (m *ContactMessage) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	m.UpdatedAt = &now
	return nil
}

// contactTransitions maps each status to the statuses reachable from it.
// Closed is reachable from everywhere.
var contactTransitions = map[string][]string{
	ContactStatusPending:    {ContactStatusInProgress, ContactStatusResolved, ContactStatusClosed},
	ContactStatusInProgress: {ContactStatusResolved, ContactStatusClosed},
	ContactStatusResolved:   {ContactStatusClosed},
	ContactStatusClosed:     {},
}

// TransitionContactStatus moves a contact message to the given status,
// enforcing the lifecycle. A same-status transition is a no-op, so marking
// a resolved message resolved again keeps its original resolution date.
func TransitionContactStatus(m *ContactMessage, next string) error {
	if next == m.Status {
		return nil
	}
	allowed, ok := contactTransitions[m.Status]
	if !ok {
		return fmt.Errorf("unknown contact status %q", m.Status)
	}
	permitted := false
	for _, s := range allowed {
		if s == next {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("cannot transition contact message from %q to %q", m.Status, next)
	}

	m.Status = next
	if next == ContactStatusResolved && m.ResolvedDate == nil {
		now := time.Now().UTC()
		m.ResolvedDate = &now
	}
	return nil
}

// DeriveContactPriority maps a message subject to a handling priority
func DeriveContactPriority(subject string) string {
	switch subject {
	case SubjectComplaint:
		return PriorityUrgent
	case SubjectClaim:
		return PriorityHigh
	case SubjectQuote, SubjectPolicy:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ApplyContactPriority recomputes the derived priority after a subject
// change. A priority an administrator set explicitly is left untouched.
func ApplyContactPriority(m *ContactMessage) {
	if m.PriorityExplicit {
		return
	}
	m.Priority = DeriveContactPriority(m.Subject)
}

// IsValidContactSubject reports whether s is an accepted subject
func IsValidContactSubject(s string) bool {
	for _, v := range ContactSubjects {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidContactStatus reports whether s is an accepted status
func IsValidContactStatus(s string) bool {
	for _, v := range ContactStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is an accepted priority
func IsValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}
