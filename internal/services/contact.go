package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"harborview/internal/domain"
	"harborview/internal/metrics"
	"harborview/internal/validation"
)

// duplicateWindow is the trailing window inside which a submission with
// the same email and message is treated as a repeat.
const duplicateWindow = 5 * time.Minute

// ContactService implements the contact message workflow
type ContactService struct {
	db         *gorm.DB
	mailer     Mailer
	adminEmail string
}

// NewContactService creates a new contact service
func NewContactService(db *gorm.DB, mailer Mailer, adminEmail string) *ContactService {
	return &ContactService{
		db:         db,
		mailer:     mailer,
		adminEmail: adminEmail,
	}
}

// ContactSubmitPayload is the raw public form payload. Provenance fields
// are filled in by the transport layer, not the submitter.
type ContactSubmitPayload struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	Subject       string  `json:"subject"`
	InsuranceType *string `json:"insuranceType"`
	Message       string  `json:"message"`
	Newsletter    bool    `json:"newsletter"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// SubmitResult is returned for an accepted submission
type SubmitResult struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Submit validates, deduplicates and persists a contact message, then
// dispatches the notification emails without blocking the response.
func (s *ContactService) Submit(ctx context.Context, p *ContactSubmitPayload) (*SubmitResult, error) {
	log.Printf("[CONTACT] Submit request: email=%s, subject=%s", validation.NormalizeEmail(p.Email), strings.TrimSpace(p.Subject))

	if violations := validateContactPayload(p); !violations.OK() {
		log.Printf("[CONTACT] Submit failed: validation: %v", violations)
		return nil, NewValidationError(violations)
	}

	email := validation.NormalizeEmail(p.Email)
	message := strings.TrimSpace(p.Message)

	// Duplicate guard: best-effort heuristic, not an idempotency
	// guarantee. The check and the insert below are deliberately not
	// wrapped in a transaction.
	cutoff := time.Now().UTC().Add(-duplicateWindow)
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.ContactMessage{}).
		Where("email = ? AND message = ? AND created_at > ?", email, message, cutoff).
		Count(&count).Error; err != nil {
		log.Printf("[CONTACT] Submit failed: duplicate check error: %v", err)
		return nil, NewInternalError("failed to check for duplicate submission", err)
	}
	if count > 0 {
		log.Printf("[CONTACT] Submit rejected: duplicate from %s", email)
		metrics.RecordDuplicateRejected("contact")
		return nil, NewDuplicateError("a matching message was submitted moments ago; please wait before retrying")
	}

	m := &domain.ContactMessage{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Email:      email,
		Subject:    strings.TrimSpace(p.Subject),
		Message:    message,
		Newsletter: p.Newsletter,
		Status:     domain.ContactStatusPending,
		Source:     "website",
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
	}
	if p.Phone != nil && strings.TrimSpace(*p.Phone) != "" {
		phone := strings.TrimSpace(*p.Phone)
		m.Phone = &phone
	}
	if p.InsuranceType != nil && strings.TrimSpace(*p.InsuranceType) != "" {
		it := strings.TrimSpace(*p.InsuranceType)
		m.InsuranceType = &it
	}
	domain.ApplyContactPriority(m)

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		log.Printf("[CONTACT] Submit failed: database error: %v", err)
		return nil, NewInternalError("failed to save contact message", err)
	}

	log.Printf("[CONTACT] Submit successful: id=%s, email=%s, priority=%s", m.ID, m.Email, m.Priority)
	metrics.RecordContactSubmission()

	// Best-effort dispatch: failures are logged, never surfaced, and
	// never roll back the accepted submission.
	go s.dispatchContactEmails(m)

	return &SubmitResult{ID: m.ID, Timestamp: m.CreatedAt}, nil
}

// ContactListQuery filters the administrative listing
type ContactListQuery struct {
	Status   string
	Priority string
	Skip     int
	Limit    int
}

// List returns contact messages for administrative review
func (s *ContactService) List(ctx context.Context, q *ContactListQuery) ([]domain.ContactMessage, error) {
	log.Printf("[CONTACT] List request: status=%q, priority=%q, skip=%d, limit=%d", q.Status, q.Priority, q.Skip, q.Limit)

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Order("created_at DESC").Offset(q.Skip).Limit(limit)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		query = query.Where("priority = ?", q.Priority)
	}

	var messages []domain.ContactMessage
	if err := query.Find(&messages).Error; err != nil {
		log.Printf("[CONTACT] List failed: database error: %v", err)
		return nil, NewInternalError("failed to fetch contact messages", err)
	}

	return messages, nil
}

// Get returns a single contact message by id
func (s *ContactService) Get(ctx context.Context, id string) (*domain.ContactMessage, error) {
	var m domain.ContactMessage
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("contact message not found")
		}
		return nil, NewInternalError("failed to fetch contact message", err)
	}
	return &m, nil
}

// ContactUpdatePayload carries the administrative mutations. Nil fields
// are left unchanged.
type ContactUpdatePayload struct {
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	Subject      *string    `json:"subject"`
	Notes        *string    `json:"notes"`
	AssignedTo   *string    `json:"assignedTo"`
	Tags         *[]string  `json:"tags"`
	FollowUpDate *time.Time `json:"followUpDate"`
}

// Update applies administrative changes to a contact message. Status
// changes go through the lifecycle state machine; an explicit priority is
// pinned and survives later subject edits.
func (s *ContactService) Update(ctx context.Context, id string, p *ContactUpdatePayload) (*domain.ContactMessage, error) {
	log.Printf("[CONTACT] Update request: id=%s", id)

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Subject != nil {
		subject := strings.TrimSpace(*p.Subject)
		if !domain.IsValidContactSubject(subject) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid subject %q", subject))
		}
		m.Subject = subject
		domain.ApplyContactPriority(m)
	}
	if p.Status != nil {
		status := strings.TrimSpace(*p.Status)
		if !domain.IsValidContactStatus(status) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid status %q", status))
		}
		if err := domain.TransitionContactStatus(m, status); err != nil {
			return nil, NewBadRequestError(err.Error())
		}
	}
	if p.Priority != nil {
		priority := strings.TrimSpace(*p.Priority)
		if !domain.IsValidPriority(priority) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid priority %q", priority))
		}
		m.Priority = priority
		m.PriorityExplicit = true
	}
	if p.Notes != nil {
		m.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.AssignedTo != nil {
		assignee := strings.TrimSpace(*p.AssignedTo)
		if assignee == "" {
			m.AssignedTo = nil
		} else {
			m.AssignedTo = &assignee
		}
	}
	if p.Tags != nil {
		m.Tags = datatypes.JSONSlice[string](*p.Tags)
	}
	if p.FollowUpDate != nil {
		m.FollowUpDate = p.FollowUpDate
	}

	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		log.Printf("[CONTACT] Update failed: database error: %v", err)
		return nil, NewInternalError("failed to update contact message", err)
	}

	log.Printf("[CONTACT] Update successful: id=%s, status=%s, priority=%s", m.ID, m.Status, m.Priority)
	return m, nil
}

// Delete removes a contact message
func (s *ContactService) Delete(ctx context.Context, id string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(m).Error; err != nil {
		log.Printf("[CONTACT] Delete failed: database error: %v", err)
		return NewInternalError("failed to delete contact message", err)
	}
	log.Printf("[CONTACT] Delete successful: id=%s", id)
	return nil
}

// ContactStats summarizes stored contact messages
type ContactStats struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	BySubject map[string]int64 `json:"by_subject"`
}

// Stats computes counts and breakdowns over an optional date range
func (s *ContactService) Stats(ctx context.Context, from, to *time.Time) (*ContactStats, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.ContactMessage{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at <= ?", *to)
		}
		return q
	}

	stats := &ContactStats{
		ByStatus:  make(map[string]int64),
		BySubject: make(map[string]int64),
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, NewInternalError("failed to count contact messages", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := base().Select("status as key, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, NewInternalError("failed to group contact messages by status", err)
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var bySubject []bucket
	if err := base().Select("subject as key, count(*) as count").Group("subject").Scan(&bySubject).Error; err != nil {
		return nil, NewInternalError("failed to group contact messages by subject", err)
	}
	for _, b := range bySubject {
		stats.BySubject[b.Key] = b.Count
	}

	return stats, nil
}

// validateContactPayload applies the field rules and returns every
// violation found
func validateContactPayload(p *ContactSubmitPayload) validation.Violations {
	var v validation.Violations

	validation.Required(&v, "firstName", p.FirstName)
	validation.Length(&v, "firstName", p.FirstName, 2, 50)
	validation.Required(&v, "lastName", p.LastName)
	validation.Length(&v, "lastName", p.LastName, 2, 50)
	validation.Required(&v, "email", p.Email)
	validation.Email(&v, "email", p.Email)
	if p.Phone != nil {
		validation.Phone(&v, "phone", *p.Phone)
	}
	validation.Required(&v, "subject", p.Subject)
	validation.OneOf(&v, "subject", p.Subject, domain.ContactSubjects)
	if p.InsuranceType != nil {
		validation.OneOf(&v, "insuranceType", *p.InsuranceType, domain.InsuranceTypes)
	}
	validation.Required(&v, "message", p.Message)
	validation.Length(&v, "message", p.Message, 10, 5000)

	return v
}

// dispatchContactEmails sends the operator notification and the submitter
// acknowledgment. Runs outside the request; errors are logged only.
func (s *ContactService) dispatchContactEmails(m *domain.ContactMessage) {
	if err := s.mailer.SendHTMLEmail(s.adminEmail, contactNotificationSubject(m), contactNotificationHTML(m), contactNotificationText(m)); err != nil {
		metrics.RecordEmailDispatch("notification", "failed")
		log.Printf("[CONTACT] Warning: failed to send notification email for id=%s: %v", m.ID, err)
	} else {
		metrics.RecordEmailDispatch("notification", "sent")
	}

	subject := "We received your message - Harborview Insurance"
	if err := s.mailer.SendHTMLEmail(m.Email, subject, contactConfirmationHTML(m), contactConfirmationText(m)); err != nil {
		metrics.RecordEmailDispatch("confirmation", "failed")
		log.Printf("[CONTACT] Warning: failed to send confirmation email for id=%s: %v", m.ID, err)
	} else {
		metrics.RecordEmailDispatch("confirmation", "sent")
	}
}

func contactNotificationSubject(m *domain.ContactMessage) string {
	return fmt.Sprintf("New contact message from %s %s [%s]", m.FirstName, m.LastName, m.Subject)
}

func contactNotificationText(m *domain.ContactMessage) string {
	phone := "Not provided"
	if m.Phone != nil {
		phone = *m.Phone
	}
	return fmt.Sprintf(`New Contact Form Submission

Name: %s %s
Email: %s
Phone: %s
Subject: %s
Priority: %s
Submitted: %s

Message:
%s

Reference: %s`,
		m.FirstName, m.LastName, m.Email, phone, m.Subject, m.Priority,
		m.CreatedAt.Format("January 2, 2006 at 3:04 PM"), m.Message, m.ID)
}

func contactNotificationHTML(m *domain.ContactMessage) string {
	phone := "Not provided"
	if m.Phone != nil {
		phone = *m.Phone
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>New Contact Message</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0F4C81;">New Contact Form Submission</h2>
    <div style="background: #F8FAFC; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <p><strong>Name:</strong> %s %s</p>
      <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
      <p><strong>Phone:</strong> %s</p>
      <p><strong>Subject:</strong> %s</p>
      <p><strong>Priority:</strong> %s</p>
      <p><strong>Submitted:</strong> %s</p>
    </div>
    <div style="background: #FFFFFF; padding: 20px; border-left: 4px solid #0F4C81; border-radius: 4px; margin: 20px 0;">
      <h3 style="color: #0D1A2D; margin-top: 0;">Message:</h3>
      <p style="white-space: pre-wrap;">%s</p>
    </div>
    <p style="color: #64748B; font-size: 14px;">Reference: %s</p>
  </div>
</body>
</html>`, m.FirstName, m.LastName, m.Email, m.Email, phone, m.Subject, m.Priority,
		m.CreatedAt.Format("January 2, 2006 at 3:04 PM"), m.Message, m.ID)
}

func contactConfirmationText(m *domain.ContactMessage) string {
	return fmt.Sprintf(`Hello %s,

Thank you for contacting Harborview Insurance Brokers. We have received
your message and one of our advisers will get back to you within 24 hours.

For urgent matters, please call our office directly.

Best regards,
Harborview Insurance Brokers`, m.FirstName)
}

func contactConfirmationHTML(m *domain.ContactMessage) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>We received your message</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0F4C81;">Thank you, %s</h2>
    <p>We have received your message and one of our advisers will get back to you within <strong>24 hours</strong>.</p>
    <p>For urgent matters, please call our office directly.</p>
    <p style="color: #64748B; font-size: 14px; margin-top: 32px;">
      Best regards,<br>Harborview Insurance Brokers
    </p>
  </div>
</body>
</html>`, m.FirstName)
}
