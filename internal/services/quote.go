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

// QuoteService implements the quote request workflow
type QuoteService struct {
	db         *gorm.DB
	mailer     Mailer
	adminEmail string
}

// NewQuoteService creates a new quote service
func NewQuoteService(db *gorm.DB, mailer Mailer, adminEmail string) *QuoteService {
	return &QuoteService{
		db:         db,
		mailer:     mailer,
		adminEmail: adminEmail,
	}
}

// QuoteSubmitPayload is the raw public quote form payload
type QuoteSubmitPayload struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	InsuranceType string `json:"insuranceType"`
	Age           int    `json:"age"`
	Requirements  string `json:"requirements"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// Submit validates, deduplicates and persists a quote request, then
// dispatches the notification emails without blocking the response.
func (s *QuoteService) Submit(ctx context.Context, p *QuoteSubmitPayload) (*SubmitResult, error) {
	log.Printf("[QUOTE] Submit request: email=%s, type=%s", validation.NormalizeEmail(p.Email), strings.TrimSpace(p.InsuranceType))

	if violations := validateQuotePayload(p); !violations.OK() {
		log.Printf("[QUOTE] Submit failed: validation: %v", violations)
		return nil, NewValidationError(violations)
	}

	email := validation.NormalizeEmail(p.Email)
	insuranceType := strings.TrimSpace(p.InsuranceType)
	requirements := strings.TrimSpace(p.Requirements)

	// Duplicate guard, same heuristic as the contact form: matching
	// contact and content inside the trailing window.
	cutoff := time.Now().UTC().Add(-duplicateWindow)
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("email = ? AND insurance_type = ? AND requirements = ? AND created_at > ?", email, insuranceType, requirements, cutoff).
		Count(&count).Error; err != nil {
		log.Printf("[QUOTE] Submit failed: duplicate check error: %v", err)
		return nil, NewInternalError("failed to check for duplicate submission", err)
	}
	if count > 0 {
		log.Printf("[QUOTE] Submit rejected: duplicate from %s", email)
		metrics.RecordDuplicateRejected("quote")
		return nil, NewDuplicateError("a matching quote request was submitted moments ago; please wait before retrying")
	}

	q := &domain.QuoteRequest{
		FirstName:     strings.TrimSpace(p.FirstName),
		LastName:      strings.TrimSpace(p.LastName),
		Email:         email,
		Phone:         strings.TrimSpace(p.Phone),
		InsuranceType: insuranceType,
		Age:           p.Age,
		Requirements:  requirements,
		Status:        domain.QuoteStatusPending,
		Source:        "website",
		IPAddress:     p.IPAddress,
		UserAgent:     p.UserAgent,
	}
	domain.ApplyQuotePriority(q)

	if err := s.db.WithContext(ctx).Create(q).Error; err != nil {
		log.Printf("[QUOTE] Submit failed: database error: %v", err)
		return nil, NewInternalError("failed to save quote request", err)
	}

	log.Printf("[QUOTE] Submit successful: id=%s, email=%s, type=%s, priority=%s", q.ID, q.Email, q.InsuranceType, q.Priority)
	metrics.RecordQuoteRequest(q.InsuranceType)

	go s.dispatchQuoteEmails(q)

	return &SubmitResult{ID: q.ID, Timestamp: q.CreatedAt}, nil
}

// QuoteListQuery filters the administrative listing
type QuoteListQuery struct {
	Status        string
	InsuranceType string
	Skip          int
	Limit         int
}

// List returns quote requests for administrative review
func (s *QuoteService) List(ctx context.Context, q *QuoteListQuery) ([]domain.QuoteRequest, error) {
	log.Printf("[QUOTE] List request: status=%q, type=%q, skip=%d, limit=%d", q.Status, q.InsuranceType, q.Skip, q.Limit)

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Order("created_at DESC").Offset(q.Skip).Limit(limit)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.InsuranceType != "" {
		query = query.Where("insurance_type = ?", q.InsuranceType)
	}

	var quotes []domain.QuoteRequest
	if err := query.Find(&quotes).Error; err != nil {
		log.Printf("[QUOTE] List failed: database error: %v", err)
		return nil, NewInternalError("failed to fetch quote requests", err)
	}

	return quotes, nil
}

// Get returns a single quote request by id
func (s *QuoteService) Get(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	var q domain.QuoteRequest
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("quote request not found")
		}
		return nil, NewInternalError("failed to fetch quote request", err)
	}
	return &q, nil
}

// QuoteUpdatePayload carries the administrative mutations. Nil fields are
// left unchanged.
type QuoteUpdatePayload struct {
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	InsuranceType *string    `json:"insuranceType"`
	Age           *int       `json:"age"`
	Notes         *string    `json:"notes"`
	AssignedTo    *string    `json:"assignedTo"`
	Tags          *[]string  `json:"tags"`
	FollowUpDate  *time.Time `json:"followUpDate"`
	ValidUntil    *time.Time `json:"validUntil"`
}

// Update applies administrative changes to a quote request. Insurance
// type and age changes recompute the derived priority unless an explicit
// priority has been set.
func (s *QuoteService) Update(ctx context.Context, id string, p *QuoteUpdatePayload) (*domain.QuoteRequest, error) {
	log.Printf("[QUOTE] Update request: id=%s", id)

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	recompute := false
	if p.InsuranceType != nil {
		it := strings.TrimSpace(*p.InsuranceType)
		if !domain.IsValidInsuranceType(it) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid insurance type %q", it))
		}
		q.InsuranceType = it
		recompute = true
	}
	if p.Age != nil {
		if *p.Age < 18 || *p.Age > 100 {
			return nil, NewBadRequestError("age must be between 18 and 100")
		}
		q.Age = *p.Age
		recompute = true
	}
	if recompute {
		domain.ApplyQuotePriority(q)
	}
	if p.Status != nil {
		status := strings.TrimSpace(*p.Status)
		if !domain.IsValidQuoteStatus(status) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid status %q", status))
		}
		if err := domain.TransitionQuoteStatus(q, status); err != nil {
			return nil, NewBadRequestError(err.Error())
		}
	}
	if p.Priority != nil {
		priority := strings.TrimSpace(*p.Priority)
		if !domain.IsValidPriority(priority) {
			return nil, NewBadRequestError(fmt.Sprintf("invalid priority %q", priority))
		}
		q.Priority = priority
		q.PriorityExplicit = true
	}
	if p.Notes != nil {
		q.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.AssignedTo != nil {
		assignee := strings.TrimSpace(*p.AssignedTo)
		if assignee == "" {
			q.AssignedTo = nil
		} else {
			q.AssignedTo = &assignee
		}
	}
	if p.Tags != nil {
		q.Tags = datatypes.JSONSlice[string](*p.Tags)
	}
	if p.FollowUpDate != nil {
		q.FollowUpDate = p.FollowUpDate
	}
	if p.ValidUntil != nil {
		q.ValidUntil = p.ValidUntil
	}

	if err := s.db.WithContext(ctx).Save(q).Error; err != nil {
		log.Printf("[QUOTE] Update failed: database error: %v", err)
		return nil, NewInternalError("failed to update quote request", err)
	}

	log.Printf("[QUOTE] Update successful: id=%s, status=%s, priority=%s", q.ID, q.Status, q.Priority)
	return q, nil
}

// Delete removes a quote request
func (s *QuoteService) Delete(ctx context.Context, id string) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(q).Error; err != nil {
		log.Printf("[QUOTE] Delete failed: database error: %v", err)
		return NewInternalError("failed to delete quote request", err)
	}
	log.Printf("[QUOTE] Delete successful: id=%s", id)
	return nil
}

// transition moves a quote through its lifecycle and persists the result
func (s *QuoteService) transition(ctx context.Context, id, status string) (*domain.QuoteRequest, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.TransitionQuoteStatus(q, status); err != nil {
		return nil, NewBadRequestError(err.Error())
	}
	if err := s.db.WithContext(ctx).Save(q).Error; err != nil {
		return nil, NewInternalError("failed to update quote request", err)
	}
	log.Printf("[QUOTE] Transition successful: id=%s, status=%s", q.ID, q.Status)
	return q, nil
}

// MarkQuoted marks a quote request as quoted, stamping the issuance date
// and validity deadline
func (s *QuoteService) MarkQuoted(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	return s.transition(ctx, id, domain.QuoteStatusQuoted)
}

// MarkConverted marks a quote request as converted to a policy
func (s *QuoteService) MarkConverted(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	return s.transition(ctx, id, domain.QuoteStatusConverted)
}

// MarkDeclined marks a quote request as declined
func (s *QuoteService) MarkDeclined(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	return s.transition(ctx, id, domain.QuoteStatusDeclined)
}

// QuoteStats summarizes stored quote requests
type QuoteStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}

// Stats computes counts and breakdowns over an optional date range
func (s *QuoteService) Stats(ctx context.Context, from, to *time.Time) (*QuoteStats, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.QuoteRequest{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at <= ?", *to)
		}
		return q
	}

	stats := &QuoteStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, NewInternalError("failed to count quote requests", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := base().Select("status as key, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, NewInternalError("failed to group quote requests by status", err)
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byType []bucket
	if err := base().Select("insurance_type as key, count(*) as count").Group("insurance_type").Scan(&byType).Error; err != nil {
		return nil, NewInternalError("failed to group quote requests by type", err)
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}

	return stats, nil
}

// validateQuotePayload applies the field rules and returns every
// violation found
func validateQuotePayload(p *QuoteSubmitPayload) validation.Violations {
	var v validation.Violations

	validation.Required(&v, "firstName", p.FirstName)
	validation.Length(&v, "firstName", p.FirstName, 2, 50)
	validation.Required(&v, "lastName", p.LastName)
	validation.Length(&v, "lastName", p.LastName, 2, 50)
	validation.Required(&v, "email", p.Email)
	validation.Email(&v, "email", p.Email)
	validation.Required(&v, "phone", p.Phone)
	validation.Phone(&v, "phone", p.Phone)
	validation.Required(&v, "insuranceType", p.InsuranceType)
	validation.OneOf(&v, "insuranceType", p.InsuranceType, domain.InsuranceTypes)
	validation.IntRange(&v, "age", p.Age, 18, 100)
	validation.Length(&v, "requirements", p.Requirements, 0, 2000)

	return v
}

// dispatchQuoteEmails sends the operator notification and the submitter
// acknowledgment. Runs outside the request; errors are logged only.
func (s *QuoteService) dispatchQuoteEmails(q *domain.QuoteRequest) {
	subject := fmt.Sprintf("New %s insurance quote request from %s %s", q.InsuranceType, q.FirstName, q.LastName)
	if err := s.mailer.SendHTMLEmail(s.adminEmail, subject, quoteNotificationHTML(q), quoteNotificationText(q)); err != nil {
		metrics.RecordEmailDispatch("notification", "failed")
		log.Printf("[QUOTE] Warning: failed to send notification email for id=%s: %v", q.ID, err)
	} else {
		metrics.RecordEmailDispatch("notification", "sent")
	}

	confirmSubject := "Your quote request - Harborview Insurance"
	if err := s.mailer.SendHTMLEmail(q.Email, confirmSubject, quoteConfirmationHTML(q), quoteConfirmationText(q)); err != nil {
		metrics.RecordEmailDispatch("confirmation", "failed")
		log.Printf("[QUOTE] Warning: failed to send confirmation email for id=%s: %v", q.ID, err)
	} else {
		metrics.RecordEmailDispatch("confirmation", "sent")
	}
}

func quoteNotificationText(q *domain.QuoteRequest) string {
	requirements := q.Requirements
	if requirements == "" {
		requirements = "Not provided"
	}
	return fmt.Sprintf(`New Quote Request

Name: %s %s
Email: %s
Phone: %s
Insurance Type: %s
Age: %d
Priority: %s
Submitted: %s

Requirements:
%s

Reference: %s`,
		q.FirstName, q.LastName, q.Email, q.Phone, q.InsuranceType, q.Age,
		q.Priority, q.CreatedAt.Format("January 2, 2006 at 3:04 PM"), requirements, q.ID)
}

func quoteNotificationHTML(q *domain.QuoteRequest) string {
	requirements := q.Requirements
	if requirements == "" {
		requirements = "Not provided"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>New Quote Request</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0F4C81;">New Quote Request</h2>
    <div style="background: #F8FAFC; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <p><strong>Name:</strong> %s %s</p>
      <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
      <p><strong>Phone:</strong> %s</p>
      <p><strong>Insurance Type:</strong> %s</p>
      <p><strong>Age:</strong> %d</p>
      <p><strong>Priority:</strong> %s</p>
      <p><strong>Submitted:</strong> %s</p>
    </div>
    <div style="background: #FFFFFF; padding: 20px; border-left: 4px solid #0F4C81; border-radius: 4px; margin: 20px 0;">
      <h3 style="color: #0D1A2D; margin-top: 0;">Requirements:</h3>
      <p style="white-space: pre-wrap;">%s</p>
    </div>
    <p style="color: #64748B; font-size: 14px;">Reference: %s</p>
  </div>
</body>
</html>`, q.FirstName, q.LastName, q.Email, q.Email, q.Phone, q.InsuranceType, q.Age,
		q.Priority, q.CreatedAt.Format("January 2, 2006 at 3:04 PM"), requirements, q.ID)
}

func quoteConfirmationText(q *domain.QuoteRequest) string {
	return fmt.Sprintf(`Hello %s,

Thank you for requesting a %s insurance quote from Harborview Insurance
Brokers. Our advisers are comparing offers from our partner carriers and
will send you a personalized quote within 24 hours.

Best regards,
Harborview Insurance Brokers`, q.FirstName, q.InsuranceType)
}

func quoteConfirmationHTML(q *domain.QuoteRequest) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Your quote request</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0F4C81;">Thank you, %s</h2>
    <p>We have received your <strong>%s insurance</strong> quote request. Our advisers are comparing offers from our partner carriers and will send you a personalized quote within <strong>24 hours</strong>.</p>
    <p style="color: #64748B; font-size: 14px; margin-top: 32px;">
      Best regards,<br>Harborview Insurance Brokers
    </p>
  </div>
</body>
</html>`, q.FirstName, q.InsuranceType)
}
