package services

import (
	"fmt"
	"log"
	"net/smtp"

	"harborview/internal/config"
	apperrors "harborview/pkg/errors"
)

// Mailer is the mail-sending collaborator injected into the form
// services. Implementations must be safe for concurrent use.
type Mailer interface {
	SendHTMLEmail(to, subject, htmlBody, textBody string) error
	IsEnabled() bool
}

// EmailService sends multipart HTML emails over SMTP
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// IsEnabled returns whether email delivery is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}

// SendHTMLEmail sends an HTML email with plain text fallback. When the
// service is disabled (development mode) the message is logged instead.
func (s *EmailService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] Would send to %s: %s", to, subject)
		return nil
	}

	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return apperrors.New(apperrors.ErrCodeEmailDispatch, "email service not properly configured")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	// Multipart alternative: text part first, HTML part preferred
	boundary := "----=_NextPart_harborview"

	message := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
		"\r\n" +
		fmt.Sprintf("--%s\r\n", boundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		textBody + "\r\n"

	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, []byte(message)); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeEmailDispatch, "failed to send email", err)
	}

	return nil
}
