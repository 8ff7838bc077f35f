package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

const draftSubjectPrefixLen = 50

// EmailService sends email through a Mailer and records every attempt
type EmailService struct {
	mailer  ports.Mailer
	logRepo ports.EmailLogRepository
	from    string
	logger  *logger.Logger
	now     func() time.Time
}

// NewEmailService creates a new email service
func NewEmailService(mailer ports.Mailer, logRepo ports.EmailLogRepository, from string, logger *logger.Logger) *EmailService {
	return &EmailService{
		mailer:  mailer,
		logRepo: logRepo,
		from:    from,
		logger:  logger.WithComponent("email"),
		now:     time.Now,
	}
}

// SendEmail attempts delivery and records the outcome. Only a failure to
// record the attempt is returned as an error.
func (s *EmailService) SendEmail(ctx context.Context, userID uuid.UUID, req ports.SendEmailRequest) (*entities.EmailLog, error) {
	status := entities.EmailStatusSent

	err := s.mailer.Send(ctx, ports.EmailMessage{
		From:    s.from,
		To:      req.Recipient,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		status = entities.EmailStatusFailed
		s.logger.Warnw("Email delivery failed",
			"mailer", s.mailer.Name(),
			"user_id", userID,
			"recipient", req.Recipient,
			"error", err,
		)
	}

	owner := userID
	entry := &entities.EmailLog{
		UserID:    &owner,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
		Status:    status,
		SentAt:    s.now().UTC(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record email: %w", err)
	}

	if status == entities.EmailStatusSent {
		s.logger.Infow("Email sent", "mailer", s.mailer.Name(), "user_id", userID, "email_log_id", entry.ID)
	}
	return entry, nil
}

// DraftEmail builds a template draft from free-form context
func (s *EmailService) DraftEmail(_ context.Context, req ports.DraftEmailRequest) (*ports.EmailDraft, error) {
	text := strings.TrimSpace(req.Context)
	if text == "" {
		return nil, entities.Invalid("context is required")
	}

	subject := text
	if r := []rune(subject); len(r) > draftSubjectPrefixLen {
		subject = string(r[:draftSubjectPrefixLen])
	}

	greeting, closing := "Dear recipient,", "Best regards"
	switch req.Tone {
	case "friendly":
		greeting, closing = "Hi there,", "Cheers"
	case "casual":
		greeting, closing = "Hey,", "Thanks"
	}

	return &ports.EmailDraft{
		Subject: "Regarding: " + subject,
		Body: fmt.Sprintf("<p>%s</p><p>%s</p><p>%s</p>",
			greeting, html.EscapeString(text), closing),
	}, nil
}

// ListLogs lists the user's send attempts, newest first
func (s *EmailService) ListLogs(ctx context.Context, userID uuid.UUID, page ports.Page) ([]*entities.EmailLog, error) {
	logs, err := s.logRepo.List(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	return logs, nil
}
