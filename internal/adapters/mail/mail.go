package mail

import (
	"context"
	"fmt"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// New builds the mailer selected by cfg.Provider
func New(cfg config.EmailConfig, log *logger.Logger) (ports.Mailer, error) {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend api key is required")
		}
		return NewResend(cfg), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
		return NewSMTP(cfg), nil
	case "log", "":
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// Log records messages instead of sending them. For development.
type Log struct {
	logger *logger.Logger
}

// NewLog creates a log mailer
func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log.WithComponent("mail")}
}

// Name returns the mailer name
func (l *Log) Name() string { return "log" }

// Send logs msg and reports success
func (l *Log) Send(_ context.Context, msg ports.EmailMessage) error {
	l.logger.Infow("Email not sent (log provider)",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body_length", len(msg.Body),
	)
	return nil
}
