package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/ports"
)

const defaultResendURL = "https://api.resend.com"

// Resend sends mail through the Resend HTTP API
type Resend struct {
	client *resty.Client
}

// NewResend creates a Resend mailer from cfg
func NewResend(cfg config.EmailConfig) *Resend {
	base := cfg.ResendURL
	if base == "" {
		base = defaultResendURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.ResendAPIKey).
		SetTimeout(timeout)

	return &Resend{client: c}
}

// Name returns the mailer name
func (r *Resend) Name() string { return "resend" }

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send delivers msg
func (r *Resend) Send(ctx context.Context, msg ports.EmailMessage) error {
	htmlBody, err := RenderHTML(msg.Body)
	if err != nil {
		return err
	}

	var out resendResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&resendRequest{
			From:    msg.From,
			To:      []string{msg.To},
			Subject: msg.Subject,
			HTML:    htmlBody,
			Text:    PlainText(htmlBody),
		}).
		SetResult(&out).
		SetError(&out).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	if resp.IsError() {
		if out.Message != "" {
			return fmt.Errorf("resend status %d: %s", resp.StatusCode(), out.Message)
		}
		return fmt.Errorf("resend status %d", resp.StatusCode())
	}
	if out.ID == "" {
		return fmt.Errorf("resend accepted the message without an id")
	}
	return nil
}
