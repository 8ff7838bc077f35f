package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("Hello **world**")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello <strong>world</strong></p>", out)

	out, err = RenderHTML("  <p>Dear recipient,</p><p>Hi</p> ")
	require.NoError(t, err)
	assert.Equal(t, "<p>Dear recipient,</p><p>Hi</p>", out)
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Dear recipient,</p><p>Lunch at   <b>noon</b>?</p><p>Best regards</p>")
	assert.Equal(t, "Dear recipient,\nLunch at noon?\nBest regards", got)

	assert.Equal(t, "a < b", PlainText("a &lt; b"))
}

func TestCompose(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	raw, err := Compose(ports.EmailMessage{
		From:    "Assistant <assistant@example.com>",
		To:      "bob@example.com",
		Subject: "Lunch",
		Body:    "See you at **noon**.",
	}, now)
	require.NoError(t, err)

	r, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Lunch", subject)

	to, err := r.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "bob@example.com", to[0].Address)

	date, err := r.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(now))

	parts := map[string]string{}
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ct, _, _ := p.Header.(*gomail.InlineHeader).ContentType()
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		parts[ct] = string(body)
	}

	assert.Equal(t, "See you at noon.", strings.TrimSpace(parts["text/plain"]))
	assert.Contains(t, parts["text/html"], "<strong>noon</strong>")
}

func TestCompose_BadAddress(t *testing.T) {
	_, err := Compose(ports.EmailMessage{From: "not an address", To: "bob@example.com"}, time.Now())
	assert.Error(t, err)
}

func TestResend_Send(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	m := NewResend(config.EmailConfig{ResendAPIKey: "re_test", ResendURL: srv.URL})
	err := m.Send(context.Background(), ports.EmailMessage{
		From:    "assistant@example.com",
		To:      "bob@example.com",
		Subject: "Hi",
		Body:    "<p>Hello</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, []string{"bob@example.com"}, got.To)
	assert.Equal(t, "<p>Hello</p>", got.HTML)
	assert.Equal(t, "Hello", got.Text)
}

func TestResend_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	err := NewResend(config.EmailConfig{ResendURL: srv.URL}).Send(context.Background(), ports.EmailMessage{
		From: "a@example.com", To: "b@example.com", Subject: "s", Body: "b",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestSMTP_DialFailure(t *testing.T) {
	m := NewSMTP(config.EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1, SMTPStartTLS: true})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := m.Send(ctx, ports.EmailMessage{From: "a@example.com", To: "b@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial SMTP")
}

func TestNew(t *testing.T) {
	m, err := New(config.EmailConfig{Provider: "log"}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "log", m.Name())
	assert.NoError(t, m.Send(context.Background(), ports.EmailMessage{To: "x@example.com"}))

	_, err = New(config.EmailConfig{Provider: "resend"}, logger.NewNop())
	assert.Error(t, err)

	_, err = New(config.EmailConfig{Provider: "pigeon"}, logger.NewNop())
	assert.Error(t, err)
}
