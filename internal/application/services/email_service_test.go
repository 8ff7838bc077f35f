package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

func TestEmailService_SendRecordsOutcome(t *testing.T) {
	repos := memory.New()
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, repos.EmailLogs, "assistant@example.com", logger.NewNop())
	ctx := context.Background()
	user := uuid.New()

	req := ports.SendEmailRequest{Recipient: "bob@example.com", Subject: "Hi", Body: "**hello**"}

	sent, err := svc.SendEmail(ctx, user, req)
	require.NoError(t, err)
	assert.Equal(t, entities.EmailStatusSent, sent.Status)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "assistant@example.com", mailer.sent[0].From)
	assert.Equal(t, "bob@example.com", mailer.sent[0].To)

	mailer.err = errUpstream
	failed, err := svc.SendEmail(ctx, user, req)
	require.NoError(t, err)
	assert.Equal(t, entities.EmailStatusFailed, failed.Status)

	logs, err := svc.ListLogs(ctx, user, ports.Page{})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	others, err := svc.ListLogs(ctx, uuid.New(), ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestEmailService_Draft(t *testing.T) {
	svc := NewEmailService(&fakeMailer{}, memory.New().EmailLogs, "", logger.NewNop())

	context60 := strings.Repeat("x", 60)
	draft, err := svc.DraftEmail(context.Background(), ports.DraftEmailRequest{Context: context60})
	require.NoError(t, err)
	assert.Equal(t, "Regarding: "+strings.Repeat("x", 50), draft.Subject)
	assert.Contains(t, draft.Body, "Dear recipient,")

	casual, err := svc.DraftEmail(context.Background(), ports.DraftEmailRequest{Context: "lunch <friday>", Tone: "casual"})
	require.NoError(t, err)
	assert.Contains(t, casual.Body, "Hey,")
	assert.Contains(t, casual.Body, "lunch &lt;friday&gt;")

	_, err = svc.DraftEmail(context.Background(), ports.DraftEmailRequest{Context: " "})
	assert.Error(t, err)
}
