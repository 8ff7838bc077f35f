package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

func TestReminderService_CreateAndList(t *testing.T) {
	svc := NewReminderService(memory.New().Reminders, logger.NewNop())
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later, err := svc.CreateReminder(ctx, user, ports.CreateReminderRequest{Message: "  renew passport ", ReminderTime: base.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "renew passport", later.Message)
	assert.Equal(t, entities.ReminderStatusPending, later.Status)

	sooner, err := svc.CreateReminder(ctx, user, ports.CreateReminderRequest{Message: "water plants", ReminderTime: base})
	require.NoError(t, err)
	_, err = svc.CreateReminder(ctx, other, ports.CreateReminderRequest{Message: "not yours", ReminderTime: base})
	require.NoError(t, err)

	list, err := svc.ListReminders(ctx, user, ports.ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sooner.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)

	done := entities.ReminderStatusCompleted
	list, err = svc.ListReminders(ctx, user, ports.ReminderFilter{Status: &done})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetReminder(ctx, other, sooner.ID)
	assert.ErrorIs(t, err, entities.ErrReminderNotFound)
}

func TestReminderService_Rejects(t *testing.T) {
	svc := NewReminderService(memory.New().Reminders, logger.NewNop())
	ctx := context.Background()

	_, err := svc.CreateReminder(ctx, uuid.New(), ports.CreateReminderRequest{Message: "   ", ReminderTime: time.Now()})
	assert.ErrorIs(t, err, entities.ErrValidation)

	bogus := entities.ReminderStatus("snoozed")
	_, err = svc.ListReminders(ctx, uuid.New(), ports.ReminderFilter{Status: &bogus})
	assert.ErrorIs(t, err, entities.ErrValidation)
}
