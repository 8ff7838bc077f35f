package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger.WithComponent("tasks"),
		now:      time.Now,
	}
}

// CreateTask creates a new pending task owned by userID
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	priority := req.Priority
	if priority == "" {
		priority = entities.TaskPriorityMedium
	}
	if !entities.IsValidPriority(priority) {
		return nil, entities.Invalid("invalid priority %q", priority)
	}

	task := &entities.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    priority,
		Status:      entities.TaskStatusPending,
		DueDate:     req.DueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created successfully", "task_id", task.ID, "user_id", userID)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, userID, id)
}

// UpdateTask updates a task's information
func (s *TaskService) UpdateTask(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		if !entities.IsValidPriority(*req.Priority) {
			return nil, entities.Invalid("invalid priority %q", *req.Priority)
		}
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		if !entities.IsValidTaskStatus(*req.Status) {
			return nil, entities.Invalid("invalid status %q", *req.Status)
		}
		task.ApplyStatus(*req.Status, s.now())
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated successfully", "task_id", task.ID, "user_id", userID)

	return task, nil
}

// CompleteTask marks a pending task completed. Completing a task that is
// already completed returns it unchanged.
func (s *TaskService) CompleteTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	task, err := s.taskRepo.Complete(ctx, userID, id, s.now())
	if err == nil {
		s.logger.Infow("Task completed", "task_id", id, "user_id", userID)
		return task, nil
	}
	if !errors.Is(err, entities.ErrTaskNotPending) {
		return nil, err
	}

	task, err = s.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if task.Status == entities.TaskStatusCompleted {
		return task, nil
	}
	return nil, entities.ErrTaskNotPending
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.taskRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Infow("Task deleted successfully", "task_id", id, "user_id", userID)
	return nil
}

// ListTasks lists the user's tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	if filter.Status != nil && !entities.IsValidTaskStatus(*filter.Status) {
		return nil, entities.Invalid("invalid status %q", *filter.Status)
	}

	tasks, err := s.taskRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}
