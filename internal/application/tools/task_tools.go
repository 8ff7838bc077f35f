package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

type createTaskParams struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

type listTasksParams struct {
	Status string `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
}

type taskIDParams struct {
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
}

func taskTools(tasks ports.TaskService) []*Tool {
	return []*Tool{
		Define("create_task",
			"Create a new task or todo item",
			object(props(
				"title", str("Short task title (2-10 words)"),
				"description", str("Optional detailed description"),
				"priority", enum("Task priority (default: medium)", "low", "medium", "high"),
				"due_date", str("Due date in ISO format (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)"),
			), "title"),
			func(ctx context.Context, userID uuid.UUID, p *createTaskParams) (map[string]any, error) {
				task, err := tasks.CreateTask(ctx, userID, ports.CreateTaskRequest{
					Title:       p.Title,
					Description: p.Description,
					Priority:    entities.TaskPriority(p.Priority),
					DueDate:     p.DueDate,
				})
				if err != nil {
					return nil, err
				}
				return taskView(task), nil
			}),

		Define("list_tasks",
			"List all tasks or filter by status",
			object(props(
				"status", enum("Only return tasks with this status", "pending", "completed", "cancelled"),
			)),
			func(ctx context.Context, userID uuid.UUID, p *listTasksParams) (map[string]any, error) {
				var filter ports.TaskFilter
				if p.Status != "" {
					status := entities.TaskStatus(p.Status)
					filter.Status = &status
				}
				list, err := tasks.ListTasks(ctx, userID, filter)
				if err != nil {
					return nil, err
				}
				return map[string]any{"tasks": views(list, taskView), "count": len(list)}, nil
			}),

		Define("complete_task",
			"Mark a task as completed. Requires task ID - if user provides task name, use list_tasks first to get the ID.",
			object(props(
				"task_id", integer("Task ID (must be integer)"),
			), "task_id"),
			func(ctx context.Context, userID uuid.UUID, p *taskIDParams) (map[string]any, error) {
				task, err := tasks.CompleteTask(ctx, userID, p.TaskID)
				if err != nil {
					return nil, err
				}
				return taskView(task), nil
			}),

		Define("delete_task",
			"Delete a task by ID",
			object(props(
				"task_id", integer("Task ID"),
			), "task_id"),
			func(ctx context.Context, userID uuid.UUID, p *taskIDParams) (map[string]any, error) {
				if err := tasks.DeleteTask(ctx, userID, p.TaskID); err != nil {
					return nil, err
				}
				return deleted(p.TaskID, "Task deleted"), nil
			}),
	}
}
