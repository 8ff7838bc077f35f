package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask creates a pending task
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.CreateTaskRequest true "Task"
// @Success 201 {object} Response{data=entities.Task}
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, task)
}

// ListTasks lists the caller's tasks, optionally filtered by status
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, completed or cancelled"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.Task]}
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := ports.TaskFilter{Page: page}
	if s := c.QueryParam("status"); s != "" {
		status := entities.TaskStatus(s)
		filter.Status = &status
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), CurrentUserID(c), filter)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, tasks, page)
}

// GetTask returns one task
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} Response{data=entities.Task}
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, task)
}

// UpdateTask applies a partial update
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} Response{data=entities.Task}
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), CurrentUserID(c), id, req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, task)
}

// CompleteTask marks a task completed
// @Summary Complete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} Response{data=entities.Task}
// @Failure 409 {object} ErrorResponse
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.CompleteTask(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, task)
}

// DeleteTask deletes a task
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} Response
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), CurrentUserID(c), id); err != nil {
		return domainError(err)
	}

	return respondMessage(c, "Task deleted")
}
