package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"todoapp/internal/service"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRequest represents the editable fields of a task.
type TaskRequest struct {
	Title       string `json:"title" form:"title" validate:"required,min=3,max=16"`
	Description string `json:"description" form:"description" validate:"required,min=5,max=100"`
	Priority    int    `json:"priority" form:"priority" validate:"required,min=1,max=5"`
	Complete    bool   `json:"complete" form:"complete"`
}

func (r TaskRequest) input() service.TaskInput {
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Complete:    r.Complete,
	}
}

// List godoc
// @Summary List the caller's tasks
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /todos [get]
func (h *TaskHandler) List(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	tasks, err := h.taskService.List(c.Request().Context(), identity)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// Get godoc
// @Summary Get one of the caller's tasks
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /todos/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return mapError(err)
	}

	task, err := h.taskService.Get(c.Request().Context(), identity, taskID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary Create a task owned by the caller
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TaskRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /todos [post]
func (h *TaskHandler) Create(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	var req TaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Request().Context(), identity, req.input())
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary Replace one of the caller's tasks
// @Tags todos
// @Accept json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body TaskRequest true "Task data"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /todos/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return mapError(err)
	}

	var req TaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.taskService.Update(c.Request().Context(), identity, taskID, req.input()); err != nil {
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete one of the caller's tasks
// @Tags todos
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /todos/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return mapError(err)
	}

	if err := h.taskService.Delete(c.Request().Context(), identity, taskID); err != nil {
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListAll godoc
// @Summary List every user's tasks
// @Description Requires the admin role.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/todos [get]
func (h *TaskHandler) ListAll(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return mapError(err)
	}

	tasks, err := h.taskService.ListAll(c.Request().Context(), identity)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}
