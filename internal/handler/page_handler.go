package handler

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"todoapp/internal/auth"
	"todoapp/internal/errors"
	"todoapp/internal/model"
	"todoapp/internal/service"
	"todoapp/internal/view"
)

// Page URLs.
const (
	LoginURL    = "/auth/login-page"
	RegisterURL = "/auth/register-page"
	TodoURL     = "/todos/todo-page"
)

// PageHandler serves the browser pages. Authenticated pages read the
// identity resolved from the credential cookie.
type PageHandler struct {
	authService service.AuthService
	taskService service.TaskService
	cookie      auth.CookieConfig
	logger      *slog.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(authService service.AuthService, taskService service.TaskService, cookie auth.CookieConfig, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		authService: authService,
		taskService: taskService,
		cookie:      cookie,
		logger:      logger,
	}
}

// LoginPage renders the login form.
func (h *PageHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.LoginPage, view.Page{})
}

// Login checks the submitted credentials and stores the token in the
// credential cookie.
func (h *PageHandler) Login(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return c.Render(http.StatusBadRequest, view.LoginPage, view.Page{Message: "Username and password are required"})
	}

	token, _, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidCredentials) {
			return c.Render(http.StatusUnauthorized, view.LoginPage, view.Page{Message: "Incorrect username or password"})
		}
		return h.fail(c, err)
	}

	auth.SetTokenCookie(c, h.cookie, token)
	return c.Redirect(http.StatusFound, TodoURL)
}

// Logout clears the credential cookie.
func (h *PageHandler) Logout(c echo.Context) error {
	auth.ClearTokenCookie(c, h.cookie)
	return c.Redirect(http.StatusFound, LoginURL)
}

// RegisterPage renders the registration form.
func (h *PageHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.RegisterPage, view.Page{})
}

// Register creates the account and sends the user to the login page.
func (h *PageHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.Render(http.StatusBadRequest, view.RegisterPage, view.Page{Message: "Invalid registration form"})
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, view.RegisterPage, view.Page{Message: "Password must be 5 to 72 characters"})
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			return c.Render(http.StatusConflict, view.RegisterPage, view.Page{Message: "Username is already taken"})
		}
		return h.fail(c, err)
	}

	return c.Redirect(http.StatusFound, LoginURL)
}

// TodoPage lists the caller's tasks.
func (h *PageHandler) TodoPage(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}

	tasks, err := h.taskService.List(c.Request().Context(), identity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, view.TodoPage, view.Page{Identity: &identity, Data: tasks})
}

// AddTodoPage renders the new task form.
func (h *PageHandler) AddTodoPage(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, view.AddTodoPage, view.Page{Identity: &identity})
}

// AddTodo creates a task from the submitted form.
func (h *PageHandler) AddTodo(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return c.Render(http.StatusBadRequest, view.AddTodoPage, view.Page{
			Identity: &identity,
			Message:  "Check the title, description and priority",
		})
	}

	if _, err := h.taskService.Create(c.Request().Context(), identity, req.input()); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, TodoURL)
}

// EditTodoPage renders the edit form for one of the caller's tasks.
func (h *PageHandler) EditTodoPage(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return h.fail(c, err)
	}

	task, err := h.taskService.Get(c.Request().Context(), identity, taskID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, view.EditTodoPage, view.Page{Identity: &identity, Data: task})
}

// EditTodo replaces one of the caller's tasks from the submitted form.
func (h *PageHandler) EditTodo(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return c.Render(http.StatusBadRequest, view.EditTodoPage, view.Page{
			Identity: &identity,
			Message:  "Check the title, description and priority",
			Data: &model.Task{
				ID:          taskID,
				Title:       req.Title,
				Description: req.Description,
				Priority:    req.Priority,
				Complete:    req.Complete,
			},
		})
	}

	if _, err := h.taskService.Update(c.Request().Context(), identity, taskID, req.input()); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, TodoURL)
}

// DeleteTodo removes one of the caller's tasks.
func (h *PageHandler) DeleteTodo(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return h.fail(c, err)
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.taskService.Delete(c.Request().Context(), identity, taskID); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, TodoURL)
}

// fail redirects unauthenticated callers to the login page and renders every
// other error as an error page with the mapped status. Unexpected errors are
// logged.
func (h *PageHandler) fail(c echo.Context, err error) error {
	if stderrors.Is(err, errors.ErrUnauthenticated) {
		auth.ClearTokenCookie(c, h.cookie)
		return c.Redirect(http.StatusFound, LoginURL)
	}

	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("page request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	page := view.Page{Message: httpErr.Message}
	if identity, ok := auth.IdentityFrom(c); ok {
		page.Identity = &identity
	}
	return c.Render(httpErr.StatusCode, view.ErrorPage, page)
}
