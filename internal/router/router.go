package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"todoapp/internal/auth"
	"todoapp/internal/handler"
)

// Handlers groups the handlers served by the router.
type Handlers struct {
	Auth *handler.AuthHandler
	Task *handler.TaskHandler
	User *handler.UserHandler
	Page *handler.PageHandler
}

// Register wires routes and middleware. API routes authenticate from the
// Authorization header and page routes from the credential cookie.
func Register(
	e *echo.Echo,
	logger *slog.Logger,
	resolver *auth.Resolver,
	cookie auth.CookieConfig,
	h Handlers,
) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, handler.TodoURL)
	})
	e.GET("/healthy", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/token", h.Auth.Token)

	// Secured routes (require a bearer token)
	secured := api.Group("", auth.APIMiddleware(resolver))

	secured.GET("/todos", h.Task.List)
	secured.POST("/todos", h.Task.Create)
	secured.GET("/todos/:id", h.Task.Get)
	secured.PUT("/todos/:id", h.Task.Update)
	secured.DELETE("/todos/:id", h.Task.Delete)

	secured.GET("/admin/todos", h.Task.ListAll)

	secured.GET("/users/me", h.User.Me)
	secured.PUT("/users/password", h.User.ChangePassword)
	secured.PUT("/users/phone-number", h.User.ChangePhoneNumber)

	// Pages
	e.GET(handler.LoginURL, h.Page.LoginPage)
	e.POST(handler.LoginURL, h.Page.Login)
	e.GET(handler.RegisterURL, h.Page.RegisterPage)
	e.POST(handler.RegisterURL, h.Page.Register)
	e.GET("/auth/logout", h.Page.Logout)

	pages := e.Group("/todos", auth.PageMiddleware(resolver, cookie, handler.LoginURL))
	pages.GET("/todo-page", h.Page.TodoPage)
	pages.GET("/add-todo-page", h.Page.AddTodoPage)
	pages.POST("/add-todo-page", h.Page.AddTodo)
	pages.GET("/edit-todo-page/:id", h.Page.EditTodoPage)
	pages.POST("/edit-todo-page/:id", h.Page.EditTodo)
	pages.POST("/delete-todo/:id", h.Page.DeleteTodo)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
