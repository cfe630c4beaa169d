package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todoapp/internal/auth"
	"todoapp/internal/errors"
	"todoapp/internal/handler"
	"todoapp/internal/model"
	"todoapp/internal/policy"
	"todoapp/internal/repository/repositorytest"
	"todoapp/internal/service"
	"todoapp/internal/view"
)

const testSecret = "router-test-secret"

type testApp struct {
	e      *echo.Echo
	users  *repositorytest.Users
	hasher *auth.Hasher
	cookie auth.CookieConfig
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher, err := auth.NewHasher(auth.HasherConfig{Cost: bcrypt.MinCost})
	require.NoError(t, err)
	issuer, err := auth.NewIssuer(testSecret, time.Minute)
	require.NoError(t, err)
	validator, err := auth.NewValidator(testSecret)
	require.NoError(t, err)
	resolver := auth.NewResolver(validator, logger)
	cookie := auth.CookieConfig{Name: "access_token", TTL: issuer.TTL()}

	users := repositorytest.NewUsers()
	tasks := repositorytest.NewTasks()

	authService := service.NewAuthService(users, hasher, issuer)
	taskService := service.NewTaskService(policy.New(tasks))
	userService := service.NewUserService(users, hasher, nil)

	renderer, err := view.New()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	Register(e, logger, resolver, cookie, Handlers{
		Auth: handler.NewAuthHandler(authService),
		Task: handler.NewTaskHandler(taskService),
		User: handler.NewUserHandler(userService),
		Page: handler.NewPageHandler(authService, taskService, cookie, logger),
	})

	return &testApp{e: e, users: users, hasher: hasher, cookie: cookie}
}

func (a *testApp) do(method, path, contentType, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doJSON(method, path, body, token string) *httptest.ResponseRecorder {
	return a.do(method, path, echo.MIMEApplicationJSON, body, token)
}

func (a *testApp) register(t *testing.T, username, password string) {
	t.Helper()
	rec := a.doJSON(http.MethodPost, "/api/auth/register",
		fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testApp) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	return a.do(http.MethodPost, "/api/auth/token", echo.MIMEApplicationForm, form.Encode(), "")
}

func (a *testApp) token(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.login(username, password)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (a *testApp) createTask(t *testing.T, token, title string) model.Task {
	t.Helper()
	rec := a.doJSON(http.MethodPost, "/api/todos",
		fmt.Sprintf(`{"title":%q,"description":"milk and eggs","priority":3,"complete":false}`, title), token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	return tasks
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestTaskLifecycleAndIsolation(t *testing.T) {
	app := newTestApp(t)

	app.register(t, "alice", "pw12345")
	aliceToken := app.token(t, "alice", "pw12345")

	created := app.createTask(t, aliceToken, "groceries")
	assert.NotZero(t, created.ID)
	assert.False(t, created.Complete)

	rec := app.doJSON(http.MethodGet, "/api/todos", "", aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeTasks(t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, "groceries", tasks[0].Title)
	assert.Equal(t, 3, tasks[0].Priority)

	app.register(t, "bob", "hunter22")
	bobToken := app.token(t, "bob", "hunter22")

	rec = app.doJSON(http.MethodGet, "/api/todos", "", bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeTasks(t, rec))

	bobTask := app.createTask(t, bobToken, "laundry")
	bobTaskPath := fmt.Sprintf("/api/todos/%d", bobTask.ID)

	t.Run("foreign task is not found", func(t *testing.T) {
		rec := app.doJSON(http.MethodGet, bobTaskPath, "", aliceToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "TASK_NOT_FOUND", errorCode(t, rec))

		rec = app.doJSON(http.MethodPut, bobTaskPath,
			`{"title":"hijacked","description":"not yours","priority":1,"complete":true}`, aliceToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.doJSON(http.MethodDelete, bobTaskPath, "", aliceToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.doJSON(http.MethodGet, bobTaskPath, "", bobToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var task model.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
		assert.Equal(t, "laundry", task.Title)
	})

	t.Run("owner updates and deletes", func(t *testing.T) {
		path := fmt.Sprintf("/api/todos/%d", created.ID)
		rec := app.doJSON(http.MethodPut, path,
			`{"title":"groceries","description":"milk, eggs, bread","priority":5,"complete":true}`, aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = app.doJSON(http.MethodGet, path, "", aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var task model.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
		assert.True(t, task.Complete)
		assert.Equal(t, 5, task.Priority)
		assert.Equal(t, created.OwnerID, task.OwnerID)

		rec = app.doJSON(http.MethodDelete, path, "", aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.doJSON(http.MethodGet, path, "", aliceToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid task is rejected", func(t *testing.T) {
		rec := app.doJSON(http.MethodPost, "/api/todos",
			`{"title":"ab","description":"milk and eggs","priority":3}`, aliceToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
		var body errors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, strings.HasPrefix(body.Error, "validation failed: "), body.Error)

		rec = app.doJSON(http.MethodPost, "/api/todos",
			`{"title":"groceries","description":"milk and eggs","priority":6}`, aliceToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = app.doJSON(http.MethodGet, "/api/todos/abc", "", aliceToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", errorCode(t, rec))
	})
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw12345")

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		rec := app.doJSON(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"other123"}`, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "USER_ALREADY_EXISTS", errorCode(t, rec))
	})

	t.Run("registration never exposes the hash", func(t *testing.T) {
		rec := app.doJSON(http.MethodPost, "/api/auth/register", `{"username":"carol","password":"pw12345"}`, "")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "hashed_password")
		assert.NotContains(t, rec.Body.String(), "$2a$")
		assert.Contains(t, rec.Body.String(), `"role":"user"`)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		rec := app.doJSON(http.MethodPost, "/api/auth/register", `{"username":"dave","password":"pw1"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad credentials are indistinguishable", func(t *testing.T) {
		wrongPassword := app.login("alice", "wrong-password")
		unknownUser := app.login("nobody", "pw12345")

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, wrongPassword))
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		rec := app.doJSON(http.MethodGet, "/api/todos", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
		assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))

		rec = app.doJSON(http.MethodGet, "/api/todos", "", "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token from another key is rejected", func(t *testing.T) {
		issuer, err := auth.NewIssuer("some-other-secret", time.Minute)
		require.NoError(t, err)
		forged, err := issuer.Issue(auth.Identity{ID: 1, Username: "alice", Role: model.RoleAdmin})
		require.NoError(t, err)

		rec := app.doJSON(http.MethodGet, "/api/admin/todos", "", forged)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordChange(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw12345")
	token := app.token(t, "alice", "pw12345")

	rec := app.doJSON(http.MethodPut, "/api/users/password", `{"new_password":"abc"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(http.MethodPut, "/api/users/password", `{"new_password":"newpass1"}`, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = app.login("alice", "pw12345")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	app.token(t, "alice", "newpass1")
}

func TestUserProfile(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw12345")
	token := app.token(t, "alice", "pw12345")

	rec := app.doJSON(http.MethodPut, "/api/users/phone-number", `{"phone_number":100}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.doJSON(http.MethodPut, "/api/users/phone-number", `{"phone_number":5551234}`, token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = app.doJSON(http.MethodGet, "/api/users/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.PhoneNumber)
	assert.Equal(t, "5551234", *user.PhoneNumber)
	assert.Empty(t, user.HashedPassword)
}

func TestAdminListing(t *testing.T) {
	app := newTestApp(t)

	app.register(t, "alice", "pw12345")
	aliceToken := app.token(t, "alice", "pw12345")
	app.createTask(t, aliceToken, "groceries")

	app.register(t, "bob", "hunter22")
	bobToken := app.token(t, "bob", "hunter22")
	app.createTask(t, bobToken, "laundry")

	rec := app.doJSON(http.MethodGet, "/api/admin/todos", "", aliceToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	hash, err := app.hasher.Hash("rootpass")
	require.NoError(t, err)
	require.NoError(t, app.users.Create(context.Background(), &model.User{
		Username:       "root",
		HashedPassword: hash,
		Role:           model.RoleAdmin,
	}))
	adminToken := app.token(t, "root", "rootpass")

	rec = app.doJSON(http.MethodGet, "/api/admin/todos", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeTasks(t, rec), 2)

	// the admin role does not widen the owner-scoped listing
	rec = app.doJSON(http.MethodGet, "/api/todos", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeTasks(t, rec))
}

func TestPages(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "pw12345")
	aliceToken := app.token(t, "alice", "pw12345")
	task := app.createTask(t, aliceToken, "groceries")

	pageRequest := func(method, path, form string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(form))
		if form != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		app.e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health and root", func(t *testing.T) {
		rec := pageRequest(http.MethodGet, "/healthy", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

		rec = pageRequest(http.MethodGet, "/", "", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, handler.TodoURL, rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("unauthenticated page redirects to login", func(t *testing.T) {
		rec := pageRequest(http.MethodGet, handler.TodoURL, "", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, handler.LoginURL, rec.Header().Get(echo.HeaderLocation))

		// a bearer header does not authenticate page routes
		req := httptest.NewRequest(http.MethodGet, handler.TodoURL, nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+aliceToken)
		rec = httptest.NewRecorder()
		app.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("wrong password re-renders login", func(t *testing.T) {
		rec := pageRequest(http.MethodPost, handler.LoginURL, "username=alice&password=nope12", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Incorrect username or password")
		assert.Empty(t, rec.Result().Cookies())
	})

	rec := pageRequest(http.MethodPost, handler.LoginURL, "username=alice&password=pw12345", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, handler.TodoURL, rec.Header().Get(echo.HeaderLocation))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == app.cookie.Name {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	t.Run("todo page lists own tasks", func(t *testing.T) {
		rec := pageRequest(http.MethodGet, handler.TodoURL, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "groceries")
		assert.Contains(t, rec.Body.String(), "Signed in as alice")
	})

	t.Run("add, edit and delete through forms", func(t *testing.T) {
		rec := pageRequest(http.MethodPost, "/todos/add-todo-page",
			"title=laundry&description=whites+and+darks&priority=2", cookie)
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

		editPath := fmt.Sprintf("/todos/edit-todo-page/%d", task.ID)
		rec = pageRequest(http.MethodGet, editPath, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "milk and eggs")

		rec = pageRequest(http.MethodPost, editPath,
			"title=groceries&description=milk+and+bread&priority=4&complete=true", cookie)
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

		rec = app.doJSON(http.MethodGet, fmt.Sprintf("/api/todos/%d", task.ID), "", aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated model.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "milk and bread", updated.Description)
		assert.True(t, updated.Complete)

		rec = pageRequest(http.MethodPost, fmt.Sprintf("/todos/delete-todo/%d", task.ID), "", cookie)
		require.Equal(t, http.StatusFound, rec.Code)

		rec = pageRequest(http.MethodGet, editPath, "", cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
		assert.Contains(t, rec.Body.String(), "task not found")
	})

	t.Run("bad task id renders an error page", func(t *testing.T) {
		for _, path := range []string{"/todos/edit-todo-page/abc", "/todos/edit-todo-page/0"} {
			rec := pageRequest(http.MethodGet, path, "", cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML, path)
			assert.Contains(t, rec.Body.String(), "invalid task ID", path)
		}

		rec := pageRequest(http.MethodPost, "/todos/delete-todo/abc", "", cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		rec := pageRequest(http.MethodGet, "/auth/logout", "", cookie)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, handler.LoginURL, rec.Header().Get(echo.HeaderLocation))

		cleared := rec.Result().Cookies()
		require.NotEmpty(t, cleared)
		assert.Equal(t, app.cookie.Name, cleared[0].Name)
		assert.Less(t, cleared[0].MaxAge, 0)
	})
}
