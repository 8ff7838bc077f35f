package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/notify"
	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/application/assistant"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/application/tools"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

type fakeMailer struct {
	err  error
	sent []ports.EmailMessage
}

func (m *fakeMailer) Name() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixedRates struct{ rate float64 }

func (r fixedRates) Convert(_ context.Context, amount float64, from, to string) (*ports.Conversion, error) {
	return &ports.Conversion{
		Amount:          amount,
		FromCurrency:    from,
		ToCurrency:      to,
		ConvertedAmount: amount * r.rate,
		Rate:            r.rate,
	}, nil
}

type cannedSearch struct{}

func (cannedSearch) Name() string { return "canned" }

func (cannedSearch) Search(_ context.Context, query string, _ int) ([]ports.SearchResult, error) {
	return []ports.SearchResult{
		{Title: "Go", URL: "https://go.dev", Snippet: "The Go programming language."},
	}, nil
}

type echoChat struct{}

func (echoChat) Chat(_ context.Context, _ uuid.UUID, req ports.ChatRequest) (*ports.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, assistant.ErrEmptyMessage
	}
	return &ports.ChatResponse{Response: "You said: " + req.Message}, nil
}

type testAPI struct {
	e             *echo.Echo
	mailer        *fakeMailer
	hub           *notify.Hub
	notifications *services.NotificationService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repos := memory.New()
	log := logger.NewNop()
	jwtCfg := config.JWTConfig{
		Secret:           "test-secret-that-is-long-enough",
		ExpiresIn:        30 * time.Minute,
		RefreshExpiresIn: 7 * 24 * time.Hour,
		Issuer:           "assistant-test",
	}

	authService := services.NewAuthService(repos.Users, repos.Auth, jwtCfg, log)
	userService := services.NewUserService(repos.Users, repos.Auth, log)
	taskService := services.NewTaskService(repos.Tasks, log)
	noteService := services.NewNoteService(repos.Notes, log)
	eventService := services.NewEventService(repos.Events, log)
	timerService := services.NewTimerService(repos.Timers, log)
	reminderService := services.NewReminderService(repos.Reminders, log)
	mailer := &fakeMailer{}
	emailService := services.NewEmailService(mailer, repos.EmailLogs, "assistant@example.com", log)
	searchService := services.NewSearchService(cannedSearch{}, log)
	calculatorService := services.NewCalculatorService(fixedRates{rate: 0.5}, log)
	hub := notify.NewHub(log)
	t.Cleanup(hub.Close)
	notificationService := services.NewNotificationService(repos.Notifications, hub, log)

	dispatcher := tools.New(tools.Services{
		Tasks:      taskService,
		Notes:      noteService,
		Events:     eventService,
		Timers:     timerService,
		Email:      emailService,
		Search:     searchService,
		Calculator: calculatorService,
	}, nil, log)

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)

	handlers := &Handlers{
		Auth:          NewAuthHandler(authService, userService, log),
		Tasks:         NewTaskHandler(taskService, log),
		Notes:         NewNoteHandler(noteService, log),
		Events:        NewEventHandler(eventService, log),
		Timers:        NewTimerHandler(timerService, log),
		Reminders:     NewReminderHandler(reminderService, log),
		Email:         NewEmailHandler(emailService, log),
		Notifications: NewNotificationHandler(notificationService, hub, authService, log),
		Assistant:     NewAssistantHandler(echoChat{}, dispatcher, searchService, calculatorService, log),
	}
	handlers.Register(e, RequireAuth(authService, log))

	return &testAPI{e: e, mailer: mailer, hub: hub, notifications: notificationService}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, APIPrefix+path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (a *testAPI) signup(t *testing.T, email string) ports.AuthResponse {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	return decodeData[ports.AuthResponse](t, env)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	tokens := api.signup(t, "ada@example.com")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	code, env := api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Again", "email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Error)

	code, _ = api.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = api.do(t, http.MethodGet, "/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	me := decodeData[map[string]interface{}](t, env)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	code, env = api.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	rotated := decodeData[ports.AuthResponse](t, env)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	code, _ = api.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = api.do(t, http.MethodPost, "/auth/logout", rotated.AccessToken, map[string]string{"refresh_token": rotated.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logged out successfully", env.Message)

	code, _ = api.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not authenticated", env.Error)

	code, env = api.do(t, http.MethodGet, "/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "val@example.com").AccessToken

	code, env := api.do(t, http.MethodPost, "/tasks", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation failed", env.Error)
	assert.Contains(t, env.Details, "Title")

	code, env = api.do(t, http.MethodGet, "/tasks/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid id", env.Error)

	code, _ = api.do(t, http.MethodGet, "/tasks?limit=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTaskRoutes(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signup(t, "owner@example.com").AccessToken
	other := api.signup(t, "other@example.com").AccessToken

	code, env := api.do(t, http.MethodPost, "/tasks", owner, map[string]string{"title": "Buy milk", "priority": "high"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	task := decodeData[map[string]interface{}](t, env)
	assert.Equal(t, "pending", task["status"])
	assert.Equal(t, "high", task["priority"])
	path := "/tasks/" + jsonID(task)

	code, env = api.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "task not found", env.Error)

	code, env = api.do(t, http.MethodPut, path, owner, map[string]string{"title": "Buy oat milk"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Buy oat milk", decodeData[map[string]interface{}](t, env)["title"])

	code, env = api.do(t, http.MethodPost, path+"/complete", owner, nil)
	require.Equal(t, http.StatusOK, code)
	completed := decodeData[map[string]interface{}](t, env)
	assert.Equal(t, "completed", completed["status"])
	assert.NotNil(t, completed["completed_at"])

	code, _ = api.do(t, http.MethodPost, path+"/complete", owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.do(t, http.MethodGet, "/tasks?status=pending", owner, nil)
	require.Equal(t, http.StatusOK, code)
	page := decodeData[PaginatedResponse[map[string]interface{}]](t, env)
	assert.Empty(t, page.Items)
	assert.Equal(t, 100, page.Limit)

	code, env = api.do(t, http.MethodGet, "/tasks?status=completed", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decodeData[PaginatedResponse[map[string]interface{}]](t, env).Count)

	code, _ = api.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNoteRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "notes@example.com").AccessToken

	code, _ := api.do(t, http.MethodPost, "/notes", token, map[string]string{"content": "Project kickoff agenda", "tags": "work, meetings"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = api.do(t, http.MethodPost, "/notes", token, map[string]string{"content": "Grocery list"})
	require.Equal(t, http.StatusCreated, code)

	code, env := api.do(t, http.MethodGet, "/notes/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "q or tags is required", env.Error)

	code, env = api.do(t, http.MethodGet, "/notes/search?q=KICKOFF", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]map[string]interface{}](t, env), 1)

	code, env = api.do(t, http.MethodGet, "/notes/search?tags=meetings", token, nil)
	require.Equal(t, http.StatusOK, code)
	found := decodeData[[]map[string]interface{}](t, env)
	require.Len(t, found, 1)
	assert.Equal(t, "work,meetings", found[0]["tags"])

	code, env = api.do(t, http.MethodPut, "/notes/"+jsonID(found[0]), token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "content must not be empty", env.Error)
}

func TestEventAndTimerRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "cal@example.com").AccessToken

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	code, env := api.do(t, http.MethodPost, "/events", token, map[string]interface{}{
		"title":      "Backwards",
		"start_time": start,
		"end_time":   start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "end_time must not be before start_time", env.Error)

	code, _ = api.do(t, http.MethodGet, "/events?start=tomorrow", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodPost, "/timers/timer", token, map[string]interface{}{"duration_seconds": 300, "label": "tea"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	timer := decodeData[map[string]interface{}](t, env)
	assert.Equal(t, "active", timer["status"])
	path := "/timers/" + jsonID(timer)

	code, env = api.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", decodeData[map[string]interface{}](t, env)["status"])

	code, env = api.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "timer is not active", env.Error)

	code, _ = api.do(t, http.MethodPost, "/timers/alarm", token, map[string]interface{}{
		"trigger_time": time.Now().Add(-time.Hour).UTC(),
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReminderRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "remind@example.com").AccessToken
	other := api.signup(t, "other@example.com").AccessToken

	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	code, env := api.do(t, http.MethodPost, "/reminders", token, map[string]interface{}{
		"message":       "Call mom",
		"reminder_time": at,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	reminder := decodeData[map[string]interface{}](t, env)
	assert.Equal(t, "pending", reminder["status"])
	path := "/reminders/" + jsonID(reminder)

	code, _ = api.do(t, http.MethodPost, "/reminders", token, map[string]interface{}{"reminder_time": at})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodGet, "/reminders?status=pending", token, nil)
	require.Equal(t, http.StatusOK, code)
	list := decodeData[PaginatedResponse[map[string]interface{}]](t, env)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Call mom", list.Items[0]["message"])

	code, env = api.do(t, http.MethodGet, "/reminders?status=completed", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeData[PaginatedResponse[map[string]interface{}]](t, env).Items)

	code, _ = api.do(t, http.MethodGet, "/reminders?status=snoozed", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodGet, "/reminders", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decodeData[PaginatedResponse[map[string]interface{}]](t, env).Items)

	code, _ = api.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestEmailRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "mail@example.com").AccessToken
	msg := map[string]string{"recipient": "bob@example.com", "subject": "Hi", "body": "**Hello**"}

	code, env := api.do(t, http.MethodPost, "/email/send", token, msg)
	require.Equal(t, http.StatusCreated, code, env.Error)
	assert.Equal(t, "sent", decodeData[map[string]interface{}](t, env)["status"])
	require.Len(t, api.mailer.sent, 1)
	assert.Equal(t, "assistant@example.com", api.mailer.sent[0].From)

	api.mailer.err = errors.New("smtp down")
	code, env = api.do(t, http.MethodPost, "/email/send", token, msg)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Email delivery failed; the attempt was logged", env.Error)

	code, env = api.do(t, http.MethodGet, "/email/logs", token, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decodeData[PaginatedResponse[map[string]interface{}]](t, env)
	require.Len(t, logs.Items, 2)
	assert.Equal(t, "failed", logs.Items[0]["status"])

	code, env = api.do(t, http.MethodPost, "/email/draft", token, map[string]string{"context": "Lunch next week", "tone": "friendly"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Regarding: Lunch next week", decodeData[ports.EmailDraft](t, env).Subject)
}

func TestAssistantRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "chat@example.com").AccessToken

	code, env := api.do(t, http.MethodPost, "/chat", token, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You said: hello", decodeData[ports.ChatResponse](t, env).Response)

	code, env = api.do(t, http.MethodPost, "/chat", token, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "message is required", env.Error)

	code, env = api.do(t, http.MethodGet, "/chat/tools", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[[]ports.ToolSpec](t, env), 19)

	code, env = api.do(t, http.MethodPost, "/calculator/calculate", token, map[string]string{"expression": "2 + 2 * 3"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, decodeData[map[string]interface{}](t, env)["result"])

	code, env = api.do(t, http.MethodPost, "/calculator/calculate", token, map[string]string{"expression": "1 / 0"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "division by zero")

	code, env = api.do(t, http.MethodPost, "/calculator/convert", token, map[string]interface{}{
		"amount": 10, "from_currency": "USD", "to_currency": "EUR",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5.0, decodeData[ports.Conversion](t, env).ConvertedAmount)

	code, env = api.do(t, http.MethodPost, "/search", token, map[string]string{"query": "golang"})
	require.Equal(t, http.StatusOK, code)
	result := decodeData[ports.SearchResponse](t, env)
	assert.Equal(t, []string{"https://go.dev"}, result.Sources)
}

func TestNotificationSocket(t *testing.T) {
	api := newTestAPI(t)
	tokens := api.signup(t, "ws@example.com")
	srv := httptest.NewServer(api.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokens.AccessToken, nil)
	require.NoError(t, err)
	defer conn.Close()

	userID := tokens.User.ID
	require.Eventually(t, func() bool { return api.hub.Connections(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	published, err := api.notifications.Publish(context.Background(), userID, "⏰ Timer finished: tea")
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame notify.Message
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, published.ID, frame.ID)
	assert.Equal(t, "⏰ Timer finished: tea", frame.Message)

	code, env := api.do(t, http.MethodGet, "/notifications?unread=true", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decodeData[PaginatedResponse[map[string]interface{}]](t, env).Count)

	code, _ = api.do(t, http.MethodPost, "/notifications/"+published.ID.String()+"/read", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(t, http.MethodGet, "/notifications?unread=true", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, decodeData[PaginatedResponse[map[string]interface{}]](t, env).Count)

	code, _ = api.do(t, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func jsonID(v map[string]interface{}) string {
	return fmt.Sprintf("%.0f", v["id"].(float64))
}
