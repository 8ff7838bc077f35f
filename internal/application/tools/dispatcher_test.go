package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
	err  error
}

func (m *fakeMailer) Name() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeSearch struct{ results []ports.SearchResult }

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, _ string, _ int) ([]ports.SearchResult, error) {
	return f.results, nil
}

type fakeRates struct{}

func (fakeRates) Convert(_ context.Context, amount float64, from, to string) (*ports.Conversion, error) {
	return &ports.Conversion{Amount: amount, FromCurrency: from, ToCurrency: to, ConvertedAmount: amount * 2, Rate: 2}, nil
}

type fixture struct {
	d       *Dispatcher
	mailer  *fakeMailer
	repos   *ports.Repositories
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	repos := memory.New()
	mailer := &fakeMailer{}
	search := &fakeSearch{}
	for i := 1; i <= 5; i++ {
		search.results = append(search.results, ports.SearchResult{
			Title:   fmt.Sprintf("Result %d", i),
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Snippet: fmt.Sprintf("snippet %d", i),
		})
	}
	m := metrics.New()

	d := New(Services{
		Tasks:      services.NewTaskService(repos.Tasks, log),
		Notes:      services.NewNoteService(repos.Notes, log),
		Events:     services.NewEventService(repos.Events, log),
		Timers:     services.NewTimerService(repos.Timers, log),
		Email:      services.NewEmailService(mailer, repos.EmailLogs, "assistant@example.com", log),
		Search:     services.NewSearchService(search, log),
		Calculator: services.NewCalculatorService(fakeRates{}, log),
	}, m, log)

	return &fixture{d: d, mailer: mailer, repos: repos, metrics: m}
}

func (f *fixture) ok(t *testing.T, user uuid.UUID, tool string, params map[string]any) map[string]any {
	t.Helper()
	res := f.d.Dispatch(context.Background(), tool, params, user)
	require.Truef(t, res.Success, "%s failed: %s", tool, res.Error)
	assertEnvelope(t, res)
	return res.Data
}

func (f *fixture) fail(t *testing.T, user uuid.UUID, tool string, params map[string]any) string {
	t.Helper()
	res := f.d.Dispatch(context.Background(), tool, params, user)
	require.Falsef(t, res.Success, "%s unexpectedly succeeded: %v", tool, res.Data)
	assertEnvelope(t, res)
	return res.Error
}

func assertEnvelope(t *testing.T, res ports.ToolResult) {
	t.Helper()
	if res.Success {
		assert.NotNil(t, res.Data)
		assert.Empty(t, res.Error)
	} else {
		assert.NotEmpty(t, res.Error)
		assert.Empty(t, res.Data)
	}
}

func idOf(t *testing.T, data map[string]any) int64 {
	t.Helper()
	id, ok := data["id"].(int64)
	require.True(t, ok, "id missing from %v", data)
	return id
}

func TestDispatch_UnknownTool(t *testing.T) {
	f := newFixture(t)

	msg := f.fail(t, uuid.New(), "not_a_real_tool", map[string]any{})
	assert.Contains(t, msg, "Unknown tool")
	assert.Equal(t, "Unknown tool: not_a_real_tool", msg)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ToolDispatches.WithLabelValues("unknown", "failure")))
}

func TestDispatch_NilParamsAreEmpty(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	data := f.ok(t, user, "list_tasks", nil)
	assert.Empty(t, data["tasks"])

	msg := f.fail(t, user, "create_task", nil)
	assert.Equal(t, "Invalid parameters: title is required", msg)
}

func TestDispatch_TaskRoundTrip(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	created := f.ok(t, user, "create_task", map[string]any{"title": "buy milk"})
	id := idOf(t, created)
	assert.Equal(t, "buy milk", created["title"])
	assert.Equal(t, "pending", created["status"])

	listed := f.ok(t, user, "list_tasks", map[string]any{})
	tasks := listed["tasks"].([]map[string]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0]["title"])
	assert.Equal(t, "pending", tasks[0]["status"])

	done := f.ok(t, user, "complete_task", map[string]any{"task_id": id})
	assert.Equal(t, "completed", done["status"])
	require.NotEmpty(t, done["completed_at"])

	completed := f.ok(t, user, "list_tasks", map[string]any{"status": "completed"})
	require.Len(t, completed["tasks"], 1)
	pending := f.ok(t, user, "list_tasks", map[string]any{"status": "pending"})
	assert.Empty(t, pending["tasks"])

	again := f.ok(t, user, "complete_task", map[string]any{"task_id": id})
	assert.Equal(t, done["completed_at"], again["completed_at"])

	removed := f.ok(t, user, "delete_task", map[string]any{"task_id": id})
	assert.Equal(t, true, removed["deleted"])

	_, err := f.repos.Tasks.GetByID(context.Background(), user, id)
	assert.Error(t, err)
	assert.Equal(t, "Task not found", f.fail(t, user, "complete_task", map[string]any{"task_id": id}))
	assert.Equal(t, "Task not found", f.fail(t, user, "delete_task", map[string]any{"task_id": id}))
}

func TestDispatch_ParameterCoercion(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	created := f.ok(t, user, "create_task", map[string]any{
		"title":       "file taxes",
		"priority":    "high",
		"due_date":    "2026-04-15",
		"description": "",
	})
	id := idOf(t, created)
	assert.Equal(t, "high", created["priority"])
	assert.Equal(t, "2026-04-15T00:00:00Z", created["due_date"])

	// ids arrive as strings or JSON floats
	f.ok(t, user, "complete_task", map[string]any{"task_id": fmt.Sprint(id)})
	f.ok(t, user, "complete_task", map[string]any{"task_id": float64(id)})

	assert.Contains(t, f.fail(t, user, "complete_task", map[string]any{"task_id": 1.5}), "not an integer")
	assert.Contains(t, f.fail(t, user, "complete_task", map[string]any{"task_id": "abc"}), "Invalid parameters")
	assert.Equal(t, "Invalid parameters: task_id is required", f.fail(t, user, "complete_task", map[string]any{}))
	assert.Equal(t, "Invalid parameters: priority must be one of: low, medium, high",
		f.fail(t, user, "create_task", map[string]any{"title": "x", "priority": "urgent"}))
	assert.Contains(t, f.fail(t, user, "create_task", map[string]any{"title": "x", "due_date": "next tuesday"}),
		"not an ISO 8601 date")
}

func TestDispatch_OwnerIsolation(t *testing.T) {
	f := newFixture(t)
	owner, other := uuid.New(), uuid.New()

	taskID := idOf(t, f.ok(t, owner, "create_task", map[string]any{"title": "private task"}))
	noteID := idOf(t, f.ok(t, owner, "create_note", map[string]any{"content": "private note", "tags": "secret"}))
	eventID := idOf(t, f.ok(t, owner, "create_event", map[string]any{
		"title": "private event", "start_time": "2026-06-01T10:00:00Z", "end_time": "2026-06-01T11:00:00Z",
	}))
	timerID := idOf(t, f.ok(t, owner, "set_timer", map[string]any{"duration_seconds": 600}))

	assert.Equal(t, "Task not found", f.fail(t, other, "complete_task", map[string]any{"task_id": taskID}))
	assert.Equal(t, "Task not found", f.fail(t, other, "delete_task", map[string]any{"task_id": taskID}))
	assert.Equal(t, "Note not found", f.fail(t, other, "delete_note", map[string]any{"note_id": noteID}))
	assert.Equal(t, "Event not found", f.fail(t, other, "delete_event", map[string]any{"event_id": eventID}))
	assert.Equal(t, "Timer not found", f.fail(t, other, "cancel_timer", map[string]any{"timer_id": timerID}))

	assert.Empty(t, f.ok(t, other, "list_tasks", nil)["tasks"])
	assert.Empty(t, f.ok(t, other, "list_notes", nil)["notes"])
	assert.Empty(t, f.ok(t, other, "search_notes", map[string]any{"query": "private", "tags": "secret"})["notes"])
	assert.Empty(t, f.ok(t, other, "list_events", nil)["events"])
	assert.Empty(t, f.ok(t, other, "list_timers", nil)["timers"])

	assert.Len(t, f.ok(t, owner, "list_tasks", nil)["tasks"], 1)
	assert.Len(t, f.ok(t, owner, "list_notes", nil)["notes"], 1)
	assert.Len(t, f.ok(t, owner, "list_events", nil)["events"], 1)
	assert.Len(t, f.ok(t, owner, "list_timers", map[string]any{"status": "active"})["timers"], 1)
}

func TestDispatch_Notes(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	long := strings.Repeat("a", 80)
	created := f.ok(t, user, "create_note", map[string]any{"content": long, "tags": []any{"work", "ideas"}})
	assert.Equal(t, strings.Repeat("a", 50), created["content"])
	assert.Equal(t, "work,ideas", created["tags"])

	f.ok(t, user, "create_note", map[string]any{"content": "groceries: eggs"})

	found := f.ok(t, user, "search_notes", map[string]any{"query": "EGGS"})
	require.Len(t, found["notes"], 1)

	byTag := f.ok(t, user, "search_notes", map[string]any{"query": "zzz", "tags": "ideas"})
	require.Len(t, byTag["notes"], 1)

	assert.Equal(t, "Invalid parameters: query is required", f.fail(t, user, "search_notes", map[string]any{"tags": "ideas"}))

	id := idOf(t, created)
	f.ok(t, user, "delete_note", map[string]any{"note_id": id})
	assert.Equal(t, "Note not found", f.fail(t, user, "delete_note", map[string]any{"note_id": id}))
}

func TestDispatch_Events(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	assert.Equal(t, "end_time must not be before start_time", f.fail(t, user, "create_event", map[string]any{
		"title": "backwards", "start_time": "2026-06-01T11:00:00", "end_time": "2026-06-01T10:00:00",
	}))
	assert.Contains(t, f.fail(t, user, "create_event", map[string]any{"title": "no times"}), "start_time is required")

	created := f.ok(t, user, "create_event", map[string]any{
		"title": "dentist", "start_time": "2026-06-01 09:30", "end_time": "2026-06-01T12:15:00+02:00",
	})
	assert.Equal(t, "2026-06-01T09:30:00Z", created["start_time"])
	assert.Equal(t, "2026-06-01T10:15:00Z", created["end_time"])

	f.ok(t, user, "create_event", map[string]any{
		"title": "conference", "start_time": "2026-06-03T09:00:00Z", "end_time": "2026-06-03T17:00:00Z",
	})

	sameDay := f.ok(t, user, "list_events", map[string]any{"start_date": "2026-06-01", "end_date": "2026-06-01"})
	events := sameDay["events"].([]map[string]any)
	require.Len(t, events, 1)
	assert.Equal(t, "dentist", events[0]["title"])

	all := f.ok(t, user, "list_events", map[string]any{})
	assert.Len(t, all["events"], 2)

	id := idOf(t, created)
	assert.Equal(t, "Event deleted", f.ok(t, user, "delete_event", map[string]any{"event_id": id})["message"])
}

func TestDispatch_Email(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	params := map[string]any{"recipient": "bob@example.com", "subject": "Lunch", "body": "Noon?"}

	sent := f.ok(t, user, "send_email", params)
	assert.Equal(t, "sent", sent["status"])
	require.Len(t, f.mailer.sent, 1)

	f.mailer.err = errors.New("smtp: 550 mailbox unavailable")
	assert.Equal(t, "Email delivery failed; the attempt was logged", f.fail(t, user, "send_email", params))

	logs, err := f.repos.EmailLogs.List(context.Background(), user, ports.Page{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	statuses := []string{string(logs[0].Status), string(logs[1].Status)}
	assert.ElementsMatch(t, []string{"sent", "failed"}, statuses)

	assert.Contains(t, f.fail(t, user, "send_email", map[string]any{"recipient": "not-an-address", "subject": "s", "body": "b"}),
		"recipient must be a valid email address")
}

func TestDispatch_SearchCalculateConvert(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	search := f.ok(t, user, "search_web", map[string]any{"query": "golang generics", "max_results": "5"})
	results := search["results"].([]map[string]any)
	require.Len(t, results, 3)
	assert.Equal(t, "Result 1", results[0]["title"])

	assert.Equal(t, 8.0, f.ok(t, user, "calculate", map[string]any{"expression": "2 + 2 * 3"})["result"])
	assert.Equal(t, 28.0, f.ok(t, user, "calculate", map[string]any{"expression": "(10+5)*2-8/4"})["result"])
	assert.Contains(t, f.fail(t, user, "calculate", map[string]any{"expression": "__import__('os')"}), "invalid expression")
	assert.Contains(t, f.fail(t, user, "calculate", map[string]any{"expression": "1/0"}), "division by zero")

	conv := f.ok(t, user, "convert_currency", map[string]any{"amount": "12.5", "from_currency": "usd", "to_currency": "EUR"})
	assert.Equal(t, "USD", conv["from_currency"])
	assert.Equal(t, 25.0, conv["converted_amount"])
	assert.Equal(t, "Invalid parameters: amount is required",
		f.fail(t, user, "convert_currency", map[string]any{"from_currency": "USD", "to_currency": "EUR"}))
	assert.Contains(t, f.fail(t, user, "convert_currency", map[string]any{"amount": 1, "from_currency": "US", "to_currency": "EUR"}),
		"from_currency must be exactly 3 characters")
}

func TestDispatch_Timers(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	timer := f.ok(t, user, "set_timer", map[string]any{"duration_seconds": 90.0, "label": "eggs"})
	assert.Equal(t, "timer", timer["kind"])
	assert.Equal(t, "active", timer["status"])
	assert.Equal(t, 90, timer["duration_seconds"])

	assert.Contains(t, f.fail(t, user, "set_timer", map[string]any{"duration_seconds": -5}), "duration_seconds must be greater than 0")

	at := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	alarm := f.ok(t, user, "set_alarm", map[string]any{"trigger_time": at.Format(time.RFC3339)})
	assert.Equal(t, "alarm", alarm["kind"])
	assert.Equal(t, at.Format(time.RFC3339), alarm["trigger_time"])

	assert.Contains(t, f.fail(t, user, "set_alarm", map[string]any{"trigger_time": "2001-01-01T00:00:00Z"}), "future")

	assert.Len(t, f.ok(t, user, "list_timers", nil)["timers"], 2)

	id := idOf(t, timer)
	cancelled := f.ok(t, user, "cancel_timer", map[string]any{"timer_id": id})
	assert.Equal(t, "cancelled", cancelled["status"])
	assert.Equal(t, "Timer is not active", f.fail(t, user, "cancel_timer", map[string]any{"timer_id": id}))
}

func TestDispatch_RecoversFromPanics(t *testing.T) {
	r := NewRegistry()
	r.Register(Define("explode", "always panics", object(props()),
		func(context.Context, uuid.UUID, *struct{}) (map[string]any, error) {
			panic("boom")
		}))
	d := NewDispatcher(r, nil, logger.NewNop())

	res := d.Dispatch(context.Background(), "explode", nil, uuid.New())
	assert.False(t, res.Success)
	assert.Equal(t, "Tool explode failed unexpectedly", res.Error)
}

func TestRegistry_IsOpenForExtension(t *testing.T) {
	f := newFixture(t)

	type echoParams struct {
		Text string `json:"text" validate:"required"`
	}
	f.d.Registry().Register(Define("echo", "Repeat the text back", object(props("text", str("Text")), "text"),
		func(_ context.Context, _ uuid.UUID, p *echoParams) (map[string]any, error) {
			return map[string]any{"text": p.Text}, nil
		}))

	assert.Equal(t, "hi", f.ok(t, uuid.New(), "echo", map[string]any{"text": "hi"})["text"])
	assert.Panics(t, func() {
		f.d.Registry().Register(Define("echo", "", object(props()), func(context.Context, uuid.UUID, *echoParams) (map[string]any, error) {
			return nil, nil
		}))
	})
}

func TestCatalogue(t *testing.T) {
	f := newFixture(t)

	want := []string{
		"calculate", "cancel_timer", "complete_task", "convert_currency", "create_event",
		"create_note", "create_task", "delete_event", "delete_note", "delete_task",
		"list_events", "list_notes", "list_tasks", "list_timers", "search_notes",
		"search_web", "send_email", "set_alarm", "set_timer",
	}
	specs := f.d.Catalogue()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Description, s.Name)
		assert.Equal(t, "object", s.Parameters["type"], s.Name)

		properties := s.Parameters["properties"].(map[string]any)
		for _, req := range s.Parameters["required"].([]string) {
			assert.Contains(t, properties, req, "%s requires undeclared %s", s.Name, req)
		}
	}
	assert.Equal(t, want, names)
}

type failingRates struct{ err error }

func (r failingRates) Convert(context.Context, float64, string, string) (*ports.Conversion, error) {
	return nil, r.err
}

func TestDispatch_InternalErrorsStayInternal(t *testing.T) {
	log := logger.NewNop()
	upstream := errors.New(`exchange rate request: Get "http://127.0.0.1:1/v6/SUPERSECRETKEY/pair/USD/EUR": connection refused`)
	d := New(Services{
		Calculator: services.NewCalculatorService(failingRates{err: upstream}, log),
	}, nil, log)

	res := d.Dispatch(context.Background(), "convert_currency",
		map[string]any{"amount": 10, "from_currency": "USD", "to_currency": "EUR"}, uuid.New())
	assert.False(t, res.Success)
	assert.Equal(t, "The currency service is unavailable right now", res.Error)
	assert.NotContains(t, res.Error, "SUPERSECRETKEY")

	d.Registry().Register(Define("lookup", "fails with a driver error", object(props()),
		func(context.Context, uuid.UUID, *struct{}) (map[string]any, error) {
			return nil, fmt.Errorf("failed to list tasks: %w", errors.New("pq: password authentication failed for user \"assistant\""))
		}))
	res = d.Dispatch(context.Background(), "lookup", nil, uuid.New())
	assert.Equal(t, "Could not complete lookup right now", res.Error)
	assert.NotContains(t, res.Error, "pq:")

	// validation messages are meant for the user and pass through unwrapped
	res = d.Dispatch(context.Background(), "calculate", map[string]any{"expression": "1/0"}, uuid.New())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "division by zero")
}
