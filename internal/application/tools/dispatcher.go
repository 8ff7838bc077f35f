package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// Services are the application services the built-in tools delegate to
type Services struct {
	Tasks      ports.TaskService
	Notes      ports.NoteService
	Events     ports.EventService
	Timers     ports.TimerService
	Email      ports.EmailService
	Search     ports.SearchService
	Calculator ports.CalculatorService
}

// RegisterBuiltins registers every built-in tool on r
func RegisterBuiltins(r *Registry, s Services) {
	groups := [][]*Tool{
		taskTools(s.Tasks),
		calendarTools(s.Events),
		noteTools(s.Notes),
		emailTools(s.Email),
		searchTools(s.Search),
		calculatorTools(s.Calculator),
		timerTools(s.Timers),
	}
	for _, group := range groups {
		for _, t := range group {
			r.Register(t)
		}
	}
}

// Messages reported for expected domain outcomes
var domainMessages = []struct {
	err error
	msg string
}{
	{entities.ErrTaskNotFound, "Task not found"},
	{entities.ErrNoteNotFound, "Note not found"},
	{entities.ErrEventNotFound, "Event not found"},
	{entities.ErrTimerNotFound, "Timer not found"},
	{entities.ErrTaskNotPending, "Task is not pending"},
	{entities.ErrTimerNotActive, "Timer is not active"},
	{entities.ErrInvalidTimeRange, "end_time must not be before start_time"},
	{entities.ErrInvalidDuration, "duration_seconds must be positive"},
	{ErrEmailDeliveryFailed, "Email delivery failed; the attempt was logged"},
	{context.DeadlineExceeded, "The operation timed out"},
}

// Dispatcher executes registered tools on behalf of a user
type Dispatcher struct {
	registry *Registry
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewDispatcher creates a dispatcher over registry. m may be nil.
func NewDispatcher(registry *Registry, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		metrics:  m,
		logger:   log.WithComponent("tools"),
	}
}

// New creates a dispatcher with every built-in tool registered
func New(s Services, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	r := NewRegistry()
	RegisterBuiltins(r, s)
	return NewDispatcher(r, m, log)
}

// Registry returns the dispatcher's registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Catalogue describes every tool to the language model
func (d *Dispatcher) Catalogue() []ports.ToolSpec {
	return d.registry.Catalogue()
}

// Dispatch runs toolName with params for userID. It never returns an error
// and never panics: every failure is reported in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, params map[string]any, userID uuid.UUID) (result ports.ToolResult) {
	start := time.Now()
	metricName := toolName

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Errorw("Tool panicked", "tool", toolName, "user_id", userID, "panic", rec)
			result = ports.Fail(fmt.Sprintf("Tool %s failed unexpectedly", toolName))
		}
		elapsed := time.Since(start)
		d.metrics.ObserveDispatch(metricName, result.Success, elapsed.Seconds())
		d.logger.LogToolDispatch(toolName, userID.String(), result.Success,
			float64(elapsed.Microseconds())/1000, result.Error)
	}()

	tool := d.registry.Get(toolName)
	if tool == nil {
		metricName = "unknown"
		return ports.Fail("Unknown tool: " + toolName)
	}
	if params == nil {
		params = map[string]any{}
	}

	data, err := tool.run(ctx, userID, params)
	if err != nil {
		return ports.Fail(d.describeError(toolName, err))
	}
	return ports.OK(data)
}

// Messages reported when a tool fails for a reason the user cannot act on.
// The underlying error only goes to the log.
var unavailableMessages = map[string]string{
	"search_web":       "The search service is unavailable right now",
	"convert_currency": "The currency service is unavailable right now",
	"send_email":       "The email service is unavailable right now",
}

func (d *Dispatcher) describeError(toolName string, err error) string {
	var perr *ParamError
	if errors.As(err, &perr) {
		return perr.Msg
	}
	for _, m := range domainMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		return verr.Msg
	}

	d.logger.Warnw("Tool returned an error", "tool", toolName, "error", err)
	if msg, ok := unavailableMessages[toolName]; ok {
		return msg
	}
	return fmt.Sprintf("Could not complete %s right now", toolName)
}
