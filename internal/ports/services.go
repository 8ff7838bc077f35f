package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/assistant/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
}

// UserService interface for user management operations
type UserService interface {
	CreateUser(ctx context.Context, req SignupRequest) (*entities.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	DeactivateByEmail(ctx context.Context, email string) error
}

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	UpdateTask(ctx context.Context, userID uuid.UUID, id int64, req UpdateTaskRequest) (*entities.Task, error)
	CompleteTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	DeleteTask(ctx context.Context, userID uuid.UUID, id int64) error
	ListTasks(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
}

// NoteService interface for note operations
type NoteService interface {
	CreateNote(ctx context.Context, userID uuid.UUID, req CreateNoteRequest) (*entities.Note, error)
	GetNote(ctx context.Context, userID uuid.UUID, id int64) (*entities.Note, error)
	UpdateNote(ctx context.Context, userID uuid.UUID, id int64, req UpdateNoteRequest) (*entities.Note, error)
	DeleteNote(ctx context.Context, userID uuid.UUID, id int64) error
	ListNotes(ctx context.Context, userID uuid.UUID, filter NoteFilter) ([]*entities.Note, error)
	SearchNotes(ctx context.Context, userID uuid.UUID, query string, tags []string) ([]*entities.Note, error)
}

// EventService interface for calendar operations
type EventService interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, req CreateEventRequest) (*entities.CalendarEvent, error)
	GetEvent(ctx context.Context, userID uuid.UUID, id int64) (*entities.CalendarEvent, error)
	DeleteEvent(ctx context.Context, userID uuid.UUID, id int64) error
	ListEvents(ctx context.Context, userID uuid.UUID, filter EventFilter) ([]*entities.CalendarEvent, error)
}

// TimerService interface for timer and alarm operations
type TimerService interface {
	SetTimer(ctx context.Context, userID uuid.UUID, req SetTimerRequest) (*entities.Timer, error)
	SetAlarm(ctx context.Context, userID uuid.UUID, req SetAlarmRequest) (*entities.Timer, error)
	GetTimer(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error)
	ListTimers(ctx context.Context, userID uuid.UUID, filter TimerFilter) ([]*entities.Timer, error)
	CancelTimer(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error)
}

// ReminderService interface for dated reminders
type ReminderService interface {
	CreateReminder(ctx context.Context, userID uuid.UUID, req CreateReminderRequest) (*entities.Reminder, error)
	GetReminder(ctx context.Context, userID uuid.UUID, id int64) (*entities.Reminder, error)
	ListReminders(ctx context.Context, userID uuid.UUID, filter ReminderFilter) ([]*entities.Reminder, error)
}

// EmailService interface for outbound email
type EmailService interface {
	// SendEmail attempts delivery and always records the outcome. A delivery
	// failure is reported through the returned log's status, not the error.
	SendEmail(ctx context.Context, userID uuid.UUID, req SendEmailRequest) (*entities.EmailLog, error)
	DraftEmail(ctx context.Context, req DraftEmailRequest) (*EmailDraft, error)
	ListLogs(ctx context.Context, userID uuid.UUID, page Page) ([]*entities.EmailLog, error)
}

// NotificationService interface for user notifications
type NotificationService interface {
	Publish(ctx context.Context, userID uuid.UUID, message string) (*entities.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page Page) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

// SearchService interface for web search
type SearchService interface {
	Search(ctx context.Context, query string, maxResults int) (*SearchResponse, error)
}

// CalculatorService interface for arithmetic and currency conversion
type CalculatorService interface {
	Calculate(ctx context.Context, expression string) (float64, error)
	ConvertCurrency(ctx context.Context, amount float64, from, to string) (*Conversion, error)
}

// ToolDispatcher executes a named tool on behalf of a user. It never returns
// an error: every failure is folded into the result envelope.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, toolName string, params map[string]any, userID uuid.UUID) ToolResult
	Catalogue() []ToolSpec
}

// ChatService turns a user utterance into a reply, possibly running one tool
type ChatService interface {
	Chat(ctx context.Context, userID uuid.UUID, req ChatRequest) (*ChatResponse, error)
}

// External collaborators

// LanguageModel is the normalized contract every LLM backend adapter honors.
type LanguageModel interface {
	Name() string
	// SelectTool asks the model to either pick a tool from the catalogue or answer directly.
	SelectTool(ctx context.Context, message string, tools []ToolSpec) (*ToolSelection, error)
	// Phrase asks the model to turn a tool result into a conversational reply.
	Phrase(ctx context.Context, message string, result ToolResult) (string, error)
}

// SearchProvider performs raw web searches
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// RateProvider converts between currencies using live exchange rates
type RateProvider interface {
	Convert(ctx context.Context, amount float64, from, to string) (*Conversion, error)
}

// Mailer delivers a single email message
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg EmailMessage) error
}

// Notifier pushes a persisted notification to connected clients.
type Notifier interface {
	Notify(ctx context.Context, n *entities.Notification) error
}

// Tool dispatch types

// ToolResult is the uniform envelope returned by every dispatch.
// Exactly one of Data and Error is populated.
type ToolResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OK builds a successful result
func OK(data map[string]any) ToolResult {
	if data == nil {
		data = map[string]any{}
	}
	return ToolResult{Success: true, Data: data}
}

// Fail builds a failed result
func Fail(msg string) ToolResult {
	return ToolResult{Success: false, Error: msg}
}

// ToolSpec describes one tool to the language model, in JSON-schema form.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolSelection is the model's answer to the selection phase. ToolName is
// empty when the model replied directly.
type ToolSelection struct {
	ToolName   string         `json:"tool_name,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Response   string         `json:"response,omitempty"`
}

// Request/Response Types

// Auth related types
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

// Claims are the validated contents of an access token
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Type   string    `json:"type"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string                `json:"title" validate:"required,max=500"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
	Priority    entities.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time            `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string                `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Priority    *entities.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *entities.TaskStatus   `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	DueDate     *time.Time             `json:"due_date"`
}

// Note related types
type CreateNoteRequest struct {
	Content string  `json:"content" validate:"required"`
	Tags    *string `json:"tags" validate:"omitempty,max=500"`
}

type UpdateNoteRequest struct {
	Content *string `json:"content" validate:"omitempty,min=1"`
	Tags    *string `json:"tags" validate:"omitempty,max=500"`
}

// Calendar related types
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=500"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Attendees   *string   `json:"attendees" validate:"omitempty,max=2000"`
}

// Reminder related types
type CreateReminderRequest struct {
	Message      string    `json:"message" validate:"required,max=500"`
	ReminderTime time.Time `json:"reminder_time" validate:"required"`
}

// Timer related types
type SetTimerRequest struct {
	DurationSeconds int     `json:"duration_seconds" validate:"required,gt=0"`
	Label           *string `json:"label" validate:"omitempty,max=200"`
}

type SetAlarmRequest struct {
	TriggerTime time.Time `json:"trigger_time" validate:"required"`
	Label       *string   `json:"label" validate:"omitempty,max=200"`
}

// Email related types
type SendEmailRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Subject   string `json:"subject" validate:"required,max=998"`
	Body      string `json:"body" validate:"required"`
}

type DraftEmailRequest struct {
	Context string `json:"context" validate:"required"`
	Tone    string `json:"tone" validate:"omitempty,oneof=formal friendly casual"`
}

type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailMessage is what a Mailer delivers
type EmailMessage struct {
	From    string
	To      string
	Subject string
	// Body is markdown or HTML; mailers render it as the HTML part.
	Body string
}

// Search related types
type SearchRequest struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"max_results" validate:"omitempty,min=1,max=20"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Summary string         `json:"summary"`
	Sources []string       `json:"sources"`
}

// Calculator related types
type CalculateRequest struct {
	Expression string `json:"expression" validate:"required"`
}

type ConvertRequest struct {
	Amount       float64 `json:"amount" validate:"required"`
	FromCurrency string  `json:"from_currency" validate:"required,len=3,alpha"`
	ToCurrency   string  `json:"to_currency" validate:"required,len=3,alpha"`
}

type Conversion struct {
	Amount          float64 `json:"amount"`
	FromCurrency    string  `json:"from_currency"`
	ToCurrency      string  `json:"to_currency"`
	ConvertedAmount float64 `json:"converted_amount"`
	Rate            float64 `json:"rate"`
}

// Chat related types
type ChatRequest struct {
	Message  string `json:"message" validate:"required,max=4000"`
	Template string `json:"template" validate:"omitempty,max=64"`
}

type ChatResponse struct {
	Response   string      `json:"response"`
	ToolUsed   string      `json:"tool_used,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}
