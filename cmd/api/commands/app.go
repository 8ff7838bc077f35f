package commands

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/taskmaster/assistant/internal/adapters/cache"
	"github.com/taskmaster/assistant/internal/adapters/currency"
	httpHandlers "github.com/taskmaster/assistant/internal/adapters/http"
	"github.com/taskmaster/assistant/internal/adapters/llm"
	"github.com/taskmaster/assistant/internal/adapters/mail"
	"github.com/taskmaster/assistant/internal/adapters/notify"
	"github.com/taskmaster/assistant/internal/adapters/repository"
	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/adapters/search"
	"github.com/taskmaster/assistant/internal/application/assistant"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/application/sweep"
	"github.com/taskmaster/assistant/internal/application/tools"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/infrastructure/server"
	"github.com/taskmaster/assistant/internal/ports"
	"github.com/taskmaster/assistant/internal/prompts"
)

// bootstrap loads configuration and the logger shared by every command
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

// storage opens the configured repositories. The returned DB is nil with the
// memory driver.
func storage(cfg *config.Config, log *logger.Logger) (*ports.Repositories, *database.DB, error) {
	if cfg.Database.Driver == "memory" {
		log.Warnw("Using in-memory storage; data is lost on restart")
		return memory.New(), nil, nil
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return repository.New(db.DB), db, nil
}

// application is the fully wired service
type application struct {
	db      *database.DB
	redis   *redis.Client
	hub     *notify.Hub
	server  *server.Server
	sweeper *sweep.Sweeper
}

func newApplication(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*application, error) {
	app := &application{}

	repos, db, err := storage(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	app.db = db

	// Redis backs the rate cache and the sweep leader lock. Without it a
	// process-local cache takes over and the sweep runs unguarded.
	var store ports.CacheRepository = cache.NewMemory()
	var health ports.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, err
		}
		app.redis = client
		store = cache.NewRedis(client)
		health = store
	}

	catalog := prompts.Default()
	if cfg.LLM.PromptsFile != "" {
		if catalog, err = prompts.Load(cfg.LLM.PromptsFile); err != nil {
			app.close()
			return nil, err
		}
	}

	model, err := llm.New(cfg.LLM, catalog, appLogger)
	if err != nil {
		app.close()
		return nil, err
	}

	mailer, err := mail.New(cfg.Email, appLogger)
	if err != nil {
		app.close()
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app.hub = notify.NewHub(appLogger)

	authService := services.NewAuthService(repos.Users, repos.Auth, cfg.JWT, appLogger)
	userService := services.NewUserService(repos.Users, repos.Auth, appLogger)
	taskService := services.NewTaskService(repos.Tasks, appLogger)
	noteService := services.NewNoteService(repos.Notes, appLogger)
	eventService := services.NewEventService(repos.Events, appLogger)
	timerService := services.NewTimerService(repos.Timers, appLogger)
	reminderService := services.NewReminderService(repos.Reminders, appLogger)
	emailService := services.NewEmailService(mailer, repos.EmailLogs, cfg.Email.From, appLogger)
	searchService := services.NewSearchService(search.NewDuckDuckGo(cfg.Search), appLogger)
	calculatorService := services.NewCalculatorService(currency.New(cfg.Currency, store, appLogger), appLogger)
	notificationService := services.NewNotificationService(repos.Notifications, app.hub, appLogger)

	dispatcher := tools.New(tools.Services{
		Tasks:      taskService,
		Notes:      noteService,
		Events:     eventService,
		Timers:     timerService,
		Email:      emailService,
		Search:     searchService,
		Calculator: calculatorService,
	}, m, appLogger)
	orchestrator := assistant.New(model, dispatcher, catalog, m, appLogger)

	app.server = server.New(cfg, server.Dependencies{
		DB:      db,
		Cache:   health,
		Metrics: m,
		Tokens:  authService,
		Handlers: &httpHandlers.Handlers{
			Auth:          httpHandlers.NewAuthHandler(authService, userService, appLogger),
			Tasks:         httpHandlers.NewTaskHandler(taskService, appLogger),
			Notes:         httpHandlers.NewNoteHandler(noteService, appLogger),
			Events:        httpHandlers.NewEventHandler(eventService, appLogger),
			Timers:        httpHandlers.NewTimerHandler(timerService, appLogger),
			Reminders:     httpHandlers.NewReminderHandler(reminderService, appLogger),
			Email:         httpHandlers.NewEmailHandler(emailService, appLogger),
			Notifications: httpHandlers.NewNotificationHandler(notificationService, app.hub, authService, appLogger),
			Assistant:     httpHandlers.NewAssistantHandler(orchestrator, dispatcher, searchService, calculatorService, appLogger),
		},
	}, appLogger)

	if cfg.Sweep.Enabled {
		var lock ports.CacheRepository
		if app.redis != nil {
			lock = store
		}
		app.sweeper = sweep.New(repos.Timers, notificationService, lock, m, sweep.Config{
			Interval:  cfg.Sweep.Interval,
			BatchSize: cfg.Sweep.BatchSize,
			LockTTL:   cfg.Sweep.LockTTL,
		}, appLogger)
	}

	return app, nil
}

func (a *application) close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
