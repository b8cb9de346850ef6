package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/applications"
	"resume-tailor/internal/events"
	"resume-tailor/internal/generation"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/llm/gemini"
	"resume-tailor/internal/llm/openai"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/server"
	"resume-tailor/internal/shared/storage/db"
	"resume-tailor/internal/shared/storage/object"
	localstore "resume-tailor/internal/shared/storage/object/local"
	s3store "resume-tailor/internal/shared/storage/object/s3"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/uploads"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Dialect            db.Dialect
	Store              object.ObjectStore
	LLM                llm.Gateway
	Events             events.Publisher
	ApplicationsRepo   applications.Repo
	UploadService      *uploads.Service
	ApplicationService *applications.Service
	GenerationService  *generation.Service
	UploadHandler      *uploads.Handler
	ApplicationHandler *applications.Handler
	GenerationHandler  *generation.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	publisher, err := buildEvents(cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Dialect: dialect,
		Store:   store,
		LLM:     NewLLMGateway(cfg),
		Events:  publisher,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		DB:                 app.DB,
		UploadHandler:      app.UploadHandler,
		ApplicationHandler: app.ApplicationHandler,
		GenerationHandler:  app.GenerationHandler,
	})

	return app, nil
}

// Close releases the broker connection and database pool.
func (a *App) Close() error {
	var firstErr error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// databaseURL prefers DATABASE_URL and otherwise points at the SQLite file.
func databaseURL(cfg config.Config) string {
	if url := strings.TrimSpace(cfg.DatabaseURL); url != "" {
		return url
	}
	if path := strings.TrimSpace(cfg.SQLitePath); path != "" {
		return "sqlite:" + path
	}
	return ""
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	url := databaseURL(cfg)
	if url == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "no database configured"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL or SQLITE_PATH is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, dialect, err := db.Connect(ctx, url, opts)
	if err == nil {
		var version int64
		version, err = db.RunMigrations(ctx, sqlDB, dialect)
		if err != nil {
			_ = sqlDB.Close()
		} else {
			telemetry.Info("bootstrap.database", map[string]any{"dialect": string(dialect), "schema_version": version})
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database unavailable", "err": err})
			return nil, "", nil
		}
		return nil, "", err
	}

	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.UploadDir), nil
	}
}

func buildEvents(cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.AMQPURL) == "" {
		return events.Nop{}, nil
	}
	publisher, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.events_disabled", map[string]any{"reason": "broker unavailable", "err": err})
			return events.Nop{}, nil
		}
		return nil, err
	}
	return publisher, nil
}

// NewLLMGateway registers every provider client behind the rate-limit retry policy.
func NewLLMGateway(cfg config.Config) llm.Gateway {
	router := llm.NewRouter()
	router.Register("openai", openai.NewClient(openai.Options{
		Name:    "openai",
		APIKey:  cfg.APIKeyFor("openai"),
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.LLMTimeout,
	}))
	router.Register("perplexity", openai.NewClient(openai.Options{
		Name:    "perplexity",
		APIKey:  cfg.APIKeyFor("perplexity"),
		BaseURL: cfg.PerplexityBaseURL,
		Timeout: cfg.LLMTimeout,
	}))
	router.Register("gemini", gemini.NewClient(cfg.APIKeyFor("gemini"), cfg.LLMTimeout))
	telemetry.Info("llm.providers", map[string]any{"providers": router.Providers()})
	return llm.WithRateLimitRetry(router, llm.DefaultRetryPolicy)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.ApplicationsRepo = applications.NewSQLRepo(app.DB, app.Dialect)
	} else {
		app.ApplicationsRepo = applications.NewMemoryRepo()
	}

	app.UploadService = uploads.NewService(app.Store)
	app.ApplicationService = applications.NewService(app.ApplicationsRepo, app.UploadService)
	app.GenerationService = generation.NewService(
		app.ApplicationsRepo,
		app.Store,
		app.LLM,
		app.Config,
		app.Events,
		app.Config.GeneratedDir,
	)

	app.UploadHandler = uploads.NewHandler(app.UploadService)
	app.ApplicationHandler = applications.NewHandler(app.ApplicationService)
	app.GenerationHandler = generation.NewHandler(app.GenerationService)
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
