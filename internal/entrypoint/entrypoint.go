// Package entrypoint assembles the application from configuration and runs
// the HTTP server until it is interrupted.
package entrypoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the server until SIGINT or SIGTERM, then shuts it down within
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}

	log.WithField("timeout", timeout).Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Background work stops before the listener.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

// Run builds every component from cfg and serves until interrupted.
func Run(cfg *config.Config, version string) error {
	log := logging.New(cfg.Log)
	log.WithField("version", version).Info("starting bookshelf")

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database, database.Options{
		LogWriter: log,
		LogLevel:  logging.GormLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("error closing database")
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	authService := auth.NewService(users.NewRepository(db.DB), auth.NewPasswordHasher(cfg.Auth))
	if cfg.Auth.PasswordScheme != config.PasswordSchemeBcrypt {
		log.Warn("passwords are stored in plaintext; set AUTH_PASSWORD_SCHEME=bcrypt to hash them")
	}

	// Without Redis, sessions live next to the data in SQLite, or in memory for MySQL.
	var sessionDB *sql.DB
	if cfg.Database.Driver != config.DatabaseDriverMySQL {
		sessionDB, err = db.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
	}
	sessionManager, err := auth.NewSessionManager(sessionDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var csrfSecret []byte
	if cfg.Auth.CSRFEnabled {
		secret := cfg.Auth.SessionSecret
		if secret == "" {
			secret, err = auth.GenerateSessionSecret()
			if err != nil {
				return fmt.Errorf("failed to generate session secret: %w", err)
			}
			log.Info("generated session secret (set AUTH_SESSION_SECRET to persist)")
		}
		csrfSecret = auth.CSRFKey(secret)
	}

	var auditService *audit.Service
	var auditRepo *auditrepo.Repository
	if cfg.Audit.Enabled {
		auditRepo = auditrepo.NewRepository(db.DB)
		auditService = audit.NewService(auditRepo, log.WithField("component", "audit"))
	}

	// Audit retention runs on the task queue when it is enabled, inline otherwise.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if auditRepo != nil {
		var enqueuer scheduler.AuditCleanupEnqueuer = tasks.InlineAuditCleanup{Cleaner: auditRepo, Log: log}

		if cfg.Tasks.Enabled {
			taskLog := log.WithField("component", "tasks")
			taskClient, err = tasks.NewClient(tasksDBPath(cfg), tasks.FromAppConfig(cfg.Tasks), taskLog)
			if err != nil {
				return fmt.Errorf("failed to initialize task queue: %w", err)
			}
			defer func() {
				if err := taskClient.Close(); err != nil {
					log.WithError(err).Warn("error closing task client")
				}
			}()

			taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditRepo, taskLog))

			var taskCtx context.Context
			taskCtx, taskCtxCancel = context.WithCancel(context.Background())
			go taskClient.Start(taskCtx)
			enqueuer = taskClient
		}

		if err := scheduler.ValidateCronSchedule(cfg.Audit.CleanupSchedule); err != nil {
			log.WithError(err).WithField("schedule", cfg.Audit.CleanupSchedule).Warn("invalid audit cleanup schedule, retention disabled")
		} else {
			cleanupScheduler = scheduler.NewAuditCleanupScheduler(enqueuer, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, log)
			if err := cleanupScheduler.Start(context.Background()); err != nil {
				return fmt.Errorf("failed to start audit cleanup scheduler: %w", err)
			}
		}
	}

	var coverCache http_controllers.CoverCache
	if cfg.UI.CoverCache {
		cache, err := covers.NewCache(cfg.UI.CoversPath)
		if err != nil {
			log.WithError(err).Warn("cover cache disabled")
		} else {
			coverCache = cache
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Books:          bookRepo,
		Database:       db,
		Logger:         log,
		AuthService:    authService,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		PageSize:       cfg.UI.PageSize,
		Version:        version,
		Audit:          auditService, // nil when auditing is disabled
		Covers:         coverCache,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	return Serve(router, cfg, log, onShutdown)
}

// tasksDBPath places the queue database beside the main SQLite file. MySQL
// deployments keep it in the working directory.
func tasksDBPath(cfg *config.Config) string {
	if cfg.Database.Driver == config.DatabaseDriverMySQL || cfg.Database.Path == "" {
		return config.DefaultDatabasePath
	}
	return cfg.Database.Path
}
