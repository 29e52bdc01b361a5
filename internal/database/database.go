package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Writer receives gorm's log output. *logrus.Logger satisfies it.
type Writer interface {
	Printf(format string, args ...any)
}

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

// Options tunes how the connection is opened.
type Options struct {
	LogWriter Writer          // nil uses gorm's default stdout logger
	LogLevel  logger.LogLevel // zero value means logger.Warn
}

// NewDatabase opens the configured database and creates any missing tables.
func NewDatabase(cfg config.Database, opts Options) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, Driver: cfg.Driver}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, err
	}

	if opts.LogWriter != nil {
		opts.LogWriter.Printf("database initialized (%s)", describe(cfg))
	}

	return database, nil
}

// Migrate creates the books, users and audit_events tables when absent.
// There is no versioned migration history; this is a one-shot bootstrap.
func (d *Database) Migrate() error {
	err := d.DB.AutoMigrate(
		&entities.Book{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is not set")
		}
		return sqlite.Open(cfg.Path), nil
	case config.DatabaseDriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for the mysql driver")
		}
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newGormLogger(opts Options) logger.Interface {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	if opts.LogWriter == nil {
		return logger.Default.LogMode(level)
	}
	return logger.New(opts.LogWriter, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func describe(cfg config.Database) string {
	if cfg.Driver == config.DatabaseDriverMySQL {
		return "mysql"
	}
	return "sqlite at " + cfg.Path
}
