package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// Connection pool settings
const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	connMaxLifetime = time.Hour
	connMaxIdleTime = 10 * time.Minute
)

// Database wraps the GORM database connection
type Database struct {
	db     *gorm.DB
	config *config.DatabaseConfig
	log    *logger.Logger
}

// NewDatabase opens the configured driver, sizes the pool and pings.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	log := logger.Get().WithFields(logger.Component("database"))

	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		log.Info("Initializing database connection...",
			logger.String("driver", "sqlite"),
			logger.Path(cfg.Path),
		)
	} else {
		log.Info("Initializing database connection...",
			logger.String("driver", "postgres"),
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.DBName),
			logger.String("user", cfg.User),
			logger.String("sslmode", cfg.SSLMode),
		)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              !cfg.IsSQLite(),
		// Surfaces unique index violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Failed to get underlying SQL DB", logger.Error(err))
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if cfg.IsSQLite() {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

		log.Debug("Connection pool configured",
			logger.Int("max_idle_conns", maxIdleConns),
			logger.Int("max_open_conns", maxOpenConns),
			logger.Duration("conn_max_lifetime", connMaxLifetime),
			logger.Duration("conn_max_idle_time", connMaxIdleTime),
		)
	}

	database := &Database{
		db:     db,
		config: cfg,
		log:    log,
	}

	if err := database.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully", logger.String("driver", cfg.Driver))

	return database, nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch {
	case cfg.IsSQLite():
		if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		// Foreign keys are off by default in sqlite
		return sqlite.Open(cfg.DSN() + "?_foreign_keys=on"), nil
	case cfg.IsPostgres():
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// DB returns the underlying GORM database instance
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		d.log.Error("Database ping failed", logger.Error(err))
		return err
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.log.Info("Closing database connection...")

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		d.log.Error("Failed to close database connection", logger.Error(err))
		return err
	}

	return nil
}

// LogStats logs the current database connection pool statistics
func (d *Database) LogStats() {
	sqlDB, err := d.db.DB()
	if err != nil {
		return
	}

	stats := sqlDB.Stats()
	d.log.Info("Database connection pool statistics",
		logger.Int("max_open_connections", stats.MaxOpenConnections),
		logger.Int("open_connections", stats.OpenConnections),
		logger.Int("in_use", stats.InUse),
		logger.Int("idle", stats.Idle),
		logger.Int64("wait_count", stats.WaitCount),
		logger.Duration("wait_duration", stats.WaitDuration),
	)
}
