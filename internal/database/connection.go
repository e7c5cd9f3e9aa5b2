package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"certidesk/internal/config"
)

const (
	// One invocation performs one insert, so a single connection is enough
	maxOpenConns       = 1
	defaultPingTimeout = 5 * time.Second
)

var gormOpen = gorm.Open

// Open opens a connection scoped to one invocation. The caller owns it and
// must Close it on every exit path.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		rawDB     *sql.DB
	)

	switch {
	case cfg.IsPostgres():
		log.Debug("Connecting to PostgreSQL database...")
		dsn, err := cfg.GetPostgresDSN()
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	case cfg.IsSQLite():
		log.Debug("Connecting to SQLite database...")
		dbPath := cfg.GetSQLitePath()
		var err error
		rawDB, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       rawDB,
		}
	default:
		return nil, fmt.Errorf("unsupported database URL scheme")
	}

	// Never log SQL: queries carry the lead's personal data
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableAutomaticPing: true,
	}

	db, err := gormOpen(dialector, gormConfig)
	if err != nil {
		if rawDB != nil {
			rawDB.Close()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	if cfg.IdleTimeout > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.IdleTimeout)
	}

	if err := ping(ctx, sqlDB, cfg.ConnectTimeout); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	return db, nil
}

// ping tests the connection within the connection-establishment timeout
func ping(ctx context.Context, sqlDB *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close releases the connection opened by Open
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
