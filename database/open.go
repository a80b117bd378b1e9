package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-backend/errs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Options configures Open.
type Options struct {
	DSN             string
	ReplicaDSNs     []string
	SlowThreshold   time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// zerologWriter routes gorm and goose output through the global logger.
type zerologWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func newZerologWriter(component string, level zerolog.Level) zerologWriter {
	return zerologWriter{logger: log.With().Str("component", component).Logger(), level: level}
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.logger.WithLevel(w.level).Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Fatalf satisfies goose.Logger. Goose only calls it for unrecoverable
// migration states; the error is logged and the process exits.
func (w zerologWriter) Fatalf(format string, args ...interface{}) {
	w.logger.Fatal().Msg(fmt.Sprintf(format, args...))
}

// Open connects to PostgreSQL, registers read replicas when configured and
// checks the connection with SELECT 1.
func Open(opts Options) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("no database configured: %w", errs.ErrConfigMissing)
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = 10 * time.Second
	}

	newLogger := logger.New(
		newZerologWriter("gorm", zerolog.WarnLevel),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabaseConnection, err)
	}

	if len(opts.ReplicaDSNs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(opts.ReplicaDSNs))
		for _, dsn := range opts.ReplicaDSNs {
			replicas = append(replicas, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("registering read replicas: %w", err)
		}
		log.Info().Int("replicas", len(replicas)).Msg("read replicas registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	// Test database connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var result int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabaseConnection, err)
	}

	return db, nil
}

// Migrate runs all pending database migrations.
func Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(newZerologWriter("goose", zerolog.InfoLevel))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var errNoDatabase = errors.New("database is not connected")
