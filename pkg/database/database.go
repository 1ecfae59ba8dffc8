package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Options struct {
	Driver          string
	DataSource      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	InitStatements  []string
	Logger          *zap.Logger
}

type Option func(*Options)

func WithDriver(driver string) Option {
	return func(o *Options) { o.Driver = driver }
}

func WithDataSource(dsn string) Option {
	return func(o *Options) { o.DataSource = dsn }
}

func WithMaxOpenConns(count int) Option {
	return func(o *Options) { o.MaxOpenConns = count }
}

func WithMaxIdleConns(count int) Option {
	return func(o *Options) { o.MaxIdleConns = count }
}

func WithConnMaxLifetime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxLifetime = duration }
}

func WithConnMaxIdleTime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxIdleTime = duration }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *Options) {
		o.RetryAttempts = attempts
		o.RetryDelay = delay
	}
}

// WithInitStatements runs stmts (typically PRAGMAs) once the pool answers a ping.
func WithInitStatements(stmts ...string) Option {
	return func(o *Options) { o.InitStatements = append(o.InitStatements, stmts...) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// SQLitePragmas are applied to every SQLite pool opened by the gateway.
// Run through WithInitStatements they only reach the connection that runs
// them, so file-backed pools also need SQLiteDSN.
var SQLitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// SQLiteDSN appends SQLitePragmas to path as connection parameters in the
// syntax of driver ("sqlite3" for mattn, "sqlite" for modernc), so every
// connection the pool opens carries them. In-memory paths and unknown
// drivers are returned unchanged.
func SQLiteDSN(driver, path string) string {
	if IsInMemory(path) {
		return path
	}

	var params string
	switch driver {
	case "sqlite3":
		params = "_busy_timeout=5000&_foreign_keys=on"
	case "sqlite":
		params = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	default:
		return path
	}

	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

// IsInMemory reports whether dsn names a private in-memory SQLite database,
// which only survives on a single connection.
func IsInMemory(dsn string) bool {
	return dsn == ":memory:" || dsn == "file::memory:"
}

// New creates a new database connection pool using the provided options.
func New(opts ...Option) (*sql.DB, error) {
	options := &Options{
		Driver:          "sqlite3",
		DataSource:      ":memory:",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.Driver == "" {
		return nil, fmt.Errorf("database driver cannot be empty")
	}
	if options.DataSource == "" {
		return nil, fmt.Errorf("database data source cannot be empty")
	}
	if options.RetryAttempts < 1 {
		options.RetryAttempts = 1
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *sql.DB
	var err error

	for i := 0; i < options.RetryAttempts; i++ {
		db, err = sql.Open(options.Driver, options.DataSource)
		if err == nil {
			db.SetMaxOpenConns(options.MaxOpenConns)
			db.SetMaxIdleConns(options.MaxIdleConns)
			db.SetConnMaxLifetime(options.ConnMaxLifetime)
			db.SetConnMaxIdleTime(options.ConnMaxIdleTime)
			if IsInMemory(options.DataSource) {
				db.SetMaxOpenConns(1)
				db.SetConnMaxLifetime(0)
				db.SetConnMaxIdleTime(0)
			}

			if err = db.Ping(); err == nil {
				if err = runInit(db, options.InitStatements); err == nil {
					return db, nil
				}
			}

			db.Close()
		}

		logger.Warn("database connection attempt failed",
			zap.Int("attempt", i+1),
			zap.String("driver", options.Driver),
			zap.Error(err))

		// linear backoff
		if i < options.RetryAttempts-1 {
			time.Sleep(time.Duration(i+1) * options.RetryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", options.RetryAttempts, err)
}

func runInit(db *sql.DB, stmts []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init statement %q: %w", stmt, err)
		}
	}
	return nil
}
