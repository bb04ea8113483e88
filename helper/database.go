package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

const (
	envDBHost     = "WELLGRAPH_DB_HOST"
	envDBPort     = "WELLGRAPH_DB_PORT"
	envDBDatabase = "WELLGRAPH_DB_DATABASE"
	envDBUsername = "WELLGRAPH_DB_USERNAME"
	envDBPassword = "WELLGRAPH_DB_PASSWORD"
	envDBSchema   = "WELLGRAPH_DB_SCHEMA"
	envDBSSLMode  = "WELLGRAPH_DB_SSLMODE"
)

// DatabaseConfiguration holds the PostgreSQL connection settings
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// Database is a connected PostgreSQL instance with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabaseConfiguration reads the configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv(envDBHost),
		Port:     os.Getenv(envDBPort),
		Database: os.Getenv(envDBDatabase),
		Username: os.Getenv(envDBUsername),
		Password: os.Getenv(envDBPassword),
		Schema:   os.Getenv(envDBSchema),
		SSLMode:  os.Getenv(envDBSSLMode),
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	var missing []string
	if config.Host == "" {
		missing = append(missing, envDBHost)
	}
	if config.Port == "" {
		missing = append(missing, envDBPort)
	}
	if config.Database == "" {
		missing = append(missing, envDBDatabase)
	}
	if config.Username == "" {
		missing = append(missing, envDBUsername)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing database configuration: %s", strings.Join(missing, ", "))
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection string
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
}

// NewDatabase opens and pings the database, retrying while it starts up
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("new database", fmt.Errorf("database configuration is nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		logger.Warn("Database not reachable, retrying", slog.String("database", name), slog.Int("attempt", attempt), slog.String("error", pingErr.Error()))
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if pingErr != nil {
		db.Close()
		return nil, NewError("ping database", pingErr)
	}

	logger.Info("Connected to database", slog.String("database", name), slog.String("host", config.Host), slog.String("port", config.Port))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}, nil
}

// NewTestDatabase connects to the test database and panics on failure
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := NewLogger(os.Stdout, slog.LevelWarn)
	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(err)
	}
	return db
}

// CheckFunctions returns true if all named SQL functions exist in the current schema
func (d *Database) CheckFunctions(functions []string) (bool, error) {
	var count int
	err := d.Instance.QueryRow(
		`SELECT COUNT(DISTINCT proname) FROM pg_proc
		 JOIN pg_namespace ON pg_namespace.oid = pg_proc.pronamespace
		 WHERE nspname = current_schema() AND proname = ANY($1)`,
		pq.Array(functions),
	).Scan(&count)
	if err != nil {
		return false, NewError("check functions", err)
	}
	return count == len(functions), nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if err := d.Instance.Close(); err != nil {
		return NewError("close database", err)
	}
	return nil
}
