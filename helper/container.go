package helper

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDBImage    = "pgvector/pgvector:pg16"
	testDBName     = "database"
	testDBUser     = "user"
	testDBPassword = "password"
)

// MustStartPostgresContainer starts a pgvector enabled PostgreSQL container
// and returns its teardown function together with the mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(
		ctx,
		testDBImage,
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer.Terminate, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return pgContainer.Terminate, "", fmt.Errorf("error parsing connection string: %w", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

// SetTestDatabaseConfigEnvs points the database configuration at the test container
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv(envDBHost, "localhost")
	t.Setenv(envDBPort, port)
	t.Setenv(envDBDatabase, testDBName)
	t.Setenv(envDBUsername, testDBUser)
	t.Setenv(envDBPassword, testDBPassword)
	t.Setenv(envDBSchema, "public")
	t.Setenv(envDBSSLMode, "disable")
}
