//go:build integration

// Package integration runs sqlaltery against a real PostgreSQL server started
// with testcontainers. Build with -tags integration; Docker is required.
package integration

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/sqlaltery/internal/database"
)

const (
	postgresImage = "postgres:16-alpine"
	adminDB       = "postgres"
	testUser      = "sqlaltery"
	testPassword  = "sqlaltery"
)

// server is one container shared by the package. Every test gets its own
// database on it so tests can run in parallel without seeing each other's
// revision tables.
//
//nolint:gochecknoglobals // shared across the package's tests
var server struct {
	once      sync.Once
	container testcontainers.Container
	base      *url.URL
	err       error
	seq       atomic.Int64
}

func startServer(ctx context.Context) error {
	server.once.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testPassword,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		}

		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			server.err = fmt.Errorf("starting postgres container: %w", err)

			return
		}

		server.container = c

		host, err := c.Host(ctx)
		if err != nil {
			server.err = err

			return
		}

		port, err := c.MappedPort(ctx, "5432/tcp")
		if err != nil {
			server.err = err

			return
		}

		server.base = &url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(testUser, testPassword),
			Host:     host + ":" + port.Port(),
			Path:     "/" + adminDB,
			RawQuery: "sslmode=disable",
		}
	})

	return server.err
}

func stopServer() {
	if server.container != nil {
		_ = server.container.Terminate(context.Background())
	}
}

// SetupPostgresDSN creates an empty database for the calling test and returns
// its connection string.
func SetupPostgresDSN(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, startServer(ctx))

	name := fmt.Sprintf("sqlaltery_it_%d", server.seq.Add(1))

	admin, err := pgx.Connect(ctx, server.base.String())
	require.NoError(t, err)

	defer admin.Close(ctx)

	_, err = admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	require.NoError(t, err)

	dsn := *server.base
	dsn.Path = "/" + name

	return dsn.String()
}

// SetupPostgres returns a pool on a fresh database, built the way the CLI
// builds its pool.
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := database.NewPool(context.Background(), SetupPostgresDSN(t), database.WithMaxConns(4))
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return pool
}
