//go:build e2e

package dbtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"slot-reservation/internal/infra/db"
	"slot-reservation/internal/pkg/config"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "test"
	pgPassword = "testpass"
	pgPort     = "5432/tcp"
)

var schemaFiles = []string{"migrations/001_initial_schema.sql"}

var (
	postgresOnce      sync.Once
	postgresContainer testcontainers.Container
	postgresErr       error
)

// Postgres is where the shared test container can be reached from the host.
type Postgres struct {
	Host string
	Port nat.Port
}

func (p Postgres) adminDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable", pgUser, pgPassword, p.Host, p.Port.Port())
}

// StartPostgres boots one Postgres container per test binary; later callers reuse it. The
// container is reaped by ryuk when the binary exits.
func StartPostgres(t *testing.T) Postgres {
	t.Helper()

	postgresOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		postgresContainer, postgresErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:17",
				ExposedPorts: []string{pgPort},
				Env: map[string]string{
					"POSTGRES_USER":     pgUser,
					"POSTGRES_PASSWORD": pgPassword,
					"POSTGRES_DB":       "postgres",
				},
				// Throwaway data: keep it in RAM and skip durability work.
				Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw,size=512m"},
				Cmd: []string{
					"postgres",
					"-c", "fsync=off",
					"-c", "full_page_writes=off",
					"-c", "synchronous_commit=off",
					"-c", "max_connections=200",
				},
				WaitingFor: wait.ForSQL(pgPort, "pgx", func(host string, port nat.Port) string {
					return Postgres{Host: host, Port: port}.adminDSN()
				}).WithStartupTimeout(time.Minute),
				Labels: map[string]string{"purpose": "slot-reservation-tests"},
			},
			Started: true,
		})
	})
	require.NoError(t, postgresErr, "start postgres container")

	ctx := context.Background()
	port, err := postgresContainer.MappedPort(ctx, nat.Port(pgPort))
	require.NoError(t, err, "resolve postgres port")
	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "resolve postgres host")
	return Postgres{Host: host, Port: port}
}

// NewDatabase creates a fresh database with the schema applied and drops it when t finishes.
func NewDatabase(t *testing.T, pg Postgres) (*pgxpool.Pool, config.DBConfig) {
	t.Helper()

	name := "slots_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, pg.adminDSN())
	require.NoError(t, err, "connect as admin")
	defer admin.Close()

	// CREATE DATABASE conflicts when parallel test binaries clone template1 at the same moment.
	for attempt := range 5 {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if _, err = admin.Exec(ctx, "CREATE DATABASE "+name); err == nil {
			break
		}
		slog.Warn("create test database failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	require.NoError(t, err, "create test database")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		admin, err := pgxpool.New(ctx, pg.adminDSN())
		if err != nil {
			return
		}
		defer admin.Close()
		if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			slog.Warn("drop test database failed", slog.String("database", name), slog.Any("error", err))
		}
	})

	cfg := config.DBConfig{
		Host:        pg.Host,
		Port:        pg.Port.Port(),
		User:        pgUser,
		Password:    pgPassword,
		DBName:      name,
		SSLMode:     "disable",
		TimeZone:    "UTC",
		MaxConns:    20,
		TxRetries:   3,
		StmtTimeout: "5s",
	}
	pool, closeFn, err := db.Connect(cfg)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(closeFn)

	require.NoError(t, applySchema(ctx, pool), "apply schema")
	return pool, cfg
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, file := range schemaFiles {
		sql, err := readFromRepoRoot(file)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
	}
	return nil
}

// readFromRepoRoot walks up from the package directory `go test` runs in.
func readFromRepoRoot(rel string) ([]byte, error) {
	dir := "."
	for range 5 {
		b, err := os.ReadFile(filepath.Join(dir, rel))
		if err == nil {
			return b, nil
		}
		dir = filepath.Join("..", dir)
	}
	return nil, fmt.Errorf("%s not found above the working directory", rel)
}
