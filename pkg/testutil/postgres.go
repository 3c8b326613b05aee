package testutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgpkg "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/postgres"
)

// PostgresImage is the server version the prediction store is tested against.
const PostgresImage = "postgres:16-alpine"

// PostgresContainer is a throwaway prediction store for integration tests.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
	Pool      *pgxpool.Pool
}

// StartPostgres runs a PostgreSQL container, applies the migrations under
// dir in fsys and returns a connected pool. Teardown is registered on t.
func StartPostgres(ctx context.Context, t *testing.T, fsys fs.FS, dir string) *PostgresContainer {
	t.Helper()

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("churn_test"),
		postgres.WithUsername("churn"),
		postgres.WithPassword("churn"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	pc := &PostgresContainer{Container: ctr}
	t.Cleanup(func() { pc.terminate(t) })
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	if pc.DSN, err = ctr.ConnectionString(ctx, "sslmode=disable"); err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	if err := pgpkg.RunMigrations(pc.DSN, fsys, dir); err != nil {
		t.Fatalf("migrate churn schema: %v", err)
	}
	if pc.Pool, err = pgpkg.NewPool(ctx, pgpkg.Config{URL: pc.DSN, MaxConns: 4}); err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	return pc
}

func (pc *PostgresContainer) terminate(t *testing.T) {
	t.Helper()
	if pc.Pool != nil {
		pc.Pool.Close()
	}
	if pc.Container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("terminate postgres container: %v", err)
	}
}
