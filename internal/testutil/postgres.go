// Package testutil поднимает PostgreSQL в контейнере для интеграционных тестов.
package testutil

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Schema накатывает таблицы на свежую БД
type Schema func(ctx context.Context, pool *pgxpool.Pool) error

// dockerAvailable нужен потому, что testcontainers паникует без docker
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// SetupTestDB создает тестовую БД с помощью testcontainers
func SetupTestDB(t *testing.T, schema Schema) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("docker not available")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
	if err := schema(ctx, pool); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return pool
}

// TruncateTables очищает все таблицы и сбрасывает последовательности
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE tasks, idempotency_keys RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedTasks создает тестовые задачи
func SeedTasks(t *testing.T, pool *pgxpool.Pool, count int) []int64 {
	t.Helper()
	ctx := context.Background()

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO tasks (title)
			VALUES ($1)
			RETURNING id
		`, fmt.Sprintf("Task %d", i+1)).Scan(&id)
		if err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
		ids = append(ids, id)
	}

	return ids
}
