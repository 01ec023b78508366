package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
)

var (
	ErrorNotFound   = errors.New("not found")
	ErrorConstraint = errors.New("constraint violation")
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id        BIGSERIAL PRIMARY KEY,
	title     TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	key         TEXT PRIMARY KEY,
	resource_id BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_idempotency_keys_created ON idempotency_keys (created_at);
`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

var (
	_ TaskRepository = (*TaskRepo)(nil)
	_ KeyPurger      = (*TaskRepo)(nil)
)

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

// EnsureSchema создает таблицы, если их еще нет
func (r *TaskRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create вставляет задачу с completed = false. Пустой title уходит в БД как NULL
func (r *TaskRepo) Create(ctx context.Context, title *string) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, completed)
		VALUES ($1, FALSE)
		RETURNING id, title, completed
	`, title).Scan(&t.ID, &t.Title, &t.Completed)
	if err != nil {
		return t, r.mapError("create task", err)
	}
	return t, nil
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, completed
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Title, &t.Completed)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, completed
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update сохраняет title и completed ранее прочитанной задачи
func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, completed = $3
		WHERE id = $1
		RETURNING id, title, completed
	`, t.ID, t.Title, t.Completed).Scan(&t.ID, &t.Title, &t.Completed)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, r.mapError(fmt.Sprintf("update task %d", t.ID), err)
	}
	return t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *TaskRepo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE completed)
		FROM tasks
	`).Scan(&s.Total, &s.Completed)
	if err != nil {
		return s, fmt.Errorf("task stats: %w", err)
	}
	s.Pending = s.Total - s.Completed
	return s, nil
}

// SaveIdempotencyKey привязывает ключ к resourceID, если ключа еще нет или он указывает на staleID
// (задача удалена). Возвращает id, на который ключ указывает после вызова: при гонке это id победителя
func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID, staleID int64) (int64, error) {
	var stored int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET resource_id = EXCLUDED.resource_id, created_at = now()
		WHERE idempotency_keys.resource_id = $3
		RETURNING resource_id
	`, key, resourceID, staleID).Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("save idempotency key: %w", err)
	}

	// ключ уже занят другим запросом - отдаем его значение
	stored, err = r.GetIdempotencyKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("save idempotency key: %w", err)
	}
	return stored, nil
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get idempotency key: %w", err)
	}
	return id, nil
}

func (r *TaskRepo) PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// mapError помечает нарушения ограничений (класс SQLSTATE 23) как ErrorConstraint
func (r *TaskRepo) mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w: %w", op, ErrorConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
