package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, title *string) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	SaveIdempotencyKey(ctx context.Context, key string, resourceID, staleID int64) (int64, error)
	GetIdempotencyKey(ctx context.Context, key string) (int64, error)
}

// KeyPurger удаляет устаревшие ключи идемпотентности
type KeyPurger interface {
	PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error)
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}
