package service

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
)

// TaskService - по одной операции на сценарий, без бизнес-правил поверх репозитория
type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// CreateTask создает задачу. С ключом идемпотентности повторный запрос вернет уже созданную задачу
func (s *TaskService) CreateTask(ctx context.Context, title *string, idempKey string) (model.Task, error) {
	if idempKey == "" {
		return s.repo.Create(ctx, title)
	}

	// staleID - задача, на которую ключ указывал до удаления; 0 если ключа не было
	var staleID int64
	existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey)
	switch {
	case err == nil:
		task, err := s.repo.Get(ctx, existingID)
		if !errors.Is(err, repo.ErrorNotFound) {
			return task, err
		}
		staleID = existingID
	case !errors.Is(err, repo.ErrorNotFound):
		return model.Task{}, err
	}

	task, err := s.repo.Create(ctx, title)
	if err != nil {
		return task, err
	}

	storedID, err := s.repo.SaveIdempotencyKey(ctx, idempKey, task.ID, staleID)
	if err != nil {
		return task, err
	}
	if storedID == task.ID {
		return task, nil
	}

	// параллельный запрос с тем же ключом успел раньше, наша копия лишняя
	if err := s.repo.Delete(ctx, task.ID); err != nil && !errors.Is(err, repo.ErrorNotFound) {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, storedID)
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

// UpdateTask применяет только переданные поля
func (s *TaskService) UpdateTask(ctx context.Context, id int64, upd model.TaskUpdate) (model.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return task, err
	}
	upd.Apply(&task)
	return s.repo.Update(ctx, task)
}

func (s *TaskService) CompleteTask(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return task, err
	}
	task.Completed = true
	return s.repo.Update(ctx, task)
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

func (s *TaskService) Stats(ctx context.Context) (repo.Stats, error) {
	return s.repo.Stats(ctx)
}
