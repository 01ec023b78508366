package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
)

// memRepo - репозиторий в памяти, ведет себя как таблица tasks с NOT NULL на title
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]model.Task
	keys   map[string]int64
	err    error
}

var _ repo.TaskRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		tasks: make(map[int64]model.Task),
		keys:  make(map[string]int64),
	}
}

func (m *memRepo) Create(ctx context.Context, title *string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Task{}, m.err
	}
	if title == nil {
		return model.Task{}, repo.ErrorConstraint
	}
	m.nextID++
	t := model.Task{ID: m.nextID, Title: *title}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Task{}, m.err
	}
	t, ok := m.tasks[id]
	if !ok {
		return model.Task{}, repo.ErrorNotFound
	}
	return t, nil
}

func (m *memRepo) List(ctx context.Context) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tasks := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *memRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return t, repo.ErrorNotFound
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return repo.ErrorNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memRepo) Stats(ctx context.Context) (repo.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s repo.Stats
	for _, t := range m.tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s, nil
}

func (m *memRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID, staleID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.keys[key]; ok && current != staleID {
		return current, nil
	}
	m.keys[key] = resourceID
	return resourceID, nil
}

func (m *memRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	if !ok {
		return 0, repo.ErrorNotFound
	}
	return id, nil
}

func (m *memRepo) PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}
