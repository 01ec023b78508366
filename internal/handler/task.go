package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist-api/internal/model"
	"github.com/BuzzLyutic/tasklist-api/internal/repo"
	"github.com/BuzzLyutic/tasklist-api/internal/service"
	"github.com/BuzzLyutic/tasklist-api/pkg/respond"
)

const msgTaskNotFound = "Task not found"

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

type createTaskRequest struct {
	Title *string `json:"title"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.GetAllTasks(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

// Create не валидирует title: отсутствие поля доходит до БД как есть.
// Колонка title NOT NULL, поэтому POST без title намеренно отдает 500, а не 201:
// вставка падает на ограничении (ErrorConstraint), как в исходной схеме с nullable=False.
// Пустая строка "" сохраняется и дает 201.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.CreateTask(r.Context(), req.Title, idempKey)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, msgTaskNotFound)
		return
	}

	task, err := h.service.GetTaskByID(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, msgTaskNotFound)
		return
	}

	var upd model.TaskUpdate
	if err := decodeBody(r, &upd); err != nil {
		// несуществующая задача - 404 при любом теле
		if _, getErr := h.service.GetTaskByID(r.Context(), id); getErr != nil {
			h.handleErrors(w, r, getErr)
			return
		}
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, upd)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, msgTaskNotFound)
		return
	}

	task, err := h.service.CompleteTask(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		respond.Error(w, r, http.StatusNotFound, msgTaskNotFound)
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Message(w, r, http.StatusOK, "Task deleted")
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, repo.ErrorConstraint):
		h.logger.Warn("constraint violation", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	default:
		h.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// decodeBody считает пустое тело пустым объектом
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
