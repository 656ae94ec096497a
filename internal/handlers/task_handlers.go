package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "todo-tracker"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	status, code := "ok", http.StatusOK
	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	responseWithPayload(w, code,
		toPayload("service", serviceName),
		toPayload("status", status),
		toPayload("time", time.Now().UTC().Format(time.RFC3339)),
	)
}

func (s *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tasks, err := s.TaskService.GetAllTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "get_all_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, s.TaskService.Today()))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if err := validateRequest(request); err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), request.ToTask())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	responseWithJSON(w, http.StatusCreated, dto.FromTask(created, s.TaskService.Today()))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := s.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}
	responseWithJSON(w, http.StatusOK, dto.FromTask(found, s.TaskService.Today()))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if err := validateRequest(request); err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	updated, err := s.TaskService.UpdateTaskByID(r.Context(), id, request.ToFields())
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)))
	responseWithJSON(w, http.StatusOK, dto.FromTask(updated, s.TaskService.Today()))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTaskByID(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена", zap.Int64("task_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *TaskHandler) SearchTasksByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tasks, err := s.TaskService.SearchTasksByName(r.Context(), name)
	if err != nil {
		handleServiceError(w, r, err, "search_tasks")
		return
	}
	// пустой результат поиска по имени - 404, как у поиска по id
	if len(tasks) == 0 {
		handleServiceError(w, r, service.NewBusinessError(service.CodeNotFound,
			"задачи с именем, содержащим '"+name+"', не найдены",
			service.ToDetail("name", name)), "search_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, s.TaskService.Today()))
}

func (s *TaskHandler) UpdateTaskByName(w http.ResponseWriter, r *http.Request) {
	currentName := r.URL.Query().Get("currentName")
	if currentName == "" {
		handleServiceError(w, r, service.NewValidationError("currentName", "параметр обязателен"), "update_task_by_name")
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if err := validateRequest(request); err != nil {
		handleServiceError(w, r, err, "update_task_by_name")
		return
	}

	updated, err := s.TaskService.UpdateTaskByName(r.Context(), currentName, request.ToFields())
	if err != nil {
		handleServiceError(w, r, err, "update_task_by_name")
		return
	}
	responseWithJSON(w, http.StatusOK, dto.FromTask(updated, s.TaskService.Today()))
}

func (s *TaskHandler) DeleteTaskByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	removed, err := s.TaskService.DeleteTaskByName(r.Context(), name)
	if err != nil {
		handleServiceError(w, r, err, "delete_task_by_name")
		return
	}

	logger.Info("HTTP_OUT: Задачи удалены", zap.String("name", name), zap.Int("count", removed))
	responseWithJSON(w, http.StatusOK, dto.DeleteByNameResponse{Name: name, Deleted: removed})
}

func (s *TaskHandler) FilterTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		handleServiceError(w, r, err, "filter_tasks")
		return
	}

	tasks, err := s.TaskService.FilterTasks(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err, "filter_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, s.TaskService.Today()))
}

func (s *TaskHandler) SortTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	tasks, err := s.TaskService.SortTasks(r.Context(), query.Get("sortBy"), query.Get("order"))
	if err != nil {
		handleServiceError(w, r, err, "sort_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, s.TaskService.Today()))
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: Не удалось получить id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, codeBadRequest, "id должен быть положительным целым числом")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, codeBadRequest, "Content-Type должен быть application/json")
		return false
	}

	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, codeBadRequest, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

// parseFilter: отсутствующий параметр не участвует в отборе
func parseFilter(r *http.Request) (service.TaskFilter, error) {
	query := r.URL.Query()
	var filter service.TaskFilter

	if raw := query.Get("priority"); raw != "" {
		p, ok := task.ParsePriority(raw)
		if !ok {
			return filter, service.NewValidationError("priority", "неизвестный приоритет "+raw)
		}
		filter.Priority = &p
	}
	if raw := query.Get("category"); raw != "" {
		c, ok := task.ParseCategory(raw)
		if !ok {
			return filter, service.NewValidationError("category", "неизвестная категория "+raw)
		}
		filter.Category = &c
	}
	if raw := query.Get("dueDate"); raw != "" {
		d, err := task.ParseDate(raw)
		if err != nil {
			return filter, service.NewValidationError("dueDate", "ожидается формат yyyy-MM-dd")
		}
		filter.DueDate = &d
	}
	if raw := query.Get("isCompleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, service.NewValidationError("isCompleted", "ожидается true или false")
		}
		filter.IsCompleted = &b
	}
	return filter, nil
}
