package handlers

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *TaskHandler) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", h.GetAllTasks)
		r.Post("/", h.PostTask)
		r.Get("/{id}", h.GetTaskByID)
		r.Put("/{id}", h.UpdateTaskByID)
		r.Delete("/{id}", h.DeleteTaskByID)

		r.Get("/tasks/name/{name}", h.SearchTasksByName)
		r.Put("/tasks/updateByName", h.UpdateTaskByName)
		r.Delete("/tasks/deleteByName", h.DeleteTaskByName)
		r.Get("/tasks/filter", h.FilterTasks)
		r.Get("/tasks/sort", h.SortTasks)
	})
}
